package purchase

import (
	"context"
	"fmt"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/sequence"
	"stocklot/internal/core/types"
	"stocklot/internal/domain"
	"stocklot/internal/domain/audit"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/catalog"
	"stocklot/internal/domain/ledger"
	"stocklot/pkg/logger"
)

// LineInput is one requested receipt position.
type LineInput struct {
	ProductID   id.ID            `json:"productId"`
	Quantity    types.Quantity   `json:"quantity"`
	UnitCost    types.MinorUnits `json:"unitCost"`
	ExpiryDate  *time.Time       `json:"expiryDate,omitempty"`
	SupplierRef string           `json:"supplierRef,omitempty"`
}

// CreateInput is the purchase creation request.
type CreateInput struct {
	SupplierName string      `json:"supplierName"`
	Lines        []LineInput `json:"lines"`
}

// Service orchestrates purchase receipt. Like sale creation it is
// compensation-based: created batches, movements and the document itself are
// removed in reverse order if any later step fails.
type Service struct {
	repo     Repository
	catalog  catalog.Repository
	batches  *batch.Service
	ledger   *ledger.Service
	numbers  sequence.Generator
	recorder audit.Recorder
}

// NewService creates a purchase service.
func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	batches *batch.Service,
	ledgerSvc *ledger.Service,
	numbers sequence.Generator,
	recorder audit.Recorder,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:     repo,
		catalog:  catalogRepo,
		batches:  batches,
		ledger:   ledgerSvc,
		numbers:  numbers,
		recorder: recorder,
	}
}

// Create runs the full receipt orchestration:
//
//  1. reserve a purchase number
//  2. insert header + lines
//  3. per line: create a batch, append an IN movement, link batch to line
//  4. on any failure, remove everything created for this purchase
//
// Either all lines land as batches with IN movements, or none do.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (*Purchase, error) {
	doc := NewPurchase(tenantID, in.SupplierName)
	for _, line := range in.Lines {
		doc.AddLine(line.ProductID, line.Quantity, line.UnitCost, line.ExpiryDate, line.SupplierRef)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	for i, line := range doc.Lines {
		exists, err := s.catalog.Exists(ctx, tenantID, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("check product %s: %w", line.ProductID, err)
		}
		if !exists {
			return nil, apperror.NewInvalidInput("unknown product", "lines").
				WithDetail("lineNo", i+1).
				WithDetail("product_id", line.ProductID.String())
		}
	}

	num, err := s.numbers.NextNumber(ctx, tenantID, sequence.KindPurchase)
	if err != nil {
		return nil, apperror.NewSequenceConflict(string(sequence.KindPurchase)).WithCause(err)
	}
	doc.Number = sequence.Format(sequence.DefaultConfig(sequence.KindPurchase), doc.CreatedAt, num)

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	ref := ledger.Reference{Type: ledger.RefTypePurchase, ID: doc.ID}
	var created []id.ID
	for i := range doc.Lines {
		line := &doc.Lines[i]

		b := batch.NewBatch(tenantID, line.ProductID, line.Quantity, line.UnitCost, line.ExpiryDate)
		b.SupplierRef = line.SupplierRef
		if err := s.batches.Create(ctx, b); err != nil {
			s.compensate(ctx, tenantID, doc.ID, ref, created)
			return nil, err
		}
		created = append(created, b.ID)

		batchID := b.ID
		m := ledger.NewMovement(tenantID, line.ProductID, &batchID, ledger.MovementIn, line.Quantity, ref).
			WithUnitPrice(line.UnitCost)
		if err := s.ledger.Append(ctx, m); err != nil {
			s.compensate(ctx, tenantID, doc.ID, ref, created)
			return nil, err
		}

		if err := s.repo.SetLineBatch(ctx, tenantID, doc.ID, line.LineID, b.ID); err != nil {
			s.compensate(ctx, tenantID, doc.ID, ref, created)
			return nil, fmt.Errorf("link batch to line: %w", err)
		}
		line.BatchID = &batchID
	}

	if err := s.recorder.Record(ctx, tenantID, "Purchase", doc.ID, audit.ActionCreate, map[string]any{
		"number": doc.Number,
		"total":  doc.Total,
		"lines":  len(doc.Lines),
	}); err != nil {
		logger.Warn(ctx, "audit record failed", "purchase_id", doc.ID, "error", err)
	}

	logger.Info(ctx, "purchase created",
		"purchase_id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines),
		"total", doc.Total,
	)
	return doc, nil
}

// compensate removes everything created for a failed purchase: movements
// first (they reference the batches), then batches, then header + lines.
// Failures are logged.
func (s *Service) compensate(ctx context.Context, tenantID string, purchaseID id.ID, ref ledger.Reference, batchIDs []id.ID) {
	if err := s.ledger.Compensate(ctx, tenantID, ref); err != nil {
		logger.Error(ctx, "purchase compensation: movement delete failed", "purchase_id", purchaseID, "error", err)
	}
	for i := len(batchIDs) - 1; i >= 0; i-- {
		if err := s.batches.Repo().Delete(ctx, tenantID, batchIDs[i]); err != nil {
			logger.Error(ctx, "purchase compensation: batch delete failed",
				"purchase_id", purchaseID, "batch_id", batchIDs[i], "error", err)
		}
	}
	if err := s.repo.Delete(ctx, tenantID, purchaseID); err != nil {
		logger.Error(ctx, "purchase compensation: document delete failed", "purchase_id", purchaseID, "error", err)
	}

	logger.Info(ctx, "purchase compensated", "purchase_id", purchaseID)
}

// GetByID retrieves a purchase with lines.
func (s *Service) GetByID(ctx context.Context, tenantID string, purchaseID id.ID) (*Purchase, error) {
	return s.repo.GetByID(ctx, tenantID, purchaseID)
}

// List retrieves purchases with filtering.
func (s *Service) List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*Purchase], error) {
	return s.repo.List(ctx, tenantID, filter)
}
