package sale

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
	"stocklot/internal/domain/catalog"
	"stocklot/internal/domain/consumption"
	"stocklot/internal/domain/ledger"
	"stocklot/pkg/logger"
)

// LineInput is one requested sale position.
type LineInput struct {
	ProductID id.ID            `json:"productId"`
	Quantity  types.Quantity   `json:"quantity"`
	UnitPrice types.MinorUnits `json:"unitPrice"`
}

// CreateInput is the sale creation request.
type CreateInput struct {
	CustomerName string           `json:"customerName"`
	Discount     types.MinorUnits `json:"discount"`
	Lines        []LineInput      `json:"lines"`
}

// Service orchestrates sale creation and cancellation.
//
// Creation is compensation-based rather than transactional: the service
// records what it created (header, lines, per-line consumption takes) and
// undoes all of it in reverse order when any later step fails. The caller
// never observes a half-applied sale.
type Service struct {
	repo     Repository
	catalog  catalog.Repository
	engine   *consumption.Engine
	ledger   *ledger.Service
	numbers  sequence.Generator
	recorder audit.Recorder
}

// NewService creates a sale service.
func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	engine *consumption.Engine,
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
		engine:   engine,
		ledger:   ledgerSvc,
		numbers:  numbers,
		recorder: recorder,
	}
}

// Create runs the full sale orchestration:
//
//  1. reserve a sale number
//  2. compute totals and insert header + lines
//  3. consume stock per line in FEFO order
//  4. on any failure, compensate everything created for this sale
//
// A failed sale leaves no sale rows, no movements and no decrements behind.
// The reserved number is not returned to the counter; gaps from compensated
// sales are the documented exception to gapless numbering.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (*Sale, error) {
	doc := NewSale(tenantID, in.CustomerName, in.Discount)
	for _, line := range in.Lines {
		doc.AddLine(line.ProductID, line.Quantity, line.UnitPrice)
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

	num, err := s.numbers.NextNumber(ctx, tenantID, sequence.KindSale)
	if err != nil {
		return nil, apperror.NewSequenceConflict(string(sequence.KindSale)).WithCause(err)
	}
	doc.Number = sequence.Format(sequence.DefaultConfig(sequence.KindSale), doc.CreatedAt, num)

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: doc.ID}
	var consumed []consumption.Take
	for i, line := range doc.Lines {
		takes, err := s.engine.Consume(ctx, tenantID, line.ProductID, line.Quantity, line.UnitPrice, ref)
		if err != nil {
			s.compensate(ctx, tenantID, doc.ID, ref, consumed)
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("lineNo", i+1)
			}
			return nil, err
		}
		consumed = append(consumed, takes...)
	}

	if err := s.recorder.Record(ctx, tenantID, "Sale", doc.ID, audit.ActionCreate, map[string]any{
		"number": doc.Number,
		"total":  doc.Total,
		"lines":  len(doc.Lines),
	}); err != nil {
		logger.Warn(ctx, "audit record failed", "sale_id", doc.ID, "error", err)
	}

	logger.Info(ctx, "sale created",
		"sale_id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines),
		"total", doc.Total,
	)
	return doc, nil
}

// compensate undoes everything created for a failed sale, in reverse order:
// restore batch quantities, drop the sale's movements, drop header + lines.
// Failures are logged; there is nothing further to unwind.
func (s *Service) compensate(ctx context.Context, tenantID string, saleID id.ID, ref ledger.Reference, consumed []consumption.Take) {
	if err := s.engine.Restore(ctx, tenantID, consumed); err != nil {
		logger.Error(ctx, "sale compensation: batch restore failed", "sale_id", saleID, "error", err)
	}
	if err := s.ledger.Compensate(ctx, tenantID, ref); err != nil {
		logger.Error(ctx, "sale compensation: movement delete failed", "sale_id", saleID, "error", err)
	}
	if err := s.repo.Delete(ctx, tenantID, saleID); err != nil {
		logger.Error(ctx, "sale compensation: document delete failed", "sale_id", saleID, "error", err)
	}

	logger.Info(ctx, "sale compensated", "sale_id", saleID)
}

// GetByID retrieves a sale with lines.
func (s *Service) GetByID(ctx context.Context, tenantID string, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, tenantID, saleID)
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, tenantID, filter)
}

// Cancel reverses a completed sale: the exact batches the sale consumed are
// re-incremented (using the OUT movements' batch traceability) and matching
// compensating IN movements are appended, referencing the cancellation.
//
// The status transition runs first as a conditional update, so concurrent
// cancel calls cannot restore stock twice.
func (s *Service) Cancel(ctx context.Context, tenantID string, saleID id.ID) error {
	doc, err := s.repo.GetByID(ctx, tenantID, saleID)
	if err != nil {
		return err
	}

	if doc.Status == StatusCancelled {
		return apperror.NewBusinessRule(apperror.CodeSaleCancelled, "Sale is already cancelled").
			WithDetail("sale_id", saleID.String())
	}

	now := time.Now().UTC()
	if err := s.repo.MarkCancelled(ctx, tenantID, saleID, now); err != nil {
		return err
	}

	outs, err := s.ledger.ListByReference(ctx, tenantID, ledger.Reference{Type: ledger.RefTypeSale, ID: saleID})
	if err != nil {
		return fmt.Errorf("load sale movements: %w", err)
	}

	cancelRef := ledger.Reference{Type: ledger.RefTypeSaleCancellation, ID: saleID}
	var restored []*ledger.Movement
	for i := range outs {
		m := outs[i]
		if m.Type != ledger.MovementOut || m.BatchID == nil {
			continue
		}

		takes := []consumption.Take{{BatchID: *m.BatchID, Quantity: m.Quantity}}
		if err := s.engine.Restore(ctx, tenantID, takes); err != nil {
			return fmt.Errorf("restore batch %s: %w", m.BatchID, err)
		}

		in := ledger.NewMovement(tenantID, m.ProductID, m.BatchID, ledger.MovementIn, m.Quantity, cancelRef).
			WithReason("sale cancelled")
		if m.UnitPrice != nil {
			in.WithUnitPrice(*m.UnitPrice)
		}
		restored = append(restored, in)
	}

	if err := s.ledger.AppendAll(ctx, restored); err != nil {
		return fmt.Errorf("append cancellation movements: %w", err)
	}

	if err := s.recorder.Record(ctx, tenantID, "Sale", saleID, audit.ActionCancel, map[string]any{
		"number": doc.Number,
	}); err != nil {
		logger.Warn(ctx, "audit record failed", "sale_id", saleID, "error", err)
	}

	logger.Info(ctx, "sale cancelled", "sale_id", saleID, "number", doc.Number, "restored_batches", len(restored))
	return nil
}
