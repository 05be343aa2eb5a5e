// Package reports provides read-only derived views over batches and the
// movement ledger.
package reports

import (
	"context"
	"time"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/ledger"
)

// ExpiringBatch is one batch at risk, with time left until expiry.
type ExpiringBatch struct {
	Batch    batch.Batch   `json:"batch"`
	TimeLeft time.Duration `json:"timeLeftSeconds"`
}

// ConsistencyResult compares batch-derived stock with the ledger-derived
// signed sum for one product. The two must agree; a mismatch means a
// compensation failed half-way and needs operator attention.
type ConsistencyResult struct {
	ProductID  id.ID          `json:"productId"`
	BatchStock types.Quantity `json:"batchStock"`
	LedgerSum  types.Quantity `json:"ledgerSum"`
	Consistent bool           `json:"consistent"`
}

// Service computes reports from the batch and ledger services.
type Service struct {
	batches *batch.Service
	ledger  *ledger.Service
}

// NewService creates a reports service.
func NewService(batches *batch.Service, ledgerSvc *ledger.Service) *Service {
	return &Service{batches: batches, ledger: ledgerSvc}
}

// ExpiringStock returns batches that still hold stock and expire within the
// given window from now, soonest first.
func (s *Service) ExpiringStock(ctx context.Context, tenantID string, window time.Duration) ([]ExpiringBatch, error) {
	now := time.Now().UTC()
	batches, err := s.batches.ListExpiringBefore(ctx, tenantID, now.Add(window))
	if err != nil {
		return nil, err
	}

	items := make([]ExpiringBatch, 0, len(batches))
	for _, b := range batches {
		items = append(items, ExpiringBatch{
			Batch:    b,
			TimeLeft: b.ExpiryDate.Sub(now),
		})
	}
	return items, nil
}

// CheckConsistency verifies that a product's batch stock equals its ledger
// signed sum.
func (s *Service) CheckConsistency(ctx context.Context, tenantID string, productID id.ID) (*ConsistencyResult, error) {
	batchStock, err := s.batches.CurrentStock(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	ledgerSum, err := s.ledger.SignedSum(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	return &ConsistencyResult{
		ProductID:  productID,
		BatchStock: batchStock,
		LedgerSum:  ledgerSum,
		Consistent: batchStock == ledgerSum,
	}, nil
}
