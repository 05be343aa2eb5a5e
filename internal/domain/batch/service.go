package batch

import (
	"context"
	"fmt"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/pkg/logger"
)

// Service provides business operations on the batch store.
type Service struct {
	repo Repository
}

// NewService creates a new batch service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Repo exposes the underlying repository for the consumption engine.
func (s *Service) Repo() Repository {
	return s.repo
}

// Create validates and inserts a new batch.
func (s *Service) Create(ctx context.Context, b *Batch) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}

	logger.Info(ctx, "batch created",
		"batch_id", b.ID,
		"product_id", b.ProductID,
		"quantity", b.QuantityReceived,
	)
	return nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, tenantID string, batchID id.ID) (*Batch, error) {
	return s.repo.GetByID(ctx, tenantID, batchID)
}

// ListAvailable returns consumable batches in FEFO order.
func (s *Service) ListAvailable(ctx context.Context, tenantID string, productID id.ID) ([]Batch, error) {
	return s.repo.ListAvailable(ctx, tenantID, productID)
}

// ListByProduct returns a product's full batch history.
func (s *Service) ListByProduct(ctx context.Context, tenantID string, productID id.ID) ([]Batch, error) {
	return s.repo.ListByProduct(ctx, tenantID, productID)
}

// ListExpiringBefore returns batches that still hold stock and expire before
// the cutoff date.
func (s *Service) ListExpiringBefore(ctx context.Context, tenantID string, cutoff time.Time) ([]Batch, error) {
	return s.repo.ListExpiringBefore(ctx, tenantID, cutoff)
}

// Restore re-increments a batch after a cancellation or compensation.
func (s *Service) Restore(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error {
	if !amount.IsPositive() {
		return apperror.NewInvalidInput("restore amount must be positive", "amount")
	}

	if err := s.repo.Restore(ctx, tenantID, batchID, amount); err != nil {
		return fmt.Errorf("restore batch %s: %w", batchID, err)
	}

	logger.Info(ctx, "batch restored", "batch_id", batchID, "amount", amount)
	return nil
}

// CurrentStock derives a product's stock as the sum of quantity_remaining
// across its batches. There is no cached counter to drift.
func (s *Service) CurrentStock(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error) {
	return s.repo.TotalAvailable(ctx, tenantID, productID)
}
