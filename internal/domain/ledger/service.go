package ledger

import (
	"context"
	"fmt"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/pkg/logger"
)

// Service provides business operations on the movement ledger.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append validates and records one movement.
func (s *Service) Append(ctx context.Context, m *Movement) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Append(ctx, m); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}

	return nil
}

// AppendAll validates and records a group of movements.
func (s *Service) AppendAll(ctx context.Context, movements []*Movement) error {
	if len(movements) == 0 {
		return nil
	}

	for _, m := range movements {
		if err := m.Validate(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.AppendAll(ctx, movements); err != nil {
		return fmt.Errorf("append movements: %w", err)
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"reference_type", movements[0].Reference.Type,
		"reference_id", movements[0].Reference.ID,
	)
	return nil
}

// ListByReference returns all movements caused by one transaction.
func (s *Service) ListByReference(ctx context.Context, tenantID string, ref Reference) ([]Movement, error) {
	return s.repo.ListByReference(ctx, tenantID, ref)
}

// ListByProduct returns movement history for a product.
func (s *Service) ListByProduct(ctx context.Context, tenantID string, productID id.ID, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListByProduct(ctx, tenantID, productID, filter)
}

// SignedSum returns the ledger-derived stock for a product.
func (s *Service) SignedSum(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error) {
	return s.repo.SignedSum(ctx, tenantID, productID)
}

// Compensate removes the movements of a transaction that failed before
// acknowledgment. The acknowledged ledger never loses entries.
func (s *Service) Compensate(ctx context.Context, tenantID string, ref Reference) error {
	if err := s.repo.DeleteByReference(ctx, tenantID, ref); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	logger.Info(ctx, "compensated movements",
		"reference_type", ref.Type,
		"reference_id", ref.ID,
	)
	return nil
}
