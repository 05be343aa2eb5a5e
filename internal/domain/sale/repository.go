package sale

import (
	"context"
	"time"

	"stocklot/internal/core/id"
	"stocklot/internal/domain"
)

// Repository defines persistence for sale documents.
type Repository interface {
	// Create inserts the header and all lines as a single statement group.
	Create(ctx context.Context, s *Sale) error

	// GetByID retrieves a sale with lines.
	GetByID(ctx context.Context, tenantID string, saleID id.ID) (*Sale, error)

	// GetByNumber retrieves a sale by its per-tenant number.
	GetByNumber(ctx context.Context, tenantID, number string) (*Sale, error)

	// List retrieves sales with filtering and pagination.
	List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*Sale], error)

	// MarkCancelled transitions completed -> cancelled conditionally.
	// Fails with CONCURRENT_MODIFICATION if the sale is not in completed
	// state when the update executes, which makes the transition
	// exactly-once under concurrent cancel calls.
	MarkCancelled(ctx context.Context, tenantID string, saleID id.ID, at time.Time) error

	// Delete removes the header and lines. Used only by compensation of an
	// unacknowledged sale; acknowledged sales are never deleted.
	Delete(ctx context.Context, tenantID string, saleID id.ID) error
}
