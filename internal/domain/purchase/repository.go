package purchase

import (
	"context"

	"stocklot/internal/core/id"
	"stocklot/internal/domain"
)

// Repository defines persistence for purchase documents.
type Repository interface {
	// Create inserts the header and all lines as a single statement group.
	Create(ctx context.Context, p *Purchase) error

	// GetByID retrieves a purchase with lines.
	GetByID(ctx context.Context, tenantID string, purchaseID id.ID) (*Purchase, error)

	// GetByNumber retrieves a purchase by its per-tenant number.
	GetByNumber(ctx context.Context, tenantID, number string) (*Purchase, error)

	// List retrieves purchases with filtering and pagination.
	List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*Purchase], error)

	// SetLineBatch records the batch created for a line.
	SetLineBatch(ctx context.Context, tenantID string, purchaseID, lineID, batchID id.ID) error

	// Delete removes the header and lines. Used only by compensation of an
	// unacknowledged purchase; acknowledged purchases are never deleted.
	Delete(ctx context.Context, tenantID string, purchaseID id.ID) error
}
