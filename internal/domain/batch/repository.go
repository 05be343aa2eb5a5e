package batch

import (
	"context"
	"time"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// Repository defines operations on the batch store.
//
// Decrement and Restore are the only mutations after creation. Both are
// atomic conditional updates: concurrent decrements of the same batch must
// never lose updates, and a decrement whose precondition no longer holds
// fails visibly with INSUFFICIENT_BATCH_QUANTITY rather than going negative.
type Repository interface {
	// Create inserts a new batch. Called only by the purchase orchestrator.
	Create(ctx context.Context, b *Batch) error

	// GetByID retrieves a batch scoped to the tenant.
	GetByID(ctx context.Context, tenantID string, batchID id.ID) (*Batch, error)

	// ListAvailable returns batches with quantity_remaining > 0 in FEFO
	// order: expiry ascending with NULL expiries last, tie-broken by
	// received_at ascending (oldest stock first among equally-dated batches).
	ListAvailable(ctx context.Context, tenantID string, productID id.ID) ([]Batch, error)

	// ListByProduct returns all batches for a product, including depleted
	// ones, newest first.
	ListByProduct(ctx context.Context, tenantID string, productID id.ID) ([]Batch, error)

	// ListExpiringBefore returns non-depleted batches whose expiry date is
	// before the cutoff, soonest first.
	ListExpiringBefore(ctx context.Context, tenantID string, cutoff time.Time) ([]Batch, error)

	// Decrement atomically reduces quantity_remaining by amount.
	// Fails with INSUFFICIENT_BATCH_QUANTITY if amount exceeds what remains.
	Decrement(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error

	// Restore atomically increases quantity_remaining by amount, used only
	// for explicit reversals (cancellation, compensation). Fails with
	// CONFLICT if the restore would exceed quantity_received.
	Restore(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error

	// Delete removes a batch. Used only by purchase compensation before the
	// purchase has been acknowledged; acknowledged batches are never deleted.
	Delete(ctx context.Context, tenantID string, batchID id.ID) error

	// TotalAvailable sums quantity_remaining across a product's batches.
	// This derived sum is the source of truth for current stock.
	TotalAvailable(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error)
}
