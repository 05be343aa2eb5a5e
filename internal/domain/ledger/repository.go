package ledger

import (
	"context"
	"time"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// MovementFilter bounds movement history queries.
type MovementFilter struct {
	Type     *MovementType
	BatchID  *id.ID
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Repository defines the append-only movement store.
//
// There is no update operation. DeleteByReference exists solely so an
// orchestrator can compensate a transaction that was never acknowledged to
// the caller; once acknowledged, a movement is permanent.
type Repository interface {
	// Append inserts one movement.
	Append(ctx context.Context, m *Movement) error

	// AppendAll inserts a group of movements from one transaction.
	AppendAll(ctx context.Context, movements []*Movement) error

	// ListByReference returns all movements caused by one transaction,
	// oldest first.
	ListByReference(ctx context.Context, tenantID string, ref Reference) ([]Movement, error)

	// ListByProduct returns movement history for a product, newest first.
	ListByProduct(ctx context.Context, tenantID string, productID id.ID, filter MovementFilter) ([]Movement, error)

	// SignedSum returns the signed quantity sum of all movements for a
	// product. Used to cross-check derived stock against the ledger.
	SignedSum(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error)

	// DeleteByReference removes movements of an unacknowledged transaction
	// during compensation. Never called after success has been returned.
	DeleteByReference(ctx context.Context, tenantID string, ref Reference) error
}
