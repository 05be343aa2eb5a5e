// Package batch provides the per-product inventory batch store.
// A batch is a discrete quantity of a product received at one time, with its
// own cost and optional expiry, tracked until fully depleted. Depleted
// batches are inert but never deleted - they stay for audit and history.
package batch

import (
	"context"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// Batch holds one received lot of a product.
//
// QuantityRemaining only ever decreases after creation, except through an
// explicit reversal (sale cancellation or orchestrator compensation), and is
// bounded by 0 <= QuantityRemaining <= QuantityReceived at all times.
type Batch struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"-"`

	ProductID id.ID `db:"product_id" json:"productId"`

	QuantityReceived  types.Quantity `db:"quantity_received" json:"quantityReceived"`
	QuantityRemaining types.Quantity `db:"quantity_remaining" json:"quantityRemaining"`

	UnitCost types.MinorUnits `db:"unit_cost" json:"unitCost"`

	// ExpiryDate is optional; batches without one sort last in FEFO order.
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	// SupplierRef is an optional supplier or lot reference.
	SupplierRef string `db:"supplier_ref" json:"supplierRef,omitempty"`

	ReceivedAt time.Time `db:"received_at" json:"receivedAt"`
}

// NewBatch creates a batch for a purchase line.
func NewBatch(tenantID string, productID id.ID, quantity types.Quantity, unitCost types.MinorUnits, expiry *time.Time) *Batch {
	return &Batch{
		ID:                id.New(),
		TenantID:          tenantID,
		ProductID:         productID,
		QuantityReceived:  quantity,
		QuantityRemaining: quantity,
		UnitCost:          unitCost,
		ExpiryDate:        expiry,
		ReceivedAt:        time.Now().UTC(),
	}
}

// Validate checks batch invariants at creation time.
func (b *Batch) Validate(ctx context.Context) error {
	if b.TenantID == "" {
		return apperror.NewInvalidInput("tenant is required", "tenantId")
	}
	if id.IsNil(b.ProductID) {
		return apperror.NewInvalidInput("product is required", "productId")
	}
	if !b.QuantityReceived.IsPositive() {
		return apperror.NewInvalidInput("quantity must be positive", "quantity")
	}
	if b.UnitCost.IsNegative() {
		return apperror.NewInvalidInput("unit cost must not be negative", "unitCost")
	}
	return nil
}

// IsExpired reports whether the batch is past its expiry date at the given
// time. Expired batches remain eligible for consumption - rejecting sale of
// expired stock is a caller policy, not enforced here.
func (b *Batch) IsExpired(at time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(at)
}

// IsDepleted reports whether nothing remains in the batch.
func (b *Batch) IsDepleted() bool {
	return b.QuantityRemaining.IsZero()
}
