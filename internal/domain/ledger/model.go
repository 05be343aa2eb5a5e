// Package ledger provides the append-only stock movement log.
// Every quantity change in the batch store is mirrored by exactly one
// movement. Movements are immutable: reversals are new compensating entries,
// never edits. The only delete path is pre-acknowledgment compensation by an
// orchestrator rolling back a failed transaction.
package ledger

import (
	"context"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// MovementType defines the direction of a movement.
type MovementType string

const (
	// MovementIn increases stock (purchase receipt, cancellation restore).
	MovementIn MovementType = "in"
	// MovementOut decreases stock (sale consumption).
	MovementOut MovementType = "out"
	// MovementAdjustment carries a signed quantity for manual corrections.
	MovementAdjustment MovementType = "adjustment"
)

// Reference identifies the transaction that caused a movement.
type Reference struct {
	Type string `db:"reference_type" json:"referenceType"`
	ID   id.ID  `db:"reference_id" json:"referenceId"`
}

// Reference types used by the orchestrators.
const (
	RefTypeSale             = "Sale"
	RefTypePurchase         = "Purchase"
	RefTypeSaleCancellation = "SaleCancellation"
	RefTypeAdjustment       = "Adjustment"
)

// Movement is one immutable ledger entry.
//
// Quantity is unsigned for in/out movements (the type carries the sign);
// adjustments store a signed quantity directly.
type Movement struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"-"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	BatchID   *id.ID `db:"batch_id" json:"batchId,omitempty"`

	Type     MovementType   `db:"movement_type" json:"type"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	UnitPrice *types.MinorUnits `db:"unit_price" json:"unitPrice,omitempty"`

	Reference
	Reason string `db:"reason" json:"reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement entry.
func NewMovement(tenantID string, productID id.ID, batchID *id.ID, mt MovementType, qty types.Quantity, ref Reference) *Movement {
	return &Movement{
		ID:        id.New(),
		TenantID:  tenantID,
		ProductID: productID,
		BatchID:   batchID,
		Type:      mt,
		Quantity:  qty,
		Reference: ref,
		CreatedAt: time.Now().UTC(),
	}
}

// WithUnitPrice attaches the monetary value of the moved stock.
func (m *Movement) WithUnitPrice(p types.MinorUnits) *Movement {
	m.UnitPrice = &p
	return m
}

// WithReason attaches a free-form reason (required for adjustments).
func (m *Movement) WithReason(reason string) *Movement {
	m.Reason = reason
	return m
}

// SignedQuantity returns the quantity with direction applied:
// in = positive, out = negative, adjustment = as stored.
func (m *Movement) SignedQuantity() types.Quantity {
	if m.Type == MovementOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Validate checks movement invariants before append.
func (m *Movement) Validate(ctx context.Context) error {
	if m.TenantID == "" {
		return apperror.NewInvalidInput("tenant is required", "tenantId")
	}
	if id.IsNil(m.ProductID) {
		return apperror.NewInvalidInput("product is required", "productId")
	}
	if m.Reference.Type == "" || id.IsNil(m.Reference.ID) {
		return apperror.NewInvalidInput("reference is required", "reference")
	}

	switch m.Type {
	case MovementIn, MovementOut:
		if !m.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be positive for in/out movements", "quantity")
		}
	case MovementAdjustment:
		if m.Quantity.IsZero() {
			return apperror.NewInvalidInput("adjustment quantity must not be zero", "quantity")
		}
		if m.Reason == "" {
			return apperror.NewInvalidInput("adjustment requires a reason", "reason")
		}
	default:
		return apperror.NewInvalidInput("unknown movement type", "type")
	}

	return nil
}
