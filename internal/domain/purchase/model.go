// Package purchase provides the purchase document and its orchestration.
// Each received line becomes one new batch plus one IN movement; a failure
// mid-way compensates every batch and movement already created, so stock
// never reflects a partially received purchase.
package purchase

import (
	"context"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// Purchase is a goods receipt with its line items.
type Purchase struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"-"`

	// Number is unique per tenant (e.g. PUR-2026-00007).
	Number string `db:"number" json:"number"`

	SupplierName string `db:"supplier_name" json:"supplierName,omitempty"`

	Total types.MinorUnits `db:"total" json:"total"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one received position. BatchID is filled in once the line's batch
// has been created, giving a direct receipt-to-batch trace.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID            `db:"product_id" json:"productId"`
	Quantity  types.Quantity   `db:"quantity" json:"quantity"`
	UnitCost  types.MinorUnits `db:"unit_cost" json:"unitCost"`
	TotalCost types.MinorUnits `db:"total_cost" json:"totalCost"`

	ExpiryDate  *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	SupplierRef string     `db:"supplier_ref" json:"supplierRef,omitempty"`

	BatchID *id.ID `db:"batch_id" json:"batchId,omitempty"`
}

// NewPurchase creates a purchase header.
func NewPurchase(tenantID, supplierName string) *Purchase {
	return &Purchase{
		ID:           id.New(),
		TenantID:     tenantID,
		SupplierName: supplierName,
		CreatedAt:    time.Now().UTC(),
	}
}

// AddLine appends a line and recalculates the total.
func (p *Purchase) AddLine(productID id.ID, quantity types.Quantity, unitCost types.MinorUnits, expiry *time.Time, supplierRef string) {
	line := Line{
		LineID:      id.New(),
		LineNo:      len(p.Lines) + 1,
		ProductID:   productID,
		Quantity:    quantity,
		UnitCost:    unitCost,
		TotalCost:   types.LineTotal(quantity, unitCost),
		ExpiryDate:  expiry,
		SupplierRef: supplierRef,
	}
	p.Lines = append(p.Lines, line)

	p.Total = 0
	for _, l := range p.Lines {
		p.Total += l.TotalCost
	}
}

// Validate implements invariant checks before persistence.
func (p *Purchase) Validate(ctx context.Context) error {
	if p.TenantID == "" {
		return apperror.NewInvalidInput("tenant is required", "tenantId")
	}
	if len(p.Lines) == 0 {
		return apperror.NewInvalidInput("at least one line is required", "lines")
	}

	for i, line := range p.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewInvalidInput("product is required", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be positive", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewInvalidInput("unit cost must not be negative", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
