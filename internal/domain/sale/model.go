// Package sale provides the sale document and its orchestration.
// A sale exists with its line items and matching OUT movements, or it does
// not exist at all: any failure during creation is compensated before the
// error reaches the caller.
package sale

import (
	"context"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// Status of a sale. The only transition is completed -> cancelled, exactly
// once, never reversed.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Sale is a completed retail sale with its line items.
type Sale struct {
	ID       id.ID  `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"-"`

	// Number is unique per tenant (e.g. SAL-2026-00042).
	Number string `db:"number" json:"number"`

	Status Status `db:"status" json:"status"`

	CustomerName string `db:"customer_name" json:"customerName,omitempty"`

	Subtotal types.MinorUnits `db:"subtotal" json:"subtotal"`
	Discount types.MinorUnits `db:"discount" json:"discount"`
	Total    types.MinorUnits `db:"total" json:"total"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one sold position.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID  id.ID            `db:"product_id" json:"productId"`
	Quantity   types.Quantity   `db:"quantity" json:"quantity"`
	UnitPrice  types.MinorUnits `db:"unit_price" json:"unitPrice"`
	TotalPrice types.MinorUnits `db:"total_price" json:"totalPrice"`
}

// NewSale creates a sale header.
func NewSale(tenantID, customerName string, discount types.MinorUnits) *Sale {
	return &Sale{
		ID:           id.New(),
		TenantID:     tenantID,
		Status:       StatusCompleted,
		CustomerName: customerName,
		Discount:     discount,
		CreatedAt:    time.Now().UTC(),
	}
}

// AddLine appends a line and recalculates totals.
func (s *Sale) AddLine(productID id.ID, quantity types.Quantity, unitPrice types.MinorUnits) {
	line := Line{
		LineID:     id.New(),
		LineNo:     len(s.Lines) + 1,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: types.LineTotal(quantity, unitPrice),
	}
	s.Lines = append(s.Lines, line)
	s.recalculateTotals()
}

// recalculateTotals derives subtotal and total from lines.
// Total is clamped at zero when the discount exceeds the subtotal.
func (s *Sale) recalculateTotals() {
	s.Subtotal = 0
	for _, l := range s.Lines {
		s.Subtotal += l.TotalPrice
	}
	s.Total = s.Subtotal - s.Discount
	if s.Total.IsNegative() {
		s.Total = 0
	}
}

// Validate implements invariant checks before persistence.
func (s *Sale) Validate(ctx context.Context) error {
	if s.TenantID == "" {
		return apperror.NewInvalidInput("tenant is required", "tenantId")
	}
	if s.Discount.IsNegative() {
		return apperror.NewInvalidInput("discount must not be negative", "discount")
	}
	if len(s.Lines) == 0 {
		return apperror.NewInvalidInput("at least one line is required", "lines")
	}

	for i, line := range s.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewInvalidInput("product is required", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewInvalidInput("quantity must be positive", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitPrice.IsNegative() {
			return apperror.NewInvalidInput("unit price must not be negative", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// MarkCancelled applies the status transition in memory.
func (s *Sale) MarkCancelled(at time.Time) {
	s.Status = StatusCancelled
	s.CancelledAt = &at
}
