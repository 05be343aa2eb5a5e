package dto

import (
	"time"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/sale"
)

// --- Request DTOs ---

type CreateSaleRequest struct {
	CustomerName string            `json:"customerName,omitempty"`
	Discount     types.MinorUnits  `json:"discount,omitempty"`
	Lines        []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type SaleLineRequest struct {
	ProductID string           `json:"productId" binding:"required,uuid"`
	Quantity  types.Quantity   `json:"quantity" binding:"required"`
	UnitPrice types.MinorUnits `json:"unitPrice" binding:"gte=0"`
}

// ToInput converts the request to the orchestrator input. Unparsable product
// ids become nil ids and are rejected by domain validation.
func (r *CreateSaleRequest) ToInput() sale.CreateInput {
	in := sale.CreateInput{
		CustomerName: r.CustomerName,
		Discount:     r.Discount,
	}
	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		in.Lines = append(in.Lines, sale.LineInput{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return in
}

// --- Response DTOs ---

type SaleResponse struct {
	ID           string             `json:"id"`
	Number       string             `json:"number"`
	Status       string             `json:"status"`
	CustomerName string             `json:"customerName,omitempty"`
	Subtotal     types.MinorUnits   `json:"subtotal"`
	Discount     types.MinorUnits   `json:"discount"`
	Total        types.MinorUnits   `json:"total"`
	CreatedAt    time.Time          `json:"createdAt"`
	CancelledAt  *time.Time         `json:"cancelledAt,omitempty"`
	Lines        []SaleLineResponse `json:"lines,omitempty"`
}

type SaleLineResponse struct {
	LineNo     int              `json:"lineNo"`
	ProductID  string           `json:"productId"`
	Quantity   types.Quantity   `json:"quantity"`
	UnitPrice  types.MinorUnits `json:"unitPrice"`
	TotalPrice types.MinorUnits `json:"totalPrice"`
}

func FromSale(s *sale.Sale) SaleResponse {
	resp := SaleResponse{
		ID:           s.ID.String(),
		Number:       s.Number,
		Status:       string(s.Status),
		CustomerName: s.CustomerName,
		Subtotal:     s.Subtotal,
		Discount:     s.Discount,
		Total:        s.Total,
		CreatedAt:    s.CreatedAt,
		CancelledAt:  s.CancelledAt,
	}
	for _, line := range s.Lines {
		resp.Lines = append(resp.Lines, SaleLineResponse{
			LineNo:     line.LineNo,
			ProductID:  line.ProductID.String(),
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
		})
	}
	return resp
}

func FromSaleList(sales []*sale.Sale) []SaleResponse {
	items := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		items = append(items, FromSale(s))
	}
	return items
}
