package dto

import (
	"time"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/purchase"
)

// --- Request DTOs ---

type CreatePurchaseRequest struct {
	SupplierName string                `json:"supplierName,omitempty"`
	Lines        []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PurchaseLineRequest struct {
	ProductID   string           `json:"productId" binding:"required,uuid"`
	Quantity    types.Quantity   `json:"quantity" binding:"required"`
	UnitCost    types.MinorUnits `json:"unitCost" binding:"gte=0"`
	ExpiryDate  *time.Time       `json:"expiryDate,omitempty" time_format:"2006-01-02"`
	SupplierRef string           `json:"supplierRef,omitempty"`
}

func (r *CreatePurchaseRequest) ToInput() purchase.CreateInput {
	in := purchase.CreateInput{SupplierName: r.SupplierName}
	for _, line := range r.Lines {
		productID, _ := id.Parse(line.ProductID)
		in.Lines = append(in.Lines, purchase.LineInput{
			ProductID:   productID,
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost,
			ExpiryDate:  line.ExpiryDate,
			SupplierRef: line.SupplierRef,
		})
	}
	return in
}

// --- Response DTOs ---

type PurchaseResponse struct {
	ID           string                 `json:"id"`
	Number       string                 `json:"number"`
	SupplierName string                 `json:"supplierName,omitempty"`
	Total        types.MinorUnits       `json:"total"`
	CreatedAt    time.Time              `json:"createdAt"`
	Lines        []PurchaseLineResponse `json:"lines,omitempty"`
}

type PurchaseLineResponse struct {
	LineNo      int              `json:"lineNo"`
	ProductID   string           `json:"productId"`
	Quantity    types.Quantity   `json:"quantity"`
	UnitCost    types.MinorUnits `json:"unitCost"`
	TotalCost   types.MinorUnits `json:"totalCost"`
	ExpiryDate  *time.Time       `json:"expiryDate,omitempty"`
	SupplierRef string           `json:"supplierRef,omitempty"`
	BatchID     string           `json:"batchId,omitempty"`
}

func FromPurchase(p *purchase.Purchase) PurchaseResponse {
	resp := PurchaseResponse{
		ID:           p.ID.String(),
		Number:       p.Number,
		SupplierName: p.SupplierName,
		Total:        p.Total,
		CreatedAt:    p.CreatedAt,
	}
	for _, line := range p.Lines {
		lr := PurchaseLineResponse{
			LineNo:      line.LineNo,
			ProductID:   line.ProductID.String(),
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost,
			TotalCost:   line.TotalCost,
			ExpiryDate:  line.ExpiryDate,
			SupplierRef: line.SupplierRef,
		}
		if line.BatchID != nil {
			lr.BatchID = line.BatchID.String()
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}

func FromPurchaseList(purchases []*purchase.Purchase) []PurchaseResponse {
	items := make([]PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, FromPurchase(p))
	}
	return items
}
