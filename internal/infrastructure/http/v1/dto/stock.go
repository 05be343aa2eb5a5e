package dto

import (
	"time"

	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/ledger"
	"stocklot/internal/domain/reports"
)

// StockResponse is the derived stock level of one product.
type StockResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}

type BatchResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"productId"`
	QuantityReceived  types.Quantity   `json:"quantityReceived"`
	QuantityRemaining types.Quantity   `json:"quantityRemaining"`
	UnitCost          types.MinorUnits `json:"unitCost"`
	ExpiryDate        *time.Time       `json:"expiryDate,omitempty"`
	SupplierRef       string           `json:"supplierRef,omitempty"`
	ReceivedAt        time.Time        `json:"receivedAt"`
}

func FromBatch(b batch.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID.String(),
		ProductID:         b.ProductID.String(),
		QuantityReceived:  b.QuantityReceived,
		QuantityRemaining: b.QuantityRemaining,
		UnitCost:          b.UnitCost,
		ExpiryDate:        b.ExpiryDate,
		SupplierRef:       b.SupplierRef,
		ReceivedAt:        b.ReceivedAt,
	}
}

func FromBatchList(batches []batch.Batch) []BatchResponse {
	items := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		items = append(items, FromBatch(b))
	}
	return items
}

type MovementResponse struct {
	ID            string            `json:"id"`
	ProductID     string            `json:"productId"`
	BatchID       string            `json:"batchId,omitempty"`
	Type          string            `json:"type"`
	Quantity      types.Quantity    `json:"quantity"`
	UnitPrice     *types.MinorUnits `json:"unitPrice,omitempty"`
	ReferenceType string            `json:"referenceType"`
	ReferenceID   string            `json:"referenceId"`
	Reason        string            `json:"reason,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func FromMovement(m ledger.Movement) MovementResponse {
	resp := MovementResponse{
		ID:            m.ID.String(),
		ProductID:     m.ProductID.String(),
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		ReferenceType: m.Reference.Type,
		ReferenceID:   m.Reference.ID.String(),
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
	}
	if m.BatchID != nil {
		resp.BatchID = m.BatchID.String()
	}
	return resp
}

func FromMovementList(movements []ledger.Movement) []MovementResponse {
	items := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		items = append(items, FromMovement(m))
	}
	return items
}

type ExpiringBatchResponse struct {
	Batch    BatchResponse `json:"batch"`
	DaysLeft int           `json:"daysLeft"`
}

func FromExpiringBatch(e reports.ExpiringBatch) ExpiringBatchResponse {
	return ExpiringBatchResponse{
		Batch:    FromBatch(e.Batch),
		DaysLeft: int(e.TimeLeft.Hours() / 24),
	}
}

type ConsistencyResponse struct {
	ProductID  string         `json:"productId"`
	BatchStock types.Quantity `json:"batchStock"`
	LedgerSum  types.Quantity `json:"ledgerSum"`
	Consistent bool           `json:"consistent"`
}

func FromConsistency(r *reports.ConsistencyResult) ConsistencyResponse {
	return ConsistencyResponse{
		ProductID:  r.ProductID.String(),
		BatchStock: r.BatchStock,
		LedgerSum:  r.LedgerSum,
		Consistent: r.Consistent,
	}
}
