// Package consumption provides the FEFO consumption engine.
// Given a tenant, product and required quantity it selects batches in
// first-expires-first-out order and decrements them, emitting one OUT ledger
// entry per batch taken. Insufficiency is detected with a dry-run sum check
// before any decrement is applied, so a failed consumption never leaves
// partial decrements behind.
package consumption

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/ledger"
	"stocklot/pkg/logger"
)

var tracer = otel.Tracer("stocklot/consumption")

// defaultMaxAttempts bounds re-runs of the availability check when a batch
// decrement loses a race against a concurrent consumer.
const defaultMaxAttempts = 3

// Take records one batch's contribution to a consumption.
// The breakdown lets callers attach batch ids to sale lines and lets the
// cancellation flow restore the exact batches that were consumed.
type Take struct {
	BatchID  id.ID            `json:"batchId"`
	Quantity types.Quantity   `json:"quantity"`
	UnitCost types.MinorUnits `json:"unitCost"`
}

// Engine walks batches in FEFO order and applies atomic conditional
// decrements. It holds no state between calls; safety under concurrency
// comes from the conditional decrement and the bounded retry loop.
type Engine struct {
	batches     batch.Repository
	ledger      *ledger.Service
	maxAttempts int
}

// NewEngine creates a consumption engine.
func NewEngine(batches batch.Repository, ledgerSvc *ledger.Service) *Engine {
	return &Engine{
		batches:     batches,
		ledger:      ledgerSvc,
		maxAttempts: defaultMaxAttempts,
	}
}

// WithMaxAttempts overrides the retry bound (tests).
func (e *Engine) WithMaxAttempts(n int) *Engine {
	if n > 0 {
		e.maxAttempts = n
	}
	return e
}

// Consume takes required quantity from the product's batches in FEFO order.
//
// The dry run first: total availability is computed from the same batch
// snapshot the walk uses, and no decrement is issued unless the total covers
// the requirement. A concurrent consumer can still shrink a batch between
// snapshot and decrement; the conditional decrement then fails visibly, all
// decrements of this attempt are restored, and the whole check re-runs
// against fresh data. Exhausted retries surface as INSUFFICIENT_STOCK.
//
// On success the full breakdown of takes is returned and one OUT movement
// per take has been appended to the ledger.
func (e *Engine) Consume(
	ctx context.Context,
	tenantID string,
	productID id.ID,
	required types.Quantity,
	unitPrice types.MinorUnits,
	ref ledger.Reference,
) ([]Take, error) {
	ctx, span := tracer.Start(ctx, "consume",
		trace.WithAttributes(
			attribute.String("product_id", productID.String()),
			attribute.Float64("required", required.Float64()),
		))
	defer span.End()

	if !required.IsPositive() {
		return nil, apperror.NewInvalidInput("required quantity must be positive", "quantity")
	}

	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		takes, err := e.attempt(ctx, tenantID, productID, required)
		if err != nil {
			if apperror.IsInsufficientBatchQuantity(err) {
				// Lost a race against a concurrent consumer; re-check
				// availability against fresh data.
				lastErr = err
				logger.Debug(ctx, "consumption retry after batch race",
					"product_id", productID,
					"attempt", attempt+1,
				)
				continue
			}
			return nil, err
		}

		if err := e.recordTakes(ctx, tenantID, productID, takes, unitPrice, ref); err != nil {
			e.restore(ctx, tenantID, takes)
			return nil, err
		}

		return takes, nil
	}

	// Retries exhausted: report as plain insufficiency (the caller cannot
	// act on the internal race signal).
	available, err := e.batches.TotalAvailable(ctx, tenantID, productID)
	if err != nil {
		available = 0
	}
	return nil, apperror.NewInsufficientStock(productID.String(), required.Float64(), available.Float64()).
		WithCause(lastErr)
}

// attempt performs one dry-run check plus greedy walk. On a batch race it
// restores every decrement it applied and returns the race error.
func (e *Engine) attempt(ctx context.Context, tenantID string, productID id.ID, required types.Quantity) ([]Take, error) {
	available, err := e.batches.ListAvailable(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("list available batches: %w", err)
	}

	var total types.Quantity
	for i := range available {
		total += available[i].QuantityRemaining
	}
	if total < required {
		return nil, apperror.NewInsufficientStock(productID.String(), required.Float64(), total.Float64())
	}

	need := required
	takes := make([]Take, 0, len(available))
	for i := range available {
		if need.IsZero() {
			break
		}
		b := &available[i]

		take := need.Min(b.QuantityRemaining)
		if !take.IsPositive() {
			continue
		}

		if err := e.batches.Decrement(ctx, tenantID, b.ID, take); err != nil {
			e.restore(ctx, tenantID, takes)
			return nil, err
		}

		takes = append(takes, Take{BatchID: b.ID, Quantity: take, UnitCost: b.UnitCost})
		need -= take
	}

	if !need.IsZero() {
		// The snapshot covered the requirement, so this only happens if a
		// batch vanished mid-walk without tripping a decrement.
		e.restore(ctx, tenantID, takes)
		return nil, apperror.NewInsufficientBatchQuantity(productID.String(), need.Float64())
	}

	return takes, nil
}

// recordTakes appends one OUT movement per take.
func (e *Engine) recordTakes(
	ctx context.Context,
	tenantID string,
	productID id.ID,
	takes []Take,
	unitPrice types.MinorUnits,
	ref ledger.Reference,
) error {
	movements := make([]*ledger.Movement, 0, len(takes))
	for _, t := range takes {
		batchID := t.BatchID
		m := ledger.NewMovement(tenantID, productID, &batchID, ledger.MovementOut, t.Quantity, ref).
			WithUnitPrice(unitPrice)
		movements = append(movements, m)
	}
	return e.ledger.AppendAll(ctx, movements)
}

// restore rolls back applied decrements in reverse order. Failures here are
// joined and logged but cannot be recovered automatically.
func (e *Engine) restore(ctx context.Context, tenantID string, takes []Take) {
	var errs []error
	for i := len(takes) - 1; i >= 0; i-- {
		t := takes[i]
		if err := e.batches.Restore(ctx, tenantID, t.BatchID, t.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("restore batch %s: %w", t.BatchID, err))
		}
	}
	if len(errs) > 0 {
		logger.Error(ctx, "consumption rollback incomplete", "error", errors.Join(errs...))
	}
}

// Restore re-increments the batches of a previously successful consumption.
// Used by orchestrator compensation when a later step of the same
// transaction fails. The matching OUT movements are removed separately via
// the ledger service.
func (e *Engine) Restore(ctx context.Context, tenantID string, takes []Take) error {
	var errs []error
	for i := len(takes) - 1; i >= 0; i-- {
		t := takes[i]
		if err := e.batches.Restore(ctx, tenantID, t.BatchID, t.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("restore batch %s: %w", t.BatchID, err))
		}
	}
	return errors.Join(errs...)
}
