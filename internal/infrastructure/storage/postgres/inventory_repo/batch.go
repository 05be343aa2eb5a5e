// Package inventory_repo provides PostgreSQL implementations of the batch
// store and movement ledger repositories.
package inventory_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/infrastructure/storage/postgres"
)

const batchesTable = "inv_batches"

// BatchRepo implements batch.Repository.
type BatchRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var batchColumns = []string{
	"id", "tenant_id", "product_id",
	"quantity_received", "quantity_remaining", "unit_cost",
	"expiry_date", "supplier_ref", "received_at",
}

// Create implements batch.Repository.
func (r *BatchRepo) Create(ctx context.Context, b *batch.Batch) error {
	q := r.builder.Insert(batchesTable).
		Columns(batchColumns...).
		Values(
			b.ID, b.TenantID, b.ProductID,
			b.QuantityReceived, b.QuantityRemaining, b.UnitCost,
			b.ExpiryDate, b.SupplierRef, b.ReceivedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID implements batch.Repository.
func (r *BatchRepo) GetByID(ctx context.Context, tenantID string, batchID id.ID) (*batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b batch.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

// ListAvailable implements batch.Repository. NULLS LAST puts batches without
// an expiry date at the end of the FEFO walk.
func (r *BatchRepo) ListAvailable(ctx context.Context, tenantID string, productID id.ID) ([]batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID}).
		Where(squirrel.Gt{"quantity_remaining": 0}).
		OrderBy("expiry_date ASC NULLS LAST", "received_at ASC")

	return r.selectBatches(ctx, q)
}

// ListByProduct implements batch.Repository.
func (r *BatchRepo) ListByProduct(ctx context.Context, tenantID string, productID id.ID) ([]batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID}).
		OrderBy("received_at DESC")

	return r.selectBatches(ctx, q)
}

// ListExpiringBefore implements batch.Repository.
func (r *BatchRepo) ListExpiringBefore(ctx context.Context, tenantID string, cutoff time.Time) ([]batch.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Gt{"quantity_remaining": 0}).
		Where(squirrel.Lt{"expiry_date": cutoff}).
		OrderBy("expiry_date ASC")

	return r.selectBatches(ctx, q)
}

func (r *BatchRepo) selectBatches(ctx context.Context, q squirrel.SelectBuilder) ([]batch.Batch, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []batch.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return items, nil
}

// Decrement implements batch.Repository. The WHERE clause makes the update
// conditional: zero rows affected means a concurrent consumer got there
// first, reported as the retryable race error.
func (r *BatchRepo) Decrement(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error {
	const q = `
		UPDATE inv_batches
		SET quantity_remaining = quantity_remaining - $1
		WHERE tenant_id = $2 AND id = $3 AND quantity_remaining >= $1
	`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, q, amount, tenantID, batchID)
	if err != nil {
		return fmt.Errorf("decrement batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewInsufficientBatchQuantity(batchID.String(), amount.Float64())
	}
	return nil
}

// Restore implements batch.Repository. Bounded so a double restore can never
// push quantity_remaining above quantity_received.
func (r *BatchRepo) Restore(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error {
	const q = `
		UPDATE inv_batches
		SET quantity_remaining = quantity_remaining + $1
		WHERE tenant_id = $2 AND id = $3
		  AND quantity_remaining + $1 <= quantity_received
	`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, q, amount, tenantID, batchID)
	if err != nil {
		return fmt.Errorf("restore batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("restore exceeds received quantity").
			WithDetail("batch_id", batchID.String())
	}
	return nil
}

// Delete implements batch.Repository. Compensation-only path.
func (r *BatchRepo) Delete(ctx context.Context, tenantID string, batchID id.ID) error {
	const q = `DELETE FROM inv_batches WHERE tenant_id = $1 AND id = $2`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, q, tenantID, batchID)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID.String())
	}
	return nil
}

// TotalAvailable implements batch.Repository.
func (r *BatchRepo) TotalAvailable(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error) {
	const q = `
		SELECT COALESCE(SUM(quantity_remaining), 0)
		FROM inv_batches
		WHERE tenant_id = $1 AND product_id = $2
	`

	var total types.Quantity
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, q, tenantID, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum batches: %w", err)
	}
	return total, nil
}

var _ batch.Repository = (*BatchRepo)(nil)
