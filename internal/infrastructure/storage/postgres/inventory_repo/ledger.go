package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/ledger"
	"stocklot/internal/infrastructure/storage/postgres"
)

const movementsTable = "inv_stock_movements"

// LedgerRepo implements ledger.Repository. Append-only: the sole delete path
// is DeleteByReference during orchestrator compensation.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new movement ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var movementColumns = []string{
	"id", "tenant_id", "product_id", "batch_id",
	"movement_type", "quantity", "unit_price",
	"reference_type", "reference_id", "reason", "created_at",
}

// Append implements ledger.Repository.
func (r *LedgerRepo) Append(ctx context.Context, m *ledger.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.TenantID, m.ProductID, m.BatchID,
			m.Type, m.Quantity, m.UnitPrice,
			m.Reference.Type, m.Reference.ID, m.Reason, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// AppendAll implements ledger.Repository. Uses COPY when a transaction is
// active, multi-row INSERT otherwise.
func (r *LedgerRepo) AppendAll(ctx context.Context, movements []*ledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.ID, m.TenantID, m.ProductID, m.BatchID,
				m.Type, m.Quantity, m.UnitPrice,
				m.Reference.Type, m.Reference.ID, m.Reason, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(
			m.ID, m.TenantID, m.ProductID, m.BatchID,
			m.Type, m.Quantity, m.UnitPrice,
			m.Reference.Type, m.Reference.ID, m.Reason, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// ListByReference implements ledger.Repository.
func (r *LedgerRepo) ListByReference(ctx context.Context, tenantID string, ref ledger.Reference) ([]ledger.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{
			"tenant_id":      tenantID,
			"reference_type": ref.Type,
			"reference_id":   ref.ID,
		}).
		OrderBy("created_at ASC")

	return r.selectMovements(ctx, q)
}

// ListByProduct implements ledger.Repository.
func (r *LedgerRepo) ListByProduct(ctx context.Context, tenantID string, productID id.ID, filter ledger.MovementFilter) ([]ledger.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID})

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.Type})
	}
	if filter.BatchID != nil {
		q = q.Where(squirrel.Eq{"batch_id": *filter.BatchID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMovements(ctx, q)
}

func (r *LedgerRepo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]ledger.Movement, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []ledger.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return items, nil
}

// SignedSum implements ledger.Repository. Adjustments store their sign in
// the quantity itself.
func (r *LedgerRepo) SignedSum(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error) {
	const q = `
		SELECT COALESCE(SUM(
			CASE movement_type
				WHEN 'out' THEN -quantity
				ELSE quantity
			END
		), 0)
		FROM inv_stock_movements
		WHERE tenant_id = $1 AND product_id = $2
	`

	var total types.Quantity
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, q, tenantID, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return total, nil
}

// DeleteByReference implements ledger.Repository. Compensation-only path.
func (r *LedgerRepo) DeleteByReference(ctx context.Context, tenantID string, ref ledger.Reference) error {
	const q = `
		DELETE FROM inv_stock_movements
		WHERE tenant_id = $1 AND reference_type = $2 AND reference_id = $3
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, q, tenantID, ref.Type, ref.ID); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}
	return nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
