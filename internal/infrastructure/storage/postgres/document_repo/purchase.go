package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain"
	"stocklot/internal/domain/purchase"
	"stocklot/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "doc_purchases"
	purchaseLinesTable = "doc_purchase_lines"
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var purchaseColumns = []string{
	"id", "tenant_id", "number", "supplier_name", "total", "created_at",
}

// Create implements purchase.Repository.
func (r *PurchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		headerQ := r.builder.Insert(purchasesTable).
			Columns(purchaseColumns...).
			Values(p.ID, p.TenantID, p.Number, p.SupplierName, p.Total, p.CreatedAt)
		sql, args, err := headerQ.ToSql()
		if err != nil {
			return fmt.Errorf("build header insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		linesQ := r.builder.Insert(purchaseLinesTable).
			Columns("line_id", "document_id", "line_no", "product_id",
				"quantity", "unit_cost", "total_cost", "expiry_date", "supplier_ref", "batch_id")
		for _, line := range p.Lines {
			linesQ = linesQ.Values(
				line.LineID, p.ID, line.LineNo, line.ProductID,
				line.Quantity, line.UnitCost, line.TotalCost,
				line.ExpiryDate, line.SupplierRef, line.BatchID,
			)
		}
		sql, args, err = linesQ.ToSql()
		if err != nil {
			return fmt.Errorf("build lines insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert purchase lines: %w", err)
		}
		return nil
	})
}

// GetByID implements purchase.Repository.
func (r *PurchaseRepo) GetByID(ctx context.Context, tenantID string, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "id": purchaseID}, purchaseID.String())
}

// GetByNumber implements purchase.Repository.
func (r *PurchaseRepo) GetByNumber(ctx context.Context, tenantID, number string) (*purchase.Purchase, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "number": number}, number)
}

func (r *PurchaseRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*purchase.Purchase, error) {
	q := r.builder.Select(purchaseColumns...).From(purchasesTable).Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p purchase.Purchase
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase", key)
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}

	lines, err := r.getLines(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Lines = lines
	return &p, nil
}

func (r *PurchaseRepo) getLines(ctx context.Context, purchaseID id.ID) ([]purchase.Line, error) {
	q := r.builder.Select("line_id", "line_no", "product_id",
		"quantity", "unit_cost", "total_cost", "expiry_date", "supplier_ref", "batch_id").
		From(purchaseLinesTable).
		Where(squirrel.Eq{"document_id": purchaseID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []purchase.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get purchase lines: %w", err)
	}
	return lines, nil
}

// List implements purchase.Repository. Lines are not loaded for list views.
func (r *PurchaseRepo) List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	result := domain.ListResult[*purchase.Purchase]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(purchaseColumns...).
		From(purchasesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.Search != "" {
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": "%" + filter.Search + "%"},
			squirrel.ILike{"supplier_name": "%" + filter.Search + "%"},
		})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.DateTo})
	}

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy := "created_at DESC"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select purchases: %w", err)
	}
	return result, nil
}

// SetLineBatch implements purchase.Repository.
func (r *PurchaseRepo) SetLineBatch(ctx context.Context, tenantID string, purchaseID, lineID, batchID id.ID) error {
	const q = `
		UPDATE doc_purchase_lines
		SET batch_id = $1
		WHERE line_id = $2
		  AND document_id IN (SELECT id FROM doc_purchases WHERE tenant_id = $3 AND id = $4)
	`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, q, batchID, lineID, tenantID, purchaseID)
	if err != nil {
		return fmt.Errorf("set line batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase line", lineID.String())
	}
	return nil
}

// Delete implements purchase.Repository. Compensation-only path; lines cascade.
func (r *PurchaseRepo) Delete(ctx context.Context, tenantID string, purchaseID id.ID) error {
	const q = `DELETE FROM doc_purchases WHERE tenant_id = $1 AND id = $2`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, q, tenantID, purchaseID)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase", purchaseID.String())
	}
	return nil
}

var _ purchase.Repository = (*PurchaseRepo)(nil)
