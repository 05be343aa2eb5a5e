// Package document_repo provides PostgreSQL implementations of the sale and
// purchase document repositories. Header and lines of one document are
// written as a single statement group inside the transaction manager, so a
// document is never visible half-inserted.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain"
	"stocklot/internal/domain/sale"
	"stocklot/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "doc_sales"
	saleLinesTable = "doc_sale_lines"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var saleColumns = []string{
	"id", "tenant_id", "number", "status", "customer_name",
	"subtotal", "discount", "total", "created_at", "cancelled_at",
}

// Create implements sale.Repository.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		headerQ := r.builder.Insert(salesTable).
			Columns(saleColumns...).
			Values(
				s.ID, s.TenantID, s.Number, s.Status, s.CustomerName,
				s.Subtotal, s.Discount, s.Total, s.CreatedAt, s.CancelledAt,
			)
		sql, args, err := headerQ.ToSql()
		if err != nil {
			return fmt.Errorf("build header insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		linesQ := r.builder.Insert(saleLinesTable).
			Columns("line_id", "document_id", "line_no", "product_id", "quantity", "unit_price", "total_price")
		for _, line := range s.Lines {
			linesQ = linesQ.Values(
				line.LineID, s.ID, line.LineNo, line.ProductID,
				line.Quantity, line.UnitPrice, line.TotalPrice,
			)
		}
		sql, args, err = linesQ.ToSql()
		if err != nil {
			return fmt.Errorf("build lines insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert sale lines: %w", err)
		}
		return nil
	})
}

// GetByID implements sale.Repository.
func (r *SaleRepo) GetByID(ctx context.Context, tenantID string, saleID id.ID) (*sale.Sale, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "id": saleID}, saleID.String())
}

// GetByNumber implements sale.Repository.
func (r *SaleRepo) GetByNumber(ctx context.Context, tenantID, number string) (*sale.Sale, error) {
	return r.getOne(ctx, squirrel.Eq{"tenant_id": tenantID, "number": number}, number)
}

func (r *SaleRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*sale.Sale, error) {
	q := r.builder.Select(saleColumns...).From(salesTable).Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", key)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	lines, err := r.getLines(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Lines = lines
	return &s, nil
}

func (r *SaleRepo) getLines(ctx context.Context, saleID id.ID) ([]sale.Line, error) {
	q := r.builder.Select("line_id", "line_no", "product_id", "quantity", "unit_price", "total_price").
		From(saleLinesTable).
		Where(squirrel.Eq{"document_id": saleID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lines query: %w", err)
	}

	var lines []sale.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	return lines, nil
}

// List implements sale.Repository. Lines are not loaded for list views.
func (r *SaleRepo) List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*sale.Sale], error) {
	result := domain.ListResult[*sale.Sale]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.builder.Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"tenant_id": tenantID})

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
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
		return result, fmt.Errorf("select sales: %w", err)
	}
	return result, nil
}

// MarkCancelled implements sale.Repository. The status predicate makes the
// transition exactly-once: the losing concurrent caller affects zero rows.
func (r *SaleRepo) MarkCancelled(ctx context.Context, tenantID string, saleID id.ID, at time.Time) error {
	const q = `
		UPDATE doc_sales
		SET status = 'cancelled', cancelled_at = $1
		WHERE tenant_id = $2 AND id = $3 AND status = 'completed'
	`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, q, at, tenantID, saleID)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("sale", saleID.String())
	}
	return nil
}

// Delete implements sale.Repository. Compensation-only path; lines cascade.
func (r *SaleRepo) Delete(ctx context.Context, tenantID string, saleID id.ID) error {
	const q = `DELETE FROM doc_sales WHERE tenant_id = $1 AND id = $2`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, q, tenantID, saleID)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

var _ sale.Repository = (*SaleRepo)(nil)
