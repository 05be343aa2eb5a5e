// Package catalog_repo provides the PostgreSQL product lookup.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain/catalog"
	"stocklot/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// ProductRepo implements catalog.Repository.
type ProductRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var productColumns = []string{
	"id", "tenant_id", "sku", "name", "unit", "cost_price", "selling_price",
}

// GetByID implements catalog.Repository.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID string, productID id.ID) (*catalog.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p catalog.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Exists implements catalog.Repository.
func (r *ProductRepo) Exists(ctx context.Context, tenantID string, productID id.ID) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM cat_products WHERE tenant_id = $1 AND id = $2)`

	var exists bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, q, tenantID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return exists, nil
}

// List implements catalog.Repository.
func (r *ProductRepo) List(ctx context.Context, tenantID string) ([]catalog.Product, error) {
	q := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []catalog.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	return items, nil
}

// Upsert inserts or refreshes a product row. The catalog is externally
// owned; this exists for the seeder and for sync jobs, not for handlers.
func (r *ProductRepo) Upsert(ctx context.Context, p *catalog.Product) error {
	const q = `
		INSERT INTO cat_products (id, tenant_id, sku, name, unit, cost_price, selling_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			sku = EXCLUDED.sku,
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			cost_price = EXCLUDED.cost_price,
			selling_price = EXCLUDED.selling_price
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, q, p.ID, p.TenantID, p.SKU, p.Name, p.Unit, p.CostPrice, p.SellingPrice); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

var _ catalog.Repository = (*ProductRepo)(nil)
