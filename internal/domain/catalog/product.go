// Package catalog provides the read-only product lookup port.
// Product metadata (names, prices, units) is owned by an external catalog
// service; the inventory core only reads it and never mutates it.
package catalog

import (
	"context"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// Product is the slice of catalog data the inventory core needs.
type Product struct {
	ID           id.ID            `db:"id" json:"id"`
	TenantID     string           `db:"tenant_id" json:"-"`
	SKU          string           `db:"sku" json:"sku"`
	Name         string           `db:"name" json:"name"`
	Unit         string           `db:"unit" json:"unit"`
	CostPrice    types.MinorUnits `db:"cost_price" json:"costPrice"`
	SellingPrice types.MinorUnits `db:"selling_price" json:"sellingPrice"`
}

// Repository defines read-only catalog access.
type Repository interface {
	// GetByID retrieves a product scoped to the tenant.
	GetByID(ctx context.Context, tenantID string, productID id.ID) (*Product, error)

	// Exists checks product existence without loading it.
	Exists(ctx context.Context, tenantID string, productID id.ID) (bool, error)

	// List returns all products for the tenant, ordered by name.
	List(ctx context.Context, tenantID string) ([]Product, error)
}
