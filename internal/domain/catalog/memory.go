package catalog

import (
	"context"
	"sort"
	"sync"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
)

// MemoryRepository is an in-memory Repository for tests and seeding.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]map[id.ID]Product // tenant -> product id -> product
}

// NewMemoryRepository creates an empty in-memory catalog.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string]map[id.ID]Product)}
}

// Put registers a product (test/seed helper, not part of Repository).
func (r *MemoryRepository) Put(p Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.products[p.TenantID] == nil {
		r.products[p.TenantID] = make(map[id.ID]Product)
	}
	r.products[p.TenantID][p.ID] = p
}

// GetByID implements Repository.
func (r *MemoryRepository) GetByID(ctx context.Context, tenantID string, productID id.ID) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.products[tenantID][productID]; ok {
		return &p, nil
	}
	return nil, apperror.NewNotFound("product", productID.String())
}

// Exists implements Repository.
func (r *MemoryRepository) Exists(ctx context.Context, tenantID string, productID id.ID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.products[tenantID][productID]
	return ok, nil
}

// List implements Repository.
func (r *MemoryRepository) List(ctx context.Context, tenantID string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]Product, 0, len(r.products[tenantID]))
	for _, p := range r.products[tenantID] {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

var _ Repository = (*MemoryRepository)(nil)
