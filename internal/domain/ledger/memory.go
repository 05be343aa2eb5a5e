package ledger

import (
	"context"
	"sort"
	"sync"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// MemoryRepository is an in-memory Repository for tests and seeding.
type MemoryRepository struct {
	mu        sync.RWMutex
	movements map[string][]Movement // tenant -> entries in append order
}

// NewMemoryRepository creates an empty in-memory ledger.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{movements: make(map[string][]Movement)}
}

// Append implements Repository.
func (r *MemoryRepository) Append(ctx context.Context, m *Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements[m.TenantID] = append(r.movements[m.TenantID], *m)
	return nil
}

// AppendAll implements Repository.
func (r *MemoryRepository) AppendAll(ctx context.Context, movements []*Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range movements {
		r.movements[m.TenantID] = append(r.movements[m.TenantID], *m)
	}
	return nil
}

// ListByReference implements Repository.
func (r *MemoryRepository) ListByReference(ctx context.Context, tenantID string, ref Reference) ([]Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []Movement
	for _, m := range r.movements[tenantID] {
		if m.Reference == ref {
			items = append(items, m)
		}
	}
	return items, nil
}

// ListByProduct implements Repository.
func (r *MemoryRepository) ListByProduct(ctx context.Context, tenantID string, productID id.ID, filter MovementFilter) ([]Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []Movement
	for _, m := range r.movements[tenantID] {
		if m.ProductID != productID {
			continue
		}
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		if filter.BatchID != nil && (m.BatchID == nil || *m.BatchID != *filter.BatchID) {
			continue
		}
		if filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate) {
			continue
		}
		items = append(items, m)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return nil, nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

// SignedSum implements Repository.
func (r *MemoryRepository) SignedSum(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total types.Quantity
	for i := range r.movements[tenantID] {
		m := r.movements[tenantID][i]
		if m.ProductID == productID {
			total += m.SignedQuantity()
		}
	}
	return total, nil
}

// DeleteByReference implements Repository.
func (r *MemoryRepository) DeleteByReference(ctx context.Context, tenantID string, ref Reference) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.movements[tenantID][:0]
	for _, m := range r.movements[tenantID] {
		if m.Reference != ref {
			kept = append(kept, m)
		}
	}
	r.movements[tenantID] = kept
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
