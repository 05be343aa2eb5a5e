package purchase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain"
)

// MemoryRepository is an in-memory Repository for tests and seeding.
type MemoryRepository struct {
	mu        sync.RWMutex
	purchases map[string]map[id.ID]*Purchase // tenant -> purchase id -> purchase
}

// NewMemoryRepository creates an empty in-memory purchase store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{purchases: make(map[string]map[id.ID]*Purchase)}
}

// Create implements Repository.
func (r *MemoryRepository) Create(ctx context.Context, p *Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.purchases[p.TenantID] == nil {
		r.purchases[p.TenantID] = make(map[id.ID]*Purchase)
	}
	if _, exists := r.purchases[p.TenantID][p.ID]; exists {
		return apperror.NewDuplicate("purchase", "id", p.ID.String())
	}
	for _, existing := range r.purchases[p.TenantID] {
		if existing.Number == p.Number {
			return apperror.NewDuplicate("purchase", "number", p.Number)
		}
	}
	r.purchases[p.TenantID][p.ID] = clonePurchase(p)
	return nil
}

// GetByID implements Repository.
func (r *MemoryRepository) GetByID(ctx context.Context, tenantID string, purchaseID id.ID) (*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.purchases[tenantID][purchaseID]; ok {
		return clonePurchase(p), nil
	}
	return nil, apperror.NewNotFound("purchase", purchaseID.String())
}

// GetByNumber implements Repository.
func (r *MemoryRepository) GetByNumber(ctx context.Context, tenantID, number string) (*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.purchases[tenantID] {
		if p.Number == number {
			return clonePurchase(p), nil
		}
	}
	return nil, apperror.NewNotFound("purchase", number)
}

// List implements Repository.
func (r *MemoryRepository) List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*Purchase], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Purchase
	for _, p := range r.purchases[tenantID] {
		if filter.Search != "" && !strings.Contains(p.Number, filter.Search) {
			continue
		}
		if filter.DateFrom != nil && p.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && p.CreatedAt.After(*filter.DateTo) {
			continue
		}
		items = append(items, clonePurchase(p))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	result := domain.ListResult[*Purchase]{
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Offset < len(items) {
		items = items[filter.Offset:]
	} else {
		items = nil
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	result.Items = items
	return result, nil
}

// SetLineBatch implements Repository.
func (r *MemoryRepository) SetLineBatch(ctx context.Context, tenantID string, purchaseID, lineID, batchID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[tenantID][purchaseID]
	if !ok {
		return apperror.NewNotFound("purchase", purchaseID.String())
	}
	for i := range p.Lines {
		if p.Lines[i].LineID == lineID {
			b := batchID
			p.Lines[i].BatchID = &b
			return nil
		}
	}
	return apperror.NewNotFound("purchase line", lineID.String())
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(ctx context.Context, tenantID string, purchaseID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.purchases[tenantID][purchaseID]; !ok {
		return apperror.NewNotFound("purchase", purchaseID.String())
	}
	delete(r.purchases[tenantID], purchaseID)
	return nil
}

func clonePurchase(p *Purchase) *Purchase {
	clone := *p
	clone.Lines = append([]Line(nil), p.Lines...)
	return &clone
}

var _ Repository = (*MemoryRepository)(nil)
