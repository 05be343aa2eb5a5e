package sale

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/domain"
)

// MemoryRepository is an in-memory Repository for tests and seeding.
// MarkCancelled takes the repository lock around check-and-set, matching the
// conditional-update semantics of the SQL implementation.
type MemoryRepository struct {
	mu    sync.RWMutex
	sales map[string]map[id.ID]*Sale // tenant -> sale id -> sale
}

// NewMemoryRepository creates an empty in-memory sale store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sales: make(map[string]map[id.ID]*Sale)}
}

// Create implements Repository.
func (r *MemoryRepository) Create(ctx context.Context, s *Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sales[s.TenantID] == nil {
		r.sales[s.TenantID] = make(map[id.ID]*Sale)
	}
	if _, exists := r.sales[s.TenantID][s.ID]; exists {
		return apperror.NewDuplicate("sale", "id", s.ID.String())
	}
	for _, existing := range r.sales[s.TenantID] {
		if existing.Number == s.Number {
			return apperror.NewDuplicate("sale", "number", s.Number)
		}
	}
	r.sales[s.TenantID][s.ID] = cloneSale(s)
	return nil
}

// GetByID implements Repository.
func (r *MemoryRepository) GetByID(ctx context.Context, tenantID string, saleID id.ID) (*Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sales[tenantID][saleID]; ok {
		return cloneSale(s), nil
	}
	return nil, apperror.NewNotFound("sale", saleID.String())
}

// GetByNumber implements Repository.
func (r *MemoryRepository) GetByNumber(ctx context.Context, tenantID, number string) (*Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sales[tenantID] {
		if s.Number == number {
			return cloneSale(s), nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

// List implements Repository.
func (r *MemoryRepository) List(ctx context.Context, tenantID string, filter domain.ListFilter) (domain.ListResult[*Sale], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Sale
	for _, s := range r.sales[tenantID] {
		if filter.Search != "" && !strings.Contains(s.Number, filter.Search) {
			continue
		}
		if filter.DateFrom != nil && s.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && s.CreatedAt.After(*filter.DateTo) {
			continue
		}
		items = append(items, cloneSale(s))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })

	result := domain.ListResult[*Sale]{
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

// MarkCancelled implements Repository.
func (r *MemoryRepository) MarkCancelled(ctx context.Context, tenantID string, saleID id.ID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sales[tenantID][saleID]
	if !ok {
		return apperror.NewNotFound("sale", saleID.String())
	}
	if s.Status != StatusCompleted {
		return apperror.NewConcurrentModification("sale", saleID.String())
	}
	s.MarkCancelled(at)
	return nil
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(ctx context.Context, tenantID string, saleID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sales[tenantID][saleID]; !ok {
		return apperror.NewNotFound("sale", saleID.String())
	}
	delete(r.sales[tenantID], saleID)
	return nil
}

func cloneSale(s *Sale) *Sale {
	clone := *s
	clone.Lines = append([]Line(nil), s.Lines...)
	return &clone
}

var _ Repository = (*MemoryRepository)(nil)
