package batch

import (
	"context"
	"sort"
	"sync"
	"time"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

// MemoryRepository is an in-memory Repository for tests and seeding.
// Mutations take the repository lock, so the conditional-update semantics
// match the SQL implementation under concurrency.
type MemoryRepository struct {
	mu      sync.RWMutex
	batches map[string]map[id.ID]*Batch // tenant -> batch id -> batch
}

// NewMemoryRepository creates an empty in-memory batch store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{batches: make(map[string]map[id.ID]*Batch)}
}

// Create implements Repository.
func (r *MemoryRepository) Create(ctx context.Context, b *Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batches[b.TenantID] == nil {
		r.batches[b.TenantID] = make(map[id.ID]*Batch)
	}
	if _, exists := r.batches[b.TenantID][b.ID]; exists {
		return apperror.NewDuplicate("batch", "id", b.ID.String())
	}
	clone := *b
	r.batches[b.TenantID][b.ID] = &clone
	return nil
}

// GetByID implements Repository.
func (r *MemoryRepository) GetByID(ctx context.Context, tenantID string, batchID id.ID) (*Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.batches[tenantID][batchID]; ok {
		clone := *b
		return &clone, nil
	}
	return nil, apperror.NewNotFound("batch", batchID.String())
}

// ListAvailable implements Repository with FEFO ordering.
func (r *MemoryRepository) ListAvailable(ctx context.Context, tenantID string, productID id.ID) ([]Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []Batch
	for _, b := range r.batches[tenantID] {
		if b.ProductID == productID && b.QuantityRemaining.IsPositive() {
			items = append(items, *b)
		}
	}
	sortFEFO(items)
	return items, nil
}

// ListByProduct implements Repository.
func (r *MemoryRepository) ListByProduct(ctx context.Context, tenantID string, productID id.ID) ([]Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []Batch
	for _, b := range r.batches[tenantID] {
		if b.ProductID == productID {
			items = append(items, *b)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ReceivedAt.After(items[j].ReceivedAt) })
	return items, nil
}

// ListExpiringBefore implements Repository.
func (r *MemoryRepository) ListExpiringBefore(ctx context.Context, tenantID string, cutoff time.Time) ([]Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []Batch
	for _, b := range r.batches[tenantID] {
		if b.QuantityRemaining.IsPositive() && b.ExpiryDate != nil && b.ExpiryDate.Before(cutoff) {
			items = append(items, *b)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ExpiryDate.Before(*items[j].ExpiryDate) })
	return items, nil
}

// Decrement implements Repository with the same conditional semantics as the
// SQL UPDATE ... WHERE quantity_remaining >= amount.
func (r *MemoryRepository) Decrement(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[tenantID][batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID.String())
	}
	if b.QuantityRemaining < amount {
		return apperror.NewInsufficientBatchQuantity(batchID.String(), amount.Float64())
	}
	b.QuantityRemaining -= amount
	return nil
}

// Restore implements Repository.
func (r *MemoryRepository) Restore(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[tenantID][batchID]
	if !ok {
		return apperror.NewNotFound("batch", batchID.String())
	}
	if b.QuantityRemaining+amount > b.QuantityReceived {
		return apperror.NewConflict("restore exceeds received quantity").
			WithDetail("batch_id", batchID.String())
	}
	b.QuantityRemaining += amount
	return nil
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(ctx context.Context, tenantID string, batchID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.batches[tenantID][batchID]; !ok {
		return apperror.NewNotFound("batch", batchID.String())
	}
	delete(r.batches[tenantID], batchID)
	return nil
}

// TotalAvailable implements Repository.
func (r *MemoryRepository) TotalAvailable(ctx context.Context, tenantID string, productID id.ID) (types.Quantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total types.Quantity
	for _, b := range r.batches[tenantID] {
		if b.ProductID == productID {
			total += b.QuantityRemaining
		}
	}
	return total, nil
}

// sortFEFO orders batches by expiry ascending with NULL expiries last,
// tie-broken by received_at ascending.
func sortFEFO(items []Batch) {
	sort.Slice(items, func(i, j int) bool {
		ei, ej := items[i].ExpiryDate, items[j].ExpiryDate
		switch {
		case ei == nil && ej == nil:
			return items[i].ReceivedAt.Before(items[j].ReceivedAt)
		case ei == nil:
			return false
		case ej == nil:
			return true
		case ei.Equal(*ej):
			return items[i].ReceivedAt.Before(items[j].ReceivedAt)
		default:
			return ei.Before(*ej)
		}
	})
}

var _ Repository = (*MemoryRepository)(nil)
