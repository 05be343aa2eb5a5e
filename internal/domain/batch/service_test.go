package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

const testTenant = "tenant-1"

func date(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryRepository())

	tests := []struct {
		name  string
		batch *Batch
	}{
		{"zero quantity", NewBatch(testTenant, id.New(), 0, 100, nil)},
		{"negative quantity", NewBatch(testTenant, id.New(), types.NewQuantityFromInt(-1), 100, nil)},
		{"negative cost", NewBatch(testTenant, id.New(), types.NewQuantityFromInt(1), -5, nil)},
		{"missing tenant", NewBatch("", id.New(), types.NewQuantityFromInt(1), 100, nil)},
		{"missing product", NewBatch(testTenant, id.Nil(), types.NewQuantityFromInt(1), 100, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(ctx, tt.batch)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
		})
	}
}

func TestListAvailable_FEFOOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	productID := id.New()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mk := func(expiry *time.Time, received time.Time) id.ID {
		b := NewBatch(testTenant, productID, types.NewQuantityFromInt(1), 100, expiry)
		b.ReceivedAt = received
		require.NoError(t, repo.Create(ctx, b))
		return b.ID
	}

	noExpiryOld := mk(nil, base)
	noExpiryNew := mk(nil, base.Add(time.Hour))
	late := mk(date("2024-06-01"), base)
	earlyTieNew := mk(date("2024-04-01"), base.Add(time.Hour))
	earlyTieOld := mk(date("2024-04-01"), base)

	got, err := repo.ListAvailable(ctx, testTenant, productID)
	require.NoError(t, err)
	require.Len(t, got, 5)

	want := []id.ID{earlyTieOld, earlyTieNew, late, noExpiryOld, noExpiryNew}
	for i, id := range want {
		assert.Equal(t, id, got[i].ID, "position %d", i)
	}
}

func TestListAvailable_SkipsDepleted(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	productID := id.New()

	b := NewBatch(testTenant, productID, types.NewQuantityFromInt(2), 100, nil)
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Decrement(ctx, testTenant, b.ID, types.NewQuantityFromInt(2)))

	got, err := repo.ListAvailable(ctx, testTenant, productID)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Depleted batches stay readable for history.
	kept, err := repo.GetByID(ctx, testTenant, b.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsDepleted())
}

func TestDecrement_Conditional(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	productID := id.New()

	b := NewBatch(testTenant, productID, types.NewQuantityFromInt(5), 100, nil)
	require.NoError(t, repo.Create(ctx, b))

	err := repo.Decrement(ctx, testTenant, b.ID, types.NewQuantityFromInt(6))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientBatchQuantity(err))

	// A failed conditional decrement changes nothing.
	got, err := repo.GetByID(ctx, testTenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), got.QuantityRemaining)
}

func TestRestore_BoundedByReceived(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)
	productID := id.New()

	b := NewBatch(testTenant, productID, types.NewQuantityFromInt(5), 100, nil)
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Decrement(ctx, testTenant, b.ID, types.NewQuantityFromInt(2)))

	require.NoError(t, svc.Restore(ctx, testTenant, b.ID, types.NewQuantityFromInt(2)))

	err := svc.Restore(ctx, testTenant, b.ID, types.NewQuantityFromInt(1))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestListExpiringBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)
	productID := id.New()

	soon := NewBatch(testTenant, productID, types.NewQuantityFromInt(1), 100, date("2026-09-05"))
	later := NewBatch(testTenant, productID, types.NewQuantityFromInt(1), 100, date("2027-01-01"))
	never := NewBatch(testTenant, productID, types.NewQuantityFromInt(1), 100, nil)
	for _, b := range []*Batch{soon, later, never} {
		require.NoError(t, repo.Create(ctx, b))
	}

	got, err := svc.ListExpiringBefore(ctx, testTenant, *date("2026-10-01"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, soon.ID, got[0].ID)
}

func TestIsExpired(t *testing.T) {
	b := NewBatch(testTenant, id.New(), types.NewQuantityFromInt(1), 100, date("2026-01-01"))
	assert.False(t, b.IsExpired(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, b.IsExpired(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))

	open := NewBatch(testTenant, id.New(), types.NewQuantityFromInt(1), 100, nil)
	assert.False(t, open.IsExpired(time.Now()))
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	productID := id.New()

	b := NewBatch("tenant-a", productID, types.NewQuantityFromInt(5), 100, nil)
	require.NoError(t, repo.Create(ctx, b))

	_, err := repo.GetByID(ctx, "tenant-b", b.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	stock, err := repo.TotalAvailable(ctx, "tenant-b", productID)
	require.NoError(t, err)
	assert.True(t, stock.IsZero())
}
