package consumption

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/ledger"
)

const testTenant = "tenant-1"

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func seedBatch(t *testing.T, repo *batch.MemoryRepository, productID id.ID, qty int64, expiry *time.Time, receivedAt time.Time) *batch.Batch {
	t.Helper()
	b := batch.NewBatch(testTenant, productID, types.NewQuantityFromInt(qty), 150, expiry)
	b.ReceivedAt = receivedAt
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestConsume_FEFOOrder(t *testing.T) {
	ctx := context.Background()
	batches := batch.NewMemoryRepository()
	movements := ledger.NewMemoryRepository()
	engine := NewEngine(batches, ledger.NewService(movements))

	productID := id.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Seeded out of order on purpose; FEFO must pick Feb before null expiry
	// and Jan before Feb.
	noExpiry := seedBatch(t, batches, productID, 5, nil, base)
	feb := seedBatch(t, batches, productID, 5, date("2024-02-01"), base.Add(time.Hour))
	jan := seedBatch(t, batches, productID, 5, date("2024-01-01"), base.Add(2*time.Hour))

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	takes, err := engine.Consume(ctx, testTenant, productID, types.NewQuantityFromInt(7), 200, ref)
	require.NoError(t, err)

	require.Len(t, takes, 2)
	assert.Equal(t, jan.ID, takes[0].BatchID)
	assert.Equal(t, types.NewQuantityFromInt(5), takes[0].Quantity)
	assert.Equal(t, feb.ID, takes[1].BatchID)
	assert.Equal(t, types.NewQuantityFromInt(2), takes[1].Quantity)

	remaining := func(batchID id.ID) types.Quantity {
		b, err := batches.GetByID(ctx, testTenant, batchID)
		require.NoError(t, err)
		return b.QuantityRemaining
	}
	assert.Equal(t, types.NewQuantityFromInt(0), remaining(jan.ID))
	assert.Equal(t, types.NewQuantityFromInt(3), remaining(feb.ID))
	assert.Equal(t, types.NewQuantityFromInt(5), remaining(noExpiry.ID))

	outs, err := movements.ListByReference(ctx, testTenant, ref)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	for _, m := range outs {
		assert.Equal(t, ledger.MovementOut, m.Type)
		require.NotNil(t, m.UnitPrice)
		assert.Equal(t, types.MinorUnits(200), *m.UnitPrice)
	}
}

func TestConsume_TieBreakByReceivedAt(t *testing.T) {
	ctx := context.Background()
	batches := batch.NewMemoryRepository()
	engine := NewEngine(batches, ledger.NewService(ledger.NewMemoryRepository()))

	productID := id.New()
	expiry := date("2024-06-01")
	later := seedBatch(t, batches, productID, 3, expiry, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	earlier := seedBatch(t, batches, productID, 3, expiry, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	takes, err := engine.Consume(ctx, testTenant, productID, types.NewQuantityFromInt(4), 100, ref)
	require.NoError(t, err)

	require.Len(t, takes, 2)
	assert.Equal(t, earlier.ID, takes[0].BatchID)
	assert.Equal(t, later.ID, takes[1].BatchID)
}

func TestConsume_InsufficientLeavesBatchesUntouched(t *testing.T) {
	ctx := context.Background()
	batches := batch.NewMemoryRepository()
	movements := ledger.NewMemoryRepository()
	engine := NewEngine(batches, ledger.NewService(movements))

	productID := id.New()
	b1 := seedBatch(t, batches, productID, 4, date("2024-01-01"), time.Now().UTC())
	b2 := seedBatch(t, batches, productID, 3, nil, time.Now().UTC())

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	_, err := engine.Consume(ctx, testTenant, productID, types.NewQuantityFromInt(10), 100, ref)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 10.0, appErr.Details["requested"])
	assert.Equal(t, 7.0, appErr.Details["available"])

	for _, bid := range []id.ID{b1.ID, b2.ID} {
		b, err := batches.GetByID(ctx, testTenant, bid)
		require.NoError(t, err)
		assert.Equal(t, b.QuantityReceived, b.QuantityRemaining)
	}

	outs, err := movements.ListByReference(ctx, testTenant, ref)
	require.NoError(t, err)
	assert.Empty(t, outs)
}

func TestConsume_RejectsNonPositiveQuantity(t *testing.T) {
	engine := NewEngine(batch.NewMemoryRepository(), ledger.NewService(ledger.NewMemoryRepository()))

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	_, err := engine.Consume(context.Background(), testTenant, id.New(), 0, 100, ref)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

// racyBatchRepo fails the first N decrements with the race signal, simulating
// a concurrent consumer shrinking a batch between snapshot and decrement.
type racyBatchRepo struct {
	batch.Repository
	failures int
}

func (r *racyBatchRepo) Decrement(ctx context.Context, tenantID string, batchID id.ID, amount types.Quantity) error {
	if r.failures > 0 {
		r.failures--
		return apperror.NewInsufficientBatchQuantity(batchID.String(), amount.Float64())
	}
	return r.Repository.Decrement(ctx, tenantID, batchID, amount)
}

func TestConsume_RetriesAfterBatchRace(t *testing.T) {
	ctx := context.Background()
	inner := batch.NewMemoryRepository()
	productID := id.New()
	seedBatch(t, inner, productID, 10, nil, time.Now().UTC())

	repo := &racyBatchRepo{Repository: inner, failures: 1}
	engine := NewEngine(repo, ledger.NewService(ledger.NewMemoryRepository()))

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	takes, err := engine.Consume(ctx, testTenant, productID, types.NewQuantityFromInt(6), 100, ref)
	require.NoError(t, err)
	require.Len(t, takes, 1)
	assert.Equal(t, types.NewQuantityFromInt(6), takes[0].Quantity)
}

func TestConsume_ExhaustedRetriesEscalateToInsufficientStock(t *testing.T) {
	ctx := context.Background()
	inner := batch.NewMemoryRepository()
	productID := id.New()
	seedBatch(t, inner, productID, 10, nil, time.Now().UTC())

	repo := &racyBatchRepo{Repository: inner, failures: 100}
	engine := NewEngine(repo, ledger.NewService(ledger.NewMemoryRepository()))

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	_, err := engine.Consume(ctx, testTenant, productID, types.NewQuantityFromInt(6), 100, ref)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestRestore_ReincrementsBatches(t *testing.T) {
	ctx := context.Background()
	batches := batch.NewMemoryRepository()
	engine := NewEngine(batches, ledger.NewService(ledger.NewMemoryRepository()))

	productID := id.New()
	b := seedBatch(t, batches, productID, 8, nil, time.Now().UTC())

	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	takes, err := engine.Consume(ctx, testTenant, productID, types.NewQuantityFromInt(5), 100, ref)
	require.NoError(t, err)

	require.NoError(t, engine.Restore(ctx, testTenant, takes))

	got, err := batches.GetByID(ctx, testTenant, b.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(8), got.QuantityRemaining)
}
