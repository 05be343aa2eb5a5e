package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/ledger"
)

const testTenant = "tenant-1"

func newService(t *testing.T) (*Service, *batch.Service, *ledger.Service) {
	t.Helper()
	batchSvc := batch.NewService(batch.NewMemoryRepository())
	ledgerSvc := ledger.NewService(ledger.NewMemoryRepository())
	return NewService(batchSvc, ledgerSvc), batchSvc, ledgerSvc
}

func TestExpiringStock(t *testing.T) {
	ctx := context.Background()
	svc, batches, _ := newService(t)
	productID := id.New()

	mk := func(daysOut int, remaining int64) *batch.Batch {
		var expiry *time.Time
		if daysOut >= 0 {
			e := time.Now().UTC().AddDate(0, 0, daysOut)
			expiry = &e
		}
		b := batch.NewBatch(testTenant, productID, types.NewQuantityFromInt(10), 100, expiry)
		require.NoError(t, batches.Create(ctx, b))
		if remaining < 10 {
			require.NoError(t, batches.Repo().Decrement(ctx, testTenant, b.ID, types.NewQuantityFromInt(10-remaining)))
		}
		return b
	}

	soon := mk(3, 10)
	mk(90, 10)  // outside the window
	mk(-1, 10)  // no expiry
	mk(5, 0)    // expiring but depleted

	items, err := svc.ExpiringStock(ctx, testTenant, 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, soon.ID, items[0].Batch.ID)
	assert.Greater(t, items[0].TimeLeft, time.Duration(0))
}

func TestCheckConsistency(t *testing.T) {
	ctx := context.Background()
	svc, batches, ledgerSvc := newService(t)
	productID := id.New()

	b := batch.NewBatch(testTenant, productID, types.NewQuantityFromInt(10), 100, nil)
	require.NoError(t, batches.Create(ctx, b))

	ref := ledger.Reference{Type: ledger.RefTypePurchase, ID: id.New()}
	require.NoError(t, ledgerSvc.Append(ctx,
		ledger.NewMovement(testTenant, productID, &b.ID, ledger.MovementIn, types.NewQuantityFromInt(10), ref)))

	result, err := svc.CheckConsistency(ctx, testTenant, productID)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.Equal(t, types.NewQuantityFromInt(10), result.BatchStock)

	// A decrement without a matching movement must show up as a mismatch.
	require.NoError(t, batches.Repo().Decrement(ctx, testTenant, b.ID, types.NewQuantityFromInt(4)))

	result, err = svc.CheckConsistency(ctx, testTenant, productID)
	require.NoError(t, err)
	assert.False(t, result.Consistent)
	assert.Equal(t, types.NewQuantityFromInt(6), result.BatchStock)
	assert.Equal(t, types.NewQuantityFromInt(10), result.LedgerSum)
}
