package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/sequence"
	"stocklot/internal/core/types"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/catalog"
	"stocklot/internal/domain/consumption"
	"stocklot/internal/domain/ledger"
)

const testTenant = "tenant-1"

type fixture struct {
	svc     *Service
	repo    Repository
	batches *batch.MemoryRepository
	ledger  *ledger.MemoryRepository
	catalog *catalog.MemoryRepository
}

func newFixture(t *testing.T, repo Repository) *fixture {
	t.Helper()
	if repo == nil {
		repo = NewMemoryRepository()
	}

	f := &fixture{
		repo:    repo,
		batches: batch.NewMemoryRepository(),
		ledger:  ledger.NewMemoryRepository(),
		catalog: catalog.NewMemoryRepository(),
	}
	f.svc = NewService(repo, f.catalog, batch.NewService(f.batches), ledger.NewService(f.ledger), sequence.NewMockGenerator(), nil)
	return f
}

func (f *fixture) product(t *testing.T, name string) catalog.Product {
	t.Helper()
	p := catalog.Product{ID: id.New(), TenantID: testTenant, SKU: name, Name: name, Unit: "pcs", CostPrice: 100}
	f.catalog.Put(p)
	return p
}

func date(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestCreate_CreatesBatchesAndMovements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	p1 := f.product(t, "flour")
	p2 := f.product(t, "sugar")

	doc, err := f.svc.Create(ctx, testTenant, CreateInput{
		SupplierName: "Mill & Co",
		Lines: []LineInput{
			{ProductID: p1.ID, Quantity: types.NewQuantityFromInt(20), UnitCost: 80, ExpiryDate: date("2026-12-01")},
			{ProductID: p2.ID, Quantity: types.NewQuantityFromInt(10), UnitCost: 120, SupplierRef: "LOT-7"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, doc.Number, "PUR-")
	assert.Equal(t, types.MinorUnits(20*80+10*120), doc.Total)

	// Each line got its own batch, linked back on the line.
	require.Len(t, doc.Lines, 2)
	for _, line := range doc.Lines {
		require.NotNil(t, line.BatchID)
		b, err := f.batches.GetByID(ctx, testTenant, *line.BatchID)
		require.NoError(t, err)
		assert.Equal(t, line.Quantity, b.QuantityReceived)
		assert.Equal(t, line.Quantity, b.QuantityRemaining)
		assert.Equal(t, line.UnitCost, b.UnitCost)
	}

	b2, err := f.batches.GetByID(ctx, testTenant, *doc.Lines[1].BatchID)
	require.NoError(t, err)
	assert.Equal(t, "LOT-7", b2.SupplierRef)

	ins, err := f.ledger.ListByReference(ctx, testTenant, ledger.Reference{Type: ledger.RefTypePurchase, ID: doc.ID})
	require.NoError(t, err)
	require.Len(t, ins, 2)
	for _, m := range ins {
		assert.Equal(t, ledger.MovementIn, m.Type)
		require.NotNil(t, m.BatchID)
	}

	stock, err := f.batches.TotalAvailable(ctx, testTenant, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(20), stock)
}

func TestCreate_UnknownProductRejected(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Create(context.Background(), testTenant, CreateInput{
		Lines: []LineInput{
			{ProductID: id.New(), Quantity: types.NewQuantityFromInt(1), UnitCost: 50},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

// failingLinkRepo fails the batch link for the second line, forcing the
// orchestrator down the compensation path mid-way.
type failingLinkRepo struct {
	*MemoryRepository
	calls int
}

func (r *failingLinkRepo) SetLineBatch(ctx context.Context, tenantID string, purchaseID, lineID, batchID id.ID) error {
	r.calls++
	if r.calls == 2 {
		return apperror.NewInternal(nil)
	}
	return r.MemoryRepository.SetLineBatch(ctx, tenantID, purchaseID, lineID, batchID)
}

func TestCreate_MidwayFailureCompensatesEverything(t *testing.T) {
	ctx := context.Background()
	repo := &failingLinkRepo{MemoryRepository: NewMemoryRepository()}
	f := newFixture(t, repo)

	p1 := f.product(t, "rice")
	p2 := f.product(t, "beans")

	_, err := f.svc.Create(ctx, testTenant, CreateInput{
		Lines: []LineInput{
			{ProductID: p1.ID, Quantity: types.NewQuantityFromInt(5), UnitCost: 60},
			{ProductID: p2.ID, Quantity: types.NewQuantityFromInt(5), UnitCost: 70},
		},
	})
	require.Error(t, err)

	// No batches, no movements, no document.
	for _, p := range []id.ID{p1.ID, p2.ID} {
		stock, err := f.batches.TotalAvailable(ctx, testTenant, p)
		require.NoError(t, err)
		assert.True(t, stock.IsZero())

		sum, err := f.ledger.SignedSum(ctx, testTenant, p)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	}
}

func TestPurchaseThenSale_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	p := f.product(t, "cream")

	_, err := f.svc.Create(ctx, testTenant, CreateInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: types.NewQuantityFromInt(6), UnitCost: 90, ExpiryDate: date("2026-09-10")},
			{ProductID: p.ID, Quantity: types.NewQuantityFromInt(6), UnitCost: 95, ExpiryDate: date("2026-09-20")},
		},
	})
	require.NoError(t, err)

	// Consume across the received batches; the earlier expiry drains first.
	ledgerSvc := ledger.NewService(f.ledger)
	engine := consumption.NewEngine(f.batches, ledgerSvc)
	ref := ledger.Reference{Type: ledger.RefTypeSale, ID: id.New()}
	takes, err := engine.Consume(ctx, testTenant, p.ID, types.NewQuantityFromInt(8), 150, ref)
	require.NoError(t, err)

	require.Len(t, takes, 2)
	assert.Equal(t, types.NewQuantityFromInt(6), takes[0].Quantity)
	assert.Equal(t, types.MinorUnits(90), takes[0].UnitCost)
	assert.Equal(t, types.NewQuantityFromInt(2), takes[1].Quantity)
	assert.Equal(t, types.MinorUnits(95), takes[1].UnitCost)

	// Ledger signed sum agrees with batch-derived stock.
	stock, err := f.batches.TotalAvailable(ctx, testTenant, p.ID)
	require.NoError(t, err)
	sum, err := f.ledger.SignedSum(ctx, testTenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(4), stock)
	assert.Equal(t, stock, sum)
}
