package sale

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
	"stocklot/internal/domain"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/catalog"
	"stocklot/internal/domain/consumption"
	"stocklot/internal/domain/ledger"
)

const testTenant = "tenant-1"

type fixture struct {
	svc      *Service
	sales    *MemoryRepository
	batches  *batch.MemoryRepository
	ledger   *ledger.MemoryRepository
	catalog  *catalog.MemoryRepository
	products []catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sales:   NewMemoryRepository(),
		batches: batch.NewMemoryRepository(),
		ledger:  ledger.NewMemoryRepository(),
		catalog: catalog.NewMemoryRepository(),
	}

	ledgerSvc := ledger.NewService(f.ledger)
	engine := consumption.NewEngine(f.batches, ledgerSvc)
	f.svc = NewService(f.sales, f.catalog, engine, ledgerSvc, sequence.NewMockGenerator(), nil)
	return f
}

func (f *fixture) product(t *testing.T, name string) catalog.Product {
	t.Helper()
	p := catalog.Product{ID: id.New(), TenantID: testTenant, SKU: name, Name: name, Unit: "pcs", SellingPrice: 250}
	f.catalog.Put(p)
	f.products = append(f.products, p)
	return p
}

func (f *fixture) stock(t *testing.T, productID id.ID, qty int64, expiry *time.Time) *batch.Batch {
	t.Helper()
	b := batch.NewBatch(testTenant, productID, types.NewQuantityFromInt(qty), 100, expiry)
	require.NoError(t, f.batches.Create(context.Background(), b))
	return b
}

func TestCreate_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.product(t, "yogurt")
	f.stock(t, p.ID, 10, nil)

	doc, err := f.svc.Create(ctx, testTenant, CreateInput{
		CustomerName: "Walk-in",
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: types.NewQuantityFromInt(3), UnitPrice: 250},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, doc.Status)
	assert.Contains(t, doc.Number, "SAL-")
	assert.Equal(t, types.MinorUnits(750), doc.Total)

	stock, err := f.batches.TotalAvailable(ctx, testTenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(7), stock)

	outs, err := f.ledger.ListByReference(ctx, testTenant, ledger.Reference{Type: ledger.RefTypeSale, ID: doc.ID})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, ledger.MovementOut, outs[0].Type)
}

func TestCreate_DiscountClampsTotalAtZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.product(t, "milk")
	f.stock(t, p.ID, 5, nil)

	doc, err := f.svc.Create(ctx, testTenant, CreateInput{
		Discount: 10_000,
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: types.NewQuantityFromInt(1), UnitPrice: 250},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, types.MinorUnits(250), doc.Subtotal)
	assert.Equal(t, types.MinorUnits(0), doc.Total)
}

func TestCreate_UnknownProductRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), testTenant, CreateInput{
		Lines: []LineInput{
			{ProductID: id.New(), Quantity: types.NewQuantityFromInt(1), UnitPrice: 100},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
}

func TestCreate_SecondLineFailureCompensatesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p1 := f.product(t, "bread")
	p2 := f.product(t, "cheese")
	b1 := f.stock(t, p1.ID, 10, nil)
	f.stock(t, p2.ID, 1, nil) // not enough for line 2

	_, err := f.svc.Create(ctx, testTenant, CreateInput{
		Lines: []LineInput{
			{ProductID: p1.ID, Quantity: types.NewQuantityFromInt(4), UnitPrice: 100},
			{ProductID: p2.ID, Quantity: types.NewQuantityFromInt(5), UnitPrice: 100},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Line 1's decrement must be undone.
	got, err := f.batches.GetByID(ctx, testTenant, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), got.QuantityRemaining)

	// No sale rows and no movements survive.
	list, err := f.sales.List(ctx, testTenant, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	for _, p := range []id.ID{p1.ID, p2.ID} {
		sum, err := f.ledger.SignedSum(ctx, testTenant, p)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	}
}

func TestCancel_RestoresConsumedBatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.product(t, "ham")
	b1 := f.stock(t, p.ID, 3, date("2024-01-01"))
	b2 := f.stock(t, p.ID, 5, date("2024-02-01"))

	doc, err := f.svc.Create(ctx, testTenant, CreateInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: types.NewQuantityFromInt(5), UnitPrice: 250},
		},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, testTenant, doc.ID))

	// The exact consumed batches are restored, not an arbitrary split.
	got1, err := f.batches.GetByID(ctx, testTenant, b1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(3), got1.QuantityRemaining)
	got2, err := f.batches.GetByID(ctx, testTenant, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), got2.QuantityRemaining)

	cancelled, err := f.svc.GetByID(ctx, testTenant, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// OUT movements stay; compensating IN movements reference the
	// cancellation, so the signed sum returns to the received total.
	outs, err := f.ledger.ListByReference(ctx, testTenant, ledger.Reference{Type: ledger.RefTypeSale, ID: doc.ID})
	require.NoError(t, err)
	assert.Len(t, outs, 2)

	ins, err := f.ledger.ListByReference(ctx, testTenant, ledger.Reference{Type: ledger.RefTypeSaleCancellation, ID: doc.ID})
	require.NoError(t, err)
	require.Len(t, ins, 2)
	for _, m := range ins {
		assert.Equal(t, ledger.MovementIn, m.Type)
	}

	sum, err := f.ledger.SignedSum(ctx, testTenant, p.ID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestCancel_SecondCancelRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.product(t, "eggs")
	f.stock(t, p.ID, 10, nil)

	doc, err := f.svc.Create(ctx, testTenant, CreateInput{
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: types.NewQuantityFromInt(2), UnitPrice: 100},
		},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, testTenant, doc.ID))

	err = f.svc.Cancel(ctx, testTenant, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeSaleCancelled))

	// Stock restored exactly once.
	stock, err := f.batches.TotalAvailable(ctx, testTenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), stock)
}

func TestCreate_SequentialNumbersPerTenant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.product(t, "butter")
	f.stock(t, p.ID, 100, nil)

	first, err := f.svc.Create(ctx, testTenant, CreateInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: types.NewQuantityFromInt(1), UnitPrice: 100}},
	})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, testTenant, CreateInput{
		Lines: []LineInput{{ProductID: p.ID, Quantity: types.NewQuantityFromInt(1), UnitPrice: 100}},
	})
	require.NoError(t, err)

	assert.Equal(t, sequence.ParseNumber(first.Number)+1, sequence.ParseNumber(second.Number))
}

func date(s string) *time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &d
}
