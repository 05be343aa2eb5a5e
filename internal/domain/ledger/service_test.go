package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocklot/internal/core/apperror"
	"stocklot/internal/core/id"
	"stocklot/internal/core/types"
)

const testTenant = "tenant-1"

func TestMovementValidate(t *testing.T) {
	productID := id.New()
	ref := Reference{Type: RefTypeSale, ID: id.New()}

	tests := []struct {
		name     string
		movement *Movement
		wantErr  bool
	}{
		{
			name:     "valid out",
			movement: NewMovement(testTenant, productID, nil, MovementOut, types.NewQuantityFromInt(2), ref),
		},
		{
			name:     "out with zero quantity",
			movement: NewMovement(testTenant, productID, nil, MovementOut, 0, ref),
			wantErr:  true,
		},
		{
			name:     "in with negative quantity",
			movement: NewMovement(testTenant, productID, nil, MovementIn, types.NewQuantityFromInt(-1), ref),
			wantErr:  true,
		},
		{
			name: "adjustment without reason",
			movement: NewMovement(testTenant, productID, nil, MovementAdjustment,
				types.NewQuantityFromInt(-1), Reference{Type: RefTypeAdjustment, ID: id.New()}),
			wantErr: true,
		},
		{
			name: "adjustment with negative quantity and reason",
			movement: NewMovement(testTenant, productID, nil, MovementAdjustment,
				types.NewQuantityFromInt(-1), Reference{Type: RefTypeAdjustment, ID: id.New()}).
				WithReason("breakage"),
		},
		{
			name:     "missing tenant",
			movement: NewMovement("", productID, nil, MovementOut, types.NewQuantityFromInt(1), ref),
			wantErr:  true,
		},
		{
			name:     "missing reference",
			movement: NewMovement(testTenant, productID, nil, MovementOut, types.NewQuantityFromInt(1), Reference{}),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.movement.Validate(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsCode(err, apperror.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSignedSum(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)
	productID := id.New()

	purchase := Reference{Type: RefTypePurchase, ID: id.New()}
	sale := Reference{Type: RefTypeSale, ID: id.New()}
	adj := Reference{Type: RefTypeAdjustment, ID: id.New()}

	require.NoError(t, svc.Append(ctx, NewMovement(testTenant, productID, nil, MovementIn, types.NewQuantityFromInt(10), purchase)))
	require.NoError(t, svc.Append(ctx, NewMovement(testTenant, productID, nil, MovementOut, types.NewQuantityFromInt(4), sale)))
	require.NoError(t, svc.Append(ctx, NewMovement(testTenant, productID, nil, MovementAdjustment, types.NewQuantityFromInt(-1), adj).WithReason("spoilage")))

	sum, err := svc.SignedSum(ctx, testTenant, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), sum)
}

func TestAppendAll_RejectsWholeGroupOnOneInvalid(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)
	productID := id.New()
	ref := Reference{Type: RefTypeSale, ID: id.New()}

	err := svc.AppendAll(ctx, []*Movement{
		NewMovement(testTenant, productID, nil, MovementOut, types.NewQuantityFromInt(1), ref),
		NewMovement(testTenant, productID, nil, MovementOut, 0, ref), // invalid
	})
	require.Error(t, err)

	got, err := svc.ListByReference(ctx, testTenant, ref)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCompensate_RemovesOnlyTheReference(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)
	productID := id.New()

	failed := Reference{Type: RefTypeSale, ID: id.New()}
	kept := Reference{Type: RefTypePurchase, ID: id.New()}

	require.NoError(t, svc.Append(ctx, NewMovement(testTenant, productID, nil, MovementIn, types.NewQuantityFromInt(5), kept)))
	require.NoError(t, svc.Append(ctx, NewMovement(testTenant, productID, nil, MovementOut, types.NewQuantityFromInt(2), failed)))

	require.NoError(t, svc.Compensate(ctx, testTenant, failed))

	gone, err := svc.ListByReference(ctx, testTenant, failed)
	require.NoError(t, err)
	assert.Empty(t, gone)

	remaining, err := svc.ListByReference(ctx, testTenant, kept)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestListByProduct_Filters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)
	productID := id.New()
	batchID := id.New()

	in := NewMovement(testTenant, productID, &batchID, MovementIn, types.NewQuantityFromInt(5), Reference{Type: RefTypePurchase, ID: id.New()})
	out := NewMovement(testTenant, productID, &batchID, MovementOut, types.NewQuantityFromInt(2), Reference{Type: RefTypeSale, ID: id.New()})
	require.NoError(t, svc.Append(ctx, in))
	require.NoError(t, svc.Append(ctx, out))

	outType := MovementOut
	got, err := svc.ListByProduct(ctx, testTenant, productID, MovementFilter{Type: &outType})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, out.ID, got[0].ID)

	byBatch, err := svc.ListByProduct(ctx, testTenant, productID, MovementFilter{BatchID: &batchID})
	require.NoError(t, err)
	assert.Len(t, byBatch, 2)
}
