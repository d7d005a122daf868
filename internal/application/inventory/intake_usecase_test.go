package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestIntake_CreateSetsCalculatedQuantity(t *testing.T) {
	f := newFixture(t)
	b := f.newBatch(t, 40)
	assertDecimal(t, 40, b.CalculatedQuantity)
	assertDecimal(t, 40, f.storedBatch(t, b.ID).CalculatedQuantity)
}

func TestIntake_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateBatchInput{BusinessID: f.business, LocationID: f.warehouse, ProductID: f.product, Quantity: d(5)}

	in := base
	in.Quantity = d(0)
	_, err := f.intake.CreateBatch(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = base
	in.UnitCost = d(-1)
	_, err = f.intake.CreateBatch(ctx, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = base
	in.LocationID = uuid.NewString()
	_, err = f.intake.CreateBatch(ctx, in)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	in = base
	in.BusinessID = uuid.NewString()
	_, err = f.intake.CreateBatch(ctx, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestIntake_EditableUntilFirstCompletedMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.newBatch(t, 100)

	updated, err := f.intake.UpdateIntakeQuantity(ctx, b.ID, d(120))
	require.NoError(t, err)
	assertDecimal(t, 120, updated.Quantity)
	assertDecimal(t, 120, updated.CalculatedQuantity)

	// Un ajuste pendiente no congela el lote.
	adj, err := f.adjustments.Create(ctx, CreateAdjustmentInput{BatchID: b.ID, Type: entity.AdjustmentDamage, Quantity: d(10)})
	require.NoError(t, err)
	_, err = f.intake.UpdateIntakeQuantity(ctx, b.ID, d(110))
	require.NoError(t, err)

	_, err = f.adjustments.Approve(ctx, adj.ID, "manager")
	require.NoError(t, err)
	_, err = f.adjustments.Complete(ctx, adj.ID, "manager")
	require.NoError(t, err)

	_, err = f.intake.UpdateIntakeQuantity(ctx, b.ID, d(200))
	require.ErrorIs(t, err, domain.ErrIntakeFrozen)
	stored := f.storedBatch(t, b.ID)
	assertDecimal(t, 110, stored.Quantity)
	assertDecimal(t, 100, stored.CalculatedQuantity)
}

func TestIntake_FrozenBySale(t *testing.T) {
	f := newFixture(t)
	b := f.newBatch(t, 10)
	f.addSale(b.ID, f.product, 1)

	_, err := f.intake.UpdateIntakeQuantity(context.Background(), b.ID, d(12))
	assert.ErrorIs(t, err, domain.ErrIntakeFrozen)
}

func TestIntake_FrozenByReceivedLocationStock(t *testing.T) {
	f := newFixture(t)
	b := f.newBatch(t, 10)
	f.setStock(f.store, f.product, 3)

	_, err := f.intake.UpdateIntakeQuantity(context.Background(), b.ID, d(12))
	assert.ErrorIs(t, err, domain.ErrIntakeFrozen)

	other := f.newBatch(t, 10, forProduct(f.product2))
	_, err = f.intake.UpdateIntakeQuantity(context.Background(), other.ID, d(12))
	assert.NoError(t, err, "el stock de otro producto no congela")
}

func TestIntake_UpdateMissingBatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.intake.UpdateIntakeQuantity(context.Background(), uuid.NewString(), d(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.intake.GetBatch(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
