package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func diffFor(t *testing.T, report *ReconcileReport, batchID string) BatchDiff {
	t.Helper()
	for _, d := range report.Diffs {
		if d.BatchID == batchID {
			return d
		}
	}
	t.Fatalf("sin diff para el lote %s", batchID)
	return BatchDiff{}
}

func TestReconcile_DistributesOldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	older := f.newBatch(t, 60, receivedDaysAgo(30))
	newer := f.newBatch(t, 40, receivedDaysAgo(3))
	f.addSale(older.ID, f.product, 50)
	f.addSale(newer.ID, f.product, 20)
	f.addRefund(newer.ID, 5)

	dry, err := f.reconcile.Run(ctx, ReconcileOptions{BusinessID: f.business, DryRun: true})
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 2, dry.Changed)
	assert.Equal(t, 0, dry.Skipped)
	od, nd := diffFor(t, dry, older.ID), diffFor(t, dry, newer.ID)
	assertDecimal(t, 60, od.Before)
	assertDecimal(t, 0, od.After)
	assertDecimal(t, 40, nd.Before)
	assertDecimal(t, 35, nd.After)
	assertDecimal(t, 60, f.storedBatch(t, older.ID).CalculatedQuantity, "dry-run no escribe")

	applied, err := f.reconcile.Run(ctx, ReconcileOptions{BusinessID: f.business})
	require.NoError(t, err)
	assert.Equal(t, 2, applied.Changed)
	assertDecimal(t, 0, f.storedBatch(t, older.ID).CalculatedQuantity)
	assertDecimal(t, 35, f.storedBatch(t, newer.ID).CalculatedQuantity)

	again, err := f.reconcile.Run(ctx, ReconcileOptions{BusinessID: f.business})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Changed, "re-ejecutable")
	assert.Equal(t, 2, again.Skipped)
	assert.Empty(t, again.Warnings)
}

func TestReconcile_LedgerSumInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newBatch(t, 30, receivedDaysAgo(9))
	b := f.newBatch(t, 25, receivedDaysAgo(4))
	f.completeAdjustment(t, a.ID, entity.AdjustmentDamage, 4)
	f.completeAdjustment(t, b.ID, entity.AdjustmentFound, 3)
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(10)}))
	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.NoError(t, err)
	f.addSale(a.ID, f.product, 12)
	f.addRefund(a.ID, 2)

	_, err = f.reconcile.Run(ctx, ReconcileOptions{BusinessID: f.business, ProductID: f.product})
	require.NoError(t, err)

	// 30 + 25 - 4 + 3 - 10 (TRANSFER_OUT) - 12 + 2 = 34
	total := decimal.Zero
	for _, id := range []string{a.ID, b.ID} {
		total = total.Add(f.storedBatch(t, id).CalculatedQuantity)
	}
	assertDecimal(t, 34, total)
}

func TestReconcile_ClampsAtZero(t *testing.T) {
	f := newFixture(t)
	b := f.newBatch(t, 10)
	f.addSale(b.ID, f.product, 15)

	report, err := f.reconcile.Run(context.Background(), ReconcileOptions{BusinessID: f.business})
	require.NoError(t, err)
	assertDecimal(t, 0, diffFor(t, report, b.ID).After)
}

func TestReconcile_GroupFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newBatch(t, 10)
	f.addSale(a.ID, f.product, 4)
	b := f.newBatch(t, 10, forProduct(f.product2))
	f.addSale(b.ID, f.product2, 4)
	f.db.failOn("Batches.ListForUpdateByProduct:" + f.product2)

	report, err := f.reconcile.Run(ctx, ReconcileOptions{BusinessID: f.business})
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Errored)
	assert.Equal(t, 1, report.Changed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, f.product2, report.Failures[0].ProductID)
	assertDecimal(t, 6, f.storedBatch(t, a.ID).CalculatedQuantity)
	assertDecimal(t, 10, f.storedBatch(t, b.ID).CalculatedQuantity)
}

func TestReconcile_NegativeCapacityWarning(t *testing.T) {
	f := newFixture(t)
	b := f.newBatch(t, 10)
	f.db.mu.Lock()
	now := baseTime
	f.db.d.adjustments["legacy"] = entity.Adjustment{
		ID: "legacy", BatchID: b.ID, Type: entity.AdjustmentLoss, Quantity: d(-15),
		Status: entity.AdjustmentCompleted, CompletedAt: &now,
	}
	f.db.d.adjOrder = append(f.db.d.adjOrder, "legacy")
	f.db.mu.Unlock()

	report, err := f.reconcile.Run(context.Background(), ReconcileOptions{BusinessID: f.business, DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, domain.WarningNegativeAvailability, report.Warnings[0].Kind)
	assertDecimal(t, -5, report.Warnings[0].Amount)
	assertDecimal(t, 0, diffFor(t, report, b.ID).After)
}

func TestReconcile_RequiresBusiness(t *testing.T) {
	f := newFixture(t)
	_, err := f.reconcile.Run(context.Background(), ReconcileOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReconcile_CountsBatchesAndFailedGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newBatch(t, 10, receivedDaysAgo(5))
	b := f.newBatch(t, 10, receivedDaysAgo(2))
	c := f.newBatch(t, 10, receivedDaysAgo(1))
	f.addSale(a.ID, f.product, 15)
	f.newBatch(t, 10, forProduct(f.product2))
	f.newBatch(t, 10, forProduct(f.product2))
	f.db.failOn("Batches.ListForUpdateByProduct:" + f.product2)

	report, err := f.reconcile.Run(ctx, ReconcileOptions{BusinessID: f.business})
	require.Error(t, err)
	// Changed y Skipped cuentan lotes del grupo sano; Errored cuenta el grupo fallido, no sus lotes.
	assert.Equal(t, 2, report.Changed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Errored)
	assert.Len(t, report.Diffs, 3)
	assertDecimal(t, 5, diffFor(t, report, b.ID).After)
	assert.False(t, diffFor(t, report, c.ID).Changed)
}
