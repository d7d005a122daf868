package inventory

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

func (f *fixture) newTransfer(t *testing.T, from, to string, items ...LineItemInput) *entity.Transfer {
	t.Helper()
	tr, err := f.transfers.Create(context.Background(), CreateTransferInput{
		BusinessID: f.business, SourceLocationID: from, DestinationLocationID: to, Items: items, Actor: "clerk",
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) toApproved(t *testing.T, tr *entity.Transfer) *entity.Transfer {
	t.Helper()
	ctx := context.Background()
	tr, err := f.transfers.Submit(ctx, tr.ID, "clerk")
	require.NoError(t, err)
	tr, err = f.transfers.Approve(ctx, tr.ID, "manager", nil)
	require.NoError(t, err)
	return tr
}

func (f *fixture) allocations(transferID string) []entity.TransferAllocation {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []entity.TransferAllocation
	for _, id := range f.db.d.allocOrder {
		if a := f.db.d.allocs[id]; a.TransferID == transferID {
			out = append(out, a)
		}
	}
	return out
}

func auditActions(tr *entity.Transfer) []string {
	out := make([]string, len(tr.Audit))
	for i, e := range tr.Audit {
		out[i] = e.Action
	}
	return out
}

func TestTransfer_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.newBatch(t, 50)

	tr := f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(20)})
	assert.Equal(t, entity.TransferDraft, tr.Status)
	assert.Regexp(t, `^TRF-\d{8}-[0-9A-F]{8}$`, tr.Reference)

	tr = f.toApproved(t, tr)
	tr, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, tr.Status)
	assertDecimal(t, 30, f.available(t, batch.ID), "el origen se descuenta al despachar")
	assertDecimal(t, 0, f.stockAt(f.store, f.product), "el destino aún no ve el stock")

	tr, err = f.transfers.Complete(ctx, tr.ID, "tienda")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, tr.Status)
	assertDecimal(t, 30, f.available(t, batch.ID))
	assertDecimal(t, 20, f.stockAt(f.store, f.product))

	got, err := f.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		entity.AuditCreated, entity.AuditItemAdded, entity.AuditSubmitted,
		entity.AuditApproved, entity.AuditDispatched, entity.AuditCompleted,
	}, auditActions(got))
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].FulfilledQuantity)
	assertDecimal(t, 20, *got.Items[0].FulfilledQuantity)
	assertDecimal(t, 10, got.Items[0].UnitCost)
	for _, stamp := range []any{got.SubmittedAt, got.ApprovedAt, got.DispatchedAt, got.CompletedAt} {
		assert.NotNil(t, stamp)
	}
	assert.Equal(t, "tienda", got.CompletedBy)

	movements := got.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, f.warehouse, movements[0].SourceLocationID)
	assert.Equal(t, f.store, movements[0].DestinationLocationID)
	assertDecimal(t, 20, movements[0].SignedQuantity)
}

func TestTransfer_ReferenceUniqueAmongActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateTransferInput{BusinessID: f.business, Reference: "REP-001", SourceLocationID: f.warehouse, DestinationLocationID: f.store}

	first, err := f.transfers.Create(ctx, in)
	require.NoError(t, err)
	_, err = f.transfers.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.transfers.Submit(ctx, first.ID, "clerk")
	require.ErrorIs(t, err, domain.ErrInvalidInput, "sin ítems no se puede enviar")

	f.newBatch(t, 5)
	_, err = f.transfers.AddLineItem(ctx, first.ID, LineItemInput{ProductID: f.product, Quantity: d(1)}, "clerk")
	require.NoError(t, err)
	_, err = f.transfers.Submit(ctx, first.ID, "clerk")
	require.NoError(t, err)
	_, err = f.transfers.Cancel(ctx, first.ID, "clerk", "ya no se necesita")
	require.NoError(t, err)

	_, err = f.transfers.Create(ctx, in)
	assert.NoError(t, err, "la referencia se libera cuando el traslado termina")
}

func TestTransfer_DispatchInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.newBatch(t, 50)
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(20)}))

	f.completeAdjustment(t, batch.ID, entity.AdjustmentDamage, 35)
	assertDecimal(t, 15, f.available(t, batch.ID))

	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assertDecimal(t, 15, *ve.Current)
	assertDecimal(t, -20, *ve.Delta)
	assertDecimal(t, -5, *ve.Result)
	assert.Equal(t, f.product, ve.Details["product_id"])

	assertDecimal(t, 15, f.available(t, batch.ID), "el origen no cambia")
	got, err := f.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status)
	assert.Len(t, got.Audit, 4)
	assert.Empty(t, f.allocations(tr.ID))
}

func TestTransfer_ApproveChecksAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newBatch(t, 15)
	tr := f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(20)})
	_, err := f.transfers.Submit(ctx, tr.ID, "clerk")
	require.NoError(t, err)

	_, err = f.transfers.Approve(ctx, tr.ID, "manager", nil)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// Aprobar una cantidad menor sí cabe.
	got, err := f.transfers.Approve(ctx, tr.ID, "manager", map[string]decimal.Decimal{tr.Items[0].ID: d(15)})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status)
	assertDecimal(t, 15, got.Items[0].RequiredQuantity())

	_, err = f.transfers.Dispatch(ctx, tr.ID, "bodeguero", map[string]decimal.Decimal{tr.Items[0].ID: d(16)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no se despacha más de lo aprobado")
}

func TestTransfer_NoPartialDeductionAcrossLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newBatch(t, 50)
	b := f.newBatch(t, 50, forProduct(f.product2))
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store,
		LineItemInput{ProductID: f.product, Quantity: d(10)},
		LineItemInput{ProductID: f.product2, Quantity: d(40)},
	))
	f.completeAdjustment(t, b.ID, entity.AdjustmentExpired, 20)

	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assertDecimal(t, 50, f.available(t, a.ID), "la línea con stock tampoco se descuenta")
	assertDecimal(t, 30, f.available(t, b.ID))
}

func TestTransfer_RollbackOnWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.newBatch(t, 50)
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(20)}))

	f.db.failOn("Transfers.AddAllocation")
	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.ErrorIs(t, err, errInjected)

	assertDecimal(t, 50, f.available(t, batch.ID))
	assertDecimal(t, 50, f.storedBatch(t, batch.ID).CalculatedQuantity)
	got, err := f.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status)
}

// adjustmentCount suma ledger_adjustment_transitions_total para el tipo dado.
func adjustmentCount(t *testing.T, reg *prometheus.Registry, typ entity.AdjustmentType) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, fam := range families {
		if fam.GetName() != "ledger_adjustment_transitions_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "type" && l.GetValue() == string(typ) {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	return total
}

func TestTransfer_SystemAdjustmentMetricsOnlyAfterCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	deps := f.deps
	deps.Metrics = metrics.NewLedgerMetrics(reg)
	f.transfers = NewTransferUseCase(deps, NewConsistencyGuard(deps.Metrics))

	f.newBatch(t, 50)
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(20)}))

	f.db.failOn("Transfers.AddAllocation")
	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.ErrorIs(t, err, errInjected)
	assert.Zero(t, adjustmentCount(t, reg, entity.AdjustmentTransferOut), "un despacho revertido no cuenta")

	f.db.mu.Lock()
	delete(f.db.failures, "Transfers.AddAllocation")
	f.db.mu.Unlock()

	_, err = f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, adjustmentCount(t, reg, entity.AdjustmentTransferOut))

	_, err = f.transfers.Cancel(ctx, tr.ID, "manager", "pedido duplicado")
	require.NoError(t, err)
	assert.Equal(t, 1.0, adjustmentCount(t, reg, entity.AdjustmentTransferIn))
}

func TestTransfer_TransitionLogCarriesTransferFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var buf bytes.Buffer
	deps := f.deps
	deps.Log = logger.NewWithWriter(logger.Config{Env: "production", Level: "info"}, &buf)
	f.transfers = NewTransferUseCase(deps, NewConsistencyGuard(nil))

	f.newBatch(t, 10)
	tr := f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(4)})
	_, err := f.transfers.Submit(ctx, tr.ID, "clerk")
	require.NoError(t, err)

	found := false
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		if line["message"] != "transición de traslado" {
			continue
		}
		found = true
		assert.Equal(t, tr.ID, line["transfer_id"])
		assert.Equal(t, tr.Reference, line["reference"])
		assert.Equal(t, string(entity.TransferRequested), line["status"])
	}
	assert.True(t, found)
}

func TestTransfer_ConsumptionOrder(t *testing.T) {
	cases := []struct {
		name      string
		order     string
		wantOlder int64
		wantNewer int64
	}{
		{name: "fifo", order: inventory.OrderFIFO, wantOlder: 0, wantNewer: 15},
		{name: "fefo", order: inventory.OrderFEFO, wantOlder: 0, wantNewer: 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, func(p *Policy) {
				cmp, err := inventory.ComparatorByName(tc.order)
				require.NoError(t, err)
				p.Order = cmp
			})
			older := f.newBatch(t, 10, receivedDaysAgo(10), expiresInDays(5))
			newer := f.newBatch(t, 30, receivedDaysAgo(2), expiresInDays(60))
			tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(25)}))

			_, err := f.transfers.Dispatch(context.Background(), tr.ID, "bodeguero", nil)
			require.NoError(t, err)
			assertDecimal(t, tc.wantOlder, f.available(t, older.ID))
			assertDecimal(t, tc.wantNewer, f.available(t, newer.ID))
			assert.Len(t, f.allocations(tr.ID), 2)
		})
	}
}

func TestTransfer_FEFOPrefersEarliestExpiry(t *testing.T) {
	f := newFixture(t, func(p *Policy) { p.Order = inventory.EarliestExpiryFirst })
	older := f.newBatch(t, 10, receivedDaysAgo(10), expiresInDays(90))
	newer := f.newBatch(t, 30, receivedDaysAgo(2), expiresInDays(3))
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(25)}))

	_, err := f.transfers.Dispatch(context.Background(), tr.ID, "bodeguero", nil)
	require.NoError(t, err)
	assertDecimal(t, 10, f.available(t, older.ID))
	assertDecimal(t, 5, f.available(t, newer.ID))
}

func TestTransfer_CompleteTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newBatch(t, 50)
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(20)}))
	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.NoError(t, err)

	first, err := f.transfers.Complete(ctx, tr.ID, "tienda")
	require.NoError(t, err)
	second, err := f.transfers.Complete(ctx, tr.ID, "otro")
	require.NoError(t, err)

	assert.Equal(t, entity.TransferCompleted, second.Status)
	assert.Equal(t, first.CompletedBy, second.CompletedBy)
	assert.Len(t, second.Audit, 6)
	assertDecimal(t, 20, f.stockAt(f.store, f.product))

	_, err = f.transfers.Cancel(ctx, tr.ID, "clerk", "tarde")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "un traslado completado no se cancela")
}

func TestTransfer_CancelInTransitRestoresSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batch := f.newBatch(t, 12)
	f.setStock(f.warehouse, f.product, 8)
	tr := f.toApproved(t, f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(18)}))

	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.NoError(t, err)
	assertDecimal(t, 0, f.available(t, batch.ID))
	assertDecimal(t, 2, f.stockAt(f.warehouse, f.product))

	got, err := f.transfers.Cancel(ctx, tr.ID, "manager", "camión averiado")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, got.Status)
	assert.Equal(t, "camión averiado", got.CancellationReason)
	assertDecimal(t, 12, f.available(t, batch.ID))
	assertDecimal(t, 12, f.storedBatch(t, batch.ID).CalculatedQuantity)
	assertDecimal(t, 8, f.stockAt(f.warehouse, f.product))
	for _, a := range f.allocations(tr.ID) {
		assert.NotNil(t, a.RestoredAt)
	}
	assertDecimal(t, 0, f.stockAt(f.store, f.product))

	again, err := f.transfers.Cancel(ctx, tr.ID, "manager", "otra vez")
	require.NoError(t, err)
	assert.Equal(t, "camión averiado", again.CancellationReason)
	assert.Len(t, again.Audit, len(got.Audit))
	assertDecimal(t, 12, f.available(t, batch.ID), "cancelar dos veces no restaura dos veces")

	_, err = f.transfers.Complete(ctx, tr.ID, "tienda")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransfer_InvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newBatch(t, 5)
	tr := f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(1)})

	_, err := f.transfers.Dispatch(ctx, tr.ID, "bodeguero", nil)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, "Invalid transition from DRAFT, expected one of {APPROVED}", err.Error())

	_, err = f.transfers.Cancel(ctx, tr.ID, "clerk", "motivo")
	assert.EqualError(t, err, "Invalid transition from DRAFT, expected one of {REQUESTED, APPROVED, IN_TRANSIT}")

	_, err = f.transfers.Submit(ctx, tr.ID, "clerk")
	require.NoError(t, err)
	_, err = f.transfers.Reject(ctx, tr.ID, "manager", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el rechazo requiere motivo")
	got, err := f.transfers.Reject(ctx, tr.ID, "manager", "sin presupuesto")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferRejected, got.Status)

	_, err = f.transfers.AddLineItem(ctx, tr.ID, LineItemInput{ProductID: f.product, Quantity: d(1)}, "clerk")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransfer_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.transfers.Create(ctx, CreateTransferInput{BusinessID: f.business, SourceLocationID: f.warehouse, DestinationLocationID: f.warehouse})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.transfers.Create(ctx, CreateTransferInput{BusinessID: f.business, SourceLocationID: f.warehouse, DestinationLocationID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	foreign := uuid.NewString()
	f.db.d.products[foreign] = entity.Product{ID: foreign, BusinessID: uuid.NewString(), SKU: "X"}
	_, err = f.transfers.Create(ctx, CreateTransferInput{
		BusinessID: f.business, SourceLocationID: f.warehouse, DestinationLocationID: f.store,
		Items: []LineItemInput{{ProductID: foreign, Quantity: d(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.transfers.Create(ctx, CreateTransferInput{
		BusinessID: f.business, SourceLocationID: f.warehouse, DestinationLocationID: f.store,
		Items: []LineItemInput{{ProductID: f.product, Quantity: d(-2)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransfer_AvailableQuantityExcludesReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newBatch(t, 50)

	first := f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(20)})
	avail, err := f.transfers.AvailableQuantity(ctx, f.warehouse, f.product, "")
	require.NoError(t, err)
	assertDecimal(t, 50, avail, "un DRAFT no reserva")

	_, err = f.transfers.Submit(ctx, first.ID, "clerk")
	require.NoError(t, err)
	avail, err = f.transfers.AvailableQuantity(ctx, f.warehouse, f.product, "")
	require.NoError(t, err)
	assertDecimal(t, 30, avail)
	avail, err = f.transfers.AvailableQuantity(ctx, f.warehouse, f.product, first.ID)
	require.NoError(t, err)
	assertDecimal(t, 50, avail)

	second := f.newTransfer(t, f.warehouse, f.store, LineItemInput{ProductID: f.product, Quantity: d(40)})
	_, err = f.transfers.Submit(ctx, second.ID, "clerk")
	require.NoError(t, err)
	_, err = f.transfers.Approve(ctx, second.ID, "manager", nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "lo reservado por otro traslado no está disponible")
}

func TestTransfer_AvailableForBusinessChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newBatch(t, 12)

	avail, err := f.transfers.AvailableForBusiness(ctx, f.business, f.warehouse, f.product)
	require.NoError(t, err)
	assertDecimal(t, 12, avail)

	_, err = f.transfers.AvailableForBusiness(ctx, "otro-negocio", f.warehouse, f.product)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTransfer_DispatchFromReceivedLocationStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setStock(f.store, f.product, 20)

	tr := f.toApproved(t, f.newTransfer(t, f.store, f.warehouse, LineItemInput{ProductID: f.product, Quantity: d(15)}))
	_, err := f.transfers.Dispatch(ctx, tr.ID, "tienda", nil)
	require.NoError(t, err)
	assertDecimal(t, 5, f.stockAt(f.store, f.product))

	_, err = f.transfers.Complete(ctx, tr.ID, "bodeguero")
	require.NoError(t, err)
	assertDecimal(t, 15, f.stockAt(f.warehouse, f.product))
}
