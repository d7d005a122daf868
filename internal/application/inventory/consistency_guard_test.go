package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

func TestGuard_TransferFulfillmentChecksEveryProduct(t *testing.T) {
	g := NewConsistencyGuard(metrics.NewLedgerMetrics(prometheus.NewRegistry()))
	stock := map[string]decimal.Decimal{"p-a": d(10), "p-b": d(3)}
	available := func(_ context.Context, productID string) (decimal.Decimal, error) {
		return stock[productID], nil
	}

	err := g.CheckTransferFulfillment(context.Background(), map[string]decimal.Decimal{"p-a": d(10), "p-b": d(3)}, available)
	require.NoError(t, err, "igual a lo disponible alcanza")

	err = g.CheckTransferFulfillment(context.Background(), map[string]decimal.Decimal{"p-a": d(2), "p-b": d(4)}, available)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "p-b", ve.Details["product_id"])
	assert.Contains(t, ve.Error(), "actual=3, delta=-4, resultado=-1")
}

func TestGuard_TransferFulfillmentPropagatesLookupErrors(t *testing.T) {
	g := NewConsistencyGuard(nil)
	err := g.CheckTransferFulfillment(context.Background(), map[string]decimal.Decimal{"p": d(1)},
		func(context.Context, string) (decimal.Decimal, error) { return decimal.Zero, errInjected })
	assert.ErrorIs(t, err, errInjected)
}

func TestPolicy_New(t *testing.T) {
	p, err := NewPolicy("fefo", "", d(100))
	require.NoError(t, err)
	assert.Equal(t, PairedApprovalNone, p.PairedApproval)
	assert.NotNil(t, p.Order)

	_, err = NewPolicy("lifo", PairedApprovalNone, decimal.Zero)
	assert.Error(t, err)
	_, err = NewPolicy("fifo", "siempre", decimal.Zero)
	assert.Error(t, err)
}
