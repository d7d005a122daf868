package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerMetrics_Registra(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.TransferTransition("COMPLETED")
	m.TransferTransition("COMPLETED")
	m.AdjustmentTransition("DAMAGE", "COMPLETED")
	m.GuardRejection("")
	m.IntegrityWarning("UNALLOCATED_REMAINDER")
	m.ReconcileRun("apply", 2*time.Second, 3, 1, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transfers.WithLabelValues("COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.adjustments.WithLabelValues("DAMAGE", "COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("unknown")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconciled.WithLabelValues("apply", "changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warnings.WithLabelValues("UNALLOCATED_REMAINDER")))
}

func TestLedgerMetrics_NilEsSeguro(t *testing.T) {
	var m *LedgerMetrics
	assert.NotPanics(t, func() {
		m.TransferTransition("COMPLETED")
		m.ReconcileRun("dry_run", time.Second, 0, 0, 0)
		m.IntegrityWarning("x")
	})
	assert.NotPanics(t, func() {
		NewLedgerMetrics(nil).GuardRejection("intake_frozen")
	})
}
