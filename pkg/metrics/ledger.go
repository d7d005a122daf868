package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics métricas del motor de stock. Un *LedgerMetrics nil es válido y no registra nada.
type LedgerMetrics struct {
	transfers   *prometheus.CounterVec
	adjustments *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	reconcile   *prometheus.HistogramVec
	reconciled  *prometheus.CounterVec
	warnings    *prometheus.CounterVec
}

// NewLedgerMetrics registra las métricas en el registerer indicado.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transfer_transitions_total",
			Help: "Transiciones de traslados por estado destino.",
		}, []string{"status"}),
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_adjustment_transitions_total",
			Help: "Transiciones de ajustes por tipo y estado destino.",
		}, []string{"type", "status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_guard_rejections_total",
			Help: "Escrituras rechazadas por las reglas de consistencia.",
		}, []string{"rule"}),
		reconcile: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_reconcile_duration_seconds",
			Help:    "Duración de las corridas de reconciliación.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_reconcile_batches_total",
			Help: "Resultados de la reconciliación: lotes changed/skipped y grupos errored.",
		}, []string{"mode", "outcome"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_integrity_warnings_total",
			Help: "Advertencias de integridad de datos por tipo.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.transfers, m.adjustments, m.rejections, m.reconcile, m.reconciled, m.warnings)
	return m
}

// TransferTransition cuenta una transición de traslado.
func (m *LedgerMetrics) TransferTransition(status string) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeLabel(status)).Inc()
}

// AdjustmentTransition cuenta una transición de ajuste.
func (m *LedgerMetrics) AdjustmentTransition(typ, status string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(typ), normalizeLabel(status)).Inc()
}

// GuardRejection cuenta un rechazo de la regla indicada.
func (m *LedgerMetrics) GuardRejection(rule string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(rule)).Inc()
}

// ReconcileRun registra la duración y los contadores de una corrida.
func (m *LedgerMetrics) ReconcileRun(mode string, d time.Duration, changed, skipped, errored int) {
	if m == nil || m.reconcile == nil {
		return
	}
	mode = normalizeLabel(mode)
	m.reconcile.WithLabelValues(mode).Observe(d.Seconds())
	m.reconciled.WithLabelValues(mode, "changed").Add(float64(changed))
	m.reconciled.WithLabelValues(mode, "skipped").Add(float64(skipped))
	m.reconciled.WithLabelValues(mode, "errored").Add(float64(errored))
}

// IntegrityWarning cuenta una advertencia de integridad.
func (m *LedgerMetrics) IntegrityWarning(kind string) {
	if m == nil || m.warnings == nil {
		return
	}
	m.warnings.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
