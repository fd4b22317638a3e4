package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes recorded by Metrics.
const (
	OutcomeAdmitted  = "admitted"
	OutcomeDuplicate = "duplicate"
	OutcomeConflict  = "conflict"
	OutcomeFailed    = "failed"

	ResultClean   = "clean"
	ResultPartial = "partial"
	ResultFailed  = "failed"
)

// Metrics tracks import and export activity. A nil *Metrics records nothing.
type Metrics struct {
	ImportRows     *prometheus.CounterVec
	Imports        *prometheus.CounterVec
	ImportDuration prometheus.Histogram
	ExportDuration prometheus.Histogram
}

// NewMetrics registers the roster metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ImportRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_import_rows_total",
			Help: "Import rows by outcome (admitted, duplicate, conflict, failed)",
		}, []string{"outcome"}),
		Imports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_imports_total",
			Help: "Import runs by result (clean, partial, failed)",
		}, []string{"result"}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_import_duration_seconds",
			Help:    "Duration of spreadsheet imports",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ExportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_export_duration_seconds",
			Help:    "Duration of roster exports",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// AddRows counts n rows with the given outcome.
func (m *Metrics) AddRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ImportRows.WithLabelValues(outcome).Add(float64(n))
}

// ObserveImport records a finished import. Call with time.Now() at the start.
func (m *Metrics) ObserveImport(result string, start time.Time) {
	if m == nil {
		return
	}
	m.Imports.WithLabelValues(result).Inc()
	m.ImportDuration.Observe(time.Since(start).Seconds())
}

// ObserveExport records a finished export. Call with time.Now() at the start.
func (m *Metrics) ObserveExport(start time.Time) {
	if m == nil {
		return
	}
	m.ExportDuration.Observe(time.Since(start).Seconds())
}

func importResult(r *ImportReport) string {
	switch {
	case r.Clean():
		return ResultClean
	case r.SuccessCount > 0:
		return ResultPartial
	default:
		return ResultFailed
	}
}
