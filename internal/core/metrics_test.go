package core

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AddRows(OutcomeAdmitted, 3)
		m.ObserveImport(ResultClean, time.Now())
		m.ObserveExport(time.Now())
	})
}

func TestMetrics_Counts(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.AddRows(OutcomeAdmitted, 3)
	m.AddRows(OutcomeDuplicate, 0)
	m.AddRows(OutcomeConflict, 2)
	m.ObserveImport(ResultPartial, time.Now())

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportRows.WithLabelValues(OutcomeAdmitted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ImportRows.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportRows.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues(ResultPartial)))
}

func TestImportResult(t *testing.T) {
	assert.Equal(t, ResultClean, importResult(&ImportReport{SuccessCount: 2}))
	assert.Equal(t, ResultClean, importResult(&ImportReport{}))
	assert.Equal(t, ResultPartial, importResult(&ImportReport{SuccessCount: 1, Errors: []string{"x"}}))
	assert.Equal(t, ResultFailed, importResult(&ImportReport{Errors: []string{"x"}}))
}
