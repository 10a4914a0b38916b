package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cable-billing/internal/metrics"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	m.PaymentsRecorded.WithLabelValues("Cash").Inc()
	m.AmountCollected.WithLabelValues("Cash").Add(450)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.PaymentsRecorded.WithLabelValues("Cash")), 0.0001)
	assert.InDelta(t, 450.0, testutil.ToFloat64(m.AmountCollected.WithLabelValues("Cash")), 0.0001)

	// A second registration on the same registry must fail.
	require.Panics(t, func() { metrics.NewMetrics(reg) })
}
