package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservations(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := New(reg)

	m.ObservePlace("limit", 2, 15, 0.0001)
	m.ObservePlace("limit", 0, 0, 0.0001)
	m.ObservePlace("ioc", 1, 3, 0.0001)
	m.ObserveReject("post_only_would_cross")
	m.ObserveCancel(0.00002)
	m.SetBook(4, 7, 11)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersPlaced.WithLabelValues("limit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Fills))
	assert.Equal(t, 18.0, testutil.ToFloat64(m.FilledQty))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersCancelled))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Levels.WithLabelValues("ask")))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.RestingOrders))

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP lltree_orders_rejected_total Orders refused by the book, by reason.
# TYPE lltree_orders_rejected_total counter
lltree_orders_rejected_total{reason="post_only_would_cross"} 1
`), "lltree_orders_rejected_total")
	require.NoError(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePlace("limit", 1, 1, 0)
		m.ObserveReject("x")
		m.ObserveCancel(0)
		m.SetBook(1, 1, 1)
		m.AddReclaimed(1)
		m.IncRetireOverflow()
		m.AddPublished(1)
		m.IncPublishErrors()
		m.IncSnapshots()
	})
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
