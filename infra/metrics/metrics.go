// Package metrics holds the prometheus collectors of the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lltree"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	OrdersPlaced    *prometheus.CounterVec
	OrdersRejected  *prometheus.CounterVec
	OrdersCancelled prometheus.Counter
	Fills           prometheus.Counter
	FilledQty       prometheus.Counter
	Levels          *prometheus.GaugeVec
	RestingOrders   prometheus.Gauge
	CommandDuration *prometheus.HistogramVec
	Reclaimed       prometheus.Counter
	RetireOverflow  prometheus.Counter
	Published       prometheus.Counter
	PublishErrors   prometheus.Counter
	Snapshots       prometheus.Counter
}

// New creates the collectors and registers them on reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_placed_total",
			Help: "Orders accepted by the book, by order type.",
		}, []string{"type"}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_rejected_total",
			Help: "Orders refused by the book, by reason.",
		}, []string{"reason"}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_cancelled_total",
			Help: "Resting orders removed by cancel.",
		}),
		Fills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "fills_total",
			Help: "Executions produced by matching.",
		}),
		FilledQty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "filled_quantity_total",
			Help: "Quantity executed by matching.",
		}),
		Levels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "price_levels",
			Help: "Price levels linked in each side's tree.",
		}, []string{"side"}),
		RestingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "resting_orders",
			Help: "Orders resting in the book.",
		}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "command_duration_seconds",
			Help:    "Time to log and apply a command.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"command"}),
		Reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reclaimed_objects_total",
			Help: "Retired orders and levels returned to their pools.",
		}),
		RetireOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "retire_ring_overflow_total",
			Help: "Retired objects left to the garbage collector because the retire ring was full.",
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "fills_published_total",
			Help: "Fill events acknowledged by Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "fill_publish_errors_total",
			Help: "Failed fill publish attempts.",
		}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "snapshots_total",
			Help: "Snapshots written.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OrdersPlaced, m.OrdersRejected, m.OrdersCancelled, m.Fills, m.FilledQty,
		m.Levels, m.RestingOrders, m.CommandDuration, m.Reclaimed,
		m.RetireOverflow, m.Published, m.PublishErrors, m.Snapshots,
	}
}

func (m *Metrics) ObservePlace(orderType string, fills int, qty int64, seconds float64) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(orderType).Inc()
	m.Fills.Add(float64(fills))
	m.FilledQty.Add(float64(qty))
	m.CommandDuration.WithLabelValues("place").Observe(seconds)
}

func (m *Metrics) ObserveReject(reason string) {
	if m == nil {
		return
	}
	m.OrdersRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveCancel(seconds float64) {
	if m == nil {
		return
	}
	m.OrdersCancelled.Inc()
	m.CommandDuration.WithLabelValues("cancel").Observe(seconds)
}

// SetBook records the current shape of the book.
func (m *Metrics) SetBook(bidLevels, askLevels, resting int) {
	if m == nil {
		return
	}
	m.Levels.WithLabelValues("bid").Set(float64(bidLevels))
	m.Levels.WithLabelValues("ask").Set(float64(askLevels))
	m.RestingOrders.Set(float64(resting))
}

func (m *Metrics) AddReclaimed(n int) {
	if m == nil {
		return
	}
	m.Reclaimed.Add(float64(n))
}

func (m *Metrics) IncRetireOverflow() {
	if m == nil {
		return
	}
	m.RetireOverflow.Inc()
}

func (m *Metrics) AddPublished(n int) {
	if m == nil {
		return
	}
	m.Published.Add(float64(n))
}

func (m *Metrics) IncPublishErrors() {
	if m == nil {
		return
	}
	m.PublishErrors.Inc()
}

func (m *Metrics) IncSnapshots() {
	if m == nil {
		return
	}
	m.Snapshots.Inc()
}
