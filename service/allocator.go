package service

import (
	"lltree/domain/orderbook"
	"lltree/infra/memory"
	"lltree/infra/metrics"
)

// pooledAllocator serves orders and price levels from pools and routes
// everything the book retires through the retire ring, so memory is only
// reused after the epoch that could still see it has passed.
type pooledAllocator struct {
	orders  *memory.Pool[orderbook.Order]
	levels  *memory.Pool[orderbook.PriceLevel]
	ring    *memory.RetireRing
	domain  *memory.Domain
	metrics *metrics.Metrics
}

func newPooledAllocator(d *memory.Domain, ring *memory.RetireRing, m *metrics.Metrics) *pooledAllocator {
	return &pooledAllocator{
		orders: memory.NewPool(
			func() *orderbook.Order { return &orderbook.Order{} },
			func(o *orderbook.Order) { *o = orderbook.Order{} },
		),
		levels: memory.NewPool(
			func() *orderbook.PriceLevel { return &orderbook.PriceLevel{} },
			func(l *orderbook.PriceLevel) { l.Reset(0) },
		),
		ring:    ring,
		domain:  d,
		metrics: m,
	}
}

func (a *pooledAllocator) NewOrder() *orderbook.Order {
	return a.orders.Get()
}

func (a *pooledAllocator) NewLevel(price int64) *orderbook.PriceLevel {
	l := a.levels.Get()
	l.Reset(price)
	return l
}

func (a *pooledAllocator) RetireLevel(l *orderbook.PriceLevel) { a.retire(l) }

func (a *pooledAllocator) RetireOrder(o *orderbook.Order) { a.retire(o) }

func (a *pooledAllocator) retire(v any) {
	if !a.domain.Retire(a.ring, v) {
		// Dropped values are never recycled, the GC takes them instead.
		a.metrics.IncRetireOverflow()
	}
}

// PutAny returns reclaimed objects to their pool.
func (a *pooledAllocator) PutAny(v any) {
	switch x := v.(type) {
	case *orderbook.Order:
		a.orders.Put(x)
	case *orderbook.PriceLevel:
		a.levels.Put(x)
	}
}
