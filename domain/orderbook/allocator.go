package orderbook

// Allocator supplies price levels and takes back orders and levels that
// have left the book. Retired values may still be reachable by readers that
// started before they were retired, so an Allocator must not reuse them
// until those readers are done.
type Allocator interface {
	NewLevel(price int64) *PriceLevel
	RetireLevel(*PriceLevel)
	RetireOrder(*Order)
}

// HeapAllocator allocates levels with new and leaves retired values to
// the garbage collector.
type HeapAllocator struct{}

func (HeapAllocator) NewLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

func (HeapAllocator) RetireLevel(*PriceLevel) {}

func (HeapAllocator) RetireOrder(*Order) {}
