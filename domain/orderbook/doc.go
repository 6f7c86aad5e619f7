// Package orderbook implements the single-writer limit order book.
//
// Each side of the book is a ladder of price levels kept in an intrusive
// left-leaning red-black tree (package llrb). Bids are ordered from the
// highest price down and asks from the lowest price up, so the best price
// of either side is always the minimum of its tree. Orders at a price sit
// in a FIFO inside their PriceLevel.
//
// The book never allocates or frees memory on its own account: price levels
// come from, and retired orders and levels go back to, an Allocator.
package orderbook
