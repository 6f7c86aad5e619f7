package orderbook

import "github.com/cockroachdb/errors"

var (
	ErrInvalidQuantity    = errors.New("orderbook: quantity must be positive")
	ErrInvalidPrice       = errors.New("orderbook: limit price must be positive")
	ErrDuplicateOrder     = errors.New("orderbook: order id already resting")
	ErrUnknownOrder       = errors.New("orderbook: no resting order with that id")
	ErrPostOnlyWouldCross = errors.New("orderbook: post-only order would cross the spread")
)
