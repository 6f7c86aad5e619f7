// Package grpcserver exposes the order service as the gRPC service
// lltree.v1.OrderBook. Requests and responses are google.protobuf.Struct
// messages; numbers travel as JSON numbers and must be integral.
//
//	PlaceOrder  {side, type, price, qty}  -> {seq, order_id, status, filled, remaining, fills: [{maker_id, price, qty}]}
//	CancelOrder {order_id}                -> {order_id, status, price, qty, filled}
//	GetSnapshot {}                        -> {orders: [{id, seq, side, type, price, qty, filled}]}
//	GetDepth    {side, levels}            -> {side, levels: [{price, qty, orders}]}
//
// side is "bid" or "ask"; type is one of limit, market, ioc, fok, post_only.
package grpcserver
