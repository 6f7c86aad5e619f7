package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "lltree.v1.OrderBook"

// OrderBookServer is the server API of lltree.v1.OrderBook.
type OrderBookServer interface {
	PlaceOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDepth(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(OrderBookServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderBookServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderBookServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for lltree.v1.OrderBook.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderBookServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: unaryHandler("PlaceOrder", OrderBookServer.PlaceOrder)},
		{MethodName: "CancelOrder", Handler: unaryHandler("CancelOrder", OrderBookServer.CancelOrder)},
		{MethodName: "GetSnapshot", Handler: unaryHandler("GetSnapshot", OrderBookServer.GetSnapshot)},
		{MethodName: "GetDepth", Handler: unaryHandler("GetDepth", OrderBookServer.GetDepth)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lltree/v1/orderbook.proto",
}

func RegisterOrderBookServer(s grpc.ServiceRegistrar, srv OrderBookServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls lltree.v1.OrderBook.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PlaceOrder(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PlaceOrder", in, opts...)
}

func (c *Client) CancelOrder(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "CancelOrder", in, opts...)
}

func (c *Client) GetSnapshot(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSnapshot", in, opts...)
}

func (c *Client) GetDepth(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetDepth", in, opts...)
}
