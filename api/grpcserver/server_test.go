package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"lltree/service"
)

func startServer(t testing.TB) *Client {
	t.Helper()
	svc, err := service.NewOrderService(service.Deps{})
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor(slog.Default())))
	RegisterOrderBookServer(srv, NewServer(svc, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func req(t testing.TB, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestPlaceMatchAndDepth(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	resp, err := c.PlaceOrder(ctx, req(t, map[string]any{"side": "bid", "type": "limit", "price": 100, "qty": 5}))
	require.NoError(t, err)
	got := resp.AsMap()
	assert.Equal(t, 1.0, got["order_id"])
	assert.Equal(t, "active", got["status"])

	resp, err = c.PlaceOrder(ctx, req(t, map[string]any{"side": "ask", "type": "ioc", "price": 100, "qty": 2}))
	require.NoError(t, err)
	got = resp.AsMap()
	assert.Equal(t, "filled", got["status"])
	assert.Equal(t, []any{map[string]any{"maker_id": 1.0, "price": 100.0, "qty": 2.0}}, got["fills"])

	resp, err = c.GetDepth(ctx, req(t, map[string]any{"side": "bid"}))
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"price": 100.0, "qty": 3.0, "orders": 1.0}}, resp.AsMap()["levels"])
}

func TestCancelAndSnapshot(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	for _, p := range []float64{100, 101} {
		_, err := c.PlaceOrder(ctx, req(t, map[string]any{"side": "ask", "price": p, "qty": 1}))
		require.NoError(t, err)
	}

	resp, err := c.CancelOrder(ctx, req(t, map[string]any{"order_id": 1}))
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.AsMap()["status"])

	resp, err = c.GetSnapshot(ctx, req(t, nil))
	require.NoError(t, err)
	orders := resp.AsMap()["orders"].([]any)
	require.Len(t, orders, 1)
	assert.Equal(t, 2.0, orders[0].(map[string]any)["id"])
	assert.Equal(t, "limit", orders[0].(map[string]any)["type"])
}

func TestErrorCodes(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{"missing side", func() error {
			_, err := c.PlaceOrder(ctx, req(t, map[string]any{"price": 1, "qty": 1}))
			return err
		}, codes.InvalidArgument},
		{"fractional qty", func() error {
			_, err := c.PlaceOrder(ctx, req(t, map[string]any{"side": "bid", "price": 1, "qty": 1.5}))
			return err
		}, codes.InvalidArgument},
		{"unknown type", func() error {
			_, err := c.PlaceOrder(ctx, req(t, map[string]any{"side": "bid", "type": "stop", "price": 1, "qty": 1}))
			return err
		}, codes.InvalidArgument},
		{"zero qty", func() error {
			_, err := c.PlaceOrder(ctx, req(t, map[string]any{"side": "bid", "price": 1, "qty": 0}))
			return err
		}, codes.InvalidArgument},
		{"unknown order", func() error {
			_, err := c.CancelOrder(ctx, req(t, map[string]any{"order_id": 42}))
			return err
		}, codes.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(tc.call()))
		})
	}

	_, err := c.PlaceOrder(ctx, req(t, map[string]any{"side": "bid", "price": 100, "qty": 1}))
	require.NoError(t, err)
	_, err = c.PlaceOrder(ctx, req(t, map[string]any{"side": "ask", "type": "post_only", "price": 100, "qty": 1}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func BenchmarkGRPCPlaceOrder(b *testing.B) {
	c := startServer(b)
	ctx := context.Background()
	in := req(b, map[string]any{"side": "bid", "type": "limit", "price": 100, "qty": 1})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.PlaceOrder(ctx, in); err != nil {
				b.Fatal(err)
			}
		}
	})
}
