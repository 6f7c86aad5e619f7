package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"lltree/domain/orderbook"
	"lltree/service"
)

// Server adapts OrderService to gRPC.
type Server struct {
	svc *service.OrderService
	log *slog.Logger
}

var _ OrderBookServer = (*Server)(nil)

func NewServer(svc *service.OrderService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log.With("component", "grpc")}
}

// -------------------- Commands --------------------

func (s *Server) PlaceOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	side, err := sideField(f, "side")
	if err != nil {
		return nil, err
	}
	otype, err := typeField(f, "type")
	if err != nil {
		return nil, err
	}
	qty, err := intField(f, "qty", true)
	if err != nil {
		return nil, err
	}
	price, err := intField(f, "price", otype != orderbook.Market)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.PlaceOrder(ctx, service.PlaceRequest{Side: side, Type: otype, Price: price, Qty: qty})
	if err != nil {
		return nil, toStatus(err)
	}

	fills := make([]any, len(res.Fills))
	for i, fl := range res.Fills {
		fills[i] = map[string]any{
			"maker_id": fl.MakerID,
			"price":    fl.Price,
			"qty":      fl.Qty,
		}
	}
	return newStruct(map[string]any{
		"seq":       res.Seq,
		"order_id":  res.OrderID,
		"status":    res.Status.String(),
		"filled":    res.Filled,
		"remaining": res.Remaining,
		"fills":     fills,
	})
}

func (s *Server) CancelOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req.GetFields(), "order_id", true)
	if err != nil {
		return nil, err
	}
	o, err := s.svc.CancelOrder(ctx, uint64(id))
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{
		"order_id": o.ID,
		"status":   o.Status.String(),
		"price":    o.Price,
		"qty":      o.Qty,
		"filled":   o.Filled,
	})
}

// -------------------- Queries --------------------

func (s *Server) GetSnapshot(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	orders := s.svc.Snapshot()
	out := make([]any, len(orders))
	for i, o := range orders {
		out[i] = map[string]any{
			"id":     o.ID,
			"seq":    o.SeqID,
			"side":   o.Side.String(),
			"type":   o.Type.String(),
			"price":  o.Price,
			"qty":    o.Qty,
			"filled": o.Filled,
		}
	}
	return newStruct(map[string]any{"orders": out})
}

func (s *Server) GetDepth(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	side, err := sideField(f, "side")
	if err != nil {
		return nil, err
	}
	n, err := intField(f, "levels", false)
	if err != nil {
		return nil, err
	}
	levels := s.svc.Depth(side, int(n))
	out := make([]any, len(levels))
	for i, l := range levels {
		out[i] = map[string]any{"price": l.Price, "qty": l.Qty, "orders": l.Orders}
	}
	return newStruct(map[string]any{"side": side.String(), "levels": out})
}

// -------------------- Plumbing --------------------

func newStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return st, nil
}

func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.IsAny(err, orderbook.ErrInvalidQuantity, orderbook.ErrInvalidPrice):
		code = codes.InvalidArgument
	case errors.Is(err, orderbook.ErrUnknownOrder):
		code = codes.NotFound
	case errors.Is(err, orderbook.ErrDuplicateOrder):
		code = codes.AlreadyExists
	case errors.Is(err, orderbook.ErrPostOnlyWouldCross):
		code = codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// LoggingInterceptor logs every call with its duration and status code.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelDebug
		if code == codes.Internal || code == codes.Unknown {
			level = slog.LevelError
		}
		log.Log(ctx, level, "rpc", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
		return resp, err
	}
}
