package grpcserver

import (
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"lltree/domain/orderbook"
)

const maxExactInt = 1 << 53

func stringField(f map[string]*structpb.Value, key string) (string, error) {
	v, ok := f[key]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "missing field %q", key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "field %q must be a string", key)
	}
	return s.StringValue, nil
}

// intField reads an integral number. A missing optional field is 0.
func intField(f map[string]*structpb.Value, key string, required bool) (int64, error) {
	v, ok := f[key]
	if !ok {
		if required {
			return 0, status.Errorf(codes.InvalidArgument, "missing field %q", key)
		}
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be a number", key)
	}
	x := n.NumberValue
	if x != math.Trunc(x) || math.Abs(x) > maxExactInt {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be an integer below 2^53", key)
	}
	return int64(x), nil
}

func sideField(f map[string]*structpb.Value, key string) (orderbook.Side, error) {
	s, err := stringField(f, key)
	if err != nil {
		return 0, err
	}
	side, err := orderbook.ParseSide(s)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return side, nil
}

func typeField(f map[string]*structpb.Value, key string) (orderbook.OrderType, error) {
	if _, ok := f[key]; !ok {
		return orderbook.Limit, nil
	}
	s, err := stringField(f, key)
	if err != nil {
		return 0, err
	}
	t, err := orderbook.ParseOrderType(s)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return t, nil
}
