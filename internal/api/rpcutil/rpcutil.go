// Package rpcutil holds the plumbing shared by the gRPC services: Struct
// payload conversion, error to status mapping and method descriptors.
package rpcutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Decode copies a Struct payload into v through its JSON form.
func Decode(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	return nil
}

// Encode renders v as a Struct using its JSON tags.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// EncodeList wraps a list under key, since a Struct cannot be a bare array.
func EncodeList(key string, v any) (*structpb.Struct, error) {
	return Encode(map[string]any{key: v})
}

// DecodeValid decodes and runs the HTTP request validators.
func DecodeValid(in *structpb.Struct, v any) error {
	if err := Decode(in, v); err != nil {
		return err
	}
	if err := api.Validate(v); err != nil {
		fields := api.FieldErrors(err)
		if fields == nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		return status.Error(codes.InvalidArgument, "request validation failed: "+formatFields(fields))
	}
	return nil
}

func formatFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return strings.Join(parts, "; ")
}

// Code maps a service error to its gRPC code.
func Code(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrInvalidBooking),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidSearch),
		errors.Is(err, domain.ErrInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrBookingNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrDuplicateBooking):
		return codes.AlreadyExists
	case domain.IsBusinessError(err):
		return codes.FailedPrecondition
	case domain.IsUpstreamError(err):
		return codes.Unavailable
	}
	return codes.Internal
}

// Error converts err into a status error. Internal failures are logged and
// reported without detail.
func Error(log *zap.Logger, method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := Code(err)
	if code == codes.Internal {
		log.Error("rpc failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

// Method builds a unary method descriptor for a Struct in, Struct out call.
// call is usually a method expression such as Service.Method.
func Method[S any](service, name string, call func(srv S, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := fmt.Sprintf("/%s/%s", service, name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls a Struct method on conn. Used by clients and tests.
func Invoke(ctx context.Context, conn grpc.ClientConnInterface, service, name string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, fmt.Sprintf("/%s/%s", service, name), in, out); err != nil {
		return nil, err
	}
	return out, nil
}
