package bookings_service_api

import (
	"context"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/internal/api/rpcutil"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "flightbooking.v1.BookingsService"

// BookingsServiceServer is the gRPC contract. Payloads are Structs carrying
// the same JSON documents as the REST API.
type BookingsServiceServer interface {
	CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	UpdateBookingStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListBookingsByEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpcutil.Method(ServiceName, "CreateBooking", BookingsServiceServer.CreateBooking),
		rpcutil.Method(ServiceName, "GetBooking", BookingsServiceServer.GetBooking),
		rpcutil.Method(ServiceName, "CancelBooking", BookingsServiceServer.CancelBooking),
		rpcutil.Method(ServiceName, "UpdateBookingStatus", BookingsServiceServer.UpdateBookingStatus),
		rpcutil.Method(ServiceName, "ListBookingsByEmail", BookingsServiceServer.ListBookingsByEmail),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flightbooking/v1/bookings.proto",
}

func RegisterBookingsServiceServer(s grpc.ServiceRegistrar, srv BookingsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server implements BookingsServiceServer on top of the booking use case.
type Server struct {
	bookings booking.BookingUseCase
	log      *zap.Logger
	location *time.Location
	now      func() time.Time
}

func NewServer(bookings booking.BookingUseCase, log *zap.Logger, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	return &Server{bookings: bookings, log: log, location: loc, now: time.Now}
}

type referenceRequest struct {
	Reference string `json:"booking_reference"`
}

type statusRequest struct {
	Reference string `json:"booking_reference"`
	Status    string `json:"status"`
}

type emailRequest struct {
	Email string `json:"passenger_email"`
	View  string `json:"view"`
}

func (s *Server) CreateBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.CreateBookingRequest
	if err := rpcutil.DecodeValid(in, &req); err != nil {
		return nil, err
	}
	input, err := req.ToInput()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	created, err := s.bookings.CreateBooking(ctx, input)
	if err != nil {
		return nil, rpcutil.Error(s.log, "CreateBooking", err)
	}
	return s.encode(created)
}

func (s *Server) GetBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req referenceRequest
	if err := decodeReference(in, &req); err != nil {
		return nil, err
	}
	b, ok, err := s.bookings.GetBookingByReference(ctx, req.Reference)
	if err != nil {
		return nil, rpcutil.Error(s.log, "GetBooking", err)
	}
	if !ok {
		return nil, status.Errorf(codes.NotFound, "booking %s not found", req.Reference)
	}
	return s.encode(b)
}

func (s *Server) CancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req referenceRequest
	if err := decodeReference(in, &req); err != nil {
		return nil, err
	}
	b, err := s.bookings.CancelBooking(ctx, req.Reference)
	if err != nil {
		return nil, rpcutil.Error(s.log, "CancelBooking", err)
	}
	return s.encode(b)
}

func (s *Server) UpdateBookingStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req statusRequest
	if err := rpcutil.Decode(in, &req); err != nil {
		return nil, err
	}
	if req.Reference == "" {
		return nil, status.Error(codes.InvalidArgument, "booking_reference is required")
	}
	next, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, rpcutil.Error(s.log, "UpdateBookingStatus", err)
	}
	b, err := s.bookings.UpdateBookingStatus(ctx, req.Reference, next)
	if err != nil {
		return nil, rpcutil.Error(s.log, "UpdateBookingStatus", err)
	}
	return s.encode(b)
}

func (s *Server) ListBookingsByEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req emailRequest
	if err := rpcutil.Decode(in, &req); err != nil {
		return nil, err
	}
	if req.Email == "" {
		return nil, status.Error(codes.InvalidArgument, "passenger_email is required")
	}
	items, err := s.bookings.GetBookingsByEmail(ctx, req.Email)
	if err != nil {
		return nil, rpcutil.Error(s.log, "ListBookingsByEmail", err)
	}
	return rpcutil.EncodeList("bookings", api.BookingList(items, req.View == "summary", s.now().In(s.location)))
}

func (s *Server) encode(b *domain.Booking) (*structpb.Struct, error) {
	return rpcutil.Encode(api.NewBookingResponse(*b, s.now().In(s.location)))
}

func decodeReference(in *structpb.Struct, req *referenceRequest) error {
	if err := rpcutil.Decode(in, req); err != nil {
		return err
	}
	if req.Reference == "" {
		return status.Error(codes.InvalidArgument, "booking_reference is required")
	}
	return nil
}

var _ BookingsServiceServer = (*Server)(nil)
