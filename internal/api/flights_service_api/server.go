package flights_service_api

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/internal/api/rpcutil"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "flightbooking.v1.FlightsService"

type FlightsServiceServer interface {
	SearchFlights(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetSearchHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpcutil.Method(ServiceName, "SearchFlights", FlightsServiceServer.SearchFlights),
		rpcutil.Method(ServiceName, "GetSearchHistory", FlightsServiceServer.GetSearchHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flightbooking/v1/flights.proto",
}

func RegisterFlightsServiceServer(s grpc.ServiceRegistrar, srv FlightsServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Server implements FlightsServiceServer on top of the flight use case.
type Server struct {
	flights flights.FlightUseCase
	log     *zap.Logger
	now     func() time.Time
}

func NewServer(flights flights.FlightUseCase, log *zap.Logger) *Server {
	return &Server{flights: flights, log: log, now: time.Now}
}

type historyRequest struct {
	Provider string `json:"api_provider"`
}

// SearchFlights mirrors POST /api/flights/search: provider failures come back
// as an ERROR document, not as a status.
func (s *Server) SearchFlights(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.SearchFlightsRequest
	if err := rpcutil.DecodeValid(in, &req); err != nil {
		return nil, err
	}
	sr, err := req.ToDomain()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp, err := s.flights.Search(ctx, sr)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSearch) {
			return nil, rpcutil.Error(s.log, "SearchFlights", err)
		}
		resp = domain.ErrorSearchResponse(sr, err, s.now())
	}
	return rpcutil.Encode(api.NewSearchResponse(*resp))
}

func (s *Server) GetSearchHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req historyRequest
	if err := rpcutil.Decode(in, &req); err != nil {
		return nil, err
	}
	if req.Provider == "" {
		req.Provider = domain.DefaultProvider
	}
	hist, err := s.flights.History(ctx, req.Provider)
	if err != nil {
		return nil, rpcutil.Error(s.log, "GetSearchHistory", err)
	}
	return rpcutil.Encode(api.NewSearchHistoryResponse(*hist))
}

var _ FlightsServiceServer = (*Server)(nil)
