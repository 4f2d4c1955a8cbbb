package flights_service_api

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResponse), args.Error(1)
}

func (m *MockFlightUseCase) History(ctx context.Context, provider string) (*domain.SearchHistory, error) {
	args := m.Called(ctx, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchHistory), args.Error(1)
}

func (m *MockFlightUseCase) RecentByRoute(ctx context.Context, origin, destination string) ([]domain.SearchRecord, error) {
	args := m.Called(ctx, origin, destination)
	return args.Get(0).([]domain.SearchRecord), args.Error(1)
}

func searchPayload(t *testing.T) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(map[string]any{
		"origin":         "ICN",
		"destination":    "LAX",
		"departure_date": "2030-05-01",
		"adults":         2,
		"api_provider":   "AMADEUS",
	})
	require.NoError(t, err)
	return s
}

func TestServer_SearchFlights(t *testing.T) {
	svc := &MockFlightUseCase{}
	srv := NewServer(svc, zap.NewNop())

	svc.On("Search", mock.Anything, mock.MatchedBy(func(r domain.SearchRequest) bool {
		return r.Adults == 2 && r.Origin == "ICN"
	})).Return(&domain.SearchResponse{
		Provider: "AMADEUS",
		Status:   domain.SearchStatusSuccess,
		Message:  "Found 1 flight offers",
		Offers:   []domain.Offer{{ID: "1", FlightNumber: "KE123", Price: domain.ZeroPrice()}},
	}, nil)

	out, err := srv.SearchFlights(context.Background(), searchPayload(t))
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", out.Fields["status"].GetStringValue())
	assert.Len(t, out.Fields["offers"].GetListValue().GetValues(), 1)
}

func TestServer_SearchFlights_ProviderFailure(t *testing.T) {
	svc := &MockFlightUseCase{}
	srv := NewServer(svc, zap.NewNop())
	srv.now = func() time.Time { return time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC) }

	svc.On("Search", mock.Anything, mock.Anything).Return(nil, domain.ErrProviderUnavailable)

	out, err := srv.SearchFlights(context.Background(), searchPayload(t))
	require.NoError(t, err)
	assert.Equal(t, "ERROR", out.Fields["status"].GetStringValue())
	assert.Empty(t, out.Fields["offers"].GetListValue().GetValues())
}

func TestServer_SearchFlights_Invalid(t *testing.T) {
	svc := &MockFlightUseCase{}
	srv := NewServer(svc, zap.NewNop())

	in := searchPayload(t)
	in.Fields["infants"] = structpb.NewNumberValue(5)
	_, err := srv.SearchFlights(context.Background(), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestServer_GetSearchHistory(t *testing.T) {
	svc := &MockFlightUseCase{}
	srv := NewServer(svc, zap.NewNop())
	svc.On("History", mock.Anything, domain.DefaultProvider).Return(&domain.SearchHistory{
		Provider: domain.DefaultProvider,
		Count:    4,
		Message:  "Found 4 searches for provider AMADEUS",
	}, nil)

	out, err := srv.GetSearchHistory(context.Background(), &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, float64(4), out.Fields["search_count"].GetNumberValue())
}
