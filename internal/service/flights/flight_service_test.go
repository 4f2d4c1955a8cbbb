package flights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) Insert(ctx context.Context, record *domain.SearchRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSearchRepository) FindByProvider(ctx context.Context, provider string, limit int) ([]domain.SearchRecord, error) {
	args := m.Called(ctx, provider, limit)
	return args.Get(0).([]domain.SearchRecord), args.Error(1)
}

func (m *MockSearchRepository) FindByRoute(ctx context.Context, origin, destination string, limit int) ([]domain.SearchRecord, error) {
	args := m.Called(ctx, origin, destination, limit)
	return args.Get(0).([]domain.SearchRecord), args.Error(1)
}

func (m *MockSearchRepository) CountByProvider(ctx context.Context, provider string) (int64, error) {
	args := m.Called(ctx, provider)
	return args.Get(0).(int64), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "AMADEUS"
}

func (m *MockProvider) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Offer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Offer), args.Error(1)
}

type MockOfferCache struct {
	mock.Mock
}

func (m *MockOfferCache) GetOffers(ctx context.Context, req domain.SearchRequest) ([]domain.Offer, bool, error) {
	args := m.Called(ctx, req)
	offers, _ := args.Get(0).([]domain.Offer)
	return offers, args.Bool(1), args.Error(2)
}

func (m *MockOfferCache) SetOffers(ctx context.Context, req domain.SearchRequest, offers []domain.Offer) error {
	args := m.Called(ctx, req, offers)
	return args.Error(0)
}

var fixedNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func newService(repo *MockSearchRepository, provider *MockProvider, opts ...FlightServiceOption) *FlightService {
	opts = append(opts, WithClock(func() time.Time { return fixedNow }))
	return NewFlightService(repo, zap.NewNop(), []OfferProvider{provider}, opts...)
}

func request() domain.SearchRequest {
	return domain.NewSearchRequest("ICN", "LAX", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "amadeus")
}

func TestFlightService_Search_Success(t *testing.T) {
	repo := &MockSearchRepository{}
	provider := &MockProvider{}
	svc := newService(repo, provider)

	offers := []domain.Offer{{ID: "1", FlightNumber: "KE123"}}
	provider.On("Search", mock.Anything, mock.MatchedBy(func(r domain.SearchRequest) bool {
		return r.Provider == "AMADEUS"
	})).Return(offers, nil)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(r *domain.SearchRecord) bool {
		return r.Provider == "AMADEUS" && r.Adults == 1 && strings.Contains(r.RawResponse, "KE123") && r.SearchedAt.Equal(fixedNow)
	})).Return(nil)

	resp, err := svc.Search(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusSuccess, resp.Status)
	assert.Equal(t, offers, resp.Offers)
	assert.Equal(t, "Found 1 flight offers", resp.Message)

	provider.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestFlightService_Search_RecordFailureIsSwallowed(t *testing.T) {
	repo := &MockSearchRepository{}
	provider := &MockProvider{}
	svc := newService(repo, provider)

	provider.On("Search", mock.Anything, mock.Anything).Return([]domain.Offer{}, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	resp, err := svc.Search(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, domain.SearchStatusSuccess, resp.Status)
}

func TestFlightService_Search_ProviderError(t *testing.T) {
	repo := &MockSearchRepository{}
	provider := &MockProvider{}
	svc := newService(repo, provider)

	providerErr := errors.New("token exchange failed")
	provider.On("Search", mock.Anything, mock.Anything).Return(nil, providerErr)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(r *domain.SearchRecord) bool {
		return r.RawResponse == "ERROR: token exchange failed"
	})).Return(nil)

	resp, err := svc.Search(context.Background(), request())
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, providerErr)
	repo.AssertExpectations(t)
}

func TestFlightService_Search_InvalidRequest(t *testing.T) {
	repo := &MockSearchRepository{}
	provider := &MockProvider{}
	svc := newService(repo, provider)

	req := request()
	req.Destination = "ICN"
	_, err := svc.Search(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidSearch)

	req = request()
	req.Provider = "SABRE"
	_, err = svc.Search(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidSearch)

	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestFlightService_Search_CacheHit(t *testing.T) {
	repo := &MockSearchRepository{}
	provider := &MockProvider{}
	cache := &MockOfferCache{}
	svc := newService(repo, provider, WithOfferCache(cache))

	cached := []domain.Offer{{ID: "cached"}}
	cache.On("GetOffers", mock.Anything, mock.Anything).Return(cached, true, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Search(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, cached, resp.Offers)
	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	repo.AssertNumberOfCalls(t, "Insert", 1)
}

func TestFlightService_Search_CacheMiss(t *testing.T) {
	repo := &MockSearchRepository{}
	provider := &MockProvider{}
	cache := &MockOfferCache{}
	svc := newService(repo, provider, WithOfferCache(cache))

	offers := []domain.Offer{{ID: "fresh"}}
	cache.On("GetOffers", mock.Anything, mock.Anything).Return(nil, false, nil)
	provider.On("Search", mock.Anything, mock.Anything).Return(offers, nil)
	cache.On("SetOffers", mock.Anything, mock.Anything, offers).Return(errors.New("redis down"))
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.Search(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, offers, resp.Offers)
	cache.AssertExpectations(t)
}

func TestFlightService_History(t *testing.T) {
	repo := &MockSearchRepository{}
	svc := newService(repo, &MockProvider{})

	recent := []domain.SearchRecord{{ID: 3, Origin: "ICN", Destination: "LAX"}}
	repo.On("CountByProvider", mock.Anything, "AMADEUS").Return(int64(12), nil)
	repo.On("FindByProvider", mock.Anything, "AMADEUS", HistoryLimit).Return(recent, nil)

	h, err := svc.History(context.Background(), "amadeus")
	require.NoError(t, err)
	assert.Equal(t, int64(12), h.Count)
	assert.Equal(t, "Found 12 searches for provider AMADEUS", h.Message)
	assert.Equal(t, recent, h.Recent)
}

func TestFlightService_History_Error(t *testing.T) {
	repo := &MockSearchRepository{}
	svc := newService(repo, &MockProvider{})

	repo.On("CountByProvider", mock.Anything, "AMADEUS").Return(int64(0), errors.New("db down"))
	_, err := svc.History(context.Background(), "AMADEUS")
	assert.Error(t, err)
}

func TestFlightService_RecentByRoute(t *testing.T) {
	repo := &MockSearchRepository{}
	svc := newService(repo, &MockProvider{})

	repo.On("FindByRoute", mock.Anything, "ICN", "LAX", HistoryLimit).Return([]domain.SearchRecord{}, nil)
	records, err := svc.RecentByRoute(context.Background(), "icn", "lax")
	require.NoError(t, err)
	assert.Empty(t, records)
}
