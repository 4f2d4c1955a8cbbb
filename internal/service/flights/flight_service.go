package flights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// HistoryLimit caps the recent records returned with a history summary.
const HistoryLimit = 10

type FlightUseCase interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
	History(ctx context.Context, provider string) (*domain.SearchHistory, error)
	RecentByRoute(ctx context.Context, origin, destination string) ([]domain.SearchRecord, error)
}

// OfferProvider is a flight-data source such as the Amadeus client.
type OfferProvider interface {
	Name() string
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.Offer, error)
}

type OfferCache interface {
	GetOffers(ctx context.Context, req domain.SearchRequest) ([]domain.Offer, bool, error)
	SetOffers(ctx context.Context, req domain.SearchRequest, offers []domain.Offer) error
}

type FlightService struct {
	providers map[string]OfferProvider
	searches  repository.SearchRepository
	cache     OfferCache
	log       *zap.Logger
	now       func() time.Time
}

type FlightServiceOption func(*FlightService)

func WithOfferCache(cache OfferCache) FlightServiceOption {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(searches repository.SearchRepository, log *zap.Logger, providers []OfferProvider, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		providers: make(map[string]OfferProvider, len(providers)),
		searches:  searches,
		log:       log,
		now:       time.Now,
	}
	for _, p := range providers {
		s.providers[strings.ToUpper(p.Name())] = p
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search queries the requested provider and writes an audit record for the
// attempt. The audit write never fails the search. A provider failure is
// returned as an error after it has been recorded.
func (s *FlightService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "flights.Search")
	defer span.End()

	if req.Provider == "" {
		req.Provider = domain.DefaultProvider
	}
	req.Provider = strings.ToUpper(req.Provider)
	span.SetAttributes(attribute.String("provider", req.Provider))

	if err := req.Validate(); err != nil {
		return nil, err
	}
	provider, ok := s.providers[req.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provider %q", domain.ErrInvalidSearch, req.Provider)
	}

	offers, err := s.offers(ctx, provider, req)
	if err != nil {
		span.RecordError(err)
		s.record(ctx, req, "ERROR: "+err.Error())
		return nil, err
	}

	resp := &domain.SearchResponse{
		Provider:   req.Provider,
		Status:     domain.SearchStatusSuccess,
		Message:    fmt.Sprintf("Found %d flight offers", len(offers)),
		Offers:     offers,
		Request:    req,
		SearchedAt: s.now(),
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		raw = []byte(resp.Message)
	}
	s.record(ctx, req, string(raw))
	return resp, nil
}

func (s *FlightService) offers(ctx context.Context, provider OfferProvider, req domain.SearchRequest) ([]domain.Offer, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetOffers(ctx, req)
		if err != nil {
			s.log.Warn("offer cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	offers, err := provider.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetOffers(ctx, req, offers); err != nil {
			s.log.Warn("offer cache write failed", zap.Error(err))
		}
	}
	return offers, nil
}

func (s *FlightService) record(ctx context.Context, req domain.SearchRequest, raw string) {
	rec := &domain.SearchRecord{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        req.Adults,
		Children:      req.Children,
		Infants:       req.Infants,
		Provider:      req.Provider,
		SearchedAt:    s.now(),
		RawResponse:   raw,
	}
	if err := s.searches.Insert(ctx, rec); err != nil {
		s.log.Error("failed to save search record",
			zap.String("provider", req.Provider),
			zap.String("origin", req.Origin),
			zap.String("destination", req.Destination),
			zap.Error(err))
	}
}

func (s *FlightService) History(ctx context.Context, provider string) (*domain.SearchHistory, error) {
	provider = strings.ToUpper(provider)
	count, err := s.searches.CountByProvider(ctx, provider)
	if err != nil {
		return nil, err
	}
	recent, err := s.searches.FindByProvider(ctx, provider, HistoryLimit)
	if err != nil {
		return nil, err
	}
	return &domain.SearchHistory{
		Provider: provider,
		Count:    count,
		Message:  fmt.Sprintf("Found %d searches for provider %s", count, provider),
		Recent:   recent,
	}, nil
}

func (s *FlightService) RecentByRoute(ctx context.Context, origin, destination string) ([]domain.SearchRecord, error) {
	return s.searches.FindByRoute(ctx, strings.ToUpper(origin), strings.ToUpper(destination), HistoryLimit)
}

var _ FlightUseCase = (*FlightService)(nil)
