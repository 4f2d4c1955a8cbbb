// Package amadeus is the flight offer client for the Amadeus self-service API.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const offersPath = "/shopping/flight-offers"

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

type Client struct {
	name       string
	baseURL    string
	maxOffers  int
	http       *http.Client
	credential clientcredentials.Config
	log        *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the transport used for both token and search calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func NewClient(cfg config.ProviderConfig, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		name:      cfg.Name,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		maxOffers: cfg.MaxOffers,
		http:      &http.Client{Timeout: cfg.Timeout},
		credential: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.AuthURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		log: log,
	}
	if c.name == "" {
		c.name = domain.DefaultProvider
	}
	if c.maxOffers <= 0 {
		c.maxOffers = 10
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

// Search exchanges the client credentials for a fresh token and queries flight
// offers. Tokens are not reused between calls.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) ([]domain.Offer, error) {
	ctx, span := telemetry.StartSpan(ctx, "amadeus.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("route.origin", req.Origin),
		attribute.String("route.destination", req.Destination),
	)

	offers, err := c.search(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Warn("amadeus search failed",
			zap.String("origin", req.Origin),
			zap.String("destination", req.Destination),
			zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("offers", len(offers)))
	c.log.Info("amadeus search completed",
		zap.String("origin", req.Origin),
		zap.String("destination", req.Destination),
		zap.Int("offers", len(offers)))
	return offers, nil
}

func (c *Client) search(ctx context.Context, req domain.SearchRequest) ([]domain.Offer, error) {
	token, err := c.credential.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", domain.ErrProviderUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+offersPath+"?"+searchQuery(req, c.maxOffers).Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	token.SetAuthHeader(httpReq)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: search returned %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParseOffers(resp.Body)
}

func searchQuery(req domain.SearchRequest, max int) url.Values {
	q := url.Values{}
	q.Set("originLocationCode", req.Origin)
	q.Set("destinationLocationCode", req.Destination)
	q.Set("departureDate", req.DepartureDate.Format(domain.DateLayout))
	q.Set("adults", strconv.Itoa(req.Adults))
	q.Set("children", strconv.Itoa(req.Children))
	q.Set("infants", strconv.Itoa(req.Infants))
	q.Set("max", strconv.Itoa(max))
	if req.ReturnDate != nil {
		q.Set("returnDate", req.ReturnDate.Format(domain.DateLayout))
	}
	return q
}

// ParseOffers decodes a flight-offers payload. Only an unreadable document is
// an error; individual offers degrade field by field.
func ParseOffers(r io.Reader) ([]domain.Offer, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderResponse, err)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", domain.ErrProviderResponse)
	}

	offers := make([]domain.Offer, 0)
	raw, present := root["data"]
	if !present || raw == nil {
		return offers, nil
	}
	data, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: data is not a list", domain.ErrProviderResponse)
	}
	for _, item := range data {
		if offer, ok := convertOffer(item); ok {
			offers = append(offers, offer)
		}
	}
	return offers, nil
}
