package amadeus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAmadeus struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	searchCalls atomic.Int32
	lastQuery   atomic.Value
	searchCode  int
	searchBody  string
}

func newFakeAmadeus(t *testing.T, body string) *fakeAmadeus {
	t.Helper()
	f := &fakeAmadeus{searchCode: http.StatusOK, searchBody: body}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "client_credentials" ||
			r.PostForm.Get("client_id") != "id" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-123",
			"token_type":   "Bearer",
			"expires_in":   1799,
		})
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		f.searchCalls.Add(1)
		f.lastQuery.Store(r.URL.Query().Encode())
		if r.Header.Get("Authorization") != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(f.searchCode)
		_, _ = w.Write([]byte(f.searchBody))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAmadeus) client(secret string) *Client {
	return NewClient(config.ProviderConfig{
		Name:         "AMADEUS",
		BaseURL:      f.server.URL + "/v2/",
		AuthURL:      f.server.URL + "/v1/security/oauth2/token",
		ClientID:     "id",
		ClientSecret: secret,
		Timeout:      2 * time.Second,
		MaxOffers:    10,
	}, zap.NewNop(), WithHTTPClient(f.server.Client()))
}

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/flight_offers.json")
	require.NoError(t, err)
	return string(data)
}

func searchRequest() domain.SearchRequest {
	return domain.NewSearchRequest("ICN", "LAX", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), "AMADEUS")
}

func TestClient_Search(t *testing.T) {
	fake := newFakeAmadeus(t, loadFixture(t))
	c := fake.client("secret")

	req := searchRequest()
	ret := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	req.ReturnDate = &ret

	offers, err := c.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, offers, 3)

	q := fake.lastQuery.Load().(string)
	assert.Contains(t, q, "originLocationCode=ICN")
	assert.Contains(t, q, "destinationLocationCode=LAX")
	assert.Contains(t, q, "departureDate=2025-05-01")
	assert.Contains(t, q, "returnDate=2025-05-10")
	assert.Contains(t, q, "adults=1")
	assert.Contains(t, q, "max=10")

	first := offers[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "KE", first.Airline)
	assert.Equal(t, "KE123", first.FlightNumber)
	require.NotNil(t, first.Origin)
	assert.Equal(t, "ICN", *first.Origin)
	require.NotNil(t, first.Destination)
	assert.Equal(t, "LAX", *first.Destination)
	require.NotNil(t, first.DepartureTime)
	assert.Equal(t, "14:30", first.DepartureTime.String())
	require.NotNil(t, first.ArrivalDate)
	assert.Equal(t, "2025-05-01", first.ArrivalDate.Format(domain.DateLayout))
	assert.Equal(t, "PT13H20M", first.Duration)
	assert.Equal(t, "BUSINESS", first.CabinClass)
	assert.Equal(t, domain.Price{Currency: "EUR", Total: 54670, Base: 40000, Taxes: 14670}, first.Price)
	assert.Equal(t, 4, first.AvailableSeats)
	assert.Equal(t, 1, first.Stops)
}

func TestClient_Search_TokenPerCall(t *testing.T) {
	fake := newFakeAmadeus(t, `{"data": []}`)
	c := fake.client("secret")

	for i := 0; i < 3; i++ {
		_, err := c.Search(context.Background(), searchRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), fake.tokenCalls.Load())
	assert.Equal(t, int32(3), fake.searchCalls.Load())
}

func TestClient_Search_AuthFailure(t *testing.T) {
	fake := newFakeAmadeus(t, `{"data": []}`)
	c := fake.client("wrong")

	_, err := c.Search(context.Background(), searchRequest())
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, int32(0), fake.searchCalls.Load())
}

func TestClient_Search_UpstreamError(t *testing.T) {
	fake := newFakeAmadeus(t, `{"errors":[{"status":500,"title":"SYSTEM ERROR"}]}`)
	fake.searchCode = http.StatusInternalServerError
	c := fake.client("secret")

	_, err := c.Search(context.Background(), searchRequest())
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorContains(t, err, "SYSTEM ERROR")
}

func TestClient_Search_BadBody(t *testing.T) {
	fake := newFakeAmadeus(t, `<html>`)
	c := fake.client("secret")

	_, err := c.Search(context.Background(), searchRequest())
	assert.ErrorIs(t, err, domain.ErrProviderResponse)
}

func TestClient_Search_ContextCancelled(t *testing.T) {
	fake := newFakeAmadeus(t, `{"data": []}`)
	c := fake.client("secret")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Search(ctx, searchRequest())
	assert.Error(t, err)
}

func TestParseOffers_Defaults(t *testing.T) {
	offers, err := ParseOffers(strings.NewReader(loadFixture(t)))
	require.NoError(t, err)
	require.Len(t, offers, 3)

	partial := offers[1]
	assert.Equal(t, "OZ202", partial.FlightNumber)
	require.NotNil(t, partial.Origin)
	assert.Nil(t, partial.Destination)
	assert.Nil(t, partial.DepartureDate)
	assert.Nil(t, partial.DepartureTime)
	require.NotNil(t, partial.ArrivalTime)
	assert.Equal(t, "20:10", partial.ArrivalTime.String())
	assert.Equal(t, domain.DefaultCabinClass, partial.CabinClass)
	assert.Equal(t, domain.DefaultAvailableSeats, partial.AvailableSeats)
	assert.Equal(t, domain.Price{Currency: "KRW", Total: 10000000, Base: 8000000, Taxes: 2000000}, partial.Price)

	empty := offers[2]
	assert.Equal(t, "3", empty.ID)
	assert.Equal(t, domain.DefaultAirline, empty.Airline)
	assert.Equal(t, domain.DefaultFlightNumber, empty.FlightNumber)
	assert.Nil(t, empty.Origin)
	assert.Equal(t, domain.ZeroPrice(), empty.Price)
	assert.Equal(t, 0, empty.Stops)
}

func TestParseOffers_Shapes(t *testing.T) {
	offers, err := ParseOffers(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Empty(t, offers)

	_, err = ParseOffers(strings.NewReader(`[]`))
	assert.ErrorIs(t, err, domain.ErrProviderResponse)

	_, err = ParseOffers(strings.NewReader(`{"data": {"id": "1"}}`))
	assert.ErrorIs(t, err, domain.ErrProviderResponse)
}

func TestLookup(t *testing.T) {
	doc := map[string]any{"a": []any{map[string]any{"b": "c"}}}
	assert.Equal(t, "c", lookup(doc, "a", 0, "b"))
	assert.Nil(t, lookup(doc, "a", 1, "b"))
	assert.Nil(t, lookup(doc, "a", "b"))
	assert.Nil(t, lookup(nil, "a"))
}
