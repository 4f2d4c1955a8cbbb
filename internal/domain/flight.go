package domain

import (
	"fmt"
	"time"
)

const (
	DefaultAdults   = 1
	MaxAdults       = 9
	MaxChildren     = 8
	MaxInfants      = 2
	MaxSearchPax    = 9
	DefaultProvider = "AMADEUS"
)

// SearchRequest is a flight offer query. Build it with NewSearchRequest so the
// passenger defaults are applied.
type SearchRequest struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Adults        int
	Children      int
	Infants       int
	Provider      string
}

// NewSearchRequest returns a one-way request for a single adult.
func NewSearchRequest(origin, destination string, departure time.Time, provider string) SearchRequest {
	if provider == "" {
		provider = DefaultProvider
	}
	return SearchRequest{
		Origin:        origin,
		Destination:   destination,
		DepartureDate: DateOf(departure),
		Adults:        DefaultAdults,
		Provider:      provider,
	}
}

func (r SearchRequest) TotalPassengers() int {
	return r.Adults + r.Children + r.Infants
}

func (r SearchRequest) IsRoundTrip() bool {
	return r.ReturnDate != nil
}

func (r SearchRequest) Validate() error {
	switch {
	case r.Origin == "" || r.Destination == "":
		return fmt.Errorf("%w: origin and destination are required", ErrInvalidSearch)
	case r.Origin == r.Destination:
		return fmt.Errorf("%w: origin and destination must differ", ErrInvalidSearch)
	case r.DepartureDate.IsZero():
		return fmt.Errorf("%w: departure date is required", ErrInvalidSearch)
	case r.ReturnDate != nil && !DateOf(*r.ReturnDate).After(DateOf(r.DepartureDate)):
		return fmt.Errorf("%w: return date must be after departure date", ErrInvalidSearch)
	case r.Adults < 1 || r.Adults > MaxAdults:
		return fmt.Errorf("%w: adults must be between 1 and %d", ErrInvalidSearch, MaxAdults)
	case r.Children < 0 || r.Children > MaxChildren:
		return fmt.Errorf("%w: children must be between 0 and %d", ErrInvalidSearch, MaxChildren)
	case r.Infants < 0 || r.Infants > MaxInfants:
		return fmt.Errorf("%w: infants must be between 0 and %d", ErrInvalidSearch, MaxInfants)
	case r.TotalPassengers() > MaxSearchPax:
		return fmt.Errorf("%w: at most %d passengers per search", ErrInvalidSearch, MaxSearchPax)
	}
	return nil
}

// Price amounts are minor units of Currency.
type Price struct {
	Currency string
	Total    int64
	Base     int64
	Taxes    int64
}

// ZeroPrice is the placeholder for offers without readable pricing.
func ZeroPrice() Price {
	return Price{Currency: "USD"}
}

const (
	DefaultAirline        = "Unknown"
	DefaultFlightNumber   = "Unknown"
	DefaultCabinClass     = "ECONOMY"
	DefaultAvailableSeats = 9
)

// Offer is one priced flight option. Nil pointers mean the provider did not
// supply a readable value.
type Offer struct {
	ID             string
	Airline        string
	FlightNumber   string
	Origin         *string
	Destination    *string
	DepartureDate  *time.Time
	DepartureTime  *TimeOfDay
	ArrivalDate    *time.Time
	ArrivalTime    *TimeOfDay
	Duration       string
	CabinClass     string
	Price          Price
	AvailableSeats int
	Stops          int
}

type SearchStatus string

const (
	SearchStatusSuccess SearchStatus = "SUCCESS"
	SearchStatusError   SearchStatus = "ERROR"
)

type SearchResponse struct {
	Provider   string
	Status     SearchStatus
	Message    string
	Offers     []Offer
	Request    SearchRequest
	SearchedAt time.Time
}

// ErrorSearchResponse is what callers receive when the provider fails.
func ErrorSearchResponse(req SearchRequest, err error, now time.Time) *SearchResponse {
	return &SearchResponse{
		Provider:   req.Provider,
		Status:     SearchStatusError,
		Message:    err.Error(),
		Offers:     []Offer{},
		Request:    req,
		SearchedAt: now,
	}
}

// SearchRecord is the audit row written for every search attempt.
type SearchRecord struct {
	ID            int64
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Adults        int
	Children      int
	Infants       int
	Provider      string
	SearchedAt    time.Time
	RawResponse   string
}

func (r SearchRecord) TotalPassengers() int {
	return r.Adults + r.Children + r.Infants
}

type SearchHistory struct {
	Provider string
	Count    int64
	Message  string
	Recent   []SearchRecord
}
