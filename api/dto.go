package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
)

const timestampLayout = time.RFC3339

type CreateBookingRequest struct {
	FlightNumber   string      `json:"flight_number" binding:"required,flightno"`
	Origin         string      `json:"origin" binding:"required,iata"`
	Destination    string      `json:"destination" binding:"required,iata,nefield=Origin"`
	DepartureDate  string      `json:"departure_date" binding:"required,isodate"`
	DepartureTime  string      `json:"departure_time" binding:"required,hhmm"`
	ReturnDate     string      `json:"return_date,omitempty" binding:"omitempty,isodate"`
	ReturnTime     string      `json:"return_time,omitempty" binding:"required_with=ReturnDate,omitempty,hhmm"`
	PassengerName  string      `json:"passenger_name" binding:"required,min=2,max=100"`
	PassengerEmail string      `json:"passenger_email" binding:"required,email"`
	PassengerPhone string      `json:"passenger_phone" binding:"required,phone"`
	Provider       string      `json:"api_provider" binding:"required,max=50"`
	TotalAmount    json.Number `json:"total_amount" binding:"required,amount"`
	Currency       string      `json:"currency" binding:"omitempty,len=3,uppercase,alpha"`
}

// ToInput converts an already validated request.
func (r CreateBookingRequest) ToInput() (booking.CreateBookingInput, error) {
	in := booking.CreateBookingInput{
		FlightNumber:   r.FlightNumber,
		Origin:         r.Origin,
		Destination:    r.Destination,
		PassengerName:  strings.TrimSpace(r.PassengerName),
		PassengerEmail: r.PassengerEmail,
		PassengerPhone: r.PassengerPhone,
		Provider:       strings.ToUpper(r.Provider),
		Currency:       r.Currency,
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}

	var err error
	if in.DepartureDate, err = domain.ParseDate(r.DepartureDate); err != nil {
		return in, err
	}
	if in.DepartureTime, err = domain.ParseTimeOfDay(r.DepartureTime); err != nil {
		return in, err
	}
	if r.ReturnDate != "" {
		d, err := domain.ParseDate(r.ReturnDate)
		if err != nil {
			return in, err
		}
		in.ReturnDate = &d
	}
	if r.ReturnTime != "" {
		t, err := domain.ParseTimeOfDay(r.ReturnTime)
		if err != nil {
			return in, err
		}
		in.ReturnTime = &t
	}
	if in.TotalAmount, err = domain.ParseAmount(r.TotalAmount.String()); err != nil {
		return in, err
	}
	return in, nil
}

type SearchFlightsRequest struct {
	Origin        string `json:"origin" binding:"required,iata"`
	Destination   string `json:"destination" binding:"required,iata,nefield=Origin"`
	DepartureDate string `json:"departure_date" binding:"required,isodate"`
	ReturnDate    string `json:"return_date,omitempty" binding:"omitempty,isodate"`
	Adults        int    `json:"adults" binding:"omitempty,min=1,max=9"`
	Children      int    `json:"children" binding:"min=0,max=8"`
	Infants       int    `json:"infants" binding:"min=0,max=2"`
	Provider      string `json:"api_provider" binding:"required"`
}

func (r SearchFlightsRequest) ToDomain() (domain.SearchRequest, error) {
	dep, err := domain.ParseDate(r.DepartureDate)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	req := domain.NewSearchRequest(r.Origin, r.Destination, dep, strings.ToUpper(r.Provider))
	if r.Adults > 0 {
		req.Adults = r.Adults
	}
	req.Children = r.Children
	req.Infants = r.Infants
	if r.ReturnDate != "" {
		ret, err := domain.ParseDate(r.ReturnDate)
		if err != nil {
			return domain.SearchRequest{}, err
		}
		req.ReturnDate = &ret
	}
	return req, nil
}

type BookingResponse struct {
	ID               int64       `json:"id"`
	Reference        string      `json:"booking_reference"`
	FlightNumber     string      `json:"flight_number"`
	Origin           string      `json:"origin"`
	Destination      string      `json:"destination"`
	DepartureDate    string      `json:"departure_date"`
	DepartureTime    string      `json:"departure_time"`
	ReturnDate       string      `json:"return_date,omitempty"`
	ReturnTime       string      `json:"return_time,omitempty"`
	PassengerName    string      `json:"passenger_name"`
	PassengerEmail   string      `json:"passenger_email"`
	PassengerPhone   string      `json:"passenger_phone"`
	Provider         string      `json:"api_provider"`
	TotalAmount      json.Number `json:"total_amount"`
	Currency         string      `json:"currency"`
	Status           string      `json:"status"`
	BookingTimestamp string      `json:"booking_timestamp"`
	BookingResponse  string      `json:"booking_response,omitempty"`

	RoundTrip      bool `json:"round_trip"`
	Confirmed      bool `json:"confirmed"`
	Cancelled      bool `json:"cancelled"`
	Pending        bool `json:"pending"`
	Failed         bool `json:"failed"`
	CanBeCancelled bool `json:"can_be_cancelled"`
	// International is omitted when either airport is not in the lookup table.
	International *bool `json:"international_flight,omitempty"`
	PastDeparture bool  `json:"past_departure"`
}

// NewBookingResponse projects b with its derived flags. now must be in the
// service time zone.
func NewBookingResponse(b domain.Booking, now time.Time) BookingResponse {
	r := BookingResponse{
		ID:               b.ID,
		Reference:        b.Reference,
		FlightNumber:     b.FlightNumber,
		Origin:           b.Origin,
		Destination:      b.Destination,
		DepartureDate:    b.DepartureDate.Format(domain.DateLayout),
		DepartureTime:    b.DepartureTime.String(),
		PassengerName:    b.PassengerName,
		PassengerEmail:   b.PassengerEmail,
		PassengerPhone:   b.PassengerPhone,
		Provider:         b.Provider,
		TotalAmount:      json.Number(domain.FormatAmount(b.TotalAmount)),
		Currency:         b.Currency,
		Status:           string(b.Status),
		BookingTimestamp: b.BookingTimestamp.Format(timestampLayout),
		BookingResponse:  b.BookingResponse,
		RoundTrip:        domain.IsRoundTrip(b),
		Confirmed:        domain.IsConfirmed(b),
		Cancelled:        domain.IsCancelled(b),
		Pending:          domain.IsPending(b),
		Failed:           domain.IsFailed(b),
		CanBeCancelled:   domain.CanBeCancelled(b),
		International:    international(b),
		PastDeparture:    domain.IsPastDeparture(b, now),
	}
	if b.ReturnDate != nil {
		r.ReturnDate = b.ReturnDate.Format(domain.DateLayout)
	}
	if b.ReturnTime != nil {
		r.ReturnTime = b.ReturnTime.String()
	}
	return r
}

// BookingSummary is the compact row used by list endpoints with ?view=summary.
type BookingSummary struct {
	ID               int64       `json:"id"`
	Reference        string      `json:"booking_reference"`
	FlightNumber     string      `json:"flight_number"`
	Origin           string      `json:"origin"`
	Destination      string      `json:"destination"`
	DepartureDate    string      `json:"departure_date"`
	DepartureTime    string      `json:"departure_time"`
	ReturnDate       string      `json:"return_date,omitempty"`
	PassengerName    string      `json:"passenger_name"`
	Status           string      `json:"status"`
	BookingTimestamp string      `json:"booking_timestamp"`
	TotalAmount      json.Number `json:"total_amount"`
	Currency         string      `json:"currency"`
	RoundTrip        bool        `json:"round_trip"`
	International    *bool       `json:"international_flight,omitempty"`
	CanBeCancelled   bool        `json:"can_be_cancelled"`
}

func NewBookingSummary(b domain.Booking) BookingSummary {
	s := BookingSummary{
		ID:               b.ID,
		Reference:        b.Reference,
		FlightNumber:     b.FlightNumber,
		Origin:           b.Origin,
		Destination:      b.Destination,
		DepartureDate:    b.DepartureDate.Format(domain.DateLayout),
		DepartureTime:    b.DepartureTime.String(),
		PassengerName:    b.PassengerName,
		Status:           string(b.Status),
		BookingTimestamp: b.BookingTimestamp.Format(timestampLayout),
		TotalAmount:      json.Number(domain.FormatAmount(b.TotalAmount)),
		Currency:         b.Currency,
		RoundTrip:        domain.IsRoundTrip(b),
		International:    international(b),
		CanBeCancelled:   domain.CanBeCancelled(b),
	}
	if b.ReturnDate != nil {
		s.ReturnDate = b.ReturnDate.Format(domain.DateLayout)
	}
	return s
}

func international(b domain.Booking) *bool {
	intl, known := domain.IsInternationalFlight(b)
	if !known {
		return nil
	}
	return &intl
}

// BookingList renders bookings either in full or as summaries.
func BookingList(items []domain.Booking, summary bool, now time.Time) any {
	if summary {
		out := make([]BookingSummary, 0, len(items))
		for _, b := range items {
			out = append(out, NewBookingSummary(b))
		}
		return out
	}
	out := make([]BookingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, NewBookingResponse(b, now))
	}
	return out
}

type pageResponse struct {
	Content       any   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

type statisticsResponse struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

func newStatisticsResponse(s domain.BookingStatistics) statisticsResponse {
	out := statisticsResponse{TotalBookings: s.Total, ByStatus: make(map[string]int64, len(s.ByStatus))}
	for status, n := range s.ByStatus {
		out.ByStatus[string(status)] = n
	}
	return out
}

type PriceResponse struct {
	Currency string      `json:"currency"`
	Total    json.Number `json:"total"`
	Base     json.Number `json:"base"`
	Taxes    json.Number `json:"taxes"`
}

type OfferResponse struct {
	ID             string        `json:"id"`
	Airline        string        `json:"airline"`
	FlightNumber   string        `json:"flight_number"`
	Origin         *string       `json:"origin"`
	Destination    *string       `json:"destination"`
	DepartureDate  string        `json:"departure_date,omitempty"`
	DepartureTime  string        `json:"departure_time,omitempty"`
	ArrivalDate    string        `json:"arrival_date,omitempty"`
	ArrivalTime    string        `json:"arrival_time,omitempty"`
	Duration       string        `json:"duration,omitempty"`
	CabinClass     string        `json:"cabin_class"`
	Price          PriceResponse `json:"price"`
	AvailableSeats int           `json:"available_seats"`
	Stops          int           `json:"stops"`
}

func NewOfferResponse(o domain.Offer) OfferResponse {
	r := OfferResponse{
		ID:           o.ID,
		Airline:      o.Airline,
		FlightNumber: o.FlightNumber,
		Origin:       o.Origin,
		Destination:  o.Destination,
		Duration:     o.Duration,
		CabinClass:   o.CabinClass,
		Price: PriceResponse{
			Currency: o.Price.Currency,
			Total:    json.Number(domain.FormatAmount(o.Price.Total)),
			Base:     json.Number(domain.FormatAmount(o.Price.Base)),
			Taxes:    json.Number(domain.FormatAmount(o.Price.Taxes)),
		},
		AvailableSeats: o.AvailableSeats,
		Stops:          o.Stops,
	}
	if o.DepartureDate != nil {
		r.DepartureDate = o.DepartureDate.Format(domain.DateLayout)
	}
	if o.DepartureTime != nil {
		r.DepartureTime = o.DepartureTime.String()
	}
	if o.ArrivalDate != nil {
		r.ArrivalDate = o.ArrivalDate.Format(domain.DateLayout)
	}
	if o.ArrivalTime != nil {
		r.ArrivalTime = o.ArrivalTime.String()
	}
	return r
}

type SearchResponse struct {
	Provider   string          `json:"api_provider"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Offers     []OfferResponse `json:"offers"`
	Origin     string          `json:"origin"`
	Dest       string          `json:"destination"`
	Departure  string          `json:"departure_date"`
	Return     string          `json:"return_date,omitempty"`
	Passengers int             `json:"total_passengers"`
	SearchedAt string          `json:"search_timestamp"`
}

func NewSearchResponse(resp domain.SearchResponse) SearchResponse {
	r := SearchResponse{
		Provider:   resp.Provider,
		Status:     string(resp.Status),
		Message:    resp.Message,
		Offers:     make([]OfferResponse, 0, len(resp.Offers)),
		Origin:     resp.Request.Origin,
		Dest:       resp.Request.Destination,
		Departure:  resp.Request.DepartureDate.Format(domain.DateLayout),
		Passengers: resp.Request.TotalPassengers(),
		SearchedAt: resp.SearchedAt.Format(timestampLayout),
	}
	if resp.Request.ReturnDate != nil {
		r.Return = resp.Request.ReturnDate.Format(domain.DateLayout)
	}
	for _, o := range resp.Offers {
		r.Offers = append(r.Offers, NewOfferResponse(o))
	}
	return r
}

type SearchRecordSummary struct {
	ID              int64  `json:"id"`
	Route           string `json:"route"`
	DepartureDate   string `json:"departure_date"`
	ReturnDate      string `json:"return_date,omitempty"`
	TotalPassengers int    `json:"total_passengers"`
	RoundTrip       bool   `json:"round_trip"`
	International   *bool  `json:"international_flight,omitempty"`
	SearchedAt      string `json:"search_timestamp"`
}

type SearchHistoryResponse struct {
	Provider string                `json:"api_provider,omitempty"`
	Count    int64                 `json:"search_count"`
	Message  string                `json:"message"`
	Recent   []SearchRecordSummary `json:"recent_searches"`
}

func NewSearchHistoryResponse(h domain.SearchHistory) SearchHistoryResponse {
	out := SearchHistoryResponse{
		Provider: h.Provider,
		Count:    h.Count,
		Message:  h.Message,
		Recent:   make([]SearchRecordSummary, 0, len(h.Recent)),
	}
	for _, rec := range h.Recent {
		s := SearchRecordSummary{
			ID:              rec.ID,
			Route:           fmt.Sprintf("%s → %s", rec.Origin, rec.Destination),
			DepartureDate:   rec.DepartureDate.Format(domain.DateLayout),
			TotalPassengers: rec.TotalPassengers(),
			RoundTrip:       rec.ReturnDate != nil,
			SearchedAt:      rec.SearchedAt.Format(timestampLayout),
		}
		if rec.ReturnDate != nil {
			s.ReturnDate = rec.ReturnDate.Format(domain.DateLayout)
		}
		if intl, known := domain.InternationalRoute(rec.Origin, rec.Destination); known {
			s.International = &intl
		}
		out.Recent = append(out.Recent, s)
	}
	return out
}
