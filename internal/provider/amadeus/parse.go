package amadeus

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// convertOffer maps one entry of "data". Every field has its own fallback;
// only entries that are not objects, or carry a non-string id, are dropped.
func convertOffer(item any) (domain.Offer, bool) {
	offer, ok := item.(map[string]any)
	if !ok {
		return domain.Offer{}, false
	}
	var id string
	if raw, present := offer["id"]; present && raw != nil {
		if id, ok = raw.(string); !ok {
			return domain.Offer{}, false
		}
	}

	segments, _ := lookup(offer, "itineraries", 0, "segments").([]any)
	first := segmentAt(segments, 0)
	last := segmentAt(segments, len(segments)-1)

	departAt, _ := lookup(first, "departure", "at").(string)
	arriveAt, _ := lookup(last, "arrival", "at").(string)

	o := domain.Offer{
		ID:             id,
		Airline:        stringOr(lookup(first, "carrierCode"), domain.DefaultAirline),
		FlightNumber:   flightNumber(first),
		Origin:         optionalString(lookup(first, "departure", "iataCode")),
		Destination:    optionalString(lookup(last, "arrival", "iataCode")),
		DepartureDate:  datePart(departAt),
		DepartureTime:  timePart(departAt),
		ArrivalDate:    datePart(arriveAt),
		ArrivalTime:    timePart(arriveAt),
		Duration:       stringOr(lookup(offer, "itineraries", 0, "duration"), ""),
		CabinClass:     stringOr(lookup(offer, "travelerPricings", 0, "fareDetailsBySegment", 0, "cabin"), domain.DefaultCabinClass),
		Price:          extractPrice(offer),
		AvailableSeats: intOr(offer["numberOfBookableSeats"], domain.DefaultAvailableSeats),
	}
	if len(segments) > 0 {
		o.Stops = len(segments) - 1
	}
	return o, true
}

func flightNumber(segment any) string {
	number, ok := lookup(segment, "number").(string)
	if !ok || number == "" {
		return domain.DefaultFlightNumber
	}
	if carrier, ok := lookup(segment, "carrierCode").(string); ok {
		return carrier + number
	}
	return number
}

// extractPrice reads the offer-level price, then the first traveler's. A
// missing base is approximated from the total.
func extractPrice(offer map[string]any) domain.Price {
	for _, src := range []any{offer["price"], lookup(offer, "travelerPricings", 0, "price")} {
		total, ok := decimal(lookup(src, "total"))
		if !ok {
			continue
		}
		p := domain.Price{Currency: stringOr(lookup(src, "currency"), "USD"), Total: total}
		if base, ok := decimal(lookup(src, "base")); ok && base <= total {
			p.Base, p.Taxes = base, total-base
		} else {
			p.Base, p.Taxes = domain.SplitTotal(total)
		}
		return p
	}
	return domain.ZeroPrice()
}

// lookup walks maps by string key and lists by int index. It returns nil on
// any mismatch.
func lookup(v any, path ...any) any {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[key]
		case int:
			list, ok := v.([]any)
			if !ok || key < 0 || key >= len(list) {
				return nil
			}
			v = list[key]
		default:
			return nil
		}
	}
	return v
}

func segmentAt(segments []any, i int) any {
	if i < 0 || i >= len(segments) {
		return nil
	}
	return segments[i]
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func optionalString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// decimal accepts the string amounts Amadeus sends as well as bare numbers.
func decimal(v any) (int64, bool) {
	var s string
	switch n := v.(type) {
	case string:
		s = n
	case json.Number:
		s = n.String()
	default:
		return 0, false
	}
	minor, err := domain.ParseDecimal(s)
	if err != nil {
		return 0, false
	}
	return minor, true
}

// datePart reads the date of an ISO local date-time like 2025-05-01T14:30:00.
func datePart(at string) *time.Time {
	if len(at) < 10 {
		return nil
	}
	d, err := domain.ParseDate(at[:10])
	if err != nil {
		return nil
	}
	return &d
}

func timePart(at string) *domain.TimeOfDay {
	if len(at) < 16 {
		return nil
	}
	t, err := domain.ParseTimeOfDay(at[11:16])
	if err != nil {
		return nil
	}
	return &t
}
