package api

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	flightNumberPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)
	airportPattern      = regexp.MustCompile(`^[A-Z]{3}$`)
	phonePattern        = regexp.MustCompile(`^[0-9+\-()\s]+$`)
)

var registerOnce sync.Once

// RegisterValidators installs the request tags on gin's validator engine. It
// is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("flightno", matches(flightNumberPattern))
		_ = v.RegisterValidation("iata", matches(airportPattern))
		_ = v.RegisterValidation("phone", matches(phonePattern))
		_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseAmount(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseTimeOfDay(fl.Field().String())
			return err == nil
		})
		v.RegisterStructValidation(validateBookingRequest, CreateBookingRequest{})
		v.RegisterStructValidation(validateSearchRequest, SearchFlightsRequest{})
	})
}

// Validate runs the same checks gin applies on bind. The gRPC servers use it
// for requests that arrive outside gin.
func Validate(req any) error {
	RegisterValidators()
	return binding.Validator.ValidateStruct(req)
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func validateBookingRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(CreateBookingRequest)
	if req.ReturnDate == "" {
		return
	}
	if !dateAfter(req.ReturnDate, req.DepartureDate) {
		sl.ReportError(req.ReturnDate, "return_date", "ReturnDate", "afterdeparture", "")
	}
}

func validateSearchRequest(sl validator.StructLevel) {
	req := sl.Current().Interface().(SearchFlightsRequest)
	if req.ReturnDate != "" && !dateAfter(req.ReturnDate, req.DepartureDate) {
		sl.ReportError(req.ReturnDate, "return_date", "ReturnDate", "afterdeparture", "")
	}
	adults := req.Adults
	if adults == 0 {
		adults = domain.DefaultAdults
	}
	if adults+req.Children+req.Infants > domain.MaxSearchPax {
		sl.ReportError(req.Adults, "adults", "Adults", "maxpassengers", "")
	}
}

// dateAfter reports whether a is strictly after b. Unparseable dates are left
// to the isodate tag.
func dateAfter(a, b string) bool {
	ad, err := domain.ParseDate(a)
	if err != nil {
		return true
	}
	bd, err := domain.ParseDate(b)
	if err != nil {
		return true
	}
	return ad.After(bd)
}

// FieldErrors flattens validator output into field -> message. It returns nil
// for errors that did not come from the validator.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fieldMessage(fe)
		}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_with":
		return "is required for a round trip"
	case "flightno":
		return "must be 2 to 10 uppercase letters or digits"
	case "iata":
		return "must be a 3-letter uppercase airport code"
	case "nefield":
		return "must differ from origin"
	case "phone":
		return "may contain only digits, spaces and + - ( )"
	case "amount":
		return "must be greater than zero with at most two decimal places"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "hhmm":
		return "must be a time in HH:mm format"
	case "email":
		return "must be a valid email address"
	case "afterdeparture":
		return "must be after the departure date"
	case "maxpassengers":
		return "total passengers cannot exceed 9"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "uppercase":
		return "must be uppercase"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}
