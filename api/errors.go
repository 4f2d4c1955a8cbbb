package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "An unexpected error occurred. Please try again later."

type errorResponse struct {
	Timestamp        string            `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	FieldErrors      map[string]string `json:"field_errors,omitempty"`
	BookingReference string            `json:"booking_reference,omitempty"`
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidBooking),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidSearch),
		errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBookingNotFound):
		return http.StatusNotFound
	case domain.IsBusinessError(err):
		return http.StatusConflict
	case domain.IsUpstreamError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusFor(err)
	body := newErrorResponse(c, status, err.Error())

	var failed *booking.FailedBookingError
	if errors.As(err, &failed) {
		body.BookingReference = failed.Reference
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestID(c)),
			zap.Error(err))
		body.Message = internalErrorMessage
	}
	c.AbortWithStatusJSON(status, body)
}

func writeValidationError(c *gin.Context, err error) {
	body := newErrorResponse(c, http.StatusBadRequest, "Request validation failed")
	body.FieldErrors = FieldErrors(err)
	if body.FieldErrors == nil {
		body.Message = "Malformed request body: " + err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func writeBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, newErrorResponse(c, http.StatusBadRequest, message))
}

func writeNotFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, newErrorResponse(c, http.StatusNotFound, message))
}

func newErrorResponse(c *gin.Context, status int, message string) errorResponse {
	return errorResponse{
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      c.Request.URL.Path,
	}
}
