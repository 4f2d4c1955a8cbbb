package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func event(eventType string) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:           eventType,
		Reference:      "BKAB12CD34",
		Status:         "CONFIRMED",
		FlightNumber:   "KE123",
		Origin:         "ICN",
		Destination:    "LAX",
		DepartureDate:  "2025-05-01",
		DepartureTime:  "14:30",
		PassengerName:  "Kim Minsu",
		PassengerEmail: "test@example.com",
		TotalAmount:    "1200.50",
		Currency:       "USD",
		Message:        "Booking failed: duplicate booking",
	}
}

func TestRender(t *testing.T) {
	msg := Render(event(kafka.EventBookingConfirmed))
	assert.Equal(t, "test@example.com", msg.To)
	assert.Equal(t, "Booking BKAB12CD34 confirmed", msg.Subject)
	assert.Contains(t, msg.Body, "KE123 ICN-LAX on 2025-05-01 14:30")
	assert.Contains(t, msg.Body, "1200.50 USD")

	assert.Equal(t, "Booking BKAB12CD34 cancelled", Render(event(kafka.EventBookingCancelled)).Subject)
	assert.Contains(t, Render(event(kafka.EventBookingFailed)).Body, "duplicate booking")
	assert.Equal(t, "Booking BKAB12CD34 update", Render(event("other")).Subject)
}

func TestSender_Send(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), event(kafka.EventBookingConfirmed)))
	entries := logs.FilterMessage("send email").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "test@example.com", entries[0].ContextMap()["to"])

	noRecipient := event(kafka.EventBookingConfirmed)
	noRecipient.PassengerEmail = ""
	require.NoError(t, s.Send(context.Background(), noRecipient))
	assert.Equal(t, 1, logs.FilterMessage("booking event without recipient").Len())
}
