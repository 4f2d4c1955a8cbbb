package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"go.uber.org/zap"
)

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers booking notifications. Delivery is a structured log line;
// swapping in an SMTP relay only touches Send.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.PassengerEmail == "" {
		s.log.Warn("booking event without recipient", zap.String("reference", event.Reference))
		return nil
	}
	msg := Render(event)
	s.log.Info("send email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("event", event.Type),
		zap.String("reference", event.Reference))
	return nil
}

func Render(event kafka.BookingEvent) Message {
	route := fmt.Sprintf("%s %s-%s on %s %s", event.FlightNumber, event.Origin, event.Destination, event.DepartureDate, event.DepartureTime)

	var subject, body string
	switch event.Type {
	case kafka.EventBookingConfirmed:
		subject = fmt.Sprintf("Booking %s confirmed", event.Reference)
		body = fmt.Sprintf("Dear %s,\n\nyour booking for %s is confirmed. Total: %s %s.", event.PassengerName, route, event.TotalAmount, event.Currency)
	case kafka.EventBookingCancelled:
		subject = fmt.Sprintf("Booking %s cancelled", event.Reference)
		body = fmt.Sprintf("Dear %s,\n\nyour booking for %s has been cancelled.", event.PassengerName, route)
	case kafka.EventBookingFailed:
		subject = "We could not complete your booking"
		body = fmt.Sprintf("Dear %s,\n\nyour booking for %s could not be completed: %s", event.PassengerName, route, event.Message)
	default:
		subject = fmt.Sprintf("Booking %s update", event.Reference)
		body = fmt.Sprintf("Dear %s,\n\nyour booking for %s is now %s.", event.PassengerName, route, event.Status)
	}
	return Message{To: event.PassengerEmail, Subject: subject, Body: body}
}
