package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventBookingConfirmed = "booking_confirmed"
	EventBookingFailed    = "booking_failed"
	EventBookingCancelled = "booking_cancelled"
)

// BookingEvent is the payload published on every booking lifecycle change.
type BookingEvent struct {
	Type           string    `json:"type"`
	Reference      string    `json:"booking_reference"`
	Status         string    `json:"status"`
	FlightNumber   string    `json:"flight_number"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureDate  string    `json:"departure_date"`
	DepartureTime  string    `json:"departure_time"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	Provider       string    `json:"api_provider"`
	TotalAmount    string    `json:"total_amount"`
	Currency       string    `json:"currency"`
	Message        string    `json:"message,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b domain.Booking, message string, at time.Time) BookingEvent {
	return BookingEvent{
		Type:           eventType,
		Reference:      b.Reference,
		Status:         string(b.Status),
		FlightNumber:   b.FlightNumber,
		Origin:         b.Origin,
		Destination:    b.Destination,
		DepartureDate:  b.DepartureDate.Format(domain.DateLayout),
		DepartureTime:  b.DepartureTime.String(),
		PassengerName:  b.PassengerName,
		PassengerEmail: b.PassengerEmail,
		Provider:       b.Provider,
		TotalAmount:    domain.FormatAmount(b.TotalAmount),
		Currency:       b.Currency,
		Message:        message,
		OccurredAt:     at,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	brokers []string
	writer  messageWriter
	log     *zap.Logger
}

func NewProducer(brokers []string, log *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Producer{brokers: brokers, writer: writer, log: log}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.log.Debug("published kafka message", zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}
	p.log.Info("connected to kafka", zap.Int("partitions", len(partitions)))
	return nil
}
