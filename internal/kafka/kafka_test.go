package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func sampleBooking() domain.Booking {
	return domain.Booking{
		Reference:      "BK1A2B3C4D",
		FlightNumber:   "KE123",
		Origin:         "ICN",
		Destination:    "LAX",
		DepartureDate:  time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		DepartureTime:  domain.TimeOfDay{Hour: 14, Minute: 30},
		PassengerName:  "Kim Minsu",
		PassengerEmail: "test@example.com",
		Provider:       "AMADEUS",
		TotalAmount:    120050,
		Currency:       "USD",
		Status:         domain.BookingStatusConfirmed,
	}
}

func TestNewBookingEvent(t *testing.T) {
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	e := NewBookingEvent(EventBookingConfirmed, sampleBooking(), "ok", at)

	assert.Equal(t, "BK1A2B3C4D", e.Reference)
	assert.Equal(t, "CONFIRMED", e.Status)
	assert.Equal(t, "2025-05-01", e.DepartureDate)
	assert.Equal(t, "14:30", e.DepartureTime)
	assert.Equal(t, "1200.50", e.TotalAmount)
	assert.Equal(t, at, e.OccurredAt)
}

func TestProducer_Publish(t *testing.T) {
	w := &MockWriter{}
	p := &Producer{writer: w, log: zap.NewNop()}
	event := NewBookingEvent(EventBookingCancelled, sampleBooking(), "", time.Now())

	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 || msgs[0].Topic != "booking-events" || string(msgs[0].Key) != "BK1A2B3C4D" {
			return false
		}
		var decoded BookingEvent
		return json.Unmarshal(msgs[0].Value, &decoded) == nil && decoded.Type == EventBookingCancelled
	})).Return(nil)

	require.NoError(t, p.Publish(context.Background(), "booking-events", "BK1A2B3C4D", event))
	w.AssertExpectations(t)
}

func TestProducer_Publish_WriteFails(t *testing.T) {
	w := &MockWriter{}
	p := &Producer{writer: w, log: zap.NewNop()}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := p.Publish(context.Background(), "t", "k", map[string]string{"a": "b"})
	assert.ErrorContains(t, err, "broker down")
}

func TestProducer_CheckConnection_NoBrokers(t *testing.T) {
	p := &Producer{log: zap.NewNop()}
	assert.Error(t, p.CheckConnection(context.Background()))
}

func TestBookingEventHandler(t *testing.T) {
	var got []BookingEvent
	handler := BookingEventHandler(zap.NewNop(), func(_ context.Context, e BookingEvent) error {
		got = append(got, e)
		return nil
	})

	payload, err := json.Marshal(NewBookingEvent(EventBookingFailed, sampleBooking(), "Booking failed: x", time.Now()))
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), kafka.Message{Value: payload}))
	require.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("not json")}))

	require.Len(t, got, 1)
	assert.Equal(t, EventBookingFailed, got[0].Type)
	assert.Equal(t, "Booking failed: x", got[0].Message)
}
