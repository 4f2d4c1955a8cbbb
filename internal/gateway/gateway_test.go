package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booking() domain.Booking {
	return domain.Booking{Reference: "BK0000ABCD", Provider: "AMADEUS"}
}

func TestSimulatedGateway_ConfirmBooking(t *testing.T) {
	at := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	g := NewSimulatedGateway(SimulatedConfig{}, WithClock(func() time.Time { return at }))

	msg, err := g.ConfirmBooking(context.Background(), booking())
	require.NoError(t, err)
	assert.Equal(t, "Booking confirmed by AMADEUS API at 2025-05-01T09:30:00Z. PNR: BK0000ABCD", msg)
}

func TestSimulatedGateway_CancelBooking(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		draw    float64
		wantErr bool
	}{
		{"below failure rate", 0.05, 0.01, true},
		{"above failure rate", 0.05, 0.5, false},
		{"never fails", 0, 0, false},
		{"always fails", 1, 0.999, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewSimulatedGateway(SimulatedConfig{CancelFailureRate: tt.rate}, WithRandom(func() float64 { return tt.draw }))
			err := g.CancelBooking(context.Background(), booking())
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrExternalCancellationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSimulatedGateway_HonoursContext(t *testing.T) {
	g := NewSimulatedGateway(SimulatedConfig{ConfirmLatency: time.Minute, CancelLatency: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.ConfirmBooking(ctx, booking())
	assert.ErrorIs(t, err, domain.ErrExternalConfirmationFailed)

	err = g.CancelBooking(ctx, booking())
	assert.ErrorIs(t, err, domain.ErrExternalCancellationFailed)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewSimulatedGateway_ClampsRate(t *testing.T) {
	assert.Equal(t, 1.0, NewSimulatedGateway(SimulatedConfig{CancelFailureRate: 3}).cfg.CancelFailureRate)
	assert.Equal(t, 0.0, NewSimulatedGateway(SimulatedConfig{CancelFailureRate: -1}).cfg.CancelFailureRate)
	assert.Equal(t, 0.05, DefaultSimulatedConfig().CancelFailureRate)
}
