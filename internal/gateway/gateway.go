// Package gateway talks to the booking provider that owns the actual seat
// inventory. Only a simulated implementation exists today.
package gateway

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// ProviderGateway confirms and cancels bookings with the external provider.
type ProviderGateway interface {
	// ConfirmBooking returns the provider's confirmation message.
	ConfirmBooking(ctx context.Context, b domain.Booking) (string, error)
	CancelBooking(ctx context.Context, b domain.Booking) error
}

type SimulatedConfig struct {
	ConfirmLatency time.Duration
	CancelLatency  time.Duration
	// CancelFailureRate is the probability (0..1) that a cancellation is refused.
	CancelFailureRate float64
}

func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		ConfirmLatency:    time.Second,
		CancelLatency:     500 * time.Millisecond,
		CancelFailureRate: 0.05,
	}
}

// SimulatedGateway models provider latency and an independent random
// cancellation failure.
type SimulatedGateway struct {
	cfg    SimulatedConfig
	random func() float64
	now    func() time.Time
}

type SimulatedOption func(*SimulatedGateway)

// WithRandom injects the [0,1) source deciding cancellation failures.
func WithRandom(random func() float64) SimulatedOption {
	return func(g *SimulatedGateway) {
		g.random = random
	}
}

func WithClock(now func() time.Time) SimulatedOption {
	return func(g *SimulatedGateway) {
		g.now = now
	}
}

func NewSimulatedGateway(cfg SimulatedConfig, opts ...SimulatedOption) *SimulatedGateway {
	if cfg.CancelFailureRate < 0 {
		cfg.CancelFailureRate = 0
	}
	if cfg.CancelFailureRate > 1 {
		cfg.CancelFailureRate = 1
	}
	g := &SimulatedGateway{
		cfg:    cfg,
		random: rand.Float64,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *SimulatedGateway) ConfirmBooking(ctx context.Context, b domain.Booking) (string, error) {
	if err := wait(ctx, g.cfg.ConfirmLatency); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalConfirmationFailed, err)
	}
	return fmt.Sprintf("Booking confirmed by %s API at %s. PNR: %s",
		b.Provider, g.now().Format(time.RFC3339), b.Reference), nil
}

func (g *SimulatedGateway) CancelBooking(ctx context.Context, b domain.Booking) error {
	if err := wait(ctx, g.cfg.CancelLatency); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalCancellationFailed, err)
	}
	if g.random() < g.cfg.CancelFailureRate {
		return fmt.Errorf("%w: %s API rejected cancellation of %s", domain.ErrExternalCancellationFailed, b.Provider, b.Reference)
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ProviderGateway = (*SimulatedGateway)(nil)
