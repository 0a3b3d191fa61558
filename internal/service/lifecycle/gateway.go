package lifecycle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

const DeclinedReason = "Payment declined by provider"

type PaymentOutcome struct {
	Approved bool
	Reason   string
}

// PaymentGateway charges a booking's total. A declined charge is an outcome,
// not an error; errors are reserved for failures to reach a decision.
type PaymentGateway interface {
	Charge(ctx context.Context, b domain.Booking) (PaymentOutcome, error)
}

// SimulatedGateway approves charges except for a random failureRate share.
type SimulatedGateway struct {
	failureRate float64
	latency     time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedGateway(failureRate float64, latency time.Duration, seed int64) *SimulatedGateway {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedGateway{
		failureRate: failureRate,
		latency:     latency,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, _ domain.Booking) (PaymentOutcome, error) {
	if g.latency > 0 {
		select {
		case <-ctx.Done():
			return PaymentOutcome{}, ctx.Err()
		case <-time.After(g.latency):
		}
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	g.mu.Unlock()

	if roll < g.failureRate {
		return PaymentOutcome{Approved: false, Reason: DeclinedReason}, nil
	}
	return PaymentOutcome{Approved: true}, nil
}
