// Package pricing perturbs quoted fares and models fare history from seat
// scarcity.
package pricing

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

type Config struct {
	// Volatility is the half-width of the uniform per-tick move (0.05 = ±5%).
	Volatility float64
	// DriftBound clamps the dynamic price to base*(1±DriftBound). Zero
	// disables the clamp.
	DriftBound float64

	HistoryPoints    int
	HistorySpacing   time.Duration
	HistoryJitter    int
	HistorySeatFloor int
	// HistoryThreshold is the relative price move that counts as material
	// and earns a new fare history point.
	HistoryThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Volatility:       0.05,
		DriftBound:       0.5,
		HistoryPoints:    11,
		HistorySpacing:   time.Hour,
		HistoryJitter:    10,
		HistorySeatFloor: 5,
		HistoryThreshold: 0.005,
	}
}

type Simulator struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator builds a simulator. A zero seed picks a time-based one.
func NewSimulator(cfg Config, seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

func (s *Simulator) Config() Config { return s.cfg }

// Tick returns the flight's next quoted price.
func (s *Simulator) Tick(f domain.Flight) float64 {
	s.mu.Lock()
	u := (s.rng.Float64()*2 - 1) * s.cfg.Volatility
	s.mu.Unlock()

	return s.Clamp(Round2(f.DynamicPrice*(1+u)), f.BasePrice)
}

func (s *Simulator) Clamp(price, base float64) float64 {
	if s.cfg.DriftBound <= 0 || base <= 0 {
		return price
	}
	lo := Round2(base * (1 - s.cfg.DriftBound))
	hi := Round2(base * (1 + s.cfg.DriftBound))
	return math.Min(math.Max(price, lo), hi)
}

// Changed reports whether moving from prev to next is material.
func (s *Simulator) Changed(prev, next float64) bool {
	if prev == 0 {
		return next != 0
	}
	return math.Abs(next-prev)/prev >= s.cfg.HistoryThreshold
}

// SeedHistory fabricates the flight's recent fare history: HistoryPoints
// samples spaced HistorySpacing apart, the newest at now, ascending.
func (s *Simulator) SeedHistory(f domain.Flight, now time.Time) []domain.FareHistoryPoint {
	n := s.cfg.HistoryPoints
	if n <= 0 {
		return nil
	}

	points := make([]domain.FareHistoryPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		seats := s.jitterSeats(f.AvailableSeats, f.TotalSeats)
		points = append(points, domain.FareHistoryPoint{
			Timestamp:      now.Add(-time.Duration(i) * s.cfg.HistorySpacing),
			Price:          ScarcityPrice(f.BasePrice, seats, f.TotalSeats),
			AvailableSeats: seats,
		})
	}
	return points
}

func (s *Simulator) jitterSeats(available, total int) int {
	s.mu.Lock()
	delta := 0
	if s.cfg.HistoryJitter > 0 {
		delta = s.rng.Intn(2*s.cfg.HistoryJitter+1) - s.cfg.HistoryJitter
	}
	s.mu.Unlock()

	seats := available + delta
	if seats < s.cfg.HistorySeatFloor {
		seats = s.cfg.HistorySeatFloor
	}
	if seats > total {
		seats = total
	}
	return seats
}

// ScarcityPrice is the modelled fare at a given seat availability: the
// fewer seats left, the higher the price, up to 1.5x base when none remain.
func ScarcityPrice(base float64, available, total int) float64 {
	if total <= 0 {
		return Round2(base)
	}
	variation := (100 - float64(available)/float64(total)*100) / 100
	return Round2(base * (1 + variation*0.5))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
