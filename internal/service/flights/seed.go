package flights

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

//go:embed seed_flights.yaml
var seedFlights []byte

type seedFlight struct {
	FlightNumber   string        `yaml:"flight_no"`
	Airline        string        `yaml:"airline"`
	Origin         string        `yaml:"origin"`
	Destination    string        `yaml:"destination"`
	DepartsIn      time.Duration `yaml:"departs_in"`
	Duration       time.Duration `yaml:"duration"`
	TotalSeats     int           `yaml:"total_seats"`
	AvailableSeats int           `yaml:"available_seats"`
	BasePrice      float64       `yaml:"base_price"`
	DynamicPrice   float64       `yaml:"dynamic_price"`
}

// DefaultFleet returns the reference flights with schedules relative to now.
func DefaultFleet(now time.Time) ([]domain.Flight, error) {
	var seeds []seedFlight
	if err := yaml.Unmarshal(seedFlights, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seed flights: %w", err)
	}

	fleet := make([]domain.Flight, 0, len(seeds))
	for _, s := range seeds {
		dep := now.Add(s.DepartsIn).Truncate(time.Minute)
		f := domain.Flight{
			FlightNumber:   s.FlightNumber,
			Airline:        s.Airline,
			Origin:         s.Origin,
			Destination:    s.Destination,
			DepartureTime:  dep,
			ArrivalTime:    dep.Add(s.Duration),
			TotalSeats:     s.TotalSeats,
			AvailableSeats: s.AvailableSeats,
			BasePrice:      s.BasePrice,
			DynamicPrice:   s.DynamicPrice,
		}
		f.SyncStatus()
		fleet = append(fleet, f)
	}
	return fleet, nil
}

// Seed loads flights into an empty store and fabricates fare history for
// every stored flight that has none. A store that already holds flights is
// left as is.
func (s *FlightService) Seed(ctx context.Context, fleet []domain.Flight) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		for _, f := range fleet {
			created, err := s.repo.Create(ctx, f)
			if err != nil {
				return fmt.Errorf("seed flight %s: %w", f.FlightNumber, err)
			}
			existing = append(existing, *created)
		}
		s.log.Info("seeded flights", zap.Int("count", len(fleet)))
	}

	now := s.clock.Now()
	for _, f := range existing {
		history, err := s.repo.FareHistory(ctx, f.FlightNumber)
		if err != nil {
			return err
		}
		if len(history) > 0 {
			continue
		}
		if err := s.repo.AppendFareHistory(ctx, f.FlightNumber, s.sim.SeedHistory(f, now)...); err != nil {
			return fmt.Errorf("seed fare history %s: %w", f.FlightNumber, err)
		}
	}
	return nil
}
