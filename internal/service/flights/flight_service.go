package flights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/internal/clock"
	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/pricing"
	"github.com/thotadurga2464/flight-booking/internal/repository"
	"github.com/thotadurga2464/flight-booking/internal/validation"
)

var (
	pricingTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flights_pricing_ticks_total",
		Help: "The total number of fleet-wide pricing ticks",
	})
	quotedPrices = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flights_quoted_price_dollars",
		Help:    "Dynamic prices produced by pricing ticks",
		Buckets: prometheus.ExponentialBuckets(50, 1.5, 10),
	})
)

const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortDeparture = "departure"
	SortSeats     = "seats"
	SortDuration  = "duration"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, q SearchQuery) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Pricing(ctx context.Context, flightNumber string) (*Quote, error)
	FareHistory(ctx context.Context, flightNumber string, limit int) ([]domain.FareHistoryPoint, error)
	Create(ctx context.Context, in CreateFlightInput) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

type SearchQuery struct {
	// Term matches origin, destination or flight number, case-insensitively.
	Term    string
	Airline string
	SortBy  string
	// Date keeps flights departing on that UTC day, formatted YYYY-MM-DD.
	Date string
}

const searchDateLayout = "2006-01-02"

type Quote struct {
	FlightNumber   string  `json:"flight_no"`
	CurrentPrice   float64 `json:"current_price"`
	BasePrice      float64 `json:"base_price"`
	AvailableSeats int     `json:"available_seats"`
	TotalSeats     int     `json:"total_seats"`
}

type CreateFlightInput struct {
	FlightNumber   string    `json:"flight_no" validate:"required,max=10"`
	Airline        string    `json:"airline" validate:"required"`
	Origin         string    `json:"origin" validate:"required"`
	Destination    string    `json:"destination" validate:"required"`
	DepartureTime  time.Time `json:"departure_time" validate:"required"`
	ArrivalTime    time.Time `json:"arrival_time" validate:"required,gtfield=DepartureTime"`
	TotalSeats     int       `json:"total_seats" validate:"gt=0"`
	AvailableSeats *int      `json:"available_seats" validate:"omitempty,gte=0"`
	BasePrice      float64   `json:"base_price" validate:"gt=0"`
	DynamicPrice   float64   `json:"dynamic_price" validate:"omitempty,gt=0"`
}

type FlightService struct {
	repo       repository.FlightRepository
	sim        *pricing.Simulator
	clock      clock.Clock
	log        *zap.Logger
	tickOnRead bool
}

type Option func(*FlightService)

// WithTickOnRead controls whether List and Search advance prices. When
// disabled, prices move only through RunTicker.
func WithTickOnRead(enabled bool) Option {
	return func(s *FlightService) { s.tickOnRead = enabled }
}

func WithClock(c clock.Clock) Option {
	return func(s *FlightService) { s.clock = c }
}

func NewFlightService(repo repository.FlightRepository, sim *pricing.Simulator, log *zap.Logger, opts ...Option) *FlightService {
	s := &FlightService{
		repo:       repo,
		sim:        sim,
		clock:      clock.Real(),
		log:        log.Named("flights"),
		tickOnRead: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every flight. Each call is a pricing tick unless ticking on
// read is disabled.
func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.tickOnRead {
		return s.Tick(ctx)
	}
	return s.repo.List(ctx)
}

func (s *FlightService) Search(ctx context.Context, q SearchQuery) ([]domain.Flight, error) {
	less, err := sortFunc(q.SortBy)
	if err != nil {
		return nil, err
	}

	var day time.Time
	if date := strings.TrimSpace(q.Date); date != "" {
		day, err = time.Parse(searchDateLayout, date)
		if err != nil {
			return nil, domain.NewValidationError(map[string]string{"date": "Must be formatted as YYYY-MM-DD"})
		}
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	airline := strings.TrimSpace(q.Airline)
	if strings.EqualFold(airline, "all") {
		airline = ""
	}

	out := make([]domain.Flight, 0, len(all))
	for _, f := range all {
		if term != "" &&
			!strings.Contains(strings.ToLower(f.Origin), term) &&
			!strings.Contains(strings.ToLower(f.Destination), term) &&
			!strings.Contains(strings.ToLower(f.FlightNumber), term) {
			continue
		}
		if airline != "" && !strings.EqualFold(f.Airline, airline) {
			continue
		}
		if !day.IsZero() && !departsOn(f, day) {
			continue
		}
		out = append(out, f)
	}

	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out, nil
}

func departsOn(f domain.Flight, day time.Time) bool {
	dep := f.DepartureTime.UTC()
	return !dep.Before(day) && dep.Before(day.AddDate(0, 0, 1))
}

func sortFunc(by string) (func(a, b domain.Flight) bool, error) {
	switch by {
	case "":
		return nil, nil
	case SortPriceAsc:
		return func(a, b domain.Flight) bool { return a.DynamicPrice < b.DynamicPrice }, nil
	case SortPriceDesc:
		return func(a, b domain.Flight) bool { return a.DynamicPrice > b.DynamicPrice }, nil
	case SortDeparture:
		return func(a, b domain.Flight) bool { return a.DepartureTime.Before(b.DepartureTime) }, nil
	case SortSeats:
		return func(a, b domain.Flight) bool { return a.AvailableSeats > b.AvailableSeats }, nil
	case SortDuration:
		return func(a, b domain.Flight) bool { return a.Duration() < b.Duration() }, nil
	}
	return nil, domain.NewValidationError(map[string]string{
		"sort": fmt.Sprintf("Must be one of: %s %s %s %s %s", SortPriceAsc, SortPriceDesc, SortDeparture, SortSeats, SortDuration),
	})
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Pricing returns the current quote without moving the price.
func (s *FlightService) Pricing(ctx context.Context, flightNumber string) (*Quote, error) {
	f, err := s.repo.GetByNumber(ctx, flightNumber)
	if err != nil {
		return nil, err
	}
	return &Quote{
		FlightNumber:   f.FlightNumber,
		CurrentPrice:   f.DynamicPrice,
		BasePrice:      f.BasePrice,
		AvailableSeats: f.AvailableSeats,
		TotalSeats:     f.TotalSeats,
	}, nil
}

// FareHistory returns the most recent limit points, oldest first; limit <= 0
// returns everything kept. It is empty, not an error, for an unknown flight
// number.
func (s *FlightService) FareHistory(ctx context.Context, flightNumber string, limit int) ([]domain.FareHistoryPoint, error) {
	points, err := s.repo.FareHistory(ctx, flightNumber)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func (s *FlightService) Create(ctx context.Context, in CreateFlightInput) (*domain.Flight, error) {
	in.FlightNumber = strings.ToUpper(strings.TrimSpace(in.FlightNumber))
	in.Airline = strings.TrimSpace(in.Airline)
	in.Origin = strings.TrimSpace(in.Origin)
	in.Destination = strings.TrimSpace(in.Destination)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	available := in.TotalSeats
	if in.AvailableSeats != nil {
		available = *in.AvailableSeats
	}
	if available > in.TotalSeats {
		return nil, domain.NewValidationError(map[string]string{"available_seats": "Must not exceed total_seats"})
	}
	dynamic := in.DynamicPrice
	if dynamic == 0 {
		dynamic = in.BasePrice
	}

	f, err := s.repo.Create(ctx, domain.Flight{
		FlightNumber:   in.FlightNumber,
		Airline:        in.Airline,
		Origin:         in.Origin,
		Destination:    in.Destination,
		DepartureTime:  in.DepartureTime,
		ArrivalTime:    in.ArrivalTime,
		TotalSeats:     in.TotalSeats,
		AvailableSeats: available,
		BasePrice:      pricing.Round2(in.BasePrice),
		DynamicPrice:   pricing.Round2(dynamic),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendFareHistory(ctx, f.FlightNumber, s.sim.SeedHistory(*f, s.clock.Now())...); err != nil {
		s.log.Warn("seed fare history failed", zap.String("flight_no", f.FlightNumber), zap.Error(err))
	}
	s.log.Info("flight created", zap.Int64("flight_id", f.ID), zap.String("flight_no", f.FlightNumber))
	return f, nil
}

func (s *FlightService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("flight deleted", zap.Int64("flight_id", id))
	return nil
}

// Tick moves every flight's price once and records material moves in the
// fare history.
func (s *FlightService) Tick(ctx context.Context) ([]domain.Flight, error) {
	prev := make(map[int64]float64)
	flights, err := s.repo.Reprice(ctx, func(f domain.Flight) float64 {
		prev[f.ID] = f.DynamicPrice
		return s.sim.Tick(f)
	})
	if err != nil {
		return nil, err
	}
	pricingTicks.Inc()

	now := s.clock.Now()
	for _, f := range flights {
		quotedPrices.Observe(f.DynamicPrice)
		if !s.sim.Changed(prev[f.ID], f.DynamicPrice) {
			continue
		}
		point := domain.FareHistoryPoint{Timestamp: now, Price: f.DynamicPrice, AvailableSeats: f.AvailableSeats}
		if err := s.repo.AppendFareHistory(ctx, f.FlightNumber, point); err != nil {
			s.log.Warn("append fare history failed", zap.String("flight_no", f.FlightNumber), zap.Error(err))
		}
	}
	return flights, nil
}

// RunTicker ticks prices every interval until ctx is done.
func (s *FlightService) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error("pricing tick failed", zap.Error(err))
			}
		}
	}
}

var _ FlightUseCase = (*FlightService)(nil)
