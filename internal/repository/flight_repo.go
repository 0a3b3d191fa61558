package repository

import (
	"context"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

// FlightRepository owns flight inventory. Seat counts change only through
// ReserveSeat and ReleaseSeat, and every returned flight is a copy.
type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByNumber(ctx context.Context, number string) (*domain.Flight, error)
	Create(ctx context.Context, f domain.Flight) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error

	// ReserveSeat atomically takes one seat and returns the flight as it
	// stands right after the decrement.
	ReserveSeat(ctx context.Context, id int64) (*domain.Flight, error)
	// ReleaseSeat returns one seat, never exceeding the capacity. It reports
	// false when the flight no longer exists.
	ReleaseSeat(ctx context.Context, id int64) (bool, error)
	// Reprice replaces every flight's dynamic price with fn(flight).
	Reprice(ctx context.Context, fn func(domain.Flight) float64) ([]domain.Flight, error)

	FareHistory(ctx context.Context, number string) ([]domain.FareHistoryPoint, error)
	AppendFareHistory(ctx context.Context, number string, points ...domain.FareHistoryPoint) error
}
