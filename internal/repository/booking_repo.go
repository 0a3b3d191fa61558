package repository

import (
	"context"
	"sort"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

// BookingRepository stores bookings keyed by PNR. Update and Delete are
// atomic per PNR: the callback sees the current record and may veto the
// change by returning an error, which is passed through unchanged.
type BookingRepository interface {
	// Create fails with domain.ErrConflict if the PNR is already stored.
	Create(ctx context.Context, b domain.Booking) error
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Update(ctx context.Context, pnr string, fn func(*domain.Booking) error) (*domain.Booking, error)
	// Delete removes the booking if check (when non-nil) accepts it and
	// returns the removed record.
	Delete(ctx context.Context, pnr string, check func(domain.Booking) error) (*domain.Booking, error)
}

func sortBookings(bookings []domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].BookedAt.Equal(bookings[j].BookedAt) {
			return bookings[i].BookedAt.Before(bookings[j].BookedAt)
		}
		return bookings[i].PNR < bookings[j].PNR
	})
}
