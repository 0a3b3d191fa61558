package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

type MemoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[string]domain.Booking)}
}

func (r *MemoryBookingRepository) Create(_ context.Context, b domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.PNR]; ok {
		return fmt.Errorf("booking %s: %w", b.PNR, domain.ErrConflict)
	}
	r.bookings[b.PNR] = b.Clone()
	return nil
}

func (r *MemoryBookingRepository) GetByPNR(_ context.Context, pnr string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[pnr]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	out := b.Clone()
	return &out, nil
}

func (r *MemoryBookingRepository) List(_ context.Context) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, b.Clone())
	}
	sortBookings(out)
	return out, nil
}

func (r *MemoryBookingRepository) Update(_ context.Context, pnr string, fn func(*domain.Booking) error) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[pnr]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	next := b.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	next.PNR = pnr
	r.bookings[pnr] = next.Clone()
	return &next, nil
}

func (r *MemoryBookingRepository) Delete(_ context.Context, pnr string, check func(domain.Booking) error) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[pnr]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if check != nil {
		if err := check(b.Clone()); err != nil {
			return nil, err
		}
	}
	delete(r.bookings, pnr)
	return &b, nil
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)
