package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

type MemoryFlightRepository struct {
	mu           sync.RWMutex
	flights      map[int64]*domain.Flight
	nextID       int64
	history      map[string][]domain.FareHistoryPoint
	historyLimit int
}

// NewMemoryFlightRepository keeps at most historyLimit fare points per
// flight; zero means unlimited.
func NewMemoryFlightRepository(historyLimit int) *MemoryFlightRepository {
	return &MemoryFlightRepository{
		flights:      make(map[int64]*domain.Flight),
		history:      make(map[string][]domain.FareHistoryPoint),
		historyLimit: historyLimit,
	}
}

func (r *MemoryFlightRepository) List(_ context.Context) ([]domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked(), nil
}

func (r *MemoryFlightRepository) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	out := *f
	return &out, nil
}

func (r *MemoryFlightRepository) GetByNumber(_ context.Context, number string) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f := r.byNumberLocked(number); f != nil {
		out := *f
		return &out, nil
	}
	return nil, domain.ErrFlightNotFound
}

func (r *MemoryFlightRepository) Create(_ context.Context, f domain.Flight) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byNumberLocked(f.FlightNumber) != nil {
		return nil, fmt.Errorf("flight %s: %w", f.FlightNumber, domain.ErrConflict)
	}
	if f.AvailableSeats < 0 || f.AvailableSeats > f.TotalSeats {
		return nil, domain.NewValidationError(map[string]string{"available_seats": "Must be between 0 and total_seats"})
	}

	r.nextID++
	f.ID = r.nextID
	f.SyncStatus()
	stored := f
	r.flights[f.ID] = &stored
	return &f, nil
}

func (r *MemoryFlightRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[id]
	if !ok {
		return domain.ErrFlightNotFound
	}
	delete(r.history, f.FlightNumber)
	delete(r.flights, id)
	return nil
}

func (r *MemoryFlightRepository) ReserveSeat(_ context.Context, id int64) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	if f.AvailableSeats <= 0 {
		return nil, domain.ErrSoldOut
	}
	f.AvailableSeats--
	f.SyncStatus()

	out := *f
	return &out, nil
}

func (r *MemoryFlightRepository) ReleaseSeat(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flights[id]
	if !ok {
		return false, nil
	}
	if f.AvailableSeats < f.TotalSeats {
		f.AvailableSeats++
	}
	f.SyncStatus()
	return true, nil
}

func (r *MemoryFlightRepository) Reprice(_ context.Context, fn func(domain.Flight) float64) ([]domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.flights {
		f.DynamicPrice = fn(*f)
	}
	return r.sortedLocked(), nil
}

func (r *MemoryFlightRepository) FareHistory(_ context.Context, number string) ([]domain.FareHistoryPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.FareHistoryPoint{}, r.history[number]...), nil
}

func (r *MemoryFlightRepository) AppendFareHistory(_ context.Context, number string, points ...domain.FareHistoryPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.history[number]
	for _, p := range points {
		if n := len(h); n > 0 && !p.Timestamp.After(h[n-1].Timestamp) {
			p.Timestamp = h[n-1].Timestamp.Add(time.Millisecond)
		}
		h = append(h, p)
	}
	if r.historyLimit > 0 && len(h) > r.historyLimit {
		h = append([]domain.FareHistoryPoint(nil), h[len(h)-r.historyLimit:]...)
	}
	r.history[number] = h
	return nil
}

func (r *MemoryFlightRepository) byNumberLocked(number string) *domain.Flight {
	for _, f := range r.flights {
		if f.FlightNumber == number {
			return f
		}
	}
	return nil
}

func (r *MemoryFlightRepository) sortedLocked() []domain.Flight {
	out := make([]domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ FlightRepository = (*MemoryFlightRepository)(nil)
