package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

const (
	bookingsIndexKey = "bookings"
	maxTxRetries     = 10
)

// RedisBookingRepository keeps each booking as a JSON value under
// booking:<PNR> plus a set of all PNRs. Conditional changes run under
// WATCH/MULTI.
type RedisBookingRepository struct {
	client *redis.Client
}

func NewRedisBookingRepository(client *redis.Client) *RedisBookingRepository {
	return &RedisBookingRepository{client: client}
}

func (r *RedisBookingRepository) Create(ctx context.Context, b domain.Booking) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	// The key and its index entry go out in one MULTI/EXEC. On a taken PNR
	// the SADD is a no-op because the index already holds it.
	var created *redis.BoolCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, bookingKey(b.PNR), payload, 0)
		pipe.SAdd(ctx, bookingsIndexKey, b.PNR)
		return nil
	})
	if err != nil {
		return err
	}
	if !created.Val() {
		return fmt.Errorf("booking %s: %w", b.PNR, domain.ErrConflict)
	}
	return nil
}

func (r *RedisBookingRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	return getBooking(ctx, r.client, pnr)
}

func (r *RedisBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	pnrs, err := r.client.SMembers(ctx, bookingsIndexKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(pnrs))
	if len(pnrs) == 0 {
		return out, nil
	}

	keys := make([]string, len(pnrs))
	for i, pnr := range pnrs {
		keys[i] = bookingKey(pnr)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var b domain.Booking
		if err := json.Unmarshal([]byte(s), &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	sortBookings(out)
	return out, nil
}

func (r *RedisBookingRepository) Update(ctx context.Context, pnr string, fn func(*domain.Booking) error) (*domain.Booking, error) {
	key := bookingKey(pnr)
	var out *domain.Booking

	txf := func(tx *redis.Tx) error {
		b, err := getBooking(ctx, tx, pnr)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		b.PNR = pnr
		payload, err := json.Marshal(b)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		out = b
		return err
	}

	if err := r.watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RedisBookingRepository) Delete(ctx context.Context, pnr string, check func(domain.Booking) error) (*domain.Booking, error) {
	key := bookingKey(pnr)
	var out *domain.Booking

	txf := func(tx *redis.Tx) error {
		b, err := getBooking(ctx, tx, pnr)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(*b); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, bookingsIndexKey, pnr)
			return nil
		})
		out = b
		return err
	}

	if err := r.watch(ctx, txf, key); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RedisBookingRepository) watch(ctx context.Context, txf func(*redis.Tx) error, key string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return domain.ErrStatusConflict
}

func getBooking(ctx context.Context, c stringGetter, pnr string) (*domain.Booking, error) {
	data, err := c.Get(ctx, bookingKey(pnr)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	var b domain.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode booking %s: %w", pnr, err)
	}
	return &b, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func bookingKey(pnr string) string {
	return "booking:" + pnr
}

var _ BookingRepository = (*RedisBookingRepository)(nil)
