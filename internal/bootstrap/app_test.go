package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/config"
	"github.com/thotadurga2464/flight-booking/internal/domain"
	"github.com/thotadurga2464/flight-booking/internal/service/booking"
)

func TestNewApp_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	app, err := NewApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	list, err := app.Flights.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 6)
	assert.Nil(t, app.Producer)
	assert.Len(t, app.Registrars(), 3)

	b, err := app.Controller.Reserve(ctx, booking.ReserveInput{
		FlightID:         list[0].ID,
		SeatLabel:        "1A",
		PassengerName:    "Jane Doe",
		PassengerContact: "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusReserved, b.Status)
	assert.True(t, app.Controller.Armed(b.PNR))
}

func TestNewApp_NoSeed(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Booking.SeedFlights = false

	app, err := NewApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	list, err := app.Flights.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNewApp_RedisBookings(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Storage.Bookings = config.StorageRedis
	cfg.Redis.Addr = mr.Addr()

	app, err := NewApp(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	list, err := app.Flights.List(ctx)
	require.NoError(t, err)

	b, err := app.Ledger.Reserve(ctx, booking.ReserveInput{
		FlightID:         list[0].ID,
		SeatLabel:        "2C",
		PassengerName:    "John Smith",
		PassengerContact: "+1-555-0101",
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("booking:"+b.PNR))
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Bookings = config.StorageRedis
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := NewApp(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "ping redis")
}

func TestNewApp_WithKafka(t *testing.T) {
	cfg := config.Default()
	cfg.Kafka.Brokers = []string{"127.0.0.1:9092"}

	app, err := NewApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, app.Producer)
	app.Close()
}
