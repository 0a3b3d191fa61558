package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

func testFlight() domain.Flight {
	return domain.Flight{
		ID:             1,
		FlightNumber:   "AA101",
		TotalSeats:     180,
		AvailableSeats: 45,
		BasePrice:      299.99,
		DynamicPrice:   324.99,
	}
}

func TestSimulator_TickStaysWithinVolatility(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DriftBound = 0
	sim := NewSimulator(cfg, 42)
	f := testFlight()

	for i := 0; i < 1000; i++ {
		next := sim.Tick(f)
		assert.GreaterOrEqual(t, next, Round2(f.DynamicPrice*0.95)-0.01)
		assert.LessOrEqual(t, next, Round2(f.DynamicPrice*1.05)+0.01)
		assert.Equal(t, Round2(next), next)
	}
}

func TestSimulator_TickClampsDrift(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), 7)
	f := testFlight()

	for i := 0; i < 5000; i++ {
		f.DynamicPrice = sim.Tick(f)
		require.GreaterOrEqual(t, f.DynamicPrice, Round2(f.BasePrice*0.5))
		require.LessOrEqual(t, f.DynamicPrice, Round2(f.BasePrice*1.5))
	}
}

func TestSimulator_SameSeedSameSequence(t *testing.T) {
	a := NewSimulator(DefaultConfig(), 99)
	b := NewSimulator(DefaultConfig(), 99)
	f := testFlight()

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Tick(f), b.Tick(f))
	}
}

func TestScarcityPrice(t *testing.T) {
	assert.Equal(t, 100.0, ScarcityPrice(100, 100, 100))
	assert.Equal(t, 125.0, ScarcityPrice(100, 50, 100))
	assert.Equal(t, 150.0, ScarcityPrice(100, 0, 100))
	assert.Equal(t, 100.0, ScarcityPrice(100, 0, 0))

	// fewer seats, higher price
	assert.Greater(t, ScarcityPrice(200, 10, 150), ScarcityPrice(200, 90, 150))
}

func TestSimulator_SeedHistory(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), 1)
	f := testFlight()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	points := sim.SeedHistory(f, now)
	require.Len(t, points, 11)

	assert.Equal(t, now.Add(-10*time.Hour), points[0].Timestamp)
	assert.Equal(t, now, points[10].Timestamp)
	for i, p := range points {
		if i > 0 {
			assert.True(t, p.Timestamp.After(points[i-1].Timestamp))
		}
		assert.GreaterOrEqual(t, p.AvailableSeats, 5)
		assert.LessOrEqual(t, p.AvailableSeats, f.TotalSeats)
		assert.InDelta(t, f.AvailableSeats, p.AvailableSeats, 10)
		assert.Equal(t, ScarcityPrice(f.BasePrice, p.AvailableSeats, f.TotalSeats), p.Price)
	}
}

func TestSimulator_SeedHistorySeatFloor(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), 3)
	f := testFlight()
	f.AvailableSeats = 0

	for _, p := range sim.SeedHistory(f, time.Now()) {
		assert.GreaterOrEqual(t, p.AvailableSeats, 5)
	}
}

func TestSimulator_Changed(t *testing.T) {
	sim := NewSimulator(DefaultConfig(), 1)

	assert.False(t, sim.Changed(100, 100.2))
	assert.True(t, sim.Changed(100, 101))
	assert.True(t, sim.Changed(100, 99))
	assert.True(t, sim.Changed(0, 1))
}
