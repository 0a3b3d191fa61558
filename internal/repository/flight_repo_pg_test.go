package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

var flightCols = []string{"id", "flight_no", "airline", "origin", "destination", "departure_time", "arrival_time", "total_seats", "available_seats", "base_price", "dynamic_price"}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PGFlightRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewFlightRepository(mock, 100)
}

func flightRow(mock pgxmock.PgxPoolIface, available int) *pgxmock.Rows {
	dep := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return mock.NewRows(flightCols).
		AddRow(int64(1), "AA101", "American Airlines", "JFK", "LAX", dep, dep.Add(6*time.Hour), 10, available, 300.0, 312.5)
}

func TestNewFlightRepository(t *testing.T) {
	_, repo := newMockRepo(t)
	assert.NotNil(t, repo)
}

func TestPGFlightRepository_ReserveSeat(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE flights SET available_seats = available_seats - 1")).
		WithArgs(int64(1)).
		WillReturnRows(flightRow(mock, 0))

	f, err := repo.ReserveSeat(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, f.AvailableSeats)
	assert.Equal(t, 312.5, f.DynamicPrice)
	assert.Equal(t, domain.FlightStatusSoldOut, f.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGFlightRepository_ReserveSeat_SoldOut(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE flights SET available_seats = available_seats - 1")).
		WithArgs(int64(1)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(1)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.ReserveSeat(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrSoldOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGFlightRepository_ReserveSeat_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE flights SET available_seats = available_seats - 1")).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(7)).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.ReserveSeat(context.Background(), 7)
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGFlightRepository_ReleaseSeat(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("LEAST(available_seats + 1, total_seats)")).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("LEAST(available_seats + 1, total_seats)")).
		WithArgs(int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	found, err := repo.ReleaseSeat(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.ReleaseSeat(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGFlightRepository_Create_Conflict(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO flights")).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Create(context.Background(), domain.Flight{FlightNumber: "AA101"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGFlightRepository_Reprice(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(flightRow(mock, 4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE flights SET dynamic_price=$1 WHERE id=$2")).
		WithArgs(400.0, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	out, err := repo.Reprice(context.Background(), func(domain.Flight) float64 { return 400 })
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 400.0, out[0].DynamicPrice)
	assert.Equal(t, 4, out[0].AvailableSeats)
}

func TestPGFlightRepository_GetByNumber_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE flight_no=$1")).
		WithArgs("ZZ999").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByNumber(context.Background(), "ZZ999")
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestPGFlightRepository_FareHistory(t *testing.T) {
	mock, repo := newMockRepo(t)
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM fare_history")).
		WithArgs("AA101").
		WillReturnRows(mock.NewRows([]string{"recorded_at", "price", "available_seats"}).
			AddRow(ts, 300.0, 10).
			AddRow(ts.Add(time.Hour), 310.0, 9))

	points, err := repo.FareHistory(context.Background(), "AA101")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 310.0, points[1].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}
