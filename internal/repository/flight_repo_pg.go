package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/thotadurga2464/flight-booking/internal/domain"
)

// PgxIface is the subset of *pgxpool.Pool the repository uses.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const flightColumns = `id, flight_no, airline, origin, destination, departure_time, arrival_time, total_seats, available_seats, base_price, dynamic_price`

const schema = `
CREATE TABLE IF NOT EXISTS flights (
    id              BIGSERIAL PRIMARY KEY,
    flight_no       TEXT NOT NULL UNIQUE,
    airline         TEXT NOT NULL,
    origin          TEXT NOT NULL,
    destination     TEXT NOT NULL,
    departure_time  TIMESTAMPTZ NOT NULL,
    arrival_time    TIMESTAMPTZ NOT NULL,
    total_seats     INTEGER NOT NULL CHECK (total_seats >= 0),
    available_seats INTEGER NOT NULL CHECK (available_seats >= 0 AND available_seats <= total_seats),
    base_price      DOUBLE PRECISION NOT NULL,
    dynamic_price   DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS fare_history (
    id              BIGSERIAL PRIMARY KEY,
    flight_no       TEXT NOT NULL,
    recorded_at     TIMESTAMPTZ NOT NULL,
    price           DOUBLE PRECISION NOT NULL,
    available_seats INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS fare_history_flight_idx ON fare_history (flight_no, recorded_at);
`

type PGFlightRepository struct {
	db           PgxIface
	historyLimit int
}

func NewFlightRepository(db PgxIface, historyLimit int) *PGFlightRepository {
	return &PGFlightRepository{db: db, historyLimit: historyLimit}
}

// EnsureSchema creates the flights and fare_history tables when missing.
func (r *PGFlightRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
}

func (r *PGFlightRepository) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	return scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_no=$1`, number))
}

func (r *PGFlightRepository) Create(ctx context.Context, f domain.Flight) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO flights (flight_no, airline, origin, destination, departure_time, arrival_time, total_seats, available_seats, base_price, dynamic_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (flight_no) DO NOTHING
		RETURNING id`,
		f.FlightNumber, f.Airline, f.Origin, f.Destination, f.DepartureTime, f.ArrivalTime, f.TotalSeats, f.AvailableSeats, f.BasePrice, f.DynamicPrice)
	if err := row.Scan(&f.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("flight %s: %w", f.FlightNumber, domain.ErrConflict)
		}
		return nil, err
	}
	f.SyncStatus()
	return &f, nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	var number string
	if err := r.db.QueryRow(ctx, `DELETE FROM flights WHERE id=$1 RETURNING flight_no`, id).Scan(&number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrFlightNotFound
		}
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM fare_history WHERE flight_no=$1`, number)
	return err
}

func (r *PGFlightRepository) ReserveSeat(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `UPDATE flights SET available_seats = available_seats - 1
		WHERE id=$1 AND available_seats > 0
		RETURNING `+flightColumns, id))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, domain.ErrFlightNotFound) {
		return nil, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrSoldOut
	}
	return nil, domain.ErrFlightNotFound
}

func (r *PGFlightRepository) ReleaseSeat(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available_seats = LEAST(available_seats + 1, total_seats) WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *PGFlightRepository) Reprice(ctx context.Context, fn func(domain.Flight) float64) ([]domain.Flight, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, err
	}
	flights, err := collectFlights(rows)
	if err != nil {
		return nil, err
	}

	for i := range flights {
		flights[i].DynamicPrice = fn(flights[i])
		if _, err := tx.Exec(ctx, `UPDATE flights SET dynamic_price=$1 WHERE id=$2`, flights[i].DynamicPrice, flights[i].ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return flights, nil
}

func (r *PGFlightRepository) FareHistory(ctx context.Context, number string) ([]domain.FareHistoryPoint, error) {
	rows, err := r.db.Query(ctx, `SELECT recorded_at, price, available_seats FROM fare_history WHERE flight_no=$1 ORDER BY recorded_at`, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]domain.FareHistoryPoint, 0)
	for rows.Next() {
		var p domain.FareHistoryPoint
		if err := rows.Scan(&p.Timestamp, &p.Price, &p.AvailableSeats); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *PGFlightRepository) AppendFareHistory(ctx context.Context, number string, points ...domain.FareHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var last *time.Time
	if err := tx.QueryRow(ctx, `SELECT max(recorded_at) FROM fare_history WHERE flight_no=$1`, number).Scan(&last); err != nil {
		return err
	}

	for _, p := range points {
		if last != nil && !p.Timestamp.After(*last) {
			p.Timestamp = last.Add(time.Millisecond)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO fare_history (flight_no, recorded_at, price, available_seats) VALUES ($1, $2, $3, $4)`,
			number, p.Timestamp, p.Price, p.AvailableSeats); err != nil {
			return err
		}
		ts := p.Timestamp
		last = &ts
	}

	if r.historyLimit > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM fare_history WHERE flight_no=$1 AND id NOT IN (
			SELECT id FROM fare_history WHERE flight_no=$1 ORDER BY recorded_at DESC LIMIT $2)`, number, r.historyLimit); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
		&f.TotalSeats, &f.AvailableSeats, &f.BasePrice, &f.DynamicPrice); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	f.SyncStatus()
	return &f, nil
}

func collectFlights(rows pgx.Rows) ([]domain.Flight, error) {
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
			&f.TotalSeats, &f.AvailableSeats, &f.BasePrice, &f.DynamicPrice); err != nil {
			return nil, err
		}
		f.SyncStatus()
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
