package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/api"
	"github.com/thotadurga2464/flight-booking/config"
	"github.com/thotadurga2464/flight-booking/internal/catalog"
	"github.com/thotadurga2464/flight-booking/internal/kafka"
	"github.com/thotadurga2464/flight-booking/internal/pricing"
	"github.com/thotadurga2464/flight-booking/internal/repository"
	"github.com/thotadurga2464/flight-booking/internal/service/booking"
	"github.com/thotadurga2464/flight-booking/internal/service/flights"
	"github.com/thotadurga2464/flight-booking/internal/service/lifecycle"
)

// App holds the wired services for one process. Close releases the
// connections opened by NewApp.
type App struct {
	Catalog    *catalog.Catalog
	Flights    *flights.FlightService
	Ledger     *booking.Ledger
	Controller *lifecycle.Controller
	Producer   *kafka.Producer

	closers []func()
}

// NewApp opens the configured stores and builds the services on top of
// them. Seeding runs when enabled; timers are not armed until the caller
// resumes the controller.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Catalog: catalog.Default()}

	flightRepo, err := app.flightRepository(ctx, cfg, log)
	if err != nil {
		app.Close()
		return nil, err
	}
	bookingRepo, err := app.bookingRepository(ctx, cfg, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	sim := pricing.NewSimulator(pricing.Config{
		Volatility:       cfg.Pricing.Volatility,
		DriftBound:       cfg.Pricing.DriftBound,
		HistoryPoints:    cfg.Pricing.HistoryPoints,
		HistorySpacing:   time.Duration(cfg.Pricing.HistorySpacingMinutes) * time.Minute,
		HistoryJitter:    cfg.Pricing.HistoryJitter,
		HistorySeatFloor: cfg.Pricing.HistorySeatFloor,
		HistoryThreshold: cfg.Pricing.HistoryThreshold,
	}, cfg.Pricing.Seed)
	app.Flights = flights.NewFlightService(flightRepo, sim, log, flights.WithTickOnRead(cfg.Pricing.TickOnRead))

	if cfg.Booking.SeedFlights {
		fleet, err := flights.DefaultFleet(time.Now())
		if err != nil {
			app.Close()
			return nil, err
		}
		if err := app.Flights.Seed(ctx, fleet); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed flights: %w", err)
		}
	}

	opts := []booking.Option{booking.WithPaymentWindow(cfg.Booking.PaymentWindow())}
	if len(cfg.Kafka.Brokers) > 0 {
		app.Producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		app.closers = append(app.closers, func() {
			if err := app.Producer.Close(); err != nil {
				log.Warn("close kafka producer", zap.Error(err))
			}
		})
		opts = append(opts,
			booking.WithProducer(app.Producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}
	app.Ledger = booking.NewLedger(bookingRepo, flightRepo, app.Catalog, log, opts...)

	gateway := lifecycle.NewSimulatedGateway(
		cfg.Payment.FailureRate,
		time.Duration(cfg.Payment.LatencyMS)*time.Millisecond,
		cfg.Pricing.Seed,
	)
	app.Controller = lifecycle.NewController(app.Ledger, gateway, log)
	app.closers = append(app.closers, app.Controller.Stop)

	return app, nil
}

// Registrars returns the HTTP route groups backed by this app.
func (a *App) Registrars() []Registrar {
	return []Registrar{
		api.NewFlightHandler(a.Flights),
		api.NewAddOnHandler(a.Catalog),
		api.NewBookingHandler(a.Controller),
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) flightRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.FlightRepository, error) {
	if cfg.Storage.Flights != config.StoragePostgres {
		return repository.NewMemoryFlightRepository(cfg.Pricing.HistoryLimit), nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	repo := repository.NewFlightRepository(pool, cfg.Pricing.HistoryLimit)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	log.Info("flight inventory on postgres", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
	return repo, nil
}

func (a *App) bookingRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.BookingRepository, error) {
	if cfg.Storage.Bookings != config.StorageRedis {
		return repository.NewMemoryBookingRepository(), nil
	}

	client, err := repository.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			log.Warn("close redis client", zap.Error(err))
		}
	})
	log.Info("bookings on redis", zap.String("addr", cfg.Redis.Addr))
	return repository.NewRedisBookingRepository(client), nil
}
