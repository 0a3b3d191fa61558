package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/config"
	"github.com/thotadurga2464/flight-booking/internal/bootstrap"
	"github.com/thotadurga2464/flight-booking/internal/kafka"
	"github.com/thotadurga2464/flight-booking/internal/logger"
	"github.com/thotadurga2464/flight-booking/internal/notify"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// The worker shares stores with the API; it never seeds them.
	cfg.Booking.SeedFlights = false

	logg, err := logger.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()
	logg = logg.Named("worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("build app", zap.Error(err))
	}
	defer app.Close()

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logg)
		defer consumer.Close()

		sender := notify.NewSender(logg)
		go func() {
			if err := consumer.ConsumeEvents(ctx, sender.Send); err != nil {
				logg.Error("consumer stopped", zap.Error(err))
			}
		}()
	} else {
		logg.Info("no kafka brokers configured, notifications disabled")
	}

	sweep := time.Duration(cfg.Worker.ExpirationSweepSeconds) * time.Second
	expireTicker := time.NewTicker(sweep)
	defer expireTicker.Stop()
	logg.Info("expiry sweep started", zap.Duration("interval", sweep))

	for {
		select {
		case <-expireTicker.C:
			expired, err := app.Ledger.ExpireDue(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					logg.Error("expire bookings", zap.Error(err))
				}
				continue
			}
			if len(expired) > 0 {
				logg.Info("expired bookings", zap.Int("count", len(expired)))
			}
		case <-ctx.Done():
			logg.Info("shutting down")
			return
		}
	}
}
