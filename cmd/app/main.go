package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/config"
	"github.com/thotadurga2464/flight-booking/internal/bootstrap"
	"github.com/thotadurga2464/flight-booking/internal/logger"
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

	logg, err := logger.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("build app", zap.Error(err))
	}
	defer app.Close()

	if app.Producer != nil {
		if err := app.Producer.CheckConnection(ctx); err != nil {
			logg.Warn("kafka unreachable, events will be dropped", zap.Error(err))
		}
	}

	if err := app.Controller.Resume(ctx); err != nil {
		logg.Fatal("resume reservations", zap.Error(err))
	}

	if !cfg.Pricing.TickOnRead {
		interval := time.Duration(cfg.Pricing.TickIntervalSeconds) * time.Second
		go app.Flights.RunTicker(ctx, interval)
		logg.Info("pricing ticker started", zap.Duration("interval", interval))
	}

	if err := bootstrap.Run(ctx, cfg, logg, app.Registrars()...); err != nil {
		logg.Error("server error", zap.Error(err))
	}
}
