package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Payment  PaymentConfig  `yaml:"payment"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	// File enables rotation into the given path; empty logs to stdout only.
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type StorageConfig struct {
	Flights  string `yaml:"flights" env:"STORAGE_FLIGHTS"`
	Bookings string `yaml:"bookings" env:"STORAGE_BOOKINGS"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	BookingTopic       string   `yaml:"booking_topic" env:"KAFKA_BOOKING_TOPIC"`
	NotificationsTopic string   `yaml:"notifications_topic" env:"KAFKA_NOTIFICATIONS_TOPIC"`
	GroupID            string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

type BookingConfig struct {
	PaymentWindowSeconds int  `yaml:"payment_window_seconds" env:"BOOKING_PAYMENT_WINDOW_SECONDS"`
	SeedFlights          bool `yaml:"flights_seed" env:"BOOKING_FLIGHTS_SEED"`
}

func (b BookingConfig) PaymentWindow() time.Duration {
	return time.Duration(b.PaymentWindowSeconds) * time.Second
}

type PricingConfig struct {
	Volatility            float64 `yaml:"volatility" env:"PRICING_VOLATILITY"`
	DriftBound            float64 `yaml:"drift_bound" env:"PRICING_DRIFT_BOUND"`
	TickOnRead            bool    `yaml:"tick_on_read" env:"PRICING_TICK_ON_READ"`
	TickIntervalSeconds   int     `yaml:"tick_interval_seconds" env:"PRICING_TICK_INTERVAL_SECONDS"`
	HistoryPoints         int     `yaml:"history_points"`
	HistorySpacingMinutes int     `yaml:"history_spacing_minutes"`
	HistoryJitter         int     `yaml:"history_jitter"`
	HistorySeatFloor      int     `yaml:"history_seat_floor"`
	HistoryThreshold      float64 `yaml:"history_threshold"`
	HistoryLimit          int     `yaml:"history_limit"`
	Seed                  int64   `yaml:"seed" env:"PRICING_SEED"`
}

type PaymentConfig struct {
	FailureRate float64 `yaml:"failure_rate" env:"PAYMENT_FAILURE_RATE"`
	LatencyMS   int     `yaml:"latency_ms" env:"PAYMENT_LATENCY_MS"`
}

type WorkerConfig struct {
	ExpirationSweepSeconds int `yaml:"expiration_sweep_seconds" env:"WORKER_EXPIRATION_SWEEP_SECONDS"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Storage: StorageConfig{Flights: StorageMemory, Bookings: StorageMemory},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "flights",
			SSLMode: "disable",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			BookingTopic:       "booking-events",
			NotificationsTopic: "booking-notifications",
			GroupID:            "booking-notifier",
		},
		Booking: BookingConfig{PaymentWindowSeconds: 900, SeedFlights: true},
		Pricing: PricingConfig{
			Volatility:            0.05,
			DriftBound:            0.5,
			TickOnRead:            true,
			TickIntervalSeconds:   30,
			HistoryPoints:         11,
			HistorySpacingMinutes: 60,
			HistoryJitter:         10,
			HistorySeatFloor:      5,
			HistoryThreshold:      0.005,
			HistoryLimit:          200,
		},
		Worker: WorkerConfig{ExpirationSweepSeconds: 30},
	}
}

// LoadConfig reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Flights {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("storage.flights: unsupported driver %q", c.Storage.Flights)
	}
	switch c.Storage.Bookings {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("storage.bookings: unsupported driver %q", c.Storage.Bookings)
	}
	if c.Booking.PaymentWindowSeconds <= 0 {
		return errors.New("booking.payment_window_seconds must be positive")
	}
	if c.Payment.FailureRate < 0 || c.Payment.FailureRate > 1 {
		return errors.New("payment.failure_rate must be within [0, 1]")
	}
	if c.Pricing.Volatility < 0 || c.Pricing.DriftBound < 0 {
		return errors.New("pricing.volatility and pricing.drift_bound must not be negative")
	}
	if !c.Pricing.TickOnRead && c.Pricing.TickIntervalSeconds <= 0 {
		return errors.New("pricing.tick_interval_seconds must be positive when tick_on_read is off")
	}
	if c.Worker.ExpirationSweepSeconds <= 0 {
		return errors.New("worker.expiration_sweep_seconds must be positive")
	}
	return nil
}
