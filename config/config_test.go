package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Booking.PaymentWindow())
	assert.Equal(t, StorageMemory, cfg.Storage.Flights)
	assert.True(t, cfg.Pricing.TickOnRead)
	assert.Equal(t, 11, cfg.Pricing.HistoryPoints)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  address: ":9090"
storage:
  bookings: redis
kafka:
  brokers: ["kafka:9092"]
pricing:
  tick_on_read: false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, StorageRedis, cfg.Storage.Bookings)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Pricing.TickOnRead)
	assert.Equal(t, 900, cfg.Booking.PaymentWindowSeconds)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http:\n  address: \":9090\"\n")
	t.Setenv("HTTP_ADDRESS", ":7070")
	t.Setenv("PAYMENT_FAILURE_RATE", "0.15")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Address)
	assert.Equal(t, 0.15, cfg.Payment.FailureRate)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "storage:\n  flights: sqlite\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "booking:\n  payment_window_seconds: 0\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "pricing:\n  tick_on_read: false\n  tick_interval_seconds: 0\n"))
	assert.ErrorContains(t, err, "pricing.tick_interval_seconds")

	_, err = LoadConfig(writeConfig(t, "worker:\n  expiration_sweep_seconds: -5\n"))
	assert.ErrorContains(t, err, "worker.expiration_sweep_seconds")

	_, err = LoadConfig(writeConfig(t, "http: [oops"))
	assert.Error(t, err)
}

func TestLoadConfig_TickIntervalIgnoredWhenTickingOnRead(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "pricing:\n  tick_on_read: true\n  tick_interval_seconds: 0\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Pricing.TickOnRead)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
