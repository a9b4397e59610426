package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
http:
  address: ":8080"
database:
  host: localhost
  port: 5432
  user: booking
  password: secret
  name: booking
  ssl_mode: disable
booking:
  hold_window_minutes: 20
  payment_window_minutes: 45
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 20, cfg.Booking.HoldWindowMinutes)
	assert.Equal(t, 45, cfg.Booking.PaymentWindowMinutes)
	assert.Equal(t, "host=localhost port=5432 user=booking password=secret dbname=booking sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  address: ":8080"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Booking.HoldWindowMinutes)
	assert.Equal(t, 30, cfg.Booking.PaymentWindowMinutes)
	assert.Equal(t, 60, cfg.Worker.SweepIntervalSeconds)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}
