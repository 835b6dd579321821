package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverac/saleswatch/internal/gpio"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://evaluacion1controldeventa-production.up.railway.app/api/", cfg.API.BaseURL)
	assert.Equal(t, "admin", cfg.API.Username)
	assert.Equal(t, 15*time.Minute, cfg.API.TokenTTL)
	assert.Equal(t, 3*time.Minute, cfg.API.TokenMargin)
	assert.Equal(t, 3*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 15*time.Minute, cfg.Poll.Heartbeat)
	assert.Equal(t, ":80", cfg.HTTP.Addr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, gpio.DefaultPinVibration, cfg.GPIO.PinVibration)
	assert.Equal(t, gpio.DefaultPinLED, cfg.GPIO.PinLED)
	assert.Equal(t, gpio.DefaultPinIR, cfg.GPIO.PinIR)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SALES_API_BASE", "https://example.test/api/")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("MQTT_BROKER", "")
	t.Setenv("PIN_LED", "21")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api/", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Poll.Interval)
	assert.Empty(t, cfg.MQTT.Broker, "empty broker disables MQTT")
	assert.Equal(t, 21, cfg.GPIO.PinLED)
}

func TestFileOverlayWinsOverEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")

	path := filepath.Join(t.TempDir(), "saleswatch.yaml")
	body := `
api:
  username: clerk
  token_ttl: 10m
http:
  addr: ":8080"
gpio:
  pin_ir: 17
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "clerk", cfg.API.Username)
	assert.Equal(t, 10*time.Minute, cfg.API.TokenTTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 17, cfg.GPIO.PinIR)

	// Keys the file does not set keep their env/default values.
	assert.Equal(t, "admin", cfg.API.Password)
	assert.Equal(t, 13, cfg.GPIO.PinVibration)
}

func TestMissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	t.Run("margin must be below ttl", func(t *testing.T) {
		t.Setenv("SALES_TOKEN_MARGIN", "20m")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("poll interval must be positive", func(t *testing.T) {
		t.Setenv("POLL_INTERVAL", "0s")
		_, err := Load("")
		assert.Error(t, err)
	})
}
