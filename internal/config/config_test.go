package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weather_station.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5400, cfg.HistoryCapacity)
	assert.Equal(t, 20*time.Minute, cfg.VanityInterval)
	assert.Equal(t, 10*time.Second, cfg.VanityDuration)
	assert.InDelta(t, 185.6, cfg.StationElevation, 1e-9)
	assert.Equal(t, uint16(0x77), cfg.BarometerI2CAddr)
	assert.Equal(t, uint16(0x3C), cfg.DisplayI2CAddr)
	assert.Equal(t, 4, cfg.DisplayRows)
	assert.Equal(t, 20, cfg.DisplayCols)
	assert.Equal(t, time.Second, cfg.PowerCyclePause)
	assert.Equal(t, "influx", cfg.SinkDriver)
	assert.Equal(t, "homebridgeWeather/autogen", cfg.InfluxBucket())
	assert.Empty(t, cfg.MQTTBroker)
}

func TestLoad_file(t *testing.T) {
	path := writeConfig(t, `# bench setup
REFRESH_INTERVAL=5s
SENSOR_DRIVER=mock
DISPLAY_DRIVER=console
SINK_DRIVER=sqlite
SQLITE_PATH=/tmp/station.db
VANITY_LINE_1="  hello there"
LOG_LEVEL=debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 2160, cfg.HistoryCapacity)
	assert.Equal(t, "mock", cfg.SensorDriver)
	assert.Equal(t, "console", cfg.DisplayDriver)
	assert.Equal(t, "sqlite", cfg.SinkDriver)
	assert.Equal(t, "/tmp/station.db", cfg.SQLitePath)
	assert.Equal(t, "  hello there", cfg.VanityLines[0])
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_envOverridesFile(t *testing.T) {
	path := writeConfig(t, "REFRESH_INTERVAL=5s\nHISTORY_CAPACITY=100\n")
	t.Setenv("REFRESH_INTERVAL", "10s")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 100, cfg.HistoryCapacity)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
}

func TestLoad_errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "NOT_A_KEY=1\n", "unknown config key"},
		{"bad duration", "REFRESH_INTERVAL=often\n", "invalid REFRESH_INTERVAL"},
		{"zero refresh", "REFRESH_INTERVAL=0s\n", "REFRESH_INTERVAL must be positive"},
		{"bad address", "BAROMETER_I2C_ADDR=zz\n", "invalid BAROMETER_I2C_ADDR"},
		{"bad sensor driver", "SENSOR_DRIVER=serial\n", "invalid SENSOR_DRIVER"},
		{"bad sink driver", "SINK_DRIVER=postgres\n", "invalid SINK_DRIVER"},
		{"bad log level", "LOG_LEVEL=loud\n", "invalid LOG_LEVEL"},
		{"history too small", "HISTORY_CAPACITY=60\n", "HISTORY_CAPACITY must hold more than 60"},
		{"no vanity lines", "VANITY_LINE_1=\nVANITY_LINE_2=\n", "VANITY_LINE_1 or VANITY_LINE_2"},
		{"missing probe pin", "PROBE_PIN=\n", "PROBE_PIN is required"},
		{"mqtt without topic", "MQTT_BROKER=tcp://b:1883\nMQTT_TOPIC=\n", "MQTT_TOPIC is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.conf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_vanityDisabledNeedsNoLines(t *testing.T) {
	cfg, err := Load(writeConfig(t, "VANITY_INTERVAL=0s\nVANITY_LINE_1=\nVANITY_LINE_2=\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.VanityInterval)
}

func TestExistingFile(t *testing.T) {
	path := writeConfig(t, "")
	assert.Equal(t, path, ExistingFile(path))
	assert.Empty(t, ExistingFile(filepath.Join(t.TempDir(), "nope")))
}
