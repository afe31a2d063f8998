// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// HistoryWindow is the span of sea-level pressure kept for the trend.
const HistoryWindow = 3 * time.Hour

// Config holds all application configuration values.
type Config struct {
	AppEnv    string
	LogLevel  slog.Level
	StationID string

	// Timing
	RefreshInterval time.Duration
	HistoryCapacity int // samples; 0 derives HistoryWindow / RefreshInterval
	VanityInterval  time.Duration
	VanityDuration  time.Duration
	VanityLines     [2]string

	// Station
	StationElevation float64 // meters above sea level

	// Sensor hardware
	SensorDriver     string // "periph" or "mock"
	I2CBus           string // "" picks the first bus
	ProbePin         string
	ProbePowerPin    string
	ProbeWarmup      time.Duration
	PowerCyclePause  time.Duration
	LightPin         string
	LightChargeLimit time.Duration
	LightDischarge   time.Duration
	BarometerI2CAddr uint16

	// Display
	DisplayDriver  string // "ssd1306" or "console"
	DisplayI2CAddr uint16
	DisplayRows    int
	DisplayCols    int
	DisplayWidth   int // pixels
	DisplayHeight  int // pixels

	// Persistence
	SinkDriver            string // "influx" or "sqlite"
	InfluxURL             string
	InfluxUsername        string
	InfluxPassword        string
	InfluxDatabase        string
	InfluxRetentionPolicy string
	InfluxTimeout         time.Duration
	SQLitePath            string

	// MQTT (empty broker disables the mirror)
	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string
}

// defaults is applied before the config file and the environment.
// Every key the station understands appears here.
var defaults = map[string]string{
	"APP_ENV":    "dev",
	"LOG_LEVEL":  "info",
	"STATION_ID": "home",

	"REFRESH_INTERVAL": "2s",
	"HISTORY_CAPACITY": "0",
	"VANITY_INTERVAL":  "20m",
	"VANITY_DURATION":  "10s",
	"VANITY_LINE_1":    "   Weather Station",
	"VANITY_LINE_2":    "  have a nice day <3",

	"STATION_ELEVATION": "185.6",

	"SENSOR_DRIVER":      "periph",
	"I2C_BUS":            "",
	"PROBE_PIN":          "GPIO9",
	"PROBE_POWER_PIN":    "GPIO22",
	"PROBE_WARMUP":       "1s",
	"POWER_CYCLE_PAUSE":  "1s",
	"LIGHT_PIN":          "GPIO6",
	"LIGHT_CHARGE_LIMIT": "100ms",
	"LIGHT_DISCHARGE":    "10ms",
	"BAROMETER_I2C_ADDR": "0x77",

	"DISPLAY_DRIVER":   "ssd1306",
	"DISPLAY_I2C_ADDR": "0x3C",
	"DISPLAY_ROWS":     "4",
	"DISPLAY_COLS":     "20",
	"DISPLAY_WIDTH":    "128",
	"DISPLAY_HEIGHT":   "64",

	"SINK_DRIVER":             "influx",
	"INFLUX_URL":              "http://localhost:8086",
	"INFLUX_USERNAME":         "admin",
	"INFLUX_PASSWORD":         "admin",
	"INFLUX_DATABASE":         "homebridgeWeather",
	"INFLUX_RETENTION_POLICY": "autogen",
	"INFLUX_TIMEOUT":          "5s",
	"SQLITE_PATH":             "weather.db",

	"MQTT_BROKER":    "",
	"MQTT_CLIENT_ID": "weather-station",
	"MQTT_TOPIC":     "weather/station",
}

// Load builds the configuration from defaults, the KEY=VALUE file at
// configPath (skipped when empty) and environment variables, in increasing
// order of precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(key)
		if err := cfg.setValue(name, v.GetString(key)); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	if cfg.HistoryCapacity == 0 {
		cfg.HistoryCapacity = int(HistoryWindow / cfg.RefreshInterval)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	case "APP_ENV":
		switch value {
		case "dev", "prod":
		default:
			return fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", value)
		}
		c.AppEnv = value
	case "LOG_LEVEL":
		c.LogLevel, err = parseLogLevel(value)
	case "STATION_ID":
		c.StationID = value

	// Timing
	case "REFRESH_INTERVAL":
		c.RefreshInterval, err = parsePositiveDuration(key, value)
	case "HISTORY_CAPACITY":
		n, convErr := strconv.Atoi(value)
		if convErr != nil {
			return fmt.Errorf("invalid HISTORY_CAPACITY %q: %w", value, convErr)
		}
		if n < 0 {
			return fmt.Errorf("HISTORY_CAPACITY must not be negative, got %d", n)
		}
		c.HistoryCapacity = n
	case "VANITY_INTERVAL":
		c.VanityInterval, err = parseDuration(key, value)
	case "VANITY_DURATION":
		c.VanityDuration, err = parseDuration(key, value)
	case "VANITY_LINE_1":
		c.VanityLines[0] = value
	case "VANITY_LINE_2":
		c.VanityLines[1] = value

	// Station
	case "STATION_ELEVATION":
		elevation, convErr := strconv.ParseFloat(value, 64)
		if convErr != nil {
			return fmt.Errorf("invalid STATION_ELEVATION %q: %w", value, convErr)
		}
		c.StationElevation = elevation

	// Sensor hardware
	case "SENSOR_DRIVER":
		switch value {
		case "periph", "mock":
		default:
			return fmt.Errorf("invalid SENSOR_DRIVER %q (allowed: periph, mock)", value)
		}
		c.SensorDriver = value
	case "I2C_BUS":
		c.I2CBus = value
	case "PROBE_PIN":
		c.ProbePin = value
	case "PROBE_POWER_PIN":
		c.ProbePowerPin = value
	case "PROBE_WARMUP":
		c.ProbeWarmup, err = parseDuration(key, value)
	case "POWER_CYCLE_PAUSE":
		c.PowerCyclePause, err = parseDuration(key, value)
	case "LIGHT_PIN":
		c.LightPin = value
	case "LIGHT_CHARGE_LIMIT":
		c.LightChargeLimit, err = parsePositiveDuration(key, value)
	case "LIGHT_DISCHARGE":
		c.LightDischarge, err = parseDuration(key, value)
	case "BAROMETER_I2C_ADDR":
		c.BarometerI2CAddr, err = parseI2CAddr(key, value)

	// Display
	case "DISPLAY_DRIVER":
		switch value {
		case "ssd1306", "console":
		default:
			return fmt.Errorf("invalid DISPLAY_DRIVER %q (allowed: ssd1306, console)", value)
		}
		c.DisplayDriver = value
	case "DISPLAY_I2C_ADDR":
		c.DisplayI2CAddr, err = parseI2CAddr(key, value)
	case "DISPLAY_ROWS":
		c.DisplayRows, err = parsePositiveInt(key, value)
	case "DISPLAY_COLS":
		c.DisplayCols, err = parsePositiveInt(key, value)
	case "DISPLAY_WIDTH":
		c.DisplayWidth, err = parsePositiveInt(key, value)
	case "DISPLAY_HEIGHT":
		c.DisplayHeight, err = parsePositiveInt(key, value)

	// Persistence
	case "SINK_DRIVER":
		switch value {
		case "influx", "sqlite":
		default:
			return fmt.Errorf("invalid SINK_DRIVER %q (allowed: influx, sqlite)", value)
		}
		c.SinkDriver = value
	case "INFLUX_URL":
		c.InfluxURL = value
	case "INFLUX_USERNAME":
		c.InfluxUsername = value
	case "INFLUX_PASSWORD":
		c.InfluxPassword = value
	case "INFLUX_DATABASE":
		c.InfluxDatabase = value
	case "INFLUX_RETENTION_POLICY":
		c.InfluxRetentionPolicy = value
	case "INFLUX_TIMEOUT":
		c.InfluxTimeout, err = parsePositiveDuration(key, value)
	case "SQLITE_PATH":
		c.SQLitePath = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC":
		c.MQTTTopic = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.StationID == "" {
		return errors.New("STATION_ID is required")
	}
	if c.HistoryCapacity <= 60 {
		return fmt.Errorf("HISTORY_CAPACITY must hold more than 60 samples for the trend, got %d", c.HistoryCapacity)
	}
	if c.VanityInterval > 0 && c.VanityLines[0] == "" && c.VanityLines[1] == "" {
		return errors.New("VANITY_LINE_1 or VANITY_LINE_2 is required when VANITY_INTERVAL is set")
	}
	if c.SensorDriver == "periph" {
		if c.ProbePin == "" {
			return errors.New("PROBE_PIN is required")
		}
		if c.ProbePowerPin == "" {
			return errors.New("PROBE_POWER_PIN is required")
		}
		if c.LightPin == "" {
			return errors.New("LIGHT_PIN is required")
		}
	}
	switch c.SinkDriver {
	case "influx":
		if c.InfluxURL == "" {
			return errors.New("INFLUX_URL is required")
		}
		if c.InfluxDatabase == "" {
			return errors.New("INFLUX_DATABASE is required")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		return errors.New("MQTT_TOPIC is required when MQTT_BROKER is set")
	}
	return nil
}

// InfluxBucket returns the database/retention-policy pair as one name.
func (c *Config) InfluxBucket() string {
	if c.InfluxRetentionPolicy == "" {
		return c.InfluxDatabase
	}
	return c.InfluxDatabase + "/" + c.InfluxRetentionPolicy
}

// ExistingFile returns path when a file exists there and "" otherwise.
// Used for the default config location, which is optional.
func ExistingFile(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %v", key, d)
	}
	return d, nil
}

func parsePositiveDuration(key, value string) (time.Duration, error) {
	d, err := parseDuration(key, value)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parsePositiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func parseI2CAddr(key, value string) (uint16, error) {
	addr, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return uint16(addr), nil
}
