// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/weather_station/internal/config"
	"github.com/relabs-tech/weather_station/internal/display"
	"github.com/relabs-tech/weather_station/internal/influx"
	"github.com/relabs-tech/weather_station/internal/mqtt"
	"github.com/relabs-tech/weather_station/internal/recorder"
	"github.com/relabs-tech/weather_station/internal/sensors"
	"github.com/relabs-tech/weather_station/internal/sqlitestore"
	"github.com/relabs-tech/weather_station/internal/station"
	"github.com/relabs-tech/weather_station/internal/trend"
)

// store is a sink that can also answer for its latest point.
type store interface {
	recorder.Sink
	Last(ctx context.Context, measurement, source, field string) (recorder.Observation, bool, error)
}

// RunStation opens every resource the station needs and runs the cycle
// until ctx is canceled or a step fails. Each resource is released on the
// way out, in reverse order of acquisition.
func RunStation(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var bus i2c.BusCloser
	if cfg.SensorDriver == "periph" || cfg.DisplayDriver == "ssd1306" {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("failed to initialize periph: %w", err)
		}
		b, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return fmt.Errorf("failed to open I2C bus %q: %w", cfg.I2CBus, err)
		}
		bus = b
		defer closeLogged(logger, "i2c bus", bus.Close)
		logger.Info("i2c bus open", "bus", bus.String())
	}

	hw, err := openSensors(cfg, bus, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "sensors", hw.Close)

	disp, err := openDisplay(cfg, bus, os.Stdout)
	if err != nil {
		return err
	}
	if h, ok := disp.(interface{ Halt() error }); ok {
		defer closeLogged(logger, "display", h.Halt)
	}

	sink, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "sink", sink.Close)
	if cfg.SinkDriver == "influx" {
		logger.Info("sink ready", "driver", cfg.SinkDriver, "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket())
	} else {
		logger.Info("sink ready", "driver", cfg.SinkDriver, "path", cfg.SQLitePath)
	}

	var publisher station.TelemetryPublisher
	if cfg.MQTTBroker != "" {
		client := mqtt.NewClient(mqtt.Options{Broker: cfg.MQTTBroker, ClientID: cfg.MQTTClientID}, logger)
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer client.Disconnect()
		publisher = mqtt.NewPublisher(client, cfg.MQTTTopic, cfg.StationID)
	}

	clock := station.RealClock{}
	presenter := display.NewPresenter(cfg.DisplayRows, cfg.DisplayCols)
	acq := station.NewAcquirer(
		station.Sensors{Probe: hw.Probe, Light: hw.Light, Barometer: hw.Barometer, Power: hw.Power},
		trend.NewHistory(cfg.HistoryCapacity),
		clock,
		logger,
		station.AcquireOptions{Elevation: cfg.StationElevation, PowerCyclePause: cfg.PowerCyclePause},
	)
	vanity := station.NewVanity(disp, presenter.RenderVanity, clock, logger, station.VanityOptions{
		Lines:    cfg.VanityLines,
		Interval: cfg.VanityInterval,
		Dwell:    cfg.VanityDuration,
	})

	ctrl := station.NewController(station.ControllerOptions{
		Acquirer:  acq,
		Recorder:  recorder.New(sink),
		Presenter: presenter,
		Display:   disp,
		Vanity:    vanity,
		Publisher: publisher,
		Clock:     clock,
		Refresh:   cfg.RefreshInterval,
		Logger:    logger,
	})
	logger.Info("station running",
		"elevation_m", cfg.StationElevation,
		"history", cfg.HistoryCapacity,
		"vanity_interval", cfg.VanityInterval,
	)
	return ctrl.Run(ctx)
}

// Check verifies the configured sink is reachable and prints the latest
// sea-level pressure it holds.
func Check(ctx context.Context, cfg *config.Config, w io.Writer) error {
	sink, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	last, ok, err := sink.Last(ctx, "pressure", "sea", "kPa")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(w, "%s sink reachable, no observations yet\n", cfg.SinkDriver)
		return nil
	}
	fmt.Fprintf(w, "%s sink reachable, last sea-level pressure %.3f kPa at %s\n",
		cfg.SinkDriver, last.Value/1000, last.Time.Local().Format(time.RFC3339))
	return nil
}

func openSensors(cfg *config.Config, bus i2c.Bus, logger *slog.Logger) (*sensors.Set, error) {
	switch cfg.SensorDriver {
	case "mock":
		logger.Warn("using mock sensors")
		return sensors.NewMockSet(logger), nil
	case "periph":
		return sensors.Open(cfg, bus, logger)
	default:
		return nil, fmt.Errorf("unknown sensor driver: %q", cfg.SensorDriver)
	}
}

func openDisplay(cfg *config.Config, bus i2c.Bus, stdout io.Writer) (station.Display, error) {
	switch cfg.DisplayDriver {
	case "console":
		return display.NewConsole(stdout, cfg.DisplayRows, cfg.DisplayCols), nil
	case "ssd1306":
		oled, err := display.NewOLED(bus, cfg.DisplayI2CAddr, cfg.DisplayWidth, cfg.DisplayHeight, cfg.DisplayRows, cfg.DisplayCols)
		if err != nil {
			return nil, err
		}
		return oled, nil
	default:
		return nil, fmt.Errorf("unknown display driver: %q", cfg.DisplayDriver)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.SinkDriver {
	case "influx":
		s, err := influx.New(influx.Config{
			Addr:            cfg.InfluxURL,
			Username:        cfg.InfluxUsername,
			Password:        cfg.InfluxPassword,
			Database:        cfg.InfluxDatabase,
			RetentionPolicy: cfg.InfluxRetentionPolicy,
			Timeout:         cfg.InfluxTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath, cfg.StationID)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sink driver: %q", cfg.SinkDriver)
	}
}

func closeLogged(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("release failed", "resource", what, "error", err)
	}
}
