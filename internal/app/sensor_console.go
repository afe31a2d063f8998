// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/weather_station/internal/config"
	"github.com/relabs-tech/weather_station/internal/sensors"
)

// RunSensorConsole prints one line of raw sensor values per interval, for
// checking the wiring without a display or a database. Probe failures are
// printed, never fatal, and do not trigger a power cycle.
func RunSensorConsole(ctx context.Context, cfg *config.Config, interval time.Duration, logger *slog.Logger, w io.Writer) error {
	var bus i2c.BusCloser
	if cfg.SensorDriver == "periph" {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("failed to initialize periph: %w", err)
		}
		b, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return fmt.Errorf("failed to open I2C bus %q: %w", cfg.I2CBus, err)
		}
		bus = b
		defer closeLogged(logger, "i2c bus", bus.Close)
	}

	hw, err := openSensors(cfg, bus, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "sensors", hw.Close)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fmt.Fprintln(w, sensorLine(hw, cfg.StationElevation))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func sensorLine(hw *sensors.Set, elevation float64) string {
	var probe string
	if temp, hum, err := hw.Probe.Read(); err != nil {
		var pe *sensors.ProbeError
		if errors.As(err, &pe) {
			probe = fmt.Sprintf("PROBE %s: %s", pe.Kind, pe.Msg)
		} else {
			probe = fmt.Sprintf("PROBE %v", err)
		}
	} else {
		probe = fmt.Sprintf("PROBE T=%6.2f°C RH=%6.2f%%", temp, hum)
	}

	light := "LIGHT err"
	if v, err := hw.Light.Read(); err == nil {
		light = fmt.Sprintf("LIGHT=%5.1f%%", v*100)
	}

	baro := "BARO err"
	temp, errT := hw.Barometer.ReadTemperature()
	pa, errP := hw.Barometer.ReadPressure()
	sea, errS := hw.Barometer.ReadSeaLevelPressure(elevation)
	if errT == nil && errP == nil && errS == nil {
		baro = fmt.Sprintf("BARO T=%6.2f°C P=%9.1fPa SEA=%6d", temp, pa, int(sea))
	}

	return fmt.Sprintf("%s  %s  %s", probe, light, baro)
}
