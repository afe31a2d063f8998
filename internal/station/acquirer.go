// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package station runs the weather station cycle: acquire the sensors,
// record the reading, show it, and keep the cadence.
package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/sensors"
	"github.com/relabs-tech/weather_station/internal/trend"
)

// HumidityProbe returns temperature (°C) and relative humidity (%). Expected
// read failures are *sensors.ProbeError.
type HumidityProbe interface {
	Read() (temperature, humidity float64, err error)
}

// LightSensor returns the light level as a fraction in [0, 1].
type LightSensor interface {
	Read() (float64, error)
}

type Barometer interface {
	ReadTemperature() (float64, error)
	ReadPressure() (float64, error)
	ReadSeaLevelPressure(elevation float64) (float64, error)
}

// PowerSwitch feeds the humidity probe.
type PowerSwitch interface {
	SetPower(on bool) error
}

// Sensors is the hardware one Acquirer reads.
type Sensors struct {
	Probe     HumidityProbe
	Light     LightSensor
	Barometer Barometer
	Power     PowerSwitch
}

// Outcome tells whether a cycle read every sensor.
type Outcome int

const (
	Success Outcome = iota
	// PartialFailure means the probe failed; nothing else was read.
	PartialFailure
)

func (o Outcome) String() string {
	if o == PartialFailure {
		return "partial failure"
	}
	return "success"
}

// AcquireOptions are the fixed parameters of acquisition.
type AcquireOptions struct {
	Elevation       float64       // station elevation in meters
	PowerCyclePause time.Duration // probe power off time after a wiring fault
}

// Acquirer owns the current reading and the pressure history.
type Acquirer struct {
	sensors Sensors
	opts    AcquireOptions
	clock   Clock
	logger  *slog.Logger

	reading  env.Reading
	history  *trend.History
	acquired bool
}

func NewAcquirer(s Sensors, history *trend.History, clock Clock, logger *slog.Logger, opts AcquireOptions) *Acquirer {
	return &Acquirer{
		sensors: s,
		opts:    opts,
		clock:   clock,
		logger:  logger,
		history: history,
	}
}

// Acquire reads all sensors once and returns a copy of the reading, the
// cycle start time and the outcome. A failed probe read is not an error:
// the cycle ends early with PartialFailure, leaving every other field at
// its previous value, and a probe that did not answer at all has its power
// cycled first. Any other failure is returned.
func (a *Acquirer) Acquire(ctx context.Context) (env.Reading, time.Time, Outcome, error) {
	startedAt := a.clock.Now()

	temp, hum, err := a.sensors.Probe.Read()
	if err != nil {
		var pe *sensors.ProbeError
		if !errors.As(err, &pe) {
			return a.reading, startedAt, PartialFailure, fmt.Errorf("read humidity probe: %w", err)
		}
		a.reading.ProbeValid = false
		a.logger.Warn("humidity probe read failed",
			"time", startedAt,
			"kind", pe.Kind.String(),
			"error", pe.Msg,
		)
		if pe.Kind == sensors.FaultWiring {
			if err := a.powerCycle(ctx); err != nil {
				return a.reading, startedAt, PartialFailure, err
			}
		}
		return a.reading, startedAt, PartialFailure, nil
	}
	a.reading.ProbeTemperature = temp
	a.reading.Humidity = hum
	a.reading.ProbeValid = true

	light, err := a.sensors.Light.Read()
	if err != nil {
		return a.reading, startedAt, Success, fmt.Errorf("read light level: %w", err)
	}
	baroTemp, err := a.sensors.Barometer.ReadTemperature()
	if err != nil {
		return a.reading, startedAt, Success, fmt.Errorf("read barometer temperature: %w", err)
	}
	pressure, err := a.sensors.Barometer.ReadPressure()
	if err != nil {
		return a.reading, startedAt, Success, fmt.Errorf("read pressure: %w", err)
	}
	sea, err := a.sensors.Barometer.ReadSeaLevelPressure(a.opts.Elevation)
	if err != nil {
		return a.reading, startedAt, Success, fmt.Errorf("read sea-level pressure: %w", err)
	}

	a.reading.LightLevel = light * 100
	a.reading.BarometerTemperature = baroTemp
	a.reading.StationPressure = pressure
	a.reading.SeaLevelPressure = int(sea)
	a.history.Append(a.reading.SeaLevelPressure)
	a.acquired = true

	return a.reading, startedAt, Success, nil
}

// Acquired reports whether any cycle has succeeded yet.
func (a *Acquirer) Acquired() bool { return a.acquired }

// Trend is the pressure trend over the history.
func (a *Acquirer) Trend() trend.Direction { return a.history.Trend() }

// History exposes the pressure samples.
func (a *Acquirer) History() *trend.History { return a.history }

func (a *Acquirer) powerCycle(ctx context.Context) error {
	a.logger.Info("power cycling humidity probe", "pause", a.opts.PowerCyclePause)
	if err := a.sensors.Power.SetPower(false); err != nil {
		return fmt.Errorf("probe power off: %w", err)
	}
	if err := a.clock.Sleep(ctx, a.opts.PowerCyclePause); err != nil {
		// leave the probe powered for the next run
		return errors.Join(err, a.sensors.Power.SetPower(true))
	}
	if err := a.sensors.Power.SetPower(true); err != nil {
		return fmt.Errorf("probe power on: %w", err)
	}
	return nil
}
