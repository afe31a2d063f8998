// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/weather_station/internal/config"
)

// Probe reads temperature (°C) and relative humidity (%) in one transaction.
type Probe interface {
	Read() (temperature, humidity float64, err error)
}

// Light reads the light level as a fraction in [0, 1].
type Light interface {
	Read() (float64, error)
}

// Pressure reads the barometer.
type Pressure interface {
	ReadTemperature() (float64, error)
	ReadPressure() (float64, error)
	ReadSeaLevelPressure(elevation float64) (float64, error)
}

// Power switches the probe supply.
type Power interface {
	SetPower(on bool) error
}

// Set is the station's sensor hardware.
type Set struct {
	Probe     Probe
	Light     Light
	Barometer Pressure
	Power     Power

	halts []func() error
}

// Close halts every device in reverse order of initialization.
func (s *Set) Close() error {
	var errs []error
	for i := len(s.halts) - 1; i >= 0; i-- {
		errs = append(errs, s.halts[i]())
	}
	s.halts = nil
	return errors.Join(errs...)
}

// Open initializes the periph-backed sensors. host.Init must have run and
// bus must be open. The probe is powered up and given its warm-up time
// before Open returns.
func Open(cfg *config.Config, bus i2c.Bus, logger *slog.Logger) (*Set, error) {
	set := &Set{}

	probePin, err := pinByName("probe data", cfg.ProbePin)
	if err != nil {
		return nil, err
	}
	powerPin, err := pinByName("probe power", cfg.ProbePowerPin)
	if err != nil {
		return nil, err
	}
	lightPin, err := pinByName("light", cfg.LightPin)
	if err != nil {
		return nil, err
	}

	baro, err := NewBarometer(bus, cfg.BarometerI2CAddr)
	if err != nil {
		return nil, err
	}
	set.Barometer = baro
	set.halts = append(set.halts, baro.Halt)
	logger.Info("barometer ready", "device", baro.String(), "addr", fmt.Sprintf("0x%02X", cfg.BarometerI2CAddr))

	light := NewLightSensor(lightPin, cfg.LightChargeLimit, cfg.LightDischarge)
	set.Light = light
	set.halts = append(set.halts, light.Halt)

	power := NewPowerLine(powerPin)
	set.Power = power
	set.halts = append(set.halts, func() error { return power.SetPower(false) })

	probe := NewDHT22(probePin)
	set.Probe = probe
	set.halts = append(set.halts, probe.Halt)

	if err := probe.Halt(); err != nil {
		return nil, errors.Join(fmt.Errorf("probe line idle: %w", err), set.Close())
	}
	if err := power.SetPower(true); err != nil {
		return nil, errors.Join(err, set.Close())
	}
	logger.Info("humidity probe powered", "data", cfg.ProbePin, "power", cfg.ProbePowerPin, "warmup", cfg.ProbeWarmup)
	time.Sleep(cfg.ProbeWarmup)

	return set, nil
}

func pinByName(role, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%s pin %q not found", role, name)
	}
	return p, nil
}
