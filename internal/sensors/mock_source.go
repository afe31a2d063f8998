// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"log/slog"
	"math"
	"time"
)

const (
	// every mockChecksumEvery-th probe read fails with a timing glitch
	mockChecksumEvery = 7
	// every mockWiringEvery-th probe read fails as if unplugged
	mockWiringEvery = 23
)

type mockProbe struct {
	start time.Time
	reads int
}

func (m *mockProbe) Read() (float64, float64, error) {
	m.reads++
	switch {
	case m.reads%mockWiringEvery == 0:
		return 0, 0, NewProbeError("DHT sensor not found, check wiring")
	case m.reads%mockChecksumEvery == 0:
		return 0, 0, NewProbeError("checksum did not validate, try again")
	}
	elapsed := time.Since(m.start).Seconds()
	temp := 21 + 2*math.Sin(elapsed/300)
	hum := 45 + 10*math.Cos(elapsed/420)
	return temp, hum, nil
}

type mockLight struct {
	start time.Time
}

func (m *mockLight) Read() (float64, error) {
	elapsed := time.Since(m.start).Seconds()
	return 0.5 + 0.45*math.Sin(elapsed/120), nil
}

type mockBarometer struct {
	start time.Time
}

func (m *mockBarometer) ReadTemperature() (float64, error) {
	elapsed := time.Since(m.start).Seconds()
	return 21.2 + 1.5*math.Sin(elapsed/300), nil
}

// ReadPressure drifts slowly so the trend indicator moves on a bench run.
func (m *mockBarometer) ReadPressure() (float64, error) {
	elapsed := time.Since(m.start).Seconds()
	return 99100 + 400*math.Sin(elapsed/900), nil
}

func (m *mockBarometer) ReadSeaLevelPressure(elevation float64) (float64, error) {
	pa, _ := m.ReadPressure()
	return SeaLevelPressure(pa, elevation), nil
}

type mockPower struct {
	logger *slog.Logger
}

func (m *mockPower) SetPower(on bool) error {
	m.logger.Debug("mock probe power", "on", on)
	return nil
}

// NewMockSet returns sensors that generate smooth changing values, with
// periodic probe failures of both kinds.
func NewMockSet(logger *slog.Logger) *Set {
	now := time.Now()
	return &Set{
		Probe:     &mockProbe{start: now},
		Light:     &mockLight{start: now},
		Barometer: &mockBarometer{start: now},
		Power:     &mockPower{logger: logger},
	}
}
