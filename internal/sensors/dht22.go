// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	// dhtMinInterval is the datasheet minimum between two transactions.
	dhtMinInterval = 2 * time.Second
	// dhtStartLow is how long the host holds the line low to wake the sensor.
	dhtStartLow = 1100 * time.Microsecond
	// dhtCaptureWindow covers the 80+80 µs response and 40 bits of at most
	// 120 µs each, with margin for scheduling jitter.
	dhtCaptureWindow = 12 * time.Millisecond
	// dhtOneThreshold splits a 26-28 µs "0" high pulse from a 70 µs "1".
	dhtOneThreshold = 48 * time.Microsecond
	dhtBits         = 40
)

// pulse is one steady level seen on the data line and how long it lasted.
type pulse struct {
	level gpio.Level
	width time.Duration
}

// DHT22 reads an AM2302/DHT22 humidity and temperature probe on a single
// GPIO line by polling the pin level.
type DHT22 struct {
	pin       gpio.PinIO
	lastRead  time.Time
	lastTemp  float64
	lastHum   float64
	haveLast  bool
	numErrors int
}

// NewDHT22 returns a driver for the probe wired to pin. The line needs a
// pull-up, either external or the SoC's.
func NewDHT22(pin gpio.PinIO) *DHT22 {
	return &DHT22{pin: pin}
}

// Read performs one transaction and returns temperature (°C) and relative
// humidity (%). Reads closer together than the sensor allows return the
// previous values. Protocol failures are *ProbeError; GPIO failures are
// plain errors.
func (d *DHT22) Read() (temperature, humidity float64, err error) {
	if d.haveLast && time.Since(d.lastRead) < dhtMinInterval {
		return d.lastTemp, d.lastHum, nil
	}
	d.lastRead = time.Now()

	pulses, err := d.capture()
	if err != nil {
		return 0, 0, err
	}

	temperature, humidity, perr := decodePulses(pulses)
	if perr != nil {
		d.numErrors++
		return 0, 0, perr
	}

	d.lastTemp, d.lastHum, d.haveLast = temperature, humidity, true
	return temperature, humidity, nil
}

// Errors returns the number of failed transactions since start.
func (d *DHT22) Errors() int { return d.numErrors }

// Halt leaves the line as a pulled-up input, the bus idle state.
func (d *DHT22) Halt() error {
	return d.pin.In(gpio.PullUp, gpio.NoEdge)
}

func (d *DHT22) String() string {
	return fmt.Sprintf("DHT22{%s}", d.pin)
}

// capture sends the start signal and records the line levels that follow.
func (d *DHT22) capture() ([]pulse, error) {
	if err := d.pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("dht22 start signal: %w", err)
	}
	time.Sleep(dhtStartLow)
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("dht22 release line: %w", err)
	}

	pulses := make([]pulse, 0, 2*dhtBits+8)
	level := d.pin.Read()
	start := time.Now()
	deadline := start.Add(dhtCaptureWindow)
	for now := start; now.Before(deadline); now = time.Now() {
		l := d.pin.Read()
		if l == level {
			continue
		}
		pulses = append(pulses, pulse{level: level, width: now.Sub(start)})
		level, start = l, now
	}
	return append(pulses, pulse{level: level, width: time.Since(start)}), nil
}

// decodePulses turns a captured level sequence into readings.
//
// After the host releases the line it floats high until the sensor pulls it
// low for 80 µs and high for 80 µs, then sends 40 bits, each a 50 µs low
// followed by a high whose width encodes the bit.
func decodePulses(pulses []pulse) (temperature, humidity float64, err error) {
	var highs []time.Duration
	sawLow := false
	for _, p := range pulses {
		if p.level == gpio.Low {
			sawLow = true
			continue
		}
		if sawLow {
			highs = append(highs, p.width)
		}
	}
	if !sawLow || len(highs) == 0 {
		return 0, 0, &ProbeError{Kind: FaultWiring, Msg: "sensor not found, check wiring"}
	}
	// The first high after the first low is the sensor's response.
	if len(highs) < dhtBits+1 {
		return 0, 0, &ProbeError{Kind: FaultTransient, Msg: fmt.Sprintf("received %d of %d bits", max(len(highs)-1, 0), dhtBits)}
	}

	var data [5]byte
	for i, w := range highs[1 : dhtBits+1] {
		data[i/8] <<= 1
		if w > dhtOneThreshold {
			data[i/8] |= 1
		}
	}
	return decodeFrame(data)
}

// decodeFrame validates the checksum and scales the raw words.
func decodeFrame(data [5]byte) (temperature, humidity float64, err error) {
	if sum := data[0] + data[1] + data[2] + data[3]; sum != data[4] {
		return 0, 0, &ProbeError{Kind: FaultTransient, Msg: fmt.Sprintf("checksum mismatch: got 0x%02X, want 0x%02X", data[4], sum)}
	}

	humidity = float64(uint16(data[0])<<8|uint16(data[1])) / 10
	temperature = float64(uint16(data[2]&0x7F)<<8|uint16(data[3])) / 10
	if data[2]&0x80 != 0 {
		temperature = -temperature
	}

	if humidity > 100 || temperature < -40 || temperature > 80 {
		return 0, 0, &ProbeError{Kind: FaultTransient, Msg: fmt.Sprintf("out of range: %.1f°C %.1f%%", temperature, humidity)}
	}
	return temperature, humidity, nil
}
