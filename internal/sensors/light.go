package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// LightSensor measures ambient light with a light dependent resistor and a
// capacitor on one GPIO line: the brighter it is, the faster the capacitor
// charges past the input threshold.
type LightSensor struct {
	pin         gpio.PinIO
	chargeLimit time.Duration
	discharge   time.Duration
}

// NewLightSensor returns a sensor on pin. Charge times at or above
// chargeLimit read as full darkness.
func NewLightSensor(pin gpio.PinIO, chargeLimit, discharge time.Duration) *LightSensor {
	return &LightSensor{pin: pin, chargeLimit: chargeLimit, discharge: discharge}
}

// Read returns the light level as a fraction in [0, 1].
func (l *LightSensor) Read() (float64, error) {
	if err := l.pin.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("light sensor discharge: %w", err)
	}
	time.Sleep(l.discharge)

	if err := l.pin.In(gpio.Float, gpio.RisingEdge); err != nil {
		return 0, fmt.Errorf("light sensor charge: %w", err)
	}
	start := time.Now()
	if l.pin.Read() == gpio.High {
		return ChargeFraction(0, l.chargeLimit), nil
	}
	if !l.pin.WaitForEdge(l.chargeLimit) {
		return ChargeFraction(l.chargeLimit, l.chargeLimit), nil
	}
	return ChargeFraction(time.Since(start), l.chargeLimit), nil
}

// Halt stops edge detection on the line.
func (l *LightSensor) Halt() error {
	return l.pin.In(gpio.Float, gpio.NoEdge)
}

// ChargeFraction maps a charge time to a light fraction: 1 for an instant
// charge, 0 at or beyond limit.
func ChargeFraction(elapsed, limit time.Duration) float64 {
	if limit <= 0 {
		return 0
	}
	return 1 - float64(min(max(elapsed, 0), limit))/float64(limit)
}

// PowerLine drives the transistor that feeds the humidity probe.
type PowerLine struct {
	pin gpio.PinOut
}

// NewPowerLine wraps pin.
func NewPowerLine(pin gpio.PinOut) *PowerLine {
	return &PowerLine{pin: pin}
}

// SetPower switches the probe supply.
func (p *PowerLine) SetPower(on bool) error {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := p.pin.Out(level); err != nil {
		return fmt.Errorf("probe power %v: %w", level, err)
	}
	return nil
}
