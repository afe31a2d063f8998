package sensors

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// Barometer reads a BMP180-class pressure sensor (the BMP085 successor,
// register compatible) through the bmxx80 driver.
type Barometer struct {
	dev *bmxx80.Dev
}

// NewBarometer initializes the sensor at addr on bus.
func NewBarometer(bus i2c.Bus, addr uint16) (*Barometer, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.Opts{
		Temperature: bmxx80.O1x,
		Pressure:    bmxx80.O1x,
	})
	if err != nil {
		return nil, fmt.Errorf("barometer init (0x%02X): %w", addr, err)
	}
	return &Barometer{dev: dev}, nil
}

func (b *Barometer) sense() (physic.Env, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return physic.Env{}, fmt.Errorf("barometer sense: %w", err)
	}
	return e, nil
}

// ReadTemperature returns the die temperature in °C.
func (b *Barometer) ReadTemperature() (float64, error) {
	e, err := b.sense()
	if err != nil {
		return 0, err
	}
	return e.Temperature.Celsius(), nil
}

// ReadPressure returns the uncorrected station pressure in Pa.
func (b *Barometer) ReadPressure() (float64, error) {
	e, err := b.sense()
	if err != nil {
		return 0, err
	}
	return float64(e.Pressure) / float64(physic.Pascal), nil
}

// ReadSeaLevelPressure returns the pressure reduced to sea level for a
// station at elevation meters, in Pa.
func (b *Barometer) ReadSeaLevelPressure(elevation float64) (float64, error) {
	pa, err := b.ReadPressure()
	if err != nil {
		return 0, err
	}
	return SeaLevelPressure(pa, elevation), nil
}

// Halt stops the sensor.
func (b *Barometer) Halt() error {
	return b.dev.Halt()
}

func (b *Barometer) String() string {
	return b.dev.String()
}

// SeaLevelPressure applies the international barometric formula:
//
//	p0 = p / (1 - h/44330)^5.255
func SeaLevelPressure(pa, elevation float64) float64 {
	return pa / math.Pow(1-elevation/44330.0, 5.255)
}
