// Package recorder turns station readings into tagged time-series
// observations and hands them to a persistence sink.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/relabs-tech/weather_station/internal/env"
)

// Observation is one tagged, timestamped numeric point.
type Observation struct {
	Measurement string
	Source      string // stored as the "source" tag
	Field       string
	Value       float64
	Time        time.Time
}

// Sink persists observation batches.
type Sink interface {
	Write(ctx context.Context, obs []Observation) error
	Close() error
}

// Observations maps a reading to its points. Probe values are left out when
// the probe failed this cycle. Field names follow the station's existing
// series, so the "kPa" fields hold Pa.
func Observations(r env.Reading, ts time.Time) []Observation {
	obs := make([]Observation, 0, 6)
	add := func(measurement, source, field string, v float64) {
		obs = append(obs, Observation{Measurement: measurement, Source: source, Field: field, Value: v, Time: ts})
	}

	add("pressure", "bmp", "kPa", r.StationPressure)
	add("pressure", "sea", "kPa", float64(r.SeaLevelPressure))
	if r.ProbeValid {
		add("humidity", "dht", "percent", r.Humidity)
		add("temperature", "dht", "celsius", r.ProbeTemperature)
	}
	add("temperature", "bmp", "celsius", r.BarometerTemperature)
	add("light_level", "ldr", "percent", r.LightLevel)
	return obs
}

// Recorder writes one batch per cycle.
type Recorder struct {
	sink Sink
}

func New(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record writes the observations of r stamped with ts.
func (rec *Recorder) Record(ctx context.Context, r env.Reading, ts time.Time) error {
	if err := rec.sink.Write(ctx, Observations(r, ts)); err != nil {
		return fmt.Errorf("record observations: %w", err)
	}
	return nil
}
