package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/trend"
)

// Telemetry is the JSON message mirrored to the broker once per cycle.
// Probe fields are omitted when the probe failed that cycle.
type Telemetry struct {
	StationID        string    `json:"station_id"`
	Timestamp        time.Time `json:"timestamp"`
	ProbeTemperature *float64  `json:"probe_temperature_c,omitempty"`
	Humidity         *float64  `json:"humidity_pct,omitempty"`
	BaroTemperature  float64   `json:"baro_temperature_c"`
	Pressure         float64   `json:"pressure_pa"`
	SeaLevelPressure int       `json:"sea_level_pa"`
	LightLevel       float64   `json:"light_level_pct"`
	Trend            string    `json:"trend"`
}

// NewTelemetry builds the message for one cycle.
func NewTelemetry(stationID string, r env.Reading, ts time.Time, dir trend.Direction) Telemetry {
	t := Telemetry{
		StationID:        stationID,
		Timestamp:        ts,
		BaroTemperature:  r.BarometerTemperature,
		Pressure:         r.StationPressure,
		SeaLevelPressure: r.SeaLevelPressure,
		LightLevel:       r.LightLevel,
		Trend:            dir.String(),
	}
	if r.ProbeValid {
		temp, hum := r.ProbeTemperature, r.Humidity
		t.ProbeTemperature = &temp
		t.Humidity = &hum
	}
	return t
}

// DecodeTelemetry parses a message published by a station.
func DecodeTelemetry(payload []byte) (Telemetry, error) {
	var t Telemetry
	if err := json.Unmarshal(payload, &t); err != nil {
		return Telemetry{}, fmt.Errorf("decode telemetry: %w", err)
	}
	return t, nil
}

// String renders one console line.
func (t Telemetry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", t.StationID, t.Timestamp.Format(time.TimeOnly))
	if t.Humidity != nil && t.ProbeTemperature != nil {
		fmt.Fprintf(&b, " hum=%5.1f%% probe=%5.1f°C", *t.Humidity, *t.ProbeTemperature)
	} else {
		b.WriteString(" hum=  n/a  probe=  n/a  ")
	}
	fmt.Fprintf(&b, " baro=%5.1f°C p=%.3fkPa sea=%.3fkPa (%s) light=%5.1f%%",
		t.BaroTemperature, t.Pressure/1000, float64(t.SeaLevelPressure)/1000, t.Trend, t.LightLevel)
	return b.String()
}
