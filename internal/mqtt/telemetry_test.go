package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/trend"
)

func TestNewTelemetry_probeFieldsOmittedWhenInvalid(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := env.Reading{
		ProbeTemperature:     21.0,
		Humidity:             45.0,
		BarometerTemperature: 21.2,
		StationPressure:      101325,
		SeaLevelPressure:     101500,
		LightLevel:           50,
	}

	data, err := json.Marshal(NewTelemetry("home", r, ts, trend.Falling))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotContains(t, m, "humidity_pct")
	assert.NotContains(t, m, "probe_temperature_c")
	assert.Equal(t, "falling", m["trend"])
	assert.InDelta(t, 101500, m["sea_level_pa"], 1e-9)
}

func TestDecodeTelemetry_roundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := env.Reading{
		ProbeTemperature: 21.0,
		Humidity:         45.0,
		StationPressure:  101325,
		SeaLevelPressure: 101500,
		ProbeValid:       true,
	}
	data, err := json.Marshal(NewTelemetry("home", r, ts, trend.Flat))
	require.NoError(t, err)

	got, err := DecodeTelemetry(data)
	require.NoError(t, err)
	require.NotNil(t, got.Humidity)
	assert.InDelta(t, 45.0, *got.Humidity, 1e-9)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.Contains(t, got.String(), "hum= 45.0%")
	assert.Contains(t, got.String(), "sea=101.500kPa (flat)")

	_, err = DecodeTelemetry([]byte("{"))
	assert.Error(t, err)
}
