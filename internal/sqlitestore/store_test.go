package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/recorder"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "weather.db"), "home")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_recordAndLast(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	rec := recorder.New(s)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := env.Reading{
		ProbeTemperature:     21.0,
		Humidity:             45.0,
		BarometerTemperature: 21.2,
		StationPressure:      101325,
		SeaLevelPressure:     101500,
		LightLevel:           50,
		ProbeValid:           true,
	}
	require.NoError(t, rec.Record(ctx, r, t0))

	r.SeaLevelPressure = 101480
	r.ProbeValid = false
	require.NoError(t, rec.Record(ctx, r, t0.Add(2*time.Second)))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	last, ok, err := s.Last(ctx, "pressure", "sea", "kPa")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 101480, last.Value, 1e-9)
	assert.Equal(t, t0.Add(2*time.Second), last.Time)

	hum, ok, err := s.Last(ctx, "humidity", "dht", "percent")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, t0, hum.Time)
}

func TestStore_lastEmpty(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Last(context.Background(), "pressure", "sea", "kPa")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_reopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.db")
	ctx := context.Background()

	s, err := Open(ctx, path, "home")
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, []recorder.Observation{
		{Measurement: "light_level", Source: "ldr", Field: "percent", Value: 12.5, Time: time.Now()},
	}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, "home")
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN("weather.db")
	require.NoError(t, err)
	assert.Equal(t, "file:weather.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", dsn)

	dsn, err = buildDSN("file:weather.db?cache=shared")
	require.NoError(t, err)
	assert.Equal(t, "file:weather.db?cache=shared&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", dsn)
}
