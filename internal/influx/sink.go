// Package influx persists station observations to InfluxDB 1.x over HTTP.
package influx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	influxdb "github.com/influxdata/influxdb1-client/v2"

	"github.com/relabs-tech/weather_station/internal/recorder"
)

// Config selects the server and the database the points go to.
type Config struct {
	Addr            string
	Username        string
	Password        string
	Database        string
	RetentionPolicy string
	Timeout         time.Duration
}

// Sink writes one batch of points per Write call.
type Sink struct {
	client  influxdb.Client
	cfg     Config
	version string
}

// New creates the HTTP client and pings the server so a wrong address fails
// before the first cycle.
func New(cfg Config) (*Sink, error) {
	client, err := influxdb.NewHTTPClient(influxdb.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("influx client: %w", err)
	}
	s := &Sink{client: client, cfg: cfg}
	if err := s.Ping(); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

// Ping checks the server is reachable and remembers its version.
func (s *Sink) Ping() error {
	_, version, err := s.client.Ping(s.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("influx ping %s: %w", s.cfg.Addr, err)
	}
	s.version = version
	return nil
}

// Version is the server version reported by the last successful ping.
func (s *Sink) Version() string { return s.version }

func (s *Sink) Write(ctx context.Context, obs []recorder.Observation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bp, err := influxdb.NewBatchPoints(influxdb.BatchPointsConfig{
		Database:        s.cfg.Database,
		RetentionPolicy: s.cfg.RetentionPolicy,
	})
	if err != nil {
		return fmt.Errorf("influx batch: %w", err)
	}
	for _, o := range obs {
		pt, err := influxdb.NewPoint(
			o.Measurement,
			map[string]string{"source": o.Source},
			map[string]interface{}{o.Field: o.Value},
			o.Time,
		)
		if err != nil {
			return fmt.Errorf("influx point %s/%s: %w", o.Measurement, o.Source, err)
		}
		bp.AddPoint(pt)
	}
	if err := s.client.Write(bp); err != nil {
		return fmt.Errorf("influx write %s/%s: %w", s.cfg.Database, s.cfg.RetentionPolicy, err)
	}
	return nil
}

// Last returns the most recent value of one series, or false when the
// series is empty.
func (s *Sink) Last(ctx context.Context, measurement, source, field string) (recorder.Observation, bool, error) {
	if err := ctx.Err(); err != nil {
		return recorder.Observation{}, false, err
	}
	q := influxdb.NewQuery(
		fmt.Sprintf(`SELECT last(%q) FROM %q WHERE "source" = '%s'`, field, measurement, source),
		s.cfg.Database, "",
	)
	res, err := s.client.Query(q)
	if err != nil {
		return recorder.Observation{}, false, fmt.Errorf("influx query: %w", err)
	}
	if err := res.Error(); err != nil {
		return recorder.Observation{}, false, fmt.Errorf("influx query: %w", err)
	}
	for _, r := range res.Results {
		for _, row := range r.Series {
			if len(row.Values) < 1 || len(row.Values[0]) < 2 {
				continue
			}
			v := row.Values[0]
			return recorder.Observation{
				Measurement: measurement,
				Source:      source,
				Field:       field,
				Value:       parseFloat(v[1]),
				Time:        parseTimestamp(v[0]),
			}, true, nil
		}
	}
	return recorder.Observation{}, false, nil
}

func (s *Sink) Close() error {
	return s.client.Close()
}

func parseTimestamp(v interface{}) time.Time {
	str, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	ts, _ := time.Parse(time.RFC3339Nano, str)
	return ts
}

func parseFloat(v interface{}) float64 {
	n, ok := v.(json.Number)
	if ok {
		v, err := n.Float64()
		if err == nil {
			return v
		}
	}
	return 0
}
