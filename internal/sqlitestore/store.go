// Package sqlitestore keeps station observations in a local SQLite file, for
// stations without an InfluxDB server.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relabs-tech/weather_station/internal/recorder"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/insert-observation.sql
var insertObservationSQL string

//go:embed sql/get-last-observation.sql
var getLastObservationSQL string

//go:embed sql/get-observation-count.sql
var getObservationCountSQL string

// Store is a recorder.Sink backed by SQLite.
type Store struct {
	db      *sql.DB
	station string
}

// Open opens (creating if needed) the database at path and applies the
// schema. Rows are tagged with station.
func Open(ctx context.Context, path, station string) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return &Store{db: db, station: station}, nil
}

func (s *Store) Write(ctx context.Context, obs []recorder.Observation) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertObservationSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		ts := o.Time.UTC().Format(time.RFC3339Nano)
		if _, err := stmt.ExecContext(ctx, s.station, o.Measurement, o.Source, o.Field, o.Value, ts); err != nil {
			return fmt.Errorf("insert %s/%s/%s: %w", o.Measurement, o.Source, o.Field, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Last returns the most recent value of one series, or false when the
// series is empty.
func (s *Store) Last(ctx context.Context, measurement, source, field string) (recorder.Observation, bool, error) {
	var (
		value float64
		ts    string
	)
	err := s.db.QueryRowContext(ctx, getLastObservationSQL, measurement, source, field).Scan(&value, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return recorder.Observation{}, false, nil
	}
	if err != nil {
		return recorder.Observation{}, false, fmt.Errorf("last %s/%s/%s: %w", measurement, source, field, err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return recorder.Observation{}, false, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return recorder.Observation{Measurement: measurement, Source: source, Field: field, Value: value, Time: t}, true, nil
}

// Count returns the number of stored observations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, getObservationCountSQL).Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildDSN(path string) (string, error) {
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	if path == ":memory:" {
		return "file::memory:?" + strings.Join(params[:2], "&"), nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
