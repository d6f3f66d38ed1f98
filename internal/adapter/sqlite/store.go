// Package sqlite persists hourly observations in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/insert-observation.sql
var insertObservationSQL string

//go:embed sql/select-observations.sql
var selectObservationsSQL string

//go:embed sql/latest-observation.sql
var latestObservationSQL string

const memoryPath = ":memory:"

var _ domain.ObservationStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if path == memoryPath {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

func buildDSN(path string) (string, error) {
	if path == memoryPath || strings.HasPrefix(path, "file:") {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL", nil
}

// Store implements domain.ObservationStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore wraps an opened database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// SaveObservations inserts obs in one transaction. Rows whose (station, time)
// already exist are left untouched. It returns the number of new rows.
func (s *Store) SaveObservations(ctx context.Context, obs []domain.Observation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertObservationSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.logger.Error("close insert statement", "error", err)
		}
	}()

	var inserted int
	for _, o := range obs {
		res, err := stmt.ExecContext(ctx,
			o.StationID, o.Time.UTC().Unix(),
			o.Temperature, o.Dewpoint, o.Humidity, o.Precipitation, o.Snow,
			o.WindDirection, o.WindSpeed, o.WindGust, o.Pressure, o.Sunshine, o.Condition,
		)
		if err != nil {
			return 0, fmt.Errorf("insert observation %s@%s: %w", o.StationID, o.Time.Format(time.RFC3339), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// Observations returns stored rows for stationID in [start, end], oldest first.
func (s *Store) Observations(ctx context.Context, stationID string, start, end time.Time) ([]domain.Observation, error) {
	rows, err := s.db.QueryContext(ctx, selectObservationsSQL, stationID, start.UTC().Unix(), end.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("close observation rows", "error", err)
		}
	}()

	var out []domain.Observation
	for rows.Next() {
		var (
			o  domain.Observation
			ts int64
		)
		if err := rows.Scan(&o.StationID, &ts,
			&o.Temperature, &o.Dewpoint, &o.Humidity, &o.Precipitation, &o.Snow,
			&o.WindDirection, &o.WindSpeed, &o.WindGust, &o.Pressure, &o.Sunshine, &o.Condition,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Time = time.Unix(ts, 0).UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

// Latest returns the time of the newest stored observation for stationID.
// The boolean is false when the station has no rows.
func (s *Store) Latest(ctx context.Context, stationID string) (time.Time, bool, error) {
	var ts sql.NullInt64
	if err := s.db.QueryRowContext(ctx, latestObservationSQL, stationID).Scan(&ts); err != nil {
		return time.Time{}, false, fmt.Errorf("latest observation: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), true, nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
