// Package csvfile reads and writes the CSV tables exchanged with offline
// tooling: projected trajectories out, observation columns in.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// Fixed leading columns of a trajectory table.
const (
	colTime = "time"
	colLon  = "lon"
	colLat  = "lat"
)

// Header returns the column names of t's table: time, lon, lat, then the
// projected columns in order.
func Header(t domain.Trajectory) []string {
	return append([]string{colTime, colLon, colLat}, t.Columns...)
}

// Encode writes t as CSV with one row per time step.
func Encode(w io.Writer, t domain.Trajectory) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(t)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	lon := formatFloat(t.Lon)
	lat := formatFloat(t.Lat)
	record := make([]string, 3+len(t.Columns))
	for i, step := range t.Steps {
		if len(step.Values) != len(t.Columns) {
			return &domain.DimensionMismatchError{
				Component: "trajectory step " + strconv.Itoa(i),
				Want:      []int{len(t.Columns)},
				Got:       []int{len(step.Values)},
			}
		}
		record[0] = step.Time.UTC().Format(time.RFC3339)
		record[1] = lon
		record[2] = lat
		for j, v := range step.Values {
			record[3+j] = formatFloat(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write step %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Writer persists trajectories as files under a directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter returns a Writer rooted at dir. The directory is created on
// first use.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Save writes t to <dir>/trajectory_<name>.csv and returns the path. The
// file is written to a temporary name first so readers never observe a
// partial table.
func (w *Writer) Save(name string, t domain.Trajectory) (string, error) {
	name = sanitize(name)
	if name == "" {
		return "", errors.New("trajectory file name is empty")
	}
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, "trajectory_"+name+".csv")
	tmp, err := os.CreateTemp(w.dir, ".trajectory-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, t); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename to %s: %w", path, err)
	}

	w.logger.Info("trajectory saved", "path", path, "steps", len(t.Steps))
	return path, nil
}

// sanitize keeps name safe to embed in a file name.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, name)
}
