package csvfile

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

func sampleTrajectory() domain.Trajectory {
	start := time.Date(2024, 4, 26, 23, 0, 0, 0, time.UTC)
	return domain.Trajectory{
		StationID: "10637",
		Lat:       50.05,
		Lon:       8.6,
		Columns:   []string{domain.ColTemp, domain.ColPrcp},
		Steps: []domain.TrajectoryStep{
			{Time: start.Add(time.Hour), Values: domain.FeatureVector{11.5, 0}},
			{Time: start.Add(2 * time.Hour), Values: domain.FeatureVector{10.25, 0.3}},
		},
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleTrajectory()))

	want := "time,lon,lat,temp,prcp\n" +
		"2024-04-27T00:00:00Z,8.6,50.05,11.5,0\n" +
		"2024-04-27T01:00:00Z,8.6,50.05,10.25,0.3\n"
	assert.Equal(t, want, buf.String())
}

func TestEncode_RaggedStep(t *testing.T) {
	tr := sampleTrajectory()
	tr.Steps[1].Values = domain.FeatureVector{1}

	err := Encode(io.Discard, tr)

	var mismatch *domain.DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []int{2}, mismatch.Want)
	assert.Equal(t, []int{1}, mismatch.Got)
}

func TestWriter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	path, err := w.Save("req/../1", sampleTrajectory())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trajectory_req1.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time,lon,lat,temp,prcp\n"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is removed")
}

func TestWriter_Save_EmptyName(t *testing.T) {
	w := NewWriter(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := w.Save("../", sampleTrajectory())
	require.Error(t, err)
}

func TestReadColumn(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		column  string
		want    []float64
		wantErr bool
	}{
		{
			name:   "named column",
			input:  "time,temp,prcp\n2024-04-20 00:00:00,8.1,0\n2024-04-20 01:00:00,7.6,0.4\n",
			column: "temp",
			want:   []float64{8.1, 7.6},
		},
		{
			name:   "case insensitive with empty cell",
			input:  "time, TEMP\na,1.5\nb,\n",
			column: "temp",
			want:   []float64{1.5, 0},
		},
		{name: "unknown column", input: "time,temp\na,1\n", column: "prcp", wantErr: true},
		{name: "bad number", input: "temp\nwarm\n", column: "temp", wantErr: true},
		{name: "short row", input: "time,temp\na\n", column: "temp", wantErr: true},
		{name: "empty", input: "", column: "temp", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadColumn(strings.NewReader(tt.input), tt.column)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
