package domain

import (
	"fmt"
	"slices"
)

// Feature column names shared by daily and hourly feature sets.
const (
	ColTempMax = "temp_max"
	ColTempMin = "temp_min"
	ColLat     = "lat"
	ColLon     = "lon"
	ColDate    = "date"
)

// DefaultSequenceLength is the number of daily rows in one model window.
const DefaultSequenceLength = 7

// FeatureVector is one row of numeric features in FeatureSet column order.
type FeatureVector []float64

// FeatureSet fixes the column order of a model's input rows.
type FeatureSet struct {
	Name    string
	Columns []string
}

var (
	// TemperatureFeatures feeds the temperature model (7×5 = 35 inputs).
	TemperatureFeatures = FeatureSet{
		Name:    "temperature",
		Columns: []string{ColTempMax, ColTempMin, ColLat, ColLon, ColDate},
	}

	// PrecipitationFeatures feeds the precipitation model (7×4 = 28 inputs).
	PrecipitationFeatures = FeatureSet{
		Name:    "precipitation",
		Columns: []string{ColLat, ColLon, ColPrcp, ColDate},
	}
)

// Index returns the position of column in the set, or -1.
func (fs FeatureSet) Index(column string) int {
	return slices.Index(fs.Columns, column)
}

// Width is the number of columns per row.
func (fs FeatureSet) Width() int { return len(fs.Columns) }

// Window is an ordered sequence of consecutive feature rows.
type Window struct {
	Columns []string
	Rows    []FeatureVector
}

// Len is the number of rows (time steps).
func (w Window) Len() int { return len(w.Rows) }

// Width is the number of columns per row.
func (w Window) Width() int { return len(w.Columns) }

// Flatten concatenates rows in time order.
func (w Window) Flatten() []float64 {
	out := make([]float64, 0, w.Len()*w.Width())
	for _, r := range w.Rows {
		out = append(out, r...)
	}
	return out
}

// Column returns every value of column i in time order.
func (w Window) Column(i int) []float64 {
	out := make([]float64, len(w.Rows))
	for t, r := range w.Rows {
		out[t] = r[i]
	}
	return out
}

// Feature returns the value of a daily feature column for this row.
func (r DailyRow) Feature(column string, lat, lon float64) (float64, error) {
	switch column {
	case ColTempMax:
		return r.TempMax, nil
	case ColTempMin:
		return r.TempMin, nil
	case ColPrcp:
		return r.Precipitation, nil
	case ColLat:
		return lat, nil
	case ColLon:
		return lon, nil
	case ColDate:
		return float64(DateOrdinal(r.Date)), nil
	default:
		return 0, fmt.Errorf("unknown daily feature %q", column)
	}
}

// BuildWindow selects the last n daily rows and projects them onto fs.
func BuildWindow(rows []DailyRow, lat, lon float64, fs FeatureSet, n int) (Window, error) {
	last, err := LastN(rows, n)
	if err != nil {
		return Window{}, err
	}

	w := Window{Columns: slices.Clone(fs.Columns), Rows: make([]FeatureVector, len(last))}
	for t, r := range last {
		vec := make(FeatureVector, len(fs.Columns))
		for i, col := range fs.Columns {
			v, err := r.Feature(col, lat, lon)
			if err != nil {
				return Window{}, err
			}
			vec[i] = v
		}
		w.Rows[t] = vec
	}
	return w, nil
}

// HourlyWindow selects the last n hourly observations and projects them onto
// the given measurement columns plus lat and lon.
func HourlyWindow(obs []Observation, lat, lon float64, columns []string, n int) (Window, error) {
	last, err := LastN(obs, n)
	if err != nil {
		return Window{}, err
	}

	cols := append(slices.Clone(columns), ColLat, ColLon)
	w := Window{Columns: cols, Rows: make([]FeatureVector, len(last))}
	for t, o := range last {
		vec := make(FeatureVector, 0, len(cols))
		for _, col := range columns {
			v, ok := o.Value(col)
			if !ok {
				return Window{}, fmt.Errorf("unknown hourly column %q", col)
			}
			vec = append(vec, v)
		}
		w.Rows[t] = append(vec, lat, lon)
	}
	return w, nil
}
