package domain

import (
	"sort"
	"time"
)

// unixEpochOrdinal is the proleptic Gregorian ordinal of 1970-01-01.
const unixEpochOrdinal = 719163

// DailyRow is one calendar day of aggregated observations.
type DailyRow struct {
	Date          time.Time `json:"date"`
	TempMax       float64   `json:"temp_max"`
	TempMin       float64   `json:"temp_min"`
	Precipitation float64   `json:"prcp"`
}

// AggregateDaily groups hourly observations by UTC calendar date. Observations
// are expected in chronological order so that the first occurrence of a
// temperature extreme is the one kept.
func AggregateDaily(obs []Observation) []DailyRow {
	rows := make([]DailyRow, 0, len(obs)/24+1)
	index := make(map[time.Time]int)

	for _, o := range obs {
		day := TruncateDay(o.Time)
		i, ok := index[day]
		if !ok {
			index[day] = len(rows)
			rows = append(rows, DailyRow{
				Date:          day,
				TempMax:       o.Temperature,
				TempMin:       o.Temperature,
				Precipitation: o.Precipitation,
			})
			continue
		}

		r := &rows[i]
		if o.Temperature > r.TempMax {
			r.TempMax = o.Temperature
		}
		if o.Temperature < r.TempMin {
			r.TempMin = o.Temperature
		}
		r.Precipitation += o.Precipitation
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Date.Before(rows[b].Date) })
	return rows
}

// LastN returns the most recent n rows of a chronological slice.
func LastN[T any](rows []T, n int) ([]T, error) {
	if n <= 0 || len(rows) < n {
		return nil, &InsufficientHistoryError{Have: len(rows), Want: n}
	}
	out := make([]T, n)
	copy(out, rows[len(rows)-n:])
	return out, nil
}

// FillGaps inserts zero-valued observations for every missing step between
// the first and last observation. Input must be chronological.
func FillGaps(obs []Observation, step time.Duration) []Observation {
	if len(obs) < 2 || step <= 0 {
		return obs
	}

	out := make([]Observation, 0, len(obs))
	out = append(out, obs[0])
	for _, o := range obs[1:] {
		prev := out[len(out)-1]
		for t := prev.Time.Add(step); t.Before(o.Time); t = t.Add(step) {
			out = append(out, Observation{StationID: o.StationID, Time: t})
		}
		out = append(out, o)
	}
	return out
}

// TruncateDay returns midnight UTC of t's calendar date.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateOrdinal returns the proleptic Gregorian ordinal of t's UTC date
// (0001-01-01 is day 1).
func DateOrdinal(t time.Time) int {
	days := TruncateDay(t).Unix() / 86400
	return int(days) + unixEpochOrdinal
}
