package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourly(day time.Time, temps, precips []float64) []Observation {
	obs := make([]Observation, len(temps))
	for i := range temps {
		obs[i] = Observation{
			StationID:     "10637",
			Time:          day.Add(time.Duration(i) * time.Hour),
			Temperature:   temps[i],
			Precipitation: precips[i],
		}
	}
	return obs
}

func TestAggregateDaily(t *testing.T) {
	d1 := time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	obs := append(
		hourly(d1, []float64{4, 9, 12, 7}, []float64{0, 0.5, 1.5, 0}),
		hourly(d2, []float64{-2, 0, 3}, []float64{0, 0, 0})...,
	)

	rows := AggregateDaily(obs)
	require.Len(t, rows, 2)

	assert.Equal(t, d1, rows[0].Date)
	assert.Equal(t, 12.0, rows[0].TempMax)
	assert.Equal(t, 4.0, rows[0].TempMin)
	assert.InDelta(t, 2.0, rows[0].Precipitation, 1e-9)

	assert.Equal(t, d2, rows[1].Date)
	assert.Equal(t, 3.0, rows[1].TempMax)
	assert.Equal(t, -2.0, rows[1].TempMin)
	assert.Zero(t, rows[1].Precipitation)
}

func TestAggregateDaily_ZeroFilledGapsCount(t *testing.T) {
	day := time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC)
	// The second hour was null upstream and arrives as zero.
	obs := hourly(day, []float64{8, 0, 10}, []float64{2, 0, 1})

	rows := AggregateDaily(obs)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].TempMin)
	assert.InDelta(t, 3.0, rows[0].Precipitation, 1e-9)
}

func TestAggregateDaily_GroupsByUTCDate(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*3600)
	obs := []Observation{
		{Time: time.Date(2024, 4, 26, 1, 0, 0, 0, berlin), Temperature: 5},  // 2024-04-25 23:00 UTC
		{Time: time.Date(2024, 4, 26, 3, 0, 0, 0, berlin), Temperature: 11}, // 2024-04-26 01:00 UTC
	}

	rows := AggregateDaily(obs)
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2024, 4, 25, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC), rows[1].Date)
}

func TestAggregateDaily_Empty(t *testing.T) {
	assert.Empty(t, AggregateDaily(nil))
}

func TestLastN(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	got, err := LastN(rows, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7, 8, 9, 10}, got)

	got[0] = 99
	assert.Equal(t, 4, rows[3], "LastN must not alias the input")
}

func TestLastN_Insufficient(t *testing.T) {
	_, err := LastN([]int{1, 2, 3, 4, 5}, 7)
	require.Error(t, err)

	var insufficient *InsufficientHistoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 5, insufficient.Have)
	assert.Equal(t, 7, insufficient.Want)
}

func TestFillGaps(t *testing.T) {
	start := time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)
	obs := []Observation{
		{StationID: "x", Time: start, Temperature: 5},
		{StationID: "x", Time: start.Add(3 * time.Hour), Temperature: 8},
	}

	filled := FillGaps(obs, time.Hour)
	require.Len(t, filled, 4)
	assert.Equal(t, start.Add(time.Hour), filled[1].Time)
	assert.Zero(t, filled[1].Temperature)
	assert.Equal(t, "x", filled[2].StationID)
	assert.Equal(t, 8.0, filled[3].Temperature)
}

func TestDateOrdinal(t *testing.T) {
	assert.Equal(t, 1, DateOrdinal(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 719163, DateOrdinal(time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 739002, DateOrdinal(time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)))
}

func TestStationSeries_Validate(t *testing.T) {
	t0 := time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)

	ok := StationSeries{StationID: "x", Observations: []Observation{{Time: t0}, {Time: t0.Add(time.Hour)}}}
	require.NoError(t, ok.Validate())

	dup := StationSeries{StationID: "x", Observations: []Observation{{Time: t0}, {Time: t0}}}
	require.Error(t, dup.Validate())
}
