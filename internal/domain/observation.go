package domain

import (
	"fmt"
	"time"
)

// Hourly observation column names, in the order Meteostat reports them.
const (
	ColTemp      = "temp"
	ColDewpoint  = "dwpt"
	ColHumidity  = "rhum"
	ColPrcp      = "prcp"
	ColSnow      = "snow"
	ColWindDir   = "wdir"
	ColWindSpeed = "wspd"
	ColWindGust  = "wpgt"
	ColPressure  = "pres"
	ColSunshine  = "tsun"
	ColCondition = "coco"
)

// HourlyColumns lists every measurement column of an Observation.
var HourlyColumns = []string{
	ColTemp, ColDewpoint, ColHumidity, ColPrcp, ColSnow,
	ColWindDir, ColWindSpeed, ColWindGust, ColPressure, ColSunshine, ColCondition,
}

// Observation is one hourly station record. Missing measurements are zero.
type Observation struct {
	StationID     string    `json:"station_id"`
	Time          time.Time `json:"time"`
	Temperature   float64   `json:"temp"`
	Dewpoint      float64   `json:"dwpt"`
	Humidity      float64   `json:"rhum"`
	Precipitation float64   `json:"prcp"`
	Snow          float64   `json:"snow"`
	WindDirection float64   `json:"wdir"`
	WindSpeed     float64   `json:"wspd"`
	WindGust      float64   `json:"wpgt"`
	Pressure      float64   `json:"pres"`
	Sunshine      float64   `json:"tsun"`
	Condition     float64   `json:"coco"`
}

// Value returns the measurement stored under column.
func (o Observation) Value(column string) (float64, bool) {
	switch column {
	case ColTemp:
		return o.Temperature, true
	case ColDewpoint:
		return o.Dewpoint, true
	case ColHumidity:
		return o.Humidity, true
	case ColPrcp:
		return o.Precipitation, true
	case ColSnow:
		return o.Snow, true
	case ColWindDir:
		return o.WindDirection, true
	case ColWindSpeed:
		return o.WindSpeed, true
	case ColWindGust:
		return o.WindGust, true
	case ColPressure:
		return o.Pressure, true
	case ColSunshine:
		return o.Sunshine, true
	case ColCondition:
		return o.Condition, true
	default:
		return 0, false
	}
}

// StationSeries is the chronological observation history of one station.
type StationSeries struct {
	StationID    string
	Lat          float64
	Lon          float64
	Observations []Observation
}

// Validate checks that observations are strictly chronological, which also
// rules out two observations sharing a timestamp.
func (s StationSeries) Validate() error {
	for i := 1; i < len(s.Observations); i++ {
		prev, cur := s.Observations[i-1].Time, s.Observations[i].Time
		if !cur.After(prev) {
			return fmt.Errorf("station %s: observation %d at %s is not after %s",
				s.StationID, i, cur.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
	}
	return nil
}

// Station is a weather station with its hourly archive range.
type Station struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	HourlyStart time.Time `json:"hourly_start"`
	HourlyEnd   time.Time `json:"hourly_end"`
}

// Coordinates is a resolved WGS-84 position.
type Coordinates struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PlaceName string  `json:"place_name,omitempty"`
}
