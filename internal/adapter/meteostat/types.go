package meteostat

import (
	"fmt"
	"time"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// Meteostat API response types.

type nearbyResponse struct {
	Data []struct {
		ID       string  `json:"id"`
		Distance float64 `json:"distance"`
	} `json:"data"`
}

type metaResponse struct {
	Data *stationMeta `json:"data"`
}

type stationMeta struct {
	ID       string            `json:"id"`
	Name     map[string]string `json:"name"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Inventory struct {
		Hourly struct {
			Start *string `json:"start"`
			End   *string `json:"end"`
		} `json:"hourly"`
	} `json:"inventory"`
}

func (m *stationMeta) station() (domain.Station, error) {
	s := domain.Station{
		ID:   m.ID,
		Name: m.Name["en"],
		Lat:  m.Location.Latitude,
		Lon:  m.Location.Longitude,
	}
	var err error
	if s.HourlyStart, err = parseDate(m.Inventory.Hourly.Start); err != nil {
		return domain.Station{}, fmt.Errorf("station %s hourly start: %w", m.ID, err)
	}
	if s.HourlyEnd, err = parseDate(m.Inventory.Hourly.End); err != nil {
		return domain.Station{}, fmt.Errorf("station %s hourly end: %w", m.ID, err)
	}
	return s, nil
}

func parseDate(s *string) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, *s, time.UTC)
}

type hourlyResponse struct {
	Data []hourlyRow `json:"data"`
}

// hourlyRow mirrors one hourly record; every measurement may be null.
type hourlyRow struct {
	Time string   `json:"time"`
	Temp *float64 `json:"temp"`
	Dwpt *float64 `json:"dwpt"`
	Rhum *float64 `json:"rhum"`
	Prcp *float64 `json:"prcp"`
	Snow *float64 `json:"snow"`
	Wdir *float64 `json:"wdir"`
	Wspd *float64 `json:"wspd"`
	Wpgt *float64 `json:"wpgt"`
	Pres *float64 `json:"pres"`
	Tsun *float64 `json:"tsun"`
	Coco *float64 `json:"coco"`
}

// observation converts the row, filling nulls with zero.
func (r hourlyRow) observation(stationID string) (domain.Observation, error) {
	t, err := time.ParseInLocation(timeLayout, r.Time, time.UTC)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse hourly time %q: %w", r.Time, err)
	}
	return domain.Observation{
		StationID:     stationID,
		Time:          t,
		Temperature:   orZero(r.Temp),
		Dewpoint:      orZero(r.Dwpt),
		Humidity:      orZero(r.Rhum),
		Precipitation: orZero(r.Prcp),
		Snow:          orZero(r.Snow),
		WindDirection: orZero(r.Wdir),
		WindSpeed:     orZero(r.Wspd),
		WindGust:      orZero(r.Wpgt),
		Pressure:      orZero(r.Pres),
		Sunshine:      orZero(r.Tsun),
		Condition:     orZero(r.Coco),
	}, nil
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
