package domain

import (
	"context"
	"time"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves place names to coordinates. An empty result (no
// coordinates) means the place is unknown.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, name, region string) (GeocodingResult, error)
}

// StationLocator finds the station nearest to a position. Implementations
// return *NotFoundError when no station qualifies.
type StationLocator interface {
	NearestStation(ctx context.Context, lat, lon float64) (Station, error)
}

// HistoryFetcher returns hourly observations for a station in [start, end],
// chronological, with missing measurements set to zero.
type HistoryFetcher interface {
	FetchHourly(ctx context.Context, stationID string, start, end time.Time) ([]Observation, error)
}

// ObservationStore persists observations. Stored rows are immutable: saving
// an observation whose (station, time) already exists is a no-op. Latest
// reports the newest stored time for a station, with ok false when none.
type ObservationStore interface {
	SaveObservations(ctx context.Context, obs []Observation) (int, error)
	Observations(ctx context.Context, stationID string, start, end time.Time) ([]Observation, error)
	Latest(ctx context.Context, stationID string) (latest time.Time, ok bool, err error)
}
