package domain

import (
	"context"
	"fmt"
	"strings"
)

// ResolveCity geocodes a city name. An empty answer from the provider is a
// *NotFoundError; provider failures are returned wrapped.
func ResolveCity(ctx context.Context, geocoder Geocoder, city string) (Coordinates, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return Coordinates{}, fmt.Errorf("%w: city name is required", ErrInvalidRequest)
	}

	result, err := geocoder.ForwardGeocode(ctx, city, "")
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	if result.Lat == 0 && result.Lon == 0 {
		return Coordinates{}, &NotFoundError{Resource: "city", Query: city}
	}

	name := result.PlaceName
	if result.FormattedAddress != "" {
		name = result.FormattedAddress
	}
	return Coordinates{Lat: result.Lat, Lon: result.Lon, PlaceName: name}, nil
}
