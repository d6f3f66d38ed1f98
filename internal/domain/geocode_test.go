package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
	query  string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name, _ string) (GeocodingResult, error) {
	m.calls++
	m.query = name
	return m.result, m.err
}

// --- tests ---

func TestResolveCity(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{
		Lat: 50.1109, Lon: 8.6821, PlaceName: "Frankfurt", FormattedAddress: "Frankfurt am Main, Hesse, Germany",
	}}

	coords, err := ResolveCity(context.Background(), geo, " Frankfurt ")
	require.NoError(t, err)
	assert.Equal(t, 50.1109, coords.Lat)
	assert.Equal(t, 8.6821, coords.Lon)
	assert.Equal(t, "Frankfurt am Main, Hesse, Germany", coords.PlaceName)
	assert.Equal(t, "Frankfurt", geo.query)
}

func TestResolveCity_EmptyResultIsNotFound(t *testing.T) {
	geo := &mockGeocoder{}

	_, err := ResolveCity(context.Background(), geo, "Atlantis")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "city", notFound.Resource)
	assert.Equal(t, KindNotFound, ErrorKind(err))
}

func TestResolveCity_ProviderError(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("API timeout")}

	_, err := ResolveCity(context.Background(), geo, "Oslo")
	require.Error(t, err)
	assert.Equal(t, KindInternal, ErrorKind(err))
}

func TestResolveCity_BlankName(t *testing.T) {
	geo := &mockGeocoder{}

	_, err := ResolveCity(context.Background(), geo, "   ")
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, geo.calls)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&NotFoundError{Resource: "station"}, KindNotFound},
		{fmt.Errorf("fetch: %w", ErrNoHistory), KindNoHistory},
		{fmt.Errorf("window: %w", &InsufficientHistoryError{Have: 2, Want: 7}), KindInsufficientHistory},
		{&DimensionMismatchError{Component: "cnn", Want: []int{28}, Got: []int{35}}, KindDimensionMismatch},
		{&ModelArtifactMissingError{Model: "lstm", Path: "x.json"}, KindModelUnavailable},
		{fmt.Errorf("%w: bad", ErrInvalidRequest), KindInvalidRequest},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ErrorKind(tc.err))
	}
}
