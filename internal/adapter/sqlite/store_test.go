package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/observability"
)

var day0 = time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(context.Background(), memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return NewStore(db, discardLogger())
}

func hourly(station string, from time.Time, n int) []domain.Observation {
	obs := make([]domain.Observation, n)
	for i := range obs {
		obs[i] = domain.Observation{
			StationID:     station,
			Time:          from.Add(time.Duration(i) * time.Hour),
			Temperature:   10 + float64(i%24)/2,
			Humidity:      70,
			Precipitation: float64(i%5) / 10,
			Pressure:      1013.2,
			Condition:     3,
		}
	}
	return obs
}

func TestStore_SaveAndQuery(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	obs := hourly("10637", day0, 48)

	n, err := s.SaveObservations(ctx, obs)
	require.NoError(t, err)
	assert.Equal(t, 48, n)

	got, err := s.Observations(ctx, "10637", day0.Add(6*time.Hour), day0.Add(11*time.Hour))
	require.NoError(t, err)
	if diff := cmp.Diff(obs[6:12], got); diff != "" {
		t.Fatalf("observations mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ObservationsAreImmutable(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	obs := hourly("10637", day0, 3)

	_, err := s.SaveObservations(ctx, obs)
	require.NoError(t, err)

	changed := hourly("10637", day0, 4)
	changed[0].Temperature = 99
	n, err := s.SaveObservations(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the new hour is inserted")

	got, err := s.Observations(ctx, "10637", day0, day0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, obs[0].Temperature, got[0].Temperature)
}

func TestStore_StationsAreIsolated(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	_, err := s.SaveObservations(ctx, append(hourly("a", day0, 2), hourly("b", day0, 5)...))
	require.NoError(t, err)

	got, err := s.Observations(ctx, "a", day0, day0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_Latest(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, ok, err := s.Latest(ctx, "10637")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.SaveObservations(ctx, hourly("10637", day0, 10))
	require.NoError(t, err)

	latest, ok, err := s.Latest(ctx, "10637")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, day0.Add(9*time.Hour), latest)
	require.NoError(t, s.CheckReadiness(ctx))
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "obs.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // test cleanup

	s := NewStore(db, discardLogger())
	n, err := s.SaveObservations(context.Background(), hourly("x", day0, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// --- Fetcher tests ---

type stubFetcher struct {
	obs   []domain.Observation
	err   error
	calls int
}

func (s *stubFetcher) FetchHourly(context.Context, string, time.Time, time.Time) ([]domain.Observation, error) {
	s.calls++
	return s.obs, s.err
}

func TestFetcher_PersistsUpstreamRows(t *testing.T) {
	store := setupStore(t)
	upstream := &stubFetcher{obs: hourly("10637", day0, 24)}
	metrics := observability.NewMetricsForTesting()
	f := NewFetcher(upstream, store, metrics, discardLogger())

	got, err := f.FetchHourly(context.Background(), "10637", day0, day0.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 24)
	assert.Equal(t, 24.0, testutil.ToFloat64(metrics.ObservationsStored))

	stored, err := store.Observations(context.Background(), "10637", day0, day0.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Len(t, stored, 24)
}

func TestFetcher_ServesCoveredRangeLocally(t *testing.T) {
	store := setupStore(t)
	_, err := store.SaveObservations(context.Background(), hourly("10637", day0, 48))
	require.NoError(t, err)

	upstream := &stubFetcher{}
	f := NewFetcher(upstream, store, observability.NewMetricsForTesting(), discardLogger())

	got, err := f.FetchHourly(context.Background(), "10637", day0, day0.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 24)
	assert.Zero(t, upstream.calls)
}

func TestFetcher_FallsBackToStoreOnUpstreamError(t *testing.T) {
	store := setupStore(t)
	_, err := store.SaveObservations(context.Background(), hourly("10637", day0, 12))
	require.NoError(t, err)

	upstream := &stubFetcher{err: errors.New("circuit breaker open")}
	metrics := observability.NewMetricsForTesting()
	f := NewFetcher(upstream, store, metrics, discardLogger())

	got, err := f.FetchHourly(context.Background(), "10637", day0, day0.Add(47*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 12)
	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreFallbacks))
}

func TestFetcher_UpstreamErrorWithEmptyStore(t *testing.T) {
	upstream := &stubFetcher{err: errors.New("timeout")}
	f := NewFetcher(upstream, setupStore(t), observability.NewMetricsForTesting(), discardLogger())

	_, err := f.FetchHourly(context.Background(), "10637", day0, day0.Add(time.Hour))
	require.EqualError(t, err, "timeout")
}

// brokenStore accepts no writes and holds nothing.
type brokenStore struct{ saves int }

func (b *brokenStore) SaveObservations(context.Context, []domain.Observation) (int, error) {
	b.saves++
	return 0, errors.New("disk I/O error")
}

func (b *brokenStore) Observations(context.Context, string, time.Time, time.Time) ([]domain.Observation, error) {
	return nil, nil
}

func (b *brokenStore) Latest(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, errors.New("disk I/O error")
}

func TestFetcher_StoreFailureKeepsUpstreamRows(t *testing.T) {
	upstream := &stubFetcher{obs: hourly("10637", day0, 24)}
	store := &brokenStore{}
	metrics := observability.NewMetricsForTesting()
	f := NewFetcher(upstream, store, metrics, discardLogger())

	got, err := f.FetchHourly(context.Background(), "10637", day0, day0.Add(23*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 24)
	assert.Equal(t, 1, store.saves)
	assert.Zero(t, testutil.ToFloat64(metrics.ObservationsStored))
}
