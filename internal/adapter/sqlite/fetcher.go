package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/observability"
)

// Fetcher is a domain.HistoryFetcher that keeps a local copy of everything
// it fetches. Ranges already covered by the store are served locally;
// otherwise upstream is queried and the result persisted. When upstream
// fails, stored rows are returned if any exist.
type Fetcher struct {
	upstream domain.HistoryFetcher
	store    domain.ObservationStore
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewFetcher wraps upstream with store.
func NewFetcher(upstream domain.HistoryFetcher, store domain.ObservationStore, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	return &Fetcher{upstream: upstream, store: store, metrics: metrics, logger: logger}
}

// FetchHourly implements domain.HistoryFetcher.
func (f *Fetcher) FetchHourly(ctx context.Context, stationID string, start, end time.Time) ([]domain.Observation, error) {
	if latest, ok, err := f.store.Latest(ctx, stationID); err == nil && ok && !latest.Before(end) {
		stored, err := f.store.Observations(ctx, stationID, start, end)
		if err == nil && len(stored) > 0 {
			f.logger.Debug("history served from store", "station", stationID, "rows", len(stored))
			return stored, nil
		}
	}

	obs, err := f.upstream.FetchHourly(ctx, stationID, start, end)
	if err != nil {
		stored, storeErr := f.store.Observations(ctx, stationID, start, end)
		if storeErr != nil || len(stored) == 0 {
			return nil, err
		}
		f.metrics.StoreFallbacks.Inc()
		f.logger.Warn("upstream history failed, serving stored rows",
			"station", stationID, "rows", len(stored), "error", err)
		return stored, nil
	}

	n, err := f.store.SaveObservations(ctx, obs)
	if err != nil {
		f.logger.Error("persist observations", "station", stationID, "error", err)
		return obs, nil
	}
	f.metrics.ObservationsStored.Add(float64(n))
	return obs, nil
}
