// Package meteostat reads weather stations and hourly observations from the
// Meteostat JSON API.
package meteostat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/observability"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05"

	// maxHourlySpan is the longest range the hourly endpoint serves per call.
	maxHourlySpan = 30 * 24 * time.Hour
)

// Options configures a Client.
type Options struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	Backoff         Backoff
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client implements domain.StationLocator and domain.HistoryFetcher.
type Client struct {
	baseURL    string
	apiKey     string
	host       string
	httpClient *http.Client
	backoff    Backoff
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Meteostat client guarded by a circuit breaker that
// opens after opts.BreakerFailures consecutive failures.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	host := ""
	if u, err := url.Parse(opts.BaseURL); err == nil {
		host = u.Host
	}
	failures := max(opts.BreakerFailures, 1)

	c := &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		host:       host,
		httpClient: &http.Client{Timeout: opts.Timeout},
		backoff:    opts.Backoff,
		metrics:    metrics,
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "meteostat",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// CheckReadiness reports an error while the circuit breaker is open.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return errors.New("meteostat circuit breaker open")
	}
	return nil
}

// NearestStation returns the closest station together with its hourly
// inventory range.
func (c *Client) NearestStation(ctx context.Context, lat, lon float64) (domain.Station, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', 4, 64)},
		"limit": {"1"},
	}
	var nearby nearbyResponse
	if err := c.getJSON(ctx, "nearby", "/stations/nearby", params, &nearby); err != nil {
		return domain.Station{}, err
	}
	if len(nearby.Data) == 0 {
		return domain.Station{}, &domain.NotFoundError{Resource: "station", Query: fmt.Sprintf("%.4f,%.4f", lat, lon)}
	}
	return c.Station(ctx, nearby.Data[0].ID)
}

// Station returns metadata for one station.
func (c *Client) Station(ctx context.Context, id string) (domain.Station, error) {
	var meta metaResponse
	if err := c.getJSON(ctx, "meta", "/stations/meta", url.Values{"id": {id}}, &meta); err != nil {
		return domain.Station{}, err
	}
	if meta.Data == nil {
		return domain.Station{}, &domain.NotFoundError{Resource: "station", Query: id}
	}
	return meta.Data.station()
}

// FetchHourly returns observations in [start, end] in chronological order.
// Ranges longer than the endpoint limit are split into consecutive requests.
func (c *Client) FetchHourly(ctx context.Context, stationID string, start, end time.Time) ([]domain.Observation, error) {
	start, end = start.UTC(), end.UTC()
	if end.Before(start) {
		return nil, fmt.Errorf("fetch hourly: end %s before start %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	var out []domain.Observation
	for from := domain.TruncateDay(start); !from.After(end); from = from.Add(maxHourlySpan) {
		to := from.Add(maxHourlySpan - 24*time.Hour)
		if to.After(end) {
			to = end
		}

		params := url.Values{
			"station": {stationID},
			"start":   {from.Format(dateLayout)},
			"end":     {to.Format(dateLayout)},
			"tz":      {"UTC"},
		}
		var hourly hourlyResponse
		if err := c.getJSON(ctx, "hourly", "/stations/hourly", params, &hourly); err != nil {
			return nil, err
		}
		for _, row := range hourly.Data {
			obs, err := row.observation(stationID)
			if err != nil {
				return nil, err
			}
			if obs.Time.Before(start) || obs.Time.After(end) {
				continue
			}
			out = append(out, obs)
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, dst any) error {
	start := time.Now()
	err := c.fetch(ctx, path, params, dst)
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case errors.Is(err, errCircuitOpen):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	if err != nil {
		return fmt.Errorf("meteostat %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, dst any) error {
	full := c.baseURL + path + "?" + params.Encode()
	resp, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-rapidapi-key", c.apiKey)
		if c.host != "" {
			req.Header.Set("x-rapidapi-host", c.host)
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode == http.StatusNotFound {
		return &domain.NotFoundError{Resource: "station", Query: params.Encode()}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
