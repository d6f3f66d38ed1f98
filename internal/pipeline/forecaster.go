package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/model"
	"github.com/couchcryptid/weather-forecast-service/internal/observability"
)

// HourlySequenceLength is the number of hourly rows a trajectory projects from.
const HourlySequenceLength = 72

// TrajectorySink persists projected trajectories.
type TrajectorySink interface {
	Save(name string, t domain.Trajectory) (string, error)
}

// Collaborators are the external services a Forecaster depends on.
type Collaborators struct {
	Geocoder domain.Geocoder
	Stations domain.StationLocator
	History  domain.HistoryFetcher
	// Trajectories is optional; nil disables trajectory persistence.
	Trajectories TrajectorySink
}

// ForecasterOptions tunes request defaults.
type ForecasterOptions struct {
	// DefaultModel is used when a request names none. Empty means the first
	// available model in the registry's fallback chain.
	DefaultModel string
	// HistoryDays is how many days of hourly history are fetched before the
	// station's last archived day.
	HistoryDays int
}

// Forecaster runs the forecasting pipeline end to end. Its registry and
// collaborators are shared read-only, so one Forecaster serves concurrent
// requests; scalers and windows live only for the duration of one call.
type Forecaster struct {
	collab   Collaborators
	registry *model.Registry
	opts     ForecasterOptions
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewForecaster creates a Forecaster.
func NewForecaster(registry *model.Registry, collab Collaborators, opts ForecasterOptions, metrics *observability.Metrics, logger *slog.Logger) *Forecaster {
	if opts.HistoryDays < domain.DefaultSequenceLength {
		opts.HistoryDays = domain.DefaultSequenceLength
	}
	return &Forecaster{
		collab:   collab,
		registry: registry,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// ForecastCity resolves the city, fetches the nearest station's recent
// history and forecasts req.HorizonDays days past the station's last
// archived day.
func (f *Forecaster) ForecastCity(ctx context.Context, req domain.ForecastRequest) (result domain.ForecastResult, err error) {
	start := time.Now()
	if err := req.Normalize(); err != nil {
		return domain.ForecastResult{}, err
	}
	label := f.modelLabel(req.Model)
	defer func() {
		f.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = domain.ErrorKind(err)
		}
		f.metrics.ForecastsTotal.WithLabelValues(label, outcome).Inc()
	}()

	coords, station, err := f.locate(ctx, req.City)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	from, to := f.historyRange(station)
	obs, err := f.collab.History.FetchHourly(ctx, station.ID, from, to)
	if err != nil {
		return domain.ForecastResult{}, fmt.Errorf("fetch history for station %s: %w", station.ID, err)
	}

	series := domain.StationSeries{StationID: station.ID, Lat: coords.Lat, Lon: coords.Lon, Observations: obs}
	forecasts, err := f.ForecastSeries(ctx, series, req.HorizonDays, req.Model)
	if err != nil {
		return domain.ForecastResult{}, err
	}

	f.logger.Info("forecast complete",
		"request_id", req.RequestID,
		"city", req.City,
		"station", station.ID,
		"days", len(forecasts),
		"model", forecasts[0].Model,
	)
	return domain.ForecastResult{
		RequestID:   req.RequestID,
		City:        req.City,
		Coordinates: coords,
		Station:     station,
		Forecasts:   forecasts,
		GeneratedAt: domain.Now(),
	}, nil
}

// ForecastSeries forecasts horizonDays days following the last observation
// of series. Each predicted day is appended to the daily history before the
// next day is predicted. Either every requested day is returned or an error.
func (f *Forecaster) ForecastSeries(ctx context.Context, series domain.StationSeries, horizonDays int, modelKind string) ([]domain.Forecast, error) {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultHorizonDays
	}
	if len(series.Observations) == 0 {
		return nil, fmt.Errorf("station %s: %w", series.StationID, domain.ErrNoHistory)
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	tempModel, err := f.resolve(domain.TemperatureFeatures, modelKind)
	if err != nil {
		return nil, err
	}
	precipModel, err := f.resolve(domain.PrecipitationFeatures, modelKind)
	if err != nil {
		return nil, err
	}
	name := tempModel.Name()
	if precipModel.Name() != name {
		name += "/" + precipModel.Name()
	}

	daily := domain.AggregateDaily(domain.FillGaps(series.Observations, time.Hour))
	forecasts := make([]domain.Forecast, 0, horizonDays)
	for range horizonDays {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		day, err := f.predictDay(daily, series.Lat, series.Lon, tempModel, precipModel)
		if err != nil {
			return nil, err
		}
		day.Model = name
		forecasts = append(forecasts, day)
		daily = append(daily, domain.DailyRow{
			Date:          day.Date,
			TempMax:       day.TempMax,
			TempMin:       day.TempMin,
			Precipitation: day.Precipitation,
		})
	}
	return forecasts, nil
}

// predictDay forecasts the day after the last row of daily.
func (f *Forecaster) predictDay(daily []domain.DailyRow, lat, lon float64, tempModel, precipModel model.Predictor) (domain.Forecast, error) {
	tempWindow, err := domain.BuildWindow(daily, lat, lon, domain.TemperatureFeatures, domain.DefaultSequenceLength)
	if err != nil {
		return domain.Forecast{}, err
	}
	precipWindow, err := domain.BuildWindow(daily, lat, lon, domain.PrecipitationFeatures, domain.DefaultSequenceLength)
	if err != nil {
		return domain.Forecast{}, err
	}

	temps, err := f.predict(tempModel, tempWindow, domain.ColTempMax, domain.ColTempMin)
	if err != nil {
		return domain.Forecast{}, err
	}
	precip, err := f.predict(precipModel, precipWindow, domain.ColPrcp)
	if err != nil {
		return domain.Forecast{}, err
	}

	tmax, tmin, prcp := temps[0], temps[1], precip[0]
	return domain.Forecast{
		Date:          daily[len(daily)-1].Date.AddDate(0, 0, 1),
		TempMax:       tmax,
		TempMin:       tmin,
		Precipitation: prcp,
		Condition:     domain.ClassifyCondition(prcp, tmin, tmax),
	}, nil
}

// predict normalizes w with scalers fit on w alone, runs p, and maps the
// requested output columns back to physical units with those same scalers.
func (f *Forecaster) predict(p model.Predictor, w domain.Window, columns ...string) ([]float64, error) {
	scalers, err := domain.FitScalers(w)
	if err != nil {
		return nil, err
	}
	normalized, err := scalers.TransformWindow(w)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := p.Predict(normalized)
	f.metrics.InferenceDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s predict: %w", p.Name(), err)
	}

	values := make([]float64, len(columns))
	for i, col := range columns {
		idx := domain.FeatureSet{Columns: w.Columns}.Index(col)
		if idx < 0 || idx >= len(out) {
			return nil, &domain.DimensionMismatchError{
				Component: p.Name() + " output",
				Want:      []int{idx + 1},
				Got:       []int{len(out)},
			}
		}
		values[i] = scalers[idx].Inverse(out[idx])
	}
	return values, nil
}

// Trajectory projects every hourly measurement column req.ForecastHours
// steps past the station's last archived hour with the autoregressive
// projector. The result is persisted when a sink is configured.
func (f *Forecaster) Trajectory(ctx context.Context, req domain.TrajectoryRequest) (traj domain.Trajectory, err error) {
	start := time.Now()
	if err := req.Normalize(); err != nil {
		return domain.Trajectory{}, err
	}
	defer func() {
		f.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = domain.ErrorKind(err)
		}
		f.metrics.ForecastsTotal.WithLabelValues("trajectory", outcome).Inc()
	}()

	projector := f.registry.Projector()
	if projector == nil {
		return domain.Trajectory{}, &domain.ModelArtifactMissingError{Model: domain.ModelAR}
	}

	coords, station, err := f.locate(ctx, req.City)
	if err != nil {
		return domain.Trajectory{}, err
	}

	from, to := f.historyRange(station)
	obs, err := f.collab.History.FetchHourly(ctx, station.ID, from, to)
	if err != nil {
		return domain.Trajectory{}, fmt.Errorf("fetch history for station %s: %w", station.ID, err)
	}

	traj, err = ProjectTrajectory(projector, domain.StationSeries{
		StationID:    station.ID,
		Lat:          coords.Lat,
		Lon:          coords.Lon,
		Observations: obs,
	}, req.ForecastHours)
	if err != nil {
		return domain.Trajectory{}, err
	}

	if f.collab.Trajectories != nil {
		path, err := f.collab.Trajectories.Save(req.RequestID, traj)
		if err != nil {
			f.logger.Error("persist trajectory", "request_id", req.RequestID, "error", err)
		} else {
			f.logger.Debug("trajectory persisted", "request_id", req.RequestID, "path", path)
		}
	}
	return traj, nil
}

// ProjectTrajectory rolls the projector forward hours steps for every hourly
// column of the last HourlySequenceLength gap-filled observations of series.
func ProjectTrajectory(projector *model.Projector, series domain.StationSeries, hours int) (domain.Trajectory, error) {
	if hours <= 0 {
		return domain.Trajectory{}, fmt.Errorf("%w: forecast hours must be positive, got %d", domain.ErrInvalidRequest, hours)
	}
	if len(series.Observations) == 0 {
		return domain.Trajectory{}, fmt.Errorf("station %s: %w", series.StationID, domain.ErrNoHistory)
	}
	if err := series.Validate(); err != nil {
		return domain.Trajectory{}, err
	}
	obs := domain.FillGaps(series.Observations, time.Hour)
	window, err := domain.HourlyWindow(obs, series.Lat, series.Lon, domain.HourlyColumns, HourlySequenceLength)
	if err != nil {
		return domain.Trajectory{}, err
	}

	columns := domain.HourlyColumns
	projected := make([][]float64, len(columns))
	for i := range columns {
		projected[i] = projector.Project(window.Column(i), hours)
	}

	last := obs[len(obs)-1].Time
	steps := make([]domain.TrajectoryStep, hours)
	for h := range steps {
		values := make(domain.FeatureVector, len(columns))
		for i := range columns {
			values[i] = projected[i][h]
		}
		steps[h] = domain.TrajectoryStep{Time: last.Add(time.Duration(h+1) * time.Hour), Values: values}
	}

	return domain.Trajectory{
		StationID: series.StationID,
		Lat:       series.Lat,
		Lon:       series.Lon,
		Columns:   append([]string(nil), columns...),
		Steps:     steps,
	}, nil
}

// WarmCity fetches the history a forecast for city would need, without
// forecasting. With a store-backed fetcher this persists the rows so later
// requests are served locally.
func (f *Forecaster) WarmCity(ctx context.Context, city string) (int, error) {
	_, station, err := f.locate(ctx, city)
	if err != nil {
		return 0, err
	}
	from, to := f.historyRange(station)
	obs, err := f.collab.History.FetchHourly(ctx, station.ID, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetch history for station %s: %w", station.ID, err)
	}
	return len(obs), nil
}

func (f *Forecaster) locate(ctx context.Context, city string) (domain.Coordinates, domain.Station, error) {
	coords, err := domain.ResolveCity(ctx, f.collab.Geocoder, city)
	if err != nil {
		return domain.Coordinates{}, domain.Station{}, err
	}
	station, err := f.collab.Stations.NearestStation(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return domain.Coordinates{}, domain.Station{}, fmt.Errorf("nearest station to %s: %w", city, err)
	}
	return coords, station, nil
}

// historyRange spans HistoryDays whole days before the station's last
// archived day plus that day itself. Stations without an archive end use
// the current day.
func (f *Forecaster) historyRange(station domain.Station) (time.Time, time.Time) {
	last := station.HourlyEnd
	if last.IsZero() {
		last = domain.Now()
	}
	day := domain.TruncateDay(last)
	return day.AddDate(0, 0, -f.opts.HistoryDays), day.Add(23 * time.Hour)
}

// resolve picks the predictor for fs. A substitution counts as a fallback
// only when the requested kind applies to fs; feature sets that never carry
// that kind quietly use their own model.
func (f *Forecaster) resolve(fs domain.FeatureSet, kind string) (model.Predictor, error) {
	requested := kind
	if requested == "" {
		requested = f.opts.DefaultModel
	}
	p, err := f.registry.Resolve(fs.Name, requested)
	if err != nil {
		return nil, err
	}
	if requested != "" && p.Name() != requested && f.registry.Applies(fs.Name, requested) {
		f.metrics.ForecastFallbacks.WithLabelValues(requested, p.Name()).Inc()
		f.logger.Warn("model unavailable, using fallback",
			"feature_set", fs.Name, "requested", requested, "used", p.Name())
	}
	return p, nil
}

func (f *Forecaster) modelLabel(kind string) string {
	switch {
	case kind != "":
		return kind
	case f.opts.DefaultModel != "":
		return f.opts.DefaultModel
	default:
		return "default"
	}
}
