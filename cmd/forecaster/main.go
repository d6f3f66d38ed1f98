package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/weather-forecast-service/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/weather-forecast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-forecast-service/internal/adapter/mapbox"
	"github.com/couchcryptid/weather-forecast-service/internal/adapter/meteostat"
	"github.com/couchcryptid/weather-forecast-service/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-forecast-service/internal/config"
	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/model"
	"github.com/couchcryptid/weather-forecast-service/internal/observability"
	"github.com/couchcryptid/weather-forecast-service/internal/pipeline"
	"github.com/couchcryptid/weather-forecast-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	registry, err := model.LoadRegistry(cfg.Registry(), logger, domain.TemperatureFeatures, domain.PrecipitationFeatures)
	if err != nil {
		logger.Error("failed to load models", "error", err)
		os.Exit(1)
	}
	logger.Info("models ready",
		"temperature", registry.Available(domain.TemperatureFeatures.Name),
		"precipitation", registry.Available(domain.PrecipitationFeatures.Name))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geocoder := mapbox.NewCachedGeocoder(
		mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger),
		cfg.MapboxCacheSize, metrics)

	station := meteostat.NewClient(meteostat.Options{
		BaseURL: cfg.MeteostatBaseURL,
		APIKey:  cfg.MeteostatAPIKey,
		Timeout: cfg.MeteostatTimeout,
		Backoff: meteostat.Backoff{
			MaxRetries:      cfg.MeteostatMaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		BreakerFailures: uint32(cfg.MeteostatBreakerFailures), //nolint:gosec // validated positive
		BreakerTimeout:  cfg.MeteostatBreakerTimeout,
	}, metrics, logger)

	readiness := &httpadapter.Readiness{}
	readiness.Add("meteostat", station)

	collab := pipeline.Collaborators{
		Geocoder: geocoder,
		Stations: station,
		History:  station,
	}

	// Local observation store (disabled via SQLITE_PATH="").
	var db *sql.DB
	if cfg.SQLitePath != "" {
		db, err = sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open observation store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		store := sqlite.NewStore(db, logger)
		collab.History = sqlite.NewFetcher(station, store, metrics, logger)
		readiness.Add("sqlite", store)
		logger.Info("observation store enabled", "path", cfg.SQLitePath)
	} else {
		logger.Info("observation store disabled")
	}

	if cfg.TrajectoryDir != "" {
		collab.Trajectories = csvfile.NewWriter(cfg.TrajectoryDir, logger)
		logger.Info("trajectory files enabled", "dir", cfg.TrajectoryDir)
	}

	forecaster := pipeline.NewForecaster(registry, collab, pipeline.ForecasterOptions{
		DefaultModel: cfg.DefaultModel,
		HistoryDays:  cfg.HistoryDays,
	}, metrics, logger)

	// Periodic history prefetch (disabled via WARM_CITIES="").
	warmer := scheduler.New(forecaster, cfg.WarmCities, cfg.WarmInterval, cfg.ForecastTimeout, logger)
	if err := warmer.Start(); err != nil {
		logger.Error("failed to start history warmer", "error", err)
		os.Exit(1)
	}

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(forecaster, cfg.ForecastTimeout, metrics, logger)
		p = pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		readiness.Add("pipeline", p)
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, forecaster, readiness, cfg.ForecastTimeout, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start request pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	warmer.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("observation store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
