package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Model kinds accepted in MODEL_DEFAULT and MODEL_FALLBACK.
var modelKinds = []string{"lstm", "cnn", "ar"}

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Meteostat weather history configuration.
	MeteostatBaseURL         string
	MeteostatAPIKey          string
	MeteostatTimeout         time.Duration
	MeteostatMaxRetries      int
	MeteostatBreakerFailures int
	MeteostatBreakerTimeout  time.Duration

	// Local observation store. An empty path disables it.
	SQLitePath string

	// Model configuration.
	TempLSTMPath   string
	TempCNNPath    string
	PrecipCNNPath  string
	DefaultModel   string
	ModelFallback  []string
	ARCoefficients []float64

	HistoryDays     int
	ForecastTimeout time.Duration
	TrajectoryDir   string

	// History warm-up. An empty city list disables it.
	WarmCities   []string
	WarmInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is applied first when
// present; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	meteostatTimeout, err := parseDuration("METEOSTAT_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	breakerTimeout, err := parseDuration("METEOSTAT_BREAKER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	forecastTimeout, err := parseDuration("FORECAST_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	warmInterval, err := parseDuration("WARM_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	maxRetries, err := parsePositiveInt("METEOSTAT_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	breakerFailures, err := parsePositiveInt("METEOSTAT_BREAKER_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	historyDays, err := parsePositiveInt("HISTORY_DAYS", 7)
	if err != nil {
		return nil, err
	}

	coeffs, err := parseCoefficients(envOrEmpty("AR_COEFFICIENTS", "0.5,0.3,0.2"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaEnabled:       sharedcfg.EnvOrDefault("KAFKA_ENABLED", "true") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "forecast-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "forecast-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "weather-forecast"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		MapboxToken:     os.Getenv("MAPBOX_TOKEN"),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		MeteostatBaseURL:         sharedcfg.EnvOrDefault("METEOSTAT_BASE_URL", "https://meteostat.p.rapidapi.com"),
		MeteostatAPIKey:          os.Getenv("METEOSTAT_API_KEY"),
		MeteostatTimeout:         meteostatTimeout,
		MeteostatMaxRetries:      maxRetries,
		MeteostatBreakerFailures: breakerFailures,
		MeteostatBreakerTimeout:  breakerTimeout,

		SQLitePath: envOrEmpty("SQLITE_PATH", "observations.db"),

		TempLSTMPath:   envOrEmpty("MODEL_TEMP_LSTM_PATH", "models/temperature_lstm.json"),
		TempCNNPath:    envOrEmpty("MODEL_TEMP_CNN_PATH", "models/temperature_cnn.json"),
		PrecipCNNPath:  envOrEmpty("MODEL_PRECIP_CNN_PATH", "models/precipitation_cnn.json"),
		DefaultModel:   strings.ToLower(os.Getenv("MODEL_DEFAULT")),
		ModelFallback:  splitList(envOrEmpty("MODEL_FALLBACK", "lstm,cnn,ar")),
		ARCoefficients: coeffs,

		HistoryDays:     historyDays,
		ForecastTimeout: forecastTimeout,
		TrajectoryDir:   os.Getenv("TRAJECTORY_DIR"),

		WarmCities:   splitCities(os.Getenv("WARM_CITIES")),
		WarmInterval: warmInterval,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_TOKEN is required")
	}
	if cfg.MeteostatAPIKey == "" {
		return nil, errors.New("METEOSTAT_API_KEY is required")
	}
	if cfg.DefaultModel != "" && !slices.Contains(modelKinds, cfg.DefaultModel) {
		return nil, fmt.Errorf("invalid MODEL_DEFAULT %q", cfg.DefaultModel)
	}
	for _, k := range cfg.ModelFallback {
		if !slices.Contains(modelKinds, k) {
			return nil, fmt.Errorf("invalid MODEL_FALLBACK entry %q", k)
		}
	}
	if slices.Contains(cfg.ModelFallback, "ar") && len(cfg.ARCoefficients) == 0 {
		return nil, errors.New("MODEL_FALLBACK includes ar but AR_COEFFICIENTS is empty")
	}

	return cfg, nil
}

// envOrEmpty is like EnvOrDefault but lets an explicitly empty variable
// disable a feature.
func envOrEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func parseCoefficients(s string) ([]float64, error) {
	parts := splitList(s)
	coeffs := make([]float64, 0, len(parts))
	for _, p := range parts {
		c, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid AR_COEFFICIENTS entry %q", p)
		}
		coeffs = append(coeffs, c)
	}
	return coeffs, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitCities splits a comma-separated list, preserving case.
func splitCities(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
