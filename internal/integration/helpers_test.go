//go:build integration

package integration_test

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/model"
	"github.com/couchcryptid/weather-forecast-service/internal/observability"
	"github.com/couchcryptid/weather-forecast-service/internal/pipeline"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

// archiveEnd is the last archived hour of the fake station.
var archiveEnd = time.Date(2024, time.April, 26, 23, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// startKafka runs a single-node broker for the lifetime of the test and
// returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("forecast-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck // test cleanup

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close() //nolint:errcheck // test cleanup

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type cityGeocoder map[string]domain.GeocodingResult

func (g cityGeocoder) ForwardGeocode(_ context.Context, name, _ string) (domain.GeocodingResult, error) {
	return g[name], nil
}

type fixedStation struct{}

func (fixedStation) NearestStation(_ context.Context, lat, lon float64) (domain.Station, error) {
	return domain.Station{ID: "10637", Name: "Frankfurt/Main", Lat: lat, Lon: lon, HourlyEnd: archiveEnd}, nil
}

// diurnalHistory serves a repeating daily temperature cycle.
type diurnalHistory struct{}

func (diurnalHistory) FetchHourly(_ context.Context, stationID string, start, end time.Time) ([]domain.Observation, error) {
	var obs []domain.Observation
	for ts := start; !ts.After(end); ts = ts.Add(time.Hour) {
		temp := 6.0
		if h := ts.Hour(); h >= 9 && h < 18 {
			temp = 16
		}
		obs = append(obs, domain.Observation{StationID: stationID, Time: ts, Temperature: temp})
	}
	return obs, nil
}

// newForecaster wires a Forecaster that needs no trained artifacts: both
// feature sets are served by the autoregressive projector.
func newForecaster(t *testing.T) *pipeline.Forecaster {
	t.Helper()
	registry, err := model.LoadRegistry(model.RegistryConfig{
		ARCoefficients: model.DefaultCoefficients,
		Fallback:       []string{domain.ModelAR},
	}, discardLogger(), domain.TemperatureFeatures, domain.PrecipitationFeatures)
	require.NoError(t, err)

	geocoder := cityGeocoder{
		"Frankfurt": {Lat: 50.1109, Lon: 8.6821, PlaceName: "Frankfurt am Main"},
		"Berlin":    {Lat: 52.52, Lon: 13.405, PlaceName: "Berlin"},
		"Hamburg":   {Lat: 53.5511, Lon: 9.9937, PlaceName: "Hamburg"},
	}
	return pipeline.NewForecaster(registry, pipeline.Collaborators{
		Geocoder: geocoder,
		Stations: fixedStation{},
		History:  diurnalHistory{},
	}, pipeline.ForecasterOptions{HistoryDays: 7}, observability.NewMetricsForTesting(), discardLogger())
}
