package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
	"github.com/couchcryptid/weather-forecast-service/internal/observability"
)

// CityForecaster produces a forecast for a named city.
type CityForecaster interface {
	ForecastCity(ctx context.Context, req domain.ForecastRequest) (domain.ForecastResult, error)
}

// ForecastTransformer implements Transformer by answering each request
// message with a forecast result, or with a failure record when the
// forecast cannot be produced.
type ForecastTransformer struct {
	forecaster CityForecaster
	timeout    time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewTransformer creates a ForecastTransformer. A zero timeout leaves each
// forecast bounded only by the loop's context.
func NewTransformer(forecaster CityForecaster, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *ForecastTransformer {
	return &ForecastTransformer{
		forecaster: forecaster,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

func (t *ForecastTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseForecastRequest(raw)
	if err != nil {
		req = domain.ForecastRequest{RequestID: string(raw.Key)}
		if req.RequestID == "" {
			req.RequestID = domain.NewRequestID()
		}
		return t.fail(req, err)
	}

	fctx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	result, err := t.forecaster.ForecastCity(fctx, req)
	if err != nil {
		return t.fail(req, err)
	}
	return domain.SerializeForecastResult(result)
}

func (t *ForecastTransformer) fail(req domain.ForecastRequest, cause error) (domain.OutputEvent, error) {
	t.metrics.ProcessingErrors.Inc()
	t.logger.Warn("forecast request failed",
		"request_id", req.RequestID,
		"city", req.City,
		"kind", domain.ErrorKind(cause),
		"error", cause,
	)
	return domain.SerializeForecastFailure(req, cause)
}
