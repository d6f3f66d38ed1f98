package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/weather-forecast-service/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

const maxBodyBytes = 1 << 16

// forecastResponse carries the first forecast day at the top level and
// every requested day under Days.
type forecastResponse struct {
	RequestID   string             `json:"request_id"`
	City        string             `json:"city_name"`
	Coordinates domain.Coordinates `json:"coordinates"`
	Station     domain.Station     `json:"station"`
	TempMax     float64            `json:"tmax"`
	TempMin     float64            `json:"tmin"`
	Prcp        float64            `json:"prcp"`
	Coco        int                `json:"coco"`
	Condition   string             `json:"condition"`
	Model       string             `json:"model"`
	Days        []domain.Forecast  `json:"days"`
	GeneratedAt time.Time          `json:"generated_at"`
}

func newForecastResponse(result domain.ForecastResult) forecastResponse {
	first := result.Forecasts[0]
	return forecastResponse{
		RequestID:   result.RequestID,
		City:        result.City,
		Coordinates: result.Coordinates,
		Station:     result.Station,
		TempMax:     first.TempMax,
		TempMin:     first.TempMin,
		Prcp:        first.Precipitation,
		Coco:        int(first.Condition),
		Condition:   first.Condition.String(),
		Model:       first.Model,
		Days:        result.Forecasts,
		GeneratedAt: result.GeneratedAt,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req domain.ForecastRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, err := s.forecaster.ForecastCity(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, newForecastResponse(result))
}

func (s *Server) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	var req domain.TrajectoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	traj, err := s.forecaster.Trajectory(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := csvfile.Encode(&buf, traj); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "trajectory_"+traj.StationID+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("write trajectory response", "error", err)
	}
}
