package domain

import (
	"context"
	"time"
)

// Model kinds a request may ask for.
const (
	ModelLSTM = "lstm"
	ModelCNN  = "cnn"
	ModelAR   = "ar"
)

// RawEvent represents an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the result topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ForecastRequest asks for a daily forecast for a city.
type ForecastRequest struct {
	RequestID   string `json:"request_id,omitempty"`
	City        string `json:"city_name" validate:"required,max=200"`
	HorizonDays int    `json:"horizon_days,omitempty" validate:"gte=0,lte=14"`
	Model       string `json:"model,omitempty" validate:"omitempty,oneof=lstm cnn ar"`
}

// TrajectoryRequest asks for an hourly multi-column projection for a city.
type TrajectoryRequest struct {
	RequestID     string `json:"request_id,omitempty"`
	City          string `json:"city_name" validate:"required,max=200"`
	ForecastHours int    `json:"forecast_hours,omitempty" validate:"gte=0,lte=720"`
}

// Forecast is one predicted day. It is only ever returned fully populated.
type Forecast struct {
	Date          time.Time     `json:"date"`
	TempMax       float64       `json:"tmax"`
	TempMin       float64       `json:"tmin"`
	Precipitation float64       `json:"prcp"`
	Condition     ConditionCode `json:"coco"`
	Model         string        `json:"model"`
}

// ForecastResult is the outcome of a successful forecast request.
type ForecastResult struct {
	RequestID   string      `json:"request_id"`
	City        string      `json:"city_name"`
	Coordinates Coordinates `json:"coordinates"`
	Station     Station     `json:"station"`
	Forecasts   []Forecast  `json:"forecasts"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// ForecastFailure is published in place of a result when a request fails.
type ForecastFailure struct {
	RequestID string `json:"request_id"`
	City      string `json:"city_name,omitempty"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

// TrajectoryStep is one projected time step in column order.
type TrajectoryStep struct {
	Time   time.Time     `json:"time"`
	Values FeatureVector `json:"values"`
}

// Trajectory is a multi-step hourly projection.
type Trajectory struct {
	StationID string           `json:"station_id"`
	Lat       float64          `json:"lat"`
	Lon       float64          `json:"lon"`
	Columns   []string         `json:"columns"`
	Steps     []TrajectoryStep `json:"steps"`
}
