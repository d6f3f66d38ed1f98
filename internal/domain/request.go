package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Request defaults.
const (
	DefaultHorizonDays   = 1
	DefaultForecastHours = 72
)

var validate = validator.New()

// NewRequestID returns a random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// Normalize validates r and fills defaults.
func (r *ForecastRequest) Normalize() error {
	r.City = strings.TrimSpace(r.City)
	r.Model = strings.ToLower(strings.TrimSpace(r.Model))
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.HorizonDays == 0 {
		r.HorizonDays = DefaultHorizonDays
	}
	if r.RequestID == "" {
		r.RequestID = NewRequestID()
	}
	return nil
}

// Normalize validates r and fills defaults.
func (r *TrajectoryRequest) Normalize() error {
	r.City = strings.TrimSpace(r.City)
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.ForecastHours == 0 {
		r.ForecastHours = DefaultForecastHours
	}
	if r.RequestID == "" {
		r.RequestID = NewRequestID()
	}
	return nil
}

// ParseForecastRequest decodes and validates a request message. The message
// key is used as the request ID when the payload carries none.
func ParseForecastRequest(raw RawEvent) (ForecastRequest, error) {
	var req ForecastRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ForecastRequest{}, fmt.Errorf("%w: parse forecast request: %v", ErrInvalidRequest, err)
	}
	if req.RequestID == "" && len(raw.Key) > 0 {
		req.RequestID = string(raw.Key)
	}
	if err := req.Normalize(); err != nil {
		return ForecastRequest{}, err
	}
	return req, nil
}

// SerializeForecastResult marshals a successful result into an output event.
func SerializeForecastResult(result ForecastResult) (OutputEvent, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize forecast result: %w", err)
	}
	return OutputEvent{
		Key:   []byte(result.RequestID),
		Value: data,
		Headers: map[string]string{
			"request_id":   result.RequestID,
			"status":       "ok",
			"processed_at": result.GeneratedAt.Format(time.RFC3339),
		},
	}, nil
}

// SerializeForecastFailure marshals a failed request into an output event.
func SerializeForecastFailure(req ForecastRequest, cause error) (OutputEvent, error) {
	failure := ForecastFailure{
		RequestID: req.RequestID,
		City:      req.City,
		Kind:      ErrorKind(cause),
		Error:     cause.Error(),
	}
	data, err := json.Marshal(failure)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize forecast failure: %w", err)
	}
	return OutputEvent{
		Key:   []byte(req.RequestID),
		Value: data,
		Headers: map[string]string{
			"request_id":   req.RequestID,
			"status":       "error",
			"kind":         failure.Kind,
			"processed_at": Now().Format(time.RFC3339),
		},
	}, nil
}
