package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHistory is returned when a station has no observations for the requested range.
	ErrNoHistory = errors.New("no history available")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
)

// NotFoundError reports a city or station that could not be resolved.
type NotFoundError struct {
	Resource string // "city" or "station"
	Query    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Resource, e.Query)
}

// InsufficientHistoryError reports that fewer rows exist than one window needs.
type InsufficientHistoryError struct {
	Have int
	Want int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d rows, need %d", e.Have, e.Want)
}

// DimensionMismatchError reports disagreement between a configured shape and
// the actual input or weights. It always indicates a deployment bug.
type DimensionMismatchError struct {
	Component string
	Want      []int
	Got       []int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch in %s: want %v, got %v", e.Component, e.Want, e.Got)
}

// ModelArtifactMissingError reports a weights file that is absent or unreadable.
type ModelArtifactMissingError struct {
	Model string
	Path  string
	Err   error
}

func (e *ModelArtifactMissingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model artifact %s missing at %s: %v", e.Model, e.Path, e.Err)
	}
	return fmt.Sprintf("model artifact %s missing at %s", e.Model, e.Path)
}

func (e *ModelArtifactMissingError) Unwrap() error { return e.Err }

// Error kinds reported to HTTP and Kafka callers.
const (
	KindNotFound            = "not_found"
	KindNoHistory           = "no_history"
	KindInsufficientHistory = "insufficient_history"
	KindDimensionMismatch   = "dimension_mismatch"
	KindModelUnavailable    = "model_unavailable"
	KindInvalidRequest      = "invalid_request"
	KindInternal            = "internal"
)

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	var (
		notFound     *NotFoundError
		insufficient *InsufficientHistoryError
		mismatch     *DimensionMismatchError
		missing      *ModelArtifactMissingError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.Is(err, ErrNoHistory):
		return KindNoHistory
	case errors.As(err, &insufficient):
		return KindInsufficientHistory
	case errors.As(err, &mismatch):
		return KindDimensionMismatch
	case errors.As(err, &missing):
		return KindModelUnavailable
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}
