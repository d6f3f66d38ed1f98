package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// Artifact is the on-disk form of a trained network: a descriptor plus named
// weight tensors.
type Artifact struct {
	Architecture Architecture      `json:"architecture"`
	Tensors      map[string]Tensor `json:"tensors"`
}

// Network is a Predictor built from an artifact.
type Network interface {
	Predictor
	Architecture() Architecture
}

// LoadArtifact reads the artifact at path and builds its network. A missing or
// unreadable file yields *domain.ModelArtifactMissingError; weights that do not
// fit the descriptor yield *domain.DimensionMismatchError.
func LoadArtifact(path, label string) (Network, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, &domain.ModelArtifactMissingError{Model: label, Path: path, Err: err}
		}
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	n, err := DecodeArtifact(f)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s (%s): %w", label, path, err)
	}
	return n, nil
}

// DecodeArtifact parses and binds an artifact from r.
func DecodeArtifact(r io.Reader) (Network, error) {
	var a Artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return a.Build()
}

// Build validates the descriptor, binds tensors and constructs the network.
func (a Artifact) Build() (Network, error) {
	if err := a.Architecture.Validate(); err != nil {
		return nil, err
	}
	if err := bindTensors(a.Architecture.TensorShapes(), a.Tensors); err != nil {
		return nil, err
	}
	switch a.Architecture.Kind {
	case KindLSTM:
		return newLSTM(a.Architecture, a.Tensors), nil
	case KindCNN:
		return newCNN(a.Architecture, a.Tensors), nil
	default:
		return nil, fmt.Errorf("unsupported network kind %q", a.Architecture.Kind)
	}
}
