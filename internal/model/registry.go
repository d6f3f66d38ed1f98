package model

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// Predictor maps one normalized window to one normalized output vector.
// Implementations are read-only after construction and safe for concurrent use.
type Predictor interface {
	Name() string
	Predict(w domain.Window) (domain.FeatureVector, error)
}

// Entry binds a predictor to the feature set it was trained on.
type Entry struct {
	FeatureSet string
	Predictor  Predictor
}

// ArtifactRef points at a weights artifact for one feature set.
type ArtifactRef struct {
	FeatureSet domain.FeatureSet
	Kind       string
	Path       string
}

// RegistryConfig selects artifacts and fallback behavior.
type RegistryConfig struct {
	Artifacts []ArtifactRef
	// ARCoefficients registers the autoregressive predictor for every
	// feature set when non-empty.
	ARCoefficients []float64
	// Fallback lists model kinds tried, in order, when the requested kind is
	// unavailable. Empty disables fallback.
	Fallback []string
}

// Registry resolves the predictor for a feature set. It is built once at
// startup and never mutated afterwards.
type Registry struct {
	predictors map[string]map[string]Predictor
	order      map[string][]string
	missing    map[string]map[string]error
	fallback   []string
	projector  *Projector
}

// NewRegistry builds a registry from already constructed predictors. The
// projector may be nil when trajectories are not served.
func NewRegistry(projector *Projector, fallback []string, entries ...Entry) *Registry {
	r := &Registry{
		predictors: make(map[string]map[string]Predictor),
		order:      make(map[string][]string),
		missing:    make(map[string]map[string]error),
		fallback:   slices.Clone(fallback),
		projector:  projector,
	}
	for _, e := range entries {
		r.register(e.FeatureSet, e.Predictor)
	}
	return r
}

func (r *Registry) register(featureSet string, p Predictor) {
	byKind, ok := r.predictors[featureSet]
	if !ok {
		byKind = make(map[string]Predictor)
		r.predictors[featureSet] = byKind
	}
	if _, dup := byKind[p.Name()]; !dup {
		r.order[featureSet] = append(r.order[featureSet], p.Name())
	}
	byKind[p.Name()] = p
}

func (r *Registry) markMissing(featureSet, kind string, err error) {
	byKind, ok := r.missing[featureSet]
	if !ok {
		byKind = make(map[string]error)
		r.missing[featureSet] = byKind
	}
	byKind[kind] = err
}

// LoadRegistry reads every configured artifact. Missing artifacts are logged
// and skipped; any other load failure is returned. Each required feature set
// must end up with at least one predictor.
func LoadRegistry(cfg RegistryConfig, logger *slog.Logger, required ...domain.FeatureSet) (*Registry, error) {
	var projector *Projector
	if len(cfg.ARCoefficients) > 0 {
		p, err := NewProjector(cfg.ARCoefficients)
		if err != nil {
			return nil, err
		}
		projector = p
	}

	r := NewRegistry(projector, cfg.Fallback)
	for _, ref := range cfg.Artifacts {
		label := ref.FeatureSet.Name + "/" + ref.Kind
		n, err := LoadArtifact(ref.Path, label)
		var missing *domain.ModelArtifactMissingError
		switch {
		case errors.As(err, &missing):
			logger.Warn("model artifact missing", "model", label, "path", ref.Path, "error", err)
			r.markMissing(ref.FeatureSet.Name, ref.Kind, err)
			continue
		case err != nil:
			return nil, err
		}
		if n.Name() != ref.Kind {
			return nil, fmt.Errorf("artifact %s declares kind %q, configured as %q", ref.Path, n.Name(), ref.Kind)
		}
		if err := checkLayout(n.Architecture(), ref.FeatureSet, label); err != nil {
			return nil, fmt.Errorf("artifact %s: %w", ref.Path, err)
		}
		r.register(ref.FeatureSet.Name, n)
		logger.Info("model loaded", "model", label, "path", ref.Path)
	}

	if projector != nil {
		for _, fs := range required {
			r.register(fs.Name, NewARPredictor(projector))
		}
	}

	for _, fs := range required {
		if len(r.predictors[fs.Name]) == 0 {
			for _, err := range r.missing[fs.Name] {
				return nil, err
			}
			return nil, &domain.ModelArtifactMissingError{Model: fs.Name}
		}
	}
	return r, nil
}

// checkLayout verifies that a network accepts the windows built for fs and
// emits one value per feature column.
func checkLayout(a Architecture, fs domain.FeatureSet, label string) error {
	seq := domain.DefaultSequenceLength
	if a.SequenceLength != 0 && a.SequenceLength != seq {
		return &domain.DimensionMismatchError{Component: label + " sequence length", Want: []int{seq}, Got: []int{a.SequenceLength}}
	}
	want := fs.Width()
	if a.Flatten {
		want = seq * fs.Width()
	}
	if a.InputDim != want {
		return &domain.DimensionMismatchError{Component: label + " input", Want: []int{want}, Got: []int{a.InputDim}}
	}
	if a.OutputDim < fs.Width() {
		return &domain.DimensionMismatchError{Component: label + " output", Want: []int{fs.Width()}, Got: []int{a.OutputDim}}
	}
	return nil
}

func (r *Registry) configured(featureSet, kind string) bool {
	if _, ok := r.predictors[featureSet][kind]; ok {
		return true
	}
	_, ok := r.missing[featureSet][kind]
	return ok
}

// Applies reports whether a request for kind targets featureSet: either
// featureSet was configured with kind (loaded or missing), or no feature set
// was. A kind only other feature sets carry does not apply.
func (r *Registry) Applies(featureSet, kind string) bool {
	if r.configured(featureSet, kind) {
		return true
	}
	for fs := range r.predictors {
		if r.configured(fs, kind) {
			return false
		}
	}
	for fs := range r.missing {
		if r.configured(fs, kind) {
			return false
		}
	}
	return true
}

// Resolve returns the predictor for featureSet.
//
// An empty kind walks the fallback chain and then every registered model in
// registration order. A requested kind is tried first, then the fallback
// chain. A kind that does not apply to featureSet resolves as if no kind
// were requested.
func (r *Registry) Resolve(featureSet, kind string) (Predictor, error) {
	byKind := r.predictors[featureSet]
	if kind != "" && !r.Applies(featureSet, kind) {
		kind = ""
	}

	var candidates []string
	if kind != "" {
		candidates = append(candidates, kind)
	}
	candidates = append(candidates, r.fallback...)
	if kind == "" {
		candidates = append(candidates, r.order[featureSet]...)
	}

	for _, k := range candidates {
		if p, ok := byKind[k]; ok {
			return p, nil
		}
	}

	if len(candidates) == 0 {
		return nil, &domain.ModelArtifactMissingError{Model: featureSet}
	}
	first := candidates[0]
	if err, ok := r.missing[featureSet][first]; ok {
		return nil, err
	}
	return nil, &domain.ModelArtifactMissingError{Model: featureSet + "/" + first}
}

// Projector returns the autoregressive projector, or nil when none is configured.
func (r *Registry) Projector() *Projector { return r.projector }

// Available lists loaded model kinds for featureSet in registration order.
func (r *Registry) Available(featureSet string) []string {
	return slices.Clone(r.order[featureSet])
}
