package model

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// DefaultCoefficients weight the previous three steps.
var DefaultCoefficients = []float64{0.5, 0.3, 0.2}

// parallelThreshold is the series length below which Predict stays on one goroutine.
const parallelThreshold = 4096

// Projector is a fixed-coefficient autoregressive model:
//
//	pred[i] = Σ_j coeffs[j] · series[i-j-1]
//
// Lags before the start of the series contribute nothing. A Projector is
// immutable and safe for concurrent use.
type Projector struct {
	coeffs  []float64
	workers int
}

// NewProjector validates and copies coeffs.
func NewProjector(coeffs []float64) (*Projector, error) {
	if len(coeffs) == 0 {
		return nil, errors.New("autoregressive: no coefficients")
	}
	for i, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("autoregressive: coefficient %d is not finite", i)
		}
	}
	return &Projector{coeffs: slices.Clone(coeffs), workers: runtime.GOMAXPROCS(0)}, nil
}

// Coefficients returns a copy of the lag weights, lag 1 first.
func (p *Projector) Coefficients() []float64 { return slices.Clone(p.coeffs) }

// Order is the number of lags.
func (p *Projector) Order() int { return len(p.coeffs) }

func (p *Projector) at(series []float64, i int) float64 {
	var sum float64
	for j, c := range p.coeffs {
		k := i - j - 1
		if k < 0 {
			break
		}
		sum += c * series[k]
	}
	return sum
}

// PredictSequential computes the one-step prediction for every index.
func (p *Projector) PredictSequential(series []float64) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		out[i] = p.at(series, i)
	}
	return out
}

// Predict computes the same result as PredictSequential, splitting long
// series into disjoint chunks evaluated concurrently. Every output index
// reads only the input, so chunks never share writes.
func (p *Projector) Predict(series []float64) []float64 {
	n := len(series)
	if n < parallelThreshold || p.workers < 2 {
		return p.PredictSequential(series)
	}

	out := make([]float64, n)
	chunk := (n + p.workers - 1) / p.workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				out[i] = p.at(series, i)
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

// Project rolls the model forward horizon steps past the end of history,
// feeding each prediction back as the newest lag.
func (p *Projector) Project(history []float64, horizon int) []float64 {
	if horizon <= 0 {
		return nil
	}
	buf := make([]float64, len(history), len(history)+horizon)
	copy(buf, history)
	for range horizon {
		buf = append(buf, p.at(buf, len(buf)))
	}
	return slices.Clone(buf[len(history):])
}

// ARPredictor applies a Projector independently to every column of a window
// and returns the next-step value of each column in window order. It needs
// no weights artifact and backs the fallback chain.
type ARPredictor struct {
	projector *Projector
}

// NewARPredictor wraps p.
func NewARPredictor(p *Projector) *ARPredictor {
	return &ARPredictor{projector: p}
}

// Name implements Predictor.
func (a *ARPredictor) Name() string { return domain.ModelAR }

// Predict implements Predictor.
func (a *ARPredictor) Predict(w domain.Window) (domain.FeatureVector, error) {
	if w.Len() == 0 {
		return nil, &domain.DimensionMismatchError{Component: "ar window", Want: []int{1}, Got: []int{0}}
	}
	out := make(domain.FeatureVector, w.Width())
	for i := range out {
		out[i] = a.projector.Project(w.Column(i), 1)[0]
	}
	return out, nil
}
