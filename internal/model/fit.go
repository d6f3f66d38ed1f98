package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// FitOptions bound the coefficient search.
type FitOptions struct {
	Order     int
	Lower     float64
	Upper     float64
	MaxIter   int
	Tolerance float64
	Initial   []float64
}

// DefaultFitOptions fits three lags constrained to [0, 1].
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Order:     len(DefaultCoefficients),
		Lower:     0,
		Upper:     1,
		MaxIter:   10_000,
		Tolerance: 1e-10,
		Initial:   slices.Clone(DefaultCoefficients),
	}
}

// FitCoefficients minimizes the sum of squared one-step residuals of series
// over box-bounded coefficients using cyclic coordinate descent. Each
// coordinate step is the exact minimizer clipped to the bounds, so the loss
// never increases.
func FitCoefficients(series []float64, opts FitOptions) ([]float64, error) {
	k := opts.Order
	if k <= 0 {
		return nil, errors.New("fit: order must be positive")
	}
	if opts.Lower > opts.Upper {
		return nil, fmt.Errorf("fit: lower bound %v above upper bound %v", opts.Lower, opts.Upper)
	}
	if len(series) <= k {
		return nil, fmt.Errorf("fit: need more than %d points, have %d", k, len(series))
	}

	c := make([]float64, k)
	if len(opts.Initial) == k {
		copy(c, opts.Initial)
	} else {
		for j := range c {
			c[j] = 1 / float64(k)
		}
	}
	for j := range c {
		c[j] = clamp(c[j], opts.Lower, opts.Upper)
	}

	// Residuals over t in [k, n) are maintained incrementally.
	n := len(series)
	resid := make([]float64, n-k)
	for t := k; t < n; t++ {
		r := series[t]
		for j := range k {
			r -= c[j] * series[t-j-1]
		}
		resid[t-k] = r
	}

	energy := make([]float64, k)
	for j := range k {
		for t := k; t < n; t++ {
			x := series[t-j-1]
			energy[j] += x * x
		}
	}

	maxIter := max(opts.MaxIter, 1)
	for range maxIter {
		var shift float64
		for j := range k {
			if energy[j] == 0 {
				continue
			}
			var dot float64
			for t := k; t < n; t++ {
				dot += resid[t-k] * series[t-j-1]
			}
			next := clamp(c[j]+dot/energy[j], opts.Lower, opts.Upper)
			delta := next - c[j]
			if delta == 0 {
				continue
			}
			for t := k; t < n; t++ {
				resid[t-k] -= delta * series[t-j-1]
			}
			c[j] = next
			shift = math.Max(shift, math.Abs(delta))
		}
		if shift <= opts.Tolerance {
			break
		}
	}
	return c, nil
}

// SquaredError is the sum of squared one-step residuals of coeffs on series,
// counted from the first index with a full set of lags.
func SquaredError(series, coeffs []float64) float64 {
	var sum float64
	for t := len(coeffs); t < len(series); t++ {
		r := series[t]
		for j, c := range coeffs {
			r -= c * series[t-j-1]
		}
		sum += r * r
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
