package domain

import (
	"errors"
	"fmt"
	"math"
)

// zeroVarianceEpsilon guards constant columns (lat/lon inside one window).
// Below it the column is centered but not scaled.
const zeroVarianceEpsilon = 1e-8

// Scaler is the standard-score state of one feature column.
type Scaler struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// FitScaler computes mean and population standard deviation of values.
func FitScaler(column string, values []float64) (Scaler, error) {
	if len(values) == 0 {
		return Scaler{}, fmt.Errorf("fit scaler %q: no values", column)
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(values)))

	return Scaler{Column: column, Mean: mean, Std: std}, nil
}

func (s Scaler) scale() float64 {
	if s.Std < zeroVarianceEpsilon {
		return 1
	}
	return s.Std
}

// Transform maps x to its standard score.
func (s Scaler) Transform(x float64) float64 {
	return (x - s.Mean) / s.scale()
}

// Inverse maps a standard score back to physical units.
func (s Scaler) Inverse(z float64) float64 {
	return z*s.scale() + s.Mean
}

// ScalerSet holds one scaler per window column, in column order. A set is
// fit for a single window and must be used to invert that window's
// predictions only.
type ScalerSet []Scaler

// FitScalers fits an independent scaler to every column of w.
func FitScalers(w Window) (ScalerSet, error) {
	if w.Len() == 0 {
		return nil, errors.New("fit scalers: empty window")
	}
	set := make(ScalerSet, w.Width())
	for i, col := range w.Columns {
		s, err := FitScaler(col, w.Column(i))
		if err != nil {
			return nil, err
		}
		set[i] = s
	}
	return set, nil
}

// TransformWindow returns a normalized copy of w.
func (set ScalerSet) TransformWindow(w Window) (Window, error) {
	if w.Width() != len(set) {
		return Window{}, &DimensionMismatchError{Component: "scaler set", Want: []int{len(set)}, Got: []int{w.Width()}}
	}
	out := Window{Columns: w.Columns, Rows: make([]FeatureVector, w.Len())}
	for t, r := range w.Rows {
		if len(r) != len(set) {
			return Window{}, &DimensionMismatchError{Component: "scaler set", Want: []int{len(set)}, Got: []int{len(r)}}
		}
		vec := make(FeatureVector, len(r))
		for i, v := range r {
			vec[i] = set[i].Transform(v)
		}
		out.Rows[t] = vec
	}
	return out, nil
}

// InverseVector maps a normalized vector in column order back to physical units.
func (set ScalerSet) InverseVector(v FeatureVector) (FeatureVector, error) {
	if len(v) != len(set) {
		return nil, &DimensionMismatchError{Component: "scaler set", Want: []int{len(set)}, Got: []int{len(v)}}
	}
	out := make(FeatureVector, len(v))
	for i, z := range v {
		out[i] = set[i].Inverse(z)
	}
	return out, nil
}

// Inverse maps one normalized value of column back to physical units.
func (set ScalerSet) Inverse(column string, z float64) (float64, error) {
	for _, s := range set {
		if s.Column == column {
			return s.Inverse(z), nil
		}
	}
	return 0, fmt.Errorf("no scaler for column %q", column)
}
