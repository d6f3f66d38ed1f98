package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// layerNormEpsilon matches the epsilon the recurrent model was trained with.
const layerNormEpsilon = 1e-5

// Tensor is a dense row-major array.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func (t Tensor) size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// bindTensors checks that tensors hold exactly the expected names and shapes.
func bindTensors(expected map[string][]int, tensors map[string]Tensor) error {
	for _, name := range sortedKeys(expected) {
		want := expected[name]
		got, ok := tensors[name]
		if !ok {
			return &domain.DimensionMismatchError{Component: "tensor " + name, Want: want, Got: nil}
		}
		if !slices.Equal(want, got.Shape) {
			return &domain.DimensionMismatchError{Component: "tensor " + name, Want: want, Got: got.Shape}
		}
		if len(got.Data) != got.size() {
			return &domain.DimensionMismatchError{Component: "tensor " + name + " data", Want: []int{got.size()}, Got: []int{len(got.Data)}}
		}
		for i, v := range got.Data {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("tensor %s: non-finite value at %d", name, i)
			}
		}
	}
	for _, name := range sortedKeys(tensors) {
		if _, ok := expected[name]; !ok {
			return &domain.DimensionMismatchError{Component: "unexpected tensor " + name, Want: nil, Got: tensors[name].Shape}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// dense is a fully connected layer y = Wx + b with W shaped [out, in].
type dense struct {
	in, out int
	w, b    []float64
}

func newDense(w, b Tensor) dense {
	return dense{in: w.Shape[1], out: w.Shape[0], w: w.Data, b: b.Data}
}

func (d dense) forward(x []float64) []float64 {
	y := make([]float64, d.out)
	for i := range d.out {
		sum := d.b[i]
		row := d.w[i*d.in : (i+1)*d.in]
		for j, v := range x {
			sum += row[j] * v
		}
		y[i] = sum
	}
	return y
}

// layerNorm normalizes a vector and applies an elementwise affine transform.
type layerNorm struct {
	gamma, beta []float64
}

func (n layerNorm) forward(x []float64) []float64 {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))

	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(x))

	inv := 1 / math.Sqrt(variance+layerNormEpsilon)
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = (v-mean)*inv*n.gamma[i] + n.beta[i]
	}
	return y
}
