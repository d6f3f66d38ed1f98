package model

import (
	"fmt"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

type convLayer struct {
	in, out, kernel int
	w, b            []float64 // w shaped [out, in, kernel]
	act             Activation
}

// CNN is a stack of same-padded 1-D convolutions followed by a per-step
// dense projection. The prediction is the projection of the last step.
type CNN struct {
	arch   Architecture
	layers []convLayer
	fc     dense
}

func newCNN(arch Architecture, t map[string]Tensor) *CNN {
	m := &CNN{arch: arch}
	acts := arch.layerActivations()
	in := arch.InputDim
	for i, out := range arch.HiddenDims {
		m.layers = append(m.layers, convLayer{
			in:     in,
			out:    out,
			kernel: arch.KernelSizes[i],
			w:      t[fmt.Sprintf("conv.%d.weight", i)].Data,
			b:      t[fmt.Sprintf("conv.%d.bias", i)].Data,
			act:    acts[i],
		})
		in = out
	}
	m.fc = newDense(t["fc.weight"], t["fc.bias"])
	return m
}

// Name implements Predictor.
func (m *CNN) Name() string { return KindCNN }

// Architecture returns the descriptor the network was built from.
func (m *CNN) Architecture() Architecture { return m.arch }

// Predict implements Predictor.
func (m *CNN) Predict(w domain.Window) (domain.FeatureVector, error) {
	if err := m.arch.checkWindow(w); err != nil {
		return nil, err
	}

	x := m.channels(w)
	for _, layer := range m.layers {
		x = layer.forward(x)
	}

	steps := len(x[0])
	last := make([]float64, len(x))
	for c := range x {
		last[c] = x[c][steps-1]
	}
	return domain.FeatureVector(m.fc.forward(last)), nil
}

// channels lays the window out as [channel][step].
func (m *CNN) channels(w domain.Window) [][]float64 {
	if m.arch.Flatten {
		flat := w.Flatten()
		x := make([][]float64, len(flat))
		for c, v := range flat {
			x[c] = []float64{v}
		}
		return x
	}
	x := make([][]float64, w.Width())
	for c := range x {
		x[c] = w.Column(c)
	}
	return x
}

func (l convLayer) forward(x [][]float64) [][]float64 {
	steps := len(x[0])
	pad := l.kernel / 2
	y := make([][]float64, l.out)
	for o := range l.out {
		row := make([]float64, steps)
		for t := range steps {
			sum := l.b[o]
			for c := range l.in {
				base := (o*l.in + c) * l.kernel
				for k := range l.kernel {
					src := t + k - pad
					if src < 0 || src >= steps {
						continue
					}
					sum += l.w[base+k] * x[c][src]
				}
			}
			row[t] = l.act.Apply(sum)
		}
		y[o] = row
	}
	return y
}
