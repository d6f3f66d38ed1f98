package model

import (
	"fmt"
	"math"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

type lstmLayer struct {
	hidden   int
	ih, hh   dense
	combined []float64 // bias_ih + bias_hh
}

// LSTM is a stacked recurrent network with a normalized two-layer dense head
// applied to the final time step.
type LSTM struct {
	arch   Architecture
	layers []lstmLayer
	normH  layerNorm
	fc1    dense
	normFC layerNorm
	fc2    dense
}

func newLSTM(arch Architecture, t map[string]Tensor) *LSTM {
	m := &LSTM{arch: arch}
	for l := range arch.NumLayers {
		ih := newDense(t[fmt.Sprintf("lstm.weight_ih_l%d", l)], t[fmt.Sprintf("lstm.bias_ih_l%d", l)])
		hh := newDense(t[fmt.Sprintf("lstm.weight_hh_l%d", l)], t[fmt.Sprintf("lstm.bias_hh_l%d", l)])
		bias := make([]float64, 4*arch.HiddenSize)
		for i := range bias {
			bias[i] = ih.b[i] + hh.b[i]
		}
		m.layers = append(m.layers, lstmLayer{hidden: arch.HiddenSize, ih: ih, hh: hh, combined: bias})
	}
	m.normH = layerNorm{gamma: t["norm_lstm.weight"].Data, beta: t["norm_lstm.bias"].Data}
	m.fc1 = newDense(t["fc1.weight"], t["fc1.bias"])
	m.normFC = layerNorm{gamma: t["norm_fc1.weight"].Data, beta: t["norm_fc1.bias"].Data}
	m.fc2 = newDense(t["fc2.weight"], t["fc2.bias"])
	return m
}

// Name implements Predictor.
func (m *LSTM) Name() string { return KindLSTM }

// Architecture returns the descriptor the network was built from.
func (m *LSTM) Architecture() Architecture { return m.arch }

// Predict runs the window through every layer with zero initial state and
// returns the head output for the last step.
func (m *LSTM) Predict(w domain.Window) (domain.FeatureVector, error) {
	if err := m.arch.checkWindow(w); err != nil {
		return nil, err
	}

	seq := make([][]float64, w.Len())
	for i, r := range w.Rows {
		seq[i] = r
	}
	for _, layer := range m.layers {
		seq = layer.forward(seq)
	}

	last := seq[len(seq)-1]
	x := m.normH.forward(last)
	x = m.normFC.forward(m.fc1.forward(x))
	for i, v := range x {
		x[i] = math.Max(0, v)
	}
	return domain.FeatureVector(m.fc2.forward(x)), nil
}

// forward runs one layer over the whole sequence. Gate order is input,
// forget, cell, output.
func (l lstmLayer) forward(seq [][]float64) [][]float64 {
	h := make([]float64, l.hidden)
	c := make([]float64, l.hidden)
	out := make([][]float64, len(seq))

	for t, x := range seq {
		gates := l.ih.forwardNoBias(x)
		rec := l.hh.forwardNoBias(h)
		for i := range gates {
			gates[i] += rec[i] + l.combined[i]
		}

		next := make([]float64, l.hidden)
		for j := range l.hidden {
			in := sigmoid(gates[j])
			forget := sigmoid(gates[l.hidden+j])
			cell := math.Tanh(gates[2*l.hidden+j])
			outGate := sigmoid(gates[3*l.hidden+j])

			c[j] = forget*c[j] + in*cell
			next[j] = outGate * math.Tanh(c[j])
		}
		h = next
		out[t] = next
	}
	return out
}

func (d dense) forwardNoBias(x []float64) []float64 {
	y := make([]float64, d.out)
	for i := range d.out {
		row := d.w[i*d.in : (i+1)*d.in]
		var sum float64
		for j, v := range x {
			sum += row[j] * v
		}
		y[i] = sum
	}
	return y
}
