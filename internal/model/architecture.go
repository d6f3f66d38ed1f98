package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/weather-forecast-service/internal/domain"
)

// Network kinds stored in artifact descriptors.
const (
	KindLSTM = domain.ModelLSTM
	KindCNN  = domain.ModelCNN
)

// defaultFCWidth is the width of the recurrent model's first dense head layer.
const defaultFCWidth = 25

var validate = validator.New()

// Architecture describes the topology a weights blob was trained with.
// It is validated when an artifact is loaded, never during inference.
type Architecture struct {
	Kind      string `json:"kind" validate:"required,oneof=lstm cnn"`
	InputDim  int    `json:"input_dim" validate:"gt=0"`
	OutputDim int    `json:"output_dim" validate:"gt=0"`

	// SequenceLength pins the number of rows accepted per window. Zero accepts any length.
	SequenceLength int `json:"sequence_length,omitempty" validate:"gte=0"`

	// Recurrent parameters.
	HiddenSize int `json:"hidden_size,omitempty" validate:"gte=0"`
	NumLayers  int `json:"num_layers,omitempty" validate:"gte=0"`
	FCWidth    int `json:"fc_width,omitempty" validate:"gte=0"`

	// Convolutional parameters. One activation applies to every layer.
	HiddenDims  []int        `json:"hidden_dims,omitempty" validate:"omitempty,dive,gt=0"`
	KernelSizes []int        `json:"kernel_sizes,omitempty" validate:"omitempty,dive,gt=0"`
	Activations []Activation `json:"activations,omitempty"`

	// Flatten feeds the whole window as channels of a single time step.
	Flatten bool `json:"flatten,omitempty"`
}

// Validate checks field ranges and kind-specific consistency.
func (a *Architecture) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("architecture: %w", err)
	}
	switch a.Kind {
	case KindLSTM:
		if a.HiddenSize == 0 || a.NumLayers == 0 {
			return errors.New("architecture: lstm requires hidden_size and num_layers")
		}
		if a.Flatten {
			return errors.New("architecture: lstm does not support flatten")
		}
	case KindCNN:
		if len(a.HiddenDims) == 0 {
			return errors.New("architecture: cnn requires hidden_dims")
		}
		if len(a.KernelSizes) != len(a.HiddenDims) {
			return fmt.Errorf("architecture: %d kernel sizes for %d conv layers", len(a.KernelSizes), len(a.HiddenDims))
		}
		for i, k := range a.KernelSizes {
			if k%2 == 0 {
				return fmt.Errorf("architecture: kernel size %d at layer %d must be odd", k, i)
			}
		}
		if n := len(a.Activations); n > 1 && n != len(a.HiddenDims) {
			return fmt.Errorf("architecture: %d activations for %d conv layers", n, len(a.HiddenDims))
		}
	}
	return nil
}

// layerActivations expands the configured activations to one per conv layer.
// ReLU is the default.
func (a *Architecture) layerActivations() []Activation {
	out := make([]Activation, len(a.HiddenDims))
	for i := range out {
		switch len(a.Activations) {
		case 0:
			out[i] = ReLU
		case 1:
			out[i] = a.Activations[0]
		default:
			out[i] = a.Activations[i]
		}
	}
	return out
}

func (a *Architecture) fcWidth() int {
	if a.FCWidth > 0 {
		return a.FCWidth
	}
	return defaultFCWidth
}

// TensorShapes lists every named weight tensor the architecture requires.
func (a *Architecture) TensorShapes() map[string][]int {
	shapes := make(map[string][]int)
	switch a.Kind {
	case KindLSTM:
		h, fc := a.HiddenSize, a.fcWidth()
		for l := range a.NumLayers {
			in := a.InputDim
			if l > 0 {
				in = h
			}
			shapes[fmt.Sprintf("lstm.weight_ih_l%d", l)] = []int{4 * h, in}
			shapes[fmt.Sprintf("lstm.weight_hh_l%d", l)] = []int{4 * h, h}
			shapes[fmt.Sprintf("lstm.bias_ih_l%d", l)] = []int{4 * h}
			shapes[fmt.Sprintf("lstm.bias_hh_l%d", l)] = []int{4 * h}
		}
		shapes["norm_lstm.weight"] = []int{h}
		shapes["norm_lstm.bias"] = []int{h}
		shapes["fc1.weight"] = []int{fc, h}
		shapes["fc1.bias"] = []int{fc}
		shapes["norm_fc1.weight"] = []int{fc}
		shapes["norm_fc1.bias"] = []int{fc}
		shapes["fc2.weight"] = []int{a.OutputDim, fc}
		shapes["fc2.bias"] = []int{a.OutputDim}
	case KindCNN:
		in := a.InputDim
		for i, out := range a.HiddenDims {
			shapes[fmt.Sprintf("conv.%d.weight", i)] = []int{out, in, a.KernelSizes[i]}
			shapes[fmt.Sprintf("conv.%d.bias", i)] = []int{out}
			in = out
		}
		shapes["fc.weight"] = []int{a.OutputDim, in}
		shapes["fc.bias"] = []int{a.OutputDim}
	}
	return shapes
}

// checkWindow verifies that w matches the declared input layout.
func (a *Architecture) checkWindow(w domain.Window) error {
	if w.Len() == 0 {
		return &domain.DimensionMismatchError{Component: a.Kind + " window", Want: []int{max(a.SequenceLength, 1)}, Got: []int{0}}
	}
	if a.SequenceLength > 0 && w.Len() != a.SequenceLength {
		return &domain.DimensionMismatchError{Component: a.Kind + " sequence length", Want: []int{a.SequenceLength}, Got: []int{w.Len()}}
	}
	got := w.Width()
	if a.Flatten {
		got = w.Len() * w.Width()
	}
	if got != a.InputDim {
		return &domain.DimensionMismatchError{Component: a.Kind + " input", Want: []int{a.InputDim}, Got: []int{got}}
	}
	for t, r := range w.Rows {
		if len(r) != w.Width() {
			return &domain.DimensionMismatchError{Component: fmt.Sprintf("%s row %d", a.Kind, t), Want: []int{w.Width()}, Got: []int{len(r)}}
		}
	}
	return nil
}
