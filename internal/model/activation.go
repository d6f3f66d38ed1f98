package model

import (
	"fmt"
	"math"
	"strings"
)

// Activation is a supported element-wise activation function.
type Activation int

const (
	ReLU Activation = iota
	Tanh
	Sigmoid
	LeakyReLU
	ELU
	GELU
	SELU
	Identity
)

const (
	leakyReLUSlope = 0.01
	seluAlpha      = 1.6732632423543772
	seluScale      = 1.0507009873554805
)

var activationNames = [...]string{
	ReLU:      "relu",
	Tanh:      "tanh",
	Sigmoid:   "sigmoid",
	LeakyReLU: "leaky_relu",
	ELU:       "elu",
	GELU:      "gelu",
	SELU:      "selu",
	Identity:  "identity",
}

// ParseActivation resolves an activation name. "none" is an alias for identity.
func ParseActivation(name string) (Activation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "none" {
		return Identity, nil
	}
	for a, n := range activationNames {
		if n == name {
			return Activation(a), nil
		}
	}
	return 0, fmt.Errorf("unsupported activation %q", name)
}

func (a Activation) String() string {
	if a < 0 || int(a) >= len(activationNames) {
		return fmt.Sprintf("activation(%d)", int(a))
	}
	return activationNames[a]
}

// MarshalText implements encoding.TextMarshaler.
func (a Activation) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(activationNames) {
		return nil, fmt.Errorf("unsupported activation %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so descriptors are
// validated while they are decoded.
func (a *Activation) UnmarshalText(text []byte) error {
	parsed, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Apply evaluates the activation at x.
func (a Activation) Apply(x float64) float64 {
	switch a {
	case ReLU:
		return math.Max(0, x)
	case Tanh:
		return math.Tanh(x)
	case Sigmoid:
		return sigmoid(x)
	case LeakyReLU:
		if x >= 0 {
			return x
		}
		return leakyReLUSlope * x
	case ELU:
		if x > 0 {
			return x
		}
		return math.Expm1(x)
	case GELU:
		return 0.5 * x * (1 + math.Erf(x/math.Sqrt2))
	case SELU:
		if x > 0 {
			return seluScale * x
		}
		return seluScale * seluAlpha * math.Expm1(x)
	default:
		return x
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
