// Package nn provides the neural network building blocks of the toolkit:
// parameters, linear and normalization layers, activations, and the
// attention mechanisms the model packages compose.
package nn

import (
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Parameter is a named weight tensor owned by a layer.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a new named parameter wrapping the given tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Set replaces the parameter values in place. The new tensor must have the
// same shape as the current one.
func (p *Parameter[B]) Set(t *tensor.Tensor[float32, B]) {
	if !p.tensor.Shape().Equal(t.Shape()) {
		panic("nn: parameter shape mismatch")
	}
	p.tensor = t
}
