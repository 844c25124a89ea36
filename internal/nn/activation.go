package nn

import (
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// ReLU applies the rectified linear unit element-wise: max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the activation.
func (r *ReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	raw := x.Backend().ReLU(x.Raw())
	return tensor.New[float32](raw, x.Backend())
}

// GELU applies the Gaussian error linear unit, using the tanh
// approximation common in transformer implementations.
type GELU[B tensor.Backend] struct{}

// NewGELU creates a new GELU activation.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies the activation.
func (g *GELU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	raw := x.Backend().GELU(x.Raw())
	return tensor.New[float32](raw, x.Backend())
}

// LeakyReLU applies max(x, negativeSlope*x) element-wise.
type LeakyReLU[B tensor.Backend] struct {
	NegativeSlope float32
}

// NewLeakyReLU creates a new LeakyReLU activation with the given slope for
// negative inputs (typically 0.01).
func NewLeakyReLU[B tensor.Backend](negativeSlope float32) *LeakyReLU[B] {
	return &LeakyReLU[B]{NegativeSlope: negativeSlope}
}

// Forward applies the activation.
func (l *LeakyReLU[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	raw := x.Backend().LeakyReLU(x.Raw(), l.NegativeSlope)
	return tensor.New[float32](raw, x.Backend())
}
