package nn

import (
	"fmt"
	"math/rand"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Dropout randomly zeroes elements of the input with probability p during
// training, scaling the surviving elements by 1/(1-p) so the expected
// activation stays unchanged. In evaluation mode (the default) the layer
// is the identity.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
}

// NewDropout creates a new Dropout layer with drop probability p in
// [0, 1).
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("nn: dropout probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{p: p}
}

// Train puts the layer in training mode, enabling dropout.
func (d *Dropout[B]) Train() { d.training = true }

// Eval puts the layer in evaluation mode, disabling dropout.
func (d *Dropout[B]) Eval() { d.training = false }

// Training reports whether the layer is in training mode.
func (d *Dropout[B]) Training() bool { return d.training }

// Forward applies dropout to the input. In evaluation mode or with p = 0
// the input is returned unchanged.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return x
	}

	scale := 1 / (1 - d.p)
	out := x.Clone()
	data := out.Data()
	for i := range data {
		//nolint:gosec // dropout sampling is not security-critical
		if rand.Float32() < d.p {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}
