package nn

import (
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// LayerScale multiplies the input by a learnable per-channel vector,
// initialized to a small constant. It is applied to residual branches of
// deep vision transformers to stabilize training.
type LayerScale[B tensor.Backend] struct {
	Gamma *Parameter[B]
}

// NewLayerScale creates a LayerScale over a feature dimension of the
// given size, with every channel initialized to initValue (typically
// 1e-5 or 1e-6).
func NewLayerScale[B tensor.Backend](dim int, initValue float32, backend B) *LayerScale[B] {
	gamma := tensor.Full(tensor.Shape{dim}, initValue, backend)
	return &LayerScale[B]{Gamma: NewParameter("gamma", gamma)}
}

// Forward scales the last dimension of the input channel-wise.
func (l *LayerScale[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return x.Mul(l.Gamma.Tensor())
}

// Parameters returns the trainable parameters of this layer.
func (l *LayerScale[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma}
}
