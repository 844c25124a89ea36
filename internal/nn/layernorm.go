package nn

import (
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// LayerNorm applies layer normalization over the last dimension:
//
//	y = gamma * (x - mean(x)) / sqrt(var(x) + eps) + beta
//
// Gamma is initialized to ones and beta to zeros. Statistics are computed
// per position across the feature dimension, so the layer works for any
// number of leading dimensions.
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B]
	Beta    *Parameter[B]
	Epsilon float32
	backend B
}

// NewLayerNorm creates a LayerNorm over a feature dimension of the given
// size. epsilon is typically 1e-5.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", Ones(tensor.Shape{normalizedShape}, backend)),
		Beta:    NewParameter("beta", Zeros(tensor.Shape{normalizedShape}, backend)),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward normalizes the input along its last dimension.
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(-1, true)

	norm := centered.Div(variance.AddScalar(l.Epsilon).Sqrt())
	return norm.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns the trainable parameters of this layer.
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
