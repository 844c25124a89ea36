package nn

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W.T + b.
//
// The weight matrix has shape [out_features, in_features] and is
// initialized with Xavier uniform values; the bias is initialized to
// zeros. Inputs may have any number of leading dimensions: the layer
// applies to the last dimension and preserves the rest.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(256, 128, true, backend)
//	output := layer.Forward(input) // [..., 256] -> [..., 128]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B] // nil when the layer has no bias
	backend     B
}

// NewLinear creates a new Linear layer mapping inFeatures to outFeatures.
// When withBias is false, the layer applies only the weight matrix.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, withBias bool, backend B) *Linear[B] {
	weight := NewParameter("weight",
		Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend))

	var bias *Parameter[B]
	if withBias {
		bias = NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))
	}

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward applies the affine transformation to the last dimension of the
// input: [..., in_features] -> [..., out_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 1 || shape[len(shape)-1] != l.inFeatures {
		panic(fmt.Sprintf(
			"Linear.Forward: expected input with %d features, got shape %v",
			l.inFeatures, shape,
		))
	}

	rows := 1
	for _, d := range shape[:len(shape)-1] {
		rows *= d
	}

	flat := input.Reshape(rows, l.inFeatures)
	output := flat.MatMul(l.weight.Tensor().T())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	outShape := make([]int, len(shape))
	copy(outShape, shape)
	outShape[len(outShape)-1] = l.outFeatures
	return output.Reshape(outShape...)
}

// Parameters returns the trainable parameters of this layer.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter, or nil for a bias-free layer.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }
