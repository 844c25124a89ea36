package nn

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Conv2D applies a 2D convolution over a (B, C, H, W) input.
//
// The kernel has shape [out_channels, in_channels, k, k] and is
// initialized with Xavier uniform values scaled by the receptive field.
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewConv2D creates a convolution layer with square kernels.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels, kernelSize, stride, padding int,
	backend B,
) *Conv2D[B] {
	if kernelSize <= 0 || stride <= 0 || padding < 0 {
		panic(fmt.Sprintf(
			"nn: invalid convolution geometry: kernel %d, stride %d, padding %d",
			kernelSize, stride, padding,
		))
	}

	fanIn := inChannels * kernelSize * kernelSize
	fanOut := outChannels * kernelSize * kernelSize
	weight := NewParameter("weight", Xavier(
		fanIn, fanOut,
		tensor.Shape{outChannels, inChannels, kernelSize, kernelSize},
		backend,
	))

	return &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		weight:      weight,
		bias:        NewParameter("bias", Zeros(tensor.Shape{outChannels}, backend)),
		backend:     backend,
	}
}

// Forward convolves the input: (B, C, H, W) -> (B, O, H', W').
func (c *Conv2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 || shape[1] != c.inChannels {
		panic(fmt.Sprintf(
			"Conv2D.Forward: expected (B, %d, H, W) input, got shape %v",
			c.inChannels, shape,
		))
	}

	raw := c.backend.Conv2D(x.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding)
	out := tensor.New[float32](raw, c.backend)
	// Broadcast bias over the spatial dimensions.
	return out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
}

// Parameters returns the trainable parameters of this layer.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}

// Weight returns the kernel parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] { return c.weight }
