// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv2D, LayerNorm, FFN, MultiHeadSelfAttention
//   - Activations: ReLU, GELU, LeakyReLU
//   - Attention: the AttentionMechanism interface and its reference
//     ScaledDotProductAttention implementation
//   - Regularization: Dropout, LayerScale
//   - Utilities: Parameter, initialization helpers, KeyPaddingMask
//
// Modules that behave differently at inference time (those carrying
// Dropout) expose Train and Eval toggles; everything else is stateless
// with respect to mode.
//
// # Basic Usage
//
//	import (
//	    "github.com/FrancescoGentile/deepsight/nn"
//	    "github.com/FrancescoGentile/deepsight/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    layer := nn.NewLinear(784, 128, true, backend)
//	    output := layer.Forward(input)
//	}
package nn

import (
	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Parameter represents a named trainable tensor in a neural network module.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Initialization

// Xavier creates a tensor initialized with Xavier (Glorot) uniform values
// for the given fan-in and fan-out.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// TruncatedNormal creates a tensor initialized from N(0, std²) truncated at
// two standard deviations.
func TruncatedNormal[B tensor.Backend](shape tensor.Shape, std float64, backend B) *tensor.Tensor[float32, B] {
	return nn.TruncatedNormal(shape, std, backend)
}

// Zeros creates a zero-initialized float32 parameter tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a one-initialized float32 parameter tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Layers

// Linear is a fully connected layer. Forward accepts inputs of any rank and
// applies the projection to the last dimension.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, true, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, withBias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, withBias, backend)
}

// Conv2D is a 2D convolutional layer over (B, C, H, W) inputs.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a 2D convolutional layer with a square kernel.
func NewConv2D[B tensor.Backend](
	inChannels, outChannels, kernelSize, stride, padding int,
	backend B,
) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, backend)
}

// LayerNorm normalizes the last dimension of its input to zero mean and unit
// variance, then applies a learned affine transform.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer normalization module over the given feature
// dimension.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// FFN is the position-wise feed-forward block used in transformer layers:
// Linear -> GELU -> Dropout -> Linear -> Dropout.
type FFN[B tensor.Backend] = nn.FFN[B]

// NewFFN creates a feed-forward block mapping dim -> hiddenDim -> dim.
func NewFFN[B tensor.Backend](dim, hiddenDim int, dropout float32, backend B) *FFN[B] {
	return nn.NewFFN(dim, hiddenDim, dropout, backend)
}

// Activations

// ReLU applies the rectified linear unit element-wise.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// GELU applies the Gaussian error linear unit element-wise.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return nn.NewGELU[B]()
}

// LeakyReLU applies the leaky rectified linear unit element-wise.
type LeakyReLU[B tensor.Backend] = nn.LeakyReLU[B]

// NewLeakyReLU creates a LeakyReLU activation with the given negative slope.
func NewLeakyReLU[B tensor.Backend](negativeSlope float32) *LeakyReLU[B] {
	return nn.NewLeakyReLU[B](negativeSlope)
}

// Regularization

// Dropout zeroes elements with probability p during training and rescales
// the survivors by 1/(1-p). In eval mode it is the identity.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout module. It panics if p is outside [0, 1).
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	return nn.NewDropout[B](p)
}

// LayerScale multiplies its input by a learned per-channel scale, as used in
// deep vision transformers.
type LayerScale[B tensor.Backend] = nn.LayerScale[B]

// NewLayerScale creates a layer scale module with the given initial value.
func NewLayerScale[B tensor.Backend](dim int, initValue float32, backend B) *LayerScale[B] {
	return nn.NewLayerScale(dim, initValue, backend)
}

// Attention

// AttentionMechanism computes attention over (B, H, L, D) query, key, and
// value tensors with an optional additive (B, H, Q, K) mask. Implementations
// can be swapped into any attention layer in the toolkit.
type AttentionMechanism[B tensor.Backend] = nn.AttentionMechanism[B]

// ScaledDotProductAttention is the reference AttentionMechanism:
// softmax(QKᵀ·scale + mask)·V.
type ScaledDotProductAttention[B tensor.Backend] = nn.ScaledDotProductAttention[B]

// NewScaledDotProductAttention creates a scaled dot-product attention
// mechanism. A zero scale defaults to 1/√headDim.
func NewScaledDotProductAttention[B tensor.Backend](dropout, scale float32) *ScaledDotProductAttention[B] {
	return nn.NewScaledDotProductAttention[B](dropout, scale)
}

// MultiHeadSelfAttention projects its input to queries, keys, and values,
// runs the configured AttentionMechanism per head, and merges the result.
type MultiHeadSelfAttention[B tensor.Backend] = nn.MultiHeadSelfAttention[B]

// NewMultiHeadSelfAttention creates a multi-head self-attention layer. A nil
// mechanism defaults to scaled dot-product attention.
func NewMultiHeadSelfAttention[B tensor.Backend](
	dim, numHeads int,
	qkvBias bool,
	mechanism AttentionMechanism[B],
	backend B,
) *MultiHeadSelfAttention[B] {
	return nn.NewMultiHeadSelfAttention(dim, numHeads, qkvBias, mechanism, backend)
}

// KeyPaddingMask expands a (B, K) boolean padding mask (True = padded) into
// an additive (B, H, Q, K) attention mask with -inf at padded key positions.
func KeyPaddingMask[B tensor.Backend](
	padding *tensor.Tensor[bool, B],
	numHeads, numQueries int,
) *tensor.Tensor[float32, B] {
	return nn.KeyPaddingMask(padding, numHeads, numQueries)
}
