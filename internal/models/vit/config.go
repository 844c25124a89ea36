// Package vit implements a vision transformer encoder over the batched
// image structures: patch embedding via strided convolution, optional
// class and register tokens, and a stack of pre-norm attention layers
// with optional residual scaling.
package vit

import (
	"fmt"
)

// EncoderConfig configures a vision transformer encoder.
type EncoderConfig struct {
	// ImageSize is the (square) input resolution in pixels.
	ImageSize int
	// PatchSize is the (square) patch resolution. ImageSize must be
	// divisible by it.
	PatchSize int
	// InChannels is the number of input image channels.
	InChannels int
	// EmbedDim is the token dimension. It must be divisible by NumHeads.
	EmbedDim int
	// NumLayers is the number of encoder layers.
	NumLayers int
	// NumHeads is the number of attention heads per layer.
	NumHeads int
	// FFNHiddenRatio is the feed-forward expansion factor. Zero selects 4.
	FFNHiddenRatio float32
	// QKVBias enables bias terms on the query/key/value projection.
	QKVBias bool
	// LayerScaleInitValue scales residual branches when non-zero
	// (typically 1e-5); zero disables LayerScale.
	LayerScaleInitValue float32
	// UseClassToken prepends a learned classification token.
	UseClassToken bool
	// NumRegisterTokens prepends this many learned register tokens.
	NumRegisterTokens int
	// PostNormalize applies a final LayerNorm after the last layer.
	PostNormalize bool
	// PosEmbedDropout, AttnDropout, ProjDropout, and FFNDropout are the
	// dropout probabilities of the respective stages.
	PosEmbedDropout float32
	AttnDropout     float32
	ProjDropout     float32
	FFNDropout      float32
}

// Validate reports the first configuration error, or nil.
func (c *EncoderConfig) Validate() error {
	if c.ImageSize <= 0 || c.PatchSize <= 0 {
		return fmt.Errorf(
			"vit: image size %d and patch size %d must be positive",
			c.ImageSize, c.PatchSize,
		)
	}
	if c.ImageSize%c.PatchSize != 0 {
		return fmt.Errorf(
			"vit: image size %d must be divisible by patch size %d",
			c.ImageSize, c.PatchSize,
		)
	}
	if c.InChannels <= 0 {
		return fmt.Errorf("vit: input channels must be positive, got %d", c.InChannels)
	}
	if c.EmbedDim <= 0 || c.NumHeads <= 0 || c.EmbedDim%c.NumHeads != 0 {
		return fmt.Errorf(
			"vit: embedding dimension %d must be positive and divisible by %d heads",
			c.EmbedDim, c.NumHeads,
		)
	}
	if c.NumLayers <= 0 {
		return fmt.Errorf("vit: number of layers must be positive, got %d", c.NumLayers)
	}
	if c.NumRegisterTokens < 0 {
		return fmt.Errorf("vit: number of register tokens must be non-negative, got %d", c.NumRegisterTokens)
	}
	return nil
}

// ffnHiddenDim returns the feed-forward hidden dimension.
func (c *EncoderConfig) ffnHiddenDim() int {
	ratio := c.FFNHiddenRatio
	if ratio == 0 {
		ratio = 4
	}
	return int(ratio * float32(c.EmbedDim))
}

// numPrefixTokens returns how many non-patch tokens lead the sequence.
func (c *EncoderConfig) numPrefixTokens() int {
	n := c.NumRegisterTokens
	if c.UseClassToken {
		n++
	}
	return n
}

// numPatches returns the length of the patch grid flattened.
func (c *EncoderConfig) numPatches() int {
	side := c.ImageSize / c.PatchSize
	return side * side
}
