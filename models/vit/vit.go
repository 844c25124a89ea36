// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vit provides a vision transformer encoder that operates on padded
// image batches: images are embedded patch-wise, prefixed with optional
// class and register tokens, and encoded with padding-aware self-attention.
package vit

import (
	"github.com/FrancescoGentile/deepsight/internal/models/vit"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// EncoderConfig configures a vision transformer encoder.
type EncoderConfig = vit.EncoderConfig

// PatchEmbed embeds images into patch tokens with a strided convolution.
type PatchEmbed[B tensor.Backend] = vit.PatchEmbed[B]

// NewPatchEmbed creates a patch embedding layer.
func NewPatchEmbed[B tensor.Backend](inChannels, embedDim, patchSize int, backend B) *PatchEmbed[B] {
	return vit.NewPatchEmbed(inChannels, embedDim, patchSize, backend)
}

// EncoderLayer is one transformer block: self-attention and a feed-forward
// network, each behind layer normalization with a residual connection and
// optional layer scale.
type EncoderLayer[B tensor.Backend] = vit.EncoderLayer[B]

// NewEncoderLayer creates a single encoder layer.
func NewEncoderLayer[B tensor.Backend](cfg EncoderConfig, backend B) *EncoderLayer[B] {
	return vit.NewEncoderLayer(cfg, backend)
}

// Encoder is the full vision transformer encoder. Forward consumes a padded
// image batch and returns the encoded token sequences with padding compacted
// to the tail of each sequence.
type Encoder[B tensor.Backend] = vit.Encoder[B]

// NewEncoder creates an encoder from its configuration.
func NewEncoder[B tensor.Backend](cfg EncoderConfig, backend B) (*Encoder[B], error) {
	return vit.NewEncoder(cfg, backend)
}
