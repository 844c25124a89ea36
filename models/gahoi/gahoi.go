// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gahoi provides the graph-attention decoder for human-object
// interaction detection: graph attention over entity graphs, cross-attention
// from graph nodes to image patches with continuous position bias, and the
// decoder stack combining the two.
package gahoi

import (
	"github.com/FrancescoGentile/deepsight/internal/models/gahoi"
	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// GraphAttentionConfig configures a graph attention layer.
type GraphAttentionConfig = gahoi.GraphAttentionConfig

// GraphAttention propagates information along graph edges: attention scores
// are computed per edge and normalized across the edges leaving each node,
// so nodes without outgoing edges receive a zero update.
type GraphAttention[B tensor.Backend] = gahoi.GraphAttention[B]

// NewGraphAttention creates a graph attention layer.
func NewGraphAttention[B tensor.Backend](cfg GraphAttentionConfig, backend B) (*GraphAttention[B], error) {
	return gahoi.NewGraphAttention(cfg, backend)
}

// CrossAttentionConfig configures a cross-attention layer.
type CrossAttentionConfig = gahoi.CrossAttentionConfig

// CrossAttention attends graph nodes (queries) to image patches (keys and
// values), biasing attention logits with a continuous position bias computed
// from node-to-patch displacements. Padded patches are masked out.
type CrossAttention[B tensor.Backend] = gahoi.CrossAttention[B]

// NewCrossAttention creates a cross-attention layer. A nil mechanism
// defaults to scaled dot-product attention.
func NewCrossAttention[B tensor.Backend](
	cfg CrossAttentionConfig,
	mechanism nn.AttentionMechanism[B],
	backend B,
) (*CrossAttention[B], error) {
	return gahoi.NewCrossAttention(cfg, mechanism, backend)
}

// DecoderConfig configures the decoder stack.
type DecoderConfig = gahoi.DecoderConfig

// DecoderLayer is one decoder block: graph attention, cross-attention to the
// image, and a feed-forward network, each behind layer normalization with a
// residual connection.
type DecoderLayer[B tensor.Backend] = gahoi.DecoderLayer[B]

// NewDecoderLayer creates a single decoder layer.
func NewDecoderLayer[B tensor.Backend](cfg DecoderConfig, backend B) (*DecoderLayer[B], error) {
	return gahoi.NewDecoderLayer(cfg, backend)
}

// Decoder is a stack of decoder layers. Forward returns the refined graphs
// after every layer, deepest last, so auxiliary losses can supervise
// intermediate states.
type Decoder[B tensor.Backend] = gahoi.Decoder[B]

// NewDecoder creates a decoder stack.
func NewDecoder[B tensor.Backend](cfg DecoderConfig, backend B) (*Decoder[B], error) {
	return gahoi.NewDecoder(cfg, backend)
}
