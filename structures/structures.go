// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package structures provides the batch-aware data structures of the
// DeepSight toolkit: bounding boxes, padded image and sequence batches,
// and graph arenas.
//
// Every structure carries the metadata needed to keep padded or derived
// entries distinguishable from real data. Boolean masks follow a single
// convention throughout: True marks a padded (invalid) entry.
//
// Example:
//
//	backend := cpu.New()
//	img1 := tensor.Rand[float32](tensor.Shape{3, 4, 6}, backend)
//	img2 := tensor.Rand[float32](tensor.Shape{3, 6, 5}, backend)
//	batch, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.Backend]{img1, img2}, 0)
package structures

import (
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// ImageSize is the (height, width) extent of an image in pixels.
type ImageSize = structures.ImageSize

// BoxFormat identifies the coordinate layout of a set of bounding boxes.
type BoxFormat = structures.BoxFormat

// Box coordinate layouts.
const (
	// BoxFormatXYXY stores (x1, y1, x2, y2): top-left and bottom-right corners.
	BoxFormatXYXY BoxFormat = structures.BoxFormatXYXY
	// BoxFormatXYWH stores (x1, y1, w, h): top-left corner plus extent.
	BoxFormatXYWH BoxFormat = structures.BoxFormatXYWH
	// BoxFormatCXCYWH stores (cx, cy, w, h): center plus extent.
	BoxFormatCXCYWH BoxFormat = structures.BoxFormatCXCYWH
)

// BoundingBoxes is an immutable set of axis-aligned boxes tied to the image
// they were annotated on. Every operation returns a new set; conversions
// that would be no-ops return the receiver unchanged.
type BoundingBoxes[B tensor.Backend] = structures.BoundingBoxes[B]

// NewBoundingBoxes creates a set of bounding boxes from an (N, 4) coordinate
// tensor, its format, whether the coordinates are normalized to [0, 1], and
// the size of the image they refer to.
func NewBoundingBoxes[B tensor.Backend](
	coords *tensor.Tensor[float32, B],
	format BoxFormat,
	normalized bool,
	imageSize ImageSize,
) (*BoundingBoxes[B], error) {
	return structures.NewBoundingBoxes(coords, format, normalized, imageSize)
}

// BatchedImages is a batch of images padded to a common canvas, with the
// original sizes and a (B, H, W) padding mask retained so padded pixels stay
// distinguishable from real ones.
type BatchedImages[T tensor.DType, B tensor.Backend] = structures.BatchedImages[T, B]

// BatchImages pads a list of (C, H, W) images to the largest height and
// width in the list and stacks them into a single (B, C, Hmax, Wmax) batch.
func BatchImages[T tensor.DType, B tensor.Backend](
	images []*tensor.Tensor[T, B],
	padValue T,
) (*BatchedImages[T, B], error) {
	return structures.BatchImages(images, padValue)
}

// NewBatchedImages wraps an already padded (B, C, H, W) tensor. Either the
// per-image sizes or the padding mask may be nil, in which case it is
// derived from the other; if both are nil the full canvas is assumed valid.
func NewBatchedImages[T tensor.DType, B tensor.Backend](
	data *tensor.Tensor[T, B],
	sizes []ImageSize,
	mask *tensor.Tensor[bool, B],
) (*BatchedImages[T, B], error) {
	return structures.NewBatchedImages(data, sizes, mask)
}

// BatchedSequences is a batch of variable-length sequences padded to a
// common length, with the original lengths and a (B, L) padding mask.
type BatchedSequences[T tensor.DType, B tensor.Backend] = structures.BatchedSequences[T, B]

// BatchSequences pads a list of (L, D) sequences to the longest length in
// the list and stacks them into a single (B, Lmax, D) batch.
func BatchSequences[T tensor.DType, B tensor.Backend](
	sequences []*tensor.Tensor[T, B],
	padValue T,
) (*BatchedSequences[T, B], error) {
	return structures.BatchSequences(sequences, padValue)
}

// NewBatchedSequences wraps an already padded (B, L, D) tensor together with
// the valid length of each sequence.
func NewBatchedSequences[T tensor.DType, B tensor.Backend](
	data *tensor.Tensor[T, B],
	lengths []int,
) (*BatchedSequences[T, B], error) {
	return structures.NewBatchedSequences(data, lengths)
}

// Graph is a single directed graph: (N, D) node features, a (2, E) adjacency
// tensor (row 0 sources, row 1 targets), and optional (E, De) edge features.
type Graph[B tensor.Backend] = structures.Graph[B]

// NewGraph creates a graph, validating the adjacency layout and index range.
// edgeFeatures may be nil.
func NewGraph[B tensor.Backend](
	nodeFeatures *tensor.Tensor[float32, B],
	adjacency *tensor.Tensor[int64, B],
	edgeFeatures *tensor.Tensor[float32, B],
) (*Graph[B], error) {
	return structures.NewGraph(nodeFeatures, adjacency, edgeFeatures)
}

// BatchedGraphs stores several graphs in a single arena: node and edge
// features concatenated, adjacency indices shifted by each graph's node
// offset, and per-graph counts retained so Unbatch can reverse the packing
// exactly.
type BatchedGraphs[B tensor.Backend] = structures.BatchedGraphs[B]

// BatchGraphs packs a list of graphs into one arena. Either every graph
// carries edge features or none does.
func BatchGraphs[B tensor.Backend](graphs []*Graph[B]) (*BatchedGraphs[B], error) {
	return structures.BatchGraphs(graphs)
}
