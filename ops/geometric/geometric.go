// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package geometric provides scatter operations over segmented index spaces,
// the primitives behind edge-wise attention on batched graphs.
package geometric

import (
	"github.com/FrancescoGentile/deepsight/internal/ops/geometric"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// ScatterSoftmax computes a numerically stable softmax over the rows of src
// grouped by index: rows sharing an index value form one softmax group per
// column. Groups with no rows contribute nothing; rows whose group is
// entirely -inf come out as zeros rather than NaN.
func ScatterSoftmax[B tensor.Backend](
	src *tensor.Tensor[float32, B],
	index *tensor.Tensor[int64, B],
	numSegments int,
) *tensor.Tensor[float32, B] {
	return geometric.ScatterSoftmax(src, index, numSegments)
}

// ScatterSum sums the rows of src grouped by index into an output with
// numSegments rows. Segments with no rows are zero.
func ScatterSum[B tensor.Backend](
	src *tensor.Tensor[float32, B],
	index *tensor.Tensor[int64, B],
	numSegments int,
) *tensor.Tensor[float32, B] {
	return geometric.ScatterSum(src, index, numSegments)
}
