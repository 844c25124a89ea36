// Package geometric provides segment-wise reductions over edge-ordered
// tensors. Rows of the source tensor are grouped by a segment index (for
// graph workloads, the source node of each edge) and reduced per group,
// with the number of output segments always given explicitly so that empty
// segments produce zero rows instead of being silently dropped.
package geometric

import (
	"fmt"
	"math"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// ScatterSoftmax normalizes src row-wise within segments. src has shape
// (E, H) and index has E entries in [0, numSegments); the result has the
// same shape as src, where column h of the rows belonging to segment s
// sums to 1. A segment with a single row gets weight 1 regardless of the
// value, and rows whose column is -inf across the whole segment come out
// as zero.
func ScatterSoftmax[B tensor.Backend](
	src *tensor.Tensor[float32, B],
	index *tensor.Tensor[int64, B],
	numSegments int,
) *tensor.Tensor[float32, B] {
	shape := src.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("geometric: scatter softmax expects a 2-D source, got shape %v", shape))
	}
	idx := checkIndex(index, shape[0], numSegments)

	rows, cols := shape[0], shape[1]
	data := src.Data()

	// Per-segment running max and exp-sum per column.
	maxes := make([]float32, numSegments*cols)
	for i := range maxes {
		maxes[i] = float32(math.Inf(-1))
	}
	for e := 0; e < rows; e++ {
		seg := int(idx[e])
		for h := 0; h < cols; h++ {
			v := data[e*cols+h]
			if v > maxes[seg*cols+h] {
				maxes[seg*cols+h] = v
			}
		}
	}

	out := tensor.Zeros[float32](shape, src.Backend())
	outData := out.Data()
	sums := make([]float32, numSegments*cols)
	for e := 0; e < rows; e++ {
		seg := int(idx[e])
		for h := 0; h < cols; h++ {
			m := maxes[seg*cols+h]
			if math.IsInf(float64(m), -1) {
				continue
			}
			v := float32(math.Exp(float64(data[e*cols+h] - m)))
			outData[e*cols+h] = v
			sums[seg*cols+h] += v
		}
	}
	for e := 0; e < rows; e++ {
		seg := int(idx[e])
		for h := 0; h < cols; h++ {
			if s := sums[seg*cols+h]; s > 0 {
				outData[e*cols+h] /= s
			}
		}
	}

	return out
}

// ScatterSum adds the rows of src into numSegments buckets. src has shape
// (E, ...) and index has E entries in [0, numSegments); the result has
// shape (numSegments, ...). Empty segments stay zero.
func ScatterSum[B tensor.Backend](
	src *tensor.Tensor[float32, B],
	index *tensor.Tensor[int64, B],
	numSegments int,
) *tensor.Tensor[float32, B] {
	shape := src.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("geometric: scatter sum expects at least a 2-D source, got shape %v", shape))
	}
	idx := checkIndex(index, shape[0], numSegments)

	rowSize := 1
	for _, d := range shape[1:] {
		rowSize *= d
	}

	outShape := append(tensor.Shape{numSegments}, shape[1:]...)
	out := tensor.Zeros[float32](outShape, src.Backend())
	outData := out.Data()
	data := src.Data()

	for e := 0; e < shape[0]; e++ {
		seg := int(idx[e])
		srcRow := data[e*rowSize : (e+1)*rowSize]
		dstRow := outData[seg*rowSize : (seg+1)*rowSize]
		for i, v := range srcRow {
			dstRow[i] += v
		}
	}

	return out
}

func checkIndex[B tensor.Backend](index *tensor.Tensor[int64, B], rows, numSegments int) []int64 {
	shape := index.Shape()
	if len(shape) != 1 || shape[0] != rows {
		panic(fmt.Sprintf("geometric: index shape %v does not match %d source rows", shape, rows))
	}
	idx := index.Data()
	for i, v := range idx {
		if v < 0 || int(v) >= numSegments {
			panic(fmt.Sprintf("geometric: index[%d] = %d is out of range for %d segments", i, v, numSegments))
		}
	}
	return idx
}
