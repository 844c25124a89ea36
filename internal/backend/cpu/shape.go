package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Reshape returns a view with the same data but a different shape.
// The new shape must hold the same number of elements.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("cpu: reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			x.Shape(), x.NumElements(), newShape, newShape.NumElements()))
	}
	return x.View(newShape)
}

// Transpose permutes the tensor's dimensions. If axes is empty, the
// dimension order is reversed. Works for any dtype (byte-level copy).
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("cpu: transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("cpu: transpose: invalid axes permutation %v for shape %v", axes, shape))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result := cpu.newRaw(outShape, x.DType())

	elemSize := x.DType().Size()
	inStrides := x.Strides()
	outStrides := outShape.ComputeStrides()

	in := x.Data()
	out := result.Data()

	n := x.NumElements()
	for i := 0; i < n; i++ {
		// Decompose output index, map back through the permutation.
		inOff := 0
		rem := i
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			inOff += coord * inStrides[axes[d]]
		}
		copy(out[i*elemSize:(i+1)*elemSize], in[inOff*elemSize:(inOff+1)*elemSize])
	}

	return result
}
