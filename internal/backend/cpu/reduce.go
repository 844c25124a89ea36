package cpu

import (
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Sum computes the total sum of all elements (0-D result).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("sum", x)

	result := cpu.newRaw(tensor.Shape{}, tensor.Float32)
	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	result.AsFloat32()[0] = sum
	return result
}

// SumDim sums along the given dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim computes the mean along the given dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meandim", x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(op string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	checkFloat32(op, x)

	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic("cpu: " + op + ": dimension out of range")
	}

	outer, size, inner := 1, shape[dim], 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, s := range shape {
		switch {
		case d != dim:
			outShape = append(outShape, s)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{}
	}

	result := cpu.newRaw(outShape, tensor.Float32)
	out := result.AsFloat32()
	in := x.AsFloat32()

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var sum float32
			base := o*size*inner + i
			for s := 0; s < size; s++ {
				sum += in[base+s*inner]
			}
			if mean {
				sum /= float32(size)
			}
			out[o*inner+i] = sum
		}
	}

	return result
}

// CumSum computes the cumulative sum along the given dimension.
func (cpu *CPUBackend) CumSum(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	checkFloat32("cumsum", x)

	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic("cpu: cumsum: dimension out of range")
	}

	outer, size, inner := 1, shape[dim], 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	result := cpu.newRaw(shape, tensor.Float32)
	out := result.AsFloat32()
	in := x.AsFloat32()

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i
			var sum float32
			for s := 0; s < size; s++ {
				sum += in[base+s*inner]
				out[base+s*inner] = sum
			}
		}
	}

	return result
}
