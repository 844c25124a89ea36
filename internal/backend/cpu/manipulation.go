package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Cat concatenates tensors along the given dimension. All tensors must share
// dtype and every dimension except dim. Works for any dtype (byte-level copy).
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cpu: cat: need at least one tensor")
	}

	first := tensors[0]
	shape := first.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic("cpu: cat: dimension out of range")
	}

	catSize := 0
	for _, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cpu: cat: dtype mismatch %s vs %s", first.DType(), t.DType()))
		}
		ts := t.Shape()
		if len(ts) != len(shape) {
			panic(fmt.Sprintf("cpu: cat: rank mismatch %v vs %v", shape, ts))
		}
		for d := range ts {
			if d != dim && ts[d] != shape[d] {
				panic(fmt.Sprintf("cpu: cat: shape mismatch %v vs %v at dimension %d", shape, ts, d))
			}
		}
		catSize += ts[dim]
	}

	outShape := shape.Clone()
	outShape[dim] = catSize
	result := cpu.newRaw(outShape, first.DType())

	elemSize := first.DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := elemSize
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	out := result.Data()
	outSlab := catSize * inner
	offset := 0
	for _, t := range tensors {
		slab := t.Shape()[dim] * inner
		data := t.Data()
		for o := 0; o < outer; o++ {
			copy(out[o*outSlab+offset:o*outSlab+offset+slab], data[o*slab:(o+1)*slab])
		}
		offset += slab
	}

	return result
}

// Unsqueeze inserts a dimension of size 1 at the given position (pure view).
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic("cpu: unsqueeze: dimension out of range")
	}

	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return cpu.Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1 at the given position (pure view).
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic("cpu: squeeze: dimension out of range")
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("cpu: squeeze: dimension %d has size %d, not 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	return cpu.Reshape(x, newShape)
}
