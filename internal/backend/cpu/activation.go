package cpu

import (
	"math"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Softmax applies softmax along the given dimension (negative dims count
// from the end).
//
// Rows whose logits are all -inf are a defined edge case: they produce
// all-zero rows instead of NaN, so that fully-masked attention rows yield
// zero output vectors.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	checkFloat32("softmax", x)

	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim < 0 || dim >= len(shape) {
		panic("cpu: softmax dimension out of range")
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

	negInf := float32(math.Inf(-1))
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i

			maxVal := negInf
			for s := 0; s < size; s++ {
				if v := in[base+s*inner]; v > maxVal {
					maxVal = v
				}
			}

			// Fully-masked row: defined as zero, never NaN.
			if maxVal == negInf {
				for s := 0; s < size; s++ {
					out[base+s*inner] = 0
				}
				continue
			}

			var sum float32
			for s := 0; s < size; s++ {
				e := float32(math.Exp(float64(in[base+s*inner] - maxVal)))
				out[base+s*inner] = e
				sum += e
			}
			for s := 0; s < size; s++ {
				out[base+s*inner] /= sum
			}
		}
	}

	return result
}
