package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float32) float32 { return x / y })
}

// Maximum computes the element-wise maximum with broadcasting.
func (cpu *CPUBackend) Maximum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("maximum", a, b, func(x, y float32) float32 {
		if x > y {
			return x
		}
		return y
	})
}

// Minimum computes the element-wise minimum with broadcasting.
func (cpu *CPUBackend) Minimum(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("minimum", a, b, func(x, y float32) float32 {
		if x < y {
			return x
		}
		return y
	})
}

// binaryOp applies f element-wise over two float32 tensors with broadcasting.
func (cpu *CPUBackend) binaryOp(op string, a, b *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	checkFloat32(op, a)
	checkFloat32(op, b)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", op, err))
	}

	result := cpu.newRaw(outShape, tensor.Float32)
	out := result.AsFloat32()
	ad := a.AsFloat32()
	bd := b.AsFloat32()

	if !needsBroadcast {
		// Fast path: identical shapes.
		for i := range out {
			out[i] = f(ad[i], bd[i])
		}
		return result
	}

	aStrides := broadcastStrides(a.Shape(), a.Strides(), outShape)
	bStrides := broadcastStrides(b.Shape(), b.Strides(), outShape)
	outStrides := outShape.ComputeStrides()

	for i := range out {
		aOff, bOff := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aOff += coord * aStrides[d]
			bOff += coord * bStrides[d]
		}
		out[i] = f(ad[aOff], bd[bOff])
	}

	return result
}

// broadcastStrides maps an input tensor's strides onto the output shape:
// broadcasted dimensions (size 1 or missing) get stride 0 so the same element
// is reused along them.
func broadcastStrides(shape tensor.Shape, strides []int, outShape tensor.Shape) []int {
	mapped := make([]int, len(outShape))
	offset := len(outShape) - len(shape)
	for d := range outShape {
		src := d - offset
		if src < 0 || shape[src] == 1 {
			mapped[d] = 0
		} else {
			mapped[d] = strides[src]
		}
	}
	return mapped
}
