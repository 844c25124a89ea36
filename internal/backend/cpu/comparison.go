package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Greater performs element-wise a > b, returning a bool tensor.
func (cpu *CPUBackend) Greater(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("greater", a, b, func(x, y float32) bool { return x > y })
}

// Lower performs element-wise a < b, returning a bool tensor.
func (cpu *CPUBackend) Lower(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("lower", a, b, func(x, y float32) bool { return x < y })
}

// GreaterEqual performs element-wise a >= b, returning a bool tensor.
func (cpu *CPUBackend) GreaterEqual(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("greaterequal", a, b, func(x, y float32) bool { return x >= y })
}

// LowerEqual performs element-wise a <= b, returning a bool tensor.
func (cpu *CPUBackend) LowerEqual(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("lowerequal", a, b, func(x, y float32) bool { return x <= y })
}

// Equal performs element-wise a == b, returning a bool tensor.
func (cpu *CPUBackend) Equal(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("equal", a, b, func(x, y float32) bool { return x == y })
}

// NotEqual performs element-wise a != b, returning a bool tensor.
func (cpu *CPUBackend) NotEqual(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.compareOp("notequal", a, b, func(x, y float32) bool { return x != y })
}

// compareOp applies a float32 predicate element-wise with broadcasting,
// producing a bool tensor.
func (cpu *CPUBackend) compareOp(op string, a, b *tensor.RawTensor, f func(x, y float32) bool) *tensor.RawTensor {
	checkFloat32(op, a)
	checkFloat32(op, b)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", op, err))
	}

	result := cpu.newRaw(outShape, tensor.Bool)
	out := result.AsBool()
	ad := a.AsFloat32()
	bd := b.AsFloat32()

	if !needsBroadcast {
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
