package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// MulScalar multiplies each element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := asFloat32("mulscalar", scalar)
	return cpu.unaryOp("mulscalar", x, func(v float32) float32 { return v * s })
}

// AddScalar adds a scalar to each element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := asFloat32("addscalar", scalar)
	return cpu.unaryOp("addscalar", x, func(v float32) float32 { return v + s })
}

// SubScalar subtracts a scalar from each element.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := asFloat32("subscalar", scalar)
	return cpu.unaryOp("subscalar", x, func(v float32) float32 { return v - s })
}

// DivScalar divides each element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := asFloat32("divscalar", scalar)
	return cpu.unaryOp("divscalar", x, func(v float32) float32 { return v / s })
}

// Clamp limits each element to the [lo, hi] range.
func (cpu *CPUBackend) Clamp(x *tensor.RawTensor, lo, hi any) *tensor.RawTensor {
	lov := asFloat32("clamp", lo)
	hiv := asFloat32("clamp", hi)
	if lov > hiv {
		panic(fmt.Sprintf("cpu: clamp requires lo <= hi, got %v > %v", lov, hiv))
	}
	return cpu.unaryOp("clamp", x, func(v float32) float32 {
		if v < lov {
			return lov
		}
		if v > hiv {
			return hiv
		}
		return v
	})
}

// unaryOp applies f element-wise over a float32 tensor.
func (cpu *CPUBackend) unaryOp(op string, x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	checkFloat32(op, x)

	result := cpu.newRaw(x.Shape(), tensor.Float32)
	out := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		out[i] = f(v)
	}
	return result
}

// asFloat32 converts any supported scalar type to float32.
func asFloat32(op string, scalar any) float32 {
	switch s := scalar.(type) {
	case float32:
		return s
	case float64:
		return float32(s)
	case int:
		return float32(s)
	case int32:
		return float32(s)
	case int64:
		return float32(s)
	default:
		panic(fmt.Sprintf("cpu: %s: unsupported scalar type %T", op, scalar))
	}
}
