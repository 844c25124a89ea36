package cpu

import (
	"math"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", x, func(v float32) float32 {
		return float32(math.Exp(float64(v)))
	})
}

// Log computes ln(x) element-wise.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("log", x, func(v float32) float32 {
		return float32(math.Log(float64(v)))
	})
}

// Sqrt computes the square root element-wise.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sqrt", x, func(v float32) float32 {
		return float32(math.Sqrt(float64(v)))
	})
}

// Abs computes the absolute value element-wise.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("abs", x, func(v float32) float32 {
		if v < 0 {
			return -v
		}
		return v
	})
}

// Sign computes the sign (-1, 0, +1) element-wise.
func (cpu *CPUBackend) Sign(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sign", x, func(v float32) float32 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		default:
			return 0
		}
	})
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float32) float32 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// LeakyReLU computes x for x >= 0 and negativeSlope*x otherwise.
func (cpu *CPUBackend) LeakyReLU(x *tensor.RawTensor, negativeSlope float32) *tensor.RawTensor {
	return cpu.unaryOp("leakyrelu", x, func(v float32) float32 {
		if v < 0 {
			return negativeSlope * v
		}
		return v
	})
}

// GELU computes the Gaussian Error Linear Unit (tanh approximation):
//
//	0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715 * x^3)))
func (cpu *CPUBackend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	sqrt2pi := float32(math.Sqrt(2.0 / math.Pi))
	return cpu.unaryOp("gelu", x, func(v float32) float32 {
		inner := sqrt2pi * (v + 0.044715*v*v*v)
		return 0.5 * v * (1.0 + float32(math.Tanh(float64(inner))))
	})
}
