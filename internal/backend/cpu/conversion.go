package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Cast converts a tensor to a different data type. Numeric casts go through
// float64; half-precision payloads use IEEE 754 binary16 conversion.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result := cpu.newRaw(x.Shape(), dtype)
	n := x.NumElements()
	for i := 0; i < n; i++ {
		writeElement(result, i, readElement(x, i))
	}
	return result
}

func readElement(x *tensor.RawTensor, i int) float64 {
	switch x.DType() {
	case tensor.Float32:
		return float64(x.AsFloat32()[i])
	case tensor.Float64:
		return x.AsFloat64()[i]
	case tensor.Float16:
		return float64(x.AsFloat16()[i].Float32())
	case tensor.Int32:
		return float64(x.AsInt32()[i])
	case tensor.Int64:
		return float64(x.AsInt64()[i])
	case tensor.Uint8:
		return float64(x.AsUint8()[i])
	case tensor.Bool:
		if x.AsBool()[i] {
			return 1
		}
		return 0
	default:
		panic(fmt.Sprintf("cpu: cast: unsupported source dtype %s", x.DType()))
	}
}

func writeElement(x *tensor.RawTensor, i int, v float64) {
	switch x.DType() {
	case tensor.Float32:
		x.AsFloat32()[i] = float32(v)
	case tensor.Float64:
		x.AsFloat64()[i] = v
	case tensor.Float16:
		x.AsFloat16()[i] = float16.Fromfloat32(float32(v))
	case tensor.Int32:
		x.AsInt32()[i] = int32(v)
	case tensor.Int64:
		x.AsInt64()[i] = int64(v)
	case tensor.Uint8:
		x.AsUint8()[i] = uint8(v)
	case tensor.Bool:
		x.AsBool()[i] = v != 0
	default:
		panic(fmt.Sprintf("cpu: cast: unsupported target dtype %s", x.DType()))
	}
}
