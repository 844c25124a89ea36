package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Or performs element-wise logical OR on bool tensors.
func (cpu *CPUBackend) Or(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.boolBinaryOp("or", a, b, func(x, y bool) bool { return x || y })
}

// And performs element-wise logical AND on bool tensors.
func (cpu *CPUBackend) And(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.boolBinaryOp("and", a, b, func(x, y bool) bool { return x && y })
}

// Not performs element-wise logical NOT on a bool tensor.
func (cpu *CPUBackend) Not(x *tensor.RawTensor) *tensor.RawTensor {
	checkBool("not", x)

	result := cpu.newRaw(x.Shape(), tensor.Bool)
	out := result.AsBool()
	for i, v := range x.AsBool() {
		out[i] = !v
	}
	return result
}

func (cpu *CPUBackend) boolBinaryOp(op string, a, b *tensor.RawTensor, f func(x, y bool) bool) *tensor.RawTensor {
	checkBool(op, a)
	checkBool(op, b)

	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("cpu: %s: shape mismatch %v vs %v", op, a.Shape(), b.Shape()))
	}

	result := cpu.newRaw(a.Shape(), tensor.Bool)
	out := result.AsBool()
	ad := a.AsBool()
	bd := b.AsBool()
	for i := range out {
		out[i] = f(ad[i], bd[i])
	}
	return result
}

func checkBool(op string, t *tensor.RawTensor) {
	if t.DType() != tensor.Bool {
		panic(fmt.Sprintf("cpu: %s requires bool tensors, got %s", op, t.DType()))
	}
}
