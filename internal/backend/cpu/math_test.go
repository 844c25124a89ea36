package cpu

import (
	"math"
	"testing"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

func TestExpLogRoundTrip(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{4}, []float32{0.1, 1, 2, 5})

	result := backend.Log(backend.Exp(x))
	assertFloat32Slice(t, result.AsFloat32(), []float32{0.1, 1, 2, 5})
}

func TestSqrt(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{3}, []float32{4, 9, 0.25})

	assertFloat32Slice(t, backend.Sqrt(x).AsFloat32(), []float32{2, 3, 0.5})
}

func TestAbsSign(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{4}, []float32{-3, 0, 2, -0.5})

	assertFloat32Slice(t, backend.Abs(x).AsFloat32(), []float32{3, 0, 2, 0.5})
	assertFloat32Slice(t, backend.Sign(x).AsFloat32(), []float32{-1, 0, 1, -1})
}

func TestReLUFamily(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{4}, []float32{-2, -0.5, 0, 3})

	assertFloat32Slice(t, backend.ReLU(x).AsFloat32(), []float32{0, 0, 0, 3})
	assertFloat32Slice(t, backend.LeakyReLU(x, 0.1).AsFloat32(), []float32{-0.2, -0.05, 0, 3})
}

func TestGELUKnownValues(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{3}, []float32{-1, 0, 1})

	result := backend.GELU(x).AsFloat32()
	// Tanh approximation: GELU(0) = 0, GELU(1) ≈ 0.8412, GELU(-1) ≈ -0.1588.
	if math.Abs(float64(result[1])) > 1e-6 {
		t.Errorf("GELU(0) = %v, want 0", result[1])
	}
	if math.Abs(float64(result[2]-0.8412)) > 1e-3 {
		t.Errorf("GELU(1) = %v, want ~0.8412", result[2])
	}
	if math.Abs(float64(result[0]+0.1588)) > 1e-3 {
		t.Errorf("GELU(-1) = %v, want ~-0.1588", result[0])
	}
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 10, 10, 10})

	result := backend.Softmax(x, -1)
	out := result.AsFloat32()

	for r := 0; r < 2; r++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += out[r*3+c]
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Errorf("row %d sums to %v, want 1", r, sum)
		}
	}
	// Uniform logits give uniform weights.
	assertFloat32Slice(t, out[3:], []float32{1.0 / 3, 1.0 / 3, 1.0 / 3})
}

func TestSoftmaxLargeLogitsStable(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{1, 3}, []float32{1000, 1000, 1000})

	result := backend.Softmax(x, 1)
	assertFloat32Slice(t, result.AsFloat32(), []float32{1.0 / 3, 1.0 / 3, 1.0 / 3})
}

func TestSoftmaxFullyMaskedRowIsZero(t *testing.T) {
	backend := New()
	negInf := float32(math.Inf(-1))
	x := rawFloat32(t, tensor.Shape{2, 2}, []float32{negInf, negInf, 1, 2})

	result := backend.Softmax(x, -1)
	out := result.AsFloat32()

	if out[0] != 0 || out[1] != 0 {
		t.Errorf("fully masked row = [%v, %v], want zeros", out[0], out[1])
	}
	for _, v := range out {
		if math.IsNaN(float64(v)) {
			t.Fatal("softmax produced NaN")
		}
	}
	if math.Abs(float64(out[2]+out[3]-1)) > 1e-5 {
		t.Errorf("unmasked row sums to %v, want 1", out[2]+out[3])
	}
}

func TestSoftmaxMiddleDim(t *testing.T) {
	backend := New()
	// Shape (1, 2, 2): softmax over dim 1 normalizes columns.
	x := rawFloat32(t, tensor.Shape{1, 2, 2}, []float32{0, 1, 0, 1})

	result := backend.Softmax(x, 1)
	out := result.AsFloat32()
	assertFloat32Slice(t, out, []float32{0.5, 0.5, 0.5, 0.5})
}
