package cpu

import (
	"testing"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Helper to create a float32 raw tensor from a slice.
func rawFloat32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsFloat32(), data)
	return raw
}

// Helper to create a bool raw tensor from a slice.
func rawBool(t *testing.T, shape tensor.Shape, data []bool) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Bool, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	copy(raw.AsBool(), data)
	return raw
}

// Helper to check float32 slices are equal within epsilon.
func assertFloat32Slice(t *testing.T, got, want []float32) {
	t.Helper()
	const epsilon = 1e-5
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := got[i] - want[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			t.Errorf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func assertShape(t *testing.T, got, want tensor.Shape) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("shape mismatch: got %v, want %v", got, want)
	}
}

func TestBackendMetadata(t *testing.T) {
	backend := New()
	if backend.Name() != "CPU" {
		t.Errorf("Name() = %q, want %q", backend.Name(), "CPU")
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", backend.Device())
	}
}

func TestToDeviceIdentity(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{2}, []float32{1, 2})
	if got := backend.ToDevice(x, tensor.CPU); got != x {
		t.Error("ToDevice(CPU) on a CPU tensor must return the same tensor")
	}
}

func TestAddSameShape(t *testing.T) {
	backend := New()
	a := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawFloat32(t, tensor.Shape{2, 3}, []float32{10, 20, 30, 40, 50, 60})

	result := backend.Add(a, b)
	assertShape(t, result.Shape(), tensor.Shape{2, 3})
	assertFloat32Slice(t, result.AsFloat32(), []float32{11, 22, 33, 44, 55, 66})
}

func TestAddBroadcastRow(t *testing.T) {
	backend := New()
	a := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawFloat32(t, tensor.Shape{1, 3}, []float32{10, 20, 30})

	result := backend.Add(a, b)
	assertShape(t, result.Shape(), tensor.Shape{2, 3})
	assertFloat32Slice(t, result.AsFloat32(), []float32{11, 22, 33, 14, 25, 36})
}

func TestMulBroadcastColumn(t *testing.T) {
	backend := New()
	a := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := rawFloat32(t, tensor.Shape{2, 1}, []float32{2, 10})

	result := backend.Mul(a, b)
	assertFloat32Slice(t, result.AsFloat32(), []float32{2, 4, 6, 40, 50, 60})
}

func TestSubBroadcastMissingDims(t *testing.T) {
	backend := New()
	a := rawFloat32(t, tensor.Shape{2, 2, 2}, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	b := rawFloat32(t, tensor.Shape{2}, []float32{1, 10})

	result := backend.Sub(a, b)
	assertShape(t, result.Shape(), tensor.Shape{2, 2, 2})
	assertFloat32Slice(t, result.AsFloat32(), []float32{0, -8, 2, -6, 4, -4, 6, -2})
}

func TestAddIncompatibleShapesPanics(t *testing.T) {
	backend := New()
	a := rawFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
	b := rawFloat32(t, tensor.Shape{2, 4}, make([]float32, 8))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for incompatible shapes")
		}
	}()
	backend.Add(a, b)
}

func TestMaximumMinimum(t *testing.T) {
	backend := New()
	a := rawFloat32(t, tensor.Shape{4}, []float32{1, 5, -2, 0})
	b := rawFloat32(t, tensor.Shape{4}, []float32{3, 2, -4, 0})

	assertFloat32Slice(t, backend.Maximum(a, b).AsFloat32(), []float32{3, 5, -2, 0})
	assertFloat32Slice(t, backend.Minimum(a, b).AsFloat32(), []float32{1, 2, -4, 0})
}

func TestScalarOps(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})

	assertFloat32Slice(t, backend.MulScalar(x, float32(2)).AsFloat32(), []float32{2, 4, 6})
	assertFloat32Slice(t, backend.AddScalar(x, 1.5).AsFloat32(), []float32{2.5, 3.5, 4.5})
	assertFloat32Slice(t, backend.SubScalar(x, 1).AsFloat32(), []float32{0, 1, 2})
	assertFloat32Slice(t, backend.DivScalar(x, float32(2)).AsFloat32(), []float32{0.5, 1, 1.5})
}

func TestClamp(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{5}, []float32{-2, -0.5, 0.5, 1.5, 3})

	result := backend.Clamp(x, float32(0), float32(1))
	assertFloat32Slice(t, result.AsFloat32(), []float32{0, 0, 0.5, 1, 1})
}

func TestClampInvertedBoundsPanics(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{1}, []float32{0})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for lo > hi")
		}
	}()
	backend.Clamp(x, float32(1), float32(0))
}

func TestComparisons(t *testing.T) {
	backend := New()
	a := rawFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
	b := rawFloat32(t, tensor.Shape{3}, []float32{2, 2, 2})

	tests := []struct {
		name string
		got  *tensor.RawTensor
		want []bool
	}{
		{"greater", backend.Greater(a, b), []bool{false, false, true}},
		{"lower", backend.Lower(a, b), []bool{true, false, false}},
		{"greaterEqual", backend.GreaterEqual(a, b), []bool{false, true, true}},
		{"lowerEqual", backend.LowerEqual(a, b), []bool{true, true, false}},
		{"equal", backend.Equal(a, b), []bool{false, true, false}},
		{"notEqual", backend.NotEqual(a, b), []bool{true, false, true}},
	}
	for _, tt := range tests {
		if tt.got.DType() != tensor.Bool {
			t.Errorf("%s: dtype = %v, want Bool", tt.name, tt.got.DType())
		}
		for i, v := range tt.got.AsBool() {
			if v != tt.want[i] {
				t.Errorf("%s: element %d = %v, want %v", tt.name, i, v, tt.want[i])
			}
		}
	}
}

func TestBooleanOps(t *testing.T) {
	backend := New()
	a := rawBool(t, tensor.Shape{4}, []bool{true, true, false, false})
	b := rawBool(t, tensor.Shape{4}, []bool{true, false, true, false})

	wantOr := []bool{true, true, true, false}
	wantAnd := []bool{true, false, false, false}
	wantNot := []bool{false, false, true, true}

	for i, v := range backend.Or(a, b).AsBool() {
		if v != wantOr[i] {
			t.Errorf("Or element %d = %v, want %v", i, v, wantOr[i])
		}
	}
	for i, v := range backend.And(a, b).AsBool() {
		if v != wantAnd[i] {
			t.Errorf("And element %d = %v, want %v", i, v, wantAnd[i])
		}
	}
	for i, v := range backend.Not(a).AsBool() {
		if v != wantNot[i] {
			t.Errorf("Not element %d = %v, want %v", i, v, wantNot[i])
		}
	}
}
