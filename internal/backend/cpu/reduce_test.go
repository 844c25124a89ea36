package cpu

import (
	"testing"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

func TestSumAll(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result := backend.Sum(x)
	assertShape(t, result.Shape(), tensor.Shape{})
	if got := result.AsFloat32()[0]; got != 21 {
		t.Errorf("Sum = %v, want 21", got)
	}
}

func TestSumDim(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	rows := backend.SumDim(x, 1, false)
	assertShape(t, rows.Shape(), tensor.Shape{2})
	assertFloat32Slice(t, rows.AsFloat32(), []float32{6, 15})

	cols := backend.SumDim(x, 0, true)
	assertShape(t, cols.Shape(), tensor.Shape{1, 3})
	assertFloat32Slice(t, cols.AsFloat32(), []float32{5, 7, 9})

	last := backend.SumDim(x, -1, false)
	assertFloat32Slice(t, last.AsFloat32(), []float32{6, 15})
}

func TestMeanDim(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{2, 4}, []float32{1, 2, 3, 4, 10, 20, 30, 40})

	result := backend.MeanDim(x, -1, true)
	assertShape(t, result.Shape(), tensor.Shape{2, 1})
	assertFloat32Slice(t, result.AsFloat32(), []float32{2.5, 25})
}

func TestCumSum(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	rows := backend.CumSum(x, -1)
	assertShape(t, rows.Shape(), tensor.Shape{2, 3})
	assertFloat32Slice(t, rows.AsFloat32(), []float32{1, 3, 6, 4, 9, 15})

	cols := backend.CumSum(x, 0)
	assertFloat32Slice(t, cols.AsFloat32(), []float32{1, 2, 3, 5, 7, 9})
}

func TestReduceDimOutOfRangePanics(t *testing.T) {
	backend := New()
	x := rawFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range dimension")
		}
	}()
	backend.SumDim(x, 2, false)
}
