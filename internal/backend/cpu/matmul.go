package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/parallel"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("matmul", a)
	checkFloat32("matmul", b)

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("cpu: matmul requires 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("cpu: matmul dimension mismatch: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result := cpu.newRaw(tensor.Shape{m, n}, tensor.Float32)

	matmulKernel(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, cpu.parallel)
	return result
}

// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	checkFloat32("batchmatmul", a)
	checkFloat32("batchmatmul", b)

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != len(bShape) || (len(aShape) != 3 && len(aShape) != 4) {
		panic(fmt.Sprintf("cpu: batchmatmul requires matching 3D or 4D tensors, got %v and %v", aShape, bShape))
	}
	for d := 0; d < len(aShape)-2; d++ {
		if aShape[d] != bShape[d] {
			panic(fmt.Sprintf("cpu: batchmatmul batch dimension mismatch: %v vs %v", aShape, bShape))
		}
	}

	k := aShape[len(aShape)-1]
	if k != bShape[len(bShape)-2] {
		panic(fmt.Sprintf("cpu: batchmatmul inner dimension mismatch: %v @ %v", aShape, bShape))
	}

	m := aShape[len(aShape)-2]
	n := bShape[len(bShape)-1]

	batches := 1
	for d := 0; d < len(aShape)-2; d++ {
		batches *= aShape[d]
	}

	outShape := aShape.Clone()
	outShape[len(outShape)-1] = n
	result := cpu.newRaw(outShape, tensor.Float32)

	out := result.AsFloat32()
	ad := a.AsFloat32()
	bd := b.AsFloat32()

	parallel.For(batches, func(batch int) {
		seq := parallel.Config{} // Inner kernel stays sequential.
		matmulKernel(
			out[batch*m*n:(batch+1)*m*n],
			ad[batch*m*k:(batch+1)*m*k],
			bd[batch*k*n:(batch+1)*k*n],
			m, k, n, seq,
		)
	}, cpu.parallel)

	return result
}

// matmulKernel computes out = a @ b for row-major (M, K) and (K, N) slices.
func matmulKernel(out, a, b []float32, m, k, n int, cfg parallel.Config) {
	parallel.For(m, func(i int) {
		aRow := a[i*k : (i+1)*k]
		outRow := out[i*n : (i+1)*n]
		for j := range outRow {
			outRow[j] = 0
		}
		for p, av := range aRow {
			if av == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j, bv := range bRow {
				outRow[j] += av * bv
			}
		}
	}, cfg)
}
