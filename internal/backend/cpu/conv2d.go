package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/parallel"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Conv2D convolves input [B, C, H, W] with kernel [O, C, KH, KW], producing
// [B, O, outH, outW] where outH = (H + 2*padding - KH)/stride + 1 (same for
// width). Direct convolution, parallelized over (batch, out-channel) pairs.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	checkFloat32("conv2d", input)
	checkFloat32("conv2d", kernel)

	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("cpu: conv2d requires 4D input and kernel, got %v and %v", is, ks))
	}
	if is[1] != ks[1] {
		panic(fmt.Sprintf("cpu: conv2d channel mismatch: input has %d, kernel expects %d", is[1], ks[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("cpu: conv2d: invalid stride %d or padding %d", stride, padding))
	}

	batch, channels, height, width := is[0], is[1], is[2], is[3]
	outChannels, kh, kw := ks[0], ks[2], ks[3]

	outH := (height+2*padding-kh)/stride + 1
	outW := (width+2*padding-kw)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu: conv2d: kernel %dx%d does not fit input %dx%d with stride %d padding %d",
			kh, kw, height, width, stride, padding))
	}

	result := cpu.newRaw(tensor.Shape{batch, outChannels, outH, outW}, tensor.Float32)
	out := result.AsFloat32()
	in := input.AsFloat32()
	k := kernel.AsFloat32()

	parallel.ForBatch(batch, outChannels, func(b, o int) {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				var sum float32
				for c := 0; c < channels; c++ {
					for ky := 0; ky < kh; ky++ {
						iy := oy*stride + ky - padding
						if iy < 0 || iy >= height {
							continue
						}
						for kx := 0; kx < kw; kx++ {
							ix := ox*stride + kx - padding
							if ix < 0 || ix >= width {
								continue
							}
							inIdx := ((b*channels+c)*height+iy)*width + ix
							kIdx := ((o*channels+c)*kh+ky)*kw + kx
							sum += in[inIdx] * k[kIdx]
						}
					}
				}
				out[((b*outChannels+o)*outH+oy)*outW+ox] = sum
			}
		}
	}, cpu.parallel)

	return result
}
