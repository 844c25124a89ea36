package nn

import (
	"math"
	"math/rand"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Xavier initializes a weight tensor with the Glorot uniform distribution
// U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))), which keeps the
// activation variance roughly constant across layers.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	out := tensor.Zeros[float32](shape, backend)
	data := out.Data()
	for i := range data {
		//nolint:gosec // weight initialization is not security-critical
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return out
}

// TruncatedNormal initializes a weight tensor with values from N(0, std^2)
// resampled until they fall within two standard deviations, the common
// initialization for transformer embeddings and tokens.
func TruncatedNormal[B tensor.Backend](shape tensor.Shape, std float64, backend B) *tensor.Tensor[float32, B] {
	out := tensor.Zeros[float32](shape, backend)
	data := out.Data()
	for i := range data {
		for {
			//nolint:gosec // weight initialization is not security-critical
			v := rand.NormFloat64() * std
			if math.Abs(v) <= 2*std {
				data[i] = float32(v)
				break
			}
		}
	}
	return out
}

// Zeros creates a zero-filled float32 tensor, commonly used for biases.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a one-filled float32 tensor, commonly used for norm scales.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
