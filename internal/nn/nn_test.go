package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancescoGentile/deepsight/internal/backend/cpu"
	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

func TestLinearShapes(t *testing.T) {
	b := cpu.New()
	layer := nn.NewLinear(8, 4, true, b)

	out := layer.Forward(tensor.Randn[float32](tensor.Shape{2, 8}, b))
	assert.Equal(t, tensor.Shape{2, 4}, out.Shape())

	// Leading dimensions are preserved.
	out = layer.Forward(tensor.Randn[float32](tensor.Shape{2, 3, 8}, b))
	assert.Equal(t, tensor.Shape{2, 3, 4}, out.Shape())

	assert.Panics(t, func() {
		layer.Forward(tensor.Randn[float32](tensor.Shape{2, 5}, b))
	})
}

func TestLinearKnownValues(t *testing.T) {
	b := cpu.New()
	layer := nn.NewLinear(2, 2, true, b)

	weight, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	require.NoError(t, err)
	layer.Weight().Set(weight)
	bias, err := tensor.FromSlice([]float32{10, 20}, tensor.Shape{2}, b)
	require.NoError(t, err)
	layer.Bias().Set(bias)

	x, err := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, b)
	require.NoError(t, err)

	out := layer.Forward(x).Data()
	assert.InDelta(t, 13.0, out[0], 1e-6) // 1*1 + 1*2 + 10
	assert.InDelta(t, 27.0, out[1], 1e-6) // 1*3 + 1*4 + 20
}

func TestLayerNorm(t *testing.T) {
	b := cpu.New()
	layer := nn.NewLayerNorm(4, 1e-5, b)

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, b)
	require.NoError(t, err)

	out := layer.Forward(x).Data()

	// With gamma=1 and beta=0 the output has zero mean and unit variance.
	var mean, variance float32
	for _, v := range out {
		mean += v
	}
	mean /= 4
	for _, v := range out {
		variance += (v - mean) * (v - mean)
	}
	variance /= 4

	assert.InDelta(t, 0.0, mean, 1e-5)
	assert.InDelta(t, 1.0, variance, 1e-3)
	assert.Less(t, out[0], out[3])
}

func TestDropoutModes(t *testing.T) {
	b := cpu.New()
	d := nn.NewDropout[*cpu.CPUBackend](0.5)

	x := tensor.Ones[float32](tensor.Shape{4, 4}, b)

	// Evaluation mode is the identity, returning the same tensor.
	assert.Same(t, x, d.Forward(x))

	d.Train()
	out := d.Forward(x).Data()
	for _, v := range out {
		// Survivors are scaled by 1/(1-p) = 2.
		assert.True(t, v == 0 || v == 2, "got %v", v)
	}

	assert.Panics(t, func() { nn.NewDropout[*cpu.CPUBackend](1.0) })
}

func TestScaledDotProductAttentionUniform(t *testing.T) {
	b := cpu.New()
	sdpa := nn.NewScaledDotProductAttention[*cpu.CPUBackend](0, 0)

	// Identical keys give uniform weights: the output is the mean value.
	q := tensor.Ones[float32](tensor.Shape{1, 1, 1, 2}, b)
	k := tensor.Ones[float32](tensor.Shape{1, 1, 2, 2}, b)
	v, err := tensor.FromSlice([]float32{0, 0, 4, 4}, tensor.Shape{1, 1, 2, 2}, b)
	require.NoError(t, err)

	out := sdpa.Attend(q, k, v, nil).Data()
	assert.InDelta(t, 2.0, out[0], 1e-5)
	assert.InDelta(t, 2.0, out[1], 1e-5)
}

func TestScaledDotProductAttentionMask(t *testing.T) {
	b := cpu.New()
	sdpa := nn.NewScaledDotProductAttention[*cpu.CPUBackend](0, 0)

	q := tensor.Ones[float32](tensor.Shape{1, 1, 1, 2}, b)
	k := tensor.Ones[float32](tensor.Shape{1, 1, 2, 2}, b)
	v, err := tensor.FromSlice([]float32{0, 0, 4, 4}, tensor.Shape{1, 1, 2, 2}, b)
	require.NoError(t, err)

	ninf := float32(math.Inf(-1))
	mask, err := tensor.FromSlice([]float32{0, ninf}, tensor.Shape{1, 1, 1, 2}, b)
	require.NoError(t, err)

	out := sdpa.Attend(q, k, v, mask).Data()
	// Only the first value row survives.
	assert.InDelta(t, 0.0, out[0], 1e-6)

	// A fully masked query row yields zeros, not NaN.
	allMasked, err := tensor.FromSlice([]float32{ninf, ninf}, tensor.Shape{1, 1, 1, 2}, b)
	require.NoError(t, err)
	out = sdpa.Attend(q, k, v, allMasked).Data()
	assert.Equal(t, float32(0), out[0])
	assert.Equal(t, float32(0), out[1])
}

func TestKeyPaddingMask(t *testing.T) {
	b := cpu.New()

	padding, err := tensor.FromSlice([]bool{false, true, false}, tensor.Shape{1, 3}, b)
	require.NoError(t, err)

	mask := nn.KeyPaddingMask(padding, 2, 2)
	require.Equal(t, tensor.Shape{1, 2, 2, 3}, mask.Shape())

	assert.Equal(t, float32(0), mask.At(0, 0, 0, 0))
	assert.True(t, math.IsInf(float64(mask.At(0, 0, 0, 1)), -1))
	assert.True(t, math.IsInf(float64(mask.At(0, 1, 1, 1)), -1))
	assert.Equal(t, float32(0), mask.At(0, 1, 1, 2))
}

func TestMultiHeadSelfAttention(t *testing.T) {
	b := cpu.New()
	mha := nn.NewMultiHeadSelfAttention(
		8, 2, true,
		nn.NewScaledDotProductAttention[*cpu.CPUBackend](0, 0),
		b,
	)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 8}, b)
	out := mha.Forward(x, nil)
	assert.Equal(t, tensor.Shape{2, 3, 8}, out.Shape())

	padding, err := tensor.FromSlice([]bool{
		false, false, true,
		false, true, true,
	}, tensor.Shape{2, 3}, b)
	require.NoError(t, err)
	out = mha.Forward(x, padding)
	assert.Equal(t, tensor.Shape{2, 3, 8}, out.Shape())
	for _, v := range out.Data() {
		assert.False(t, math.IsNaN(float64(v)))
	}

	assert.Panics(t, func() {
		nn.NewMultiHeadSelfAttention(8, 3, true, nn.NewScaledDotProductAttention[*cpu.CPUBackend](0, 0), b)
	})
}

func TestFFN(t *testing.T) {
	b := cpu.New()
	ffn := nn.NewFFN(8, 32, 0, b)

	out := ffn.Forward(tensor.Randn[float32](tensor.Shape{2, 3, 8}, b))
	assert.Equal(t, tensor.Shape{2, 3, 8}, out.Shape())
}

func TestLayerScale(t *testing.T) {
	b := cpu.New()
	ls := nn.NewLayerScale(4, 0.1, b)

	x := tensor.Ones[float32](tensor.Shape{2, 4}, b)
	out := ls.Forward(x).Data()
	for _, v := range out {
		assert.InDelta(t, 0.1, v, 1e-6)
	}
}

func TestConv2DShape(t *testing.T) {
	b := cpu.New()
	conv := nn.NewConv2D(3, 8, 4, 4, 0, b)

	out := conv.Forward(tensor.Randn[float32](tensor.Shape{2, 3, 8, 8}, b))
	assert.Equal(t, tensor.Shape{2, 8, 2, 2}, out.Shape())
}
