package vit_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancescoGentile/deepsight/internal/backend/cpu"
	"github.com/FrancescoGentile/deepsight/internal/models/vit"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

func testConfig() vit.EncoderConfig {
	return vit.EncoderConfig{
		ImageSize:  8,
		PatchSize:  4,
		InChannels: 3,
		EmbedDim:   16,
		NumLayers:  2,
		NumHeads:   2,
		QKVBias:    true,
	}
}

func TestEncoderConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.ImageSize = 10 // not divisible by patch size
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.EmbedDim = 15 // not divisible by heads
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.NumRegisterTokens = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.NumLayers = 0
	assert.Error(t, bad.Validate())
}

func TestPatchEmbed(t *testing.T) {
	b := cpu.New()
	embed := vit.NewPatchEmbed[*cpu.CPUBackend](3, 16, 4, b)

	img1 := tensor.Randn[float32](tensor.Shape{3, 8, 8}, b)
	img2 := tensor.Randn[float32](tensor.Shape{3, 4, 8}, b)
	images, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img1, img2}, 0)
	require.NoError(t, err)

	seqs := embed.Forward(images)
	// 8x8 canvas with 4x4 patches: 4 patch tokens per image.
	assert.Equal(t, tensor.Shape{2, 4, 16}, seqs.Shape())
	assert.Equal(t, []int{4, 2}, seqs.Lengths())

	mask := seqs.Mask()
	assert.False(t, mask.At(0, 3))
	// The second image covers only the top patch row.
	assert.False(t, mask.At(1, 0))
	assert.False(t, mask.At(1, 1))
	assert.True(t, mask.At(1, 2))
	assert.True(t, mask.At(1, 3))
}

func TestPatchEmbedIndivisibleCanvas(t *testing.T) {
	b := cpu.New()
	embed := vit.NewPatchEmbed[*cpu.CPUBackend](3, 16, 4, b)

	img := tensor.Randn[float32](tensor.Shape{3, 6, 6}, b)
	images, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img}, 0)
	require.NoError(t, err)

	assert.Panics(t, func() { embed.Forward(images) })
}

func TestEncoderForward(t *testing.T) {
	b := cpu.New()

	cfg := testConfig()
	cfg.UseClassToken = true
	cfg.NumRegisterTokens = 2
	cfg.PostNormalize = true
	cfg.LayerScaleInitValue = 1e-5

	enc, err := vit.NewEncoder(cfg, b)
	require.NoError(t, err)
	assert.Equal(t, 3, enc.NumPrefixTokens())

	img1 := tensor.Randn[float32](tensor.Shape{3, 8, 8}, b)
	img2 := tensor.Randn[float32](tensor.Shape{3, 4, 8}, b)
	images, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img1, img2}, 0)
	require.NoError(t, err)

	out := enc.Forward(images)
	// 3 prefix tokens + 4 patch tokens.
	assert.Equal(t, tensor.Shape{2, 7, 16}, out.Shape())
	assert.Equal(t, []int{7, 5}, out.Lengths())

	mask := out.Mask()
	// Prefix tokens are always valid.
	assert.False(t, mask.At(1, 0))
	assert.False(t, mask.At(1, 2))
	// The second image contributes 2 valid patches, then padding.
	assert.False(t, mask.At(1, 4))
	assert.True(t, mask.At(1, 5))

	for _, v := range out.Data().Data() {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestEncoderWithoutPrefixTokens(t *testing.T) {
	b := cpu.New()

	enc, err := vit.NewEncoder(testConfig(), b)
	require.NoError(t, err)
	assert.Equal(t, 0, enc.NumPrefixTokens())

	img := tensor.Randn[float32](tensor.Shape{3, 8, 8}, b)
	images, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img}, 0)
	require.NoError(t, err)

	out := enc.Forward(images)
	assert.Equal(t, tensor.Shape{1, 4, 16}, out.Shape())
	assert.Equal(t, []int{4}, out.Lengths())
}

func TestEncoderRejectsBadConfig(t *testing.T) {
	b := cpu.New()

	cfg := testConfig()
	cfg.PatchSize = 3
	_, err := vit.NewEncoder(cfg, b)
	assert.Error(t, err)
}
