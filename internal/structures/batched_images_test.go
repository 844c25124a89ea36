package structures_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrancescoGentile/deepsight/internal/backend/cpu"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

func TestBatchImagesShapeAndMask(t *testing.T) {
	b := cpu.New()

	img1 := tensor.Ones[float32](tensor.Shape{3, 6, 4}, b)
	img2 := tensor.Ones[float32](tensor.Shape{3, 2, 5}, b)

	batch, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img1, img2}, 0)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 3, 6, 5}, batch.Shape())
	assert.Equal(t, []structures.ImageSize{
		{Height: 6, Width: 4},
		{Height: 2, Width: 5},
	}, batch.ImageSizes())

	mask := batch.Mask()
	require.Equal(t, tensor.Shape{2, 6, 5}, mask.Shape())
	// Image 1 occupies rows 0..5, columns 0..3: column 4 is padded.
	assert.False(t, mask.At(0, 0, 3))
	assert.True(t, mask.At(0, 0, 4))
	assert.False(t, mask.At(0, 5, 0))
	// Image 2 occupies rows 0..1, all columns: row 2 is padded.
	assert.False(t, mask.At(1, 1, 4))
	assert.True(t, mask.At(1, 2, 0))
}

func TestBatchImagesPaddingValue(t *testing.T) {
	b := cpu.New()

	img1 := tensor.Ones[float32](tensor.Shape{1, 2, 2}, b)
	img2 := tensor.Ones[float32](tensor.Shape{1, 1, 1}, b)

	batch, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img1, img2}, -1)
	require.NoError(t, err)

	data := batch.Data()
	assert.Equal(t, float32(1), data.At(1, 0, 0, 0))
	assert.Equal(t, float32(-1), data.At(1, 0, 0, 1))
	assert.Equal(t, float32(-1), data.At(1, 0, 1, 1))
}

func TestBatchImagesValidation(t *testing.T) {
	b := cpu.New()

	_, err := structures.BatchImages[float32, *cpu.CPUBackend](nil, 0)
	assert.Error(t, err)

	img1 := tensor.Ones[float32](tensor.Shape{3, 2, 2}, b)
	img2 := tensor.Ones[float32](tensor.Shape{1, 2, 2}, b)
	_, err = structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img1, img2}, 0)
	assert.Error(t, err)

	bad := tensor.Ones[float32](tensor.Shape{2, 2}, b)
	_, err = structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{bad}, 0)
	assert.Error(t, err)
}

func TestBatchUnbatchRoundTrip(t *testing.T) {
	b := cpu.New()

	img1, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 2, 3}, b)
	require.NoError(t, err)
	img2, err := tensor.FromSlice([]float32{7, 8}, tensor.Shape{1, 1, 2}, b)
	require.NoError(t, err)

	batch, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img1, img2}, 0)
	require.NoError(t, err)

	images := batch.Unbatch()
	require.Len(t, images, 2)
	assert.Equal(t, img1.Shape(), images[0].Shape())
	assert.Equal(t, img1.Data(), images[0].Data())
	assert.Equal(t, img2.Shape(), images[1].Shape())
	assert.Equal(t, img2.Data(), images[1].Data())
}

func TestImageSizesFromNonSquareMask(t *testing.T) {
	b := cpu.New()

	// One 4x5-padded image whose valid region is 2 rows by 3 columns.
	mask := tensor.Full(tensor.Shape{1, 4, 5}, true, b)
	maskData := mask.Data()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			maskData[y*5+x] = false
		}
	}

	data := tensor.Zeros[float32](tensor.Shape{1, 3, 4, 5}, b)
	batch, err := structures.NewBatchedImages(data, nil, mask)
	require.NoError(t, err)

	assert.Equal(t, []structures.ImageSize{{Height: 2, Width: 3}}, batch.ImageSizes())
}

func TestNewBatchedImagesUnpadded(t *testing.T) {
	b := cpu.New()

	data := tensor.Ones[float32](tensor.Shape{2, 3, 4, 4}, b)
	batch, err := structures.NewBatchedImages(data, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []structures.ImageSize{
		{Height: 4, Width: 4},
		{Height: 4, Width: 4},
	}, batch.ImageSizes())
	for _, padded := range batch.Mask().Data() {
		assert.False(t, padded)
	}
}

func TestNewBatchedImagesInconsistentSizesAndMask(t *testing.T) {
	b := cpu.New()

	data := tensor.Zeros[float32](tensor.Shape{1, 1, 4, 4}, b)
	mask := tensor.Zeros[bool](tensor.Shape{1, 4, 4}, b)
	sizes := []structures.ImageSize{{Height: 2, Width: 2}}

	_, err := structures.NewBatchedImages(data, sizes, mask)
	assert.Error(t, err)
}

func TestBatchedImagesReplace(t *testing.T) {
	b := cpu.New()

	img := tensor.Ones[float32](tensor.Shape{3, 4, 4}, b)
	batch, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img}, 0)
	require.NoError(t, err)

	// The channel count may change as long as batch and size match.
	wide := tensor.Zeros[float32](tensor.Shape{1, 8, 4, 4}, b)
	replaced := batch.Replace(wide)
	assert.Equal(t, tensor.Shape{1, 8, 4, 4}, replaced.Shape())
	assert.Equal(t, batch.ImageSizes(), replaced.ImageSizes())

	bad := tensor.Zeros[float32](tensor.Shape{1, 3, 2, 2}, b)
	assert.Panics(t, func() { batch.Replace(bad) })
}

func TestToSequences(t *testing.T) {
	b := cpu.New()

	img1, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2}, b)
	require.NoError(t, err)
	img2, err := tensor.FromSlice([]float32{5, 6}, tensor.Shape{1, 1, 2}, b)
	require.NoError(t, err)

	batch, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img1, img2}, 0)
	require.NoError(t, err)

	seqs := batch.ToSequences()
	assert.Equal(t, tensor.Shape{2, 4, 1}, seqs.Shape())
	assert.Equal(t, []int{4, 2}, seqs.Lengths())

	// Pixels stay in row-major order.
	assert.Equal(t, float32(1), seqs.Data().At(0, 0, 0))
	assert.Equal(t, float32(4), seqs.Data().At(0, 3, 0))
	assert.Equal(t, float32(6), seqs.Data().At(1, 1, 0))

	mask := seqs.Mask()
	assert.False(t, mask.At(0, 3))
	assert.False(t, mask.At(1, 1))
	assert.True(t, mask.At(1, 2))
}

func TestBatchedImagesToSameDevice(t *testing.T) {
	b := cpu.New()

	img := tensor.Ones[float32](tensor.Shape{1, 2, 2}, b)
	batch, err := structures.BatchImages([]*tensor.Tensor[float32, *cpu.CPUBackend]{img}, 0)
	require.NoError(t, err)

	assert.Same(t, batch, batch.To(tensor.CPU))
}
