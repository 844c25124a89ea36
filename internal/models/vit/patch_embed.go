package vit

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/nn"
	"github.com/FrancescoGentile/deepsight/internal/structures"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// PatchEmbed splits batched images into non-overlapping patches and
// projects each patch to the embedding dimension with a strided
// convolution. The per-image validity masks are carried to the patch
// grid: a patch is valid only when it lies fully inside its image's
// valid region.
type PatchEmbed[B tensor.Backend] struct {
	patchSize int
	proj      *nn.Conv2D[B]
}

// NewPatchEmbed creates a patch embedding with the given patch size.
func NewPatchEmbed[B tensor.Backend](inChannels, embedDim, patchSize int, backend B) *PatchEmbed[B] {
	return &PatchEmbed[B]{
		patchSize: patchSize,
		proj:      nn.NewConv2D(inChannels, embedDim, patchSize, patchSize, 0, backend),
	}
}

// Forward embeds the images into a (B, Hp*Wp, D) sequence batch, where
// (Hp, Wp) is the patch grid of the padded canvas. The spatial extent of
// the canvas must be divisible by the patch size.
func (p *PatchEmbed[B]) Forward(
	images *structures.BatchedImages[float32, B],
) *structures.BatchedSequences[float32, B] {
	shape := images.Shape()
	if shape[2]%p.patchSize != 0 || shape[3]%p.patchSize != 0 {
		panic(fmt.Sprintf(
			"vit: image extent (%d, %d) is not divisible by patch size %d",
			shape[2], shape[3], p.patchSize,
		))
	}

	embedded := p.proj.Forward(images.Data()) // (B, D, Hp, Wp)

	patchSizes := make([]structures.ImageSize, images.Len())
	for i, s := range images.ImageSizes() {
		patchSizes[i] = structures.ImageSize{
			Height: s.Height / p.patchSize,
			Width:  s.Width / p.patchSize,
		}
	}

	grid, err := structures.NewBatchedImages(embedded, patchSizes, nil)
	if err != nil {
		panic(err)
	}
	return grid.ToSequences()
}

// Parameters returns the trainable parameters of this layer.
func (p *PatchEmbed[B]) Parameters() []*nn.Parameter[B] {
	return p.proj.Parameters()
}
