package structures

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// BatchedImages holds a batch of images padded to a common height and
// width, as a (B, C, H, W) tensor plus a (B, H, W) boolean mask. The mask
// is true for padded pixels and false for valid pixels.
type BatchedImages[T tensor.DType, B tensor.Backend] struct {
	data       *tensor.Tensor[T, B]
	imageSizes []ImageSize
	mask       *tensor.Tensor[bool, B]
}

// BatchImages pads a list of (C, H, W) images to the largest height and
// width in the batch, filling padded pixels with padValue. It returns an
// error if the list is empty, any image is not three-dimensional, or the
// channel counts or devices differ.
func BatchImages[T tensor.DType, B tensor.Backend](
	images []*tensor.Tensor[T, B],
	padValue T,
) (*BatchedImages[T, B], error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("structures: at least one image must be provided")
	}

	channels := 0
	maxH, maxW := 0, 0
	sizes := make([]ImageSize, len(images))
	for i, img := range images {
		shape := img.Shape()
		if len(shape) != 3 {
			return nil, fmt.Errorf("structures: image %d must have 3 dimensions, got shape %v", i, shape)
		}
		if i == 0 {
			channels = shape[0]
		} else if shape[0] != channels {
			return nil, fmt.Errorf(
				"structures: image %d has %d channels, expected %d", i, shape[0], channels,
			)
		}
		if img.Device() != images[0].Device() {
			return nil, fmt.Errorf("structures: all images must be on the same device")
		}
		sizes[i] = ImageSize{Height: shape[1], Width: shape[2]}
		maxH = max(maxH, shape[1])
		maxW = max(maxW, shape[2])
	}

	backend := images[0].Backend()
	data := tensor.Full(tensor.Shape{len(images), channels, maxH, maxW}, padValue, backend)
	dst := data.Data()
	for i, img := range images {
		src := img.Data()
		h, w := sizes[i].Height, sizes[i].Width
		for c := 0; c < channels; c++ {
			for y := 0; y < h; y++ {
				srcRow := src[(c*h+y)*w : (c*h+y+1)*w]
				dstOff := ((i*channels+c)*maxH + y) * maxW
				copy(dst[dstOff:dstOff+w], srcRow)
			}
		}
	}

	return &BatchedImages[T, B]{
		data:       data,
		imageSizes: sizes,
		mask:       maskFromSizes(sizes, maxH, maxW, backend),
	}, nil
}

// NewBatchedImages wraps an already padded (B, C, H, W) tensor. Exactly
// like the batch factory, the mask is true on padded pixels. Either sizes
// or mask may be nil: the missing one is derived from the other, and if
// both are nil the images are assumed unpadded. When both are given they
// must agree with each other and with the data shape.
func NewBatchedImages[T tensor.DType, B tensor.Backend](
	data *tensor.Tensor[T, B],
	sizes []ImageSize,
	mask *tensor.Tensor[bool, B],
) (*BatchedImages[T, B], error) {
	shape := data.Shape()
	if len(shape) != 4 {
		return nil, fmt.Errorf("structures: batched image data must have 4 dimensions, got shape %v", shape)
	}
	batch, height, width := shape[0], shape[2], shape[3]

	switch {
	case sizes == nil && mask == nil:
		sizes = make([]ImageSize, batch)
		for i := range sizes {
			sizes[i] = ImageSize{Height: height, Width: width}
		}
		mask = tensor.Zeros[bool](tensor.Shape{batch, height, width}, data.Backend())
	case sizes == nil:
		if err := checkImageMask(mask, batch, height, width); err != nil {
			return nil, err
		}
		sizes = imageSizesFromMask(mask)
	case mask == nil:
		if err := checkSizes(sizes, batch, height, width); err != nil {
			return nil, err
		}
		mask = maskFromSizes(sizes, height, width, data.Backend())
	default:
		if err := checkImageMask(mask, batch, height, width); err != nil {
			return nil, err
		}
		if err := checkSizes(sizes, batch, height, width); err != nil {
			return nil, err
		}
		derived := imageSizesFromMask(mask)
		for i := range sizes {
			if sizes[i] != derived[i] {
				return nil, fmt.Errorf(
					"structures: image %d size %s does not match the mask (%s)",
					i, sizes[i], derived[i],
				)
			}
		}
	}

	return &BatchedImages[T, B]{data: data, imageSizes: sizes, mask: mask}, nil
}

// Data returns the padded (B, C, H, W) tensor.
func (b *BatchedImages[T, B]) Data() *tensor.Tensor[T, B] { return b.data }

// ImageSizes returns the per-image sizes before padding.
func (b *BatchedImages[T, B]) ImageSizes() []ImageSize { return b.imageSizes }

// Mask returns the (B, H, W) padding mask: true on padded pixels.
func (b *BatchedImages[T, B]) Mask() *tensor.Tensor[bool, B] { return b.mask }

// Shape returns the shape of the data tensor.
func (b *BatchedImages[T, B]) Shape() tensor.Shape { return b.data.Shape() }

// Device returns the device of the data tensor.
func (b *BatchedImages[T, B]) Device() tensor.Device { return b.data.Device() }

// Len returns the number of images in the batch.
func (b *BatchedImages[T, B]) Len() int { return b.data.Shape()[0] }

// Unbatch splits the batch back into per-image tensors with their original
// sizes, dropping the padding.
func (b *BatchedImages[T, B]) Unbatch() []*tensor.Tensor[T, B] {
	images := make([]*tensor.Tensor[T, B], b.Len())
	for i := range images {
		images[i] = b.Index(i)
	}
	return images
}

// Index returns image i with its original (C, h, w) size, dropping the
// padding.
func (b *BatchedImages[T, B]) Index(i int) *tensor.Tensor[T, B] {
	if i < 0 || i >= b.Len() {
		panic(fmt.Sprintf("structures: image index %d out of range for batch of %d", i, b.Len()))
	}

	shape := b.data.Shape()
	channels, maxH, maxW := shape[1], shape[2], shape[3]
	h, w := b.imageSizes[i].Height, b.imageSizes[i].Width

	out := tensor.Zeros[T](tensor.Shape{channels, h, w}, b.data.Backend())
	src := b.data.Data()
	dst := out.Data()
	for c := 0; c < channels; c++ {
		for y := 0; y < h; y++ {
			srcOff := ((i*channels+c)*maxH + y) * maxW
			copy(dst[(c*h+y)*w:(c*h+y+1)*w], src[srcOff:srcOff+w])
		}
	}
	return out
}

// Replace swaps the data tensor while keeping the sizes and the mask. The
// batch and spatial dimensions of the new tensor must match the mask; the
// channel count may change.
func (b *BatchedImages[T, B]) Replace(data *tensor.Tensor[T, B]) *BatchedImages[T, B] {
	shape := data.Shape()
	maskShape := b.mask.Shape()
	if len(shape) != 4 || shape[0] != maskShape[0] || shape[2] != maskShape[1] || shape[3] != maskShape[2] {
		panic(fmt.Sprintf(
			"structures: replacement data shape %v is incompatible with mask shape %v",
			shape, maskShape,
		))
	}
	return &BatchedImages[T, B]{data: data, imageSizes: b.imageSizes, mask: b.mask}
}

// ToSequences flattens the spatial dimensions: the result has data of
// shape (B, H*W, C) and a (B, H*W) padding mask. Pixels keep row-major
// order, so sequence position y*W + x corresponds to pixel (y, x).
func (b *BatchedImages[T, B]) ToSequences() *BatchedSequences[T, B] {
	shape := b.data.Shape()
	batch, channels, height, width := shape[0], shape[1], shape[2], shape[3]
	seqLen := height * width

	data := tensor.Zeros[T](tensor.Shape{batch, seqLen, channels}, b.data.Backend())
	src := b.data.Data()
	dst := data.Data()
	for i := 0; i < batch; i++ {
		for c := 0; c < channels; c++ {
			for p := 0; p < seqLen; p++ {
				dst[(i*seqLen+p)*channels+c] = src[(i*channels+c)*seqLen+p]
			}
		}
	}

	lengths := make([]int, batch)
	for i, s := range b.imageSizes {
		lengths[i] = s.Height * s.Width
	}

	return &BatchedSequences[T, B]{
		data:    data,
		lengths: lengths,
		mask:    b.mask.Reshape(batch, seqLen),
	}
}

// To moves the batch to the given device. If it is already there, the
// receiver is returned.
func (b *BatchedImages[T, B]) To(device tensor.Device) *BatchedImages[T, B] {
	if b.Device() == device {
		return b
	}
	return &BatchedImages[T, B]{
		data:       b.data.To(device),
		imageSizes: b.imageSizes,
		mask:       b.mask.To(device),
	}
}

func (b *BatchedImages[T, B]) String() string {
	return fmt.Sprintf(
		"BatchedImages(shape=%v, dtype=%s, device=%s)",
		b.Shape(), b.data.DType(), b.Device(),
	)
}

// imageSizesFromMask recovers per-image sizes from a padding mask. The
// height is the number of rows containing at least one valid pixel and the
// width is the number of such columns, which handles non-square valid
// regions.
func imageSizesFromMask[B tensor.Backend](mask *tensor.Tensor[bool, B]) []ImageSize {
	shape := mask.Shape()
	batch, height, width := shape[0], shape[1], shape[2]
	data := mask.Data()

	sizes := make([]ImageSize, batch)
	for i := 0; i < batch; i++ {
		h, w := 0, 0
		for y := 0; y < height; y++ {
			row := data[(i*height+y)*width : (i*height+y+1)*width]
			valid := false
			for _, padded := range row {
				if !padded {
					valid = true
					break
				}
			}
			if valid {
				h++
			}
		}
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				if !data[(i*height+y)*width+x] {
					w++
					break
				}
			}
		}
		sizes[i] = ImageSize{Height: h, Width: w}
	}
	return sizes
}

func maskFromSizes[B tensor.Backend](
	sizes []ImageSize, maxH, maxW int, backend B,
) *tensor.Tensor[bool, B] {
	mask := tensor.Full(tensor.Shape{len(sizes), maxH, maxW}, true, backend)
	data := mask.Data()
	for i, s := range sizes {
		for y := 0; y < s.Height; y++ {
			off := (i*maxH + y) * maxW
			for x := 0; x < s.Width; x++ {
				data[off+x] = false
			}
		}
	}
	return mask
}

func checkImageMask[B tensor.Backend](mask *tensor.Tensor[bool, B], batch, height, width int) error {
	shape := mask.Shape()
	if len(shape) != 3 || shape[0] != batch || shape[1] != height || shape[2] != width {
		return fmt.Errorf(
			"structures: mask shape %v is incompatible with data of batch %d and size (%d, %d)",
			shape, batch, height, width,
		)
	}
	return nil
}

func checkSizes(sizes []ImageSize, batch, height, width int) error {
	if len(sizes) != batch {
		return fmt.Errorf("structures: got %d image sizes for a batch of %d", len(sizes), batch)
	}
	for i, s := range sizes {
		if s.Height <= 0 || s.Width <= 0 || s.Height > height || s.Width > width {
			return fmt.Errorf(
				"structures: image %d size %s is out of range for padded size (%d, %d)",
				i, s, height, width,
			)
		}
	}
	return nil
}
