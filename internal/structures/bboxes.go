// Package structures provides the batch-aware data structures of the
// toolkit: bounding boxes, padded image and sequence batches, and graph
// arenas. Every structure carries the metadata needed to keep padded or
// derived entries distinguishable from real data.
package structures

import (
	"fmt"
	"math"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// ImageSize is a (height, width) pair in pixels.
type ImageSize struct {
	Height int
	Width  int
}

func (s ImageSize) String() string {
	return fmt.Sprintf("(%d, %d)", s.Height, s.Width)
}

// BoxFormat identifies the layout of the four box coordinates.
type BoxFormat int

const (
	// BoxFormatXYXY stores (x1, y1, x2, y2): top-left and bottom-right corners.
	BoxFormatXYXY BoxFormat = iota
	// BoxFormatXYWH stores (x1, y1, w, h): top-left corner plus extent.
	BoxFormatXYWH
	// BoxFormatCXCYWH stores (cx, cy, w, h): center plus extent.
	BoxFormatCXCYWH
)

func (f BoxFormat) String() string {
	switch f {
	case BoxFormatXYXY:
		return "xyxy"
	case BoxFormatXYWH:
		return "xywh"
	case BoxFormatCXCYWH:
		return "cxcywh"
	default:
		return fmt.Sprintf("BoxFormat(%d)", int(f))
	}
}

const boxEps = 1.19209290e-07 // float32 machine epsilon

// BoundingBoxes holds N axis-aligned boxes relative to a single image,
// together with their coordinate format and whether the coordinates are
// normalized to [0, 1]. Conversion methods return the receiver unchanged
// when the boxes are already in the requested state, so callers can rely
// on pointer identity to detect no-ops.
type BoundingBoxes[B tensor.Backend] struct {
	coords     *tensor.Tensor[float32, B]
	format     BoxFormat
	normalized bool
	imageSize  ImageSize
}

// NewBoundingBoxes wraps an (N, 4) coordinate tensor. It returns an error
// if the tensor is not two-dimensional with four columns or the image size
// is not positive.
func NewBoundingBoxes[B tensor.Backend](
	coords *tensor.Tensor[float32, B],
	format BoxFormat,
	normalized bool,
	imageSize ImageSize,
) (*BoundingBoxes[B], error) {
	shape := coords.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("structures: box coordinates must be 2-dimensional, got %d dimensions", len(shape))
	}
	if shape[1] != 4 {
		return nil, fmt.Errorf("structures: box coordinates must have 4 columns, got %d", shape[1])
	}
	if imageSize.Height <= 0 || imageSize.Width <= 0 {
		return nil, fmt.Errorf("structures: image size must be positive, got %v", imageSize)
	}

	return &BoundingBoxes[B]{
		coords:     coords,
		format:     format,
		normalized: normalized,
		imageSize:  imageSize,
	}, nil
}

// Coordinates returns the underlying (N, 4) tensor.
func (b *BoundingBoxes[B]) Coordinates() *tensor.Tensor[float32, B] { return b.coords }

// Format returns the coordinate format.
func (b *BoundingBoxes[B]) Format() BoxFormat { return b.format }

// Normalized reports whether the coordinates are in the [0, 1] range.
func (b *BoundingBoxes[B]) Normalized() bool { return b.normalized }

// ImageSize returns the size of the reference image.
func (b *BoundingBoxes[B]) ImageSize() ImageSize { return b.imageSize }

// Device returns the device of the coordinate tensor.
func (b *BoundingBoxes[B]) Device() tensor.Device { return b.coords.Device() }

// Len returns the number of boxes.
func (b *BoundingBoxes[B]) Len() int { return b.coords.Shape()[0] }

// ToXYXY converts the coordinates to the XYXY format. If the boxes are
// already in XYXY, the receiver is returned.
func (b *BoundingBoxes[B]) ToXYXY() *BoundingBoxes[B] {
	if b.format == BoxFormatXYXY {
		return b
	}

	src := b.coords.Data()
	out := tensor.Zeros[float32](b.coords.Shape(), b.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(src); i += 4 {
		var x1, y1 float32
		switch b.format {
		case BoxFormatXYWH:
			x1, y1 = src[i], src[i+1]
		case BoxFormatCXCYWH:
			x1, y1 = src[i]-src[i+2]/2, src[i+1]-src[i+3]/2
		}
		dst[i], dst[i+1] = x1, y1
		dst[i+2], dst[i+3] = x1+src[i+2], y1+src[i+3]
	}

	return &BoundingBoxes[B]{out, BoxFormatXYXY, b.normalized, b.imageSize}
}

// ToXYWH converts the coordinates to the XYWH format. If the boxes are
// already in XYWH, the receiver is returned.
func (b *BoundingBoxes[B]) ToXYWH() *BoundingBoxes[B] {
	if b.format == BoxFormatXYWH {
		return b
	}

	src := b.coords.Data()
	out := tensor.Zeros[float32](b.coords.Shape(), b.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(src); i += 4 {
		switch b.format {
		case BoxFormatXYXY:
			dst[i], dst[i+1] = src[i], src[i+1]
			dst[i+2], dst[i+3] = src[i+2]-src[i], src[i+3]-src[i+1]
		case BoxFormatCXCYWH:
			dst[i], dst[i+1] = src[i]-src[i+2]/2, src[i+1]-src[i+3]/2
			dst[i+2], dst[i+3] = src[i+2], src[i+3]
		}
	}

	return &BoundingBoxes[B]{out, BoxFormatXYWH, b.normalized, b.imageSize}
}

// ToCXCYWH converts the coordinates to the CXCYWH format. If the boxes are
// already in CXCYWH, the receiver is returned.
func (b *BoundingBoxes[B]) ToCXCYWH() *BoundingBoxes[B] {
	if b.format == BoxFormatCXCYWH {
		return b
	}

	src := b.coords.Data()
	out := tensor.Zeros[float32](b.coords.Shape(), b.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(src); i += 4 {
		var w, h float32
		switch b.format {
		case BoxFormatXYXY:
			w, h = src[i+2]-src[i], src[i+3]-src[i+1]
		case BoxFormatXYWH:
			w, h = src[i+2], src[i+3]
		}
		dst[i], dst[i+1] = src[i]+w/2, src[i+1]+h/2
		dst[i+2], dst[i+3] = w, h
	}

	return &BoundingBoxes[B]{out, BoxFormatCXCYWH, b.normalized, b.imageSize}
}

// Normalize scales the coordinates into the [0, 1] range using the image
// size. If the boxes are already normalized, the receiver is returned.
func (b *BoundingBoxes[B]) Normalize() *BoundingBoxes[B] {
	if b.normalized {
		return b
	}

	coords := b.scaleColumns(
		1/float32(b.imageSize.Width), 1/float32(b.imageSize.Height),
		1/float32(b.imageSize.Width), 1/float32(b.imageSize.Height),
	)
	return &BoundingBoxes[B]{coords, b.format, true, b.imageSize}
}

// Denormalize scales the coordinates back to pixel units. If the boxes are
// already denormalized, the receiver is returned.
func (b *BoundingBoxes[B]) Denormalize() *BoundingBoxes[B] {
	if !b.normalized {
		return b
	}

	coords := b.scaleColumns(
		float32(b.imageSize.Width), float32(b.imageSize.Height),
		float32(b.imageSize.Width), float32(b.imageSize.Height),
	)
	return &BoundingBoxes[B]{coords, b.format, false, b.imageSize}
}

// Convert changes the format and normalization in one call. A nil format
// or nil normalized leaves that aspect untouched.
func (b *BoundingBoxes[B]) Convert(format *BoxFormat, normalized *bool) *BoundingBoxes[B] {
	boxes := b
	if format != nil {
		switch *format {
		case BoxFormatXYXY:
			boxes = boxes.ToXYXY()
		case BoxFormatXYWH:
			boxes = boxes.ToXYWH()
		case BoxFormatCXCYWH:
			boxes = boxes.ToCXCYWH()
		default:
			panic(fmt.Sprintf("structures: unknown box format %d", int(*format)))
		}
	}
	if normalized != nil {
		if *normalized {
			boxes = boxes.Normalize()
		} else {
			boxes = boxes.Denormalize()
		}
	}
	return boxes
}

// ConvertLike converts the boxes to the format and normalization of other.
func (b *BoundingBoxes[B]) ConvertLike(other *BoundingBoxes[B]) *BoundingBoxes[B] {
	return b.Convert(&other.format, &other.normalized)
}

// Resize rescales the coordinates to a new image size. Normalized boxes
// only change their recorded image size. If the size is unchanged, the
// receiver is returned.
func (b *BoundingBoxes[B]) Resize(imageSize ImageSize) *BoundingBoxes[B] {
	if b.imageSize == imageSize {
		return b
	}

	coords := b.coords
	if !b.normalized {
		hr := float32(imageSize.Height) / float32(b.imageSize.Height)
		wr := float32(imageSize.Width) / float32(b.imageSize.Width)
		coords = b.scaleColumns(wr, hr, wr, hr)
	}
	return &BoundingBoxes[B]{coords, b.format, b.normalized, imageSize}
}

// HorizontalFlip mirrors the boxes across the vertical axis of the image.
func (b *BoundingBoxes[B]) HorizontalFlip() *BoundingBoxes[B] {
	w := float32(1)
	if !b.normalized {
		w = float32(b.imageSize.Width)
	}

	src := b.coords.Data()
	out := b.coords.Clone()
	dst := out.Data()
	for i := 0; i < len(src); i += 4 {
		switch b.format {
		case BoxFormatXYXY:
			dst[i], dst[i+2] = w-src[i+2], w-src[i]
		case BoxFormatXYWH:
			dst[i] = w - src[i] - src[i+2]
		case BoxFormatCXCYWH:
			dst[i] = w - src[i]
		}
	}

	return &BoundingBoxes[B]{out, b.format, b.normalized, b.imageSize}
}

// Crop translates the boxes into the coordinate frame of the crop region
// delimited by (top, left) and (bottom, right), clamps them to the region,
// and converts the result back to the format and normalization of the
// receiver. The resulting boxes are relative to an image of size
// (bottom-top, right-left).
func (b *BoundingBoxes[B]) Crop(top, left, bottom, right int) *BoundingBoxes[B] {
	if bottom <= top || right <= left {
		panic(fmt.Sprintf("structures: invalid crop region (%d, %d, %d, %d)", top, left, bottom, right))
	}

	boxes := b.Denormalize()
	src := boxes.coords.Data()
	out := tensor.Zeros[float32](boxes.coords.Shape(), boxes.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(src); i += 4 {
		dst[i] = src[i] - float32(left)
		dst[i+1] = src[i+1] - float32(top)
		if boxes.format == BoxFormatXYXY {
			dst[i+2] = src[i+2] - float32(left)
			dst[i+3] = src[i+3] - float32(top)
		} else {
			dst[i+2], dst[i+3] = src[i+2], src[i+3]
		}
	}

	cropped := &BoundingBoxes[B]{
		coords:     out,
		format:     boxes.format,
		normalized: false,
		imageSize:  ImageSize{Height: bottom - top, Width: right - left},
	}
	return cropped.ClampToImage().ConvertLike(b)
}

// ClampToImage clips the coordinates to the image bounds: [0, 1] for
// normalized boxes, [0, W]x[0, H] otherwise.
func (b *BoundingBoxes[B]) ClampToImage() *BoundingBoxes[B] {
	boxes := b.ToXYXY()
	h, w := float32(1), float32(1)
	if !boxes.normalized {
		h, w = float32(boxes.imageSize.Height), float32(boxes.imageSize.Width)
	}

	src := boxes.coords.Data()
	out := tensor.Zeros[float32](boxes.coords.Shape(), boxes.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(src); i += 4 {
		dst[i] = clampFloat(src[i], 0, w)
		dst[i+1] = clampFloat(src[i+1], 0, h)
		dst[i+2] = clampFloat(src[i+2], 0, w)
		dst[i+3] = clampFloat(src[i+3], 0, h)
	}

	clamped := &BoundingBoxes[B]{out, BoxFormatXYXY, boxes.normalized, boxes.imageSize}
	return clamped.ConvertLike(b)
}

// Area returns the per-box area as an (N,) tensor. The result is in
// normalized units if the boxes are normalized, pixels otherwise.
func (b *BoundingBoxes[B]) Area() *tensor.Tensor[float32, B] {
	src := b.coords.Data()
	n := b.Len()
	out := tensor.Zeros[float32](tensor.Shape{n}, b.coords.Backend())
	dst := out.Data()
	for i := 0; i < n; i++ {
		w, h := b.extent(src, i)
		dst[i] = w * h
	}
	return out
}

// AspectRatio returns width/height per box, with a small epsilon added to
// the height to avoid division by zero.
func (b *BoundingBoxes[B]) AspectRatio() *tensor.Tensor[float32, B] {
	src := b.coords.Data()
	n := b.Len()
	out := tensor.Zeros[float32](tensor.Shape{n}, b.coords.Backend())
	dst := out.Data()
	for i := 0; i < n; i++ {
		w, h := b.extent(src, i)
		dst[i] = w / (h + boxEps)
	}
	return out
}

// Union returns the box-wise smallest enclosing boxes of b and other, in
// the XYXY format. other is converted to the state of b first.
func (b *BoundingBoxes[B]) Union(other *BoundingBoxes[B]) *BoundingBoxes[B] {
	b1 := b.ToXYXY()
	b2 := other.ConvertLike(b1)
	b1.checkCompatibility(b2)

	s1, s2 := b1.coords.Data(), b2.coords.Data()
	out := tensor.Zeros[float32](b1.coords.Shape(), b1.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(s1); i += 4 {
		dst[i] = minFloat(s1[i], s2[i])
		dst[i+1] = minFloat(s1[i+1], s2[i+1])
		dst[i+2] = maxFloat(s1[i+2], s2[i+2])
		dst[i+3] = maxFloat(s1[i+3], s2[i+3])
	}

	return &BoundingBoxes[B]{out, BoxFormatXYXY, b1.normalized, b1.imageSize}
}

// Intersection returns the box-wise overlap of b and other, in the XYWH
// format. Disjoint pairs yield boxes of zero width and height.
func (b *BoundingBoxes[B]) Intersection(other *BoundingBoxes[B]) *BoundingBoxes[B] {
	b1 := b.ToXYXY()
	b2 := other.ConvertLike(b1)
	b1.checkCompatibility(b2)

	s1, s2 := b1.coords.Data(), b2.coords.Data()
	out := tensor.Zeros[float32](b1.coords.Shape(), b1.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(s1); i += 4 {
		x1 := maxFloat(s1[i], s2[i])
		y1 := maxFloat(s1[i+1], s2[i+1])
		x2 := minFloat(s1[i+2], s2[i+2])
		y2 := minFloat(s1[i+3], s2[i+3])
		dst[i], dst[i+1] = x1, y1
		dst[i+2] = maxFloat(x2-x1, 0)
		dst[i+3] = maxFloat(y2-y1, 0)
	}

	return &BoundingBoxes[B]{out, BoxFormatXYWH, b1.normalized, b1.imageSize}
}

// UnionArea returns area(b) + area(other) - intersectionArea(b, other)
// per box. Note this is not the area of Union, which encloses both boxes.
func (b *BoundingBoxes[B]) UnionArea(other *BoundingBoxes[B]) *tensor.Tensor[float32, B] {
	if b.normalized != other.normalized {
		panic(fmt.Sprintf(
			"structures: union area requires the same normalization, got %t and %t",
			b.normalized, other.normalized,
		))
	}

	a1, a2 := b.Area().Data(), other.Area().Data()
	inter := b.IntersectionArea(other)
	dst := inter.Data()
	for i := range dst {
		dst[i] = a1[i] + a2[i] - dst[i]
	}
	return inter
}

// IntersectionArea returns the per-box area of the overlap.
func (b *BoundingBoxes[B]) IntersectionArea(other *BoundingBoxes[B]) *tensor.Tensor[float32, B] {
	if b.normalized != other.normalized {
		panic(fmt.Sprintf(
			"structures: intersection area requires the same normalization, got %t and %t",
			b.normalized, other.normalized,
		))
	}
	return b.Intersection(other).Area()
}

// IoU returns the per-box intersection over union. Both operands are
// normalized first, so boxes with different normalization states compare
// correctly as long as they refer to the same image size.
func (b *BoundingBoxes[B]) IoU(other *BoundingBoxes[B]) *tensor.Tensor[float32, B] {
	b1 := b.Normalize()
	b2 := other.Normalize()

	inter := b1.IntersectionArea(b2)
	union := b1.UnionArea(b2)

	out := inter
	dst, u := out.Data(), union.Data()
	for i := range dst {
		dst[i] = dst[i] / (u[i] + boxEps)
	}
	return out
}

// IsValid returns a boolean mask of the boxes that lie inside the image
// and are at least minWidth wide and minHeight tall. The minima are given
// in pixels and are scaled automatically when the boxes are normalized.
func (b *BoundingBoxes[B]) IsValid(minWidth, minHeight float32) *tensor.Tensor[bool, B] {
	boxes := b.ToXYXY()
	h, w := float32(1), float32(1)
	if !boxes.normalized {
		h, w = float32(boxes.imageSize.Height), float32(boxes.imageSize.Width)
	} else {
		minWidth /= float32(b.imageSize.Width)
		minHeight /= float32(b.imageSize.Height)
	}

	src := boxes.coords.Data()
	n := boxes.Len()
	out := tensor.Zeros[bool](tensor.Shape{n}, boxes.coords.Backend())
	dst := out.Data()
	for i := 0; i < n; i++ {
		x1, y1, x2, y2 := src[i*4], src[i*4+1], src[i*4+2], src[i*4+3]
		dst[i] = x1 >= 0 && y1 >= 0 && x2 >= 0 && y2 >= 0 &&
			x1 <= w && y1 <= h && x2 <= w && y2 <= h &&
			x2-x1 >= minWidth && y2-y1 >= minHeight
	}
	return out
}

// Filter keeps only the boxes whose entry in keep is true. keep must be a
// 1-D boolean tensor with one entry per box.
func (b *BoundingBoxes[B]) Filter(keep *tensor.Tensor[bool, B]) *BoundingBoxes[B] {
	shape := keep.Shape()
	if len(shape) != 1 || shape[0] != b.Len() {
		panic(fmt.Sprintf("structures: filter mask shape %v does not match %d boxes", shape, b.Len()))
	}

	mask := keep.Data()
	count := 0
	for _, v := range mask {
		if v {
			count++
		}
	}

	src := b.coords.Data()
	out := tensor.Zeros[float32](tensor.Shape{count, 4}, b.coords.Backend())
	dst := out.Data()
	j := 0
	for i, v := range mask {
		if v {
			copy(dst[j*4:(j+1)*4], src[i*4:(i+1)*4])
			j++
		}
	}

	return &BoundingBoxes[B]{out, b.format, b.normalized, b.imageSize}
}

// Index returns the coordinates of box i.
func (b *BoundingBoxes[B]) Index(i int) [4]float32 {
	if i < 0 || i >= b.Len() {
		panic(fmt.Sprintf("structures: box index %d out of range for %d boxes", i, b.Len()))
	}
	src := b.coords.Data()
	return [4]float32{src[i*4], src[i*4+1], src[i*4+2], src[i*4+3]}
}

// To moves the boxes to the given device. If the boxes are already there,
// the receiver is returned.
func (b *BoundingBoxes[B]) To(device tensor.Device) *BoundingBoxes[B] {
	if b.Device() == device {
		return b
	}
	return &BoundingBoxes[B]{b.coords.To(device), b.format, b.normalized, b.imageSize}
}

func (b *BoundingBoxes[B]) String() string {
	return fmt.Sprintf(
		"BoundingBoxes(num_boxes=%d, format=%s, normalized=%t, image_size=%s)",
		b.Len(), b.format, b.normalized, b.imageSize,
	)
}

func (b *BoundingBoxes[B]) scaleColumns(c0, c1, c2, c3 float32) *tensor.Tensor[float32, B] {
	src := b.coords.Data()
	out := tensor.Zeros[float32](b.coords.Shape(), b.coords.Backend())
	dst := out.Data()
	for i := 0; i < len(src); i += 4 {
		dst[i] = src[i] * c0
		dst[i+1] = src[i+1] * c1
		dst[i+2] = src[i+2] * c2
		dst[i+3] = src[i+3] * c3
	}
	return out
}

// extent returns the width and height of box i in the receiver's format.
func (b *BoundingBoxes[B]) extent(src []float32, i int) (w, h float32) {
	if b.format == BoxFormatXYXY {
		return src[i*4+2] - src[i*4], src[i*4+3] - src[i*4+1]
	}
	return src[i*4+2], src[i*4+3]
}

func (b *BoundingBoxes[B]) checkCompatibility(other *BoundingBoxes[B]) {
	if b.Len() != other.Len() {
		panic(fmt.Sprintf(
			"structures: the number of boxes must be the same, got %d and %d",
			b.Len(), other.Len(),
		))
	}
	if b.imageSize != other.imageSize {
		panic(fmt.Sprintf(
			"structures: the box image sizes must be the same, got %s and %s",
			b.imageSize, other.imageSize,
		))
	}
}

func clampFloat(v, lo, hi float32) float32 {
	return minFloat(maxFloat(v, lo), hi)
}

func minFloat(a, b float32) float32 {
	if a < b || math.IsNaN(float64(a)) {
		return a
	}
	return b
}

func maxFloat(a, b float32) float32 {
	if a > b || math.IsNaN(float64(a)) {
		return a
	}
	return b
}
