package structures

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// BatchedSequences holds a batch of variable-length sequences padded to a
// common length, as a (B, L, D) tensor plus a (B, L) boolean mask. The
// mask is true for padded positions and false for valid positions.
type BatchedSequences[T tensor.DType, B tensor.Backend] struct {
	data    *tensor.Tensor[T, B]
	lengths []int
	mask    *tensor.Tensor[bool, B]
}

// BatchSequences pads a list of (L, D) sequences to the longest length in
// the batch, filling padded positions with padValue. It returns an error
// if the list is empty or the feature dimensions or devices differ.
func BatchSequences[T tensor.DType, B tensor.Backend](
	sequences []*tensor.Tensor[T, B],
	padValue T,
) (*BatchedSequences[T, B], error) {
	if len(sequences) == 0 {
		return nil, fmt.Errorf("structures: at least one sequence must be provided")
	}

	dim := 0
	maxLen := 0
	lengths := make([]int, len(sequences))
	for i, seq := range sequences {
		shape := seq.Shape()
		if len(shape) != 2 {
			return nil, fmt.Errorf("structures: sequence %d must have 2 dimensions, got shape %v", i, shape)
		}
		if i == 0 {
			dim = shape[1]
		} else if shape[1] != dim {
			return nil, fmt.Errorf(
				"structures: sequence %d has feature dimension %d, expected %d", i, shape[1], dim,
			)
		}
		if seq.Device() != sequences[0].Device() {
			return nil, fmt.Errorf("structures: all sequences must be on the same device")
		}
		lengths[i] = shape[0]
		maxLen = max(maxLen, shape[0])
	}

	backend := sequences[0].Backend()
	data := tensor.Full(tensor.Shape{len(sequences), maxLen, dim}, padValue, backend)
	mask := tensor.Full(tensor.Shape{len(sequences), maxLen}, true, backend)
	dst := data.Data()
	maskData := mask.Data()
	for i, seq := range sequences {
		copy(dst[i*maxLen*dim:], seq.Data())
		for p := 0; p < lengths[i]; p++ {
			maskData[i*maxLen+p] = false
		}
	}

	return &BatchedSequences[T, B]{data: data, lengths: lengths, mask: mask}, nil
}

// NewBatchedSequences wraps an already padded (B, L, D) tensor with its
// per-sequence lengths. The mask is derived from the lengths.
func NewBatchedSequences[T tensor.DType, B tensor.Backend](
	data *tensor.Tensor[T, B],
	lengths []int,
) (*BatchedSequences[T, B], error) {
	shape := data.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("structures: batched sequence data must have 3 dimensions, got shape %v", shape)
	}
	if len(lengths) != shape[0] {
		return nil, fmt.Errorf("structures: got %d lengths for a batch of %d", len(lengths), shape[0])
	}

	mask := tensor.Full(tensor.Shape{shape[0], shape[1]}, true, data.Backend())
	maskData := mask.Data()
	for i, l := range lengths {
		if l <= 0 || l > shape[1] {
			return nil, fmt.Errorf(
				"structures: sequence %d length %d is out of range for padded length %d",
				i, l, shape[1],
			)
		}
		for p := 0; p < l; p++ {
			maskData[i*shape[1]+p] = false
		}
	}

	return &BatchedSequences[T, B]{data: data, lengths: lengths, mask: mask}, nil
}

// Data returns the padded (B, L, D) tensor.
func (b *BatchedSequences[T, B]) Data() *tensor.Tensor[T, B] { return b.data }

// Lengths returns the per-sequence lengths before padding.
func (b *BatchedSequences[T, B]) Lengths() []int { return b.lengths }

// Mask returns the (B, L) padding mask: true on padded positions.
func (b *BatchedSequences[T, B]) Mask() *tensor.Tensor[bool, B] { return b.mask }

// Shape returns the shape of the data tensor.
func (b *BatchedSequences[T, B]) Shape() tensor.Shape { return b.data.Shape() }

// Device returns the device of the data tensor.
func (b *BatchedSequences[T, B]) Device() tensor.Device { return b.data.Device() }

// Len returns the number of sequences in the batch.
func (b *BatchedSequences[T, B]) Len() int { return b.data.Shape()[0] }

// Unbatch splits the batch back into per-sequence tensors with their
// original lengths, dropping the padding.
func (b *BatchedSequences[T, B]) Unbatch() []*tensor.Tensor[T, B] {
	sequences := make([]*tensor.Tensor[T, B], b.Len())
	for i := range sequences {
		sequences[i] = b.Index(i)
	}
	return sequences
}

// Index returns sequence i with its original (l, D) size.
func (b *BatchedSequences[T, B]) Index(i int) *tensor.Tensor[T, B] {
	if i < 0 || i >= b.Len() {
		panic(fmt.Sprintf("structures: sequence index %d out of range for batch of %d", i, b.Len()))
	}

	shape := b.data.Shape()
	maxLen, dim := shape[1], shape[2]
	l := b.lengths[i]

	out := tensor.Zeros[T](tensor.Shape{l, dim}, b.data.Backend())
	copy(out.Data(), b.data.Data()[i*maxLen*dim:i*maxLen*dim+l*dim])
	return out
}

// Replace swaps the data tensor while keeping the lengths and the mask.
// The batch and length dimensions must match the mask; the feature
// dimension may change.
func (b *BatchedSequences[T, B]) Replace(data *tensor.Tensor[T, B]) *BatchedSequences[T, B] {
	shape := data.Shape()
	maskShape := b.mask.Shape()
	if len(shape) != 3 || shape[0] != maskShape[0] || shape[1] != maskShape[1] {
		panic(fmt.Sprintf(
			"structures: replacement data shape %v is incompatible with mask shape %v",
			shape, maskShape,
		))
	}
	return &BatchedSequences[T, B]{data: data, lengths: b.lengths, mask: b.mask}
}

// To moves the batch to the given device. If it is already there, the
// receiver is returned.
func (b *BatchedSequences[T, B]) To(device tensor.Device) *BatchedSequences[T, B] {
	if b.Device() == device {
		return b
	}
	return &BatchedSequences[T, B]{
		data:    b.data.To(device),
		lengths: b.lengths,
		mask:    b.mask.To(device),
	}
}

func (b *BatchedSequences[T, B]) String() string {
	return fmt.Sprintf(
		"BatchedSequences(shape=%v, dtype=%s, device=%s)",
		b.Shape(), b.data.DType(), b.Device(),
	)
}
