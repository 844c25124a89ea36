package nn

import (
	"fmt"
	"math"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// MultiHeadSelfAttention projects a (B, L, D) sequence into per-head
// queries, keys, and values, runs the configured attention mechanism, and
// projects the result back to (B, L, D). An optional key padding mask
// (true on padded positions) turns padded keys into -inf scores for every
// query.
type MultiHeadSelfAttention[B tensor.Backend] struct {
	numHeads  int
	headDim   int
	qkv       *Linear[B]
	outProj   *Linear[B]
	mechanism AttentionMechanism[B]
	backend   B
}

// NewMultiHeadSelfAttention creates a self-attention block with the given
// embedding dimension and head count. dim must be divisible by numHeads.
// A nil mechanism defaults to scaled dot-product attention.
func NewMultiHeadSelfAttention[B tensor.Backend](
	dim, numHeads int,
	qkvBias bool,
	mechanism AttentionMechanism[B],
	backend B,
) *MultiHeadSelfAttention[B] {
	if dim%numHeads != 0 {
		panic(fmt.Sprintf("nn: embedding dimension %d is not divisible by %d heads", dim, numHeads))
	}
	if mechanism == nil {
		mechanism = NewScaledDotProductAttention[B](0, 0)
	}
	return &MultiHeadSelfAttention[B]{
		numHeads:  numHeads,
		headDim:   dim / numHeads,
		qkv:       NewLinear(dim, 3*dim, qkvBias, backend),
		outProj:   NewLinear(dim, dim, true, backend),
		mechanism: mechanism,
		backend:   backend,
	}
}

// Forward attends every position to every non-padded position of the same
// sequence. padding may be nil when no position is padded.
func (m *MultiHeadSelfAttention[B]) Forward(
	x *tensor.Tensor[float32, B],
	padding *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("nn: self-attention expects a (B, L, D) input, got shape %v", shape))
	}
	batch, seqLen, dim := shape[0], shape[1], shape[2]

	qkv := m.qkv.Forward(x) // (B, L, 3*D)
	q, k, v := m.splitHeads(qkv, batch, seqLen, dim)

	var mask *tensor.Tensor[float32, B]
	if padding != nil {
		mask = KeyPaddingMask(padding, m.numHeads, seqLen)
	}

	out := m.mechanism.Attend(q, k, v, mask) // (B, H, L, Dh)
	merged := out.Transpose(0, 2, 1, 3).Reshape(batch, seqLen, dim)
	return m.outProj.Forward(merged)
}

// splitHeads turns a packed (B, L, 3*D) projection into three
// (B, H, L, Dh) tensors.
func (m *MultiHeadSelfAttention[B]) splitHeads(
	qkv *tensor.Tensor[float32, B],
	batch, seqLen, dim int,
) (q, k, v *tensor.Tensor[float32, B]) {
	src := qkv.Data()
	backend := qkv.Backend()

	outs := make([]*tensor.Tensor[float32, B], 3)
	for i := range outs {
		outs[i] = tensor.Zeros[float32](tensor.Shape{batch, m.numHeads, seqLen, m.headDim}, backend)
	}
	for b := 0; b < batch; b++ {
		for l := 0; l < seqLen; l++ {
			row := src[(b*seqLen+l)*3*dim : (b*seqLen+l+1)*3*dim]
			for i, out := range outs {
				dst := out.Data()
				for h := 0; h < m.numHeads; h++ {
					off := ((b*m.numHeads+h)*seqLen + l) * m.headDim
					copy(dst[off:off+m.headDim], row[i*dim+h*m.headDim:i*dim+(h+1)*m.headDim])
				}
			}
		}
	}
	return outs[0], outs[1], outs[2]
}

// Parameters returns the trainable parameters of this block.
func (m *MultiHeadSelfAttention[B]) Parameters() []*Parameter[B] {
	params := m.qkv.Parameters()
	return append(params, m.outProj.Parameters()...)
}

// Train puts the block in training mode. Mechanisms without a mode are
// left untouched.
func (m *MultiHeadSelfAttention[B]) Train() {
	if mech, ok := m.mechanism.(interface{ Train() }); ok {
		mech.Train()
	}
}

// Eval puts the block in evaluation mode.
func (m *MultiHeadSelfAttention[B]) Eval() {
	if mech, ok := m.mechanism.(interface{ Eval() }); ok {
		mech.Eval()
	}
}

// KeyPaddingMask expands a (B, K) boolean padding mask into an additive
// (B, H, Q, K) attention mask holding -inf at padded key positions and 0
// elsewhere.
func KeyPaddingMask[B tensor.Backend](
	padding *tensor.Tensor[bool, B],
	numHeads, numQueries int,
) *tensor.Tensor[float32, B] {
	shape := padding.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("nn: padding mask must be 2-dimensional, got shape %v", shape))
	}
	batch, numKeys := shape[0], shape[1]

	ninf := float32(math.Inf(-1))
	mask := tensor.Zeros[float32](tensor.Shape{batch, numHeads, numQueries, numKeys}, padding.Backend())
	src := padding.Data()
	dst := mask.Data()
	for b := 0; b < batch; b++ {
		for k := 0; k < numKeys; k++ {
			if !src[b*numKeys+k] {
				continue
			}
			for h := 0; h < numHeads; h++ {
				for q := 0; q < numQueries; q++ {
					dst[((b*numHeads+h)*numQueries+q)*numKeys+k] = ninf
				}
			}
		}
	}
	return mask
}
