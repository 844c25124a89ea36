package nn

import (
	"fmt"
	"math"

	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// AttentionMechanism scores queries against keys and aggregates values
// with the resulting weights. Implementations take (B, H, Q, D) queries,
// (B, H, K, D) keys and values, and an optional additive (B, H, Q, K)
// mask (nil for none), and return a (B, H, Q, D) output.
//
// Layers that are parameterized over this interface can swap the scoring
// strategy without changing their projections.
type AttentionMechanism[B tensor.Backend] interface {
	Attend(
		query, key, value *tensor.Tensor[float32, B],
		mask *tensor.Tensor[float32, B],
	) *tensor.Tensor[float32, B]
}

// ScaledDotProductAttention computes softmax(q @ k.T * scale + mask) @ v.
//
// A zero Scale means 1/sqrt(D) is used. The additive mask typically holds
// -inf at key positions that must be ignored; query rows whose keys are
// all masked produce a zero output row rather than NaN.
type ScaledDotProductAttention[B tensor.Backend] struct {
	Scale   float32 // 0 means 1/sqrt(head dim)
	dropout *Dropout[B]
}

// NewScaledDotProductAttention creates the mechanism with the given
// dropout probability on the attention weights. scale = 0 selects the
// default 1/sqrt(D) scaling.
func NewScaledDotProductAttention[B tensor.Backend](dropout, scale float32) *ScaledDotProductAttention[B] {
	return &ScaledDotProductAttention[B]{
		Scale:   scale,
		dropout: NewDropout[B](dropout),
	}
}

// Train puts the mechanism in training mode, enabling attention dropout.
func (a *ScaledDotProductAttention[B]) Train() { a.dropout.Train() }

// Eval puts the mechanism in evaluation mode.
func (a *ScaledDotProductAttention[B]) Eval() { a.dropout.Eval() }

// Attend implements AttentionMechanism.
func (a *ScaledDotProductAttention[B]) Attend(
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	qShape, kShape := query.Shape(), key.Shape()
	if len(qShape) != 4 || len(kShape) != 4 {
		panic(fmt.Sprintf(
			"nn: attention expects (B, H, L, D) operands, got query %v and key %v",
			qShape, kShape,
		))
	}
	if qShape[3] != kShape[3] {
		panic(fmt.Sprintf(
			"nn: query head dimension %d does not match key head dimension %d",
			qShape[3], kShape[3],
		))
	}

	scale := a.Scale
	if scale == 0 {
		scale = float32(1 / math.Sqrt(float64(qShape[3])))
	}

	// (B, H, Q, D) @ (B, H, D, K) -> (B, H, Q, K)
	scores := query.BatchMatMul(key.Transpose(0, 1, 3, 2)).MulScalar(scale)
	if mask != nil {
		scores = scores.Add(mask)
	}

	weights := a.dropout.Forward(scores.Softmax(-1))
	return weights.BatchMatMul(value)
}
