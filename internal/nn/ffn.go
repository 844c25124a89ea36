package nn

import (
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// FFN is the position-wise feed-forward block used in transformer layers:
// Linear -> GELU -> Dropout -> Linear -> Dropout.
type FFN[B tensor.Backend] struct {
	linear1  *Linear[B]
	linear2  *Linear[B]
	act      *GELU[B]
	dropout1 *Dropout[B]
	dropout2 *Dropout[B]
}

// NewFFN creates a feed-forward block mapping dim -> hiddenDim -> dim.
func NewFFN[B tensor.Backend](dim, hiddenDim int, dropout float32, backend B) *FFN[B] {
	return &FFN[B]{
		linear1:  NewLinear(dim, hiddenDim, true, backend),
		linear2:  NewLinear(hiddenDim, dim, true, backend),
		act:      NewGELU[B](),
		dropout1: NewDropout[B](dropout),
		dropout2: NewDropout[B](dropout),
	}
}

// Forward applies the block to the last dimension of the input.
func (f *FFN[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	h := f.act.Forward(f.linear1.Forward(x))
	h = f.dropout1.Forward(h)
	return f.dropout2.Forward(f.linear2.Forward(h))
}

// Train puts the block in training mode.
func (f *FFN[B]) Train() {
	f.dropout1.Train()
	f.dropout2.Train()
}

// Eval puts the block in evaluation mode.
func (f *FFN[B]) Eval() {
	f.dropout1.Eval()
	f.dropout2.Eval()
}

// Parameters returns the trainable parameters of this block.
func (f *FFN[B]) Parameters() []*Parameter[B] {
	params := f.linear1.Parameters()
	return append(params, f.linear2.Parameters()...)
}
