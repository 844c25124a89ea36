package tensor

// Cat concatenates tensors along the given dimension.
// All tensors must have the same shape except along dim.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{2, 3}, backend)
//	b := tensor.Zeros[float32](Shape{2, 3}, backend)
//	c := tensor.Cat([]*Tensor[float32, B]{a, b}, 0) // Shape: [4, 3]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("Cat: need at least one tensor")
	}

	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.Raw()
	}

	backend := tensors[0].Backend()
	return New[T, B](backend.Cat(raws, dim), backend)
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze removes a dimension of size 1 at the given position.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}
