package tensor

// Extended tensor operations - typed wrappers for backend operations.
//
// Scalar ops use explicit naming (MulScalar, AddScalar, ...); comparisons
// return bool tensors; reductions take a dimension plus keepDim flag.

// MulScalar multiplies each element of the tensor by a scalar value.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds a scalar value to each element of the tensor.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// SubScalar subtracts a scalar value from each element of the tensor.
func (t *Tensor[T, B]) SubScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.SubScalar(t.raw, scalar), t.backend)
}

// DivScalar divides each element of the tensor by a scalar value.
func (t *Tensor[T, B]) DivScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.DivScalar(t.raw, scalar), t.backend)
}

// Clamp limits every element to the [lo, hi] range.
func (t *Tensor[T, B]) Clamp(lo, hi T) *Tensor[T, B] {
	return New[T, B](t.backend.Clamp(t.raw, lo, hi), t.backend)
}

// Exp computes the exponential (e^x) of each element.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Log computes the natural logarithm (ln(x)) of each element.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return New[T, B](t.backend.Log(t.raw), t.backend)
}

// Sqrt computes the square root of each element.
func (t *Tensor[T, B]) Sqrt() *Tensor[T, B] {
	return New[T, B](t.backend.Sqrt(t.raw), t.backend)
}

// Abs computes the absolute value of each element.
func (t *Tensor[T, B]) Abs() *Tensor[T, B] {
	return New[T, B](t.backend.Abs(t.raw), t.backend)
}

// Sign computes the sign (-1, 0, +1) of each element.
func (t *Tensor[T, B]) Sign() *Tensor[T, B] {
	return New[T, B](t.backend.Sign(t.raw), t.backend)
}

// Softmax applies softmax along the given dimension (negative dims count
// from the end). Rows that are entirely -inf produce all-zero rows.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, dim), t.backend)
}

// Greater performs element-wise a > b, returning a bool tensor.
func (t *Tensor[T, B]) Greater(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Greater(t.raw, other.raw), t.backend)
}

// Lower performs element-wise a < b, returning a bool tensor.
func (t *Tensor[T, B]) Lower(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Lower(t.raw, other.raw), t.backend)
}

// GreaterEqual performs element-wise a >= b, returning a bool tensor.
func (t *Tensor[T, B]) GreaterEqual(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.GreaterEqual(t.raw, other.raw), t.backend)
}

// LowerEqual performs element-wise a <= b, returning a bool tensor.
func (t *Tensor[T, B]) LowerEqual(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.LowerEqual(t.raw, other.raw), t.backend)
}

// Equal performs element-wise a == b, returning a bool tensor.
func (t *Tensor[T, B]) Equal(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Equal(t.raw, other.raw), t.backend)
}

// NotEqual performs element-wise a != b, returning a bool tensor.
func (t *Tensor[T, B]) NotEqual(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.NotEqual(t.raw, other.raw), t.backend)
}

// Or performs element-wise logical OR (bool tensors only).
func (t *Tensor[T, B]) Or(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Or(t.raw, other.raw), t.backend)
}

// And performs element-wise logical AND (bool tensors only).
func (t *Tensor[T, B]) And(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.And(t.raw, other.raw), t.backend)
}

// Not performs element-wise logical NOT (bool tensors only).
func (t *Tensor[T, B]) Not() *Tensor[T, B] {
	return New[T, B](t.backend.Not(t.raw), t.backend)
}

// Sum computes the total sum of all elements (scalar result).
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return New[T, B](t.backend.Sum(t.raw), t.backend)
}

// SumDim sums along the given dimension.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// MeanDim computes the mean along the given dimension.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}

// CumSum computes the cumulative sum along the given dimension.
func (t *Tensor[T, B]) CumSum(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.CumSum(t.raw, dim), t.backend)
}

// Cast converts the tensor to a different element type.
func Cast[U DType, T DType, B Backend](t *Tensor[T, B]) *Tensor[U, B] {
	var dummy U
	return New[U, B](t.Backend().Cast(t.Raw(), inferDataType(dummy)), t.Backend())
}
