package tensor

// Backend defines the capability interface that all compute backends must
// implement. It is the seam between the structure/attention layer, which only
// manages shapes, masks, and index spaces, and the numeric kernels that
// actually execute (CPU reference implementation in internal/backend/cpu;
// accelerator backends plug in behind the same interface).
//
// Backends are pure: every operation returns a fresh tensor (or a view for
// pure-reshape ops) and never mutates its inputs. Shape or dtype mismatches
// panic at the call site.
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor
	Maximum(a, b *RawTensor) *RawTensor
	Minimum(a, b *RawTensor) *RawTensor

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul performs batched matrix multiplication for 3D/4D tensors.
	// For 3D: [B, M, K] @ [B, K, N] -> [B, M, N]
	// For 4D: [B, H, M, K] @ [B, H, K, N] -> [B, H, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Conv2D convolves input [B, C, H, W] with kernel [O, C, KH, KW].
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar).
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor
	Clamp(x *RawTensor, lo, hi any) *RawTensor

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Abs(x *RawTensor) *RawTensor
	Sign(x *RawTensor) *RawTensor

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor
	LeakyReLU(x *RawTensor, negativeSlope float32) *RawTensor
	GELU(x *RawTensor) *RawTensor

	// Softmax along a dimension. Rows whose entries are all -inf produce
	// all-zero rows instead of NaN (fully-masked attention rows are a
	// defined edge case, not an error).
	Softmax(x *RawTensor, dim int) *RawTensor

	// Comparison operations (element-wise, return bool tensor).
	Greater(a, b *RawTensor) *RawTensor
	Lower(a, b *RawTensor) *RawTensor
	GreaterEqual(a, b *RawTensor) *RawTensor
	LowerEqual(a, b *RawTensor) *RawTensor
	Equal(a, b *RawTensor) *RawTensor
	NotEqual(a, b *RawTensor) *RawTensor

	// Boolean operations (element-wise on bool tensors).
	Or(a, b *RawTensor) *RawTensor
	And(a, b *RawTensor) *RawTensor
	Not(x *RawTensor) *RawTensor

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	CumSum(x *RawTensor, dim int) *RawTensor

	// Manipulation operations.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Type conversion (including Float16 <-> Float32 for half-precision
	// payloads).
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// ToDevice transfers a tensor to the given device. Must be the identity
	// (same tensor returned) when the tensor already resides there; backends
	// that cannot reach the target device panic.
	ToDevice(x *RawTensor, device Device) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
