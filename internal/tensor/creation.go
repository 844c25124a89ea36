package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, oneValue[T](), b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{2, 2}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with values from a standard normal distribution.
// Only float32 and float64 are supported.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		for i := range data {
			data[i] = any(float32(rand.NormFloat64())).(T)
		}
	case float64:
		for i := range data {
			data[i] = any(rand.NormFloat64()).(T)
		}
	default:
		panic("Randn only supports float32 and float64")
	}

	return t
}

// Rand creates a tensor with values uniformly distributed in [0, 1).
// Only float32 and float64 are supported.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		for i := range data {
			data[i] = any(rand.Float32()).(T)
		}
	case float64:
		for i := range data {
			data[i] = any(rand.Float64()).(T)
		}
	default:
		panic("Rand only supports float32 and float64")
	}

	return t
}

// Arange creates a 1-D tensor with values in [start, end) with step 1.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := arangeLength(start, end)
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()

	value := start
	for i := 0; i < n; i++ {
		data[i] = value
		value = addOne(value)
	}
	return t
}

func arangeLength[T DType](start, end T) int {
	switch s := any(start).(type) {
	case float32:
		return int(math.Ceil(float64(any(end).(float32) - s)))
	case float64:
		return int(math.Ceil(any(end).(float64) - s))
	case int32:
		return int(any(end).(int32) - s)
	case int64:
		return int(any(end).(int64) - s)
	case uint8:
		return int(any(end).(uint8) - s)
	default:
		panic("Arange does not support bool tensors")
	}
}

func addOne[T DType](v T) T {
	switch x := any(v).(type) {
	case float32:
		return any(x + 1).(T)
	case float64:
		return any(x + 1).(T)
	case int32:
		return any(x + 1).(T)
	case int64:
		return any(x + 1).(T)
	case uint8:
		return any(x + 1).(T)
	default:
		panic("unsupported type")
	}
}

func oneValue[T DType]() T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(float32(1)).(T)
	case float64:
		return any(float64(1)).(T)
	case int32:
		return any(int32(1)).(T)
	case int64:
		return any(int64(1)).(T)
	case uint8:
		return any(uint8(1)).(T)
	case bool:
		return any(true).(T)
	default:
		panic("unsupported type")
	}
}
