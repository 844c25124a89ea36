// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the DeepSight toolkit.
//
// # Overview
//
// Tensors are the fundamental data structure in DeepSight. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy views where possible
//   - Device abstraction (CPU, CUDA, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/FrancescoGentile/deepsight/tensor"
//	    "github.com/FrancescoGentile/deepsight/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.T())
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (boolean masks, True marks padded or invalid entries throughout
//     the toolkit)
//
// Half-precision (Float16) payloads are reachable through Cast and the
// RawTensor accessors; there is no native float16 element type in Go, so
// typed tensors stay in the types above.
//
// # Error Handling
//
// Factory functions that validate user input (FromSlice, NewRaw) return
// errors. Operations on already-validated tensors panic on shape or dtype
// mismatches, mirroring how the rest of the toolkit treats programming
// errors versus data errors.
package tensor
