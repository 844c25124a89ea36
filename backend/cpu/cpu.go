// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
package cpu

import (
	internalcpu "github.com/FrancescoGentile/deepsight/internal/backend/cpu"
	"github.com/FrancescoGentile/deepsight/tensor"
)

// Backend is the CPU backend implementation.
//
// It provides pure Go implementations of all tensor operations, with large
// element-wise and matrix kernels parallelized across cores.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/FrancescoGentile/deepsight/backend/cpu"
//	    "github.com/FrancescoGentile/deepsight/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}
