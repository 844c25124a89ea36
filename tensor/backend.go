// Copyright 2025 The DeepSight Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// Backend defines the capability interface that all compute backends must
// implement. Backends handle the actual computation for tensor operations;
// the structure and attention layers above them only manage shapes, masks,
// and index spaces.
//
// Implementations:
//   - backend/cpu: Pure Go reference implementation
//   - accelerator backends plug in behind the same interface
//
// Backends are pure: every operation returns a fresh tensor (or a view for
// pure-reshape ops) and never mutates its inputs. Shape or dtype mismatches
// panic at the call site.
//
// Example:
//
//	import (
//	    "github.com/FrancescoGentile/deepsight/tensor"
//	    "github.com/FrancescoGentile/deepsight/backend/cpu"
//	)
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Uses backend.Add under the hood
type Backend = tensor.Backend
