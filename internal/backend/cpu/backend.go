// Package cpu implements the reference CPU backend for the tensor capability
// interface. Kernels are straightforward Go loops; batched matrix products
// are parallelized across batch/head slices.
package cpu

import (
	"fmt"

	"github.com/FrancescoGentile/deepsight/internal/parallel"
	"github.com/FrancescoGentile/deepsight/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// ToDevice transfers a tensor to the given device. The CPU backend can only
// hold CPU tensors: the call is the identity for tensor.CPU and panics for
// any other target.
func (cpu *CPUBackend) ToDevice(x *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	if device == x.Device() {
		return x
	}
	panic(fmt.Sprintf("cpu: cannot transfer tensor from %s to %s", x.Device(), device))
}

// newRaw allocates a result tensor, panicking on allocation failure
// (shape validation happens before kernels run).
func (cpu *CPUBackend) newRaw(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to allocate result tensor: %v", err))
	}
	return result
}

// checkFloat32 panics unless the tensor holds float32 data.
func checkFloat32(op string, t *tensor.RawTensor) {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: %s requires float32 tensors, got %s", op, t.DType()))
	}
}
