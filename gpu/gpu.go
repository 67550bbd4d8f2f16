// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package gpu

import (
	"github.com/parlab-go/parlab/internal/gpu"
	"github.com/parlab-go/parlab/internal/gpu/cpu"
	"github.com/parlab-go/parlab/internal/gpu/webgpu"
)

type (
	// Device is a compute device with explicit memory management.
	Device = gpu.Device

	// Buffer is an opaque device allocation of float32 elements.
	Buffer = gpu.Buffer
)

// ErrNotAvailable reports that no usable WebGPU runtime is present.
var ErrNotAvailable = webgpu.ErrNotAvailable

// NewCPU returns the host reference device. Its kernels run through
// the vec dispatch table with row parallelism from the work package.
func NewCPU() Device {
	return cpu.New()
}

// NewWebGPU initializes the WebGPU device.
//
// Example:
//
//	dev, err := gpu.NewWebGPU()
//	if err != nil {
//	    dev = gpu.NewCPU()
//	}
//	defer dev.Release()
func NewWebGPU() (Device, error) {
	d, err := webgpu.New()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// WebGPUAvailable reports whether a WebGPU adapter can be acquired.
func WebGPUAvailable() bool {
	return webgpu.IsAvailable()
}
