// Package webgpu implements the gpu.Device interface on a WebGPU
// adapter, using go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO
// bindings.
//
// The native wgpu library only ships for windows, so the backend is
// compiled in there; elsewhere New returns ErrNotAvailable and
// IsAvailable reports false. Callers are expected to fall back to the
// cpu device when the backend is missing.
package webgpu

import (
	"errors"

	"github.com/parlab-go/parlab/internal/gpu"
)

// ErrNotAvailable reports that no usable WebGPU runtime is present.
var ErrNotAvailable = errors.New("webgpu: no usable WebGPU runtime on this platform")

// Compile-time check that Device implements gpu.Device on every
// platform, stub included.
var _ gpu.Device = (*Device)(nil)
