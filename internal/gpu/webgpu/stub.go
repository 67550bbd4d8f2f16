//go:build !windows

package webgpu

import "github.com/parlab-go/parlab/internal/gpu"

// Device is a placeholder on platforms without the native wgpu
// library. New always fails here; the method set exists so the type
// satisfies gpu.Device on every platform.
type Device struct{}

// New reports that the backend is unavailable.
func New() (*Device, error) { return nil, ErrNotAvailable }

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool { return false }

func (d *Device) Name() string { return "webgpu" }

func (d *Device) Alloc(n int) (gpu.Buffer, error) { return nil, ErrNotAvailable }

func (d *Device) Upload(dst gpu.Buffer, src []float32) error { return ErrNotAvailable }

func (d *Device) Download(dst []float32, src gpu.Buffer) error { return ErrNotAvailable }

func (d *Device) Free(b gpu.Buffer) {}

func (d *Device) Saxpy(alpha float32, x, y gpu.Buffer, n int) error { return ErrNotAvailable }

func (d *Device) MatMul(a, b, c gpu.Buffer, m, k, n int) error { return ErrNotAvailable }

func (d *Device) Reduce(x gpu.Buffer, n int) (float32, error) { return 0, ErrNotAvailable }

func (d *Device) Release() {}
