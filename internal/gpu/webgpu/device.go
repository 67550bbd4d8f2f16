//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/parlab-go/parlab/internal/gpu"
)

const elemSize = 4 // bytes per float32

// storageUsage is the usage set for kernel buffers: readable and
// writable by shaders, copyable in both directions for transfers.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// deviceBuffer is a GPU storage allocation tracked by element count.
// size is the true byte allocation, which can exceed n*elemSize when
// the buffer came out of the pool.
type deviceBuffer struct {
	buf  *wgpu.Buffer
	n    int
	size uint64
}

// Len returns the element capacity of the buffer.
func (b *deviceBuffer) Len() int { return b.n }

// Device executes kernels on a WebGPU adapter.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline

	pool *bufferPool
}

// New initializes the WebGPU backend. Returns an error when no adapter
// is available or the native wgpu library cannot be loaded.
func New() (d *Device, err error) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Device{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		pool:      newBufferPool(device),
	}, nil
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() (available bool) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name identifies the device in transcripts.
func (d *Device) Name() string { return "webgpu" }

// Alloc creates a device buffer holding n float32 elements. WebGPU
// rejects zero-sized buffers, so an empty allocation still reserves
// one element.
func (d *Device) Alloc(n int) (gpu.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("webgpu: invalid buffer size %d", n)
	}
	size := uint64(n) * elemSize
	if size == 0 {
		size = elemSize
	}
	buf, actual := d.pool.acquire(size, storageUsage)
	return &deviceBuffer{buf: buf, n: n, size: actual}, nil
}

// deviceBuf checks that a buffer was allocated by this backend.
func (d *Device) deviceBuf(b gpu.Buffer) (*deviceBuffer, error) {
	db, ok := b.(*deviceBuffer)
	if !ok {
		return nil, fmt.Errorf("webgpu: buffer of type %T does not belong to this device", b)
	}
	if db.buf == nil {
		return nil, fmt.Errorf("webgpu: use of freed buffer")
	}
	return db, nil
}

// Upload copies src into the front of dst through a mapped staging
// buffer. Storage buffers cannot be mapped directly.
func (d *Device) Upload(dst gpu.Buffer, src []float32) error {
	db, err := d.deviceBuf(dst)
	if err != nil {
		return err
	}
	if len(src) > db.n {
		return fmt.Errorf("webgpu: upload of %d elements into buffer of %d", len(src), db.n)
	}
	if len(src) == 0 {
		return nil
	}

	size := uint64(len(src)) * elemSize
	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	defer staging.Release()

	mappedPtr := staging.GetMappedRange(0, size)
	copy(unsafe.Slice((*float32)(mappedPtr), len(src)), src)
	staging.Unmap()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, db.buf, 0, size)
	cmd := encoder.Finish(nil)
	d.queue.Submit(cmd)
	return nil
}

// Download copies the front of src into dst.
func (d *Device) Download(dst []float32, src gpu.Buffer) error {
	db, err := d.deviceBuf(src)
	if err != nil {
		return err
	}
	if len(dst) > db.n {
		return fmt.Errorf("webgpu: download of %d elements from buffer of %d", len(dst), db.n)
	}
	if len(dst) == 0 {
		return nil
	}
	return d.readBack(db.buf, dst)
}

// readBack copies float32 values out of a GPU buffer through a staging
// buffer mapped for reading.
func (d *Device) readBack(src *wgpu.Buffer, dst []float32) error {
	size := uint64(len(dst)) * elemSize
	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmd := encoder.Finish(nil)
	d.queue.Submit(cmd)

	if err := staging.MapAsync(d.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	copy(dst, unsafe.Slice((*float32)(mappedPtr), len(dst)))
	staging.Unmap()
	return nil
}

// Free returns the buffer's storage to the pool.
func (d *Device) Free(b gpu.Buffer) {
	db, ok := b.(*deviceBuffer)
	if !ok || db.buf == nil {
		return
	}
	d.pool.release(db.buf, db.size, storageUsage)
	db.buf = nil
}

// Saxpy computes y[i] = alpha*x[i] + y[i] for i in [0, n).
func (d *Device) Saxpy(alpha float32, x, y gpu.Buffer, n int) error {
	xb, err := d.deviceBuf(x)
	if err != nil {
		return err
	}
	yb, err := d.deviceBuf(y)
	if err != nil {
		return err
	}
	if n < 0 || n > xb.n || n > yb.n {
		return fmt.Errorf("webgpu: saxpy over %d elements with buffers of %d and %d", n, xb.n, yb.n)
	}
	if n == 0 {
		return nil
	}

	shader := d.compileShader("saxpy", saxpyShader)
	pipeline := d.getOrCreatePipeline("saxpy", shader)

	// Params struct: size u32, alpha f32, padded to 16 bytes.
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(alpha))
	bufferParams := d.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := d.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, xb.buf, 0, xb.size),
		wgpu.BufferBindingEntry(1, yb.buf, 0, yb.size),
		wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	workgroups := uint32((n + workgroupSize - 1) / workgroupSize)
	pass.DispatchWorkgroups(workgroups, 1, 1)
	pass.End()

	cmd := encoder.Finish(nil)
	d.queue.Submit(cmd)
	return nil
}

// MatMul computes C = A @ B for row-major A [m,k], B [k,n], C [m,n].
// One thread per output element, dispatched in 16x16 workgroups.
func (d *Device) MatMul(a, b, c gpu.Buffer, m, k, n int) error {
	ab, err := d.deviceBuf(a)
	if err != nil {
		return err
	}
	bb, err := d.deviceBuf(b)
	if err != nil {
		return err
	}
	cb, err := d.deviceBuf(c)
	if err != nil {
		return err
	}
	if m < 0 || k < 0 || n < 0 {
		return fmt.Errorf("webgpu: matmul with negative dimensions [%d,%d] @ [%d,%d]", m, k, k, n)
	}
	if ab.n < m*k || bb.n < k*n || cb.n < m*n {
		return fmt.Errorf("webgpu: matmul [%d,%d] @ [%d,%d] exceeds buffer capacities %d, %d, %d",
			m, k, k, n, ab.n, bb.n, cb.n)
	}
	if m == 0 || n == 0 {
		return nil
	}

	shader := d.compileShader("matmul", matmulShader)
	pipeline := d.getOrCreatePipeline("matmul", shader)

	// Params struct: M, K, N as u32, padded to 16 bytes.
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m))
	binary.LittleEndian.PutUint32(params[4:8], uint32(k))
	binary.LittleEndian.PutUint32(params[8:12], uint32(n))
	bufferParams := d.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := d.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, ab.buf, 0, ab.size),
		wgpu.BufferBindingEntry(1, bb.buf, 0, bb.size),
		wgpu.BufferBindingEntry(2, cb.buf, 0, cb.size),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	workgroupsX := uint32(math.Ceil(float64(n) / 16.0))
	workgroupsY := uint32(math.Ceil(float64(m) / 16.0))
	pass.DispatchWorkgroups(workgroupsX, workgroupsY, 1)
	pass.End()

	cmd := encoder.Finish(nil)
	d.queue.Submit(cmd)
	return nil
}

// Reduce returns the sum of the first n elements of x. Each pass folds
// workgroupSize elements into one partial per workgroup; passes repeat
// until a single value remains.
func (d *Device) Reduce(x gpu.Buffer, n int) (float32, error) {
	xb, err := d.deviceBuf(x)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > xb.n {
		return 0, fmt.Errorf("webgpu: reduce over %d elements with buffer of %d", n, xb.n)
	}
	if n == 0 {
		return 0, nil
	}

	shader := d.compileShader("reduce_sum", reduceSumShader)
	pipeline := d.getOrCreatePipeline("reduce_sum", shader)

	src, srcSize := xb.buf, xb.size
	size := n

	// Scratch buffers acquired for the partials; returned to the pool
	// once the final value is read back.
	var scratch []*deviceBuffer
	defer func() {
		for _, sb := range scratch {
			d.pool.release(sb.buf, sb.size, storageUsage)
		}
	}()

	for size > 1 {
		groups := (size + workgroupSize - 1) / workgroupSize
		dst, dstSize := d.pool.acquire(uint64(groups)*elemSize, storageUsage)
		scratch = append(scratch, &deviceBuffer{buf: dst, n: groups, size: dstSize})

		params := make([]byte, 16)
		binary.LittleEndian.PutUint32(params[0:4], uint32(size))
		bufferParams := d.createUniformBuffer(params)

		bindGroupLayout := pipeline.GetBindGroupLayout(0)
		bindGroup := d.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
			wgpu.BufferBindingEntry(0, src, 0, srcSize),
			wgpu.BufferBindingEntry(1, dst, 0, dstSize),
			wgpu.BufferBindingEntry(2, bufferParams, 0, 16),
		})

		encoder := d.device.CreateCommandEncoder(nil)
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.DispatchWorkgroups(uint32(groups), 1, 1)
		pass.End()

		cmd := encoder.Finish(nil)
		d.queue.Submit(cmd)

		bindGroup.Release()
		bufferParams.Release()

		src, srcSize = dst, dstSize
		size = groups
	}

	out := make([]float32, 1)
	if err := d.readBack(src, out); err != nil {
		return 0, err
	}
	return out[0], nil
}

// Release frees all device resources.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		d.pool.clear()
		d.pool = nil
	}

	for _, p := range d.pipelines {
		p.Release()
	}
	d.pipelines = nil

	for _, s := range d.shaders {
		s.Release()
	}
	d.shaders = nil

	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// compileShader compiles WGSL source into a ShaderModule, caching the
// result by name.
func (d *Device) compileShader(name, code string) *wgpu.ShaderModule {
	d.mu.RLock()
	if shader, exists := d.shaders[name]; exists {
		d.mu.RUnlock()
		return shader
	}
	d.mu.RUnlock()

	shader := d.device.CreateShaderModuleWGSL(code)

	d.mu.Lock()
	d.shaders[name] = shader
	d.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates one
// with an auto layout.
func (d *Device) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	d.mu.RLock()
	if pipeline, exists := d.pipelines[name]; exists {
		d.mu.RUnlock()
		return pipeline
	}
	d.mu.RUnlock()

	pipeline := d.device.CreateComputePipelineSimple(nil, shader, "main")

	d.mu.Lock()
	d.pipelines[name] = pipeline
	d.mu.Unlock()

	return pipeline
}

// createUniformBuffer creates a uniform buffer with the 16-byte
// alignment uniform structs require.
func (d *Device) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15 // Round up to 16-byte boundary

	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	copy(unsafe.Slice((*byte)(mappedPtr), alignedSize), data)
	buffer.Unmap()

	return buffer
}
