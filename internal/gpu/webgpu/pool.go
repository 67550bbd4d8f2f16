//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

const (
	// Size thresholds for the pool categories.
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 100         // Max buffers per category
)

// pooledBuffer wraps a GPU buffer with its true allocation size.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// bufferPool recycles GPU buffers to reduce allocation overhead.
// Buffers are categorized by size so a huge allocation is never handed
// out for a tiny request's category.
type bufferPool struct {
	device *wgpu.Device

	mu     sync.Mutex
	small  []*pooledBuffer
	medium []*pooledBuffer
	large  []*pooledBuffer
}

func newBufferPool(device *wgpu.Device) *bufferPool {
	return &bufferPool{device: device}
}

// acquire returns a buffer of at least size bytes with the requested
// usage, reusing a pooled buffer when one fits. The returned size is
// the buffer's true allocation, which release must be called with.
func (p *bufferPool) acquire(size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.poolFor(size)
	for i, pb := range *pool {
		if pb.size >= size && pb.usage&usage == usage {
			buffer, actual := pb.buffer, pb.size
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			return buffer, actual
		}
	}

	buffer := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
	return buffer, size
}

// release returns a buffer to the pool, or frees it when the pool for
// its size category is full.
func (p *bufferPool) release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool := p.poolFor(size)
	if len(*pool) >= maxPoolSize {
		buffer.Release()
		return
	}
	*pool = append(*pool, &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// clear frees every pooled buffer.
func (p *bufferPool) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pool := range []*[]*pooledBuffer{&p.small, &p.medium, &p.large} {
		for _, pb := range *pool {
			pb.buffer.Release()
		}
		*pool = (*pool)[:0]
	}
}

// poolFor picks the category pool for a buffer size. Must hold mu.
func (p *bufferPool) poolFor(size uint64) *[]*pooledBuffer {
	switch {
	case size < smallThreshold:
		return &p.small
	case size < mediumThreshold:
		return &p.medium
	default:
		return &p.large
	}
}
