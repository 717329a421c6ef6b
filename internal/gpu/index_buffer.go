package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// indexBuffer is the storage buffer carrying one u32 glyph index per grid
// cell, row-major. The compute stage writes it, the render stage reads it,
// and DumpGlyphGrid copies it out through a staging buffer.
//
// Each allocation gets a generation number. Bind groups are tagged with the
// generation they were built against, so a stale binding after a grid resize
// is detectable instead of silently reading a retired buffer.
type indexBuffer struct {
	device hal.Device

	buf    hal.Buffer
	width  uint32
	height uint32
	gen    uint64
}

// indexBufferSize returns the byte size of the buffer for a grid:
// width*height cells, 4 bytes each.
func indexBufferSize(width, height uint32) uint64 {
	return uint64(width) * uint64(height) * 4
}

// newIndexBuffer allocates a zero-initialized index buffer for the given
// grid and stamps it with the next generation.
func newIndexBuffer(device hal.Device, width, height uint32, gen uint64) (*indexBuffer, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("wgpu: index buffer for degenerate grid %dx%d", width, height)
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("glyph_indices_gen%d", gen),
		Size:  indexBufferSize(width, height),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create index buffer %dx%d: %w", width, height, err)
	}
	return &indexBuffer{
		device: device,
		buf:    buf,
		width:  width,
		height: height,
		gen:    gen,
	}, nil
}

// size returns the buffer's byte size.
func (b *indexBuffer) size() uint64 {
	return indexBufferSize(b.width, b.height)
}

// cells returns the number of grid cells the buffer covers.
func (b *indexBuffer) cells() uint32 {
	return b.width * b.height
}

// destroy releases the buffer.
func (b *indexBuffer) destroy() {
	if b.buf != nil {
		b.device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}
