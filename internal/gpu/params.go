// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Flag bits in Params.Flags. They must match the FLAG_* constants in both
// WGSL shaders.
const (
	// FlagInvert flips the luminance mapping.
	FlagInvert uint32 = 1 << 0

	// FlagMirror flips the source horizontally.
	FlagMirror uint32 = 1 << 1
)

// Params is the parameter block shared by the compute and render stages.
// It must match the Params struct in both WGSL shaders: eight consecutive
// u32 fields followed by four f32 fields, uploaded as a uniform buffer at
// binding(0) of group(0).
type Params struct {
	// GridWidth and GridHeight are the cell grid dimensions.
	GridWidth  uint32
	GridHeight uint32

	// SrcWidth and SrcHeight are the current frame texture dimensions.
	SrcWidth  uint32
	SrcHeight uint32

	// AtlasCols and AtlasRows describe the active atlas tile grid.
	AtlasCols uint32
	AtlasRows uint32

	// RampLen is the active ramp length. Glyph indices stay in [0, RampLen).
	RampLen uint32

	// Flags packs FlagInvert and FlagMirror.
	Flags uint32

	// Contrast scales luminance around mid-gray.
	Contrast float32

	// EdgeBias scales the Sobel contribution.
	EdgeBias float32
}

// sizeInBytes returns the byte size of the uniform block.
// 8 u32 + 2 f32 + 2 f32 padding = 48 bytes, a multiple of 16 as uniform
// layout requires.
func (p Params) sizeInBytes() uint64 {
	return 12 * 4
}

// toBytes serializes Params little-endian in WGSL field order, including
// the trailing padding floats.
func (p Params) toBytes() []byte {
	buf := make([]byte, p.sizeInBytes())
	le := binary.LittleEndian
	le.PutUint32(buf[0:4], p.GridWidth)
	le.PutUint32(buf[4:8], p.GridHeight)
	le.PutUint32(buf[8:12], p.SrcWidth)
	le.PutUint32(buf[12:16], p.SrcHeight)
	le.PutUint32(buf[16:20], p.AtlasCols)
	le.PutUint32(buf[20:24], p.AtlasRows)
	le.PutUint32(buf[24:28], p.RampLen)
	le.PutUint32(buf[28:32], p.Flags)
	le.PutUint32(buf[32:36], math.Float32bits(p.Contrast))
	le.PutUint32(buf[36:40], math.Float32bits(p.EdgeBias))
	// buf[40:48] stays zero (pad0, pad1).
	return buf
}

// paramBuffer owns the uniform buffer holding Params and rewrites it on
// every settings or atlas change.
type paramBuffer struct {
	device hal.Device
	queue  hal.Queue
	buf    hal.Buffer
	cur    Params
}

// newParamBuffer allocates the uniform buffer and uploads the initial block.
func newParamBuffer(device hal.Device, queue hal.Queue, initial Params) (*paramBuffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyph_params",
		Size:  initial.sizeInBytes(),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create params buffer: %w", err)
	}
	p := &paramBuffer{device: device, queue: queue, buf: buf}
	p.update(initial)
	return p, nil
}

// update rewrites the uniform contents. The buffer object is stable, so
// bind groups referencing it survive parameter-only changes.
func (p *paramBuffer) update(params Params) {
	p.cur = params
	p.queue.WriteBuffer(p.buf, 0, params.toBytes())
}

// current returns the last uploaded block.
func (p *paramBuffer) current() Params { return p.cur }

// destroy releases the uniform buffer.
func (p *paramBuffer) destroy() {
	if p.buf != nil {
		p.device.DestroyBuffer(p.buf)
		p.buf = nil
	}
}
