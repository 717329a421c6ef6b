// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// renderer.go orchestrates the per-frame pipeline: frame upload, compute
// dispatch, render pass, submission. It owns every GPU resource except the
// device itself and serializes all access with a single mutex, so
// reconfiguration can never race an in-flight frame.

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// glyphFenceTimeout is the maximum time to wait for GPU work to complete.
const glyphFenceTimeout = 5 * time.Second

// ErrRendererClosed is returned when operating on a closed renderer.
var ErrRendererClosed = errors.New("wgpu: renderer closed")

// RendererConfig carries everything NewRenderer needs.
type RendererConfig struct {
	// TargetView is the presentation target supplied by the host. It must
	// be a BGRA8Unorm view, matching the render pipeline's color target.
	// When nil the renderer allocates an offscreen BGRA8 target of
	// TargetWidth x TargetHeight instead.
	TargetView hal.TextureView

	// TargetWidth and TargetHeight are the target dimensions in pixels.
	TargetWidth  uint32
	TargetHeight uint32

	// Params is the initial parameter block. Source dimensions are
	// overwritten on first frame upload.
	Params Params

	// Atlas is the initial glyph atlas.
	Atlas *AtlasData
}

// Renderer is the GPU core of the pipeline.
type Renderer struct {
	mu  sync.Mutex
	dev *DeviceContext

	compute *computeStage
	render  *renderStage

	params  *paramBuffer
	atlas   *atlasTexture
	frame   *frameTexture
	indices *indexBuffer

	frameSampler hal.Sampler
	atlasSampler hal.Sampler

	target    hal.TextureView
	ownTex    hal.Texture // offscreen target, nil when the host supplied the view
	ownView   hal.TextureView
	targetW,
	targetH uint32

	nextGen uint64
	closed  bool
}

// NewRenderer validates the shaders, builds both pipeline stages, and
// allocates every initial resource. Any failure tears down what was already
// built and returns the error; there is no partially usable renderer.
func NewRenderer(dev *DeviceContext, cfg RendererConfig) (*Renderer, error) {
	if cfg.TargetWidth == 0 || cfg.TargetHeight == 0 {
		return nil, fmt.Errorf("wgpu: degenerate target %dx%d", cfg.TargetWidth, cfg.TargetHeight)
	}
	if err := ValidateShaders(); err != nil {
		return nil, err
	}

	r := &Renderer{
		dev:     dev,
		target:  cfg.TargetView,
		targetW: cfg.TargetWidth,
		targetH: cfg.TargetHeight,
	}
	device := dev.Device()

	if err := r.init(device, cfg); err != nil {
		r.destroyLocked()
		return nil, err
	}

	slogger().Info("wgpu: renderer ready",
		"adapter", dev.AdapterName(),
		"grid_w", cfg.Params.GridWidth,
		"grid_h", cfg.Params.GridHeight,
		"target_w", cfg.TargetWidth,
		"target_h", cfg.TargetHeight,
		"offscreen", cfg.TargetView == nil)
	return r, nil
}

func (r *Renderer) init(device hal.Device, cfg RendererConfig) error {
	compute, err := newComputeStage(device)
	if err != nil {
		return err
	}
	r.compute = compute

	render, err := newRenderStage(device)
	if err != nil {
		return err
	}
	r.render = render

	r.frameSampler, err = newSampler(device, "glyph_frame_sampler")
	if err != nil {
		return err
	}
	r.atlasSampler, err = newSampler(device, "glyph_atlas_sampler")
	if err != nil {
		return err
	}

	r.params, err = newParamBuffer(device, r.dev.Queue(), cfg.Params)
	if err != nil {
		return err
	}

	r.atlas, err = newAtlasTexture(device, r.dev.Queue(), cfg.Atlas)
	if err != nil {
		return err
	}

	r.frame = newFrameTexture(device, r.dev.Queue())

	r.indices, err = r.allocIndexBuffer(cfg.Params.GridWidth, cfg.Params.GridHeight)
	if err != nil {
		return err
	}

	if cfg.TargetView == nil {
		if err := r.allocOffscreenTarget(device); err != nil {
			return err
		}
		r.target = r.ownView
	}

	// The render bind group can be built now; the compute bind group waits
	// for the first frame upload, which creates the frame texture.
	return r.render.rebind(r.params, r.atlas, r.atlasSampler, r.indices)
}

// allocIndexBuffer creates a zeroed index buffer stamped with the next
// generation.
func (r *Renderer) allocIndexBuffer(w, h uint32) (*indexBuffer, error) {
	r.nextGen++
	idx, err := newIndexBuffer(r.dev.Device(), w, h, r.nextGen)
	if err != nil {
		return nil, err
	}
	// Zero the buffer so a dump before the first frame reads index 0
	// everywhere rather than garbage.
	r.dev.Queue().WriteBuffer(idx.buf, 0, make([]byte, idx.size()))
	return idx, nil
}

func (r *Renderer) allocOffscreenTarget(device hal.Device) error {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyph_target",
		Size:          hal.Extent3D{Width: r.targetW, Height: r.targetH, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create offscreen target: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "glyph_target_view",
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create offscreen target view: %w", err)
	}
	r.ownTex = tex
	r.ownView = view
	return nil
}

func newSampler(device hal.Device, label string) (hal.Sampler, error) {
	s, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s: %w", label, err)
	}
	return s, nil
}

// FrameInput is one frame ready for upload.
type FrameInput struct {
	Data   []byte
	Width  uint32
	Height uint32
}

// RenderFrame uploads the frame, runs the compute and render stages in one
// submission, and blocks until the GPU finishes. Command ordering within
// the submission sequences compute writes before render reads.
func (r *Renderer) RenderFrame(f FrameInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}

	realloc, err := r.frame.upload(f.Data, f.Width, f.Height)
	if err != nil {
		return err
	}
	if realloc {
		p := r.params.current()
		p.SrcWidth = f.Width
		p.SrcHeight = f.Height
		r.params.update(p)
	}
	if realloc || r.compute.bindGroup == nil || r.compute.bindGen != r.indices.gen {
		if err := r.compute.rebind(r.params, r.frame, r.frameSampler, r.indices); err != nil {
			return err
		}
	}
	if r.render.bindGroup == nil || r.render.bindGen != r.indices.gen {
		if err := r.render.rebind(r.params, r.atlas, r.atlasSampler, r.indices); err != nil {
			return err
		}
	}

	encoder, err := r.dev.Device().CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "glyph_frame_encoder",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glyph_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	p := r.params.current()
	r.compute.encode(encoder, p.GridWidth, p.GridHeight)
	r.render.encode(encoder, r.target)

	return r.submitAndWait(encoder)
}

// submitAndWait finishes encoding, submits, and blocks on a fence. A fence
// timeout is treated as device loss and reported through the event sink.
func (r *Renderer) submitAndWait(encoder hal.CommandEncoder) error {
	device := r.dev.Device()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := r.dev.Queue().Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		r.dev.report(EventValidation, err)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := device.Wait(fence, 1, glyphFenceTimeout)
	if err != nil || !ok {
		lost := fmt.Errorf("%w: fence wait ok=%v err=%v", ErrDeviceLost, ok, err)
		r.dev.report(EventDeviceLost, lost)
		return lost
	}
	return nil
}

// ReadIndices copies the index buffer to a staging buffer, waits for the
// copy, and decodes the little-endian u32 grid. The returned slice is
// row-major, GridHeight rows of GridWidth cells.
func (r *Renderer) ReadIndices() (indices []uint32, w, h uint32, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, 0, 0, ErrRendererClosed
	}

	device := r.dev.Device()
	size := r.indices.size()

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "glyph_indices_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "glyph_dump_encoder",
	})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("glyph_dump"); err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(r.indices.buf, staging, []hal.BufferCopy{{
		SrcOffset: 0, DstOffset: 0, Size: size,
	}})
	if err := r.submitAndWait(encoder); err != nil {
		return nil, 0, 0, err
	}

	raw := make([]byte, size)
	if err := r.dev.Queue().ReadBuffer(staging, 0, raw); err != nil {
		return nil, 0, 0, fmt.Errorf("wgpu: read staging buffer: %w", err)
	}

	out := make([]uint32, r.indices.cells())
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return out, r.indices.width, r.indices.height, nil
}

// Close releases every GPU resource owned by the renderer. The device
// context itself stays open; the caller owns it.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.destroyLocked()
}

func (r *Renderer) destroyLocked() {
	device := r.dev.Device()
	if device == nil {
		return
	}
	if r.compute != nil {
		r.compute.destroy()
		r.compute = nil
	}
	if r.render != nil {
		r.render.destroy()
		r.render = nil
	}
	if r.indices != nil {
		r.indices.destroy()
		r.indices = nil
	}
	if r.frame != nil {
		r.frame.destroy()
		r.frame = nil
	}
	if r.atlas != nil {
		r.atlas.destroy()
		r.atlas = nil
	}
	if r.params != nil {
		r.params.destroy()
		r.params = nil
	}
	if r.frameSampler != nil {
		device.DestroySampler(r.frameSampler)
		r.frameSampler = nil
	}
	if r.atlasSampler != nil {
		device.DestroySampler(r.atlasSampler)
		r.atlasSampler = nil
	}
	if r.ownView != nil {
		device.DestroyTextureView(r.ownView)
		r.ownView = nil
	}
	if r.ownTex != nil {
		device.DestroyTexture(r.ownTex)
		r.ownTex = nil
	}
}
