// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package glyphcam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glyphcam/internal/gpu"
)

// Re-exported device errors so callers can test with errors.Is without
// importing internal packages.
var (
	// ErrNoAdapter means no compatible GPU adapter was found.
	ErrNoAdapter = gpu.ErrNoAdapter

	// ErrDeviceLost means the device stopped responding. The pipeline must
	// be closed and recreated; there is no partial recovery.
	ErrDeviceLost = gpu.ErrDeviceLost

	// ErrClosed is returned when operating on a closed pipeline.
	ErrClosed = errors.New("glyphcam: pipeline closed")
)

// DeviceEvent re-exports the asynchronous device fault record.
type DeviceEvent = gpu.DeviceEvent

// RenderTarget names where rendered frames go. A host application that owns
// a window passes its swapchain texture view in View (a hal.TextureView);
// with a nil View the pipeline renders to an internal offscreen target of
// the given size.
type RenderTarget struct {
	// View is the hal.TextureView to render into, or nil for offscreen.
	// Declared any so hosts without a GPU dependency can still name the
	// type; it is asserted at New. The view must be BGRA8Unorm, the
	// format the render pipeline is built against.
	View any

	// Width and Height are the target dimensions in pixels.
	Width  int
	Height int
}

// Pipeline is the public handle to one running glyph renderer. All methods
// are safe for concurrent use; reconfiguration and rendering are serialized
// internally so a settings change never races an in-flight frame.
type Pipeline struct {
	mu sync.Mutex

	dev      *gpu.DeviceContext
	renderer *gpu.Renderer
	source   FrameSource

	settings Settings
	atlas    *Atlas
	interval time.Duration

	events chan gpu.DeviceEvent
	frames atomic.Uint64
	closed bool
}

// New builds a pipeline: device, shaders, both stages, and all initial
// resources. The settings are validated and the atlas resolved before any
// GPU work happens, so configuration errors never leak resources.
func New(target RenderTarget, source FrameSource, settings Settings, opts ...Option) (*Pipeline, error) {
	if source == nil {
		return nil, errors.New("glyphcam: nil frame source")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if target.Width <= 0 || target.Height <= 0 {
		return nil, fmt.Errorf("glyphcam: degenerate render target %dx%d", target.Width, target.Height)
	}

	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	atlas := o.atlas
	if atlas == nil {
		var err error
		atlas, err = ResolveAtlas(settings.AtlasID)
		if err != nil {
			return nil, err
		}
	} else if err := atlas.validate(); err != nil {
		return nil, err
	}

	var view hal.TextureView
	if target.View != nil {
		v, ok := target.View.(hal.TextureView)
		if !ok {
			return nil, fmt.Errorf("glyphcam: target view is %T, not hal.TextureView", target.View)
		}
		view = v
	}

	var dev *gpu.DeviceContext
	var err error
	if o.deviceProvider != nil {
		dev, err = gpu.Attach(o.deviceProvider)
	} else {
		dev, err = gpu.Open()
	}
	if err != nil {
		return nil, err
	}

	events := make(chan gpu.DeviceEvent, 16)
	dev.SetEventSink(events)

	renderer, err := gpu.NewRenderer(dev, gpu.RendererConfig{
		TargetView:   view,
		TargetWidth:  uint32(target.Width),
		TargetHeight: uint32(target.Height),
		Params:       paramsFor(settings, atlas),
		Atlas:        atlasData(atlas),
	})
	if err != nil {
		dev.Close()
		return nil, err
	}

	return &Pipeline{
		dev:      dev,
		renderer: renderer,
		source:   source,
		settings: settings,
		atlas:    atlas,
		interval: o.frameInterval(),
		events:   events,
	}, nil
}

// paramsFor builds the initial parameter block. Source dimensions start at
// 1x1 and are overwritten on first frame upload.
func paramsFor(s Settings, a *Atlas) gpu.Params {
	var flags uint32
	if s.Invert {
		flags |= gpu.FlagInvert
	}
	if s.Mirror {
		flags |= gpu.FlagMirror
	}
	return gpu.Params{
		GridWidth:  uint32(s.GridWidth),
		GridHeight: uint32(s.GridHeight),
		SrcWidth:   1,
		SrcHeight:  1,
		AtlasCols:  uint32(a.Columns),
		AtlasRows:  uint32(a.Rows),
		RampLen:    uint32(len(a.Ramp)),
		Flags:      flags,
		Contrast:   float32(s.Contrast),
		EdgeBias:   float32(s.EdgeBias),
	}
}

// atlasData converts the CPU atlas model into the renderer's upload record.
func atlasData(a *Atlas) *gpu.AtlasData {
	return &gpu.AtlasData{
		Pix:     a.Pix,
		Width:   uint32(a.PixWidth()),
		Height:  uint32(a.PixHeight()),
		Cols:    uint32(a.Columns),
		Rows:    uint32(a.Rows),
		RampLen: uint32(len(a.Ramp)),
	}
}

// Run drives the frame scheduler until the context is canceled. Each tick
// pulls the newest frame from the source and renders it; a frame that fails
// is logged and skipped, never fatal. Run returns the context's error on
// cancellation, or ErrClosed if the pipeline is closed underneath it.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame, err := p.source.Latest()
			if err != nil {
				Logger().Warn("glyphcam: frame source error", "err", err)
				continue
			}
			if frame == nil {
				continue
			}
			if frame.Seq != 0 && frame.Seq == lastSeq {
				continue
			}
			lastSeq = frame.Seq

			switch err := p.RenderFrame(frame); {
			case err == nil:
			case errors.Is(err, ErrClosed):
				return ErrClosed
			default:
				// Per-frame isolation: one bad frame must not stop the feed.
				Logger().Warn("glyphcam: frame render failed", "seq", frame.Seq, "err", err)
			}
		}
	}
}

// RenderFrame uploads one frame and runs the compute and render stages.
// Most callers use Run; RenderFrame is for hosts that drive the pipeline
// from their own frame loop.
func (p *Pipeline) RenderFrame(f *Frame) error {
	if f == nil {
		return errors.New("glyphcam: nil frame")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	r := p.renderer
	p.mu.Unlock()

	if err := r.RenderFrame(gpu.FrameInput{
		Data:   f.Data,
		Width:  uint32(f.Width),
		Height: uint32(f.Height),
	}); err != nil {
		return err
	}
	p.frames.Add(1)
	return nil
}

// ApplySettings validates and applies a new settings record. Parameter-only
// changes are cheap; a grid resize swaps the index buffer; an atlas change
// behaves like SwitchAtlas. Each stage commits as it succeeds, so the
// settings record always names the configuration the renderer is actually
// running; a rejected record changes nothing.
func (p *Pipeline) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	if s.AtlasID != p.settings.AtlasID {
		atlas, err := ResolveAtlas(s.AtlasID)
		if err != nil {
			return err
		}
		if err := p.renderer.SwitchAtlas(atlasData(atlas)); err != nil {
			return err
		}
		p.atlas = atlas
		p.settings.AtlasID = s.AtlasID
	}

	if err := p.renderer.ApplySettings(gpu.SettingsUpdate{
		GridWidth:  uint32(s.GridWidth),
		GridHeight: uint32(s.GridHeight),
		Contrast:   float32(s.Contrast),
		EdgeBias:   float32(s.EdgeBias),
		Invert:     s.Invert,
		Mirror:     s.Mirror,
	}); err != nil {
		return err
	}

	p.settings = s
	return nil
}

// SwitchAtlas swaps the glyph atlas without touching other settings.
func (p *Pipeline) SwitchAtlas(id string) error {
	atlas, err := ResolveAtlas(id)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.renderer.SwitchAtlas(atlasData(atlas)); err != nil {
		return err
	}
	p.atlas = atlas
	p.settings.AtlasID = id
	return nil
}

// Settings returns the active settings record.
func (p *Pipeline) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// DumpGlyphGrid reads the index buffer back through a staging copy and
// renders it as text: GridHeight lines of GridWidth characters, mapped
// through the active ramp. The mutex is held across the readback so the
// indices and the ramp always come from the same configuration. Indices
// left over from a longer ramp (an atlas switch with no frame rendered
// since) clamp to the brightest glyph rather than failing the dump.
func (p *Pipeline) DumpGlyphGrid() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrClosed
	}
	ramp := p.atlas.Ramp

	indices, w, h, err := p.renderer.ReadIndices()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(int(h) * (int(w) + 1))
	for y := uint32(0); y < h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := uint32(0); x < w; x++ {
			idx := indices[y*w+x]
			if idx >= uint32(len(ramp)) {
				idx = uint32(len(ramp)) - 1
			}
			b.WriteRune(ramp[idx])
		}
	}
	return b.String(), nil
}

// Events returns the channel carrying asynchronous device faults (device
// loss, late validation errors). The channel is buffered; events overflow
// to the log when nobody drains it.
func (p *Pipeline) Events() <-chan DeviceEvent {
	return p.events
}

// FramesRendered returns the number of successfully rendered frames.
func (p *Pipeline) FramesRendered() uint64 {
	return p.frames.Load()
}

// Close releases all GPU resources. A pipeline sharing a host device
// releases but does not destroy it. Close is idempotent.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.renderer.Close()
	p.dev.Close()
}
