package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrFrameSize is returned when uploaded frame data does not match the
// declared dimensions. Mismatches are never silently ignored.
var ErrFrameSize = errors.New("wgpu: frame data does not match dimensions")

// frameTexture owns the GPU copy of the current video frame. It is
// allocated at the source's native size and reallocated whenever the source
// size changes; a reallocation invalidates the compute bind group, which the
// caller must rebuild.
type frameTexture struct {
	device hal.Device
	queue  hal.Queue

	tex  hal.Texture
	view hal.TextureView

	width, height uint32
}

func newFrameTexture(device hal.Device, queue hal.Queue) *frameTexture {
	return &frameTexture{device: device, queue: queue}
}

// upload refreshes the frame texture with new RGBA pixels. The returned
// realloc flag is true when the texture object was replaced because the
// source dimensions changed (including the very first upload).
func (f *frameTexture) upload(data []byte, width, height uint32) (realloc bool, err error) {
	if width == 0 || height == 0 {
		return false, fmt.Errorf("%w: %dx%d", ErrFrameSize, width, height)
	}
	if want := uint64(width) * uint64(height) * 4; uint64(len(data)) != want {
		return false, fmt.Errorf("%w: %d bytes for %dx%d (want %d)", ErrFrameSize, len(data), width, height, want)
	}

	if f.tex == nil || f.width != width || f.height != height {
		if err := f.realloc(width, height); err != nil {
			return false, err
		}
		realloc = true
	}

	f.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: f.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	return realloc, nil
}

// realloc replaces the texture with one of the new size. The old texture is
// destroyed immediately: upload is only called between submissions, so no
// in-flight work references it.
func (f *frameTexture) realloc(width, height uint32) error {
	old := f.tex
	oldView := f.view

	tex, err := f.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyph_frame",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create frame texture %dx%d: %w", width, height, err)
	}
	view, err := f.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "glyph_frame_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		f.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create frame texture view: %w", err)
	}

	f.tex = tex
	f.view = view
	f.width = width
	f.height = height

	if oldView != nil {
		f.device.DestroyTextureView(oldView)
	}
	if old != nil {
		f.device.DestroyTexture(old)
	}
	slogger().Debug("wgpu: frame texture reallocated", "width", width, "height", height)
	return nil
}

// destroy releases the texture and its view.
func (f *frameTexture) destroy() {
	if f.view != nil {
		f.device.DestroyTextureView(f.view)
		f.view = nil
	}
	if f.tex != nil {
		f.device.DestroyTexture(f.tex)
		f.tex = nil
	}
}
