package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// AtlasData is the CPU-side description of a glyph atlas handed to the
// renderer: RGBA pixels plus the tile geometry the shaders need.
type AtlasData struct {
	// Pix holds Width*Height*4 bytes of RGBA pixels.
	Pix []byte

	// Width and Height are the atlas image dimensions in pixels.
	Width  uint32
	Height uint32

	// Cols and Rows describe the tile grid.
	Cols uint32
	Rows uint32

	// RampLen is the number of glyph tiles actually populated.
	RampLen uint32
}

func (d *AtlasData) validate() error {
	if d.Width == 0 || d.Height == 0 || d.Cols == 0 || d.Rows == 0 || d.RampLen == 0 {
		return fmt.Errorf("wgpu: degenerate atlas %dx%d (%dx%d tiles, %d glyphs)",
			d.Width, d.Height, d.Cols, d.Rows, d.RampLen)
	}
	if want := uint64(d.Width) * uint64(d.Height) * 4; uint64(len(d.Pix)) != want {
		return fmt.Errorf("wgpu: atlas pixel data is %d bytes, want %d", len(d.Pix), want)
	}
	return nil
}

// atlasTexture owns the GPU copy of the glyph atlas.
type atlasTexture struct {
	device hal.Device
	queue  hal.Queue

	tex  hal.Texture
	view hal.TextureView

	width, height uint32
	cols, rows    uint32
	rampLen       uint32
}

// newAtlasTexture allocates the texture and uploads the atlas pixels.
func newAtlasTexture(device hal.Device, queue hal.Queue, data *AtlasData) (*atlasTexture, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "glyph_atlas",
		Size:          hal.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create atlas texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "glyph_atlas_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: create atlas texture view: %w", err)
	}

	a := &atlasTexture{
		device: device,
		queue:  queue,
		tex:    tex,
		view:   view,
		width:  data.Width,
		height: data.Height,
	}
	a.upload(data)
	return a, nil
}

// sameDims reports whether the texture can hold the atlas without
// reallocation.
func (a *atlasTexture) sameDims(data *AtlasData) bool {
	return a.width == data.Width && a.height == data.Height
}

// upload rewrites the texture contents in place and adopts the atlas tile
// geometry. The caller must have checked sameDims first when reusing.
func (a *atlasTexture) upload(data *AtlasData) {
	a.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: a.tex, MipLevel: 0},
		data.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&hal.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1},
	)
	a.cols = data.Cols
	a.rows = data.Rows
	a.rampLen = data.RampLen
}

// destroy releases the texture and its view.
func (a *atlasTexture) destroy() {
	if a.view != nil {
		a.device.DestroyTextureView(a.view)
		a.view = nil
	}
	if a.tex != nil {
		a.device.DestroyTexture(a.tex)
		a.tex = nil
	}
}
