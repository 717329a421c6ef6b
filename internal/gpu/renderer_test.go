// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"testing"
)

// testAtlasData builds a minimal two-tile atlas: tile 0 black, tile 1 white.
func testAtlasData() *AtlasData {
	const cols, rows, tile = 2, 1, 8
	w, h := cols*tile, rows*tile
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			if x >= tile {
				pix[off], pix[off+1], pix[off+2] = 255, 255, 255
			}
			pix[off+3] = 255
		}
	}
	return &AtlasData{
		Pix:     pix,
		Width:   uint32(w),
		Height:  uint32(h),
		Cols:    cols,
		Rows:    rows,
		RampLen: 2,
	}
}

// solidRGBA builds a w*h frame filled with one gray level.
func solidRGBA(w, h int, v byte) []byte {
	data := make([]byte, w*h*4)
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = v, v, v, 255
	}
	return data
}

func testRendererConfig(gridW, gridH uint32) RendererConfig {
	return RendererConfig{
		TargetWidth:  256,
		TargetHeight: 256,
		Params: Params{
			GridWidth:  gridW,
			GridHeight: gridH,
			SrcWidth:   1,
			SrcHeight:  1,
			AtlasCols:  2,
			AtlasRows:  1,
			RampLen:    2,
			Contrast:   1.0,
		},
		Atlas: testAtlasData(),
	}
}

func openTestRenderer(t *testing.T, gridW, gridH uint32) *Renderer {
	t.Helper()
	dev, err := Open()
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	r, err := NewRenderer(dev, testRendererConfig(gridW, gridH))
	if err != nil {
		dev.Close()
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(func() {
		r.Close()
		dev.Close()
	})
	return r
}

func TestRendererIndicesBeforeFirstFrame(t *testing.T) {
	r := openTestRenderer(t, 8, 6)

	indices, w, h, err := r.ReadIndices()
	if err != nil {
		t.Fatalf("ReadIndices: %v", err)
	}
	if w != 8 || h != 6 {
		t.Fatalf("grid = %dx%d, want 8x6", w, h)
	}
	if len(indices) != 48 {
		t.Fatalf("got %d indices, want 48", len(indices))
	}
	// The buffer is zero-filled at allocation, so dumping before the
	// first frame yields the dark end of the ramp everywhere.
	for i, idx := range indices {
		if idx != 0 {
			t.Errorf("cell %d = %d before first frame, want 0", i, idx)
		}
	}
}

func TestRendererUniformFrames(t *testing.T) {
	tests := []struct {
		name string
		gray byte
		want uint32
	}{
		{name: "black frame", gray: 0, want: 0},
		{name: "white frame", gray: 255, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := openTestRenderer(t, 8, 6)

			f := FrameInput{Data: solidRGBA(32, 32, tt.gray), Width: 32, Height: 32}
			if err := r.RenderFrame(f); err != nil {
				t.Fatalf("RenderFrame: %v", err)
			}
			indices, _, _, err := r.ReadIndices()
			if err != nil {
				t.Fatalf("ReadIndices: %v", err)
			}
			for i, idx := range indices {
				if idx != tt.want {
					t.Errorf("cell %d = %d, want %d", i, idx, tt.want)
				}
			}
		})
	}
}

func TestRendererSourceResize(t *testing.T) {
	r := openTestRenderer(t, 4, 4)

	// Each size change reallocates the frame texture and rebinds the
	// compute stage.
	for _, size := range []int{16, 64, 16} {
		f := FrameInput{Data: solidRGBA(size, size, 255), Width: uint32(size), Height: uint32(size)}
		if err := r.RenderFrame(f); err != nil {
			t.Fatalf("RenderFrame %dx%d: %v", size, size, err)
		}
	}
	indices, _, _, err := r.ReadIndices()
	if err != nil {
		t.Fatalf("ReadIndices: %v", err)
	}
	for i, idx := range indices {
		if idx != 1 {
			t.Errorf("cell %d = %d after resizes, want 1", i, idx)
		}
	}
}

func TestRendererApplySettings(t *testing.T) {
	r := openTestRenderer(t, 4, 4)

	f := FrameInput{Data: solidRGBA(16, 16, 255), Width: 16, Height: 16}
	if err := r.RenderFrame(f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}

	// Same-size apply takes the parameter-only path.
	u := SettingsUpdate{GridWidth: 4, GridHeight: 4, Contrast: 1.0, Invert: true}
	if err := r.ApplySettings(u); err != nil {
		t.Fatalf("ApplySettings (same size): %v", err)
	}
	if err := r.RenderFrame(f); err != nil {
		t.Fatalf("RenderFrame after invert: %v", err)
	}
	indices, _, _, err := r.ReadIndices()
	if err != nil {
		t.Fatalf("ReadIndices: %v", err)
	}
	for i, idx := range indices {
		if idx != 0 {
			t.Errorf("cell %d = %d with invert on white, want 0", i, idx)
		}
	}

	// Resize reallocates the index buffer and rebinds both stages.
	u = SettingsUpdate{GridWidth: 10, GridHeight: 5, Contrast: 1.0}
	if err := r.ApplySettings(u); err != nil {
		t.Fatalf("ApplySettings (resize): %v", err)
	}
	if err := r.RenderFrame(f); err != nil {
		t.Fatalf("RenderFrame after resize: %v", err)
	}
	indices, w, h, err := r.ReadIndices()
	if err != nil {
		t.Fatalf("ReadIndices: %v", err)
	}
	if w != 10 || h != 5 {
		t.Fatalf("grid = %dx%d after resize, want 10x5", w, h)
	}
	if len(indices) != 50 {
		t.Fatalf("got %d indices, want 50", len(indices))
	}
	for i, idx := range indices {
		if idx != 1 {
			t.Errorf("cell %d = %d, want 1", i, idx)
		}
	}
}

func TestRendererIndexBufferLifecycle(t *testing.T) {
	r := openTestRenderer(t, 4, 4)

	first := r.indices
	gen := first.gen

	// A same-size apply takes the parameter-only path: the buffer object
	// and its generation are untouched.
	u := SettingsUpdate{GridWidth: 4, GridHeight: 4, Contrast: 2.0}
	if err := r.ApplySettings(u); err != nil {
		t.Fatalf("ApplySettings (same size): %v", err)
	}
	if r.indices != first {
		t.Fatal("same-size apply replaced the index buffer")
	}
	if r.indices.gen != gen {
		t.Errorf("same-size apply bumped generation %d -> %d", gen, r.indices.gen)
	}

	// A resize allocates a fresh buffer under a new generation and retires
	// the old one.
	u = SettingsUpdate{GridWidth: 8, GridHeight: 2, Contrast: 2.0}
	if err := r.ApplySettings(u); err != nil {
		t.Fatalf("ApplySettings (resize): %v", err)
	}
	if r.indices == first {
		t.Fatal("resize kept the old index buffer")
	}
	if r.indices.gen <= gen {
		t.Errorf("generation = %d after resize, want > %d", r.indices.gen, gen)
	}
	if first.buf != nil {
		t.Error("old index buffer not retired after resize")
	}
}

func TestRendererSwitchAtlas(t *testing.T) {
	r := openTestRenderer(t, 4, 4)

	// Same dimensions: the texture is updated in place.
	if err := r.SwitchAtlas(testAtlasData()); err != nil {
		t.Fatalf("SwitchAtlas (same dims): %v", err)
	}

	// Different dimensions: a new texture is allocated and swapped in.
	big := &AtlasData{
		Pix:     make([]byte, 4*16*2*16*4),
		Width:   4 * 16,
		Height:  2 * 16,
		Cols:    4,
		Rows:    2,
		RampLen: 8,
	}
	for i := 3; i < len(big.Pix); i += 4 {
		big.Pix[i] = 255
	}
	if err := r.SwitchAtlas(big); err != nil {
		t.Fatalf("SwitchAtlas (new dims): %v", err)
	}

	// Rendering still works against the swapped atlas, and indices now
	// range over the longer ramp.
	f := FrameInput{Data: solidRGBA(16, 16, 255), Width: 16, Height: 16}
	if err := r.RenderFrame(f); err != nil {
		t.Fatalf("RenderFrame: %v", err)
	}
	indices, _, _, err := r.ReadIndices()
	if err != nil {
		t.Fatalf("ReadIndices: %v", err)
	}
	for i, idx := range indices {
		if idx != 7 {
			t.Errorf("cell %d = %d on white with 8-step ramp, want 7", i, idx)
		}
	}
}

func TestRendererClosed(t *testing.T) {
	dev, err := Open()
	if err != nil {
		t.Skipf("GPU not available: %v", err)
	}
	defer dev.Close()

	r, err := NewRenderer(dev, testRendererConfig(4, 4))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	r.Close()
	r.Close() // idempotent

	f := FrameInput{Data: solidRGBA(4, 4, 0), Width: 4, Height: 4}
	if err := r.RenderFrame(f); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("RenderFrame on closed renderer = %v, want ErrRendererClosed", err)
	}
	if _, _, _, err := r.ReadIndices(); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("ReadIndices on closed renderer = %v, want ErrRendererClosed", err)
	}
}
