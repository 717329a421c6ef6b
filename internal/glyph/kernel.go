// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package glyph holds the CPU reference implementation of the glyph index
// kernel. The GPU compute shader (internal/gpu/shaders/glyph_compute.wgsl)
// mirrors this code; diagnostics and tests run against the CPU path so the
// mapping from pixels to ramp indices is checkable without a device.
package glyph

import (
	"fmt"
	"math"
)

// Params describes one kernel evaluation. All fields are required.
type Params struct {
	// GridWidth and GridHeight are the output cell grid dimensions.
	GridWidth  int
	GridHeight int

	// SrcWidth and SrcHeight are the source frame dimensions in pixels.
	SrcWidth  int
	SrcHeight int

	// Contrast scales luminance around mid-gray. 1.0 is neutral.
	Contrast float64

	// EdgeBias scales the Sobel contribution to the final index, in [0, 1].
	EdgeBias float64

	// Invert flips the luminance mapping after contrast.
	Invert bool

	// Mirror flips the source horizontally.
	Mirror bool

	// RampLen is the number of characters in the active ramp.
	RampLen int
}

func (p Params) validate() error {
	if p.GridWidth <= 0 || p.GridHeight <= 0 {
		return fmt.Errorf("glyph: grid %dx%d", p.GridWidth, p.GridHeight)
	}
	if p.SrcWidth <= 0 || p.SrcHeight <= 0 {
		return fmt.Errorf("glyph: source %dx%d", p.SrcWidth, p.SrcHeight)
	}
	if p.RampLen <= 0 {
		return fmt.Errorf("glyph: ramp length %d", p.RampLen)
	}
	return nil
}

// Indices computes the glyph index for every cell of the grid, row-major,
// top row first. src holds SrcWidth*SrcHeight*4 bytes of RGBA pixels.
// Every returned index is in [0, RampLen).
func Indices(src []byte, p Params) ([]uint32, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if want := p.SrcWidth * p.SrcHeight * 4; len(src) != want {
		return nil, fmt.Errorf("glyph: source data is %d bytes, want %d", len(src), want)
	}

	out := make([]uint32, p.GridWidth*p.GridHeight)
	for cy := 0; cy < p.GridHeight; cy++ {
		for cx := 0; cx < p.GridWidth; cx++ {
			out[cy*p.GridWidth+cx] = CellIndex(src, p, cx, cy)
		}
	}
	return out, nil
}

// CellIndex evaluates the kernel for a single cell. The algorithm matches
// the compute shader step for step:
//
//  1. Map the cell center to source uv space (mirrored when requested).
//  2. Sample a 3x3 luminance neighborhood one source texel apart,
//     bilinear, clamped to edge.
//  3. Base tone: center luminance, contrast-scaled about 0.5, optionally
//     inverted.
//  4. Edge strength: Sobel magnitude over the raw neighborhood, normalized
//     by the maximum response of 4.
//  5. Index: round(base*(N-1) + edge*bias*(N-1)), clamped to [0, N-1].
func CellIndex(src []byte, p Params, cx, cy int) uint32 {
	u := (float64(cx) + 0.5) / float64(p.GridWidth)
	v := (float64(cy) + 0.5) / float64(p.GridHeight)
	if p.Mirror {
		u = 1 - u
	}

	du := 1.0 / float64(p.SrcWidth)
	dv := 1.0 / float64(p.SrcHeight)

	var lum [3][3]float64
	for j := -1; j <= 1; j++ {
		for i := -1; i <= 1; i++ {
			r, g, b := sampleBilinear(src, p.SrcWidth, p.SrcHeight, u+float64(i)*du, v+float64(j)*dv)
			lum[j+1][i+1] = luminance(r, g, b)
		}
	}

	base := clamp((lum[1][1]-0.5)*p.Contrast+0.5, 0, 1)
	if p.Invert {
		base = 1 - base
	}

	gx := (lum[0][0] + 2*lum[1][0] + lum[2][0]) - (lum[0][2] + 2*lum[1][2] + lum[2][2])
	gy := (lum[0][0] + 2*lum[0][1] + lum[0][2]) - (lum[2][0] + 2*lum[2][1] + lum[2][2])
	edge := clamp(math.Hypot(gx, gy)/4.0, 0, 1)

	n := float64(p.RampLen - 1)
	idx := math.Round(base*n + edge*p.EdgeBias*n)
	return uint32(clamp(idx, 0, n))
}

// luminance is the Rec.601 luma weighting used by the shader.
func luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// sampleBilinear samples normalized RGB at (u, v) with clamp-to-edge
// addressing, matching a linear-filter GPU sampler.
func sampleBilinear(src []byte, w, h int, u, v float64) (r, g, b float64) {
	x := u*float64(w) - 0.5
	y := v*float64(h) - 0.5
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	r00, g00, b00 := texel(src, w, h, x0, y0)
	r10, g10, b10 := texel(src, w, h, x0+1, y0)
	r01, g01, b01 := texel(src, w, h, x0, y0+1)
	r11, g11, b11 := texel(src, w, h, x0+1, y0+1)

	r = lerp(lerp(r00, r10, fx), lerp(r01, r11, fx), fy)
	g = lerp(lerp(g00, g10, fx), lerp(g01, g11, fx), fy)
	b = lerp(lerp(b00, b10, fx), lerp(b01, b11, fx), fy)
	return r, g, b
}

// texel fetches one pixel with clamp-to-edge addressing.
func texel(src []byte, w, h, x, y int) (r, g, b float64) {
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	off := (y*w + x) * 4
	return float64(src[off]) / 255, float64(src[off+1]) / 255, float64(src[off+2]) / 255
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
