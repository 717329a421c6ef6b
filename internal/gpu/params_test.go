// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestParamsSize(t *testing.T) {
	var p Params
	if got := p.sizeInBytes(); got != 48 {
		t.Errorf("sizeInBytes() = %d, want 48", got)
	}
	if p.sizeInBytes()%16 != 0 {
		t.Error("uniform block size is not 16-byte aligned")
	}
	if got := len(p.toBytes()); got != 48 {
		t.Errorf("len(toBytes()) = %d, want 48", got)
	}
}

func TestParamsToBytes(t *testing.T) {
	p := Params{
		GridWidth:  80,
		GridHeight: 45,
		SrcWidth:   1280,
		SrcHeight:  720,
		AtlasCols:  16,
		AtlasRows:  5,
		RampLen:    70,
		Flags:      FlagInvert | FlagMirror,
		Contrast:   1.25,
		EdgeBias:   0.35,
	}
	buf := p.toBytes()
	le := binary.LittleEndian

	wantU32 := []struct {
		name string
		off  int
		want uint32
	}{
		{"grid_w", 0, 80},
		{"grid_h", 4, 45},
		{"src_w", 8, 1280},
		{"src_h", 12, 720},
		{"atlas_cols", 16, 16},
		{"atlas_rows", 20, 5},
		{"ramp_len", 24, 70},
		{"flags", 28, 3},
	}
	for _, f := range wantU32 {
		if got := le.Uint32(buf[f.off:]); got != f.want {
			t.Errorf("%s at offset %d: got %d, want %d", f.name, f.off, got, f.want)
		}
	}

	if got := math.Float32frombits(le.Uint32(buf[32:])); got != 1.25 {
		t.Errorf("contrast: got %v, want 1.25", got)
	}
	if got := math.Float32frombits(le.Uint32(buf[36:])); got != 0.35 {
		t.Errorf("edge_bias: got %v, want 0.35", got)
	}
	for i := 40; i < 48; i++ {
		if buf[i] != 0 {
			t.Errorf("padding byte %d = %d, want 0", i, buf[i])
		}
	}
}

func TestParamsFlags(t *testing.T) {
	if FlagInvert&FlagMirror != 0 {
		t.Error("flag bits overlap")
	}
	p := Params{Flags: FlagMirror}
	buf := p.toBytes()
	if got := binary.LittleEndian.Uint32(buf[28:]); got != 2 {
		t.Errorf("mirror-only flags = %d, want 2", got)
	}
}

func TestIndexBufferSize(t *testing.T) {
	tests := []struct {
		w, h uint32
		want uint64
	}{
		{1, 1, 4},
		{80, 45, 80 * 45 * 4},
		{4096, 4096, 4096 * 4096 * 4},
	}
	for _, tt := range tests {
		if got := indexBufferSize(tt.w, tt.h); got != tt.want {
			t.Errorf("indexBufferSize(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}
