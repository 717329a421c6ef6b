// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

// compileOrSkip runs one shader through naga, skipping on known naga
// limitations rather than failing.
func compileOrSkip(t *testing.T, name, src string) []byte {
	t.Helper()
	if src == "" {
		t.Fatalf("%s shader source is empty", name)
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "not yet implemented") || strings.Contains(errStr, "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		if strings.Contains(errStr, "lowering error") {
			t.Skipf("Skipping: naga lowering limitation: %v", err)
		}
		t.Fatalf("failed to compile %s shader: %v", name, err)
	}
	return spirv
}

func TestComputeShaderCompilation(t *testing.T) {
	spirv := compileOrSkip(t, "glyph_compute", glyphComputeShaderSource)
	if len(spirv) < 4 {
		t.Fatal("SPIR-V output too short")
	}
	// SPIR-V magic number, little-endian.
	if spirv[0] != 0x03 || spirv[1] != 0x02 || spirv[2] != 0x23 || spirv[3] != 0x07 {
		t.Errorf("bad SPIR-V magic: % x", spirv[:4])
	}
}

func TestRenderShaderCompilation(t *testing.T) {
	spirv := compileOrSkip(t, "glyph_render", glyphRenderShaderSource)
	if len(spirv) == 0 {
		t.Error("SPIR-V output is empty")
	}
}

func TestShaderSourcesAgree(t *testing.T) {
	// Both stages share the Params uniform layout and the bindings below;
	// a drift here breaks one stage silently.
	for _, field := range []string{
		"grid_w", "grid_h", "src_w", "src_h",
		"atlas_cols", "atlas_rows", "ramp_len", "flags",
		"contrast", "edge_bias",
	} {
		if !strings.Contains(glyphComputeShaderSource, field) {
			t.Errorf("compute shader missing params field %q", field)
		}
		if !strings.Contains(glyphRenderShaderSource, field) {
			t.Errorf("render shader missing params field %q", field)
		}
	}
	if !strings.Contains(glyphComputeShaderSource, "@workgroup_size(16, 16)") {
		t.Error("compute shader workgroup size is not 16x16")
	}
}
