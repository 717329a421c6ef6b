package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// ErrShaderCompile wraps WGSL compilation failures. These are init-time
// fatal: a pipeline with a broken shader never comes up.
var ErrShaderCompile = errors.New("wgpu: shader compilation failed")

// Embedded WGSL shader sources, one per pipeline stage.

//go:embed shaders/glyph_compute.wgsl
var glyphComputeShaderSource string

//go:embed shaders/glyph_render.wgsl
var glyphRenderShaderSource string

// ValidateShaders runs both embedded shaders through naga so compilation
// diagnostics surface at init with source context, instead of as an opaque
// device error at first submit. The SPIR-V output is discarded; the HAL
// shader modules are created from the WGSL directly.
func ValidateShaders() error {
	for _, s := range []struct {
		name string
		src  string
	}{
		{"glyph_compute", glyphComputeShaderSource},
		{"glyph_render", glyphRenderShaderSource},
	} {
		if s.src == "" {
			return fmt.Errorf("%w: %s: empty source", ErrShaderCompile, s.name)
		}
		if _, err := naga.Compile(s.src); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrShaderCompile, s.name, err)
		}
	}
	return nil
}
