package glyphcam

import (
	"errors"
	"fmt"
)

// ErrInvalidSettings is wrapped by all Settings validation failures.
var ErrInvalidSettings = errors.New("glyphcam: invalid settings")

// Settings is the explicit configuration record for the pipeline. It is
// pushed through Pipeline.ApplySettings; the pipeline never reads ambient
// state. The zero value is not valid; start from DefaultSettings.
type Settings struct {
	// GridWidth and GridHeight are the character grid dimensions in cells.
	// Both must be positive.
	GridWidth  int
	GridHeight int

	// Contrast scales luminance around mid-gray before ramp lookup.
	// 1.0 is neutral; the useful range is roughly 0.5 to 2.0.
	Contrast float64

	// EdgeBias controls how strongly Sobel edge response pushes a cell
	// toward the bright end of the ramp. 0 disables edge contribution;
	// the useful range is 0 to 1.
	EdgeBias float64

	// Invert flips the luminance mapping so bright areas map to the dark
	// end of the ramp.
	Invert bool

	// Mirror flips the source horizontally, matching the selfie-view
	// convention of webcam preview.
	Mirror bool

	// AtlasID selects the glyph atlas. Built-in identifiers are AtlasDense,
	// AtlasStandard, AtlasBlocks and AtlasEdges; atlases registered through
	// RegisterAtlas are addressed by their own IDs.
	AtlasID string
}

// DefaultSettings returns the settings used when a caller has no opinion:
// an 80x45 grid (16:9), neutral contrast, moderate edge bias, dense ramp.
func DefaultSettings() Settings {
	return Settings{
		GridWidth:  80,
		GridHeight: 45,
		Contrast:   1.0,
		EdgeBias:   0.35,
		Invert:     false,
		Mirror:     false,
		AtlasID:    AtlasDense,
	}
}

// Validate reports whether the settings can be applied. Validation happens
// before any GPU allocation so that a rejected record leaves the previous
// configuration fully active.
func (s Settings) Validate() error {
	if s.GridWidth <= 0 || s.GridHeight <= 0 {
		return fmt.Errorf("%w: grid %dx%d (both dimensions must be positive)",
			ErrInvalidSettings, s.GridWidth, s.GridHeight)
	}
	if s.GridWidth > maxGridDim || s.GridHeight > maxGridDim {
		return fmt.Errorf("%w: grid %dx%d exceeds maximum dimension %d",
			ErrInvalidSettings, s.GridWidth, s.GridHeight, maxGridDim)
	}
	if s.Contrast <= 0 {
		return fmt.Errorf("%w: contrast %v must be positive", ErrInvalidSettings, s.Contrast)
	}
	if s.EdgeBias < 0 || s.EdgeBias > 1 {
		return fmt.Errorf("%w: edge bias %v outside [0, 1]", ErrInvalidSettings, s.EdgeBias)
	}
	if s.AtlasID == "" {
		return fmt.Errorf("%w: empty atlas id", ErrInvalidSettings)
	}
	return nil
}

// maxGridDim caps grid dimensions. 4096x4096 cells is already a 64 MiB index
// buffer; anything larger is a caller bug, not a use case.
const maxGridDim = 4096
