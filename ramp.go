package glyphcam

import (
	"errors"
	"fmt"
)

// MaxRampLen is the maximum number of characters in a ramp. Glyph indices
// travel through a fixed-size uniform block, so the ramp length is bounded.
const MaxRampLen = 256

// ErrRampTooLong is returned when a ramp exceeds MaxRampLen characters.
var ErrRampTooLong = errors.New("glyphcam: ramp too long")

// Built-in ramp identifiers, usable as Settings.AtlasID.
const (
	// AtlasDense is a 70-character ramp ordered from darkest to brightest.
	// It gives the smoothest tonal gradation of the built-in ramps.
	AtlasDense = "dense"

	// AtlasStandard is the classic 10-character " .:-=+*#%@" ramp.
	AtlasStandard = "standard"

	// AtlasBlocks uses Unicode block elements for a chunky, high-contrast look.
	AtlasBlocks = "blocks"

	// AtlasEdges emphasizes line-like characters and pairs well with a high
	// edge bias.
	AtlasEdges = "edges"
)

// rampDense orders characters by increasing ink coverage. The leading space
// maps pure black to an empty cell.
const rampDense = " .'`^\",:;Il!i~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$"

const rampStandard = " .:-=+*#%@"

const rampBlocks = " ░▒▓█"

// rampEdges favors stroke-like glyphs early so edge-boosted cells pick up
// line characters before filled ones.
const rampEdges = " .,-~:;+i!lI?/\\|()1{}[]*tfrxjvczXYUJCLQ0OZmwqpdbkhao#MW&B8%@"

// builtinRamps maps atlas identifiers to their character ramps.
var builtinRamps = map[string]string{
	AtlasDense:    rampDense,
	AtlasStandard: rampStandard,
	AtlasBlocks:   rampBlocks,
	AtlasEdges:    rampEdges,
}

// BuiltinAtlasIDs returns the identifiers of the built-in atlases.
func BuiltinAtlasIDs() []string {
	return []string{AtlasDense, AtlasStandard, AtlasBlocks, AtlasEdges}
}

// validateRamp checks that a ramp is usable: non-empty, within MaxRampLen,
// and free of duplicate characters. Duplicates would make dumped grids
// ambiguous, so they are rejected up front.
func validateRamp(ramp []rune) error {
	if len(ramp) == 0 {
		return errors.New("glyphcam: empty ramp")
	}
	if len(ramp) > MaxRampLen {
		return fmt.Errorf("%w: %d characters (max %d)", ErrRampTooLong, len(ramp), MaxRampLen)
	}
	seen := make(map[rune]int, len(ramp))
	for i, r := range ramp {
		if prev, dup := seen[r]; dup {
			return fmt.Errorf("glyphcam: duplicate ramp character %q at positions %d and %d", r, prev, i)
		}
		seen[r] = i
	}
	return nil
}
