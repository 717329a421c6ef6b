package glyphcam

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrUnknownAtlas is returned when an atlas identifier resolves to nothing.
var ErrUnknownAtlas = errors.New("glyphcam: unknown atlas")

const (
	// defaultAtlasColumns is the tile grid width of generated atlases.
	defaultAtlasColumns = 16

	// defaultTileSize is the pixel size of generated glyph tiles.
	defaultTileSize = 32
)

// Atlas is a sheet of pre-rendered glyph tiles plus the ramp that indexes
// them. Tile i lives at column i % Columns, row i / Columns. The ramp is
// fixed for the lifetime of the atlas; changing characters means building a
// new atlas.
type Atlas struct {
	// ID addresses the atlas in Settings.AtlasID and SwitchAtlas.
	ID string

	// Ramp holds the characters ordered from darkest to brightest.
	Ramp []rune

	// Columns and Rows describe the tile grid.
	// Rows is always ceil(len(Ramp)/Columns).
	Columns int
	Rows    int

	// TileWidth and TileHeight are the pixel dimensions of one tile.
	TileWidth  int
	TileHeight int

	// Pix is the RGBA pixel data, Columns*TileWidth wide and
	// Rows*TileHeight tall, glyphs white on black.
	Pix []byte
}

// PixWidth returns the atlas image width in pixels.
func (a *Atlas) PixWidth() int { return a.Columns * a.TileWidth }

// PixHeight returns the atlas image height in pixels.
func (a *Atlas) PixHeight() int { return a.Rows * a.TileHeight }

// validate checks the structural invariants of an atlas.
func (a *Atlas) validate() error {
	if a.ID == "" {
		return errors.New("glyphcam: atlas with empty id")
	}
	if err := validateRamp(a.Ramp); err != nil {
		return err
	}
	if a.Columns <= 0 || a.TileWidth <= 0 || a.TileHeight <= 0 {
		return fmt.Errorf("glyphcam: atlas %q has degenerate geometry (%d cols, %dx%d tiles)",
			a.ID, a.Columns, a.TileWidth, a.TileHeight)
	}
	wantRows := (len(a.Ramp) + a.Columns - 1) / a.Columns
	if a.Rows != wantRows {
		return fmt.Errorf("glyphcam: atlas %q rows = %d, want ceil(%d/%d) = %d",
			a.ID, a.Rows, len(a.Ramp), a.Columns, wantRows)
	}
	if want := a.PixWidth() * a.PixHeight() * 4; len(a.Pix) != want {
		return fmt.Errorf("glyphcam: atlas %q pixel data is %d bytes, want %d",
			a.ID, len(a.Pix), want)
	}
	return nil
}

// GenerateAtlas rasterizes the given ramp into a fresh atlas using the
// embedded Go Mono face. Every rune is checked against the font's character
// map first; a ramp character the font cannot draw is an error, not a tofu
// box.
func GenerateAtlas(id string, ramp string) (*Atlas, error) {
	runes := []rune(ramp)
	if err := validateRamp(runes); err != nil {
		return nil, err
	}
	if err := checkCoverage(gomono.TTF, runes); err != nil {
		return nil, fmt.Errorf("glyphcam: generate atlas %q: %w", id, err)
	}

	parsed, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("glyphcam: parse embedded font: %w", err)
	}
	// Size the face so the widest tile content still fits with a margin.
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(defaultTileSize) * 0.75,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("glyphcam: create font face: %w", err)
	}
	defer func() { _ = face.Close() }()

	cols := defaultAtlasColumns
	if len(runes) < cols {
		cols = len(runes)
	}
	rows := (len(runes) + cols - 1) / cols

	img := image.NewRGBA(image.Rect(0, 0, cols*defaultTileSize, rows*defaultTileSize))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	metrics := face.Metrics()
	for i, r := range runes {
		tileX := (i % cols) * defaultTileSize
		tileY := (i / cols) * defaultTileSize

		adv, ok := face.GlyphAdvance(r)
		if !ok {
			return nil, fmt.Errorf("glyphcam: no glyph advance for %q", r)
		}
		// Center horizontally; place the baseline so ascender and descender
		// both fit inside the tile.
		dotX := fixed.I(tileX) + (fixed.I(defaultTileSize)-adv)/2
		dotY := fixed.I(tileY) + (fixed.I(defaultTileSize)+metrics.Ascent-metrics.Descent)/2

		d := &font.Drawer{
			Dst:  img,
			Src:  image.White,
			Face: face,
			Dot:  fixed.Point26_6{X: dotX, Y: dotY},
		}
		d.DrawString(string(r))
	}

	a := &Atlas{
		ID:         id,
		Ramp:       runes,
		Columns:    cols,
		Rows:       rows,
		TileWidth:  defaultTileSize,
		TileHeight: defaultTileSize,
		Pix:        img.Pix,
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// checkCoverage verifies that the font's cmap covers every ramp rune.
func checkCoverage(ttf []byte, runes []rune) error {
	face, err := gtfont.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return fmt.Errorf("parse font for coverage check: %w", err)
	}
	var missing []rune
	for _, r := range runes {
		if _, ok := face.NominalGlyph(r); !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("font does not cover ramp characters %q", string(missing))
	}
	return nil
}

// atlasMetadata is the JSON sidecar format for external atlas files.
type atlasMetadata struct {
	Path       string `json:"path"`
	Cols       int    `json:"cols"`
	Rows       int    `json:"rows"`
	CellSize   int    `json:"cell_size"`
	Characters string `json:"characters"`
}

// LoadAtlasFile reads an externally generated atlas from a JSON metadata
// file. The metadata's "path" names the atlas PNG relative to the JSON
// file's directory. The returned atlas uses the JSON file's base name
// (without extension) as its ID.
func LoadAtlasFile(metaPath string) (*Atlas, error) {
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("glyphcam: read atlas metadata: %w", err)
	}
	var meta atlasMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("glyphcam: parse atlas metadata %s: %w", metaPath, err)
	}

	pngPath := meta.Path
	if !filepath.IsAbs(pngPath) {
		pngPath = filepath.Join(filepath.Dir(metaPath), pngPath)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		return nil, fmt.Errorf("glyphcam: open atlas image: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("glyphcam: decode atlas image %s: %w", pngPath, err)
	}
	rgba, ok := src.(*image.RGBA)
	if !ok {
		b := src.Bounds()
		rgba = image.NewRGBA(b)
		draw.Draw(rgba, b, src, b.Min, draw.Src)
	}

	id := filepath.Base(metaPath)
	id = id[:len(id)-len(filepath.Ext(id))]

	a := &Atlas{
		ID:         id,
		Ramp:       []rune(meta.Characters),
		Columns:    meta.Cols,
		Rows:       meta.Rows,
		TileWidth:  meta.CellSize,
		TileHeight: meta.CellSize,
		Pix:        rgba.Pix,
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// atlasRegistry caches built-in atlases (generated on first use) and holds
// caller-registered ones.
var atlasRegistry = struct {
	mu      sync.Mutex
	atlases map[string]*Atlas
}{atlases: make(map[string]*Atlas)}

// RegisterAtlas makes an atlas addressable by its ID in Settings.AtlasID and
// SwitchAtlas. Registering an ID twice replaces the earlier atlas; built-in
// IDs cannot be replaced.
func RegisterAtlas(a *Atlas) error {
	if a == nil {
		return errors.New("glyphcam: register nil atlas")
	}
	if err := a.validate(); err != nil {
		return err
	}
	if _, builtin := builtinRamps[a.ID]; builtin {
		return fmt.Errorf("glyphcam: atlas id %q is reserved", a.ID)
	}
	atlasRegistry.mu.Lock()
	defer atlasRegistry.mu.Unlock()
	atlasRegistry.atlases[a.ID] = a
	return nil
}

// ResolveAtlas returns the atlas for an identifier: a registered atlas, or a
// built-in one generated (and cached) on first use.
func ResolveAtlas(id string) (*Atlas, error) {
	atlasRegistry.mu.Lock()
	defer atlasRegistry.mu.Unlock()

	if a, ok := atlasRegistry.atlases[id]; ok {
		return a, nil
	}
	ramp, ok := builtinRamps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAtlas, id)
	}
	a, err := GenerateAtlas(id, ramp)
	if err != nil {
		return nil, err
	}
	atlasRegistry.atlases[id] = a
	return a, nil
}
