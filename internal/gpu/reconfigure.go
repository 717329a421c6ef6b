// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// reconfigure.go implements runtime reconfiguration: parameter rewrites,
// grid resizes, atlas swaps. The protocol for replacing a live resource is
// always allocate, rebind, swap, retire; the old resource stays bound until
// its replacement is fully wired, so a failed reconfiguration leaves the
// previous configuration intact.

package gpu

// SettingsUpdate carries a validated settings record into the renderer.
type SettingsUpdate struct {
	GridWidth  uint32
	GridHeight uint32
	Contrast   float32
	EdgeBias   float32
	Invert     bool
	Mirror     bool
}

// flags packs the boolean settings into the shader flag word.
func (u SettingsUpdate) flags() uint32 {
	var f uint32
	if u.Invert {
		f |= FlagInvert
	}
	if u.Mirror {
		f |= FlagMirror
	}
	return f
}

// ApplySettings reconfigures the pipeline. Parameter-only changes rewrite
// the uniform block and touch nothing else. A grid size change additionally
// replaces the index buffer; applying the same dimensions again never
// reallocates.
func (r *Renderer) ApplySettings(u SettingsUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}

	p := r.params.current()
	resize := u.GridWidth != p.GridWidth || u.GridHeight != p.GridHeight

	p.GridWidth = u.GridWidth
	p.GridHeight = u.GridHeight
	p.Contrast = u.Contrast
	p.EdgeBias = u.EdgeBias
	p.Flags = u.flags()

	if !resize {
		r.params.update(p)
		slogger().Debug("wgpu: settings updated", "resize", false)
		return nil
	}

	// Allocate the replacement index buffer before touching live state.
	newIdx, err := r.allocIndexBuffer(u.GridWidth, u.GridHeight)
	if err != nil {
		return err
	}

	// Rebind both stages against the new buffer. The compute stage only has
	// a bind group once a frame has been uploaded; before that it will bind
	// the new buffer on first upload via its generation check.
	if r.compute.bindGroup != nil {
		if err := r.compute.rebind(r.params, r.frame, r.frameSampler, newIdx); err != nil {
			newIdx.destroy()
			return err
		}
	}
	if err := r.render.rebind(r.params, r.atlas, r.atlasSampler, newIdx); err != nil {
		newIdx.destroy()
		return err
	}

	// Swap, publish the new geometry, then retire the old buffer. No
	// submission is in flight while the mutex is held, so the old buffer is
	// idle by the time it is destroyed.
	old := r.indices
	r.indices = newIdx
	r.params.update(p)
	old.destroy()

	slogger().Info("wgpu: grid resized",
		"grid_w", u.GridWidth, "grid_h", u.GridHeight, "generation", newIdx.gen)
	return nil
}

// SwitchAtlas replaces the glyph atlas. When the new atlas has the same
// pixel dimensions the texture is re-uploaded in place and no binding
// changes; otherwise a new texture is allocated, the render stage is
// rebound, and the old texture is retired. The parameter block is rewritten
// in both cases because tile geometry or ramp length may differ.
func (r *Renderer) SwitchAtlas(data *AtlasData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	if err := data.validate(); err != nil {
		return err
	}

	if r.atlas.sameDims(data) {
		r.atlas.upload(data)
	} else {
		newAtlas, err := newAtlasTexture(r.dev.Device(), r.dev.Queue(), data)
		if err != nil {
			return err
		}
		if err := r.render.rebind(r.params, newAtlas, r.atlasSampler, r.indices); err != nil {
			newAtlas.destroy()
			return err
		}
		old := r.atlas
		r.atlas = newAtlas
		old.destroy()
	}

	p := r.params.current()
	p.AtlasCols = data.Cols
	p.AtlasRows = data.Rows
	p.RampLen = data.RampLen
	r.params.update(p)

	slogger().Info("wgpu: atlas switched",
		"cols", data.Cols, "rows", data.Rows, "ramp_len", data.RampLen)
	return nil
}
