// Package glyphcam renders live video as a real-time grid of text glyphs.
//
// # Overview
//
// glyphcam turns frames from any video source into character art on the GPU.
// Each output cell receives one character from a fixed ramp, selected from the
// luminance and local edge strength of the corresponding region of the source
// image. Selected characters are drawn by sampling pre-rendered glyph tiles
// from an atlas texture, so a whole frame costs one compute dispatch and one
// draw call.
//
// The pipeline runs in two GPU stages per frame:
//
//  1. Compute: for every output cell, sample a 3x3 neighborhood of the source
//     frame, derive luminance and Sobel edge strength, and write a glyph index
//     into a storage buffer.
//  2. Render: for every target pixel, look up the cell's glyph index and
//     sample the matching tile of the glyph atlas.
//
// # Quick Start
//
//	src := glyphcam.NewLatestFrameSource()
//	p, err := glyphcam.New(glyphcam.RenderTarget{Width: 1280, Height: 720}, src, glyphcam.DefaultSettings())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	go feedCamera(src) // src.Publish(frame) from the capture goroutine
//	if err := p.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Settings (grid size, contrast, edge bias, invert, atlas) are reconfigured
// at runtime through [Pipeline.ApplySettings] and [Pipeline.SwitchAtlas]
// without dropping more than a frame.
//
// glyphcam does not open cameras and does not own a window or swapchain.
// Frames come in through the [FrameSource] contract; rendered output goes to
// a caller-provided texture view or to an internal offscreen target.
package glyphcam
