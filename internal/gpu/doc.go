// Package gpu holds the GPU core of the glyph pipeline.
//
// It is an internal package used by the glyphcam library and leverages the
// gogpu/wgpu Pure Go WebGPU implementation (zero CGO) for hardware
// acceleration.
//
// # Architecture Overview
//
// Each frame runs a two-stage pipeline in a single submission:
//
//	Frame upload -> Compute (luminance + Sobel -> glyph indices) -> Render (atlas tiles -> target)
//
// Key components:
//
//   - DeviceContext: adapter selection, device/queue ownership, fault events
//   - Renderer: resource ownership and per-frame encoding
//   - computeStage / renderStage: one pipeline each, rebuilt bind groups on
//     resource swaps
//   - paramBuffer: the uniform block shared by both shaders
//   - indexBuffer: one u32 glyph index per grid cell, generation-tagged
//   - atlasTexture / frameTexture: sampled textures for the two stages
//
// # Reconfiguration
//
// Live resources are replaced with an allocate, rebind, swap, retire
// protocol. A failed reconfiguration destroys the new allocation and leaves
// the previous configuration bound, so the renderer never ends up half
// switched.
//
// # Error Handling
//
// Common errors returned by this package:
//
//   - ErrNoAdapter: no compatible GPU adapter found
//   - ErrDeviceLost: the device stopped responding (requires recreation)
//   - ErrShaderCompile: WGSL validation failed at init
//   - ErrFrameSize: uploaded frame data does not match its dimensions
//   - ErrRendererClosed: renderer has been closed
package gpu
