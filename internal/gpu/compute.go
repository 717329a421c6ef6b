// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// glyphWGSize is the workgroup edge length of the compute shader. It
// matches @workgroup_size(16, 16) in glyph_compute.wgsl.
const glyphWGSize = 16

// computeStage owns the glyph index compute pipeline: shader module, bind
// group layout, pipeline, and the current bind group. The pipeline is built
// once at init; the bind group is rebuilt whenever a bound resource is
// replaced (frame texture realloc, index buffer swap).
type computeStage struct {
	device hal.Device

	module     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	bindGroup hal.BindGroup
	bindGen   uint64 // index buffer generation the bind group was built against
}

// newComputeStage compiles the compute shader and builds the pipeline.
func newComputeStage(device hal.Device) (*computeStage, error) {
	s := &computeStage{device: device}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "glyph_compute",
		Source: hal.ShaderSource{WGSL: glyphComputeShaderSource},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile glyph_compute shader: %w", err)
	}
	s.module = module

	// @binding(0) uniform params
	// @binding(1) texture_2d src_tex
	// @binding(2) sampler src_samp
	// @binding(3) storage(read_write) indices
	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glyph_compute_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("wgpu: create glyph_compute bind group layout: %w", err)
	}
	s.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glyph_compute_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("wgpu: create glyph_compute pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "glyph_compute",
		Layout:  pipeLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: "main"},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("wgpu: create glyph_compute pipeline: %w", err)
	}
	s.pipeline = pipeline

	return s, nil
}

// rebind replaces the bind group with one referencing the current
// resources. Called at init and after any resource swap.
func (s *computeStage) rebind(params *paramBuffer, frame *frameTexture, sampler hal.Sampler, idx *indexBuffer) error {
	bg, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "glyph_compute_bind",
		Layout: s.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: params.buf.NativeHandle(), Offset: 0, Size: params.cur.sizeInBytes(),
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: frame.view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: sampler.NativeHandle(),
			}},
			{Binding: 3, Resource: gputypes.BufferBinding{
				Buffer: idx.buf.NativeHandle(), Offset: 0, Size: idx.size(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create glyph_compute bind group: %w", err)
	}
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
	}
	s.bindGroup = bg
	s.bindGen = idx.gen
	return nil
}

// encode records the compute pass: one dispatch covering the whole grid,
// with the shader's own bounds checks handling the ragged edge.
func (s *computeStage) encode(encoder hal.CommandEncoder, gridW, gridH uint32) {
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "glyph_compute_pass"})
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(0, s.bindGroup, nil)
	gx := (gridW + glyphWGSize - 1) / glyphWGSize
	gy := (gridH + glyphWGSize - 1) / glyphWGSize
	pass.Dispatch(gx, gy, 1)
	pass.End()
}

// destroy releases all stage resources. Safe on a partially built stage.
func (s *computeStage) destroy() {
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.pipeline != nil {
		s.device.DestroyComputePipeline(s.pipeline)
		s.pipeline = nil
	}
	if s.pipeLayout != nil {
		s.device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.bgLayout != nil {
		s.device.DestroyBindGroupLayout(s.bgLayout)
		s.bgLayout = nil
	}
	if s.module != nil {
		s.device.DestroyShaderModule(s.module)
		s.module = nil
	}
}
