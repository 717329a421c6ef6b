// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// renderStage owns the glyph grid render pipeline. The vertex stage
// generates a full-surface triangle pair from the vertex index, so there is
// no vertex buffer; the fragment stage reads the index buffer written by
// the compute stage and samples atlas tiles.
type renderStage struct {
	device hal.Device

	module     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	bindGroup hal.BindGroup
	bindGen   uint64 // index buffer generation the bind group was built against
}

// newRenderStage compiles the render shader and builds the pipeline against
// a BGRA8 color target.
func newRenderStage(device hal.Device) (*renderStage, error) {
	s := &renderStage{device: device}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "glyph_render",
		Source: hal.ShaderSource{WGSL: glyphRenderShaderSource},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile glyph_render shader: %w", err)
	}
	s.module = module

	// @binding(0) uniform params
	// @binding(1) texture_2d atlas_tex
	// @binding(2) sampler atlas_samp
	// @binding(3) storage(read) indices
	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glyph_render_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("wgpu: create glyph_render bind group layout: %w", err)
	}
	s.bgLayout = bgLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glyph_render_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("wgpu: create glyph_render pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "glyph_render",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("wgpu: create glyph_render pipeline: %w", err)
	}
	s.pipeline = pipeline

	return s, nil
}

// rebind replaces the bind group with one referencing the current
// resources. Called at init, after an atlas texture swap, and after an
// index buffer swap.
func (s *renderStage) rebind(params *paramBuffer, atlas *atlasTexture, sampler hal.Sampler, idx *indexBuffer) error {
	bg, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "glyph_render_bind",
		Layout: s.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: params.buf.NativeHandle(), Offset: 0, Size: params.cur.sizeInBytes(),
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: atlas.view.NativeHandle(),
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
		return fmt.Errorf("wgpu: create glyph_render bind group: %w", err)
	}
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
	}
	s.bindGroup = bg
	s.bindGen = idx.gen
	return nil
}

// encode records the render pass: clear, one draw of six vertices.
func (s *renderStage) encode(encoder hal.CommandEncoder, target hal.TextureView) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "glyph_render_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rp.SetPipeline(s.pipeline)
	rp.SetBindGroup(0, s.bindGroup, nil)
	rp.Draw(6, 1, 0, 0)
	rp.End()
}

// destroy releases all stage resources. Safe on a partially built stage.
func (s *renderStage) destroy() {
	if s.bindGroup != nil {
		s.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.pipeline != nil {
		s.device.DestroyRenderPipeline(s.pipeline)
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
