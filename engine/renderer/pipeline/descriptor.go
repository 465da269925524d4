package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// RenderPipelineDescriptor converts a pipeline description into the descriptor handed to
// wgpu.Device.CreateRenderPipeline. The shader module and pipeline layout are created by the
// GPU backend and passed in.
//
// Parameters:
//   - p: the pipeline description
//   - module: the shader module compiled from p.ShaderSource()
//   - layout: the pipeline layout holding the bind group layouts
//
// Returns:
//   - *wgpu.RenderPipelineDescriptor: the descriptor ready for pipeline creation
func RenderPipelineDescriptor(p Pipeline, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) *wgpu.RenderPipelineDescriptor {
	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: p.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
	}

	if p.ColorTargetEnabled() {
		state := wgpu.ColorTargetState{
			Format:    p.ColorFormat(),
			WriteMask: p.WriteMask(),
		}
		if p.BlendEnabled() {
			state.Blend = p.BlendState()
		}
		desc.Fragment = &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntryPoint(),
			Targets:    []wgpu.ColorTargetState{state},
		}
	}

	depthCompare := p.DepthCompare()
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}
	ds := &wgpu.DepthStencilState{
		Format:              p.DepthFormat(),
		DepthWriteEnabled:   p.DepthWriteEnabled(),
		DepthCompare:        depthCompare,
		DepthBias:           p.DepthBias(),
		DepthBiasSlopeScale: p.DepthBiasSlopeScale(),
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
	if s := p.Stencil(); s != nil {
		ds.StencilFront = *s
		ds.StencilBack = *s
		ds.StencilReadMask = 0xFF
		ds.StencilWriteMask = 0xFF
	}
	desc.DepthStencil = ds

	return desc
}
