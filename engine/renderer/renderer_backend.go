package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackend creates the GPU objects a render pipeline is built from.
// The Renderer decides what to create and caches the results; the backend only talks to the device.
type RendererBackend interface {
	// CreateShaderModule compiles WGSL source into a shader module.
	//
	// Parameters:
	//   - label: the debug label of the module
	//   - source: the WGSL source
	//
	// Returns:
	//   - *wgpu.ShaderModule: the compiled module
	//   - error: an error if compilation fails
	CreateShaderModule(label, source string) (*wgpu.ShaderModule, error)

	// CreateBindGroupLayout creates a bind group layout from its descriptor.
	//
	// Parameters:
	//   - desc: the layout descriptor
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	//   - error: an error if creation fails
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)

	// CreatePipelineLayout creates a pipeline layout from bind group layouts in group index order.
	//
	// Parameters:
	//   - label: the debug label of the layout
	//   - layouts: the bind group layouts, one per group slot
	//
	// Returns:
	//   - *wgpu.PipelineLayout: the pipeline layout
	//   - error: an error if creation fails
	CreatePipelineLayout(label string, layouts []*wgpu.BindGroupLayout) (*wgpu.PipelineLayout, error)

	// CreateRenderPipeline creates a render pipeline.
	//
	// Parameters:
	//   - desc: the render pipeline descriptor
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the pipeline
	//   - error: an error if creation fails
	CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)

	// Release releases the device and everything it owns.
	Release()
}
