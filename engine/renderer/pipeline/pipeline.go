package pipeline

import (
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the CPU-side description of one specialized render pipeline and, once the GPU backend
// has created it, the underlying WebGPU pipeline object.
type pipeline struct {
	// pipelineKey is the label of this pipeline, used for logging and GPU object labels
	pipelineKey string

	// shaderSource is the pre-processed WGSL source shared by the vertex and fragment stages
	shaderSource   string
	vertexEntry    string
	fragmentEntry  string
	shaderDefs     []string
	vertexLayouts  []wgpu.VertexBufferLayout
	renderPipeline *wgpu.RenderPipeline

	// bindGroupLayouts are the merged layouts of both stages keyed by group index
	bindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.

	sampleCount         uint32
	colorFormat         wgpu.TextureFormat
	colorTargetEnabled  bool
	depthFormat         wgpu.TextureFormat
	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        wgpu.CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	stencil             *wgpu.StencilFaceState
	stencilReference    uint32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline defines the interface for a render pipeline description. It holds all configuration
// state required for pipeline creation including shader stages, vertex layout, multisampling,
// colour target, depth, stencil, blend, cull and topology settings.
type Pipeline interface {
	// PipelineKey returns the label associated with this pipeline.
	//
	// Returns:
	//   - string: the pipeline label
	PipelineKey() string

	// ShaderSource returns the pre-processed WGSL source for both shader stages.
	//
	// Returns:
	//   - string: the WGSL source
	ShaderSource() string

	// VertexEntryPoint returns the name of the vertex stage entry point.
	//
	// Returns:
	//   - string: the vertex entry point
	VertexEntryPoint() string

	// FragmentEntryPoint returns the name of the fragment stage entry point.
	//
	// Returns:
	//   - string: the fragment entry point
	FragmentEntryPoint() string

	// ShaderDefs returns the shader definitions the source was pre-processed with.
	//
	// Returns:
	//   - []string: a copy of the shader definitions, in insertion order
	ShaderDefs() []string

	// VertexLayouts returns the vertex buffer layouts consumed by the vertex stage.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayouts returns the bind group layouts the shader declares, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the layouts, or nil if none were set
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// SampleCount returns the multisample count of the pipeline's targets.
	//
	// Returns:
	//   - uint32: the sample count (1 means no MSAA)
	SampleCount() uint32

	// ColorFormat returns the texture format of the colour target.
	//
	// Returns:
	//   - wgpu.TextureFormat: the colour target format
	ColorFormat() wgpu.TextureFormat

	// ColorTargetEnabled reports whether the pipeline has a fragment stage writing a colour target.
	//
	// Returns:
	//   - bool: false for depth/stencil only pipelines
	ColorTargetEnabled() bool

	// DepthFormat returns the format of the depth/stencil attachment.
	//
	// Returns:
	//   - wgpu.TextureFormat: the depth/stencil format
	DepthFormat() wgpu.TextureFormat

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthCompare returns the comparison used when depth testing is enabled.
	//
	// Returns:
	//   - wgpu.CompareFunction: the depth comparison
	DepthCompare() wgpu.CompareFunction

	// DepthBias returns the depth bias value configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	//
	// Returns:
	//   - float32: the depth bias slope scale for this pipeline
	DepthBiasSlopeScale() float32

	// Stencil returns the stencil face state applied to both faces, or nil when stencil is unused.
	//
	// Returns:
	//   - *wgpu.StencilFaceState: the stencil face state or nil
	Stencil() *wgpu.StencilFaceState

	// StencilReference returns the stencil reference value set before drawing with this pipeline.
	//
	// Returns:
	//   - uint32: the stencil reference
	StencilReference() uint32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleList)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline (e.g., wgpu.ColorWriteMaskAll)
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline, or nil if blending is not enabled
	BlendState() *wgpu.BlendState

	// RenderPipeline returns the GPU pipeline object, or nil until the backend has created it.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new render Pipeline description.
//
// Parameters:
//   - pipelineKey: the label for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:        pipelineKey,
		vertexEntry:        "vertex",
		fragmentEntry:      "fragment",
		sampleCount:        1,
		colorFormat:        wgpu.TextureFormatBGRA8UnormSrgb,
		colorTargetEnabled: true,
		depthFormat:        wgpu.TextureFormatDepth24PlusStencil8,
		depthTestEnabled:   true,
		depthWriteEnabled:  true,
		depthCompare:       wgpu.CompareFunctionLess,
		blendEnabled:       false,
		cullMode:           wgpu.CullModeNone,
		topology:           wgpu.PrimitiveTopologyTriangleList,
		frontFace:          wgpu.FrontFaceCCW,
		writeMask:          wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) ShaderSource() string {
	return p.shaderSource
}

func (p *pipeline) VertexEntryPoint() string {
	return p.vertexEntry
}

func (p *pipeline) FragmentEntryPoint() string {
	return p.fragmentEntry
}

func (p *pipeline) ShaderDefs() []string {
	return slices.Clone(p.shaderDefs)
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.bindGroupLayouts
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) ColorFormat() wgpu.TextureFormat {
	return p.colorFormat
}

func (p *pipeline) ColorTargetEnabled() bool {
	return p.colorTargetEnabled
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) Stencil() *wgpu.StencilFaceState {
	return p.stencil
}

func (p *pipeline) StencilReference() uint32 {
	return p.stencilReference
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
