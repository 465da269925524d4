package outline

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// outlineShaderSource holds every outline pipeline variant behind shader defs.
//
//go:embed assets/outline.wgsl
var outlineShaderSource string

// Shader defs set by Pipeline.Specialize.
const (
	ShaderDefStencilPass      = "STENCIL_PASS"
	ShaderDefTransparent      = "TRANSPARENT"
	ShaderDefOffsetZero       = "OFFSET_ZERO"
	ShaderDefFlatDepth        = "FLAT_DEPTH"
	ShaderDefOpenGLWorkaround = "OPENGL_WORKAROUND"
)

// stencilReference is written by the stencil pass and tested by the volume passes.
const stencilReference = 1

var (
	errInvalidDepthMode = errors.New("depth mode not propagated")
	errInvalidMSAA      = errors.New("unsupported MSAA sample count")
)

// Pipeline is the base outline pipeline. It builds the pipeline description of every
// outline variant from a PipelineKey and the mesh's vertex layout.
type Pipeline struct {
	source string
	pp     shader.PreProcessor
}

var _ pipeline.Specializer[PipelineKey] = &Pipeline{}

// NewPipeline creates the base outline pipeline using the embedded outline shader.
//
// Returns:
//   - *Pipeline: the base pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{
		source: outlineShaderSource,
		pp:     shader.NewPreProcessor(),
	}
}

// ShaderDefs returns the shader defs a key selects, in a fixed order.
//
// Parameters:
//   - key: the specialization key
//
// Returns:
//   - []string: the shader defs
func ShaderDefs(key PipelineKey) []string {
	var defs []string
	switch key.PassType() {
	case PassTypeStencil:
		defs = append(defs, ShaderDefStencilPass)
	case PassTypeTransparent:
		defs = append(defs, ShaderDefTransparent)
	}
	if key.OffsetZero() {
		defs = append(defs, ShaderDefOffsetZero)
	}
	if key.DepthMode() == DepthModeFlat {
		defs = append(defs, ShaderDefFlatDepth)
	}
	if key.OpenGLWorkaround() {
		defs = append(defs, ShaderDefOpenGLWorkaround)
	}
	return defs
}

// Specialize builds the description of the variant selected by key for meshes with layout.
//
// Parameters:
//   - key: the specialization key
//   - layout: the mesh vertex layout
//
// Returns:
//   - pipeline.Pipeline: the pipeline description
//   - error: an error if the key has an invalid depth mode or sample count, or the shader fails to pre-process
func (p *Pipeline) Specialize(key PipelineKey, layout pipeline.VertexLayout) (pipeline.Pipeline, error) {
	if key.DepthMode() == DepthModeInvalid {
		return nil, errInvalidDepthMode
	}
	switch key.MSAA() {
	case 1, 4, 8, 16:
	default:
		return nil, fmt.Errorf("%w: %d", errInvalidMSAA, key.MSAA())
	}

	defs := ShaderDefs(key)
	source, err := p.pp.Process(p.source, defs...)
	if err != nil {
		return nil, fmt.Errorf("failed to pre-process outline shader: %w", err)
	}

	colorFormat := wgpu.TextureFormatBGRA8UnormSrgb
	if key.HDRFormat() {
		colorFormat = wgpu.TextureFormatRGBA16Float
	}

	opts := []pipeline.PipelineBuilderOption{
		pipeline.WithShaderSource(source),
		pipeline.WithShaderDefs(defs...),
		pipeline.WithVertexLayouts(layout.Buffers...),
		pipeline.WithBindGroupLayouts(BindGroupLayouts(key.PassType())),
		pipeline.WithTopology(key.PrimitiveTopology()),
		pipeline.WithSampleCount(key.MSAA()),
		pipeline.WithColorFormat(colorFormat),
		pipeline.WithDepthFormat(wgpu.TextureFormatDepth24PlusStencil8),
		pipeline.WithDepthCompare(wgpu.CompareFunctionLessEqual),
	}

	switch key.PassType() {
	case PassTypeStencil:
		opts = append(opts,
			pipeline.WithColorTargetEnabled(false),
			pipeline.WithCullMode(wgpu.CullModeBack),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithStencil(wgpu.StencilFaceState{
				Compare:     wgpu.CompareFunctionAlways,
				FailOp:      wgpu.StencilOperationKeep,
				DepthFailOp: wgpu.StencilOperationKeep,
				PassOp:      wgpu.StencilOperationReplace,
			}, stencilReference),
		)
	case PassTypeOpaque:
		opts = append(opts,
			pipeline.WithCullMode(wgpu.CullModeFront),
			pipeline.WithBlendEnabled(false),
			pipeline.WithDepthWriteEnabled(true),
			pipeline.WithStencil(volumeStencil(), stencilReference),
		)
	case PassTypeTransparent:
		opts = append(opts,
			pipeline.WithCullMode(wgpu.CullModeFront),
			pipeline.WithBlendEnabled(true),
			pipeline.WithDepthWriteEnabled(false),
			pipeline.WithStencil(volumeStencil(), stencilReference),
		)
	default:
		return nil, fmt.Errorf("unknown pass type %v", key.PassType())
	}

	return pipeline.NewPipeline("outline_"+key.String(), opts...), nil
}

// Bind group indices used by the outline shader. Draw functions bind them in this order.
const (
	GroupMeshView = iota
	GroupMesh
	GroupOutlineView
	GroupOutline
)

// BindGroupLayouts returns the bind group layouts the outline shader declares for a pass.
// The stencil pass has no fragment stage, so its outline group holds only the vertex uniform.
//
// Parameters:
//   - pass: the pass type
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged layouts keyed by group index
func BindGroupLayouts(pass PassType) map[int]wgpu.BindGroupLayoutDescriptor {
	outlineLabel := "outline_volume"
	if pass == PassTypeStencil {
		outlineLabel = "outline_stencil"
	}

	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		GroupMeshView: {
			Label:   "mesh_view",
			Entries: []wgpu.BindGroupLayoutEntry{pipeline.UniformEntry(0, wgpu.ShaderStageVertex)},
		},
		GroupMesh: {
			Label:   "mesh",
			Entries: []wgpu.BindGroupLayoutEntry{pipeline.UniformEntry(0, wgpu.ShaderStageVertex)},
		},
		GroupOutlineView: {
			Label:   "outline_view",
			Entries: []wgpu.BindGroupLayoutEntry{pipeline.UniformEntry(0, wgpu.ShaderStageVertex)},
		},
		GroupOutline: {
			Label:   outlineLabel,
			Entries: []wgpu.BindGroupLayoutEntry{pipeline.UniformEntry(0, wgpu.ShaderStageVertex)},
		},
	}
	if pass == PassTypeStencil {
		return pipeline.MergeBindGroupLayouts(vertex, nil)
	}

	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		GroupOutline: {
			Label:   outlineLabel,
			Entries: []wgpu.BindGroupLayoutEntry{pipeline.UniformEntry(1, wgpu.ShaderStageFragment)},
		},
	}
	return pipeline.MergeBindGroupLayouts(vertex, fragment)
}

// volumeStencil masks the outline volume out wherever the stencil pass drew the mesh.
func volumeStencil() wgpu.StencilFaceState {
	return wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionNotEqual,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
}
