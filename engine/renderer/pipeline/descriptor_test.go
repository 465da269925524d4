package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPipelineDescriptor_ColorTarget(t *testing.T) {
	t.Parallel()
	p := NewPipeline("volume",
		WithSampleCount(4),
		WithColorFormat(wgpu.TextureFormatRGBA16Float),
		WithBlendEnabled(true),
		WithCullMode(wgpu.CullModeFront),
	)

	desc := RenderPipelineDescriptor(p, nil, nil)
	assert.Equal(t, "volume Render Pipeline", desc.Label)
	assert.Equal(t, uint32(4), desc.Multisample.Count)
	assert.Equal(t, wgpu.CullModeFront, desc.Primitive.CullMode)

	require.NotNil(t, desc.Fragment)
	require.Len(t, desc.Fragment.Targets, 1)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, desc.Fragment.Targets[0].Format)
	assert.NotNil(t, desc.Fragment.Targets[0].Blend)
	assert.Equal(t, "fragment", desc.Fragment.EntryPoint)
}

func TestRenderPipelineDescriptor_StencilOnly(t *testing.T) {
	t.Parallel()
	stencil := wgpu.StencilFaceState{
		Compare: wgpu.CompareFunctionAlways,
		PassOp:  wgpu.StencilOperationReplace,
	}
	p := NewPipeline("stencil",
		WithColorTargetEnabled(false),
		WithDepthWriteEnabled(false),
		WithStencil(stencil, 1),
	)

	desc := RenderPipelineDescriptor(p, nil, nil)
	assert.Nil(t, desc.Fragment)
	require.NotNil(t, desc.DepthStencil)
	assert.False(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, stencil, desc.DepthStencil.StencilFront)
	assert.Equal(t, stencil, desc.DepthStencil.StencilBack)
	assert.Equal(t, uint32(0xFF), desc.DepthStencil.StencilWriteMask)
}

func TestRenderPipelineDescriptor_DepthTestDisabled(t *testing.T) {
	t.Parallel()
	p := NewPipeline("overlay", WithDepthTestEnabled(false))
	desc := RenderPipelineDescriptor(p, nil, nil)
	assert.Equal(t, wgpu.CompareFunctionAlways, desc.DepthStencil.DepthCompare)
}
