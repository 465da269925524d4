package outline

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderDefs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		key  PipelineKey
		want []string
	}{
		{
			name: "stencil real",
			key:  NewPipelineKey().WithDepthMode(DepthModeReal),
			want: []string{ShaderDefStencilPass},
		},
		{
			name: "opaque flat offset zero",
			key:  NewPipelineKey().WithPassType(PassTypeOpaque).WithDepthMode(DepthModeFlat).WithOffsetZero(true),
			want: []string{ShaderDefOffsetZero, ShaderDefFlatDepth},
		},
		{
			name: "transparent gl",
			key:  NewPipelineKey().WithPassType(PassTypeTransparent).WithDepthMode(DepthModeReal).WithOpenGLWorkaround(true),
			want: []string{ShaderDefTransparent, ShaderDefOpenGLWorkaround},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, ShaderDefs(tc.key)); diff != "" {
				t.Errorf("ShaderDefs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPipeline_SpecializeStencil(t *testing.T) {
	t.Parallel()
	key := NewPipelineKey().WithMSAA(4).WithDepthMode(DepthModeReal)

	p, err := NewPipeline().Specialize(key, mesh.StandardLayout())
	require.NoError(t, err)

	assert.Equal(t, "outline_"+key.String(), p.PipelineKey())
	assert.False(t, p.ColorTargetEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, uint32(4), p.SampleCount())
	require.NotNil(t, p.Stencil())
	assert.Equal(t, wgpu.StencilOperationReplace, p.Stencil().PassOp)
	assert.Equal(t, uint32(stencilReference), p.StencilReference())
	assert.Len(t, p.VertexLayouts(), 1)

	assert.NotContains(t, p.ShaderSource(), "#ifdef")
	assert.NotContains(t, p.ShaderSource(), "@fragment")
}

func TestPipeline_SpecializeVolume(t *testing.T) {
	t.Parallel()
	base := NewPipelineKey().WithDepthMode(DepthModeFlat)

	opaque, err := NewPipeline().Specialize(base.WithPassType(PassTypeOpaque), mesh.StandardLayout())
	require.NoError(t, err)
	assert.True(t, opaque.ColorTargetEnabled())
	assert.False(t, opaque.BlendEnabled())
	assert.True(t, opaque.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeFront, opaque.CullMode())
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, opaque.ColorFormat())
	assert.Equal(t, wgpu.CompareFunctionNotEqual, opaque.Stencil().Compare)
	assert.Contains(t, opaque.ShaderSource(), "@fragment")
	assert.Contains(t, opaque.ShaderSource(), "flat_depth")

	transparent, err := NewPipeline().Specialize(base.WithPassType(PassTypeTransparent).WithHDRFormat(true), mesh.StandardLayout())
	require.NoError(t, err)
	assert.True(t, transparent.BlendEnabled())
	assert.False(t, transparent.DepthWriteEnabled())
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, transparent.ColorFormat())
	assert.True(t, strings.Contains(transparent.ShaderSource(), "fstage.colour;"))
}

func TestPipeline_SpecializeRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		key  PipelineKey
		want error
	}{
		{name: "invalid depth", key: NewPipelineKey(), want: errInvalidDepthMode},
		{name: "msaa 3", key: NewPipelineKey().WithDepthMode(DepthModeReal).WithMSAA(3), want: errInvalidMSAA},
		{name: "msaa 0", key: NewPipelineKey().WithDepthMode(DepthModeReal).WithMSAA(0), want: errInvalidMSAA},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewPipeline().Specialize(tc.key, mesh.StandardLayout())
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPipeline_UnknownPassType(t *testing.T) {
	t.Parallel()
	_, err := NewPipeline().Specialize(NewPipelineKey().WithDepthMode(DepthModeReal).WithPassType(PassType(7)), mesh.StandardLayout())
	require.Error(t, err)
}

func TestBindGroupLayouts(t *testing.T) {
	t.Parallel()

	stencil := BindGroupLayouts(PassTypeStencil)
	require.Len(t, stencil, 4)
	require.Len(t, stencil[GroupOutline].Entries, 1)
	assert.Equal(t, "outline_stencil", stencil[GroupOutline].Label)
	assert.Equal(t, wgpu.ShaderStageVertex, stencil[GroupOutline].Entries[0].Visibility)

	volume := BindGroupLayouts(PassTypeTransparent)
	require.Len(t, volume, 4)
	outline := volume[GroupOutline]
	require.Len(t, outline.Entries, 2)
	assert.Equal(t, "outline_volume", outline.Label)
	assert.Equal(t, uint32(0), outline.Entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex, outline.Entries[0].Visibility)
	assert.Equal(t, uint32(1), outline.Entries[1].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, outline.Entries[1].Visibility)
	for g := GroupMeshView; g <= GroupOutline; g++ {
		for _, e := range volume[g].Entries {
			assert.Equal(t, wgpu.BufferBindingTypeUniform, e.Buffer.Type, "group %d", g)
		}
	}

	p, err := NewPipeline().Specialize(NewPipelineKey().WithPassType(PassTypeOpaque).WithDepthMode(DepthModeReal), mesh.StandardLayout())
	require.NoError(t, err)
	assert.Equal(t, 4, pipeline.GroupCount(p.BindGroupLayouts()))
}
