package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend counts object creation and records the descriptors it was handed.
type fakeBackend struct {
	modules          int
	bindGroupLayouts int
	pipelineLayouts  int
	pipelines        []*wgpu.RenderPipelineDescriptor
	layoutSlots      []int
	released         bool

	failPipeline error
}

func (f *fakeBackend) CreateShaderModule(label, source string) (*wgpu.ShaderModule, error) {
	f.modules++
	return new(wgpu.ShaderModule), nil
}

func (f *fakeBackend) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	f.bindGroupLayouts++
	return new(wgpu.BindGroupLayout), nil
}

func (f *fakeBackend) CreatePipelineLayout(label string, layouts []*wgpu.BindGroupLayout) (*wgpu.PipelineLayout, error) {
	f.pipelineLayouts++
	f.layoutSlots = append(f.layoutSlots, len(layouts))
	return new(wgpu.PipelineLayout), nil
}

func (f *fakeBackend) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	if f.failPipeline != nil {
		return nil, f.failPipeline
	}
	f.pipelines = append(f.pipelines, desc)
	return new(wgpu.RenderPipeline), nil
}

func (f *fakeBackend) Release() {
	f.released = true
}

func specialize(t *testing.T, key outline.PipelineKey) pipeline.Pipeline {
	t.Helper()
	p, err := outline.NewPipeline().Specialize(key, mesh.StandardLayout())
	require.NoError(t, err)
	return p
}

func TestRenderer_RegisterPipeline(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	r, err := NewRenderer(WithBackend(backend))
	require.NoError(t, err)

	base := outline.NewPipelineKey().WithDepthMode(outline.DepthModeReal)
	stencil := specialize(t, base)
	opaque := specialize(t, base.WithPassType(outline.PassTypeOpaque))
	opaqueMSAA := specialize(t, base.WithPassType(outline.PassTypeOpaque).WithMSAA(4))

	for _, p := range []pipeline.Pipeline{stencil, opaque, opaqueMSAA} {
		require.NoError(t, r.RegisterPipeline(p))
		assert.NotNil(t, p.RenderPipeline())
	}

	assert.Equal(t, 3, r.Registered())
	require.Len(t, backend.pipelines, 3)
	// opaque variants differ only in sample count and share a shader module
	assert.Equal(t, 2, backend.modules)
	// every group holds one vertex uniform except the volume group, which adds a fragment uniform
	assert.Equal(t, 2, backend.bindGroupLayouts)
	assert.Equal(t, 2, backend.pipelineLayouts)
	assert.Equal(t, []int{4, 4}, backend.layoutSlots)

	assert.Nil(t, backend.pipelines[0].Fragment)
	require.NotNil(t, backend.pipelines[1].Fragment)
	assert.Equal(t, uint32(4), backend.pipelines[2].Multisample.Count)
}

func TestRenderer_SkipsCreated(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	r, err := NewRenderer(WithBackend(backend))
	require.NoError(t, err)

	p := specialize(t, outline.NewPipelineKey().WithDepthMode(outline.DepthModeFlat))
	require.NoError(t, r.RegisterPipeline(p))
	require.NoError(t, r.RegisterPipeline(p))

	assert.Equal(t, 1, r.Registered())
	assert.Len(t, backend.pipelines, 1)
}

func TestRenderer_DrainsCache(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	r, err := NewRenderer(WithBackend(backend))
	require.NoError(t, err)

	c := pipeline.NewCache()
	base := outline.NewPipelineKey().WithDepthMode(outline.DepthModeReal)
	c.Queue(specialize(t, base))
	c.Queue(specialize(t, base.WithPassType(outline.PassTypeTransparent)))

	require.NoError(t, c.Drain(r.RegisterPipeline))
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t, 2, r.Registered())
}

func TestRenderer_CreateFails(t *testing.T) {
	t.Parallel()
	boom := errors.New("device lost")
	backend := &fakeBackend{failPipeline: boom}
	r, err := NewRenderer(WithBackend(backend))
	require.NoError(t, err)

	p := specialize(t, outline.NewPipelineKey().WithDepthMode(outline.DepthModeReal))
	err = r.RegisterPipeline(p)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), p.PipelineKey())
	assert.Nil(t, p.RenderPipeline())
	assert.Equal(t, 0, r.Registered())
}

func TestRenderer_Release(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{}
	r, err := NewRenderer(WithBackend(backend))
	require.NoError(t, err)

	var released []string
	r.(*renderer).releaseObject = func(o gpuObject) {
		released = append(released, fmt.Sprintf("%T", o))
	}

	base := outline.NewPipelineKey().WithDepthMode(outline.DepthModeReal)
	stencil := specialize(t, base)
	opaque := specialize(t, base.WithPassType(outline.PassTypeOpaque))
	for _, p := range []pipeline.Pipeline{stencil, opaque} {
		require.NoError(t, r.RegisterPipeline(p))
	}

	r.Release()
	r.Release()
	assert.True(t, backend.released)

	// two pipelines, two pipeline layouts, two bind group layouts, two shader modules, each released once
	assert.Equal(t, []string{
		"*wgpu.RenderPipeline", "*wgpu.RenderPipeline",
		"*wgpu.PipelineLayout", "*wgpu.PipelineLayout",
		"*wgpu.BindGroupLayout", "*wgpu.BindGroupLayout",
		"*wgpu.ShaderModule", "*wgpu.ShaderModule",
	}, released)
	assert.Nil(t, stencil.RenderPipeline())
	assert.Nil(t, opaque.RenderPipeline())

	p := specialize(t, outline.NewPipelineKey().WithDepthMode(outline.DepthModeReal))
	require.ErrorIs(t, r.RegisterPipeline(p), ErrReleased)
}
