package outline

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSpecializer wraps the outline pipeline and counts specializer calls.
type countingSpecializer struct {
	inner pipeline.Specializer[PipelineKey]
	calls atomic.Int32
	keys  chan PipelineKey
}

func (c *countingSpecializer) Specialize(key PipelineKey, layout pipeline.VertexLayout) (pipeline.Pipeline, error) {
	c.calls.Add(1)
	if c.keys != nil {
		c.keys <- key
	}
	return c.inner.Specialize(key, layout)
}

type testRig struct {
	res         *Resources
	specializer *countingSpecializer
	cube        mesh.Handle
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	meshes := mesh.NewAssets()
	cube := mesh.NewHandle()
	meshes.Insert(cube, mesh.GPUMesh{
		Topology:    wgpu.PrimitiveTopologyTriangleList,
		Layout:      mesh.StandardLayout(),
		VertexCount: 24,
		IndexCount:  36,
	})

	counting := &countingSpecializer{inner: NewPipeline()}
	res := &Resources{
		Meshes:                   meshes,
		Base:                     counting,
		Specialized:              pipeline.NewSpecialized[PipelineKey](),
		Pipelines:                pipeline.NewCache(),
		MSAA:                     4,
		Backend:                  wgpu.BackendTypeVulkan,
		StencilDrawFunctions:     NewDrawFunctions(),
		OpaqueDrawFunctions:      NewDrawFunctions(),
		TransparentDrawFunctions: NewDrawFunctions(),
	}
	RegisterDrawFunctions(res.StencilDrawFunctions, res.OpaqueDrawFunctions, res.TransparentDrawFunctions)

	return &testRig{res: res, specializer: counting, cube: cube}
}

// identityView is a camera at the origin looking down -Z.
func identityView(layers *camera.RenderLayers) *View {
	var transform [16]float32
	transform[0], transform[5], transform[10], transform[15] = 1, 1, 1, 1
	return NewView(camera.NewExtractedView(transform, false, layers))
}

func layerPtr(l camera.RenderLayers) *camera.RenderLayers {
	return &l
}

func (r *testRig) volume(e Entity, alpha float32, z float32) VolumeEntity {
	return VolumeEntity{
		Entity:   e,
		Mesh:     r.cube,
		Uniform:  OutlineVolumeUniform{Origin: [3]float32{0, 0, z}, Offset: 0.1},
		Flags:    OutlineVolumeFlags{DepthMode: DepthModeReal},
		Fragment: OutlineFragmentUniform{Colour: [4]float32{1, 0, 0, alpha}},
		Layers:   camera.Layer(0),
	}
}

func (r *testRig) stencil(e Entity, z float32) StencilEntity {
	return StencilEntity{
		Entity:  e,
		Mesh:    r.cube,
		Uniform: OutlineStencilUniform{Origin: [3]float32{0, 0, z}},
		Flags:   OutlineStencilFlags{DepthMode: DepthModeReal},
		Layers:  camera.Layer(0),
	}
}

func TestQueueVolume_OpaqueEntity(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	view := identityView(layerPtr(camera.Layer(0)))

	err := QueueVolume(rig.res, []VolumeEntity{rig.volume(1, 1.0, -5)}, []*View{view})
	require.NoError(t, err)

	require.Equal(t, 1, view.Opaque.Len())
	assert.Equal(t, 0, view.Transparent.Len())
	assert.Equal(t, 0, view.Stencil.Len())

	item := view.Opaque.Items()[0]
	assert.Equal(t, Entity(1), item.Entity)
	assert.InDelta(t, 5.0, item.Distance, 1e-5)

	id, ok := rig.res.OpaqueDrawFunctions.ID(DrawOutline.Name)
	require.True(t, ok)
	assert.Equal(t, id, item.DrawFunction)
	assert.Equal(t, int32(1), rig.specializer.calls.Load())

	p, ok := rig.res.Pipelines.Get(item.Pipeline)
	require.True(t, ok)
	assert.Equal(t, uint32(4), p.SampleCount())
	assert.False(t, p.BlendEnabled())
}

func TestQueueVolume_AlphaClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		alpha       float32
		transparent bool
	}{
		{name: "fully opaque", alpha: 1.0, transparent: false},
		{name: "above one", alpha: 1.5, transparent: false},
		{name: "just below one", alpha: 0.999, transparent: true},
		{name: "half", alpha: 0.5, transparent: true},
		{name: "zero", alpha: 0, transparent: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rig := newTestRig(t)
			view := identityView(nil)

			err := QueueVolume(rig.res, []VolumeEntity{rig.volume(7, tc.alpha, -2)}, []*View{view})
			require.NoError(t, err)

			if tc.transparent {
				assert.Equal(t, 1, view.Transparent.Len())
				assert.Equal(t, 0, view.Opaque.Len())
				return
			}
			assert.Equal(t, 1, view.Opaque.Len())
			assert.Equal(t, 0, view.Transparent.Len())
		})
	}
}

func TestQueueVolume_TransparentEntityKey(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	rig.specializer.keys = make(chan PipelineKey, 1)

	e := rig.volume(2, 0.5, -3)
	e.Flags.DepthMode = DepthModeFlat
	e.Uniform.Offset = 0

	var transform [16]float32
	transform[0], transform[5], transform[10], transform[15] = 1, 1, 1, 1
	view := NewView(camera.NewExtractedView(transform, true, nil))

	require.NoError(t, QueueVolume(rig.res, []VolumeEntity{e}, []*View{view}))
	require.Equal(t, 1, view.Transparent.Len())

	want := NewPipelineKey().
		WithMSAA(4).
		WithPassType(PassTypeTransparent).
		WithPrimitiveTopology(wgpu.PrimitiveTopologyTriangleList).
		WithDepthMode(DepthModeFlat).
		WithOffsetZero(true).
		WithHDRFormat(true)
	assert.Equal(t, want, <-rig.specializer.keys)

	id, ok := rig.res.TransparentDrawFunctions.ID(DrawOutline.Name)
	require.True(t, ok)
	assert.Equal(t, id, view.Transparent.Items()[0].DrawFunction)
}

func TestQueue_InvalidDepthSkipped(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	view := identityView(nil)

	v := rig.volume(1, 1, -5)
	v.Flags.DepthMode = DepthModeInvalid
	s := rig.stencil(1, -5)
	s.Flags.DepthMode = DepthModeInvalid

	require.NoError(t, QueueVolume(rig.res, []VolumeEntity{v}, []*View{view}))
	require.NoError(t, QueueStencil(rig.res, []StencilEntity{s}, []*View{view}))

	assert.Equal(t, 0, view.Opaque.Len()+view.Transparent.Len()+view.Stencil.Len())
	assert.Equal(t, int32(0), rig.specializer.calls.Load())
}

func TestQueue_LayerMask(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		view   *camera.RenderLayers
		entity camera.RenderLayers
		queued bool
	}{
		{name: "shared layer", view: layerPtr(camera.Layers(0, 2)), entity: camera.Layers(2, 5), queued: true},
		{name: "disjoint", view: layerPtr(camera.Layer(1)), entity: camera.Layer(0), queued: false},
		{name: "empty entity mask", view: layerPtr(camera.AllLayers()), entity: camera.NoLayers(), queued: false},
		{name: "nil view mask matches all", view: nil, entity: camera.Layer(31), queued: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rig := newTestRig(t)
			view := identityView(tc.view)

			s := rig.stencil(1, -5)
			s.Layers = tc.entity
			v := rig.volume(1, 1, -5)
			v.Layers = tc.entity

			require.NoError(t, QueueStencil(rig.res, []StencilEntity{s}, []*View{view}))
			require.NoError(t, QueueVolume(rig.res, []VolumeEntity{v}, []*View{view}))

			want := 0
			if tc.queued {
				want = 1
			}
			assert.Equal(t, want, view.Stencil.Len())
			assert.Equal(t, want, view.Opaque.Len())
		})
	}
}

func TestQueue_MeshNotLoadedThenLoaded(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	view := identityView(nil)

	pending := mesh.NewHandle()
	s := rig.stencil(9, -4)
	s.Mesh = pending

	require.NoError(t, QueueStencil(rig.res, []StencilEntity{s}, []*View{view}))
	assert.Equal(t, 0, view.Stencil.Len())

	rig.res.Meshes.Insert(pending, mesh.GPUMesh{
		Topology: wgpu.PrimitiveTopologyTriangleList,
		Layout:   mesh.StandardLayout(),
	})
	view.clear()

	require.NoError(t, QueueStencil(rig.res, []StencilEntity{s}, []*View{view}))
	require.Equal(t, 1, view.Stencil.Len())
	assert.Equal(t, Entity(9), view.Stencil.Items()[0].Entity)
}

func TestQueue_MemoizesIdenticalKeys(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	view := identityView(nil)

	entities := []StencilEntity{rig.stencil(1, -1), rig.stencil(2, -2), rig.stencil(3, -3)}
	require.NoError(t, QueueStencil(rig.res, entities, []*View{view}))

	require.Equal(t, 3, view.Stencil.Len())
	items := view.Stencil.Items()
	assert.Equal(t, items[0].Pipeline, items[1].Pipeline)
	assert.Equal(t, items[0].Pipeline, items[2].Pipeline)
	assert.Equal(t, int32(1), rig.specializer.calls.Load())
	assert.Equal(t, 1, rig.res.Pipelines.Len())
}

func TestQueue_DistinctKeysDistinctPipelines(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	view := identityView(nil)

	flat := rig.stencil(2, -1)
	flat.Flags.DepthMode = DepthModeFlat
	nonZero := rig.stencil(3, -1)
	nonZero.Uniform.Offset = 0.5

	require.NoError(t, QueueStencil(rig.res, []StencilEntity{rig.stencil(1, -1), flat, nonZero}, []*View{view}))

	items := view.Stencil.Items()
	require.Len(t, items, 3)
	assert.NotEqual(t, items[0].Pipeline, items[1].Pipeline)
	assert.NotEqual(t, items[0].Pipeline, items[2].Pipeline)
	assert.NotEqual(t, items[1].Pipeline, items[2].Pipeline)
	assert.Equal(t, int32(3), rig.specializer.calls.Load())
}

func TestQueue_DistanceMonotonic(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	view := identityView(nil)

	near := rig.stencil(1, -2)
	far := rig.stencil(2, -20)
	require.NoError(t, QueueStencil(rig.res, []StencilEntity{far, near}, []*View{view}))

	items := view.Stencil.Items()
	require.Len(t, items, 2)
	assert.Equal(t, Entity(2), items[0].Entity)
	assert.Greater(t, items[0].Distance, items[1].Distance)

	view.Stencil.Sort()
	assert.Equal(t, Entity(1), view.Stencil.Items()[0].Entity)
}

func TestQueueStencil_OpenGLWorkaround(t *testing.T) {
	t.Parallel()

	for _, backend := range []wgpu.BackendType{wgpu.BackendTypeOpenGL, wgpu.BackendTypeOpenGLES} {
		rig := newTestRig(t)
		rig.res.Backend = backend
		rig.specializer.keys = make(chan PipelineKey, 1)
		view := identityView(nil)

		require.NoError(t, QueueStencil(rig.res, []StencilEntity{rig.stencil(1, -1)}, []*View{view}))
		key := <-rig.specializer.keys
		assert.True(t, key.OpenGLWorkaround())
		assert.Equal(t, PassTypeStencil, key.PassType())
		assert.Equal(t, uint32(4), key.MSAA())
	}
}

func TestQueue_MissingDrawFunction(t *testing.T) {
	t.Parallel()

	t.Run("stencil", func(t *testing.T) {
		t.Parallel()
		rig := newTestRig(t)
		rig.res.StencilDrawFunctions = NewDrawFunctions()

		err := QueueStencil(rig.res, []StencilEntity{rig.stencil(1, -1)}, []*View{identityView(nil)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDrawFunctionNotRegistered))
	})

	t.Run("transparent", func(t *testing.T) {
		t.Parallel()
		rig := newTestRig(t)
		rig.res.TransparentDrawFunctions = nil

		// fails even with no entities: ids are resolved before iterating
		err := QueueVolume(rig.res, nil, []*View{identityView(nil)})
		require.ErrorIs(t, err, ErrDrawFunctionNotRegistered)
	})
}

func TestQueue_SpecializationFailure(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)
	rig.res.MSAA = 3
	view := identityView(nil)

	err := QueueVolume(rig.res, []VolumeEntity{rig.volume(1, 1, -1)}, []*View{view})
	require.ErrorIs(t, err, pipeline.ErrSpecialization)
	assert.Equal(t, 0, rig.res.Pipelines.Len())
}

func TestQueue_ViewWithoutPhasesSkipped(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	view := identityView(nil)
	view.Stencil = nil
	view.Transparent = nil

	require.NoError(t, QueueStencil(rig.res, []StencilEntity{rig.stencil(1, -1)}, []*View{view}))
	require.NoError(t, QueueVolume(rig.res, []VolumeEntity{rig.volume(1, 1, -1)}, []*View{view}))
	assert.Equal(t, 0, view.Opaque.Len())
}

func TestQueue_MultipleViews(t *testing.T) {
	t.Parallel()
	rig := newTestRig(t)

	front := identityView(layerPtr(camera.Layer(0)))
	other := identityView(layerPtr(camera.Layer(1)))

	require.NoError(t, QueueVolume(rig.res, []VolumeEntity{rig.volume(1, 1, -5)}, []*View{front, other}))
	assert.Equal(t, 1, front.Opaque.Len())
	assert.Equal(t, 0, other.Opaque.Len())
}
