package engine

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-outline/engine/config"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScene = `
[[mesh]]
name = "cube"
vertices = 24
indices = 36

[[mesh]]
name = "streaming"
pending = true

[[camera]]
key = 1
position = [0.0, 0.0, 10.0]
layers = [0]

[[camera]]
key = 0
position = [0.0, 0.0, 10.0]
hdr = true
layers = [1]

[[entity]]
name = "near"
mesh = "cube"
depth = "real"
[entity.stencil]
origin = [0.0, 0.0, 5.0]
[entity.volume]
origin = [0.0, 0.0, 5.0]
offset = 0.05
colour = [1.0, 1.0, 0.0, 1.0]

[[entity]]
name = "far"
mesh = "cube"
parent = "near"
[entity.stencil]
origin = [0.0, 0.0, -5.0]
[entity.volume]
origin = [0.0, 0.0, -5.0]
offset = 0.05
colour = [0.0, 1.0, 1.0, 1.0]

[[entity]]
name = "ghost"
mesh = "cube"
depth = "flat"
layers = [1]
[entity.volume]
colour = [1.0, 1.0, 1.0, 0.5]

[[entity]]
name = "loading"
mesh = "streaming"
[entity.stencil]
`

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (Engine, SceneHandles) {
	t.Helper()
	sc, err := config.ParseScene([]byte(testScene))
	require.NoError(t, err)

	logger := log.New(io.Discard)
	e := NewEngine(append([]EngineBuilderOption{WithLogger(logger), WithWorkers(2)}, options...)...)
	t.Cleanup(e.Quit)
	handles, err := LoadScene(e, sc)
	require.NoError(t, err)
	return e, handles
}

func TestRenderFrame(t *testing.T) {
	t.Parallel()
	var registered []string
	e, handles := newTestEngine(t, WithPipelineRegistrar(func(p pipeline.Pipeline) error {
		registered = append(registered, p.PipelineKey())
		return nil
	}))

	res, err := e.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Frame)
	assert.Equal(t, []int{0, 1}, res.CameraKeys)
	require.Len(t, res.Views, 2)

	// camera 0 only sees layer 1, where only the transparent ghost lives
	layered := res.Views[0]
	assert.Equal(t, 0, layered.Stencil.Len())
	assert.Equal(t, 0, layered.Opaque.Len())
	require.Equal(t, 1, layered.Transparent.Len())
	assert.Equal(t, handles.Entities["ghost"], layered.Transparent.Items()[0].Entity)

	// camera 1 sees layer 0; the entity on the pending mesh is skipped
	all := res.Views[1]
	require.Equal(t, 2, all.Stencil.Len())
	assert.Equal(t, handles.Entities["near"], all.Stencil.Items()[0].Entity, "sorted front to back")
	assert.Equal(t, handles.Entities["far"], all.Stencil.Items()[1].Entity)
	assert.Equal(t, 2, all.Opaque.Len())
	assert.Equal(t, 0, all.Transparent.Len())

	// far inherits real depth from near, so both share one stencil and one opaque pipeline
	assert.Equal(t, all.Stencil.Items()[0].Pipeline, all.Stencil.Items()[1].Pipeline)
	assert.Equal(t, all.Opaque.Items()[0].Pipeline, all.Opaque.Items()[1].Pipeline)

	assert.Equal(t, 3, res.Stats.Pipelines)
	assert.Equal(t, 3, res.Registered)
	assert.Len(t, registered, 3)
	assert.Equal(t, 0, e.Pipelines().Pending())

	// nothing new to register on the second frame
	res, err = e.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Frame)
	assert.Equal(t, 0, res.Registered)
	assert.Equal(t, 2, res.Views[1].Stencil.Len())
}

func TestRenderFrame_MeshArrives(t *testing.T) {
	t.Parallel()
	e, handles := newTestEngine(t)

	res, err := e.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Views[1].Stencil.Len())

	cube, ok := e.Meshes().Get(handles.Meshes["cube"])
	require.True(t, ok)
	e.Meshes().Insert(handles.Meshes["streaming"], cube)

	res, err = e.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, 3, res.Views[1].Stencil.Len())
}

func TestRenderFrame_SpecializationAborts(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, WithMSAA(3))

	res, err := e.RenderFrame()
	require.ErrorIs(t, err, pipeline.ErrSpecialization)
	for _, v := range res.Views {
		assert.Equal(t, 0, v.Stencil.Len()+v.Opaque.Len()+v.Transparent.Len())
	}
}

func TestRenderFrame_RegistrarFailure(t *testing.T) {
	t.Parallel()
	errDevice := errors.New("device lost")
	e, _ := newTestEngine(t, WithPipelineRegistrar(func(pipeline.Pipeline) error { return errDevice }))

	_, err := e.RenderFrame()
	require.ErrorIs(t, err, errDevice)
	assert.Equal(t, 3, e.Pipelines().Pending())
}

func TestEngine_Cameras(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	require.NotNil(t, e.Camera(0))

	e.RemoveCamera(0)
	assert.Nil(t, e.Camera(0))

	res, err := e.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.CameraKeys)
}

func TestEngine_RunQuit(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, WithTickRate(1000), WithProfiling(true))

	var frames atomic.Int32
	e.SetRenderCallback(func(float32) {
		if frames.Add(1) == 3 {
			e.Quit()
		}
	})

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.GreaterOrEqual(t, frames.Load(), int32(3))

	_, err := e.RenderFrame()
	assert.ErrorIs(t, err, ErrQuit)
}

func TestEngine_RunStopsOnFrameError(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, WithMSAA(3))

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, pipeline.ErrSpecialization)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestLoadScene_Invalid(t *testing.T) {
	t.Parallel()
	e := NewEngine(WithLogger(log.New(io.Discard)))
	t.Cleanup(e.Quit)
	_, err := LoadScene(e, config.Scene{Entities: []config.EntityConfig{{Name: "a", Mesh: "missing"}}})
	require.Error(t, err)
	assert.Equal(t, 0, e.World().Len())
}

func TestEngine_QuitClosesQueuer(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t)
	_, err := e.RenderFrame()
	require.NoError(t, err)

	e.Quit()
	assert.NotPanics(t, e.Quit)

	_, err = e.(*engine).queuer.Queue(outline.Frame{})
	assert.ErrorIs(t, err, outline.ErrQueuerClosed)
	_, err = e.RenderFrame()
	assert.ErrorIs(t, err, ErrQuit)
}
