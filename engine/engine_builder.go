package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-outline/engine/world"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithLogger sets the logger used by the engine and its profiler.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *log.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorld sets the world the engine renders instead of a new empty one.
//
// Parameters:
//   - w: the world
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorld(w world.World) EngineBuilderOption {
	return func(e *engine) {
		e.world = w
	}
}

// WithMeshAssets sets the mesh registry instead of a new empty one.
//
// Parameters:
//   - meshes: the mesh registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMeshAssets(meshes mesh.Assets) EngineBuilderOption {
	return func(e *engine) {
		e.meshes = meshes
	}
}

// WithMSAA sets the sample count of the main pass.
//
// Parameters:
//   - samples: the sample count (1, 4, 8 or 16)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMSAA(samples uint32) EngineBuilderOption {
	return func(e *engine) {
		e.msaa = samples
	}
}

// WithBackend sets the adapter backend, which decides whether the OpenGL workaround is used.
//
// Parameters:
//   - backend: the backend type
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(backend wgpu.BackendType) EngineBuilderOption {
	return func(e *engine) {
		e.backend = backend
	}
}

// WithWorkers sets the number of pooled goroutines used to queue views.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkers(n int) EngineBuilderOption {
	return func(e *engine) {
		e.workers = n
	}
}

// WithPipelineRegistrar sets the function that creates GPU pipelines for newly specialized
// outline variants. It is called from the render loop after queueing.
//
// Parameters:
//   - register: the registrar
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipelineRegistrar(register func(pipeline.Pipeline) error) EngineBuilderOption {
	return func(e *engine) {
		e.register = register
	}
}

// WithCamera registers a camera at the given key during engine construction.
//
// Parameters:
//   - key: the camera key; views are queued in ascending key order
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(key int, c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.cameras[key] = c
	}
}
