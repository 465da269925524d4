package cli

import (
	"github.com/Carmen-Shannon/oxy-outline/engine"
	"github.com/Carmen-Shannon/oxy-outline/engine/config"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer"
	"github.com/charmbracelet/log"
)

// sceneFlags are the file flags shared by the queue and run commands.
type sceneFlags struct {
	settings string
	scene    string
}

// builtEngine is an engine populated from the settings and scene files.
type builtEngine struct {
	engine.Engine
	handles  engine.SceneHandles
	settings config.Settings
	renderer renderer.Renderer
}

// Close stops the engine and releases the GPU device, if one was opened.
func (b *builtEngine) Close() {
	if b.Engine != nil {
		b.Engine.Quit()
	}
	if b.renderer != nil {
		b.renderer.Release()
	}
}

// buildEngine loads the settings and scene files and returns an engine populated with the scene.
// When render.gpu is set, queued pipelines are created on a headless device. Callers must Close the result.
func buildEngine(logger *log.Logger, f sceneFlags) (*builtEngine, error) {
	settings, err := config.LoadSettings(f.settings)
	if err != nil {
		return nil, err
	}
	if f.settings != "" {
		logger.SetLevel(min(logger.GetLevel(), settings.LogLevel()))
	}

	sc, err := config.LoadScene(f.scene)
	if err != nil {
		return nil, err
	}

	b := &builtEngine{settings: settings}
	opts := []engine.EngineBuilderOption{
		engine.WithLogger(logger),
		engine.WithMSAA(settings.Render.MSAA),
		engine.WithBackend(settings.BackendType()),
		engine.WithWorkers(settings.Engine.Workers),
		engine.WithTickRate(settings.Engine.TickRate),
		engine.WithRenderFrameLimit(settings.Engine.FrameLimit),
		engine.WithProfiling(settings.Engine.Profiling),
	}
	if settings.Render.GPU {
		r, err := renderer.NewRenderer(
			renderer.WithLogger(logger),
			renderer.WithBackendType(settings.BackendType()),
			renderer.WithForceSoftwareRenderer(settings.Render.SoftwareAdapter),
		)
		if err != nil {
			return nil, err
		}
		b.renderer = r
		opts = append(opts, engine.WithPipelineRegistrar(r.RegisterPipeline))
	}

	b.Engine = engine.NewEngine(opts...)
	b.handles, err = engine.LoadScene(b.Engine, sc)
	if err != nil {
		b.Close()
		return nil, err
	}

	logger.Debug("scene loaded",
		"meshes", len(b.handles.Meshes),
		"entities", len(b.handles.Entities),
		"cameras", len(sc.Cameras),
		"msaa", settings.Render.MSAA,
		"backend", settings.Render.Backend,
		"gpu", settings.Render.GPU,
	)
	return b, nil
}
