package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/Carmen-Shannon/oxy-outline/engine/profiler"
	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-outline/engine/world"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrQuit is returned by RenderFrame once the engine has been shut down.
var ErrQuit = errors.New("engine stopped")

// engine implements the Engine interface.
// Coordinates the engine tick loop and the render loop.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	logger *log.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	// render stage
	mu       *sync.Mutex // guards cameras, views, frame and err
	world    world.World
	meshes   mesh.Assets
	msaa     uint32
	backend  wgpu.BackendType
	workers  int
	queuer   outline.Queuer
	cameras  map[int]camera.Camera
	views    map[int]*outline.View
	register func(pipeline.Pipeline) error
	frame    uint64
	err      error
}

// FrameResult is what one rendered frame produced.
type FrameResult struct {
	// Frame is the 1-based frame number.
	Frame uint64
	// Stats counts the queued entries.
	Stats outline.FrameStats
	// Views are the frame's views in ascending camera key order, phases sorted for drawing.
	// They are reused by the next frame.
	Views []*outline.View
	// CameraKeys holds the camera key of each entry in Views.
	CameraKeys []int
	// Registered is the number of pipelines handed to the registrar this frame.
	Registered int
	// QueueTime is how long the outline queuers took.
	QueueTime time.Duration
}

// Engine is the main entry point for the engine.
// It owns the world and the cameras, and runs the outline queue stage once per render frame.
type Engine interface {
	// World returns the entity registry the render stage reads.
	//
	// Returns:
	//   - world.World: the world
	World() world.World

	// Meshes returns the uploaded mesh registry.
	//
	// Returns:
	//   - mesh.Assets: the mesh registry
	Meshes() mesh.Assets

	// Pipelines returns the cache holding every specialized outline pipeline.
	//
	// Returns:
	//   - pipeline.Cache: the pipeline cache
	Pipelines() pipeline.Cache

	// AddCamera registers a camera at the given key. Views are queued in ascending key order.
	//
	// Parameters:
	//   - key: the camera key
	//   - c: the camera
	AddCamera(key int, c camera.Camera)

	// RemoveCamera removes the camera at the given key.
	//
	// Parameters:
	//   - key: the camera key
	RemoveCamera(key int)

	// Camera retrieves the camera registered at the given key.
	// Returns nil if no camera exists at that key.
	//
	// Parameters:
	//   - key: the camera key
	//
	// Returns:
	//   - camera.Camera: the camera, or nil
	Camera(key int) camera.Camera

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this to move cameras and edit the world.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// RenderFrame runs one frame of the render stage: depth propagation, view extraction,
	// outline queueing, phase sorting and pipeline registration.
	//
	// Returns:
	//   - FrameResult: the frame's views and counts
	//   - error: a queueing or registration error; the frame's phases are empty when queueing fails
	RenderFrame() (FrameResult, error)

	// Run starts the engine tick loop and the render loop and blocks until Quit is called
	// or a frame fails.
	//
	// Returns:
	//   - error: the frame error that stopped the engine, or nil after Quit
	Run() error

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Without options the engine gets an empty world, an empty mesh registry, 4x MSAA on the
// Vulkan backend and a registrar that accepts every pipeline.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		logger:           log.Default(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
		mu:               &sync.Mutex{},
		msaa:             4,
		backend:          wgpu.BackendTypeVulkan,
		cameras:          make(map[int]camera.Camera),
		views:            make(map[int]*outline.View),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.world == nil {
		e.world = world.NewWorld()
	}
	if e.meshes == nil {
		e.meshes = mesh.NewAssets()
	}
	if e.register == nil {
		e.register = func(p pipeline.Pipeline) error {
			e.logger.Debug("pipeline queued", "label", p.PipelineKey())
			return nil
		}
	}
	e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))

	res := &outline.Resources{
		Meshes:                   e.meshes,
		Base:                     outline.NewPipeline(),
		Specialized:              pipeline.NewSpecialized[outline.PipelineKey](),
		Pipelines:                pipeline.NewCache(),
		MSAA:                     e.msaa,
		Backend:                  e.backend,
		StencilDrawFunctions:     outline.NewDrawFunctions(),
		OpaqueDrawFunctions:      outline.NewDrawFunctions(),
		TransparentDrawFunctions: outline.NewDrawFunctions(),
	}
	outline.RegisterDrawFunctions(res.StencilDrawFunctions, res.OpaqueDrawFunctions, res.TransparentDrawFunctions)

	var queuerOpts []outline.QueuerBuilderOption
	if e.workers > 0 {
		queuerOpts = append(queuerOpts, outline.WithWorkers(e.workers))
	}
	e.queuer = outline.NewQueuer(res, queuerOpts...)

	return e
}

func (e *engine) World() world.World {
	return e.world
}

func (e *engine) Meshes() mesh.Assets {
	return e.meshes
}

func (e *engine) Pipelines() pipeline.Cache {
	return e.queuer.Resources().Pipelines
}

func (e *engine) AddCamera(key int, c camera.Camera) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cameras[key] = c
}

func (e *engine) RemoveCamera(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cameras, key)
	delete(e.views, key)
}

func (e *engine) Camera(key int) camera.Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cameras[key]
}

func (e *engine) RenderFrame() (FrameResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Checked under the lock so a frame never starts after Quit has closed the queuer.
	select {
	case <-e.quitChannel:
		return FrameResult{}, ErrQuit
	default:
	}

	e.frame++
	result := FrameResult{Frame: e.frame}

	e.world.PropagateDepth()

	keys := make([]int, 0, len(e.cameras))
	for k := range e.cameras {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	views := make([]*outline.View, 0, len(keys))
	for _, k := range keys {
		c := e.cameras[k]
		c.Update()
		v, ok := e.views[k]
		if !ok {
			v = outline.NewView(c.Extract())
			e.views[k] = v
		} else {
			v.Extracted = c.Extract()
		}
		views = append(views, v)
	}
	result.Views = views
	result.CameraKeys = keys

	frame := outline.Frame{
		Stencil: e.world.StencilEntities(),
		Volume:  e.world.VolumeEntities(),
		Views:   views,
	}

	start := time.Now()
	stats, err := e.queuer.Queue(frame)
	result.QueueTime = time.Since(start)
	if e.profilingEnabled {
		e.profiler.Record(stats, result.QueueTime, err)
	}
	if err != nil {
		e.logger.Error("outline queue aborted", "frame", e.frame, "err", err)
		return result, fmt.Errorf("frame %d: %w", e.frame, err)
	}
	result.Stats = stats

	for _, v := range views {
		v.Stencil.Sort()
		v.Opaque.Sort()
		v.Transparent.Sort()
	}

	err = e.Pipelines().Drain(func(p pipeline.Pipeline) error {
		if err := e.register(p); err != nil {
			return err
		}
		result.Registered++
		return nil
	})
	if err != nil {
		e.logger.Error("pipeline registration failed", "frame", e.frame, "err", err)
		return result, fmt.Errorf("frame %d: %w", e.frame, err)
	}

	e.logger.Debug("frame queued",
		"frame", e.frame,
		"views", stats.Views,
		"stencil", stats.Stencil,
		"opaque", stats.Opaque,
		"transparent", stats.Transparent,
		"pipelines", stats.Pipelines,
		"registered", result.Registered,
		"queue_time", result.QueueTime,
	)
	return result, nil
}

func (e *engine) Run() error {
	e.running = true
	e.handle()
	e.wg.Wait()
	e.running = false

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// It waits for an in-flight frame to finish, then stops the outline worker pool.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
// Must not be called while a RenderFrame call is on the stack.
func (e *engine) Quit() {
	e.signalQuit()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.queuer.Close()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// fail records the error that stopped the engine and signals quit.
func (e *engine) fail(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.signalQuit()
}

// handle launches the engine and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// A failed frame stops the engine. Recovers from panics to avoid crashing the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", "panic", r)
			e.fail(fmt.Errorf("render goroutine panicked: %v", r))
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if _, err := e.RenderFrame(); err != nil {
				if !errors.Is(err, ErrQuit) {
					e.fail(err)
				}
				return
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
