// Package renderer creates GPU render pipelines from the pipeline descriptions queued by the
// outline stage. Shader modules, bind group layouts and pipeline layouts are shared between
// pipelines that need identical objects.
package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrReleased is returned when a pipeline is registered after Release.
var ErrReleased = errors.New("renderer released")

// gpuObject is any WebGPU handle the renderer owns.
type gpuObject interface {
	Release()
}

func releaseGPUObject(o gpuObject) {
	o.Release()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *log.Logger

	backend RendererBackend

	// Pre-creation config collected from builder options
	backendType          wgpu.BackendType
	forceFallbackAdapter bool

	// GPU object caches keyed by content fingerprint
	modules          map[uint64]*wgpu.ShaderModule
	bindGroupLayouts map[uint64]*wgpu.BindGroupLayout
	pipelineLayouts  map[uint64]*wgpu.PipelineLayout

	// pipelines holds every description that received a GPU pipeline, in creation order.
	pipelines     []pipeline.Pipeline
	releaseObject func(gpuObject)

	registered int
}

// Renderer turns pipeline descriptions into GPU render pipelines.
type Renderer interface {
	// RegisterPipeline creates the GPU render pipeline for p and stores it on p via SetRenderPipeline.
	// Pipelines that already hold a GPU pipeline are skipped. The signature matches
	// pipeline.Cache.Drain so the method can be passed to it directly.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	RegisterPipeline(p pipeline.Pipeline) error

	// Registered returns the number of GPU pipelines created so far.
	//
	// Returns:
	//   - int: the pipeline count
	Registered() int

	// Release releases every created render pipeline and cached GPU object, clears the render
	// pipeline of each registered description and releases the backend. Registering afterwards fails.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer. Unless WithBackend supplies one, a headless WebGPU device is
// opened on the configured backend type.
//
// Parameters:
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if no GPU device could be opened
func NewRenderer(options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:               &sync.Mutex{},
		logger:           log.Default(),
		backendType:      wgpu.BackendTypeVulkan,
		modules:          make(map[uint64]*wgpu.ShaderModule),
		bindGroupLayouts: make(map[uint64]*wgpu.BindGroupLayout),
		pipelineLayouts:  make(map[uint64]*wgpu.PipelineLayout),
		releaseObject:    releaseGPUObject,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		b, err := newWGPURendererBackend(r.backendType, r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}
	return r, nil
}

func (r *renderer) RegisterPipeline(p pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return ErrReleased
	}
	if p.RenderPipeline() != nil {
		return nil
	}

	module, err := r.shaderModule(p)
	if err != nil {
		return err
	}
	layout, err := r.pipelineLayout(p)
	if err != nil {
		return err
	}

	created, err := r.backend.CreateRenderPipeline(pipeline.RenderPipelineDescriptor(p, module, layout))
	if err != nil {
		return fmt.Errorf("failed to create render pipeline %s: %w", p.PipelineKey(), err)
	}
	p.SetRenderPipeline(created)
	r.pipelines = append(r.pipelines, p)
	r.registered++

	r.logger.Debug("render pipeline created",
		"pipeline", p.PipelineKey(),
		"modules", len(r.modules),
		"layouts", len(r.pipelineLayouts),
	)
	return nil
}

func (r *renderer) Registered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend == nil {
		return
	}

	// Dependents go before the objects they were built from.
	for _, p := range r.pipelines {
		if rp := p.RenderPipeline(); rp != nil {
			r.releaseObject(rp)
			p.SetRenderPipeline(nil)
		}
	}
	r.pipelines = nil
	for _, l := range r.pipelineLayouts {
		r.releaseObject(l)
	}
	for _, bgl := range r.bindGroupLayouts {
		r.releaseObject(bgl)
	}
	for _, m := range r.modules {
		r.releaseObject(m)
	}
	clear(r.modules)
	clear(r.bindGroupLayouts)
	clear(r.pipelineLayouts)

	r.logger.Debug("renderer released", "pipelines", r.registered)
	r.backend.Release()
	r.backend = nil
}

// shaderModule returns the module compiled from p's source, compiling it on first use.
// Caller must hold r.mu.
func (r *renderer) shaderModule(p pipeline.Pipeline) (*wgpu.ShaderModule, error) {
	key := xxhash.Sum64String(p.ShaderSource())
	if m, ok := r.modules[key]; ok {
		return m, nil
	}
	m, err := r.backend.CreateShaderModule(p.PipelineKey(), p.ShaderSource())
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module for %s: %w", p.PipelineKey(), err)
	}
	r.modules[key] = m
	return m, nil
}

// pipelineLayout returns the pipeline layout for p's bind group layouts, creating it and any
// missing bind group layouts on first use. Unused group slots below the highest group get an
// empty layout. Caller must hold r.mu.
func (r *renderer) pipelineLayout(p pipeline.Pipeline) (*wgpu.PipelineLayout, error) {
	descs := p.BindGroupLayouts()
	count := pipeline.GroupCount(descs)

	groupKeys := make([]uint64, count)
	for g := range count {
		groupKeys[g] = pipeline.BindGroupLayoutKey(descs[g])
	}

	buf := make([]byte, 0, 8*count)
	for _, k := range groupKeys {
		buf = binary.LittleEndian.AppendUint64(buf, k)
	}
	layoutKey := xxhash.Sum64(buf)
	if l, ok := r.pipelineLayouts[layoutKey]; ok {
		return l, nil
	}

	layouts := make([]*wgpu.BindGroupLayout, count)
	for g := range count {
		bgl, ok := r.bindGroupLayouts[groupKeys[g]]
		if !ok {
			desc := descs[g]
			var err error
			bgl, err = r.backend.CreateBindGroupLayout(&desc)
			if err != nil {
				return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
			}
			r.bindGroupLayouts[groupKeys[g]] = bgl
		}
		layouts[g] = bgl
	}

	l, err := r.backend.CreatePipelineLayout(p.PipelineKey(), layouts)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout for %s: %w", p.PipelineKey(), err)
	}
	r.pipelineLayouts[layoutKey] = l
	return l, nil
}
