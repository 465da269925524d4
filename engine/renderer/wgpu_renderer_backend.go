package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRendererBackend creates GPU objects on a headless WebGPU device. No surface is created;
// pipelines target the formats their descriptions name.
type wgpuRendererBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
}

var _ RendererBackend = &wgpuRendererBackend{}

// newWGPURendererBackend requests an adapter for backendType and opens a device on it.
//
// Parameters:
//   - backendType: the backend the adapter must use
//   - forceFallbackAdapter: true to request the CPU fallback adapter
//
// Returns:
//   - *wgpuRendererBackend: the backend
//   - error: an error if no adapter or device is available
func newWGPURendererBackend(backendType wgpu.BackendType, forceFallbackAdapter bool) (*wgpuRendererBackend, error) {
	b := &wgpuRendererBackend{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		BackendType:          backendType,
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		b.instance.Release()
		return nil, fmt.Errorf("failed to request %v adapter: %w", backendType, err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Outline Device",
	})
	if err != nil {
		a.Release()
		b.instance.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d

	return b, nil
}

func (b *wgpuRendererBackend) CreateShaderModule(label, source string) (*wgpu.ShaderModule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
}

func (b *wgpuRendererBackend) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.CreateBindGroupLayout(desc)
}

func (b *wgpuRendererBackend) CreatePipelineLayout(label string, layouts []*wgpu.BindGroupLayout) (*wgpu.PipelineLayout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
}

func (b *wgpuRendererBackend) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.CreateRenderPipeline(desc)
}

func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
