// Package mesh holds the GPU-side mesh assets the render stage looks up by handle.
// A mesh becomes visible to the render stage only once it has been uploaded; until then
// lookups miss and the entities referencing it are skipped for the frame.
package mesh

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-outline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// handleCount is an atomic counter used to generate unique mesh handles.
var handleCount atomic.Uint64

// Handle identifies a mesh asset. The zero Handle is never issued.
type Handle uint64

// NewHandle issues a new unique mesh handle.
//
// Returns:
//   - Handle: the new handle
func NewHandle() Handle {
	return Handle(handleCount.Add(1))
}

// GPUMesh is the render-stage view of an uploaded mesh.
type GPUMesh struct {
	// Topology is the primitive topology the mesh is drawn with.
	Topology wgpu.PrimitiveTopology
	// Layout is the vertex buffer layout of the mesh, fingerprinted for pipeline specialization.
	Layout pipeline.VertexLayout
	// VertexCount is the number of vertices in the mesh.
	VertexCount uint32
	// IndexCount is the number of indices, or 0 for non-indexed meshes.
	IndexCount uint32
}

// StandardLayout returns the vertex layout used by the engine's built-in meshes:
// position (vec3<f32>, location 0) followed by normal (vec3<f32>, location 1), interleaved.
//
// Returns:
//   - pipeline.VertexLayout: the fingerprinted layout
func StandardLayout() pipeline.VertexLayout {
	return pipeline.NewVertexLayout(wgpu.VertexBufferLayout{
		ArrayStride: 24,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	})
}

// SplitLayout returns the layout of imported meshes that keep each attribute in its own buffer:
// position (vec3<f32>, slot 0, location 0) and normal (vec3<f32>, slot 1, location 1).
//
// Returns:
//   - pipeline.VertexLayout: the fingerprinted layout
func SplitLayout() pipeline.VertexLayout {
	return pipeline.NewVertexLayout(
		wgpu.VertexBufferLayout{
			ArrayStride: 12,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  []wgpu.VertexAttribute{{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0}},
		},
		wgpu.VertexBufferLayout{
			ArrayStride: 12,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  []wgpu.VertexAttribute{{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 1}},
		},
	)
}

// assets is the implementation of the Assets interface.
type assets struct {
	mu     *sync.RWMutex
	meshes map[Handle]GPUMesh
}

// Assets is the registry of uploaded meshes keyed by handle.
type Assets interface {
	// Get looks up an uploaded mesh.
	//
	// Parameters:
	//   - h: the mesh handle
	//
	// Returns:
	//   - GPUMesh: the mesh, or the zero value if not uploaded
	//   - bool: true if the mesh has been uploaded
	Get(h Handle) (GPUMesh, bool)

	// Insert records h as uploaded, replacing any previous mesh under the same handle.
	//
	// Parameters:
	//   - h: the mesh handle
	//   - m: the uploaded mesh
	Insert(h Handle, m GPUMesh)

	// Remove forgets the mesh under h. Removing an unknown handle is a no-op.
	//
	// Parameters:
	//   - h: the mesh handle
	Remove(h Handle)

	// Len returns the number of uploaded meshes.
	//
	// Returns:
	//   - int: the number of meshes
	Len() int
}

var _ Assets = &assets{}

// NewAssets creates an empty mesh registry.
//
// Returns:
//   - Assets: the new registry
func NewAssets() Assets {
	return &assets{
		mu:     &sync.RWMutex{},
		meshes: make(map[Handle]GPUMesh),
	}
}

func (a *assets) Get(h Handle) (GPUMesh, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.meshes[h]
	return m, ok
}

func (a *assets) Insert(h Handle, m GPUMesh) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.meshes[h] = m
}

func (a *assets) Remove(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.meshes, h)
}

func (a *assets) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.meshes)
}
