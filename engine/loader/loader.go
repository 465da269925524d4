// Package loader imports mesh geometry from glTF 2.0 files (.gltf and .glb) and turns each
// primitive into a GPU mesh asset the outline stage can specialize pipelines for.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/cogentcore/webgpu/wgpu"
)

// ImportedMesh is one glTF primitive with the vertex data the outline shader reads.
type ImportedMesh struct {
	// Name is the glTF mesh name followed by the primitive index, e.g. "Cube.0".
	Name      string
	Topology  wgpu.PrimitiveTopology
	Positions [][3]float32
	Normals   [][3]float32
	// Indices is nil for non-indexed primitives.
	Indices []uint32
}

// GPUMesh describes the mesh for the render stage. Positions and normals live in separate
// buffers, so every imported mesh uses mesh.SplitLayout.
//
// Returns:
//   - mesh.GPUMesh: the render-stage mesh
func (m ImportedMesh) GPUMesh() mesh.GPUMesh {
	return mesh.GPUMesh{
		Topology:    m.Topology,
		Layout:      mesh.SplitLayout(),
		VertexCount: uint32(len(m.Positions)),
		IndexCount:  uint32(len(m.Indices)),
	}
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	meshCache map[string][]ImportedMesh
}

// Loader imports glTF files and caches the result by path.
type Loader interface {
	// Load imports every primitive of a .gltf or .glb file. Results are cached by the cleaned path.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - []ImportedMesh: one mesh per primitive, in document order
	//   - error: error if the file cannot be read or a primitive cannot be imported
	Load(path string) ([]ImportedMesh, error)

	// LoadReader imports a document from a stream and caches it under name. External buffer
	// URIs resolve against the working directory.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the reader providing the document
	//   - glb: true if the reader provides GLB binary data
	//
	// Returns:
	//   - []ImportedMesh: one mesh per primitive
	//   - error: error if parsing or import fails
	LoadReader(name string, r io.Reader, glb bool) ([]ImportedMesh, error)

	// Get returns the cached meshes of a previously loaded file.
	//
	// Parameters:
	//   - name: the cache key
	//
	// Returns:
	//   - []ImportedMesh: the meshes
	//   - bool: true if the name was cached
	Get(name string) ([]ImportedMesh, bool)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the given options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		meshCache: make(map[string][]ImportedMesh),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) ([]ImportedMesh, error) {
	key := filepath.Clean(path)
	if cached, ok := l.Get(key); ok {
		return cached, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".gltf" && ext != ".glb" {
		return nil, fmt.Errorf("unsupported model format %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	src, err := decodeGLTF(data, filepath.Dir(path), ext == ".glb" || isGLB(data))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.extract(key, src)
}

func (l *loader) LoadReader(name string, r io.Reader, glb bool) ([]ImportedMesh, error) {
	if cached, ok := l.Get(name); ok {
		return cached, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	src, err := decodeGLTF(data, "", glb)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return l.extract(name, src)
}

func (l *loader) Get(name string) ([]ImportedMesh, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.meshCache[name]
	return m, ok
}

func (l *loader) extract(key string, src *gltfSource) ([]ImportedMesh, error) {
	meshes, err := newGLTFMeshExtractor(src).ExtractAllMeshes()
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", key, err)
	}

	l.mu.Lock()
	l.meshCache[key] = meshes
	l.mu.Unlock()
	return meshes, nil
}
