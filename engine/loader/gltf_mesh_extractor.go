package loader

import (
	"errors"
	"fmt"
)

var (
	errUnsupportedMode = errors.New("unsupported primitive mode")
	errMissingAttr     = errors.New("missing vertex attribute")
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	src *gltfSource
}

// gltfMeshExtractor converts the primitives of a parsed glTF document into ImportedMesh values.
type gltfMeshExtractor interface {
	// ExtractAllMeshes extracts every primitive of every mesh, in document order.
	//
	// Returns:
	//   - []ImportedMesh: one ImportedMesh per primitive
	//   - error: error if any primitive cannot be imported
	ExtractAllMeshes() ([]ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a decoded document.
//
// Parameters:
//   - src: the document with its buffers resolved
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(src *gltfSource) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{src: src}
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]ImportedMesh, error) {
	var all []ImportedMesh
	for meshIdx := range e.src.file.Meshes {
		m := &e.src.file.Meshes[meshIdx]
		for primIdx := range m.Primitives {
			imported, err := e.extractPrimitive(&m.Primitives[primIdx], m.Name, primIdx)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, primIdx, err)
			}
			all = append(all, imported)
		}
	}
	return all, nil
}

// extractPrimitive reads the positions, normals and indices of one primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, meshName string, primIndex int) (ImportedMesh, error) {
	mode := modeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	topology, ok := gltfTopologies[mode]
	if !ok {
		return ImportedMesh{}, fmt.Errorf("%w: %d", errUnsupportedMode, mode)
	}

	posAccessor, ok := prim.Attributes[attrPosition]
	if !ok {
		return ImportedMesh{}, fmt.Errorf("%w: %s", errMissingAttr, attrPosition)
	}
	positions, err := e.src.vec3s(posAccessor)
	if err != nil {
		return ImportedMesh{}, fmt.Errorf("failed to read positions: %w", err)
	}

	// The outline shader offsets along the normal, so meshes without normals cannot be outlined.
	normalAccessor, ok := prim.Attributes[attrNormal]
	if !ok {
		return ImportedMesh{}, fmt.Errorf("%w: %s", errMissingAttr, attrNormal)
	}
	normals, err := e.src.vec3s(normalAccessor)
	if err != nil {
		return ImportedMesh{}, fmt.Errorf("failed to read normals: %w", err)
	}
	if len(normals) != len(positions) {
		return ImportedMesh{}, fmt.Errorf("normal count %d does not match position count %d", len(normals), len(positions))
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.src.indices(*prim.Indices)
		if err != nil {
			return ImportedMesh{}, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range indices {
			if int(idx) >= len(positions) {
				return ImportedMesh{}, fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
			}
		}
	}

	name := meshName
	if name == "" {
		name = "mesh"
	}
	return ImportedMesh{
		Name:      fmt.Sprintf("%s.%d", name, primIndex),
		Topology:  topology,
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
	}, nil
}
