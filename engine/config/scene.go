package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
)

// Scene describes the meshes, cameras and outlined entities of a scene file.
type Scene struct {
	Meshes   []MeshConfig   `toml:"mesh"`
	Cameras  []CameraConfig `toml:"camera"`
	Entities []EntityConfig `toml:"entity"`

	// BaseDir is the directory glTF paths resolve against. LoadScene sets it to the scene file's directory.
	BaseDir string `toml:"-"`
}

// MeshConfig describes one uploaded mesh. Meshes marked Pending are registered as handles
// but never uploaded, so entities using them are skipped.
//
// A mesh with Gltf set is imported from that file instead: Primitive selects the primitive in
// document order, and Topology, Vertices and Indices are taken from the file.
type MeshConfig struct {
	Name      string `toml:"name"`
	Topology  string `toml:"topology"`
	Vertices  uint32 `toml:"vertices"`
	Indices   uint32 `toml:"indices"`
	Pending   bool   `toml:"pending"`
	Gltf      string `toml:"gltf"`
	Primitive int    `toml:"primitive"`
}

// GltfPath resolves Gltf against the scene's base directory. Absolute paths are returned unchanged.
//
// Parameters:
//   - baseDir: the scene directory
//
// Returns:
//   - string: the file path, or "" when the mesh is not imported
func (m MeshConfig) GltfPath(baseDir string) string {
	if m.Gltf == "" {
		return ""
	}
	if filepath.IsAbs(m.Gltf) {
		return m.Gltf
	}
	return filepath.Join(baseDir, m.Gltf)
}

// CameraConfig describes one view. A nil Layers renders every layer.
type CameraConfig struct {
	Key      int        `toml:"key"`
	Position [3]float32 `toml:"position"`
	Target   [3]float32 `toml:"target"`
	// Fov is the vertical field of view in radians; 0 keeps the camera default.
	Fov    float32 `toml:"fov"`
	HDR    bool    `toml:"hdr"`
	Layers []int   `toml:"layers"`
}

// EntityConfig describes one entity and its outline components.
type EntityConfig struct {
	Name   string `toml:"name"`
	Mesh   string `toml:"mesh"`
	Parent string `toml:"parent"`
	// Depth is "flat", "real" or empty to inherit from Parent.
	Depth   string         `toml:"depth"`
	Layers  []int          `toml:"layers"`
	Stencil *StencilConfig `toml:"stencil"`
	Volume  *VolumeConfig  `toml:"volume"`
}

// StencilConfig is the stencil outline of an entity.
type StencilConfig struct {
	Origin [3]float32 `toml:"origin"`
	Offset float32    `toml:"offset"`
}

// VolumeConfig is the outline volume of an entity.
type VolumeConfig struct {
	Origin [3]float32 `toml:"origin"`
	Offset float32    `toml:"offset"`
	Colour [4]float32 `toml:"colour"`
}

var errDuplicateName = errors.New("duplicate name")

// Validate checks names, references and enum values.
//
// Returns:
//   - error: the first problem found, or nil
func (s Scene) Validate() error {
	meshes := make(map[string]struct{}, len(s.Meshes))
	for i, m := range s.Meshes {
		if m.Name == "" {
			return fmt.Errorf("mesh[%d]: name is required", i)
		}
		if _, ok := meshes[m.Name]; ok {
			return fmt.Errorf("mesh[%d]: %w %q", i, errDuplicateName, m.Name)
		}
		meshes[m.Name] = struct{}{}
		if _, err := ParseTopology(m.Topology); err != nil {
			return fmt.Errorf("mesh %q: %w", m.Name, err)
		}
		if m.Primitive < 0 {
			return fmt.Errorf("mesh %q: primitive must not be negative", m.Name)
		}
	}

	cameras := make(map[int]struct{}, len(s.Cameras))
	for i, c := range s.Cameras {
		if _, ok := cameras[c.Key]; ok {
			return fmt.Errorf("camera[%d]: duplicate key %d", i, c.Key)
		}
		cameras[c.Key] = struct{}{}
		if err := validateLayers(c.Layers); err != nil {
			return fmt.Errorf("camera %d: %w", c.Key, err)
		}
	}

	entities := make(map[string]struct{}, len(s.Entities))
	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity[%d]: name is required", i)
		}
		if _, ok := entities[e.Name]; ok {
			return fmt.Errorf("entity[%d]: %w %q", i, errDuplicateName, e.Name)
		}
		entities[e.Name] = struct{}{}
	}
	for _, e := range s.Entities {
		if e.Mesh != "" {
			if _, ok := meshes[e.Mesh]; !ok {
				return fmt.Errorf("entity %q: unknown mesh %q", e.Name, e.Mesh)
			}
		}
		if e.Parent != "" {
			if _, ok := entities[e.Parent]; !ok {
				return fmt.Errorf("entity %q: unknown parent %q", e.Name, e.Parent)
			}
		}
		if _, err := ParseDepthMode(e.Depth); err != nil {
			return fmt.Errorf("entity %q: %w", e.Name, err)
		}
		if err := validateLayers(e.Layers); err != nil {
			return fmt.Errorf("entity %q: %w", e.Name, err)
		}
	}
	return nil
}

func validateLayers(layers []int) error {
	for _, n := range layers {
		if n < 0 || n >= camera.TotalLayers {
			return fmt.Errorf("layer %d out of range [0, %d)", n, camera.TotalLayers)
		}
	}
	return nil
}

// RenderLayers converts a layer list. Call Validate first.
//
// Parameters:
//   - layers: the layer indices
//
// Returns:
//   - camera.RenderLayers: the mask
func RenderLayers(layers []int) camera.RenderLayers {
	return camera.Layers(layers...)
}

// ParseScene decodes and validates a scene from TOML.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Scene: the decoded scene
//   - error: a decode or validation error
func ParseScene(data []byte) (Scene, error) {
	var s Scene
	if err := toml.Unmarshal(data, &s); err != nil {
		return Scene{}, fmt.Errorf("failed to decode scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	return s, nil
}

// LoadScene reads and parses a scene file.
//
// Parameters:
//   - path: the scene file path
//
// Returns:
//   - Scene: the scene
//   - error: a read, decode or validation error
func LoadScene(path string) (Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to read scene: %w", err)
	}
	s, err := ParseScene(data)
	if err != nil {
		return Scene{}, fmt.Errorf("%s: %w", path, err)
	}
	s.BaseDir = filepath.Dir(path)
	return s, nil
}
