package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/config"
	"github.com/Carmen-Shannon/oxy-outline/engine/loader"
	"github.com/Carmen-Shannon/oxy-outline/engine/mesh"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
)

// SceneHandles maps the names used in a scene file to the handles created for them.
type SceneHandles struct {
	Meshes   map[string]mesh.Handle
	Entities map[string]outline.Entity
	// Cameras holds the registered camera keys in file order.
	Cameras []int
}

// LoadScene populates an engine from a scene description: meshes are uploaded (unless pending),
// cameras registered and entities spawned with their outline components. Meshes with a gltf
// path are imported relative to the scene's BaseDir.
//
// Parameters:
//   - e: the engine
//   - sc: the scene
//
// Returns:
//   - SceneHandles: the handles created for each named mesh and entity
//   - error: a validation or import error; nothing is added when either occurs
func LoadScene(e Engine, sc config.Scene) (SceneHandles, error) {
	return LoadSceneWithLoader(e, sc, loader.NewLoader())
}

// LoadSceneWithLoader is LoadScene with a caller-supplied glTF loader, so several scenes can
// share one import cache.
//
// Parameters:
//   - e: the engine
//   - sc: the scene
//   - l: the glTF loader
//
// Returns:
//   - SceneHandles: the handles created for each named mesh and entity
//   - error: a validation or import error; nothing is added when either occurs
func LoadSceneWithLoader(e Engine, sc config.Scene, l loader.Loader) (SceneHandles, error) {
	if err := sc.Validate(); err != nil {
		return SceneHandles{}, fmt.Errorf("invalid scene: %w", err)
	}

	imported := make(map[string]mesh.GPUMesh)
	for _, m := range sc.Meshes {
		if m.Gltf == "" {
			continue
		}
		meshes, err := l.Load(m.GltfPath(sc.BaseDir))
		if err != nil {
			return SceneHandles{}, fmt.Errorf("mesh %q: %w", m.Name, err)
		}
		if m.Primitive >= len(meshes) {
			return SceneHandles{}, fmt.Errorf("mesh %q: primitive %d out of range, %s has %d", m.Name, m.Primitive, m.Gltf, len(meshes))
		}
		imported[m.Name] = meshes[m.Primitive].GPUMesh()
	}

	handles := SceneHandles{
		Meshes:   make(map[string]mesh.Handle, len(sc.Meshes)),
		Entities: make(map[string]outline.Entity, len(sc.Entities)),
	}

	for _, m := range sc.Meshes {
		h := mesh.NewHandle()
		handles.Meshes[m.Name] = h
		if m.Pending {
			continue
		}
		if gm, ok := imported[m.Name]; ok {
			e.Meshes().Insert(h, gm)
			continue
		}
		topology, _ := config.ParseTopology(m.Topology)
		e.Meshes().Insert(h, mesh.GPUMesh{
			Topology:    topology,
			Layout:      mesh.StandardLayout(),
			VertexCount: m.Vertices,
			IndexCount:  m.Indices,
		})
	}

	for _, c := range sc.Cameras {
		e.AddCamera(c.Key, newSceneCamera(c))
		handles.Cameras = append(handles.Cameras, c.Key)
	}

	w := e.World()
	for _, ec := range sc.Entities {
		handles.Entities[ec.Name] = w.Spawn()
	}
	for _, ec := range sc.Entities {
		ent := handles.Entities[ec.Name]
		if ec.Mesh != "" {
			w.SetMesh(ent, handles.Meshes[ec.Mesh])
		}
		if ec.Layers != nil {
			w.SetLayers(ent, config.RenderLayers(ec.Layers))
		}
		if ec.Parent != "" {
			w.SetParent(ent, handles.Entities[ec.Parent])
		}
		depth, _ := config.ParseDepthMode(ec.Depth)
		w.SetDepthMode(ent, depth)
		if s := ec.Stencil; s != nil {
			w.SetStencil(ent, outline.OutlineStencilUniform{Origin: s.Origin, Offset: s.Offset})
		}
		if v := ec.Volume; v != nil {
			w.SetVolume(ent,
				outline.OutlineVolumeUniform{Origin: v.Origin, Offset: v.Offset},
				outline.OutlineFragmentUniform{Colour: v.Colour},
			)
		}
	}
	return handles, nil
}

func newSceneCamera(c config.CameraConfig) camera.Camera {
	ctrl := camera.NewCameraController(
		camera.WithPosition(c.Position[0], c.Position[1], c.Position[2]),
		camera.WithTarget(c.Target[0], c.Target[1], c.Target[2]),
	)
	opts := []camera.CameraBuilderOption{
		camera.WithController(ctrl),
		camera.WithHDR(c.HDR),
	}
	if c.Fov > 0 {
		opts = append(opts, camera.WithFov(c.Fov))
	}
	if c.Layers != nil {
		opts = append(opts, camera.WithRenderLayers(config.RenderLayers(c.Layers)))
	}
	return camera.NewCamera(opts...)
}
