package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-outline/engine/camera"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings_Defaults(t *testing.T) {
	t.Parallel()
	s, err := ParseSettings([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, DefaultMSAA, s.Render.MSAA)
	assert.Equal(t, wgpu.BackendTypeVulkan, s.BackendType())
	assert.GreaterOrEqual(t, s.Engine.Workers, 1)
	assert.Equal(t, DefaultTickRate, s.Engine.TickRate)
	assert.Equal(t, log.InfoLevel, s.LogLevel())
	assert.Equal(t, DefaultSettings(), s)
}

func TestParseSettings(t *testing.T) {
	t.Parallel()
	s, err := ParseSettings([]byte(`
[render]
msaa = 8
backend = "OpenGL"
gpu = true

[engine]
workers = 2
profiling = true

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, uint32(8), s.Render.MSAA)
	assert.Equal(t, wgpu.BackendTypeOpenGL, s.BackendType())
	assert.True(t, s.Render.GPU)
	assert.False(t, s.Render.SoftwareAdapter)
	assert.Equal(t, 2, s.Engine.Workers)
	assert.True(t, s.Engine.Profiling)
	assert.Equal(t, log.DebugLevel, s.LogLevel())
}

func TestParseSettings_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"msaa":    "[render]\nmsaa = 3",
		"backend": "[render]\nbackend = \"glide\"",
		"workers": "[engine]\nworkers = -2",
		"level":   "[log]\nlevel = \"chatty\"",
		"syntax":  "[render",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseSettings([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	t.Parallel()
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[render]\nmsaa = 1\n"), 0o644))
	s, err = LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.Render.MSAA)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

const sceneDoc = `
[[mesh]]
name = "cube"
vertices = 24
indices = 36

[[mesh]]
name = "lines"
topology = "line-list"
pending = true

[[camera]]
key = 0
position = [0.0, 0.0, 10.0]
layers = [0, 1]

[[entity]]
name = "root"
mesh = "cube"
depth = "real"
layers = [1]

[entity.stencil]
origin = [0.0, 0.0, -2.0]

[entity.volume]
offset = 0.05
colour = [1.0, 0.0, 0.0, 0.5]

[[entity]]
name = "child"
mesh = "cube"
parent = "root"
`

func TestParseScene(t *testing.T) {
	t.Parallel()
	s, err := ParseScene([]byte(sceneDoc))
	require.NoError(t, err)

	require.Len(t, s.Meshes, 2)
	assert.True(t, s.Meshes[1].Pending)
	require.Len(t, s.Cameras, 1)
	assert.Equal(t, [3]float32{0, 0, 10}, s.Cameras[0].Position)
	assert.Equal(t, camera.Layers(0, 1), RenderLayers(s.Cameras[0].Layers))

	require.Len(t, s.Entities, 2)
	root := s.Entities[0]
	require.NotNil(t, root.Stencil)
	require.NotNil(t, root.Volume)
	assert.Equal(t, float32(0.5), root.Volume.Colour[3])
	assert.Nil(t, s.Entities[1].Stencil)
	assert.Equal(t, "root", s.Entities[1].Parent)
}

func TestLoadScene_BaseDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.toml")
	doc := "[[mesh]]\nname = \"wire\"\ngltf = \"models/wire.gltf\"\nprimitive = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, dir, s.BaseDir)
	require.Len(t, s.Meshes, 1)
	assert.Equal(t, 1, s.Meshes[0].Primitive)
	assert.Equal(t, filepath.Join(dir, "models", "wire.gltf"), s.Meshes[0].GltfPath(s.BaseDir))

	abs := MeshConfig{Gltf: filepath.Join(dir, "abs.glb")}
	assert.Equal(t, abs.Gltf, abs.GltfPath("elsewhere"))
	assert.Empty(t, MeshConfig{}.GltfPath(dir))
}

func TestScene_Validate(t *testing.T) {
	t.Parallel()

	cases := map[string]Scene{
		"unnamed mesh":     {Meshes: []MeshConfig{{}}},
		"duplicate mesh":   {Meshes: []MeshConfig{{Name: "a"}, {Name: "a"}}},
		"bad topology":     {Meshes: []MeshConfig{{Name: "a", Topology: "fan"}}},
		"negative prim":    {Meshes: []MeshConfig{{Name: "a", Gltf: "a.gltf", Primitive: -1}}},
		"duplicate camera": {Cameras: []CameraConfig{{Key: 1}, {Key: 1}}},
		"camera layer":     {Cameras: []CameraConfig{{Layers: []int{32}}}},
		"unknown mesh":     {Entities: []EntityConfig{{Name: "e", Mesh: "ghost"}}},
		"unknown parent":   {Entities: []EntityConfig{{Name: "e", Parent: "ghost"}}},
		"bad depth":        {Entities: []EntityConfig{{Name: "e", Depth: "deep"}}},
		"duplicate entity": {Entities: []EntityConfig{{Name: "e"}, {Name: "e"}}},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, s.Validate())
		})
	}
}

func TestParseEnums(t *testing.T) {
	t.Parallel()

	topo, err := ParseTopology("")
	require.NoError(t, err)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, topo)
	topo, err = ParseTopology("Line-Strip")
	require.NoError(t, err)
	assert.Equal(t, wgpu.PrimitiveTopologyLineStrip, topo)

	mode, err := ParseDepthMode("")
	require.NoError(t, err)
	assert.Equal(t, outline.DepthModeInvalid, mode)
	mode, err = ParseDepthMode("FLAT")
	require.NoError(t, err)
	assert.Equal(t, outline.DepthModeFlat, mode)

	_, err = ParseBackend("directx")
	assert.Error(t, err)
}
