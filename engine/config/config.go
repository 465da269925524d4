// Package config loads the TOML files that drive the outline queue: renderer settings and
// scene descriptions. Unset settings fall back to the package defaults.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Carmen-Shannon/oxy-outline/common"
	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/charmbracelet/log"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	DefaultMSAA     uint32 = 4
	DefaultBackend         = "vulkan"
	DefaultTickRate        = 60.0
	DefaultLogLevel        = "info"
)

// Settings is the renderer and runtime configuration.
type Settings struct {
	Render RenderSettings `toml:"render"`
	Engine EngineSettings `toml:"engine"`
	Log    LogSettings    `toml:"log"`
}

// RenderSettings configures the render stage.
type RenderSettings struct {
	// MSAA is the sample count of the main pass: 1, 4, 8 or 16.
	MSAA uint32 `toml:"msaa"`
	// Backend names the adapter backend, e.g. "vulkan" or "opengl".
	Backend string `toml:"backend"`
	// GPU creates queued pipelines on a headless device instead of only logging them.
	GPU bool `toml:"gpu"`
	// SoftwareAdapter requests the CPU fallback adapter when GPU is set.
	SoftwareAdapter bool `toml:"software_adapter"`
}

// EngineSettings configures the frame driver.
type EngineSettings struct {
	Workers    int     `toml:"workers"`
	TickRate   float64 `toml:"tick_rate"`
	FrameLimit float64 `toml:"frame_limit"`
	Profiling  bool    `toml:"profiling"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `toml:"level"`
}

// DefaultSettings returns the settings used when no file is given.
//
// Returns:
//   - Settings: the default settings
func DefaultSettings() Settings {
	var s Settings
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	s.Render.MSAA = common.Coalesce(s.Render.MSAA, DefaultMSAA)
	s.Render.Backend = common.Coalesce(strings.ToLower(s.Render.Backend), DefaultBackend)
	s.Engine.Workers = common.Coalesce(s.Engine.Workers, max(runtime.NumCPU()-1, 1))
	s.Engine.TickRate = common.Coalesce(s.Engine.TickRate, DefaultTickRate)
	s.Log.Level = common.Coalesce(strings.ToLower(s.Log.Level), DefaultLogLevel)
}

// Validate checks every field that has a closed set of values.
//
// Returns:
//   - error: the first invalid field, or nil
func (s Settings) Validate() error {
	switch s.Render.MSAA {
	case 1, 4, 8, 16:
	default:
		return fmt.Errorf("render.msaa: unsupported sample count %d", s.Render.MSAA)
	}
	if _, err := ParseBackend(s.Render.Backend); err != nil {
		return fmt.Errorf("render.backend: %w", err)
	}
	if s.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers: must be at least 1, got %d", s.Engine.Workers)
	}
	if _, err := log.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// BackendType resolves Render.Backend. Call Validate first.
func (s Settings) BackendType() wgpu.BackendType {
	b, _ := ParseBackend(s.Render.Backend)
	return b
}

// LogLevel resolves Log.Level, falling back to info.
func (s Settings) LogLevel() log.Level {
	l, err := log.ParseLevel(s.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// ParseSettings decodes settings from TOML, fills defaults and validates the result.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Settings: the decoded settings
//   - error: a decode or validation error
func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettings reads and parses a settings file. An empty path returns DefaultSettings.
//
// Parameters:
//   - path: the settings file path, or ""
//
// Returns:
//   - Settings: the settings
//   - error: a read, decode or validation error
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	s, err := ParseSettings(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

var backends = map[string]wgpu.BackendType{
	"null":     wgpu.BackendTypeNull,
	"webgpu":   wgpu.BackendTypeWebGPU,
	"d3d11":    wgpu.BackendTypeD3D11,
	"d3d12":    wgpu.BackendTypeD3D12,
	"metal":    wgpu.BackendTypeMetal,
	"vulkan":   wgpu.BackendTypeVulkan,
	"opengl":   wgpu.BackendTypeOpenGL,
	"opengles": wgpu.BackendTypeOpenGLES,
}

// ParseBackend maps a backend name to its wgpu backend type.
//
// Parameters:
//   - name: the case-insensitive backend name
//
// Returns:
//   - wgpu.BackendType: the backend type
//   - error: an error if the name is unknown
func ParseBackend(name string) (wgpu.BackendType, error) {
	b, ok := backends[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown backend %q", name)
	}
	return b, nil
}

var topologies = map[string]wgpu.PrimitiveTopology{
	"point-list":     wgpu.PrimitiveTopologyPointList,
	"line-list":      wgpu.PrimitiveTopologyLineList,
	"line-strip":     wgpu.PrimitiveTopologyLineStrip,
	"triangle-list":  wgpu.PrimitiveTopologyTriangleList,
	"triangle-strip": wgpu.PrimitiveTopologyTriangleStrip,
}

// ParseTopology maps a topology name such as "triangle-list" to its wgpu value. Empty means triangle-list.
//
// Parameters:
//   - name: the topology name
//
// Returns:
//   - wgpu.PrimitiveTopology: the topology
//   - error: an error if the name is unknown
func ParseTopology(name string) (wgpu.PrimitiveTopology, error) {
	t, ok := topologies[strings.ToLower(common.Coalesce(name, "triangle-list"))]
	if !ok {
		return 0, fmt.Errorf("unknown topology %q", name)
	}
	return t, nil
}

// ParseDepthMode maps "flat" or "real" to a depth mode. Empty means inherit (DepthModeInvalid).
//
// Parameters:
//   - name: the depth mode name
//
// Returns:
//   - outline.DepthMode: the depth mode
//   - error: an error if the name is unknown
func ParseDepthMode(name string) (outline.DepthMode, error) {
	switch strings.ToLower(name) {
	case "":
		return outline.DepthModeInvalid, nil
	case "flat":
		return outline.DepthModeFlat, nil
	case "real":
		return outline.DepthModeReal, nil
	default:
		return outline.DepthModeInvalid, fmt.Errorf("unknown depth mode %q", name)
	}
}
