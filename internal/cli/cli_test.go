package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-outline/engine/outline"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliScene = `
[[mesh]]
name = "cube"

[[camera]]
key = 0
position = [0.0, 0.0, 10.0]

[[entity]]
name = "crate"
mesh = "cube"
depth = "real"
[entity.stencil]
[entity.volume]
offset = 0.1
colour = [1.0, 0.5, 0.0, 1.0]

[[entity]]
name = "glass"
mesh = "cube"
depth = "flat"
[entity.volume]
offset = 0.1
colour = [0.0, 0.5, 1.0, 0.3]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(withLogger(context.Background(), newLogger(io.Discard, log.InfoLevel)))
	return out.String(), err
}

func TestQueueCmd(t *testing.T) {
	t.Parallel()
	scene := writeFile(t, "scene.toml", cliScene)
	settings := writeFile(t, "settings.toml", "[render]\nmsaa = 1\nbackend = \"opengl\"\n")

	out, err := runCmd(t, newQueueCmd(), "--scene", scene, "--config", settings, "--frames", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Frame 2")
	assert.Contains(t, out, "crate")
	assert.Contains(t, out, "glass")
	assert.Contains(t, out, "transparent")
	assert.Contains(t, out, "_gl")
}

func TestQueueCmd_Examples(t *testing.T) {
	t.Parallel()
	scene := filepath.Join("..", "..", "examples", "scene.toml")
	settings := filepath.Join("..", "..", "examples", "settings.toml")

	out, err := runCmd(t, newQueueCmd(), "--scene", scene, "--config", settings)
	require.NoError(t, err)

	assert.Contains(t, out, "hero")
	assert.Contains(t, out, "sidekick")
	assert.Contains(t, out, "rail")
	assert.NotContains(t, out, "loading")
}

func TestQueueCmd_Errors(t *testing.T) {
	t.Parallel()
	scene := writeFile(t, "scene.toml", cliScene)

	_, err := runCmd(t, newQueueCmd(), "--scene", scene, "--frames", "0")
	assert.Error(t, err)

	_, err = runCmd(t, newQueueCmd(), "--scene", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := writeFile(t, "settings.toml", "[render]\nmsaa = 3\n")
	_, err = runCmd(t, newQueueCmd(), "--scene", scene, "--config", bad)
	assert.Error(t, err)
}

func TestKeyCmd(t *testing.T) {
	t.Parallel()
	out, err := runCmd(t, newKeyCmd(), "--pass", "transparent", "--depth", "flat", "--hdr", "--backend", "opengles")
	require.NoError(t, err)

	assert.Contains(t, out, outline.ShaderDefTransparent)
	assert.Contains(t, out, outline.ShaderDefFlatDepth)
	assert.Contains(t, out, outline.ShaderDefOpenGLWorkaround)
	assert.Contains(t, out, "specialized outline_msaa4_transparent")
}

func TestKeyCmd_Invalid(t *testing.T) {
	t.Parallel()

	_, err := runCmd(t, newKeyCmd(), "--pass", "shadow")
	assert.Error(t, err)

	_, err = runCmd(t, newKeyCmd(), "--depth", "")
	assert.Error(t, err, "an invalid depth mode cannot be specialized")

	_, err = runCmd(t, newKeyCmd(), "--msaa", "2")
	assert.Error(t, err)
}

func TestRunCmd(t *testing.T) {
	t.Parallel()
	scene := writeFile(t, "scene.toml", cliScene)

	out, err := runCmd(t, newRunCmd(), "--scene", scene, "--duration", "50ms", "--dolly", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "frames")
	assert.Contains(t, out, "pipelines")
}

func TestLoggerFromContext(t *testing.T) {
	t.Parallel()
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))

	l := newLogger(io.Discard, log.DebugLevel)
	assert.Same(t, l, loggerFromContext(withLogger(context.Background(), l)))
}

func TestRunCmd_Dolly(t *testing.T) {
	t.Parallel()
	scene := writeFile(t, "scene.toml", cliScene)

	cmd := newRunCmd()
	out, err := runCmd(t, cmd, "--scene", scene, "--duration", "50ms", "--dolly", "2.5")
	require.NoError(t, err)
	assert.Equal(t, "2.5", cmd.Flags().Lookup("dolly").Value.String())
	assert.Contains(t, out, "frames")
	assert.Contains(t, out, "pipelines")
}
