package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneYAML = `
viewport: {width: 1920, height: 1080}
grids:
  - name: yard
    footprint: {width: 100, height: 50}
objects:
  - {name: crate, shape: cube, translation: [0, 1, 0]}
  - {name: post, shape: pyramid, size: [1, 3], translation: [10, 0, 5]}
  - {name: marker, shape: cube, shadow_caster: false}
`

const configYAML = `
render:
  validate_shaders: false
logging:
  level: warn
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	root := New(&out, &logs).RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSimulate_ReportsGridPasses(t *testing.T) {
	scenePath := writeFile(t, "scene.yaml", sceneYAML)
	configPath := writeFile(t, "config.yaml", configYAML)

	var out, logs bytes.Buffer
	c := New(&out, &logs)
	c.configPath = configPath
	cfg, err := c.loadConfig()
	require.NoError(t, err)

	root := c.RootCommand()
	root.SetContext(context.Background())
	report, err := c.simulate(root, cfg, simulateOptions{scene: scenePath, frames: 3})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), report.Frames)
	assert.Equal(t, 3, report.Submitted)
	assert.Equal(t, 1, report.Textures)
	require.Len(t, report.Grids, 1)
	g := report.Grids[0]
	assert.Equal(t, "yard", g.Name)
	assert.Equal(t, 3, g.Visible)
	assert.Equal(t, 2, g.Queued)
	assert.Equal(t, 2, g.Drawn)
	assert.Greater(t, g.Width, g.Height)
}

func TestSimulateCommand_PrintsReport(t *testing.T) {
	scenePath := writeFile(t, "scene.yaml", sceneYAML)
	configPath := writeFile(t, "config.yaml", configYAML)

	out, err := execute(t, "simulate", "--config", configPath, "--scene", scenePath, "--frames", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2 frames rendered")
	assert.Contains(t, out, "yard")
	assert.Contains(t, out, "2 submits, 1 pooled textures")
}

func TestSimulateCommand_Errors(t *testing.T) {
	scenePath := writeFile(t, "scene.yaml", sceneYAML)

	_, err := execute(t, "simulate")
	assert.Error(t, err, "scene flag is required")

	_, err = execute(t, "simulate", "--scene", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "simulate", "--scene", scenePath, "--frames", "0")
	assert.ErrorContains(t, err, "--frames")

	bad := writeFile(t, "bad.yaml", "render: {max_texture_size: 0}\n")
	_, err = execute(t, "simulate", "--config", bad, "--scene", scenePath)
	assert.ErrorContains(t, err, "max_texture_size")
}
