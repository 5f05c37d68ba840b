package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, uint32(16384), cfg.Render.MaxTextureSize)
	assert.Equal(t, float32(500), cfg.Render.CameraOffset)
	assert.Equal(t, 3, cfg.Render.TexturePoolMaxUnusedFrames)
	assert.Equal(t, 256, cfg.Render.PipelineWarnThreshold)
	assert.True(t, cfg.Render.ValidateShaders)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
render:
  max_texture_size: 4096
  camera_offset: 120
window:
  title: shadows
logging:
  level: debug
  file: /tmp/gridshadow.log
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(4096), cfg.Render.MaxTextureSize)
	assert.Equal(t, float32(120), cfg.Render.CameraOffset)
	// Keys missing from the file keep their defaults.
	assert.Equal(t, 3, cfg.Render.TexturePoolMaxUnusedFrames)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, "shadows", cfg.Window.Title)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/gridshadow.log", cfg.Logging.File)

	s := cfg.ShadowSettings()
	assert.Equal(t, uint32(4096), s.MaxTextureSize)
	assert.Equal(t, float32(120), s.CameraOffset)
	assert.Equal(t, 256, s.PipelineWarnThreshold)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("render: [not, a, map"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("render:\n  max_texture_size: 0\nlogging:\n  level: loud\n"), 0o644))
	_, err = Load(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_texture_size")
	assert.Contains(t, err.Error(), "loud")
}
