// Package config loads the grid shadow renderer configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/gridshadow/gpu"
	"github.com/gekko3d/gridshadow/shadow"
)

// Config holds all renderer settings.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Window  WindowConfig  `yaml:"window"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig holds the grid shadow pass settings.
type RenderConfig struct {
	MaxTextureSize             uint32  `yaml:"max_texture_size"`
	CameraOffset               float32 `yaml:"camera_offset"`
	TexturePoolMaxUnusedFrames int     `yaml:"texture_pool_max_unused_frames"`
	PipelineWarnThreshold      int     `yaml:"pipeline_warn_threshold"`
	ValidateShaders            bool    `yaml:"validate_shaders"`
}

// WindowConfig holds the window opened by the run command.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with the renderer's default values.
func Default() *Config {
	s := shadow.DefaultSettings()
	return &Config{
		Render: RenderConfig{
			MaxTextureSize:             s.MaxTextureSize,
			CameraOffset:               s.CameraOffset,
			TexturePoolMaxUnusedFrames: gpu.DefaultMaxUnusedFrames,
			PipelineWarnThreshold:      s.PipelineWarnThreshold,
			ValidateShaders:            true,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "gridshadow",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var levels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

func (c *Config) Validate() error {
	var errs []error
	if c.Render.MaxTextureSize == 0 {
		errs = append(errs, errors.New("render.max_texture_size must be positive"))
	}
	if c.Render.CameraOffset <= 0 {
		errs = append(errs, errors.New("render.camera_offset must be positive"))
	}
	if c.Render.TexturePoolMaxUnusedFrames < 1 {
		errs = append(errs, errors.New("render.texture_pool_max_unused_frames must be at least 1"))
	}
	if c.Render.PipelineWarnThreshold < 1 {
		errs = append(errs, errors.New("render.pipeline_warn_threshold must be at least 1"))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if !levels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// ShadowSettings converts the render section for the grid shadow module.
func (c *Config) ShadowSettings() shadow.Settings {
	return shadow.Settings{
		MaxTextureSize:        c.Render.MaxTextureSize,
		CameraOffset:          c.Render.CameraOffset,
		PipelineWarnThreshold: c.Render.PipelineWarnThreshold,
	}
}
