// Package shadow renders shadow casters into a per-grid occlusion texture
// seen from an orthographic camera above the grid, and exposes that texture
// to the grid shading pass through a bind group.
package shadow

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultMaxTextureSize        = 16384
	DefaultCameraOffset          = 500
	DefaultPipelineWarnThreshold = 256
)

type Settings struct {
	// MaxTextureSize bounds the long side of every shadow texture.
	MaxTextureSize uint32
	// CameraOffset is how far above the footprint centre, along the grid
	// normal, the shadow camera sits.
	CameraOffset float32
	// PipelineWarnThreshold is the specialized pipeline count past which a
	// warning is logged once.
	PipelineWarnThreshold int
}

func DefaultSettings() Settings {
	return Settings{
		MaxTextureSize:        DefaultMaxTextureSize,
		CameraOffset:          DefaultCameraOffset,
		PipelineWarnThreshold: DefaultPipelineWarnThreshold,
	}
}

// WithDefaults fills every zero field from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.MaxTextureSize == 0 {
		s.MaxTextureSize = d.MaxTextureSize
	}
	if s.CameraOffset == 0 {
		s.CameraOffset = d.CameraOffset
	}
	if s.PipelineWarnThreshold == 0 {
		s.PipelineWarnThreshold = d.PipelineWarnThreshold
	}
	return s
}

// Validate rejects settings that would build a degenerate shadow camera.
func (s Settings) Validate() error {
	if s.MaxTextureSize == 0 {
		return errors.New("grid shadow: max texture size must be positive")
	}
	if !(s.CameraOffset > 0) || math.IsInf(float64(s.CameraOffset), 1) {
		return fmt.Errorf("grid shadow: camera offset %v must be positive and finite", s.CameraOffset)
	}
	return nil
}

// Logger is the logging surface the shadow systems write to.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
