package shadow

import "github.com/go-gl/mathgl/mgl32"

// Rect is an axis-aligned area in the shadow camera's view plane.
type Rect struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

func (r Rect) Width() float32  { return r.Max.X() - r.Min.X() }
func (r Rect) Height() float32 { return r.Max.Y() - r.Min.Y() }

// FootprintArea is the orthographic area covering a footprint of the given
// size, centred on the camera axis.
func FootprintArea(width, height float32) Rect {
	return Rect{
		Min: mgl32.Vec2{-width / 2, -height / 2},
		Max: mgl32.Vec2{width / 2, height / 2},
	}
}

// orthographic builds a right-handed projection mapping depth to [0, 1] as
// WebGPU clip space expects.
func orthographic(area Rect, near, far float32) mgl32.Mat4 {
	l, r := area.Min.X(), area.Max.X()
	b, t := area.Min.Y(), area.Max.Y()
	return mgl32.Mat4{
		2 / (r - l), 0, 0, 0,
		0, 2 / (t - b), 0, 0,
		0, 0, -1 / (far - near), 0,
		-(r + l) / (r - l), -(t + b) / (t - b), -near / (far - near), 1,
	}
}
