// Package scene holds the per-frame data the renderer reads: grids with their
// visible entities, mesh instances and the primary viewport.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gridshadow/assets"
)

// FrustumFootprint is the rectangle of a grid plane covered by the main
// camera frustum, centred on Center with Width along the plane's right axis
// and Height along UpDir.
type FrustumFootprint struct {
	Center mgl32.Vec3
	Width  float32
	Height float32
	UpDir  mgl32.Vec3
}

type Grid struct {
	Entity    Entity
	Transform Transform
	Footprint FrustumFootprint
	// Visible lists entities that passed visibility for this grid.
	Visible []Entity
}

func (g *Grid) Up() mgl32.Vec3 { return g.Transform.Up() }

type MeshInstance struct {
	Entity       Entity
	Mesh         assets.MeshId
	Material     assets.MaterialId
	Transform    Transform
	ShadowCaster bool
}

type Viewport struct {
	Width  uint32
	Height uint32
}

// Snapshot is the extracted, read-only view of the scene for one frame.
type Snapshot struct {
	Viewport  *Viewport
	Grids     []Grid
	Instances map[Entity]*MeshInstance
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Instances: make(map[Entity]*MeshInstance)}
}

// PrimaryViewport returns the physical size of the primary viewport. It
// reports false when no viewport is known or it has a zero dimension.
func (s *Snapshot) PrimaryViewport() (width, height uint32, ok bool) {
	if s == nil || s.Viewport == nil || s.Viewport.Width == 0 || s.Viewport.Height == 0 {
		return 0, 0, false
	}
	return s.Viewport.Width, s.Viewport.Height, true
}

func (s *Snapshot) Instance(e Entity) (*MeshInstance, bool) {
	inst, ok := s.Instances[e]
	return inst, ok
}

func (s *Snapshot) Reset() {
	s.Viewport = nil
	s.Grids = s.Grids[:0]
	clear(s.Instances)
}
