package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gridshadow/assets"
)

type gridRecord struct {
	grid     Grid
	explicit bool
}

// World is the mutable scene owned by the host. Extract copies it into a
// Snapshot once per frame.
type World struct {
	entities  Entities
	viewport  *Viewport
	grids     []*gridRecord
	instances map[Entity]*MeshInstance
	order     []Entity
}

func NewWorld() *World {
	return &World{instances: make(map[Entity]*MeshInstance)}
}

func (w *World) SetViewport(width, height uint32) {
	w.viewport = &Viewport{Width: width, Height: height}
}

func (w *World) ClearViewport() { w.viewport = nil }

func (w *World) SpawnGrid(t Transform, fp FrustumFootprint) Entity {
	e := w.entities.Spawn()
	w.grids = append(w.grids, &gridRecord{grid: Grid{Entity: e, Transform: t, Footprint: fp}})
	return e
}

func (w *World) grid(e Entity) *gridRecord {
	for _, g := range w.grids {
		if g.grid.Entity == e {
			return g
		}
	}
	return nil
}

func (w *World) SetFootprint(e Entity, fp FrustumFootprint) bool {
	g := w.grid(e)
	if g == nil {
		return false
	}
	g.grid.Footprint = fp
	return true
}

// SetGridVisible pins the visible list of a grid, bypassing footprint
// visibility. A nil list restores footprint visibility.
func (w *World) SetGridVisible(e Entity, visible []Entity) bool {
	g := w.grid(e)
	if g == nil {
		return false
	}
	g.explicit = visible != nil
	g.grid.Visible = slices.Clone(visible)
	return true
}

func (w *World) SpawnMesh(mesh assets.MeshId, material assets.MaterialId, t Transform, shadowCaster bool) Entity {
	e := w.entities.Spawn()
	w.instances[e] = &MeshInstance{
		Entity:       e,
		Mesh:         mesh,
		Material:     material,
		Transform:    t,
		ShadowCaster: shadowCaster,
	}
	w.order = append(w.order, e)
	return e
}

func (w *World) SetTransform(e Entity, t Transform) bool {
	if inst, ok := w.instances[e]; ok {
		inst.Transform = t
		return true
	}
	if g := w.grid(e); g != nil {
		g.grid.Transform = t
		return true
	}
	return false
}

func (w *World) Despawn(e Entity) bool {
	if !w.entities.Despawn(e) {
		return false
	}
	if _, ok := w.instances[e]; ok {
		delete(w.instances, e)
		w.order = slices.DeleteFunc(w.order, func(o Entity) bool { return o == e })
	}
	w.grids = slices.DeleteFunc(w.grids, func(g *gridRecord) bool { return g.grid.Entity == e })
	return true
}

// Extract resets dst and fills it with the current scene state.
func (w *World) Extract(dst *Snapshot) {
	dst.Reset()
	if w.viewport != nil {
		vp := *w.viewport
		dst.Viewport = &vp
	}
	for _, e := range w.order {
		inst := *w.instances[e]
		dst.Instances[e] = &inst
	}
	for _, rec := range w.grids {
		g := rec.grid
		if rec.explicit {
			g.Visible = slices.Clone(rec.grid.Visible)
		} else {
			g.Visible = nil
			for _, e := range w.order {
				if InFootprint(g.Footprint, g.Up(), w.instances[e].Transform.Translation) {
					g.Visible = append(g.Visible, e)
				}
			}
		}
		dst.Grids = append(dst.Grids, g)
	}
}

// InFootprint reports whether p, projected along gridUp onto the grid plane,
// falls inside the footprint rectangle.
func InFootprint(fp FrustumFootprint, gridUp, p mgl32.Vec3) bool {
	up := fp.UpDir.Normalize()
	right := up.Cross(gridUp).Normalize()
	d := p.Sub(fp.Center)
	along := d.Dot(up)
	across := d.Dot(right)
	return abs32(along) <= fp.Height/2 && abs32(across) <= fp.Width/2
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
