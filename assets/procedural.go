package assets

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
)

// CreateCubeMesh builds an axis-aligned box centred on the origin with one
// quad per face so normals stay flat.
func CreateCubeMesh(sizeX, sizeY, sizeZ float32) *Mesh {
	hx, hy, hz := sizeX/2, sizeY/2, sizeZ/2
	faces := []struct {
		normal mgl32.Vec3
		corner [4]mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{hx, -hy, -hz}, {-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{hx, -hy, hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}, {-hx, hy, -hz}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
	}
	m := &Mesh{Label: "cube", Topology: gputypes.PrimitiveTopologyTriangleList}
	for _, f := range faces {
		base := uint32(len(m.Positions))
		for _, c := range f.corner {
			m.Positions = append(m.Positions, c)
			m.Normals = append(m.Normals, f.normal)
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

// CreatePlaneMesh builds a square in the XZ plane facing +Y.
func CreatePlaneMesh(size float32) *Mesh {
	h := size / 2
	up := mgl32.Vec3{0, 1, 0}
	return &Mesh{
		Label:     "plane",
		Topology:  gputypes.PrimitiveTopologyTriangleList,
		Positions: []mgl32.Vec3{{-h, 0, h}, {h, 0, h}, {h, 0, -h}, {-h, 0, -h}},
		Normals:   []mgl32.Vec3{up, up, up, up},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
	}
}

// CreatePyramidMesh builds a square-based pyramid standing on the XZ plane.
func CreatePyramidMesh(size, height float32) *Mesh {
	h := size / 2
	apex := mgl32.Vec3{0, height, 0}
	base := [4]mgl32.Vec3{{-h, 0, h}, {h, 0, h}, {h, 0, -h}, {-h, 0, -h}}
	m := &Mesh{Label: "pyramid", Topology: gputypes.PrimitiveTopologyTriangleList}
	for i := range base {
		a, b := base[i], base[(i+1)%4]
		n := b.Sub(a).Cross(apex.Sub(a)).Normalize()
		start := uint32(len(m.Positions))
		m.Positions = append(m.Positions, a, b, apex)
		m.Normals = append(m.Normals, n, n, n)
		m.Indices = append(m.Indices, start, start+1, start+2)
	}
	down := mgl32.Vec3{0, -1, 0}
	start := uint32(len(m.Positions))
	for i := 3; i >= 0; i-- {
		m.Positions = append(m.Positions, base[i])
		m.Normals = append(m.Normals, down)
	}
	m.Indices = append(m.Indices, start, start+1, start+2, start, start+2, start+3)
	return m
}
