package shadow

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gridshadow/render"
	"github.com/gekko3d/gridshadow/scene"
)

// ShadowUniformSize is the std140 size of ShadowUniform: the vec3 centre is
// padded to 16 bytes.
const ShadowUniformSize = 96

// MeshUniformSize is one model matrix.
const MeshUniformSize = 64

// ShadowUniform is what the grid shading pass reads to project a world
// position into the grid's shadow texture.
type ShadowUniform struct {
	ViewProj    mgl32.Mat4
	Center      mgl32.Vec3
	Extent      mgl32.Vec2
	TextureSize mgl32.Vec2
}

func newShadowUniform(v *ShadowView, fp scene.FrustumFootprint, width, height uint32) ShadowUniform {
	return ShadowUniform{
		ViewProj:    v.View.Projection.Mul4(v.View.Transform.Inv()),
		Center:      fp.Center,
		Extent:      mgl32.Vec2{v.Area.Width(), v.Area.Height()},
		TextureSize: mgl32.Vec2{float32(width), float32(height)},
	}
}

func (u ShadowUniform) Bytes() []byte {
	out := make([]byte, 0, ShadowUniformSize)
	out = render.AppendFloats(out, u.ViewProj[:]...)
	out = render.AppendFloats(out, u.Center[:]...)
	out = render.AppendFloats(out, 0)
	out = render.AppendFloats(out, u.Extent[:]...)
	out = render.AppendFloats(out, u.TextureSize[:]...)
	return out
}

// Uniforms holds every grid's ShadowUniform for the frame.
type Uniforms struct {
	Buffer *render.DynamicUniformBuffer
}

func NewUniforms() *Uniforms {
	return &Uniforms{Buffer: render.NewDynamicUniformBuffer("grid_shadow_uniforms", ShadowUniformSize)}
}

// MeshUniforms holds one model matrix per queued shadow draw.
type MeshUniforms struct {
	Buffer *render.DynamicUniformBuffer
}

func NewMeshUniforms() *MeshUniforms {
	return &MeshUniforms{Buffer: render.NewDynamicUniformBuffer("grid_shadow_mesh_uniforms", MeshUniformSize)}
}
