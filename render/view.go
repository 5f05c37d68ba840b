package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/gridshadow/gpu"
)

// ViewUniformSize is the byte size of the WGSL View struct.
const ViewUniformSize = 224

// ExtractedView is a camera the renderer draws from this frame. Transform is
// camera-to-world.
type ExtractedView struct {
	Label      string
	Projection mgl32.Mat4
	Transform  mgl32.Mat4
	// Viewport is x, y, width, height in pixels.
	Viewport [4]uint32

	// UniformOffset is the view's dynamic offset in ViewUniforms, valid once
	// PrepareViewUniforms has run this frame.
	UniformOffset uint32
}

type ViewUniform struct {
	ViewProj      mgl32.Mat4
	View          mgl32.Mat4
	Projection    mgl32.Mat4
	WorldPosition mgl32.Vec3
	Viewport      mgl32.Vec4
}

func (v *ExtractedView) Uniform() ViewUniform {
	view := v.Transform.Inv()
	return ViewUniform{
		ViewProj:      v.Projection.Mul4(view),
		View:          view,
		Projection:    v.Projection,
		WorldPosition: v.Transform.Col(3).Vec3(),
		Viewport: mgl32.Vec4{
			float32(v.Viewport[0]), float32(v.Viewport[1]),
			float32(v.Viewport[2]), float32(v.Viewport[3]),
		},
	}
}

// Bytes encodes the uniform in WGSL uniform layout.
func (u ViewUniform) Bytes() []byte {
	out := make([]byte, 0, ViewUniformSize)
	out = AppendFloats(out, u.ViewProj[:]...)
	out = AppendFloats(out, u.View[:]...)
	out = AppendFloats(out, u.Projection[:]...)
	out = AppendFloats(out, u.WorldPosition[:]...)
	out = AppendFloats(out, 0)
	out = AppendFloats(out, u.Viewport[:]...)
	return out
}

// AppendFloats encodes fs little-endian onto out.
func AppendFloats(out []byte, fs ...float32) []byte {
	for _, f := range fs {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

// Views collects every view rendered this frame.
type Views struct {
	list []*ExtractedView
}

func (v *Views) Add(view *ExtractedView) { v.list = append(v.list, view) }
func (v *Views) All() []*ExtractedView   { return v.list }
func (v *Views) Clear()                  { v.list = v.list[:0] }

type ViewUniforms struct {
	Buffer *DynamicUniformBuffer
}

func NewViewUniforms() *ViewUniforms {
	return &ViewUniforms{Buffer: NewDynamicUniformBuffer("view_uniforms", ViewUniformSize)}
}

// PrepareViewUniforms writes one uniform per view and records its offset.
func PrepareViewUniforms(device gpu.Device, views *Views, uniforms *ViewUniforms) error {
	uniforms.Buffer.Clear()
	for _, v := range views.All() {
		v.UniformOffset = uniforms.Buffer.Push(v.Uniform().Bytes())
	}
	return uniforms.Buffer.Write(device)
}
