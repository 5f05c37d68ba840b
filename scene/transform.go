package scene

import "github.com/go-gl/mathgl/mgl32"

type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func FromTranslation(t mgl32.Vec3) Transform {
	tr := IdentityTransform()
	tr.Translation = t
	return tr
}

// Matrix returns the local-to-world matrix (translate * rotate * scale).
func (t Transform) Matrix() mgl32.Mat4 {
	s := t.Scale
	if s == (mgl32.Vec3{}) {
		s = mgl32.Vec3{1, 1, 1}
	}
	return mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(t.rotation().Mat4()).
		Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// Up is the transform's local +Y axis in world space.
func (t Transform) Up() mgl32.Vec3 {
	return t.rotation().Rotate(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (t Transform) rotation() mgl32.Quat {
	if t.Rotation.Len() == 0 {
		return mgl32.QuatIdent()
	}
	return t.Rotation.Normalize()
}
