package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a decomposed affine transform: translate, rotate, scale
type Transform struct {
	Position Vector3
	Rotation mgl64.Quat
	Scale    Vector3
}

// IdentityTransform returns a transform with no translation, rotation or scaling
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    NewVector3(1, 1, 1),
	}
}

// Matrix composes the transform as T * R * S
func (t Transform) Matrix() mgl64.Mat4 {
	translate := mgl64.Translate3D(t.Position.X, t.Position.Y, t.Position.Z)
	scale := mgl64.Scale3D(t.Scale.X, t.Scale.Y, t.Scale.Z)
	return translate.Mul4(t.Rotation.Normalize().Mat4()).Mul4(scale)
}

// Decompose splits a column-major affine matrix into position, rotation and scale.
// A negative determinant is folded into the X scale.
func Decompose(m mgl64.Mat4) Transform {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Det() < 0 {
		sx = -sx
	}

	t := Transform{
		Position: FromVec3(m.Col(3).Vec3()),
		Scale:    NewVector3(sx, sy, sz),
		Rotation: mgl64.QuatIdent(),
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return t
	}

	rot := mgl64.Ident4()
	rot.SetCol(0, m.Col(0).Mul(1/sx))
	rot.SetCol(1, m.Col(1).Mul(1/sy))
	rot.SetCol(2, m.Col(2).Mul(1/sz))
	rot.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	t.Rotation = mgl64.Mat4ToQuat(rot).Normalize()
	return t
}

// YawToward returns the rotation about +Y that turns a model's +Z front at
// `from` toward `to`, ignoring height difference
func YawToward(from, to Vector3) mgl64.Quat {
	dx := to.X - from.X
	dz := to.Z - from.Z
	if dx == 0 && dz == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(math.Atan2(dx, dz), mgl64.Vec3{0, 1, 0})
}
