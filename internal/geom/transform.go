package geom

import "github.com/go-gl/mathgl/mgl32"

// Transform is a position/rotation/scale triple.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix composes translation * rotation * scale. A zero quaternion is
// treated as identity.
func (t Transform) Matrix() mgl32.Mat4 {
	rotation := t.Rotation
	if rotation == (mgl32.Quat{}) {
		rotation = mgl32.QuatIdent()
	}
	return TRS(t.Position, rotation.Mat4(), t.Scale)
}

// TRS multiplies right-to-left: scale first, then rotate, then translate.
func TRS(position mgl32.Vec3, rotation mgl32.Mat4, scale mgl32.Vec3) mgl32.Mat4 {
	scaleMatrix := mgl32.Scale3D(scale[0], scale[1], scale[2])
	translationMatrix := mgl32.Translate3D(position[0], position[1], position[2])
	return translationMatrix.Mul4(rotation).Mul4(scaleMatrix)
}

// AxisAngle returns a rotation matrix of angleDeg degrees around axis. A zero
// axis yields identity.
func AxisAngle(axis mgl32.Vec3, angleDeg float32) mgl32.Mat4 {
	if axis.Len() == 0 || angleDeg == 0 {
		return mgl32.Ident4()
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(angleDeg), axis.Normalize())
}

// Translation returns the translation column of m.
func Translation(m mgl32.Mat4) mgl32.Vec3 {
	return m.Col(3).Vec3()
}
