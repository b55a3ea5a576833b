package backdrop

import "github.com/go-gl/mathgl/mgl64"

// Vec3 is a float64 point or Euler rotation in scene units. It keeps named
// fields for the JSON tunables and does its math through mgl64.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec2 is a point in viewport pixel space.
type Vec2 struct {
	X, Y float64
}

func fromMGL(m mgl64.Vec3) Vec3 {
	return Vec3{m[0], m[1], m[2]}
}

// MGL converts to the mathgl vector.
func (v Vec3) MGL() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return fromMGL(v.MGL().Add(o.MGL()))
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return fromMGL(v.MGL().Sub(o.MGL()))
}

func (v Vec3) Scale(s float64) Vec3 {
	return fromMGL(v.MGL().Mul(s))
}

func (v Vec3) Len() float64 {
	return v.MGL().Len()
}

// RotationMatrix treats v as XYZ-ordered Euler angles: Z is applied first,
// then Y, then X.
func (v Vec3) RotationMatrix() mgl64.Mat4 {
	return mgl64.HomogRotate3DX(v.X).Mul4(mgl64.HomogRotate3DY(v.Y)).Mul4(mgl64.HomogRotate3DZ(v.Z))
}

// Rotate applies the Euler rotation r to v.
func (v Vec3) Rotate(r Vec3) Vec3 {
	return fromMGL(r.RotationMatrix().Mul4x1(v.MGL().Vec4(1)).Vec3())
}
