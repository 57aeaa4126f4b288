package gm

import (
	"fmt"
	"math"
)

type Vec struct {
	X, Y float64
}

var VecZero = Vec{}

func (v Vec) Add(other Vec) Vec {
	v.X += other.X
	v.Y += other.Y
	return v
}

func (v Vec) Sub(other Vec) Vec {
	v.X -= other.X
	v.Y -= other.Y
	return v
}

func (v Vec) Mul(scalar float64) Vec {
	v.X *= scalar
	v.Y *= scalar
	return v
}

func (v Vec) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vec) String() string {
	return fmt.Sprintf("vec(x=%v, y=%v)", v.X, v.Y)
}

// Vec3 is a position or direction in 3d space, y pointing up.
type Vec3 struct {
	X, Y, Z float64
}

// Vec3Of converts an array of three scalars, e.g. a glTF translation.
func Vec3Of[S float32 | float64](v [3]S) Vec3 {
	return Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

func (v Vec3) Add(other Vec3) Vec3 {
	v.X += other.X
	v.Y += other.Y
	v.Z += other.Z
	return v
}

func (v Vec3) Sub(other Vec3) Vec3 {
	v.X -= other.X
	v.Y -= other.Y
	v.Z -= other.Z
	return v
}

func (v Vec3) Mul(scalar float64) Vec3 {
	v.X *= scalar
	v.Y *= scalar
	v.Z *= scalar
	return v
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// XZ projects the vector onto the ground plane.
func (v Vec3) XZ() Vec {
	return Vec{X: v.X, Y: v.Z}
}

func (v Vec3) String() string {
	return fmt.Sprintf("vec3(x=%v, y=%v, z=%v)", v.X, v.Y, v.Z)
}
