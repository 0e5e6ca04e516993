package vec

import "math"

type Vec3 [3]float32

// Axes is a listener orientation: forward, left, up.
type Axes [3]Vec3

var Identity = Axes{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

func Add(a, b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func Sub(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func Scale(v Vec3, s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func Dot(a, b Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (v Vec3) LengthSquared() float32 {
	return Dot(v, v)
}

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// Normalize returns the unit vector and the original length.
// A zero vector is returned unchanged with length 0.
func (v Vec3) Normalize() (Vec3, float32) {
	l := v.Length()
	if l == 0 {
		return v, 0
	}
	inv := 1 / l
	return Scale(v, inv), l
}

func DistanceSquared(a, b Vec3) float32 {
	return Sub(a, b).LengthSquared()
}

// Rotate expresses v in the frame given by axes.
func Rotate(v Vec3, axes Axes) Vec3 {
	return Vec3{Dot(v, axes[0]), Dot(v, axes[1]), Dot(v, axes[2])}
}
