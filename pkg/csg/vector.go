package csg

import "math"

// Vector is a point or direction in 3D space.
type Vector struct {
	X, Y, Z float64
}

// Negate returns -v.
func (v Vector) Negate() Vector {
	return Vector{-v.X, -v.Y, -v.Z}
}

// Add returns v + b.
func (v Vector) Add(b Vector) Vector {
	return Vector{v.X + b.X, v.Y + b.Y, v.Z + b.Z}
}

// Sub returns v - b.
func (v Vector) Sub(b Vector) Vector {
	return Vector{v.X - b.X, v.Y - b.Y, v.Z - b.Z}
}

// Scale returns v * k.
func (v Vector) Scale(k float64) Vector {
	return Vector{v.X * k, v.Y * k, v.Z * k}
}

// Div returns v / k.
func (v Vector) Div(k float64) Vector {
	return Vector{v.X / k, v.Y / k, v.Z / k}
}

// Dot returns the dot product v·b.
func (v Vector) Dot(b Vector) float64 {
	return v.X*b.X + v.Y*b.Y + v.Z*b.Z
}

// Cross returns the cross product v×b.
func (v Vector) Cross(b Vector) Vector {
	return Vector{
		v.Y*b.Z - v.Z*b.Y,
		v.Z*b.X - v.X*b.Z,
		v.X*b.Y - v.Y*b.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vector) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v scaled to length 1. A zero vector yields NaN components.
func (v Vector) Unit() Vector {
	return v.Div(v.Length())
}

// Lerp linearly interpolates from v (t=0) to b (t=1).
func (v Vector) Lerp(b Vector, t float64) Vector {
	return v.Add(b.Sub(v).Scale(t))
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Vertex carries the per-corner attributes of a polygon. UV.Z is unused and
// kept at zero.
type Vertex struct {
	Position Vector
	Normal   Vector
	UV       Vector
}

// Flip negates the vertex normal.
func (v *Vertex) Flip() {
	v.Normal = v.Normal.Negate()
}

// Interpolate lerps position, normal and texture coordinate by the same t.
// The resulting normal is not renormalized.
func (v Vertex) Interpolate(b Vertex, t float64) Vertex {
	return Vertex{
		Position: v.Position.Lerp(b.Position, t),
		Normal:   v.Normal.Lerp(b.Normal, t),
		UV:       v.UV.Lerp(b.UV, t),
	}
}
