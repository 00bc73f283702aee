package csg

import "math"

// Epsilon is the half-width of the band around a plane inside which a point
// counts as lying on it.
const Epsilon = 1e-5

// degenerateArea bounds the squared cross-product length below which three
// points are treated as collinear.
const degenerateArea = 1e-24

// Side classifies a point or polygon relative to a plane. Polygon
// classifications are the bitwise OR of their vertex classifications.
type Side int

const (
	Coplanar Side = 0
	Front    Side = 1
	Back     Side = 2
	Spanning Side = Front | Back
)

func (s Side) String() string {
	switch s {
	case Coplanar:
		return "coplanar"
	case Front:
		return "front"
	case Back:
		return "back"
	case Spanning:
		return "spanning"
	default:
		return "unknown"
	}
}

// Plane is the set of points P with Normal·P = W. Normal has unit length.
type Plane struct {
	Normal Vector
	W      float64
}

// PlaneFromPoints returns the plane through a, b and c, oriented by the
// right-hand rule. Collinear points give a plane for which IsValid is false.
func PlaneFromPoints(a, b, c Vector) Plane {
	n := b.Sub(a).Cross(c.Sub(a)).Unit()
	return Plane{Normal: n, W: n.Dot(a)}
}

// IsValid reports whether the plane has a finite offset and a finite
// normal of unit length.
func (p Plane) IsValid() bool {
	return p.Normal.IsFinite() && isFinite(p.W) &&
		math.Abs(p.Normal.Length()-1) <= Epsilon
}

// approxEqual reports whether p and q agree within Epsilon in every normal
// component and in the offset.
func (p Plane) approxEqual(q Plane) bool {
	d := p.Normal.Sub(q.Normal)
	return math.Abs(d.X) <= Epsilon && math.Abs(d.Y) <= Epsilon &&
		math.Abs(d.Z) <= Epsilon && math.Abs(p.W-q.W) <= Epsilon
}

// Flipped returns the plane facing the opposite way.
func (p Plane) Flipped() Plane {
	return Plane{Normal: p.Normal.Negate(), W: -p.W}
}

// Flip reverses the plane in place.
func (p *Plane) Flip() {
	*p = p.Flipped()
}

// Distance returns the signed distance from the plane to point.
func (p Plane) Distance(point Vector) float64 {
	return p.Normal.Dot(point) - p.W
}

// Classify places point in front of, behind or on the plane.
func (p Plane) Classify(point Vector) Side {
	d := p.Distance(point)
	switch {
	case d > Epsilon:
		return Front
	case d < -Epsilon:
		return Back
	default:
		return Coplanar
	}
}

// collinear reports whether a, b and c span no area.
func collinear(a, b, c Vector) bool {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Dot(n)
	return l <= degenerateArea || math.IsNaN(l)
}
