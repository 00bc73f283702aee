package csg

import "math"

// Solid is an immutable, validated polygon set. Operations on solids cannot
// fail and never share polygons with their operands.
type Solid struct {
	polygons []*Polygon
}

// NewSolid validates polygons and takes a private copy of them.
func NewSolid(polygons []*Polygon) (*Solid, error) {
	if err := Validate(polygons); err != nil {
		return nil, err
	}
	return &Solid{polygons: clonePolygons(polygons)}, nil
}

// SolidFromTriangles builds a solid from a flat triangle buffer.
func SolidFromTriangles(data []float32) (*Solid, error) {
	polygons, err := FromTriangles(data)
	if err != nil {
		return nil, err
	}
	return &Solid{polygons: polygons}, nil
}

// Polygons returns a copy of the solid's polygons.
func (s *Solid) Polygons() []*Polygon {
	return clonePolygons(s.polygons)
}

// Len returns the number of polygons.
func (s *Solid) Len() int {
	return len(s.polygons)
}

// Triangles returns the solid as a flat triangle buffer.
func (s *Solid) Triangles() []float32 {
	return ToTriangles(s.polygons)
}

func (s *Solid) Union(o *Solid) *Solid {
	return &Solid{polygons: union(s.polygons, o.polygons)}
}

func (s *Solid) Difference(o *Solid) *Solid {
	return &Solid{polygons: difference(s.polygons, o.polygons)}
}

func (s *Solid) Intersection(o *Solid) *Solid {
	return &Solid{polygons: intersection(s.polygons, o.polygons)}
}

func (s *Solid) Complement() *Solid {
	return &Solid{polygons: complement(s.polygons)}
}

// Transform maps every vertex through fn and rebuilds polygon planes. fn must
// preserve planarity (affine maps do). Polygons that collapse are dropped.
func (s *Solid) Transform(fn func(Vertex) Vertex) *Solid {
	out := make([]*Polygon, 0, len(s.polygons))
	for _, p := range s.polygons {
		vs := make([]Vertex, len(p.Vertices))
		for i, v := range p.Vertices {
			vs[i] = fn(v)
		}
		if q, ok := NewPolygon(vs); ok {
			out = append(out, q)
		}
	}
	return &Solid{polygons: out}
}

// Volume returns the enclosed volume, via the divergence theorem. It is
// meaningful only for closed, consistently wound polygon sets.
func (s *Solid) Volume() float64 {
	return Volume(s.polygons)
}

// Bounds returns the axis-aligned bounding box of the solid. An empty solid
// yields min = +Inf and max = -Inf.
func (s *Solid) Bounds() (min, max Vector) {
	return Bounds(s.polygons)
}

// Volume sums the signed volumes of the tetrahedra formed by the origin and
// each fan triangle of every polygon.
func Volume(polygons []*Polygon) float64 {
	var v float64
	for _, p := range polygons {
		vs := p.Vertices
		for i := 1; i+1 < len(vs); i++ {
			a, b, c := vs[0].Position, vs[i].Position, vs[i+1].Position
			v += a.Dot(b.Cross(c))
		}
	}
	return v / 6
}

// Bounds returns the axis-aligned bounding box of polygons.
func Bounds(polygons []*Polygon) (min, max Vector) {
	inf := math.Inf(1)
	min = Vector{inf, inf, inf}
	max = Vector{-inf, -inf, -inf}
	for _, p := range polygons {
		for _, v := range p.Vertices {
			min = Vector{math.Min(min.X, v.Position.X), math.Min(min.Y, v.Position.Y), math.Min(min.Z, v.Position.Z)}
			max = Vector{math.Max(max.X, v.Position.X), math.Max(max.Y, v.Position.Y), math.Max(max.Z, v.Position.Z)}
		}
	}
	return min, max
}
