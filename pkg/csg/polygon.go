package csg

// Polygon is a planar, convex-ish face. Vertices are in winding order and
// Plane always equals the plane through the first three vertices.
type Polygon struct {
	Vertices []Vertex
	Plane    Plane
}

// NewPolygon builds a polygon over vertices, which it takes ownership of.
// If the leading three vertices are collinear the list is rotated, keeping
// the winding, until a usable triple leads. ok is false when fewer than three
// vertices are given or every triple is degenerate.
func NewPolygon(vertices []Vertex) (p *Polygon, ok bool) {
	k, ok := leadingTriple(vertices)
	if !ok {
		return nil, false
	}
	p = &Polygon{Vertices: rotate(vertices, k)}
	p.updatePlane()
	return p, p.Plane.IsValid()
}

// leadingTriple returns the first index k such that vertices k, k+1 and k+2
// (cyclically) are not collinear.
func leadingTriple(vertices []Vertex) (int, bool) {
	n := len(vertices)
	if n < 3 {
		return 0, false
	}
	for k := 0; k < n; k++ {
		a := vertices[k].Position
		b := vertices[(k+1)%n].Position
		c := vertices[(k+2)%n].Position
		if !collinear(a, b, c) {
			return k, true
		}
	}
	return 0, false
}

func rotate(vertices []Vertex, k int) []Vertex {
	if k == 0 {
		return vertices
	}
	rotated := make([]Vertex, 0, len(vertices))
	rotated = append(rotated, vertices[k:]...)
	return append(rotated, vertices[:k]...)
}

func (p *Polygon) updatePlane() {
	p.Plane = PlaneFromPoints(p.Vertices[0].Position, p.Vertices[1].Position, p.Vertices[2].Position)
}

// Clone returns a deep copy of p.
func (p *Polygon) Clone() *Polygon {
	vs := make([]Vertex, len(p.Vertices))
	copy(vs, p.Vertices)
	return &Polygon{Vertices: vs, Plane: p.Plane}
}

// Flip turns the polygon inside out: the vertex order is reversed, every
// normal negated and the plane recomputed from the new order.
func (p *Polygon) Flip() {
	vs := p.Vertices
	for i, j := 0, len(vs)-1; i < j; i, j = i+1, j-1 {
		vs[i], vs[j] = vs[j], vs[i]
	}
	for i := range vs {
		vs[i].Flip()
	}
	k, ok := leadingTriple(vs)
	if !ok {
		p.Plane.Flip()
		return
	}
	p.Vertices = rotate(vs, k)
	p.updatePlane()
}

// SplitPolygon routes polygon into exactly one of the four buckets, or, when
// it straddles the plane, appends its front piece to front and its back piece
// to back. Pieces with fewer than three usable vertices are dropped.
func (pl Plane) SplitPolygon(polygon *Polygon, coFront, coBack, front, back *[]*Polygon) {
	var polygonType Side
	types := make([]Side, len(polygon.Vertices))
	for i, v := range polygon.Vertices {
		t := pl.Classify(v.Position)
		polygonType |= t
		types[i] = t
	}

	switch polygonType {
	case Coplanar:
		if pl.Normal.Dot(polygon.Plane.Normal) > 0 {
			*coFront = append(*coFront, polygon)
		} else {
			*coBack = append(*coBack, polygon)
		}
	case Front:
		*front = append(*front, polygon)
	case Back:
		*back = append(*back, polygon)
	case Spanning:
		n := len(polygon.Vertices)
		f := make([]Vertex, 0, n+1)
		b := make([]Vertex, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := polygon.Vertices[i], polygon.Vertices[j]
			if ti != Back {
				f = append(f, vi)
			}
			if ti != Front {
				b = append(b, vi)
			}
			if ti|tj == Spanning {
				v := vi.Interpolate(vj, pl.intersect(vi.Position, vj.Position))
				f = append(f, v)
				b = append(b, v)
			}
		}
		if p, ok := NewPolygon(f); ok {
			*front = append(*front, p)
		}
		if p, ok := NewPolygon(b); ok {
			*back = append(*back, p)
		}
	}
}

// intersect returns the parameter along a→b where the segment meets the
// plane, clamped to [0, 1]. A vanishing denominator falls back to the
// midpoint.
func (pl Plane) intersect(a, b Vector) float64 {
	denom := pl.Normal.Dot(b.Sub(a))
	if denom == 0 || !isFinite(denom) {
		return 0.5
	}
	t := (pl.W - pl.Normal.Dot(a)) / denom
	switch {
	case !isFinite(t):
		return 0.5
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}
