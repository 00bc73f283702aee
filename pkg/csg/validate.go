package csg

import "github.com/pkg/errors"

var (
	ErrTooFewVertices = errors.New("polygon has fewer than 3 vertices")
	ErrNonFinite      = errors.New("non-finite vertex attribute")
	ErrDegenerate     = errors.New("degenerate polygon")
	ErrStalePlane     = errors.New("cached plane does not match the leading vertices")
	ErrBadLength      = errors.New("triangle buffer length is not a multiple of 24")
)

// Validate checks that every polygon can safely enter a BSP tree: at least
// three vertices, finite attributes, a non-collinear leading triple and a
// cached plane equal to the plane through that triple.
func Validate(polygons []*Polygon) error {
	for i, p := range polygons {
		if err := validatePolygon(p); err != nil {
			return errors.Wrapf(err, "polygon %d", i)
		}
	}
	return nil
}

func validatePolygon(p *Polygon) error {
	if p == nil || len(p.Vertices) < 3 {
		return ErrTooFewVertices
	}
	for j, v := range p.Vertices {
		if !v.Position.IsFinite() || !v.Normal.IsFinite() || !v.UV.IsFinite() {
			return errors.Wrapf(ErrNonFinite, "vertex %d", j)
		}
	}
	want := PlaneFromPoints(p.Vertices[0].Position, p.Vertices[1].Position, p.Vertices[2].Position)
	if !want.IsValid() {
		return ErrDegenerate
	}
	if !p.Plane.IsValid() || !p.Plane.approxEqual(want) {
		return errors.Wrapf(ErrStalePlane, "have %v, want %v", p.Plane, want)
	}
	return nil
}
