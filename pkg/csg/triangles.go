package csg

import "github.com/pkg/errors"

// Flat triangle buffers hold, per vertex, px py pz nx ny nz u v.
const (
	FloatsPerVertex   = 8
	FloatsPerTriangle = 3 * FloatsPerVertex
)

// FromTriangles expands a flat triangle buffer into one polygon per triangle.
func FromTriangles(data []float32) ([]*Polygon, error) {
	if len(data)%FloatsPerTriangle != 0 {
		return nil, errors.Wrapf(ErrBadLength, "got %d floats", len(data))
	}
	count := len(data) / FloatsPerTriangle
	polygons := make([]*Polygon, 0, count)
	for i := 0; i < count; i++ {
		tri := data[i*FloatsPerTriangle : (i+1)*FloatsPerTriangle]
		vertices := make([]Vertex, 3)
		for j := range vertices {
			vertices[j] = readVertex(tri[j*FloatsPerVertex:])
			v := vertices[j]
			if !v.Position.IsFinite() || !v.Normal.IsFinite() || !v.UV.IsFinite() {
				return nil, errors.Wrapf(ErrNonFinite, "triangle %d vertex %d", i, j)
			}
		}
		p := &Polygon{Vertices: vertices}
		p.updatePlane()
		if !p.Plane.IsValid() {
			return nil, errors.Wrapf(ErrDegenerate, "triangle %d", i)
		}
		polygons = append(polygons, p)
	}
	return polygons, nil
}

// ToTriangles flattens polygons into a triangle buffer. Triangles are copied
// through unchanged; larger polygons are fanned out from their first vertex.
func ToTriangles(polygons []*Polygon) []float32 {
	n := 0
	for _, p := range polygons {
		n += len(p.Vertices) - 2
	}
	out := make([]float32, 0, n*FloatsPerTriangle)
	for _, p := range polygons {
		vs := p.Vertices
		for i := 1; i+1 < len(vs); i++ {
			out = appendVertex(out, vs[0])
			out = appendVertex(out, vs[i])
			out = appendVertex(out, vs[i+1])
		}
	}
	return out
}

func readVertex(d []float32) Vertex {
	return Vertex{
		Position: Vector{float64(d[0]), float64(d[1]), float64(d[2])},
		Normal:   Vector{float64(d[3]), float64(d[4]), float64(d[5])},
		UV:       Vector{float64(d[6]), float64(d[7]), 0},
	}
}

func appendVertex(out []float32, v Vertex) []float32 {
	return append(out,
		float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z),
		float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z),
		float32(v.UV.X), float32(v.UV.Y),
	)
}
