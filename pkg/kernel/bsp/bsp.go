// Package bsp implements the kernel.Kernel interface on exact polygon
// meshes, using the BSP tree booleans from package csg.
package bsp

import (
	"fmt"
	"math"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

// Compile-time interface check.
var _ kernel.Kernel = (*BSPKernel)(nil)

// bspSolid wraps a csg.Solid to implement kernel.Solid.
type bspSolid struct {
	s *csg.Solid
}

// BoundingBox returns the axis-aligned bounding box.
func (s *bspSolid) BoundingBox() (min, max [3]float64) {
	lo, hi := s.s.Bounds()
	return [3]float64{lo.X, lo.Y, lo.Z}, [3]float64{hi.X, hi.Y, hi.Z}
}

// BSPKernel implements kernel.Kernel with polygonal solids.
type BSPKernel struct{}

// New returns a new BSPKernel.
func New() *BSPKernel {
	return &BSPKernel{}
}

func unwrap(s kernel.Solid) *csg.Solid {
	return s.(*bspSolid).s
}

func wrap(s *csg.Solid) kernel.Solid {
	return &bspSolid{s: s}
}

// mustSolid builds a solid from generated polygons. Generators only emit
// valid polygons, so a failure here is a programming error.
func mustSolid(name string, polygons []*csg.Polygon) kernel.Solid {
	s, err := csg.NewSolid(polygons)
	if err != nil {
		panic(fmt.Sprintf("bsp.%s: %v", name, err))
	}
	return wrap(s)
}

// appendPolygon appends the polygon through vs, wound counter-clockwise
// when seen from outside.
func appendPolygon(out []*csg.Polygon, vs ...csg.Vertex) []*csg.Polygon {
	if p, ok := csg.NewPolygon(vs); ok {
		out = append(out, p)
	}
	return out
}

// Box creates a box with the given dimensions and its minimum corner at the
// origin, matching the sdfx kernel's placement convention.
func (k *BSPKernel) Box(x, y, z float64) kernel.Solid {
	if x <= 0 || y <= 0 || z <= 0 {
		panic(fmt.Sprintf("bsp.Box: invalid size %v x %v x %v", x, y, z))
	}
	faces := []struct {
		n       csg.Vector
		corners [4]csg.Vector
	}{
		{csg.Vector{X: -1}, [4]csg.Vector{{}, {Z: z}, {Y: y, Z: z}, {Y: y}}},
		{csg.Vector{X: 1}, [4]csg.Vector{{X: x}, {X: x, Y: y}, {X: x, Y: y, Z: z}, {X: x, Z: z}}},
		{csg.Vector{Y: -1}, [4]csg.Vector{{}, {X: x}, {X: x, Z: z}, {Z: z}}},
		{csg.Vector{Y: 1}, [4]csg.Vector{{Y: y}, {Y: y, Z: z}, {X: x, Y: y, Z: z}, {X: x, Y: y}}},
		{csg.Vector{Z: -1}, [4]csg.Vector{{}, {Y: y}, {X: x, Y: y}, {X: x}}},
		{csg.Vector{Z: 1}, [4]csg.Vector{{Z: z}, {X: x, Z: z}, {X: x, Y: y, Z: z}, {Y: y, Z: z}}},
	}
	uvs := [4]csg.Vector{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}

	polygons := make([]*csg.Polygon, 0, len(faces))
	for _, f := range faces {
		vs := make([]csg.Vertex, 4)
		for i, c := range f.corners {
			vs[i] = csg.Vertex{Position: c, Normal: f.n, UV: uvs[i]}
		}
		polygons = appendPolygon(polygons, vs...)
	}
	return mustSolid("Box", polygons)
}

// Cylinder creates a cylinder along Z, centered at the origin, approximated
// by segments side faces.
func (k *BSPKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if height <= 0 || radius <= 0 || segments < 3 {
		panic(fmt.Sprintf("bsp.Cylinder: invalid height %v, radius %v, segments %d", height, radius, segments))
	}
	z0, z1 := -height/2, height/2
	ring := func(i int) (csg.Vector, csg.Vector) {
		a := 2 * math.Pi * float64(i%segments) / float64(segments)
		n := csg.Vector{X: math.Cos(a), Y: math.Sin(a)}
		return n.Scale(radius), n
	}

	polygons := make([]*csg.Polygon, 0, segments+2)
	top := make([]csg.Vertex, segments)
	bottom := make([]csg.Vertex, segments)
	for i := 0; i < segments; i++ {
		p0, n0 := ring(i)
		p1, n1 := ring(i + 1)
		u0 := float64(i) / float64(segments)
		u1 := float64(i+1) / float64(segments)
		polygons = appendPolygon(polygons,
			csg.Vertex{Position: csg.Vector{X: p0.X, Y: p0.Y, Z: z0}, Normal: n0, UV: csg.Vector{X: u0}},
			csg.Vertex{Position: csg.Vector{X: p1.X, Y: p1.Y, Z: z0}, Normal: n1, UV: csg.Vector{X: u1}},
			csg.Vertex{Position: csg.Vector{X: p1.X, Y: p1.Y, Z: z1}, Normal: n1, UV: csg.Vector{X: u1, Y: 1}},
			csg.Vertex{Position: csg.Vector{X: p0.X, Y: p0.Y, Z: z1}, Normal: n0, UV: csg.Vector{X: u0, Y: 1}},
		)
		capUV := csg.Vector{X: 0.5 + 0.5*n0.X, Y: 0.5 + 0.5*n0.Y}
		top[i] = csg.Vertex{Position: csg.Vector{X: p0.X, Y: p0.Y, Z: z1}, Normal: csg.Vector{Z: 1}, UV: capUV}
		bottom[segments-1-i] = csg.Vertex{Position: csg.Vector{X: p0.X, Y: p0.Y, Z: z0}, Normal: csg.Vector{Z: -1}, UV: capUV}
	}
	polygons = appendPolygon(polygons, top...)
	polygons = appendPolygon(polygons, bottom...)
	return mustSolid("Cylinder", polygons)
}

// Sphere creates a UV sphere centered at the origin with segments
// longitudes and segments/2 latitude bands.
func (k *BSPKernel) Sphere(radius float64, segments int) kernel.Solid {
	if radius <= 0 || segments < 3 {
		panic(fmt.Sprintf("bsp.Sphere: invalid radius %v, segments %d", radius, segments))
	}
	slices := segments
	stacks := segments / 2
	if stacks < 2 {
		stacks = 2
	}
	vertex := func(i, j int) csg.Vertex {
		u := float64(i) / float64(slices)
		v := float64(j) / float64(stacks)
		var n csg.Vector
		switch j {
		case 0:
			n = csg.Vector{Z: 1}
		case stacks:
			n = csg.Vector{Z: -1}
		default:
			theta := 2 * math.Pi * float64(i%slices) / float64(slices)
			phi := math.Pi * v
			n = csg.Vector{X: math.Sin(phi) * math.Cos(theta), Y: math.Sin(phi) * math.Sin(theta), Z: math.Cos(phi)}
		}
		return csg.Vertex{Position: n.Scale(radius), Normal: n, UV: csg.Vector{X: u, Y: v}}
	}

	polygons := make([]*csg.Polygon, 0, slices*stacks)
	for i := 0; i < slices; i++ {
		for j := 0; j < stacks; j++ {
			vs := []csg.Vertex{vertex(i, j), vertex(i, j+1)}
			if j < stacks-1 {
				vs = append(vs, vertex(i+1, j+1))
			}
			if j > 0 {
				vs = append(vs, vertex(i+1, j))
			}
			polygons = appendPolygon(polygons, vs...)
		}
	}
	return mustSolid("Sphere", polygons)
}

// Union returns the union of two solids.
func (k *BSPKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(unwrap(a).Union(unwrap(b)))
}

// Difference returns the difference a - b.
func (k *BSPKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(unwrap(a).Difference(unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *BSPKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(unwrap(a).Intersection(unwrap(b)))
}

// Complement turns a solid inside out.
func (k *BSPKernel) Complement(s kernel.Solid) kernel.Solid {
	return wrap(unwrap(s).Complement())
}

// Translate moves a solid by (x, y, z).
func (k *BSPKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return transform(s, sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *BSPKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return transform(s, m)
}

// transform applies a rigid motion to positions and its rotation part to
// normals.
func transform(s kernel.Solid, m sdf.M44) kernel.Solid {
	origin := m.MulPosition(v3.Vec{})
	return wrap(unwrap(s).Transform(func(v csg.Vertex) csg.Vertex {
		v.Position = fromVec(m.MulPosition(toVec(v.Position)))
		v.Normal = fromVec(m.MulPosition(toVec(v.Normal)).Sub(origin))
		return v
	}))
}

func toVec(v csg.Vector) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVec(v v3.Vec) csg.Vector {
	return csg.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// ToMesh fan-triangulates the solid's polygons. Vertices are not shared
// between triangles, so per-corner normals and UVs survive intact.
func (k *BSPKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	return kernel.MeshFromInterleaved(unwrap(s).Triangles())
}

// FromMesh imports a triangle mesh as a solid. Zero-area triangles are
// skipped; non-finite coordinates are an error.
func (k *BSPKernel) FromMesh(m *kernel.Mesh) (kernel.Solid, error) {
	data := m.Interleave()
	kept := make([]float32, 0, len(data))
	const stride = 3 * csg.FloatsPerVertex
	for i := 0; i+stride <= len(data); i += stride {
		tri := data[i : i+stride]
		a := csg.Vector{X: float64(tri[0]), Y: float64(tri[1]), Z: float64(tri[2])}
		b := csg.Vector{X: float64(tri[8]), Y: float64(tri[9]), Z: float64(tri[10])}
		c := csg.Vector{X: float64(tri[16]), Y: float64(tri[17]), Z: float64(tri[18])}
		if !a.IsFinite() || !b.IsFinite() || !c.IsFinite() {
			return nil, errors.Wrapf(csg.ErrNonFinite, "bsp: triangle %d", i/stride)
		}
		if !csg.PlaneFromPoints(a, b, c).IsValid() {
			continue
		}
		kept = append(kept, tri...)
	}
	solid, err := csg.SolidFromTriangles(kept)
	if err != nil {
		return nil, errors.Wrap(err, "bsp: import mesh")
	}
	return wrap(solid), nil
}
