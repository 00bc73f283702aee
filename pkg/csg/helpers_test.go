package csg

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// cubeTriangles returns the 12 outward-wound triangles of the axis-aligned
// cube [min, min+size] in the flat 8-float layout.
func cubeTriangles(min Vector, size float64) []float32 {
	x0, y0, z0 := min.X, min.Y, min.Z
	x1, y1, z1 := x0+size, y0+size, z0+size
	type face struct {
		n       Vector
		corners [4]Vector
	}
	faces := []face{
		{Vector{-1, 0, 0}, [4]Vector{{x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}, {x0, y1, z0}}},
		{Vector{1, 0, 0}, [4]Vector{{x1, y0, z0}, {x1, y1, z0}, {x1, y1, z1}, {x1, y0, z1}}},
		{Vector{0, -1, 0}, [4]Vector{{x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}, {x0, y0, z1}}},
		{Vector{0, 1, 0}, [4]Vector{{x0, y1, z0}, {x0, y1, z1}, {x1, y1, z1}, {x1, y1, z0}}},
		{Vector{0, 0, -1}, [4]Vector{{x0, y0, z0}, {x0, y1, z0}, {x1, y1, z0}, {x1, y0, z0}}},
		{Vector{0, 0, 1}, [4]Vector{{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1}}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	var data []float32
	for _, f := range faces {
		for _, idx := range [6]int{0, 1, 2, 0, 2, 3} {
			c := f.corners[idx]
			data = append(data,
				float32(c.X), float32(c.Y), float32(c.Z),
				float32(f.n.X), float32(f.n.Y), float32(f.n.Z),
				uvs[idx][0], uvs[idx][1])
		}
	}
	return data
}

func cube(t *testing.T, min Vector, size float64) []*Polygon {
	t.Helper()
	polygons, err := FromTriangles(cubeTriangles(min, size))
	require.NoError(t, err)
	require.Len(t, polygons, 12)
	return polygons
}

func square(z float64) *Polygon {
	n := Vector{0, 0, 1}
	p, _ := NewPolygon([]Vertex{
		{Position: Vector{0, 0, z}, Normal: n},
		{Position: Vector{1, 0, z}, Normal: n, UV: Vector{1, 0, 0}},
		{Position: Vector{1, 1, z}, Normal: n, UV: Vector{1, 1, 0}},
		{Position: Vector{0, 1, z}, Normal: n, UV: Vector{0, 1, 0}},
	})
	return p
}

// polygonKeys renders polygons as sorted strings so sets can be compared
// without depending on tree traversal order.
func polygonKeys(polygons []*Polygon) []string {
	keys := make([]string, len(polygons))
	for i, p := range polygons {
		var sb strings.Builder
		for _, v := range p.Vertices {
			fmt.Fprintf(&sb, "%v|%v|%v;", v.Position, v.Normal, v.UV)
		}
		keys[i] = sb.String()
	}
	sort.Strings(keys)
	return keys
}
