package csg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitCube(t *testing.T, min Vector) *Solid {
	t.Helper()
	s, err := SolidFromTriangles(cubeTriangles(min, 1))
	require.NoError(t, err)
	return s
}

func TestNewSolid(t *testing.T) {
	polygons := cube(t, Vector{}, 1)
	s, err := NewSolid(polygons)
	require.NoError(t, err)
	assert.Equal(t, 12, s.Len())

	polygons[0].Vertices[0].Position.X = 50
	lo, hi := s.Bounds()
	assert.Equal(t, Vector{0, 0, 0}, lo)
	assert.Equal(t, Vector{1, 1, 1}, hi)

	_, err = NewSolid(append(polygons, &Polygon{}))
	assert.ErrorIs(t, err, ErrTooFewVertices)
}

func TestSolidFromTrianglesError(t *testing.T) {
	_, err := SolidFromTriangles(make([]float32, 10))
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestSolidPolygonsIsACopy(t *testing.T) {
	s := unitCube(t, Vector{})
	ps := s.Polygons()
	ps[0].Flip()
	ps[1].Vertices[0].Position.Y = -3
	assert.InDelta(t, 1, s.Volume(), volumeTolerance)
	lo, _ := s.Bounds()
	assert.Equal(t, 0.0, lo.Y)
}

func TestSolidOperations(t *testing.T) {
	a := unitCube(t, Vector{})
	b := unitCube(t, Vector{0.5, 0.5, 0.5})

	assert.InDelta(t, 1.875, a.Union(b).Volume(), volumeTolerance)
	assert.InDelta(t, 0.125, a.Intersection(b).Volume(), volumeTolerance)
	assert.InDelta(t, 0.875, a.Difference(b).Volume(), volumeTolerance)
	assert.InDelta(t, -1, a.Complement().Volume(), volumeTolerance)

	// Results can be chained and exported.
	chained := a.Union(b).Difference(a.Intersection(b))
	assert.InDelta(t, 1.75, chained.Volume(), volumeTolerance)
	assert.Zero(t, len(chained.Triangles())%FloatsPerTriangle)

	// Operands are unchanged.
	assert.InDelta(t, 1, a.Volume(), volumeTolerance)
	assert.InDelta(t, 1, b.Volume(), volumeTolerance)
}

func TestSolidTransform(t *testing.T) {
	s := unitCube(t, Vector{})

	moved := s.Transform(func(v Vertex) Vertex {
		v.Position = v.Position.Add(Vector{2, -1, 0.5})
		return v
	})
	lo, hi := moved.Bounds()
	assert.Equal(t, Vector{2, -1, 0.5}, lo)
	assert.Equal(t, Vector{3, 0, 1.5}, hi)
	assert.InDelta(t, 1, moved.Volume(), volumeTolerance)

	lo, _ = s.Bounds()
	assert.Equal(t, Vector{0, 0, 0}, lo)

	// Flattening onto z=0 collapses the side faces.
	flat := s.Transform(func(v Vertex) Vertex {
		v.Position.Z = 0
		return v
	})
	assert.Equal(t, 4, flat.Len())
	assert.InDelta(t, 0, flat.Volume(), volumeTolerance)
}

func TestEmptySolid(t *testing.T) {
	s, err := NewSolid(nil)
	require.NoError(t, err)
	assert.Zero(t, s.Volume())
	assert.Empty(t, s.Triangles())

	lo, hi := s.Bounds()
	assert.True(t, math.IsInf(lo.X, 1))
	assert.True(t, math.IsInf(hi.Z, -1))

	c := unitCube(t, Vector{})
	assert.InDelta(t, 1, c.Union(s).Volume(), volumeTolerance)
	assert.Zero(t, c.Intersection(s).Len())
	assert.Zero(t, s.Difference(c).Len())
}
