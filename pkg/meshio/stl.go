// Package meshio reads and writes kernel meshes as STL files.
package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/carve/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

const (
	binaryHeaderSize = 80
	binaryFacetSize  = 50
)

// ErrMalformed reports STL input that is neither valid binary nor ASCII.
var ErrMalformed = errors.New("malformed STL")

// WriteSTL writes m to path as a binary STL file.
func WriteSTL(path string, m *kernel.Mesh) error {
	if len(m.Indices)%3 != 0 {
		return errors.Errorf("mesh %q: %d indices is not a whole number of triangles", m.PartName, len(m.Indices))
	}
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i < len(m.Indices); i += 3 {
		var t sdf.Triangle3
		for j := 0; j < 3; j++ {
			k := int(m.Indices[i+j])
			t[j] = v3.Vec{
				X: float64(m.Vertices[3*k]),
				Y: float64(m.Vertices[3*k+1]),
				Z: float64(m.Vertices[3*k+2]),
			}
		}
		tris = append(tris, &t)
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ReadSTLFile loads a binary or ASCII STL file with sdfx. Every facet
// contributes three unshared vertices carrying the normal of its winding.
func ReadSTLFile(path string) (*kernel.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read STL")
	}
	if err := checkSTL(data); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	tris, err := render.LoadSTL(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if len(tris) == 0 {
		return nil, errors.Wrapf(ErrMalformed, "read %s: no facets", path)
	}
	return buildMesh(tris), nil
}

// checkSTL rejects input that render.LoadSTL would misread: an unknown
// header, or ASCII facets without exactly three well-formed vertices, which
// the loader either skips or indexes past.
func checkSTL(data []byte) error {
	if isBinary(data) {
		return nil
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return errors.Wrap(ErrMalformed, "unrecognised header")
	}
	nv, line, facets := -1, 0, 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "facet":
			nv = 0
		case "vertex":
			if nv < 0 || nv >= 3 || len(fields) != 4 {
				return errors.Wrapf(ErrMalformed, "line %d: bad vertex", line)
			}
			for _, f := range fields[1:] {
				if _, err := strconv.ParseFloat(f, 64); err != nil {
					return errors.Wrapf(ErrMalformed, "line %d: number %q", line, f)
				}
			}
			nv++
		case "endfacet":
			if nv != 3 {
				return errors.Wrapf(ErrMalformed, "line %d: facet has %d vertices", line, nv)
			}
			nv = -1
			facets++
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "scan STL")
	}
	if facets == 0 {
		return errors.Wrap(ErrMalformed, "no facets")
	}
	return nil
}

// isBinary checks the facet count against the payload size, as sdfx does.
func isBinary(data []byte) bool {
	if len(data) < binaryHeaderSize+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(data[binaryHeaderSize:])
	return uint64(len(data)) == uint64(binaryHeaderSize+4)+uint64(n)*binaryFacetSize
}

func buildMesh(tris []*sdf.Triangle3) *kernel.Mesh {
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 9*len(tris)),
		Normals:  make([]float32, 0, 9*len(tris)),
		UVs:      make([]float32, 6*len(tris)),
		Indices:  make([]uint32, 0, 3*len(tris)),
	}
	for i, t := range tris {
		var vs [3][3]float32
		for j, v := range t {
			vs[j] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		n := faceNormal(vs)
		for j, v := range vs {
			m.Vertices = append(m.Vertices, v[0], v[1], v[2])
			m.Normals = append(m.Normals, n[0], n[1], n[2])
			m.Indices = append(m.Indices, uint32(3*i+j))
		}
	}
	return m
}

// faceNormal returns the unit normal of a counter-clockwise triangle, or
// zero for a degenerate one.
func faceNormal(vs [3][3]float32) [3]float32 {
	var a, b [3]float64
	for k := 0; k < 3; k++ {
		a[k] = float64(vs[1][k] - vs[0][k])
		b[k] = float64(vs[2][k] - vs[0][k])
	}
	n := [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
}
