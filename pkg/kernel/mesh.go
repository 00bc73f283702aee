package kernel

import "fmt"

// FloatsPerVertex is the width of one vertex in the interleaved layout:
// px py pz nx ny nz u v.
const FloatsPerVertex = 8

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex (may be
// empty), indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	UVs      []float32 `json:"uvs"`      // [u0,v0, u1,v1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which design graph part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Interleave expands the indexed mesh into a flat triangle list with one
// 8-float vertex per index. Missing normals and UVs are written as zero.
func (m *Mesh) Interleave() []float32 {
	out := make([]float32, 0, len(m.Indices)*FloatsPerVertex)
	hasNormals := len(m.Normals) == len(m.Vertices)
	hasUV := len(m.UVs) == 2*m.VertexCount()
	for _, idx := range m.Indices {
		i := int(idx)
		out = append(out, m.Vertices[3*i:3*i+3]...)
		if hasNormals {
			out = append(out, m.Normals[3*i:3*i+3]...)
		} else {
			out = append(out, 0, 0, 0)
		}
		if hasUV {
			out = append(out, m.UVs[2*i:2*i+2]...)
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}

// MeshFromInterleaved builds a mesh from a flat triangle list. Vertices are
// not shared: index i refers to the i-th vertex of data.
func MeshFromInterleaved(data []float32) (*Mesh, error) {
	if len(data)%(3*FloatsPerVertex) != 0 {
		return nil, fmt.Errorf("kernel: interleaved length %d is not a whole number of triangles", len(data))
	}
	n := len(data) / FloatsPerVertex
	m := &Mesh{
		Vertices: make([]float32, 0, 3*n),
		Normals:  make([]float32, 0, 3*n),
		UVs:      make([]float32, 0, 2*n),
		Indices:  make([]uint32, n),
	}
	for i := 0; i < n; i++ {
		v := data[i*FloatsPerVertex : (i+1)*FloatsPerVertex]
		m.Vertices = append(m.Vertices, v[0], v[1], v[2])
		m.Normals = append(m.Normals, v[3], v[4], v[5])
		m.UVs = append(m.UVs, v[6], v[7])
		m.Indices[i] = uint32(i)
	}
	return m, nil
}
