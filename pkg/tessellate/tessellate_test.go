package tessellate_test

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/carve/pkg/graph"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/kernel/bsp"
	"github.com/chazu/carve/pkg/kernel/sdfx"
	"github.com/chazu/carve/pkg/tessellate"
)

const tol = 1e-4

// newKernel returns a fresh BSP kernel, whose meshes are exact.
func newKernel() kernel.Kernel {
	return bsp.New()
}

// add content-addresses n and stores it in g.
func add(g *graph.DesignGraph, n *graph.Node) graph.NodeID {
	n.ID = graph.HashNode(n)
	g.AddNode(n)
	return n.ID
}

func box(g *graph.DesignGraph, x, y, z float64) graph.NodeID {
	return add(g, &graph.Node{Kind: graph.NodePrimitive, Data: graph.BoxData{Size: graph.Vec3{X: x, Y: y, Z: z}}})
}

func translate(g *graph.DesignGraph, child graph.NodeID, x, y, z float64) graph.NodeID {
	return add(g, &graph.Node{
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child},
		Data:     graph.TransformData{Translation: graph.Vec3{X: x, Y: y, Z: z}},
	})
}

func boolean(g *graph.DesignGraph, op graph.BooleanOp, children ...graph.NodeID) graph.NodeID {
	return add(g, &graph.Node{Kind: graph.NodeBoolean, Children: children, Data: graph.BooleanData{Op: op}})
}

func part(g *graph.DesignGraph, name string, body graph.NodeID) graph.NodeID {
	return add(g, &graph.Node{Kind: graph.NodePart, Name: name, Children: []graph.NodeID{body}, Data: graph.PartData{}})
}

func group(g *graph.DesignGraph, name string, children ...graph.NodeID) graph.NodeID {
	return add(g, &graph.Node{Kind: graph.NodeGroup, Name: name, Children: children, Data: graph.GroupData{}})
}

// meshVolume is the signed volume enclosed by m.
func meshVolume(m *kernel.Mesh) float64 {
	vtx := func(i uint32) [3]float64 {
		return [3]float64{float64(m.Vertices[3*i]), float64(m.Vertices[3*i+1]), float64(m.Vertices[3*i+2])}
	}
	var v float64
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := vtx(m.Indices[t]), vtx(m.Indices[t+1]), vtx(m.Indices[t+2])
		v += a[0]*(b[1]*c[2]-b[2]*c[1]) - a[1]*(b[0]*c[2]-b[2]*c[0]) + a[2]*(b[0]*c[1]-b[1]*c[0])
	}
	return v / 6
}

func meshBounds(m *kernel.Mesh) (min, max [3]float64) {
	for i := 0; i < 3; i++ {
		min[i], max[i] = math.Inf(1), math.Inf(-1)
	}
	for i := 0; i < m.VertexCount(); i++ {
		for j := 0; j < 3; j++ {
			v := float64(m.Vertices[3*i+j])
			min[j] = math.Min(min[j], v)
			max[j] = math.Max(max[j], v)
		}
	}
	return min, max
}

func checkBounds(t *testing.T, m *kernel.Mesh, wantMin, wantMax [3]float64) {
	t.Helper()
	min, max := meshBounds(m)
	for i := 0; i < 3; i++ {
		if abs(min[i]-wantMin[i]) > tol || abs(max[i]-wantMax[i]) > tol {
			t.Errorf("bounds = %v-%v, want %v-%v", min, max, wantMin, wantMax)
			return
		}
	}
}

func tessellateOne(t *testing.T, g *graph.DesignGraph, opts tessellate.Options) *kernel.Mesh {
	t.Helper()
	meshes, err := tessellate.TessellateWithOptions(g, newKernel(), opts)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	return meshes[0]
}

func TestSingleBox(t *testing.T) {
	g := graph.New()
	g.AddRoot(part(g, "plate", box(g, 2, 3, 4)))

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.PartName != "plate" {
		t.Errorf("expected PartName %q, got %q", "plate", m.PartName)
	}
	if m.TriangleCount() != 12 {
		t.Errorf("expected 12 triangles, got %d", m.TriangleCount())
	}
	if v := meshVolume(m); abs(v-24) > tol {
		t.Errorf("volume = %f, want 24", v)
	}
}

func TestDrilledBoxUsesDefaultSegments(t *testing.T) {
	g := graph.New()
	cube := translate(g, box(g, 4, 4, 4), -2, -2, -2)
	hole := add(g, &graph.Node{Kind: graph.NodePrimitive, Data: graph.CylinderData{Height: 6, Radius: 1}})
	g.AddRoot(part(g, "drilled", boolean(g, graph.OpDifference, cube, hole)))

	m := tessellateOne(t, g, tessellate.Options{CylinderSegments: 16})

	prism := 0.5 * 16 * math.Sin(2*math.Pi/16) * 4
	if v := meshVolume(m); abs(v-(64-prism)) > tol {
		t.Errorf("volume = %f, want %f", v, 64-prism)
	}
	checkBounds(t, m, [3]float64{-2, -2, -2}, [3]float64{2, 2, 2})
}

func TestBooleanFoldsLeftToRight(t *testing.T) {
	g := graph.New()
	bar := box(g, 3, 1, 1)
	left := translate(g, box(g, 1.5, 2, 2), -0.5, -0.5, -0.5)
	right := translate(g, box(g, 1.5, 2, 2), 2, -0.5, -0.5)
	g.AddRoot(part(g, "middle", boolean(g, graph.OpDifference, bar, left, right)))

	m := tessellateOne(t, g, tessellate.DefaultOptions())
	if v := meshVolume(m); abs(v-1) > tol {
		t.Errorf("volume = %f, want 1", v)
	}
	checkBounds(t, m, [3]float64{1, 0, 0}, [3]float64{2, 1, 1})
}

func TestVariadicUnionAndIntersection(t *testing.T) {
	// A = [0,1]^3, B = A + (0.5, 0.25, 0.25), C = A + (0.25, 0.5, 0.3).
	// Pairwise overlaps: AB 0.28125, AC 0.2625, BC 0.534375; ABC 0.175.
	tests := []struct {
		name   string
		op     graph.BooleanOp
		volume float64
	}{
		{"union", graph.OpUnion, 3 - (0.28125 + 0.2625 + 0.534375) + 0.175},
		{"intersection", graph.OpIntersection, 0.175},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			a := box(g, 1, 1, 1)
			b := translate(g, a, 0.5, 0.25, 0.25)
			c := translate(g, a, 0.25, 0.5, 0.3)
			g.AddRoot(part(g, tt.name, boolean(g, tt.op, a, b, c)))

			m := tessellateOne(t, g, tessellate.DefaultOptions())
			if v := meshVolume(m); abs(v-tt.volume) > tol {
				t.Errorf("volume = %f, want %f", v, tt.volume)
			}
		})
	}
}

func TestComplement(t *testing.T) {
	g := graph.New()
	g.AddRoot(part(g, "inside-out", boolean(g, graph.OpComplement, box(g, 1, 1, 1))))

	m := tessellateOne(t, g, tessellate.DefaultOptions())
	if v := meshVolume(m); abs(v+1) > tol {
		t.Errorf("volume = %f, want -1", v)
	}
}

func TestPlacement(t *testing.T) {
	g := graph.New()
	p := part(g, "bar", box(g, 2, 1, 1))
	placed := add(g, &graph.Node{
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{p},
		Data: graph.TransformData{
			Translation: graph.Vec3{X: 10},
			Rotation:    graph.Vec3{Z: 90},
		},
	})
	inner := group(g, "inner", placed)
	g.AddRoot(group(g, "outer", translate(g, inner, 0, 0, 5)))

	m := tessellateOne(t, g, tessellate.DefaultOptions())
	if m.PartName != "bar" {
		t.Errorf("expected PartName %q, got %q", "bar", m.PartName)
	}
	// Rotation happens before the translation of the same transform, and the
	// inner placement before the outer one.
	checkBounds(t, m, [3]float64{9, 0, 5}, [3]float64{10, 2, 6})
}

func TestRepeatedPartsGetDistinctNames(t *testing.T) {
	g := graph.New()
	p := part(g, "post", box(g, 1, 1, 1))
	g.AddRoot(group(g, "row", p, translate(g, p, 5, 0, 0), translate(g, p, 10, 0, 0)))

	meshes, err := tessellate.Tessellate(g, newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	var names []string
	for _, m := range meshes {
		names = append(names, m.PartName)
	}
	if strings.Join(names, ",") != "post,post-2,post-3" {
		t.Errorf("names = %v", names)
	}
	checkBounds(t, meshes[2], [3]float64{10, 0, 0}, [3]float64{11, 1, 1})
}

// countingKernel counts primitive constructions.
type countingKernel struct {
	kernel.Kernel
	boxes int
}

func (k *countingKernel) Box(x, y, z float64) kernel.Solid {
	k.boxes++
	return k.Kernel.Box(x, y, z)
}

func TestSharedSolidsAreBuiltOnce(t *testing.T) {
	g := graph.New()
	shared := box(g, 1, 1, 1)
	g.AddRoot(part(g, "a", shared))
	g.AddRoot(part(g, "b", boolean(g, graph.OpUnion, shared, translate(g, shared, 0.5, 0, 0))))

	k := &countingKernel{Kernel: newKernel()}
	meshes, err := tessellate.Tessellate(g, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if k.boxes != 1 {
		t.Errorf("Box called %d times, want 1", k.boxes)
	}
}

func TestEmptyGraph(t *testing.T) {
	meshes, err := tessellate.Tessellate(graph.New(), newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected 0 meshes, got %d", len(meshes))
	}

	meshes, err = tessellate.Tessellate(nil, newKernel())
	if err != nil || meshes != nil {
		t.Errorf("nil graph: got %v, %v", meshes, err)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *graph.DesignGraph)
		want  string
	}{
		{
			name:  "bare solid root",
			build: func(g *graph.DesignGraph) { g.AddRoot(box(g, 1, 1, 1)) },
			want:  "is not inside a part",
		},
		{
			name: "invalid primitive",
			build: func(g *graph.DesignGraph) {
				g.AddRoot(part(g, "flat", box(g, 0, 1, 1)))
			},
			want: "kernel failure",
		},
		{
			name: "lonely union",
			build: func(g *graph.DesignGraph) {
				g.AddRoot(part(g, "u", boolean(g, graph.OpUnion, box(g, 1, 1, 1))))
			},
			want: "union takes at least 2 operands",
		},
		{
			name: "part as operand",
			build: func(g *graph.DesignGraph) {
				inner := part(g, "inner", box(g, 1, 1, 1))
				g.AddRoot(part(g, "outer", boolean(g, graph.OpUnion, box(g, 2, 2, 2), inner)))
			},
			want: "is not a solid",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			tt.build(g)
			_, err := tessellate.Tessellate(g, newKernel())
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSdfxKernel(t *testing.T) {
	g := graph.New()
	g.AddRoot(part(g, "shelf", box(g, 100, 50, 10)))

	meshes, err := tessellate.Tessellate(g, sdfx.NewWithCells(50))
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 || meshes[0].IsEmpty() {
		t.Fatal("expected one non-empty mesh")
	}
	if meshes[0].PartName != "shelf" {
		t.Errorf("expected PartName %q, got %q", "shelf", meshes[0].PartName)
	}

	// Marching cubes is approximate.
	if v := meshVolume(meshes[0]); abs(v-50000) > 5000 {
		t.Errorf("volume = %f, want about 50000", v)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
