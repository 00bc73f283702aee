// Package tessellate walks a design graph and produces triangle meshes
// using a geometry kernel. One mesh is produced per placed part.
package tessellate

import (
	"fmt"

	"github.com/chazu/carve/pkg/graph"
	"github.com/chazu/carve/pkg/kernel"
)

// Options controls how primitives are approximated.
type Options struct {
	// CylinderSegments is used when a cylinder leaves Segments at zero.
	CylinderSegments int
	// SphereSegments is used when a sphere leaves Segments at zero.
	SphereSegments int
}

// DefaultOptions returns the segment counts used by Tessellate.
func DefaultOptions() Options {
	return Options{CylinderSegments: 32, SphereSegments: 16}
}

// transformStack accumulates placement transforms during graph traversal.
// The last entry is the one nearest the part.
type transformStack struct {
	transforms []graph.TransformData
}

func (ts *transformStack) push(td graph.TransformData) {
	ts.transforms = append(ts.transforms, td)
}

func (ts *transformStack) pop() {
	if len(ts.transforms) > 0 {
		ts.transforms = ts.transforms[:len(ts.transforms)-1]
	}
}

// apply places s by every transform on the stack, innermost first.
func (ts *transformStack) apply(k kernel.Kernel, s kernel.Solid) kernel.Solid {
	for i := len(ts.transforms) - 1; i >= 0; i-- {
		s = applyTransform(k, s, ts.transforms[i])
	}
	return s
}

// applyTransform rotates s and then translates it.
func applyTransform(k kernel.Kernel, s kernel.Solid, td graph.TransformData) kernel.Solid {
	if r := td.Rotation; !r.IsZero() {
		s = k.Rotate(s, r.X, r.Y, r.Z)
	}
	if t := td.Translation; !t.IsZero() {
		s = k.Translate(s, t.X, t.Y, t.Z)
	}
	return s
}

// tessellator holds the state of one Tessellate call.
type tessellator struct {
	g    *graph.DesignGraph
	k    kernel.Kernel
	opts Options

	solids   map[graph.NodeID]kernel.Solid
	visiting map[graph.NodeID]bool
	emitted  map[string]int
}

// Tessellate walks the design graph and produces one triangle mesh per
// placed part using the provided geometry kernel and DefaultOptions.
func Tessellate(g *graph.DesignGraph, k kernel.Kernel) ([]*kernel.Mesh, error) {
	return TessellateWithOptions(g, k, DefaultOptions())
}

// TessellateWithOptions is Tessellate with explicit primitive resolution.
// The tessellator is read-only and never mutates the graph. A part placed
// more than once yields one mesh per placement; repeats are named
// "<part>-2", "<part>-3" and so on.
func TessellateWithOptions(g *graph.DesignGraph, k kernel.Kernel, opts Options) (meshes []*kernel.Mesh, err error) {
	if g == nil {
		return nil, nil
	}

	defaults := DefaultOptions()
	if opts.CylinderSegments <= 0 {
		opts.CylinderSegments = defaults.CylinderSegments
	}
	if opts.SphereSegments <= 0 {
		opts.SphereSegments = defaults.SphereSegments
	}

	// Kernels panic on invalid primitive parameters.
	defer func() {
		if r := recover(); r != nil {
			meshes, err = nil, fmt.Errorf("tessellate: kernel failure: %v", r)
		}
	}()

	t := &tessellator{
		g:        g,
		k:        k,
		opts:     opts,
		solids:   make(map[graph.NodeID]kernel.Solid),
		visiting: make(map[graph.NodeID]bool),
		emitted:  make(map[string]int),
	}
	ts := &transformStack{}

	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := t.walkNode(root, ts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		meshes = append(meshes, collected...)
	}

	return meshes, nil
}

// walkNode traverses the part hierarchy, collecting meshes.
func (t *tessellator) walkNode(n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	switch n.Kind {
	case graph.NodePart:
		return t.handlePart(n, ts)

	case graph.NodeTransform:
		return t.handlePlacement(n, ts)

	case graph.NodeGroup:
		return t.handleGroup(n, ts)

	case graph.NodePrimitive, graph.NodeBoolean:
		return nil, fmt.Errorf("%s node %s is not inside a part", n.Kind, n.ID.Short())

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handlePart evaluates the part's solid, places it and meshes it.
func (t *tessellator) handlePart(n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	if len(n.Children) != 1 {
		return nil, fmt.Errorf("part %q has %d children, want 1", n.Name, len(n.Children))
	}
	body := t.g.Get(n.Children[0])
	if body == nil {
		return nil, fmt.Errorf("part %q references missing node %s", n.Name, n.Children[0].Short())
	}

	solid, err := t.solid(body)
	if err != nil {
		return nil, fmt.Errorf("part %q: %w", n.Name, err)
	}
	solid = ts.apply(t.k, solid)

	mesh, err := t.k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for part %q: %w", n.Name, err)
	}

	// Set the part name: prefer the node's Name, fall back to short ID.
	name := n.Name
	if name == "" {
		name = n.ID.Short()
	}
	t.emitted[name]++
	if c := t.emitted[name]; c > 1 {
		name = fmt.Sprintf("%s-%d", name, c)
	}
	mesh.PartName = name

	return []*kernel.Mesh{mesh}, nil
}

// handlePlacement pushes the transform, recurses into its child, then pops.
func (t *tessellator) handlePlacement(n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	if t.g.IsSolid(n) {
		return nil, fmt.Errorf("transform node %s is not inside a part", n.ID.Short())
	}

	ts.push(td)
	defer ts.pop()

	var meshes []*kernel.Mesh
	for _, child := range t.g.Children(n) {
		collected, err := t.walkNode(child, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// handleGroup recurses into children transparently.
func (t *tessellator) handleGroup(n *graph.Node, ts *transformStack) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, child := range t.g.Children(n) {
		collected, err := t.walkNode(child, ts)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// solid evaluates a solid expression. Results are memoized per node, so a
// subexpression shared by several parts is built once.
func (t *tessellator) solid(n *graph.Node) (kernel.Solid, error) {
	if s, ok := t.solids[n.ID]; ok {
		return s, nil
	}
	if t.visiting[n.ID] {
		return nil, fmt.Errorf("cycle through node %s", n.ID.Short())
	}
	t.visiting[n.ID] = true
	defer delete(t.visiting, n.ID)

	var (
		s   kernel.Solid
		err error
	)
	switch n.Kind {
	case graph.NodePrimitive:
		s, err = t.primitive(n)
	case graph.NodeTransform:
		s, err = t.transformed(n)
	case graph.NodeBoolean:
		s, err = t.boolean(n)
	default:
		err = fmt.Errorf("%s node %s is not a solid", n.Kind, n.ID.Short())
	}
	if err != nil {
		return nil, err
	}

	t.solids[n.ID] = s
	return s, nil
}

// primitive creates geometry for a primitive node.
func (t *tessellator) primitive(n *graph.Node) (kernel.Solid, error) {
	switch data := n.Data.(type) {
	case graph.BoxData:
		return t.k.Box(data.Size.X, data.Size.Y, data.Size.Z), nil
	case graph.CylinderData:
		segments := data.Segments
		if segments == 0 {
			segments = t.opts.CylinderSegments
		}
		return t.k.Cylinder(data.Height, data.Radius, segments), nil
	case graph.SphereData:
		segments := data.Segments
		if segments == 0 {
			segments = t.opts.SphereSegments
		}
		return t.k.Sphere(data.Radius, segments), nil
	}
	return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
}

func (t *tessellator) transformed(n *graph.Node) (kernel.Solid, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	operands, err := t.operands(n)
	if err != nil {
		return nil, err
	}
	if len(operands) != 1 {
		return nil, fmt.Errorf("transform node %s has %d children, want 1", n.ID.Short(), len(operands))
	}
	return applyTransform(t.k, operands[0], td), nil
}

// boolean folds the operands left to right: difference(a, b, c) is
// (a - b) - c.
func (t *tessellator) boolean(n *graph.Node) (kernel.Solid, error) {
	bd, ok := n.Data.(graph.BooleanData)
	if !ok {
		return nil, fmt.Errorf("boolean node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}
	operands, err := t.operands(n)
	if err != nil {
		return nil, err
	}
	min, max := bd.Op.Arity()
	if len(operands) < min || (max >= 0 && len(operands) > max) {
		return nil, fmt.Errorf("%s takes %s operands, got %d", bd.Op, bd.Op.Operands(), len(operands))
	}

	if bd.Op == graph.OpComplement {
		return t.k.Complement(operands[0]), nil
	}

	var combine func(a, b kernel.Solid) kernel.Solid
	switch bd.Op {
	case graph.OpUnion:
		combine = t.k.Union
	case graph.OpDifference:
		combine = t.k.Difference
	case graph.OpIntersection:
		combine = t.k.Intersection
	default:
		return nil, fmt.Errorf("unknown boolean op %d", int(bd.Op))
	}

	acc := operands[0]
	for _, s := range operands[1:] {
		acc = combine(acc, s)
	}
	return acc, nil
}

func (t *tessellator) operands(n *graph.Node) ([]kernel.Solid, error) {
	solids := make([]kernel.Solid, 0, len(n.Children))
	for _, cid := range n.Children {
		c := t.g.Get(cid)
		if c == nil {
			return nil, fmt.Errorf("node %s references missing node %s", n.ID.Short(), cid.Short())
		}
		s, err := t.solid(c)
		if err != nil {
			return nil, err
		}
		solids = append(solids, s)
	}
	return solids, nil
}
