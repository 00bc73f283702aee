package csg

// Node is one cell of a BSP tree. Polygons holds the polygons lying on Plane,
// facing either way. A nil Front or Back child is an empty subtree. A node
// owns its polygon list and both children exclusively.
//
// Every walk below uses an explicit work stack, so degenerate inputs that
// produce list-shaped trees cannot exhaust the goroutine stack.
type Node struct {
	Plane    *Plane
	Polygons []*Polygon
	Front    *Node
	Back     *Node
}

// NewNode returns a tree built from polygons.
func NewNode(polygons []*Polygon) *Node {
	n := &Node{}
	n.Build(polygons)
	return n
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	root := &Node{}
	type pair struct{ src, dst *Node }
	stack := []pair{{n, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.src.Plane != nil {
			pl := *p.src.Plane
			p.dst.Plane = &pl
		}
		p.dst.Polygons = clonePolygons(p.src.Polygons)
		if p.src.Front != nil {
			p.dst.Front = &Node{}
			stack = append(stack, pair{p.src.Front, p.dst.Front})
		}
		if p.src.Back != nil {
			p.dst.Back = &Node{}
			stack = append(stack, pair{p.src.Back, p.dst.Back})
		}
	}
	return root
}

// Invert swaps solid and empty space: every polygon and plane is flipped and
// the front and back children trade places.
func (n *Node) Invert() {
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range node.Polygons {
			p.Flip()
		}
		if node.Plane != nil {
			node.Plane.Flip()
		}
		node.Front, node.Back = node.Back, node.Front
		if node.Front != nil {
			stack = append(stack, node.Front)
		}
		if node.Back != nil {
			stack = append(stack, node.Back)
		}
	}
}

// ClipPolygons returns the parts of polygons that lie outside the solid this
// tree describes. Space in front of a leaf is kept; space behind a leaf is
// discarded. The input list is not modified, though unsplit polygons are
// returned by reference.
func (n *Node) ClipPolygons(polygons []*Polygon) []*Polygon {
	if n.Plane == nil {
		out := make([]*Polygon, len(polygons))
		copy(out, polygons)
		return out
	}

	type work struct {
		node     *Node
		polygons []*Polygon
	}
	var out []*Polygon
	stack := []work{{n, polygons}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var front, back []*Polygon
		for _, p := range w.polygons {
			w.node.Plane.SplitPolygon(p, &front, &back, &front, &back)
		}

		// Back work is pushed first so the front subtree's output comes first.
		if w.node.Back != nil && len(back) > 0 {
			stack = append(stack, work{w.node.Back, back})
		}
		if w.node.Front != nil {
			if len(front) > 0 {
				stack = append(stack, work{w.node.Front, front})
			}
		} else {
			out = append(out, front...)
		}
	}
	return out
}

// ClipTo removes from this tree every polygon part that lies inside the
// solid described by other.
func (n *Node) ClipTo(other *Node) {
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node.Polygons = other.ClipPolygons(node.Polygons)
		if node.Back != nil {
			stack = append(stack, node.Back)
		}
		if node.Front != nil {
			stack = append(stack, node.Front)
		}
	}
}

// AllPolygons flattens the tree in pre-order: a node's own polygons, then its
// front subtree, then its back subtree.
func (n *Node) AllPolygons() []*Polygon {
	var out []*Polygon
	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, node.Polygons...)
		if node.Back != nil {
			stack = append(stack, node.Back)
		}
		if node.Front != nil {
			stack = append(stack, node.Front)
		}
	}
	return out
}

// Build inserts copies of polygons into the tree. A node without a plane
// adopts the plane of the first polygon it receives. Polygons coplanar with
// a node stay at that node whichever way they face; the rest descend into
// lazily created children. Building from an empty list is a no-op.
func (n *Node) Build(polygons []*Polygon) {
	n.build(clonePolygons(polygons))
}

// BuildFrom merges every polygon of other into this tree.
func (n *Node) BuildFrom(other *Node) {
	n.Build(other.AllPolygons())
}

func (n *Node) build(polygons []*Polygon) {
	type work struct {
		node     *Node
		polygons []*Polygon
	}
	stack := []work{{n, polygons}}
	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := w.node
		if len(w.polygons) == 0 {
			continue
		}
		if node.Plane == nil {
			pl := w.polygons[0].Plane
			node.Plane = &pl
		}

		var front, back []*Polygon
		for _, p := range w.polygons {
			node.Plane.SplitPolygon(p, &node.Polygons, &node.Polygons, &front, &back)
		}
		if len(back) > 0 {
			if node.Back == nil {
				node.Back = &Node{}
			}
			stack = append(stack, work{node.Back, back})
		}
		if len(front) > 0 {
			if node.Front == nil {
				node.Front = &Node{}
			}
			stack = append(stack, work{node.Front, front})
		}
	}
}

func clonePolygons(polygons []*Polygon) []*Polygon {
	out := make([]*Polygon, len(polygons))
	for i, p := range polygons {
		out[i] = p.Clone()
	}
	return out
}
