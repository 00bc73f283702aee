package graph

import (
	"fmt"
	"sort"
)

// DesignGraph is the top-level immutable data structure produced by Lisp evaluation.
// It is never mutated in place; each evaluation produces a new graph.
type DesignGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Version   uint64            `json:"version"`
}

// New creates an empty DesignGraph.
func New() *DesignGraph {
	return &DesignGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the graph. Adding a node whose ID is already
// present replaces it, which is harmless for content-addressed IDs.
func (g *DesignGraph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph. Registering the same
// root twice is a no-op.
func (g *DesignGraph) AddRoot(id NodeID) {
	for _, r := range g.Roots {
		if r == id {
			return
		}
	}
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *DesignGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *DesignGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *DesignGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Parts returns all part nodes in the graph, ordered by name.
func (g *DesignGraph) Parts() []*Node {
	var parts []*Node
	for _, n := range g.Nodes {
		if n.Kind == NodePart {
			parts = append(parts, n)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })
	return parts
}

// Children returns the child nodes of the given node.
func (g *DesignGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *DesignGraph) NodeCount() int {
	return len(g.Nodes)
}

// IsSolid reports whether n evaluates to geometry: a primitive, a boolean,
// or a transform of a solid. A transform of a part or group is a placement
// and is not a solid.
func (g *DesignGraph) IsSolid(n *Node) bool {
	for steps := 0; n != nil && steps <= len(g.Nodes); steps++ {
		switch n.Kind {
		case NodePrimitive, NodeBoolean:
			return true
		case NodeTransform:
			if len(n.Children) != 1 {
				return false
			}
			n = g.Nodes[n.Children[0]]
		default:
			return false
		}
	}
	return false
}
