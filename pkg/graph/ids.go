package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeID is a content-addressed identifier for graph nodes.
type NodeID string

// ZeroID is the empty NodeID.
const ZeroID NodeID = ""

// namespace scopes node UUIDs so they never collide with other v5 UUIDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/carve/graph"))

// NewNodeID derives a stable ID from a path such as "defpart/bracket".
func NewNodeID(path string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(path)).String())
}

// HashNode derives an ID from a node's kind, name, payload and children.
// Structurally identical nodes hash to the same ID, which lets repeated
// subexpressions share one node.
func HashNode(n *Node) NodeID {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s|%T%+v", n.Kind, n.Name, n.Data, n.Data)
	for _, c := range n.Children {
		sb.WriteString("|")
		sb.WriteString(string(c))
	}
	return NewNodeID(sb.String())
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Short returns the first 8 characters of the ID, for messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Vec3 is a 3-component vector used for sizes, offsets and Euler angles.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}
