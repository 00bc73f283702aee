package graph

import "fmt"

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between primitive shapes.
type PrimitiveKind int

const (
	PrimBox PrimitiveKind = iota
	PrimCylinder
	PrimSphere
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimCylinder:
		return "cylinder"
	case PrimSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// BoxData is an axis-aligned box with its minimum corner at the origin.
type BoxData struct {
	Size Vec3 `json:"size"`
}

func (BoxData) nodeData() {}

// CylinderData is a cylinder along Z centered at the origin.
// Segments of 0 selects the configured default.
type CylinderData struct {
	Height   float64 `json:"height"`
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (CylinderData) nodeData() {}

// SphereData is a sphere centered at the origin.
// Segments of 0 selects the configured default.
type SphereData struct {
	Radius   float64 `json:"radius"`
	Segments int     `json:"segments,omitempty"`
}

func (SphereData) nodeData() {}

// Primitive returns the shape kind of a primitive payload.
func Primitive(d NodeData) (PrimitiveKind, bool) {
	switch d.(type) {
	case BoxData:
		return PrimBox, true
	case CylinderData:
		return PrimCylinder, true
	case SphereData:
		return PrimSphere, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData moves its single child. Rotation (Euler degrees, X then Y
// then Z) is applied before Translation.
type TransformData struct {
	Translation Vec3 `json:"translation"`
	Rotation    Vec3 `json:"rotation"`
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanOp enumerates the set operations.
type BooleanOp int

const (
	OpUnion BooleanOp = iota
	OpDifference
	OpIntersection
	OpComplement
)

func (op BooleanOp) String() string {
	switch op {
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	case OpIntersection:
		return "intersection"
	case OpComplement:
		return "complement"
	default:
		return "unknown"
	}
}

// Arity returns the minimum and maximum operand counts for op. A maximum of
// -1 means unbounded.
func (op BooleanOp) Arity() (min, max int) {
	if op == OpComplement {
		return 1, 1
	}
	return 2, -1
}

// Operands describes the accepted operand count, such as "at least 2".
func (op BooleanOp) Operands() string {
	min, max := op.Arity()
	switch {
	case max < 0:
		return fmt.Sprintf("at least %d", min)
	case min == max:
		return fmt.Sprintf("exactly %d", min)
	default:
		return fmt.Sprintf("%d to %d", min, max)
	}
}

// BooleanData combines the node's ordered children. Binary operations fold
// left to right: difference(a, b, c) is (a - b) - c.
type BooleanData struct {
	Op BooleanOp `json:"op"`
}

func (BooleanData) nodeData() {}

// ---------------------------------------------------------------------------
// Part and group
// ---------------------------------------------------------------------------

// PartData marks a named solid. The part's single child is its geometry.
type PartData struct {
	Description string `json:"description,omitempty"`
}

func (PartData) nodeData() {}

// GroupData represents a logical grouping (assembly, subassembly).
// Created by the (assembly ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
