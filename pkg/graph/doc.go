// Package graph defines the design graph types for Carve.
// The design graph is an immutable DAG of solid expressions (primitives,
// transforms, booleans), the named parts that wrap them, and the groups
// that assemble parts.
package graph
