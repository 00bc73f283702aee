// Package csg computes boolean set operations on closed polygonal solids
// using binary space partitioning trees.
//
// A solid is a list of planar polygons wound counter-clockwise when seen
// from outside. Each operand is turned into a BSP tree, the trees are clipped
// against each other and inverted in a fixed sequence per operation, and the
// surviving fragments are merged and flattened back into a polygon list.
package csg
