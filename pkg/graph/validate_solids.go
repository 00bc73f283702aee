package graph

import "fmt"

// validateSolids checks the shape of solid expressions and the part/group
// hierarchy built on top of them.
func validateSolids(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, node := range g.Nodes {
		errs = append(errs, validateChildKinds(g, node)...)
		errs = append(errs, validatePrimitive(node)...)
	}
	return errs
}

func nodeError(n *Node, format string, args ...any) ValidationError {
	return ValidationError{
		NodeID:   n.ID,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	}
}

// validateChildKinds enforces what each kind may contain:
//   - primitives are leaves;
//   - transforms hold exactly one child of any kind;
//   - booleans hold solids, with the operation's arity;
//   - parts hold exactly one solid;
//   - groups hold parts, groups, or placed parts and groups.
func validateChildKinds(g *DesignGraph, n *Node) []ValidationError {
	var errs []ValidationError
	children := g.Children(n)

	switch n.Kind {
	case NodePrimitive:
		if len(n.Children) != 0 {
			errs = append(errs, nodeError(n, "primitive has %d children, want none", len(n.Children)))
		}

	case NodeTransform:
		if _, ok := n.Data.(TransformData); !ok {
			errs = append(errs, nodeError(n, "transform has unexpected data %T", n.Data))
		}
		if len(n.Children) != 1 {
			errs = append(errs, nodeError(n, "transform has %d children, want 1", len(n.Children)))
		}

	case NodeBoolean:
		bd, ok := n.Data.(BooleanData)
		if !ok {
			errs = append(errs, nodeError(n, "boolean has unexpected data %T", n.Data))
			break
		}
		min, max := bd.Op.Arity()
		if len(n.Children) < min || (max >= 0 && len(n.Children) > max) {
			errs = append(errs, nodeError(n, "%s takes %s operands, got %d", bd.Op, bd.Op.Operands(), len(n.Children)))
		}
		for _, c := range children {
			if !g.IsSolid(c) {
				errs = append(errs, nodeError(n, "%s operand %s is a %s, not a solid", bd.Op, describe(c), c.Kind))
			}
		}

	case NodePart:
		if len(n.Children) != 1 {
			errs = append(errs, nodeError(n, "part %q has %d children, want 1", n.Name, len(n.Children)))
			break
		}
		if len(children) == 1 && !g.IsSolid(children[0]) {
			errs = append(errs, nodeError(n, "part %q body %s is a %s, not a solid", n.Name, describe(children[0]), children[0].Kind))
		}

	case NodeGroup:
		for _, c := range children {
			if g.IsSolid(c) {
				errs = append(errs, nodeError(n, "group %q holds bare solid %s; wrap it in defpart", n.Name, describe(c)))
			}
		}

	default:
		errs = append(errs, nodeError(n, "unknown node kind %d", int(n.Kind)))
	}
	return errs
}

// validatePrimitive checks that primitive dimensions are positive and that
// explicit segment counts can form a closed solid.
func validatePrimitive(n *Node) []ValidationError {
	if n.Kind != NodePrimitive {
		return nil
	}
	var errs []ValidationError
	switch d := n.Data.(type) {
	case BoxData:
		for _, c := range []struct {
			axis string
			v    float64
		}{{"X", d.Size.X}, {"Y", d.Size.Y}, {"Z", d.Size.Z}} {
			if c.v <= 0 {
				errs = append(errs, nodeError(n, "box dimension %s is %.4f, must be positive", c.axis, c.v))
			}
		}
	case CylinderData:
		if d.Height <= 0 {
			errs = append(errs, nodeError(n, "cylinder height is %.4f, must be positive", d.Height))
		}
		if d.Radius <= 0 {
			errs = append(errs, nodeError(n, "cylinder radius is %.4f, must be positive", d.Radius))
		}
		if d.Segments != 0 && d.Segments < 3 {
			errs = append(errs, nodeError(n, "cylinder needs at least 3 segments, got %d", d.Segments))
		}
	case SphereData:
		if d.Radius <= 0 {
			errs = append(errs, nodeError(n, "sphere radius is %.4f, must be positive", d.Radius))
		}
		if d.Segments != 0 && d.Segments < 3 {
			errs = append(errs, nodeError(n, "sphere needs at least 3 segments, got %d", d.Segments))
		}
	default:
		errs = append(errs, nodeError(n, "primitive has unsupported data type %T", n.Data))
	}
	return errs
}

func describe(n *Node) string {
	if n.Name != "" {
		return fmt.Sprintf("%q", n.Name)
	}
	return n.ID.Short()
}
