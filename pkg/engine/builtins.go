package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/carve/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	kind graph.NodeKind
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(%s %q)", n.kind, n.name)
	}
	return fmt.Sprintf("(%s %s)", n.kind, n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a graph.Vec3.
type sexpVec3 struct {
	vec graph.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Trailing keyword with no value.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// floatKW reads keyword key as a number into dst. Missing keys leave dst alone.
func (a kwArgs) floatKW(fn, key string, dst *float64) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// intKW reads keyword key as an integer into dst. Missing keys leave dst alone.
func (a kwArgs) intKW(fn, key string, dst *int) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = n
	return nil
}

// stringKW reads keyword key as a string into dst. Missing keys leave dst alone.
func (a kwArgs) stringKW(fn, key string, dst *string) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = s
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a node reference.
func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected a solid or part, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (graph.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// vec3Args reads either a single vec3 or three numbers.
func vec3Args(args []zygo.Sexp) (graph.Vec3, error) {
	switch len(args) {
	case 1:
		return toVec3(args[0])
	case 3:
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return graph.Vec3{}, err
			}
			xyz[i] = f
		}
		return graph.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
	}
	return graph.Vec3{}, fmt.Errorf("expected a vec3 or three numbers, got %d arguments", len(args))
}

// ---------------------------------------------------------------------------
// Node construction
// ---------------------------------------------------------------------------

// addNode content-addresses n, stores it and returns a reference to it.
func addNode(g *graph.DesignGraph, n *graph.Node) *sexpNodeRef {
	n.ID = graph.HashNode(n)
	g.AddNode(n)
	return &sexpNodeRef{id: n.ID, kind: n.Kind, name: n.Name}
}

// collectRoots registers every part, group and placement that nothing else
// refers to. Unreferenced bare solids are left for validation to report as
// orphans.
func collectRoots(g *graph.DesignGraph) {
	referenced := make(map[graph.NodeID]bool)
	for _, n := range g.Nodes {
		for _, c := range n.Children {
			referenced[c] = true
		}
	}

	var roots []*graph.Node
	for id, n := range g.Nodes {
		if referenced[id] {
			continue
		}
		switch n.Kind {
		case graph.NodePart, graph.NodeGroup:
			roots = append(roots, n)
		case graph.NodeTransform:
			if !g.IsSolid(n) {
				roots = append(roots, n)
			}
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].Name != roots[j].Name {
			return roots[i].Name < roots[j].Name
		}
		return roots[i].ID < roots[j].ID
	})
	for _, n := range roots {
		g.AddRoot(n.ID)
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all Carve DSL builtins into a zygomys environment.
// The builtins operate on the provided DesignGraph, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.DesignGraph) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := vec3Args(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (box :size (vec3 40 20 5)) or (box :x 40 :y 20 :z 5) or (box 40 20 5)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var bd graph.BoxData

		if len(pa.positional) > 0 {
			v, err := vec3Args(pa.positional)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			bd.Size = v
		}
		if v, ok := pa.kw["size"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			bd.Size = vec
		}
		for _, err := range []error{
			pa.floatKW("box", "x", &bd.Size.X),
			pa.floatKW("box", "y", &bd.Size.Y),
			pa.floatKW("box", "z", &bd.Size.Z),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}

		return addNode(g, &graph.Node{Kind: graph.NodePrimitive, Data: bd}), nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 10 :radius 3 :segments 32)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var cd graph.CylinderData

		for _, err := range []error{
			pa.floatKW("cylinder", "height", &cd.Height),
			pa.floatKW("cylinder", "radius", &cd.Radius),
			pa.intKW("cylinder", "segments", &cd.Segments),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}

		return addNode(g, &graph.Node{Kind: graph.NodePrimitive, Data: cd}), nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 5 :segments 24)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var sd graph.SphereData

		if err := pa.floatKW("sphere", "radius", &sd.Radius); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.intKW("sphere", "segments", &sd.Segments); err != nil {
			return zygo.SexpNull, err
		}

		return addNode(g, &graph.Node{Kind: graph.NodePrimitive, Data: sd}), nil
	})

	// -----------------------------------------------------------------------
	// (translate solid (vec3 1 2 3)) and (rotate solid (vec3 0 0 90))
	//
	// Either form also accepts a part or an assembly, which places it.
	// -----------------------------------------------------------------------
	transform := func(fn string, set func(*graph.TransformData, graph.Vec3)) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and a vector", fn)
			}
			ref, err := toNodeRef(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			v, err := vec3Args(args[1:])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}

			var td graph.TransformData
			set(&td, v)
			return addNode(g, &graph.Node{
				Kind:     graph.NodeTransform,
				Children: []graph.NodeID{ref.id},
				Data:     td,
			}), nil
		}
	}
	env.AddFunction("translate", transform("translate", func(td *graph.TransformData, v graph.Vec3) {
		td.Translation = v
	}))
	env.AddFunction("rotate", transform("rotate", func(td *graph.TransformData, v graph.Vec3) {
		td.Rotation = v
	}))

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...),
	// (complement a)
	// -----------------------------------------------------------------------
	for _, op := range []graph.BooleanOp{
		graph.OpUnion, graph.OpDifference, graph.OpIntersection, graph.OpComplement,
	} {
		op := op
		env.AddFunction(op.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			min, max := op.Arity()
			if len(args) < min || (max >= 0 && len(args) > max) {
				return zygo.SexpNull, fmt.Errorf("%s takes %s operands, got %d", op, op.Operands(), len(args))
			}

			children := make([]graph.NodeID, 0, len(args))
			for i, a := range args {
				ref, err := toNodeRef(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %w", op, i+1, err)
				}
				if ref.kind == graph.NodePart || ref.kind == graph.NodeGroup {
					return zygo.SexpNull, fmt.Errorf("%s: operand %d: %s %q is not a solid", op, i+1, ref.kind, ref.name)
				}
				children = append(children, ref.id)
			}

			return addNode(g, &graph.Node{
				Kind:     graph.NodeBoolean,
				Children: children,
				Data:     graph.BooleanData{Op: op},
			}), nil
		})
	}

	// -----------------------------------------------------------------------
	// (defpart "name" solid :description "...")
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}

		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		body, err := toNodeRef(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart %q: body: %w", partName, err)
		}
		var pd graph.PartData
		if err := pa.stringKW("defpart", "description", &pd.Description); err != nil {
			return zygo.SexpNull, err
		}

		node := &graph.Node{
			Kind:     graph.NodePart,
			Name:     partName,
			Children: []graph.NodeID{body.id},
			Data:     pd,
		}
		if prev := g.Lookup(partName); prev != nil && prev.ID != graph.HashNode(node) {
			return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", partName)
		}

		return addNode(g, node), nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		n := g.Lookup(partName)
		if n == nil || n.Kind != graph.NodePart {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}

		return &sexpNodeRef{id: n.ID, kind: n.Kind, name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (assembly "name" (part "a") (translate (part "b") (vec3 0 0 5)) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}

		asmName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		var gd graph.GroupData
		if err := pa.stringKW("assembly", "description", &gd.Description); err != nil {
			return zygo.SexpNull, err
		}

		var children []graph.NodeID
		for i, a := range pa.positional[1:] {
			ref, err := toNodeRef(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("assembly %q: child %d: %w", asmName, i+1, err)
			}
			children = append(children, ref.id)
		}

		return addNode(g, &graph.Node{
			Kind:     graph.NodeGroup,
			Name:     asmName,
			Children: children,
			Data:     gd,
		}), nil
	})
}
