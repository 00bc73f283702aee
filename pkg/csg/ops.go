package csg

import "log/slog"

// Union returns the polygons bounding the space inside a or b.
func Union(a, b []*Polygon) ([]*Polygon, error) {
	if err := validatePair(a, b); err != nil {
		return nil, err
	}
	return union(a, b), nil
}

// Difference returns the polygons bounding the space inside a but not b.
func Difference(a, b []*Polygon) ([]*Polygon, error) {
	if err := validatePair(a, b); err != nil {
		return nil, err
	}
	return difference(a, b), nil
}

// Intersection returns the polygons bounding the space inside both a and b.
func Intersection(a, b []*Polygon) ([]*Polygon, error) {
	if err := validatePair(a, b); err != nil {
		return nil, err
	}
	return intersection(a, b), nil
}

// Complement returns a turned inside out.
func Complement(a []*Polygon) ([]*Polygon, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}
	return complement(a), nil
}

func validatePair(a, b []*Polygon) error {
	if err := Validate(a); err != nil {
		return err
	}
	return Validate(b)
}

func union(a, b []*Polygon) []*Polygon {
	ta, tb := NewNode(a), NewNode(b)
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	tb.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	ta.BuildFrom(tb)
	return result("union", a, b, ta.AllPolygons())
}

func difference(a, b []*Polygon) []*Polygon {
	// With a planeless A every polygon of B survives and the final inversion
	// would return the complement of B.
	if len(a) == 0 {
		return result("difference", a, b, nil)
	}
	ta, tb := NewNode(a), NewNode(b)
	ta.Invert()
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	tb.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	ta.BuildFrom(tb)
	ta.Invert()
	return result("difference", a, b, ta.AllPolygons())
}

func intersection(a, b []*Polygon) []*Polygon {
	// A planeless tree clips nothing away, so the sequence below would
	// return the other operand unchanged.
	if len(a) == 0 || len(b) == 0 {
		return result("intersection", a, b, nil)
	}
	ta, tb := NewNode(a), NewNode(b)
	ta.Invert()
	tb.ClipTo(ta)
	tb.Invert()
	ta.ClipTo(tb)
	tb.ClipTo(ta)
	ta.BuildFrom(tb)
	ta.Invert()
	return result("intersection", a, b, ta.AllPolygons())
}

func complement(a []*Polygon) []*Polygon {
	ta := NewNode(a)
	ta.Invert()
	return result("complement", a, nil, ta.AllPolygons())
}

func result(op string, a, b, out []*Polygon) []*Polygon {
	slog.Debug("csg: "+op, "a", len(a), "b", len(b), "out", len(out))
	return out
}
