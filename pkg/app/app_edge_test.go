package app

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func errorsMention(result EvalResult, s string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e.Message, s) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors, non-nil slices.
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	result := NewApp().Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax errors carry a message and, where available, a line.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	// Valid code on line 1, broken code on line 2 so line info is meaningful.
	result := NewApp().Evaluate("(+ 1 2)\n(defpart \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2ESyntaxErrorSingleLineMissingParen(t *testing.T) {
	result := NewApp().Evaluate("(+ 1 2")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for missing closing paren")
	}
	if result.Errors[0].Message == "" {
		t.Error("error message should not be empty")
	}
}

// ---------------------------------------------------------------------------
// 3. Undefined part references name the missing part.
// ---------------------------------------------------------------------------

func TestE2EUndefinedPartReference(t *testing.T) {
	source := `
(defpart "shelf" (box 600 300 18))

(assembly "unit"
  (translate (part "nonexistent") 0 0 0))
`
	result := NewApp().Evaluate(source)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for undefined part reference")
	}
	if !errorsMention(result, "nonexistent") {
		t.Errorf("expected error mentioning 'nonexistent', got: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EUndefinedPartReferenceStandalone(t *testing.T) {
	result := NewApp().Evaluate(`(part "ghost")`)

	if !errorsMention(result, "ghost") {
		t.Errorf("expected error mentioning 'ghost', got: %v", result.Errors)
	}
}

// ---------------------------------------------------------------------------
// 4. Degenerate primitives are rejected before they reach the kernel.
// ---------------------------------------------------------------------------

func TestE2EDegenerateDimensions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"zero box side", `(defpart "bad" (box 0 100 19))`, "must be positive"},
		{"all zero", `(defpart "void" (box 0 0 0))`, "must be positive"},
		{"negative box side", `(defpart "negative" (box -100 100 19))`, "must be positive"},
		{"zero radius", `(defpart "pin" (cylinder :height 10 :radius 0))`, "must be positive"},
		{"too few segments", `(defpart "ball" (sphere :radius 1 :segments 2))`, "at least 3 segments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewApp().Evaluate(tt.source)
			if !errorsMention(result, tt.want) {
				t.Fatalf("errors = %v, want one containing %q", result.Errors, tt.want)
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes, got %d", len(result.Meshes))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation (debounce simulation): no panics, results stay
//    independent of the previous call.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	// Sequential on purpose: zygomys has global state that is not safe for
	// concurrent sandbox creation, and the engine mutex serializes calls anyway.
	a := NewApp()

	for i := 1; i <= 10; i++ {
		source := fmt.Sprintf(`(defpart "p%d" (box %d 10 10))`, i, 10*i)
		result := mustEvaluate(t, a, source)
		if len(result.Meshes) != 1 {
			t.Fatalf("iteration %d: expected 1 mesh, got %d", i, len(result.Meshes))
		}
		want := fmt.Sprintf("p%d", i)
		if result.Meshes[0].PartName != want {
			t.Errorf("iteration %d: part = %q, want %q", i, result.Meshes[0].PartName, want)
		}
	}
}

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources; the engine must recover
	// cleanly between error and success states.
	a := NewApp()

	sources := []struct {
		source string
		ok     bool
	}{
		{`(defpart "ok" (box 100 50 10))`, true},
		{`(defpart "broken"`, false},
		{``, true},
		{`(part "missing")`, false},
		{`(defpart "also-ok" (difference (box 2 2 2) (translate (box 1 1 1) 1.5 1.5 1.5)))`, true},
		{`(+ 1 2)`, true},
		{`;; just a comment`, true},
		{`(undefined-func 1 2 3)`, false},
		{`(defpart "last" (sphere :radius 4))`, true},
	}

	for i, s := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, s.source, r)
				}
			}()
			result := a.Evaluate(s.source)
			if result.OK() != s.ok {
				t.Errorf("iteration %d: OK() = %v, want %v (errors %v)", i, result.OK(), s.ok, result.Errors)
			}
		}()
	}
}

// ---------------------------------------------------------------------------
// 6. Large dimensions.
// ---------------------------------------------------------------------------

func TestE2ELargeDimensions(t *testing.T) {
	result := mustEvaluate(t, NewApp(), `(defpart "huge" (box 100000 50000 100))`)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh for large box, got %d", len(result.Meshes))
	}
	m := result.Meshes[0]
	if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
		t.Error("large box mesh should have geometry")
	}
	if m.PartName != "huge" {
		t.Errorf("expected part name 'huge', got %q", m.PartName)
	}
}

// ---------------------------------------------------------------------------
// 7. Multiple assemblies.
// ---------------------------------------------------------------------------

func TestE2EMultipleAssemblies(t *testing.T) {
	source := `
(defpart "top" (box 600 300 18))
(defpart "leg" (box 40 40 700))
(defpart "door" (box 400 18 600))
(defpart "frame" (box 450 40 650))

(assembly "table"
  (translate (part "top") 0 0 700)
  (part "leg"))

(assembly "cabinet"
  (part "frame")
  (translate (part "door") 25 -18 25))
`
	result := mustEvaluate(t, NewApp(), source)

	if len(result.Meshes) != 4 {
		t.Fatalf("expected 4 meshes, got %d", len(result.Meshes))
	}
	names := map[string]bool{}
	for _, m := range result.Meshes {
		names[m.PartName] = true
	}
	for _, want := range []string{"top", "leg", "door", "frame"} {
		if !names[want] {
			t.Errorf("missing mesh for part %q", want)
		}
	}
}

func TestE2EMultipleAssembliesWithSharedParts(t *testing.T) {
	source := `
(defpart "shelf" (box 500 250 18))

(assembly "left" (translate (part "shelf") 0 0 0))
(assembly "right" (translate (part "shelf") 600 0 0))
`
	result := mustEvaluate(t, NewApp(), source)

	if len(result.Meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(result.Meshes))
	}
	got := []string{result.Meshes[0].PartName, result.Meshes[1].PartName}
	if got[0] != "shelf" || got[1] != "shelf-2" {
		t.Errorf("part names = %v, want [shelf shelf-2]", got)
	}
}

// ---------------------------------------------------------------------------
// 8. Standalone defparts render without an assembly.
// ---------------------------------------------------------------------------

func TestE2EStandaloneDefpart(t *testing.T) {
	result := mustEvaluate(t, NewApp(), `(defpart "lonely" (cylinder :height 20 :radius 5))`)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].PartName != "lonely" {
		t.Errorf("expected part name 'lonely', got %q", result.Meshes[0].PartName)
	}
}

func TestE2EMultipleStandaloneDefparts(t *testing.T) {
	source := `
(defpart "alpha" (box 100 50 10))
(defpart "beta" (sphere :radius 10))
(defpart "gamma" (cylinder :height 30 :radius 3))
`
	result := mustEvaluate(t, NewApp(), source)

	// Roots are ordered by name.
	want := []string{"alpha", "beta", "gamma"}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if m.PartName != want[i] {
			t.Errorf("mesh %d = %q, want %q", i, m.PartName, want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// 9. Comments and whitespace.
// ---------------------------------------------------------------------------

func TestE2ECommentsOnly(t *testing.T) {
	for _, source := range []string{
		";; This is a comment\n;; Another comment\n",
		"\n  ;; indented comment\n\n\t;; tabbed\n",
		"   \n\t\n   \n",
	} {
		result := NewApp().Evaluate(source)
		if len(result.Errors) != 0 {
			t.Errorf("source %q: unexpected errors %v", source, result.Errors)
		}
		if len(result.Meshes) != 0 {
			t.Errorf("source %q: expected 0 meshes, got %d", source, len(result.Meshes))
		}
	}
}

func TestE2ECommentsAroundDefinitions(t *testing.T) {
	source := `
;; plate
(defpart "plate" ; trailing comment
  (box 10 10 1)) ;; and another
`
	result := mustEvaluate(t, NewApp(), source)
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 10. Arithmetic in definitions.
// ---------------------------------------------------------------------------

func TestE2ENestedArithmeticDef(t *testing.T) {
	source := `
(def base 100)
(def width (* base 2))
(def depth (/ width 4))
(def inset (- depth 10))
(defpart "slab" (difference
  (box width depth 10)
  (translate (box inset inset 20) 5 5 -5)))
`
	result := mustEvaluate(t, NewApp(), source)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	_, max := meshBounds(result.Meshes[0])
	want := [3]float64{200, 50, 10}
	for i := range want {
		if math.Abs(max[i]-want[i]) > 1e-4 {
			t.Errorf("max corner = %v, want %v", max, want)
			break
		}
	}
}

// ---------------------------------------------------------------------------
// 11. Malformed forms.
// ---------------------------------------------------------------------------

func TestE2EDefpartMissingBody(t *testing.T) {
	result := NewApp().Evaluate(`(defpart "oops")`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval error for defpart with no body")
	}
}

func TestE2EAssemblyNoChildren(t *testing.T) {
	result := NewApp().Evaluate(`(assembly "empty-asm")`)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty assembly, got %d", len(result.Meshes))
	}
}

func TestE2EFloatingPointDimensions(t *testing.T) {
	result := mustEvaluate(t, NewApp(), `(defpart "precise" (box 123.456 78.9 12.7))`)

	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	want := 123.456 * 78.9 * 12.7
	if got := meshVolume(result.Meshes[0]); got < want*0.999 || got > want*1.001 {
		t.Errorf("volume = %.3f, want %.3f", got, want)
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	// More parts than the palette has colors.
	var sb strings.Builder
	sb.WriteString("(assembly \"many\"\n")
	for i := 1; i <= 9; i++ {
		fmt.Fprintf(&sb, "  (translate (defpart \"p%d\" (box 100 50 10)) %d 0 0)\n", i, 110*(i-1))
	}
	sb.WriteString(")\n")

	result := mustEvaluate(t, NewApp(), sb.String())

	if len(result.Meshes) != 9 {
		t.Fatalf("expected 9 meshes, got %d", len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if want := colorPalette[i%len(colorPalette)]; m.Color != want {
			t.Errorf("mesh %q color = %s, want %s", m.PartName, m.Color, want)
		}
	}
	if result.Meshes[0].Color != result.Meshes[8].Color {
		t.Error("palette should wrap after 8 parts")
	}
}
