// Package app ties the Carve pipeline together: DSL source is evaluated into
// a design graph, tessellated through the configured kernel and returned as
// JSON-shaped mesh data.
package app

import (
	"fmt"
	"log/slog"

	"github.com/chazu/carve/pkg/config"
	"github.com/chazu/carve/pkg/engine"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/kernel/bsp"
	"github.com/chazu/carve/pkg/kernel/sdfx"
	"github.com/chazu/carve/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App evaluates Carve programs.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	opts   tessellate.Options
	log    *slog.Logger
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// KernelMesh converts m back to a kernel mesh, e.g. for STL export.
func (m MeshData) KernelMesh() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		PartName: m.PartName,
	}
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of one evaluation. Slices are never nil so
// they encode as [] rather than null.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// OK reports whether the evaluation produced no errors.
func (r EvalResult) OK() bool {
	return len(r.Errors) == 0
}

// New creates an App from cfg. The kernel is chosen by cfg.Kernel.
func New(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var k kernel.Kernel
	switch cfg.Kernel {
	case config.KernelSDFX:
		k = sdfx.NewWithCells(cfg.Mesh.SDFCells)
	default:
		k = bsp.New()
	}

	return &App{
		engine: engine.NewEngineWithTimeout(cfg.Eval.Timeout.Duration),
		kernel: k,
		opts: tessellate.Options{
			CylinderSegments: cfg.Mesh.CylinderSegments,
			SphereSegments:   cfg.Mesh.SphereSegments,
		},
		log: slog.Default().With("kernel", cfg.Kernel),
	}, nil
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	a, err := New(config.Default())
	if err != nil {
		panic(err)
	}
	return a
}

// Kernel returns the geometry kernel used for tessellation.
func (a *App) Kernel() kernel.Kernel {
	return a.kernel
}

// Evaluate takes Lisp source and returns mesh data + errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a design graph.
	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate: fatal error", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
		})
	}

	// Step 2: Convert eval errors to the result format.
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Tessellate the design graph into triangle meshes.
	meshes, err := tessellate.TessellateWithOptions(res.Graph, a.kernel, a.opts)
	if err != nil {
		a.log.Error("evaluate: tessellation failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}

	// Step 4: Convert kernel meshes to MeshData.
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	a.log.Debug("evaluate", "parts", len(result.Meshes), "warnings", len(result.Warnings))

	return result
}
