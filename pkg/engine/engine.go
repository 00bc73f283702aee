// Package engine provides the Lisp evaluation engine for Carve.
// It wraps zygomys in a sandboxed environment and produces a DesignGraph
// from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/carve/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a validation
// failure in the resulting graph.
type EvalError struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Graph    *graph.DesignGraph
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for Carve evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine with the default EvalTimeout.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

// NewEngineWithTimeout creates an Engine with a custom evaluation limit.
// A non-positive timeout selects EvalTimeout.
func NewEngineWithTimeout(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	return &Engine{timeout: timeout}
}

// Timeout returns the evaluation limit.
func (e *Engine) Timeout() time.Duration {
	return e.timeout
}

// Evaluate takes Lisp source code and produces a new DesignGraph.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns graph + nil errors + nil error
//   - On parse/eval/validation failure: returns nil graph + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*graph.DesignGraph, []EvalError, error) {
	res, err := e.EvaluateResult(source)
	return res.Graph, res.Errors, err
}

// EvaluateResult is Evaluate with validation warnings included. The graph is
// nil whenever Errors is non-empty.
func (e *Engine) EvaluateResult(source string) (EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		ch <- e.evaluate(source)
	}()

	res := waitWithTimeout(ch, e.timeout, gen, &e.mu, &e.generation)
	if res.err != nil {
		return EvalResult{}, res.err
	}
	return EvalResult{Graph: res.graph, Errors: res.errors, Warnings: res.warnings}, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) evalResult {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return evalResult{graph: graph.New()}
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	g := graph.New()
	registerBuiltins(env, g)

	// Load and compile the source string into bytecode.
	if err := env.LoadString(preprocessSource(source)); err != nil {
		return evalResult{errors: parseZygomysError(err)}
	}

	// Execute the compiled bytecode.
	if _, err := env.Run(); err != nil {
		return evalResult{errors: parseZygomysError(err)}
	}

	collectRoots(g)
	return validateGraph(g)
}

// validateGraph turns validation findings into eval errors and warnings.
func validateGraph(g *graph.DesignGraph) evalResult {
	var res evalResult
	v := graph.ValidateAll(g)
	for _, ve := range v.Errors {
		res.errors = append(res.errors, EvalError{Message: ve.Error(), NodeID: ve.NodeID})
	}
	for _, w := range v.Warnings {
		res.warnings = append(res.warnings, EvalWarning{Message: w.Message, NodeID: w.NodeID})
	}
	if len(res.errors) == 0 {
		res.graph = g
	}
	return res
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
