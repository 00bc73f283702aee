package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/carve/pkg/graph"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult is the internal type used to pass evaluation results through channels.
type evalResult struct {
	graph    *graph.DesignGraph
	errors   []EvalError
	warnings []EvalWarning
	err      error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds timeout. It uses a generation counter to
// discard stale results from previous evaluations.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	timeout time.Duration,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) evalResult {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return evalResult{err: fmt.Errorf("evaluation superseded by newer request")}
		}
		return res

	case <-timer.C:
		return evalResult{err: fmt.Errorf("evaluation timed out after %s", timeout)}
	}
}
