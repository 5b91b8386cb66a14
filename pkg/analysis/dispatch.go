// Package analysis implements C10: dispatch to an external
// graph-analysis collaborator (centralities/communities/cliques), with
// serialization into the flat GraphPayload and an inline fallback
// when the worker is unavailable or errors. The worker/fallback shape is
// grounded on other_examples' straga-Mimir_lite embed_queue.go
// (request issued, error triggers fallback, caller never blocks
// forever on a dead collaborator).
package analysis

import (
	"context"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

// Options selects which analyses to run.
type Options struct {
	Centralities bool
	Communities  bool
	Cliques      bool
}

// Worker is the external analysis collaborator's contract. Its
// internals (PageRank, Louvain, Bron-Kerbosch, k-core) are out of
// scope per spec §1 — callers only see this interface.
type Worker interface {
	Analyze(ctx context.Context, payload codegraph.GraphPayload, opts Options) (codegraph.GraphPayload, error)
}

// Dispatch tries the worker first; on any error (including a nil
// worker, meaning "disabled") it transparently falls back to inline
// computation over the same inputs and marks ViaWorker=false.
// Validation errors never abort graph construction — this dispatcher
// cannot fail; there is always a result.
func Dispatch(ctx context.Context, worker Worker, payload codegraph.GraphPayload, opts Options) codegraph.GraphPayload {
	if worker != nil {
		result, err := worker.Analyze(ctx, payload, opts)
		if err == nil {
			result.ViaWorker = true
			return result
		}
	}
	result := Inline(payload, opts)
	result.ViaWorker = false
	return result
}
