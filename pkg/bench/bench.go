// Package bench implements C9: the benchmark harness that runs an
// exact baseline and one or more approximate variants, then computes
// precision/recall/F1/Jaccard/speedup. Approximate variants run
// concurrently via golang.org/x/sync/errgroup, matching the "enrich
// from the rest of the pack" directive — errgroup is a transitive
// teacher dependency (via fx) promoted to direct use here, and is the
// same pattern allinbits-labs/gno_cdn reaches for to fan out
// independent units of work and join on the first error.
package bench

import (
	"context"
	"time"

	"github.com/hsn0918/codegraph/pkg/bundle"
	"github.com/hsn0918/codegraph/pkg/candidates"
	"github.com/hsn0918/codegraph/pkg/codegraph"
	"golang.org/x/sync/errgroup"
)

// Variant is one approximate configuration to benchmark, run
// `Iterations` times (>=1) to dampen timer noise.
type Variant struct {
	Label      string
	Config     candidates.Config
	Bundle     bundle.Config
	Iterations int
}

// runOnce executes the full C4->C5 pipeline once and returns the
// elapsed time and resulting edge set.
func runOnce(fns []codegraph.FunctionEmbedding, candCfg candidates.Config, bundleCfg bundle.Config) (time.Duration, []codegraph.SimilarityEdge) {
	start := time.Now()
	candLists := candidates.Generate(fns, candCfg)
	result := bundle.Score(fns, candLists, bundleCfg)
	return time.Since(start), result.Edges
}

func canonicalKeys(edges []codegraph.SimilarityEdge) map[string]bool {
	keys := make(map[string]bool, len(edges))
	for _, e := range edges {
		keys[bundle.CanonicalEdgeKey(e.Source, e.Target)] = true
	}
	return keys
}

// Run executes the exact baseline once, then every variant
// `variant.Iterations` times (averaging elapsed time), and returns a
// full report. Edge-set comparison uses the canonical key, not the
// score, so numerical jitter in bundle similarity does not distort
// precision/recall (per spec §4.9).
func Run(ctx context.Context, fns []codegraph.FunctionEmbedding, bundleCfg bundle.Config, variants []Variant) (codegraph.BenchmarkReport, error) {
	exactElapsed, exactEdges := runOnce(fns, candidates.Config{ApproximateThreshold: 0}, bundleCfg)
	exactKeys := canonicalKeys(exactEdges)

	reports := make([]codegraph.BenchmarkVariantReport, len(variants))
	g, _ := errgroup.WithContext(ctx)
	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			iterations := v.Iterations
			if iterations < 1 {
				iterations = 1
			}
			var total time.Duration
			var lastEdges []codegraph.SimilarityEdge
			for it := 0; it < iterations; it++ {
				elapsed, edges := runOnce(fns, v.Config, v.Bundle)
				total += elapsed
				lastEdges = edges
			}
			avg := total / time.Duration(iterations)

			approxKeys := canonicalKeys(lastEdges)
			overlap := 0
			for k := range exactKeys {
				if approxKeys[k] {
					overlap++
				}
			}
			var recall, precision, f1, jaccard, speedup float64
			if len(exactKeys) > 0 {
				recall = float64(overlap) / float64(len(exactKeys))
			}
			if len(approxKeys) > 0 {
				precision = float64(overlap) / float64(len(approxKeys))
			}
			if recall+precision > 0 {
				f1 = 2 * recall * precision / (recall + precision)
			}
			union := len(exactKeys) + len(approxKeys) - overlap
			if union > 0 {
				jaccard = float64(overlap) / float64(union)
			}
			if avg > 0 {
				speedup = float64(exactElapsed) / float64(avg)
			}

			reports[i] = codegraph.BenchmarkVariantReport{
				Label:     v.Label,
				ElapsedNS: avg.Nanoseconds(),
				Overlap:   overlap,
				Recall:    recall,
				Precision: precision,
				F1:        f1,
				Jaccard:   jaccard,
				Speedup:   speedup,
				EdgeCount: len(lastEdges),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return codegraph.BenchmarkReport{}, err
	}

	return codegraph.BenchmarkReport{
		ExactElapsedNS: exactElapsed.Nanoseconds(),
		ExactEdgeCount: len(exactEdges),
		Variants:       reports,
	}, nil
}
