// Package bundle implements C5: bundle similarity scoring — the top-K
// average of pairwise chunk cosine similarities between two
// functions' candidate lists, with threshold filtering and canonical
// edge-key deduplication. Grounded on the teacher's
// pkg/search/scoring.go (score-then-filter-then-cap shape of
// RerankChunksWithKeywords / CalculateAdvancedScore).
package bundle

import (
	"math"
	"sort"

	"github.com/hsn0918/codegraph/pkg/candidates"
	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/hsn0918/codegraph/pkg/vecmath"
)

const (
	DefaultBundleTopK           = 3
	DefaultSimilarityThreshold  = 0.65
	normalizationDriftTolerance = 1e-3
)

// Config controls the bundle scorer.
type Config struct {
	TopK                int
	SimilarityThreshold float64
}

// Validate fills in defaults.
func (c *Config) Validate() {
	if c.TopK <= 0 {
		c.TopK = DefaultBundleTopK
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
}

// CanonicalEdgeKey sorts endpoints lexicographically so
// canonicalEdgeKey(a,b) == canonicalEdgeKey(b,a).
func CanonicalEdgeKey(a, b string) string {
	if a <= b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}

// Result carries diagnostics alongside the scored edges: the per-run
// defensive-renormalization counter from the Open-Question resolution
// in DESIGN.md (chunk vectors are assumed L2-normalized by contract
// with the embedding model, but drift is corrected and counted).
type Result struct {
	Edges              []codegraph.SimilarityEdge
	RenormalizedChunks int
}

// Score computes bundle similarity for every candidate pair produced
// by C4, discards pairs below threshold, and deduplicates by
// canonical edge key.
func Score(fns []codegraph.FunctionEmbedding, candLists map[string][]candidates.Candidate, cfg Config) Result {
	cfg.Validate()

	byID := make(map[string]codegraph.FunctionEmbedding, len(fns))
	for _, f := range fns {
		byID[f.FnID] = f
	}

	renormCount := 0
	normalize := func(v []float32) []float32 {
		n := vecmath.NormSquared(v)
		if math.Abs(n-1) > normalizationDriftTolerance {
			renormCount++
			return vecmath.Normalize(v)
		}
		return v
	}

	seen := make(map[string]bool)
	var edges []codegraph.SimilarityEdge

	for _, f := range fns {
		for _, cand := range candLists[f.FnID] {
			if f.FnID == cand.FnID {
				continue
			}
			key := CanonicalEdgeKey(f.FnID, cand.FnID)
			if seen[key] {
				continue
			}
			other, ok := byID[cand.FnID]
			if !ok {
				continue
			}
			a, b := f, other
			if a.FnID > b.FnID {
				a, b = b, a
			}
			seen[key] = true

			var pairScores []float64
			for _, va := range a.ChunkVectors {
				if len(va) == 0 {
					continue
				}
				va = normalize(va)
				for _, vb := range b.ChunkVectors {
					if len(vb) == 0 || len(vb) != len(va) {
						continue
					}
					vb = normalize(vb)
					score, err := vecmath.Dot(va, vb)
					if err != nil {
						continue
					}
					pairScores = append(pairScores, score)
				}
			}
			if len(pairScores) == 0 {
				continue
			}
			sort.Sort(sort.Reverse(sort.Float64Slice(pairScores)))
			k := cfg.TopK
			if k > len(pairScores) {
				k = len(pairScores)
			}
			var sum float64
			for i := 0; i < k; i++ {
				sum += pairScores[i]
			}
			bundleScore := sum / float64(k)
			if bundleScore < cfg.SimilarityThreshold {
				continue
			}
			repScore, _ := vecmath.Dot(a.Representative, b.Representative)
			edges = append(edges, codegraph.SimilarityEdge{
				Source:                   a.FnID,
				Target:                   b.FnID,
				Similarity:               bundleScore,
				Method:                   "bundle-topk",
				RepresentativeSimilarity: repScore,
				TopPairs:                 pairScores[:k],
			})
		}
	}
	return Result{Edges: edges, RenormalizedChunks: renormCount}
}
