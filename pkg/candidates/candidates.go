// Package candidates implements C4: for each function, a short list
// of other functions whose representative is plausibly similar,
// skipping O(n²) bundle scoring on obvious non-matches. Both the
// exact and the approximate random-projection banded LSH path are
// implemented per spec §4.4.
//
// Projection scoring runs sequentially. The final re-scoring of each
// function's shortlist by true dot product parallelizes over functions
// using the same bounded worker-pool shape as the teacher's
// pkg/chunking/semantic.go parallelEmbeddings: a buffered semaphore
// channel plus sync.WaitGroup, results collected into a slice indexed
// by position so the merge stays deterministic regardless of
// goroutine completion order.
package candidates

import (
	"runtime"
	"sort"
	"sync"

	"github.com/hsn0918/codegraph/pkg/codegraph"
	"github.com/hsn0918/codegraph/pkg/vecmath"
)

// Candidate is one shortlisted neighbor for a function, carrying the
// true representative cosine similarity.
type Candidate struct {
	FnID  string
	Score float64
}

// workerCap sizes the parallel scoring pool per the §5 CPU heuristic
// (min 1, cap 4, cores-2) — reused here for projection/pairwise
// scoring, not just embedding dispatch.
func workerCap() int {
	n := runtime.NumCPU() - 2
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return n
}

// Generate dispatches to the exact or approximate path per §4.4 and
// returns each function's candidate list, sorted descending by score.
func Generate(fns []codegraph.FunctionEmbedding, cfg Config) map[string][]Candidate {
	n := len(fns)
	cfg.Validate(n)
	if n < 2 {
		return map[string][]Candidate{}
	}
	if ShouldUseApproximate(cfg, n) {
		return generateApproximate(fns, cfg)
	}
	return generateExact(fns, cfg)
}

func generateExact(fns []codegraph.FunctionEmbedding, cfg Config) map[string][]Candidate {
	n := len(fns)
	lists := make(map[string][]Candidate, n)
	for _, f := range fns {
		lists[f.FnID] = nil
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			score, err := vecmath.Dot(fns[i].Representative, fns[j].Representative)
			if err != nil {
				continue
			}
			lists[fns[i].FnID] = append(lists[fns[i].FnID], Candidate{FnID: fns[j].FnID, Score: score})
			lists[fns[j].FnID] = append(lists[fns[j].FnID], Candidate{FnID: fns[i].FnID, Score: score})
		}
	}
	for id := range lists {
		capTopN(lists, id, cfg.CandidateLimit)
	}
	return lists
}

func capTopN(lists map[string][]Candidate, id string, limit int) {
	list := lists[id]
	sort.Slice(list, func(a, b int) bool { return list[a].Score > list[b].Score })
	if len(list) > limit {
		list = list[:limit]
	}
	lists[id] = list
}

type scored struct {
	idx   int
	score float64
}

// generateApproximate implements the random-projection banded LSH
// procedure of §4.4: draw P unit vectors, project every function onto
// each, band-connect neighbors in the sorted projection order, then
// score the true dot product for every candidate collected and
// truncate to min(candidateLimit*oversample, n-1).
func generateApproximate(fns []codegraph.FunctionEmbedding, cfg Config) map[string][]Candidate {
	n := len(fns)
	dim := len(fns[0].Representative)
	rng := vecmath.NewRng(cfg.Seed)

	projections := make([][]float32, cfg.ProjectionCount)
	for p := range projections {
		projections[p] = vecmath.RandomUnitVector(dim, rng)
	}

	// s[p][i] = dot(rep_i, u_p)
	scores := make([][]float64, cfg.ProjectionCount)
	for p := 0; p < cfg.ProjectionCount; p++ {
		scores[p] = make([]float64, n)
		for i := 0; i < n; i++ {
			scores[p][i], _ = vecmath.Dot(fns[i].Representative, projections[p])
		}
	}

	// candidateSet[i] -> set of candidate indices j, with the minimum
	// distance key seen across projections (kept only to honor the
	// "min across projections wins on duplicates" rule; the final
	// shortlist is re-scored by true dot product regardless).
	candidateSet := make([]map[int]float64, n)
	for i := range candidateSet {
		candidateSet[i] = make(map[int]float64)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for p := 0; p < cfg.ProjectionCount; p++ {
		sp := scores[p]
		sort.Slice(order, func(a, b int) bool { return sp[order[a]] < sp[order[b]] })
		for pos, idx := range order {
			lo := pos - cfg.BandSize
			if lo < 0 {
				lo = 0
			}
			hi := pos + cfg.BandSize
			if hi > n-1 {
				hi = n - 1
			}
			for k := lo; k <= hi; k++ {
				if k == pos {
					continue
				}
				other := order[k]
				dist := sp[idx] - sp[other]
				if dist < 0 {
					dist = -dist
				}
				if prev, ok := candidateSet[idx][other]; !ok || dist < prev {
					candidateSet[idx][other] = dist
				}
			}
		}
	}

	lists := make([][]Candidate, n)
	var wg sync.WaitGroup
	sem := make(chan struct{}, workerCap())
	var mu sync.Mutex
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			local := make([]Candidate, 0, len(candidateSet[i]))
			for j := range candidateSet[i] {
				score, err := vecmath.Dot(fns[i].Representative, fns[j].Representative)
				if err != nil {
					continue
				}
				local = append(local, Candidate{FnID: fns[j].FnID, Score: score})
			}
			sort.Slice(local, func(a, b int) bool {
				if local[a].Score != local[b].Score {
					return local[a].Score > local[b].Score
				}
				return local[a].FnID < local[b].FnID
			})
			limit := cfg.CandidateLimit * cfg.OversampleFactor
			if limit > n-1 {
				limit = n - 1
			}
			if len(local) > limit {
				local = local[:limit]
			}
			mu.Lock()
			lists[i] = local
			mu.Unlock()
		}()
	}
	wg.Wait()

	out := make(map[string][]Candidate, n)
	for i, f := range fns {
		out[f.FnID] = lists[i]
	}
	return out
}
