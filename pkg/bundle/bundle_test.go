package bundle

import (
	"testing"

	"github.com/hsn0918/codegraph/pkg/candidates"
	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func TestCanonicalEdgeKeySymmetric(t *testing.T) {
	if CanonicalEdgeKey("a", "b") != CanonicalEdgeKey("b", "a") {
		t.Error("expected canonical edge key to be symmetric")
	}
}

func TestScoreThresholdFilter(t *testing.T) {
	fns := []codegraph.FunctionEmbedding{
		{FnID: "a", Representative: []float32{1, 0}, ChunkVectors: [][]float32{{1, 0}}},
		{FnID: "b", Representative: []float32{1, 0}, ChunkVectors: [][]float32{{1, 0}}},
		{FnID: "c", Representative: []float32{0, 1}, ChunkVectors: [][]float32{{0, 1}}},
	}
	candLists := map[string][]candidates.Candidate{
		"a": {{FnID: "b", Score: 1}, {FnID: "c", Score: 0}},
		"b": {{FnID: "a", Score: 1}, {FnID: "c", Score: 0}},
		"c": {{FnID: "a", Score: 0}, {FnID: "b", Score: 0}},
	}
	result := Score(fns, candLists, Config{TopK: 1, SimilarityThreshold: 0.6})
	if len(result.Edges) != 1 {
		t.Fatalf("expected exactly one edge above threshold, got %d: %+v", len(result.Edges), result.Edges)
	}
	e := result.Edges[0]
	if e.Source != "a" || e.Target != "b" {
		t.Errorf("expected edge a-b, got %s-%s", e.Source, e.Target)
	}
}

func TestScoreDeduplicatesByCanonicalKey(t *testing.T) {
	fns := []codegraph.FunctionEmbedding{
		{FnID: "a", Representative: []float32{1, 0}, ChunkVectors: [][]float32{{1, 0}}},
		{FnID: "b", Representative: []float32{1, 0}, ChunkVectors: [][]float32{{1, 0}}},
	}
	candLists := map[string][]candidates.Candidate{
		"a": {{FnID: "b", Score: 1}},
		"b": {{FnID: "a", Score: 1}},
	}
	result := Score(fns, candLists, Config{TopK: 1, SimilarityThreshold: 0.5})
	if len(result.Edges) != 1 {
		t.Fatalf("expected deduplication to a single edge, got %d", len(result.Edges))
	}
}

func TestScoreRenormalizesDriftedChunkVectors(t *testing.T) {
	fns := []codegraph.FunctionEmbedding{
		{FnID: "a", Representative: []float32{1, 0}, ChunkVectors: [][]float32{{2, 0}}},
		{FnID: "b", Representative: []float32{1, 0}, ChunkVectors: [][]float32{{2, 0}}},
	}
	candLists := map[string][]candidates.Candidate{
		"a": {{FnID: "b", Score: 1}},
		"b": {{FnID: "a", Score: 1}},
	}
	result := Score(fns, candLists, Config{TopK: 1, SimilarityThreshold: 0.5})
	if result.RenormalizedChunks == 0 {
		t.Error("expected drifted chunk vectors to be counted as renormalized")
	}
	if len(result.Edges) != 1 || result.Edges[0].Similarity > 1.0001 {
		t.Errorf("expected renormalized score <= 1, got %+v", result.Edges)
	}
}
