package aggregate

import (
	"math"
	"testing"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func TestRepresentativeIsUnitNorm(t *testing.T) {
	vecs := [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}
	rep := Representative(vecs, 4)
	var sumSq float64
	for _, x := range rep {
		sumSq += float64(x) * float64(x)
	}
	if math.Abs(sumSq-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", sumSq)
	}
}

func TestRepresentativeDropsWrongDimension(t *testing.T) {
	vecs := [][]float32{{1, 2}, {1, 2, 3, 4}}
	rep := Representative(vecs, 4)
	if rep == nil {
		t.Fatal("expected representative from the single valid vector")
	}
}

func TestRepresentativeNilWhenNoValidVectors(t *testing.T) {
	rep := Representative([][]float32{{1, 2}}, 4)
	if rep != nil {
		t.Errorf("expected nil, got %v", rep)
	}
}

func TestBuildDropsFunctionsWithNoValidChunks(t *testing.T) {
	functions := []codegraph.Function{{FnID: "a"}, {FnID: "b"}}
	chunksByFn := map[string][]codegraph.Chunk{
		"a": {{ChunkID: "a:chunk-0"}},
		"b": {{ChunkID: "b:chunk-0"}},
	}
	vectors := map[string][]float32{
		"a:chunk-0": {1, 0, 0, 0},
		// "b:chunk-0" intentionally missing => wrong/no dimension
	}
	out := Build(functions, chunksByFn, vectors, 4)
	if len(out) != 1 || out[0].FnID != "a" {
		t.Fatalf("expected only function a to survive, got %+v", out)
	}
}
