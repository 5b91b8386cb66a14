package candidates

import (
	"testing"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func mkFn(id string, rep []float32) codegraph.FunctionEmbedding {
	return codegraph.FunctionEmbedding{FnID: id, Representative: rep}
}

func TestShouldUseApproximateThresholdZeroNeverAutoEnables(t *testing.T) {
	cfg := Config{ApproximateThreshold: 0}
	if ShouldUseApproximate(cfg, 100000) {
		t.Error("expected approximateThreshold=0 to mean never auto-enable")
	}
}

func TestShouldUseApproximateExplicitFlagWins(t *testing.T) {
	cfg := Config{Approximate: true, ApproximateThreshold: 0}
	if !ShouldUseApproximate(cfg, 2) {
		t.Error("expected explicit Approximate=true to force approximate path")
	}
}

func TestShouldUseApproximateDefaultThreshold(t *testing.T) {
	cfg := Config{ApproximateThreshold: DefaultApproximateThreshold}
	if ShouldUseApproximate(cfg, 10) {
		t.Error("expected small n to stay exact")
	}
	if !ShouldUseApproximate(cfg, 700) {
		t.Error("expected n above threshold to go approximate")
	}
}

func TestGenerateFewerThanTwoFunctionsReturnsEmpty(t *testing.T) {
	out := Generate([]codegraph.FunctionEmbedding{mkFn("a", []float32{1, 0})}, Config{})
	if len(out) != 0 {
		t.Errorf("expected no candidates for n<2, got %v", out)
	}
}

func TestGenerateExactSymmetricCandidates(t *testing.T) {
	fns := []codegraph.FunctionEmbedding{
		mkFn("a", []float32{1, 0, 0, 0}),
		mkFn("b", []float32{0.99, 0.14, 0, 0}),
		mkFn("c", []float32{0, 0, 1, 0}),
	}
	out := Generate(fns, Config{CandidateLimit: 20, ApproximateThreshold: 0})
	if len(out["a"]) != 2 || len(out["b"]) != 2 || len(out["c"]) != 2 {
		t.Fatalf("expected every node to see the other two, got %v", out)
	}
	if out["a"][0].FnID != "b" {
		t.Errorf("expected a's top candidate to be b, got %+v", out["a"])
	}
}

func TestGenerateApproximateDeterministicForFixedSeed(t *testing.T) {
	fns := make([]codegraph.FunctionEmbedding, 50)
	for i := range fns {
		v := make([]float32, 8)
		v[i%8] = 1
		fns[i] = mkFn(string(rune('a'+i)), v)
	}
	cfg := Config{Approximate: true, Seed: 42, CandidateLimit: 5, ProjectionCount: 4, BandSize: 3, OversampleFactor: 2}
	out1 := Generate(fns, cfg)
	out2 := Generate(fns, cfg)
	for id, list1 := range out1 {
		list2 := out2[id]
		if len(list1) != len(list2) {
			t.Fatalf("length mismatch for %s: %d vs %d", id, len(list1), len(list2))
		}
		for i := range list1 {
			if list1[i] != list2[i] {
				t.Fatalf("candidate mismatch for %s at %d: %+v vs %+v", id, i, list1[i], list2[i])
			}
		}
	}
}
