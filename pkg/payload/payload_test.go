package payload

import (
	"testing"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func TestValidateAndMergeUnresolvedCallEdgeOK(t *testing.T) {
	parser := codegraph.ParserPayload{
		Functions: []codegraph.Function{{FnID: "a", Name: "a", FilePath: "a.go", Lang: "go", StartLine: 1, EndLine: 2}},
		CallEdges: []codegraph.CallEdge{{Source: "a", Target: "missing", ResolutionStatus: codegraph.ResolutionUnresolved}},
	}
	_, issues := ValidateAndMerge(parser, codegraph.EmbeddingsPayload{}, Options{})
	for _, i := range issues {
		t.Errorf("unexpected issue: %+v", i)
	}
}

func TestValidateAndMergeResolvedCallEdgeWithUnknownTargetFails(t *testing.T) {
	parser := codegraph.ParserPayload{
		Functions: []codegraph.Function{{FnID: "a", Name: "a", FilePath: "a.go", Lang: "go", StartLine: 1, EndLine: 2}},
		CallEdges: []codegraph.CallEdge{{Source: "a", Target: "missing", ResolutionStatus: codegraph.ResolutionResolved}},
	}
	_, issues := ValidateAndMerge(parser, codegraph.EmbeddingsPayload{}, Options{})
	if len(issues) == 0 {
		t.Error("expected a validation issue for resolved call edge with unknown target")
	}
}

func TestValidateAndMergeDuplicateFnID(t *testing.T) {
	parser := codegraph.ParserPayload{
		Functions: []codegraph.Function{
			{FnID: "a", Name: "a", FilePath: "a.go", Lang: "go", StartLine: 1, EndLine: 2},
			{FnID: "a", Name: "a2", FilePath: "b.go", Lang: "go", StartLine: 1, EndLine: 2},
		},
	}
	_, issues := ValidateAndMerge(parser, codegraph.EmbeddingsPayload{}, Options{})
	found := false
	for _, i := range issues {
		if i.Message == "duplicate fn_id: a" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected duplicate fn_id issue, got %+v", issues)
	}
}

func TestValidateAndMergeSimilarityRange(t *testing.T) {
	parser := codegraph.ParserPayload{
		Functions: []codegraph.Function{
			{FnID: "a", Name: "a", FilePath: "a.go", Lang: "go", StartLine: 1, EndLine: 2},
			{FnID: "b", Name: "b", FilePath: "b.go", Lang: "go", StartLine: 1, EndLine: 2},
		},
	}
	embeddings := codegraph.EmbeddingsPayload{
		SimilarityEdges: []codegraph.SimilarityEdge{{Source: "a", Target: "b", Similarity: 1.5}},
	}
	_, issues := ValidateAndMerge(parser, embeddings, Options{})
	if len(issues) == 0 {
		t.Error("expected out-of-range similarity to be flagged")
	}
}

func TestDecodeParserPayloadStrictRejectsUnknownKey(t *testing.T) {
	raw := []byte(`{"functions":[],"bogus":1}`)
	_, issues, err := DecodeParserPayload(raw, Options{Strict: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected one unknown-key issue, got %+v", issues)
	}
}

func TestDecodeParserPayloadNonStrictIgnoresUnknownKey(t *testing.T) {
	raw := []byte(`{"functions":[],"bogus":1}`)
	_, issues, err := DecodeParserPayload(raw, Options{Strict: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected no issues in non-strict mode, got %+v", issues)
	}
}
