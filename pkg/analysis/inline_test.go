package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func trianglePayload() codegraph.GraphPayload {
	return codegraph.GraphPayload{
		Nodes: []codegraph.GraphNode{{FnID: "a"}, {FnID: "b"}, {FnID: "c"}},
		Edges: []codegraph.GraphEdge{
			{Source: "a", Target: "b", Type: codegraph.EdgeTypeSimilarity, Undirected: true},
			{Source: "b", Target: "c", Type: codegraph.EdgeTypeSimilarity, Undirected: true},
			{Source: "a", Target: "c", Type: codegraph.EdgeTypeSimilarity, Undirected: true},
		},
	}
}

func TestInlineDegreeCentralityTriangle(t *testing.T) {
	result := Inline(trianglePayload(), Options{Centralities: true})
	for _, n := range result.Nodes {
		if n.Centrality["degree"] != 1 {
			t.Errorf("expected full triangle degree centrality 1.0 for %s, got %v", n.FnID, n.Centrality["degree"])
		}
	}
}

func TestInlineKCoreTriangleIsTwoCore(t *testing.T) {
	result := Inline(trianglePayload(), Options{})
	for _, n := range result.Nodes {
		if n.CoreNumber != 2 {
			t.Errorf("expected core number 2 for triangle node %s, got %d", n.FnID, n.CoreNumber)
		}
	}
}

func TestInlineCliquesGroupsTriangle(t *testing.T) {
	result := Inline(trianglePayload(), Options{Cliques: true})
	clique := result.Nodes[0].Centrality["clique"]
	for _, n := range result.Nodes {
		if n.Centrality["clique"] != clique {
			t.Errorf("expected all triangle nodes in the same clique, got %v", result.Nodes)
		}
	}
}

type failingWorker struct{}

func (failingWorker) Analyze(ctx context.Context, payload codegraph.GraphPayload, opts Options) (codegraph.GraphPayload, error) {
	return codegraph.GraphPayload{}, errors.New("boom")
}

func TestDispatchFallsBackOnWorkerError(t *testing.T) {
	result := Dispatch(context.Background(), failingWorker{}, trianglePayload(), Options{Centralities: true})
	if result.ViaWorker {
		t.Error("expected ViaWorker=false after worker failure")
	}
	if len(result.Nodes) != 3 {
		t.Errorf("expected inline fallback to still produce 3 nodes, got %d", len(result.Nodes))
	}
}

func TestDispatchNilWorkerFallsBackInline(t *testing.T) {
	result := Dispatch(context.Background(), nil, trianglePayload(), Options{})
	if result.ViaWorker {
		t.Error("expected ViaWorker=false with nil worker")
	}
}
