// Package graphbuild implements C6: de-duplicate undirected similarity
// edges, apply the per-node neighbor cap (union rule, not
// intersection), and merge with the directed call graph into one
// graph payload for C10.
package graphbuild

import (
	"sort"

	"github.com/hsn0918/codegraph/pkg/bundle"
	"github.com/hsn0918/codegraph/pkg/codegraph"
)

const DefaultMaxNeighbors = 8

// Config controls the neighbor cap.
type Config struct {
	MaxNeighbors int
}

// Validate fills in the default.
func (c *Config) Validate() {
	if c.MaxNeighbors <= 0 {
		c.MaxNeighbors = DefaultMaxNeighbors
	}
}

// CapNeighbors applies the §4.6 algorithm: build an adjacency list,
// keep each node's top maxNeighbors by similarity, and return the
// edges retained by the union of both endpoints' keep sets — this
// preserves a legitimate hub's edges even when its neighbor's own
// top-N excludes them.
func CapNeighbors(edges []codegraph.SimilarityEdge, cfg Config) []codegraph.SimilarityEdge {
	cfg.Validate()

	adjacency := make(map[string][]codegraph.SimilarityEdge)
	for _, e := range edges {
		adjacency[e.Source] = append(adjacency[e.Source], e)
		adjacency[e.Target] = append(adjacency[e.Target], e)
	}

	keep := make(map[string]bool)
	for _, list := range adjacency {
		sort.Slice(list, func(a, b int) bool { return list[a].Similarity > list[b].Similarity })
		top := list
		if len(top) > cfg.MaxNeighbors {
			top = top[:cfg.MaxNeighbors]
		}
		for _, e := range top {
			keep[bundle.CanonicalEdgeKey(e.Source, e.Target)] = true
		}
	}

	var out []codegraph.SimilarityEdge
	for _, e := range edges {
		if keep[bundle.CanonicalEdgeKey(e.Source, e.Target)] {
			out = append(out, e)
		}
	}
	return out
}

// Merge combines capped similarity edges with the parser's call edges
// into the flat GraphPayload consumed by the analysis dispatcher.
// Node analysis attributes (community/centrality/core number) are
// left zero-valued here; C10 fills them in.
func Merge(functions []codegraph.Function, simEdges []codegraph.SimilarityEdge, callEdges []codegraph.CallEdge) codegraph.GraphPayload {
	nodes := make([]codegraph.GraphNode, 0, len(functions))
	for _, fn := range functions {
		nodes = append(nodes, codegraph.GraphNode{FnID: fn.FnID, Centrality: map[string]float64{}})
	}

	edges := make([]codegraph.GraphEdge, 0, len(simEdges)+len(callEdges))
	for _, e := range simEdges {
		edges = append(edges, codegraph.GraphEdge{
			Source:     e.Source,
			Target:     e.Target,
			Similarity: e.Similarity,
			Type:       codegraph.EdgeTypeSimilarity,
			Undirected: true,
		})
	}
	for _, e := range callEdges {
		edges = append(edges, codegraph.GraphEdge{
			Source:     e.Source,
			Target:     e.Target,
			Weight:     e.Weight,
			Type:       codegraph.EdgeTypeCall,
			Undirected: false,
		})
	}

	return codegraph.GraphPayload{Nodes: nodes, Edges: edges}
}
