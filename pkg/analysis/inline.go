package analysis

import (
	"sort"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

// Inline computes degree/betweenness centrality, label-propagation
// communities, greedy maximal cliques, and k-core peeling directly on
// the payload, without any external collaborator. This is the one
// component of the module built on the standard library alone — see
// DESIGN.md for why no pack library could serve it.
func Inline(payload codegraph.GraphPayload, opts Options) codegraph.GraphPayload {
	adjacency := buildAdjacency(payload)

	nodeByID := make(map[string]*codegraph.GraphNode, len(payload.Nodes))
	nodes := make([]codegraph.GraphNode, len(payload.Nodes))
	copy(nodes, payload.Nodes)
	for i := range nodes {
		if nodes[i].Centrality == nil {
			nodes[i].Centrality = map[string]float64{}
		}
		nodeByID[nodes[i].FnID] = &nodes[i]
	}

	if opts.Centralities {
		degree := degreeCentrality(adjacency)
		betweenness := betweennessCentrality(adjacency)
		for id, n := range nodeByID {
			n.Centrality["degree"] = degree[id]
			n.Centrality["betweenness"] = betweenness[id]
		}
	}

	if opts.Communities {
		communities := labelPropagation(adjacency)
		for id, n := range nodeByID {
			n.Community = communities[id]
		}
	}

	if opts.Cliques {
		cliqueOf := greedyMaximalCliques(adjacency)
		for id, n := range nodeByID {
			n.Centrality["clique"] = float64(cliqueOf[id])
		}
	}

	core := kCoreNumbers(adjacency)
	for id, n := range nodeByID {
		n.CoreNumber = core[id]
	}

	return codegraph.GraphPayload{Nodes: nodes, Edges: payload.Edges}
}

// adjacency is undirected for analysis purposes: both call and
// similarity edges contribute an edge between their endpoints.
func buildAdjacency(payload codegraph.GraphPayload) map[string]map[string]bool {
	adj := make(map[string]map[string]bool, len(payload.Nodes))
	for _, n := range payload.Nodes {
		adj[n.FnID] = make(map[string]bool)
	}
	for _, e := range payload.Edges {
		if _, ok := adj[e.Source]; !ok {
			adj[e.Source] = make(map[string]bool)
		}
		if _, ok := adj[e.Target]; !ok {
			adj[e.Target] = make(map[string]bool)
		}
		adj[e.Source][e.Target] = true
		adj[e.Target][e.Source] = true
	}
	return adj
}

func degreeCentrality(adj map[string]map[string]bool) map[string]float64 {
	n := len(adj)
	out := make(map[string]float64, n)
	for id, neighbors := range adj {
		if n <= 1 {
			out[id] = 0
			continue
		}
		out[id] = float64(len(neighbors)) / float64(n-1)
	}
	return out
}

// betweennessCentrality is Brandes' algorithm on an unweighted graph:
// for every source, BFS to find shortest-path counts and dependency
// accumulation, summed across all sources. Normalized by the number
// of ordered pairs excluding the node itself.
func betweennessCentrality(adj map[string]map[string]bool) map[string]float64 {
	betweenness := make(map[string]float64, len(adj))
	ids := make([]string, 0, len(adj))
	for id := range adj {
		betweenness[id] = 0
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic iteration order

	for _, s := range ids {
		stack := make([]string, 0, len(adj))
		pred := make(map[string][]string, len(adj))
		sigma := make(map[string]float64, len(adj))
		dist := make(map[string]int, len(adj))
		for _, v := range ids {
			sigma[v] = 0
			dist[v] = -1
			pred[v] = nil
		}
		sigma[s] = 1
		dist[s] = 0
		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			neighbors := sortedKeys(adj[v])
			for _, w := range neighbors {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}
		delta := make(map[string]float64, len(adj))
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != s {
				betweenness[w] += delta[w]
			}
		}
	}

	n := len(ids)
	if n > 2 {
		norm := float64((n - 1) * (n - 2))
		for id := range betweenness {
			betweenness[id] /= norm
		}
	}
	return betweenness
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// labelPropagation assigns each node the most frequent label among
// its neighbors, iterating in deterministic (sorted) node order until
// stable or a bounded number of rounds elapses.
func labelPropagation(adj map[string]map[string]bool) map[string]int {
	ids := sortedKeys(toBoolMap(adj))
	label := make(map[string]int, len(ids))
	for i, id := range ids {
		label[id] = i
	}

	const maxRounds = 20
	for round := 0; round < maxRounds; round++ {
		changed := false
		for _, id := range ids {
			counts := make(map[int]int)
			for _, nb := range sortedKeys(adj[id]) {
				counts[label[nb]]++
			}
			if len(counts) == 0 {
				continue
			}
			best, bestCount := label[id], -1
			labels := make([]int, 0, len(counts))
			for l := range counts {
				labels = append(labels, l)
			}
			sort.Ints(labels)
			for _, l := range labels {
				if counts[l] > bestCount {
					best, bestCount = l, counts[l]
				}
			}
			if best != label[id] {
				label[id] = best
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// Renumber labels to small dense ints in deterministic order.
	seen := make(map[int]int)
	next := 0
	out := make(map[string]int, len(ids))
	for _, id := range ids {
		l := label[id]
		if _, ok := seen[l]; !ok {
			seen[l] = next
			next++
		}
		out[id] = seen[l]
	}
	return out
}

func toBoolMap(adj map[string]map[string]bool) map[string]bool {
	out := make(map[string]bool, len(adj))
	for k := range adj {
		out[k] = true
	}
	return out
}

// greedyMaximalCliques assigns every node a clique index via a greedy
// maximal-clique expansion: visit nodes in sorted order, grow a clique
// from each unassigned node by adding, in sorted id order, every
// unassigned neighbor that is adjacent to every current clique member.
func greedyMaximalCliques(adj map[string]map[string]bool) map[string]int {
	ids := sortedKeys(toBoolMap(adj))
	assigned := make(map[string]bool, len(ids))
	cliqueOf := make(map[string]int, len(ids))
	cliqueIdx := 0

	for _, start := range ids {
		if assigned[start] {
			continue
		}
		clique := []string{start}
		assigned[start] = true
		candidates := sortedKeys(adj[start])
		for _, cand := range candidates {
			if assigned[cand] {
				continue
			}
			inAll := true
			for _, member := range clique {
				if !adj[member][cand] {
					inAll = false
					break
				}
			}
			if inAll {
				clique = append(clique, cand)
				assigned[cand] = true
			}
		}
		for _, m := range clique {
			cliqueOf[m] = cliqueIdx
		}
		cliqueIdx++
	}
	return cliqueOf
}

// kCoreNumbers computes the degeneracy (core number) of every node via
// repeated peeling of the minimum-degree remaining node.
func kCoreNumbers(adj map[string]map[string]bool) map[string]int {
	degree := make(map[string]int, len(adj))
	remaining := make(map[string]map[string]bool, len(adj))
	for id, neighbors := range adj {
		degree[id] = len(neighbors)
		cp := make(map[string]bool, len(neighbors))
		for n := range neighbors {
			cp[n] = true
		}
		remaining[id] = cp
	}

	core := make(map[string]int, len(adj))
	alive := make(map[string]bool, len(adj))
	for id := range adj {
		alive[id] = true
	}

	k := 0
	for len(alive) > 0 {
		// find min-degree node among alive, deterministic tie-break by id
		var minID string
		minDeg := -1
		ids := sortedKeys(alive)
		for _, id := range ids {
			d := degree[id]
			if minDeg == -1 || d < minDeg {
				minDeg = d
				minID = id
			}
		}
		if minDeg > k {
			k = minDeg
		}
		core[minID] = k
		delete(alive, minID)
		for n := range remaining[minID] {
			if alive[n] {
				degree[n]--
				delete(remaining[n], minID)
			}
		}
	}
	return core
}
