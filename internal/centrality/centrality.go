// Package centrality ranks files by PageRank over the resolved local
// dependency graph. The algorithm originally ran over a flat repository
// map's dependency edges to rank files for token-budget selection; here
// it ranks files for the narrative synthesizer's "most central" hotspot
// instead.
package centrality

import (
	"math"
	"sort"

	"github.com/phobologic/codemap/internal/depgraph"
)

const (
	dampingFactor  = 0.85
	maxIterations  = 100
	convergenceTol = 1e-6
)

// FileRank pairs a file path with its PageRank score.
type FileRank struct {
	Path string
	Rank float64
}

// Rank computes PageRank over the local dependency edges, treating an edge
// source->target as source citing (and so conferring rank on) target.
// allPaths must include every file considered, even ones with no edges, so
// their uniform share of rank is accounted for. Returns ranks sorted
// descending, ties broken by path.
func Rank(allPaths []string, edges []depgraph.Edge) []FileRank {
	if len(allPaths) == 0 {
		return nil
	}

	nodes := make(map[string]struct{}, len(allPaths))
	for _, p := range allPaths {
		nodes[p] = struct{}{}
	}

	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	for _, e := range edges {
		if _, ok := nodes[e.Source]; !ok {
			continue
		}
		if _, ok := nodes[e.Target]; !ok {
			continue
		}
		outEdges[e.Source] = append(outEdges[e.Source], e.Target)
		outDegree[e.Source]++
	}

	ranks := pageRank(nodes, outEdges, outDegree, dampingFactor, maxIterations, convergenceTol)

	out := make([]FileRank, 0, len(allPaths))
	for _, p := range allPaths {
		out = append(out, FileRank{Path: p, Rank: ranks[p]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank
		if diff < tol {
			break
		}
	}

	return rank
}
