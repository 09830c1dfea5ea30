package cluster

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// noiseLabel marks points the density algorithm could not confidently assign.
const noiseLabel = -1

// edgeSeparationFactor scales the standard deviation when deciding which
// spanning-tree edges separate clusters.
const edgeSeparationFactor = 1.0

type mstEdge struct {
	a, b   int
	weight float64
}

// densityCluster assigns a cluster label to every point, with noiseLabel for
// outliers. The algorithm follows the HDBSCAN recipe: core distances at
// minSamples neighbors, mutual reachability distances, a minimum spanning
// tree, then removal of edges significantly longer than typical. Connected
// components smaller than minClusterSize become noise. Labels are assigned
// in order of each component's lowest point index, so output is
// deterministic for a given input order.
func densityCluster(points [][]float64, minClusterSize, minSamples int) ([]int, error) {
	n := len(points)
	if n == 0 {
		return nil, nil
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("point %d has dimension %d, want %d", i, len(p), dim)
		}
	}
	if minClusterSize < 2 {
		minClusterSize = 2
	}
	if minSamples < 1 {
		minSamples = 1
	}
	if n < minClusterSize {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = noiseLabel
		}
		return labels, nil
	}

	core := coreDistances(points, minSamples)
	tree := spanningTree(points, core)
	threshold := cutThreshold(tree)

	uf := newUnionFind(n)
	for _, e := range tree {
		if e.weight <= threshold {
			uf.union(e.a, e.b)
		}
	}

	return componentLabels(uf, n, minClusterSize), nil
}

// coreDistances returns, per point, the distance to its k-th nearest
// neighbor (k clamped to n-1).
func coreDistances(points [][]float64, k int) []float64 {
	n := len(points)
	if k > n-1 {
		k = n - 1
	}
	core := make([]float64, n)
	dists := make([]float64, 0, n-1)
	for i := range points {
		dists = dists[:0]
		for j := range points {
			if i == j {
				continue
			}
			dists = append(dists, floats.Distance(points[i], points[j], 2))
		}
		sort.Float64s(dists)
		core[i] = dists[k-1]
	}
	return core
}

// spanningTree builds a minimum spanning tree over the mutual reachability
// graph using Prim's algorithm on the dense distance matrix.
func spanningTree(points [][]float64, core []float64) []mstEdge {
	n := len(points)
	inTree := make([]bool, n)
	bestDist := make([]float64, n)
	bestFrom := make([]int, n)
	for i := range bestDist {
		bestDist[i] = inf()
		bestFrom[i] = -1
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[0] = true
	for len(edges) < n-1 {
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			d := mutualReachability(points, core, current, j)
			if d < bestDist[j] {
				bestDist[j] = d
				bestFrom[j] = current
			}
		}
		next := -1
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			if next == -1 || bestDist[j] < bestDist[next] {
				next = j
			}
		}
		edges = append(edges, mstEdge{a: bestFrom[next], b: next, weight: bestDist[next]})
		inTree[next] = true
		current = next
	}
	return edges
}

// mutualReachability is the max of both core distances and the pairwise
// distance. It smooths density differences so sparse regions do not chain
// dense clusters together.
func mutualReachability(points [][]float64, core []float64, i, j int) float64 {
	d := floats.Distance(points[i], points[j], 2)
	if core[i] > d {
		d = core[i]
	}
	if core[j] > d {
		d = core[j]
	}
	return d
}

// cutThreshold decides which tree edges separate clusters: edges longer than
// mean + edgeSeparationFactor*stddev of all tree edges are removed.
func cutThreshold(tree []mstEdge) float64 {
	if len(tree) == 0 {
		return 0
	}
	weights := make([]float64, len(tree))
	for i, e := range tree {
		weights[i] = e.weight
	}
	mean, std := stat.MeanStdDev(weights, nil)
	if len(weights) < 2 {
		return weights[0]
	}
	return mean + edgeSeparationFactor*std
}

// componentLabels maps union-find components to dense labels 0..k-1, in
// order of each component's lowest member index. Components below
// minClusterSize are labeled noise.
func componentLabels(uf *unionFind, n, minClusterSize int) []int {
	sizes := make(map[int]int, n)
	for i := 0; i < n; i++ {
		sizes[uf.find(i)]++
	}

	labels := make([]int, n)
	next := 0
	assigned := make(map[int]int, len(sizes))
	for i := 0; i < n; i++ {
		root := uf.find(i)
		if sizes[root] < minClusterSize {
			labels[i] = noiseLabel
			continue
		}
		id, ok := assigned[root]
		if !ok {
			id = next
			next++
			assigned[root] = id
		}
		labels[i] = id
	}
	return labels
}

func inf() float64 {
	return 1e308
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
