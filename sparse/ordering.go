// SPDX-License-Identifier: MIT
// Package: sparse
//
// Fill-reducing orderings.
//
// MinimumDegree eliminates, at every step, the vertex of least current
// degree in the symmetric adjacency graph (ties broken by smallest index),
// then joins its remaining neighbours into a clique. This is the classic
// explicit-graph algorithm: no supervariables or approximate degrees, which
// keeps it short and fully deterministic at the price of speed on very large
// graphs.

package sparse

import (
	"container/heap"
	"sort"
)

// Perm is a permutation: p[new] = old.
type Perm []int

// IdentityPerm returns 0, 1, …, n−1.
func IdentityPerm(n int) Perm {
	p := make(Perm, n)
	for i := range p {
		p[i] = i
	}

	return p
}

// Inverse returns q with q[old] = new.
func (p Perm) Inverse() Perm {
	q := make(Perm, len(p))
	for newIdx, oldIdx := range p {
		q[oldIdx] = newIdx
	}

	return q
}

// Validate checks that p is a permutation of 0…len(p)−1.
func (p Perm) Validate() error {
	seen := make([]bool, len(p))
	for _, v := range p {
		if v < 0 || v >= len(p) || seen[v] {
			return sparseErrorf("Perm", ErrBadPermutation)
		}
		seen[v] = true
	}

	return nil
}

// degreeItem is a heap entry; stale entries are skipped on pop.
type degreeItem struct {
	degree, node int
}

type degreeHeap []degreeItem

func (h degreeHeap) Len() int { return len(h) }
func (h degreeHeap) Less(a, b int) bool {
	if h[a].degree != h[b].degree {
		return h[a].degree < h[b].degree
	}
	return h[a].node < h[b].node
}
func (h degreeHeap) Swap(a, b int) { h[a], h[b] = h[b], h[a] }
func (h *degreeHeap) Push(x any)   { *h = append(*h, x.(degreeItem)) }
func (h *degreeHeap) Pop() any {
	old := *h
	it := old[len(old)-1]
	*h = old[:len(old)-1]
	return it
}

// MinimumDegree orders the symmetric pattern of a square matrix.
// Only the structure is read; the diagonal is ignored. Both triangles
// should be stored (as AtA produces); an upper-only pattern is symmetrized.
//
// Complexity: O(Σ_v d(v)²) with d(v) the degree of v at elimination.
func MinimumDegree(a *CSC) (Perm, error) {
	if err := ValidateSquare(a); err != nil {
		return nil, sparseErrorf("MinimumDegree", err)
	}
	n := a.cols
	adj := make([]map[int]struct{}, n)
	for v := range adj {
		adj[v] = make(map[int]struct{})
	}
	for j := 0; j < n; j++ {
		for k := a.colPtr[j]; k < a.colPtr[j+1]; k++ {
			if i := a.rowIdx[k]; i != j {
				adj[i][j] = struct{}{}
				adj[j][i] = struct{}{}
			}
		}
	}

	h := make(degreeHeap, 0, n)
	for v := 0; v < n; v++ {
		h = append(h, degreeItem{degree: len(adj[v]), node: v})
	}
	heap.Init(&h)

	eliminated := make([]bool, n)
	perm := make(Perm, 0, n)
	nbrs := make([]int, 0)
	for len(perm) < n {
		it := heap.Pop(&h).(degreeItem)
		v := it.node
		if eliminated[v] || it.degree != len(adj[v]) {
			continue
		}
		eliminated[v] = true
		perm = append(perm, v)

		nbrs = nbrs[:0]
		for u := range adj[v] {
			nbrs = append(nbrs, u)
		}
		sort.Ints(nbrs)
		for _, u := range nbrs {
			delete(adj[u], v)
		}
		for x, u := range nbrs {
			for _, w := range nbrs[x+1:] {
				adj[u][w] = struct{}{}
				adj[w][u] = struct{}{}
			}
		}
		for _, u := range nbrs {
			heap.Push(&h, degreeItem{degree: len(adj[u]), node: u})
		}
		adj[v] = nil
	}

	return perm, nil
}

// ColumnOrdering returns a fill-reducing column ordering for least squares
// on a: minimum degree on the pattern of aᵗa.
func ColumnOrdering(a *CSC) (Perm, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, sparseErrorf("ColumnOrdering", err)
	}

	return MinimumDegree(a.AtA())
}

// PermuteSymmetric returns C = PᵗAP restricted to its upper triangle, with
// p[new] = old. Only the upper triangle of a is read, so a may be stored
// full or upper-only. Row indices in each column of C are sorted.
func PermuteSymmetric(a *CSC, p Perm) (*CSC, error) {
	const op = "PermuteSymmetric"
	if err := ValidateSquare(a); err != nil {
		return nil, sparseErrorf(op, err)
	}
	if len(p) != a.cols {
		return nil, sparseErrorf(op, ErrDimensionMismatch)
	}
	pinv := p.Inverse()
	t, err := NewTriplets(a.rows, a.cols, a.NNZ())
	if err != nil {
		return nil, sparseErrorf(op, err)
	}
	for j := 0; j < a.cols; j++ {
		for k := a.colPtr[j]; k < a.colPtr[j+1]; k++ {
			i := a.rowIdx[k]
			if i > j {
				continue
			}
			ni, nj := pinv[i], pinv[j]
			if ni > nj {
				ni, nj = nj, ni
			}
			_ = t.Append(ni, nj, a.val[k])
		}
	}

	return t.ToCSC(), nil
}

// PermuteColumns returns A·P (column new of the result is column p[new] of a).
func PermuteColumns(a *CSC, p Perm) (*CSC, error) {
	if len(p) != a.cols {
		return nil, sparseErrorf("PermuteColumns", ErrDimensionMismatch)
	}
	out := &CSC{rows: a.rows, cols: a.cols, colPtr: make([]int, a.cols+1)}
	for newJ, oldJ := range p {
		lo, hi := a.colPtr[oldJ], a.colPtr[oldJ+1]
		out.rowIdx = append(out.rowIdx, a.rowIdx[lo:hi]...)
		out.val = append(out.val, a.val[lo:hi]...)
		out.colPtr[newJ+1] = len(out.rowIdx)
	}

	return out, nil
}
