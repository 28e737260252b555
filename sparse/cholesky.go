// SPDX-License-Identifier: MIT
// Package: sparse
//
// Sparse Cholesky factorization PᵗAP = LLᵗ.
//
// Implementation:
//   - Symbolic phase (AnalyzeCholesky): permute to the upper triangle of
//     C = PᵗAP, compute the elimination tree, then the exact column counts
//     of L by walking every row's reach in the tree.
//   - Numeric phase (Factor): up-looking algorithm. Row k of L is a sparse
//     triangular solve whose pattern is the tree reach of C(:,k); the
//     diagonal is √(c_kk − ‖L(k,:k)‖²).
//   - The symbolic result depends only on the pattern and is reused across
//     every numeric factorization with that pattern.
//
// Errors:
//   - ErrNotPositiveDefinite when a pivot is not safely positive, i.e.
//     d ≤ PivotTolerance·c_kk (this also catches exact rank deficiency that
//     rounding turns into a tiny positive pivot).
//   - ErrPatternMismatch when Factor receives a matrix of another structure.
//
// Complexity: symbolic O(nnz(L)); numeric O(Σ_k nnz(L(:,k))²).

package sparse

import "math"

// PivotTolerance is the pivot threshold of Factor, relative to the diagonal
// entry c_kk of the column being eliminated.
const PivotTolerance = 1e-12

// SymbolicCholesky is the reusable, value-independent part of a Cholesky
// factorization.
type SymbolicCholesky struct {
	n       int
	perm    Perm
	pinv    Perm
	parent  []int
	colPtr  []int
	pattern *CSC
}

// AnalyzeCholesky computes the symbolic factorization of PᵗAP. A nil p
// selects the natural ordering.
func AnalyzeCholesky(a *CSC, p Perm) (*SymbolicCholesky, error) {
	const op = "AnalyzeCholesky"
	if err := ValidateSquare(a); err != nil {
		return nil, sparseErrorf(op, err)
	}
	n := a.cols
	if p == nil {
		p = IdentityPerm(n)
	}
	if len(p) != n {
		return nil, sparseErrorf(op, ErrDimensionMismatch)
	}
	if err := p.Validate(); err != nil {
		return nil, sparseErrorf(op, err)
	}
	c, err := PermuteSymmetric(a, p)
	if err != nil {
		return nil, sparseErrorf(op, err)
	}

	parent := etree(c)
	counts := make([]int, n)
	stack := make([]int, n)
	mark := newStamp(n)
	for k := 0; k < n; k++ {
		top := ereach(c, k, parent, stack, mark)
		for _, i := range stack[top:] {
			counts[i]++
		}
		counts[k]++
	}
	colPtr := make([]int, n+1)
	for k := 0; k < n; k++ {
		colPtr[k+1] = colPtr[k] + counts[k]
	}

	return &SymbolicCholesky{
		n:       n,
		perm:    append(Perm(nil), p...),
		pinv:    p.Inverse(),
		parent:  parent,
		colPtr:  colPtr,
		pattern: a.withValues(nil),
	}, nil
}

// Size returns the matrix order.
func (s *SymbolicCholesky) Size() int { return s.n }

// NNZ returns the number of entries of L.
func (s *SymbolicCholesky) NNZ() int { return s.colPtr[s.n] }

// Perm returns the fill-reducing permutation (p[new] = old).
func (s *SymbolicCholesky) Perm() Perm { return s.perm }

// Parent returns the elimination tree (−1 marks a root).
func (s *SymbolicCholesky) Parent() []int { return s.parent }

// Matches reports whether a has the analysed pattern.
func (s *SymbolicCholesky) Matches(a *CSC) bool { return s.pattern.SamePattern(a) }

// Cholesky holds the numeric factor L of PᵗAP = LLᵗ.
type Cholesky struct {
	sym *SymbolicCholesky
	li  []int
	lx  []float64
}

// Factor computes the numeric factorization of a, which must have the
// analysed pattern.
func (s *SymbolicCholesky) Factor(a *CSC) (*Cholesky, error) {
	const op = "Cholesky"
	if !s.Matches(a) {
		return nil, sparseErrorf(op, ErrPatternMismatch)
	}
	c, err := PermuteSymmetric(a, s.perm)
	if err != nil {
		return nil, sparseErrorf(op, err)
	}

	n := s.n
	lp := s.colPtr
	li := make([]int, lp[n])
	lx := make([]float64, lp[n])
	next := append([]int(nil), lp[:n]...)
	x := make([]float64, n)
	stack := make([]int, n)
	mark := newStamp(n)

	for k := 0; k < n; k++ {
		top := ereach(c, k, s.parent, stack, mark)
		x[k] = 0
		for p := c.colPtr[k]; p < c.colPtr[k+1]; p++ {
			if i := c.rowIdx[p]; i <= k {
				x[i] = c.val[p]
			}
		}
		d := x[k]
		ckk := d
		x[k] = 0
		for ; top < n; top++ {
			i := stack[top]
			lki := x[i] / lx[lp[i]] // L(k,i) = x(i) / L(i,i)
			x[i] = 0
			for p := lp[i] + 1; p < next[i]; p++ {
				x[li[p]] -= lx[p] * lki
			}
			d -= lki * lki
			p := next[i]
			next[i]++
			li[p] = k
			lx[p] = lki
		}
		if !(d > 0) || d <= PivotTolerance*math.Abs(ckk) {
			return nil, sparseErrorf(op, ErrNotPositiveDefinite)
		}
		p := next[k]
		next[k]++
		li[p] = k
		lx[p] = math.Sqrt(d)
	}

	return &Cholesky{sym: s, li: li, lx: lx}, nil
}

// L returns the factor as a lower-triangular CSC matrix (permuted order).
func (f *Cholesky) L() *CSC {
	n := f.sym.n
	return &CSC{rows: n, cols: n, colPtr: f.sym.colPtr, rowIdx: f.li, val: f.lx}
}

// Solve returns x with A·x = b.
func (f *Cholesky) Solve(b []float64) ([]float64, error) {
	n := f.sym.n
	if err := ValidateVecLen(b, n); err != nil {
		return nil, sparseErrorf("Solve", err)
	}
	lp, li, lx := f.sym.colPtr, f.li, f.lx
	y := make([]float64, n)
	for i, old := range f.sym.perm {
		y[i] = b[old]
	}
	// L·z = y
	for j := 0; j < n; j++ {
		y[j] /= lx[lp[j]]
		for p := lp[j] + 1; p < lp[j+1]; p++ {
			y[li[p]] -= lx[p] * y[j]
		}
	}
	// Lᵗ·w = z
	for j := n - 1; j >= 0; j-- {
		for p := lp[j] + 1; p < lp[j+1]; p++ {
			y[j] -= lx[p] * y[li[p]]
		}
		y[j] /= lx[lp[j]]
	}
	x := make([]float64, n)
	for i, old := range f.sym.perm {
		x[old] = y[i]
	}

	return x, nil
}

// etree returns the elimination tree of the upper-triangular pattern c.
func etree(c *CSC) []int {
	n := c.cols
	parent := make([]int, n)
	ancestor := make([]int, n)
	for k := 0; k < n; k++ {
		parent[k] = -1
		ancestor[k] = -1
		for p := c.colPtr[k]; p < c.colPtr[k+1]; p++ {
			i := c.rowIdx[p]
			for i != -1 && i < k {
				inext := ancestor[i]
				ancestor[i] = k // path compression
				if inext == -1 {
					parent[i] = k
				}
				i = inext
			}
		}
	}

	return parent
}

// stamp marks visited nodes per step without clearing between steps.
type stamp []int

func newStamp(n int) stamp {
	s := make(stamp, n)
	for i := range s {
		s[i] = -1
	}

	return s
}

// ereach writes the pattern of row k of L into s[top:] in topological
// order and returns top.
func ereach(c *CSC, k int, parent []int, s []int, mark stamp) int {
	n := c.cols
	top := n
	mark[k] = k
	for p := c.colPtr[k]; p < c.colPtr[k+1]; p++ {
		i := c.rowIdx[p]
		if i > k {
			continue
		}
		depth := 0
		for i != -1 && mark[i] != k {
			s[depth] = i
			depth++
			mark[i] = k
			i = parent[i]
		}
		for depth > 0 {
			top--
			depth--
			s[top] = s[depth]
		}
	}

	return top
}
