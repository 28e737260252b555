// SPDX-License-Identifier: MIT

// Package sparse provides compressed sparse column (CSC) matrices and the
// direct solvers needed by Gauss-Newton style optimizers.
//
// What
//
//   - CSC: immutable column-compressed storage with sorted, duplicate-free
//     row indices per column.
//   - Triplets / Assembly: coordinate-format builder plus a compiled
//     scatter plan, so matrices with a fixed pattern are refilled without
//     re-sorting.
//   - MulVec, MulTransVec, Transpose, AtA, column scaling and diagonal
//     updates for forming normal equations.
//   - MinimumDegree: deterministic fill-reducing ordering of a symmetric
//     pattern; ColumnOrdering applies it to the pattern of AᵗA.
//   - SymbolicCholesky / Cholesky: elimination tree, column counts and an
//     up-looking numeric LLᵗ factorization of PᵗAP.
//   - QR: row-wise Givens least-squares factorization of AP with rank
//     detection.
//
// Determinism
//
//	No map iteration order, goroutine scheduling or randomness influences
//	any result: identical inputs give bit-identical outputs.
//
// Complexity
//
//   - MulVec, MulTransVec, ScaleColumns: O(nnz).
//   - AtA: O(Σ_j nnz(col j)²) time, O(nnz(AᵗA)) space.
//   - MinimumDegree: O(n·(n + nnz)) worst case with a binary heap of degrees.
//   - AnalyzeCholesky: O(nnz(L)) after the elimination tree is built.
//   - Factor: O(Σ_k nnz(L(:,k))²); Solve: O(nnz(L)).
//   - FactorQR: O(m·w²) where w is the widest row of R touched by a rotation.
//
// Errors
//
//	Sentinel errors live in errors.go and are wrapped with the failing
//	operation's tag ("Cholesky: sparse: matrix is not positive definite").
//	Match them with errors.Is.
//
//	  - ErrBadShape, ErrOutOfRange, ErrDimensionMismatch, ErrNonSquare:
//	    malformed inputs.
//	  - ErrNaNInf: a non-finite value reached a kernel.
//	  - ErrPatternMismatch: a cached analysis met a different pattern.
//	  - ErrNotPositiveDefinite: a Cholesky pivot d satisfied
//	    d ≤ PivotTolerance·|c_kk|, where c_kk is the column's own diagonal.
//	  - ErrBadPermutation: an ordering was not a permutation of 0..n-1.
//
// Example
//
//	t, _ := sparse.NewTriplets(2, 2, 3)
//	_ = t.Append(0, 0, 4)
//	_ = t.Append(1, 0, 1)
//	_ = t.Append(1, 1, 3)
//	a := t.ToCSC()
//	p, _ := sparse.MinimumDegree(a)
//	sym, _ := sparse.AnalyzeCholesky(a, p)
//	f, err := sym.Factor(a)
//	if err != nil {
//		return err
//	}
//	x, _ := f.Solve([]float64{1, 2})
package sparse
