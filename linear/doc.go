// Package linear solves the Gauss-Newton normal equations JᵗJ·δ = −Jᵗr
// on top of the sparse kernels.
//
// Two solvers are provided:
//
//	– SparseCholesky: forms H = JᵗJ, orders it by minimum degree and factors
//	  PᵗHP = LLᵗ. The ordering and the symbolic factorization depend only on
//	  the sparsity pattern and are cached for the lifetime of the solver, so
//	  every iteration of one solve pays only for the numeric factorization.
//	  A non-positive pivot means the problem is not observable (a variable is
//	  unanchored) and surfaces as ErrSingularSystem.
//	– SparseQR: factors J itself with Givens rotations and never forms JᵗJ,
//	  which squares the condition number. The column ordering is cached.
//	  A rank-deficient J is not an error: the solver returns the basic
//	  least-squares solution, with unresolvable directions set to zero, and
//	  reports the detected rank through LastRank.
//
// Solvers are not safe for concurrent use; create one per solve.
//
// Example:
//
//	s, _ := linear.New(linear.SparseCholesky)
//	delta, err := s.Solve(jacobian, residual)
package linear
