// Package factor defines the residual-producing units of a factor graph.
//
// What
//
//   - Factor is the single evaluation contract used by the problem assembler:
//     given the current values of the variables it reads, return the
//     residual vector and, on request, one Jacobian block per variable.
//   - CostFunction is the extension point for user code: a pure function over
//     dual numbers. AutoDiff turns any CostFunction into a Factor whose
//     Jacobian comes from one seeded dual evaluation.
//   - Built-in factors:
//   - Prior      r = x − target, identity Jacobian.
//   - BetweenSE2 planar relative-pose constraint, analytic Jacobian.
//   - BetweenSE3 spatial relative-pose constraint, automatic Jacobian.
//   - Whitened wraps any Factor with an information matrix Ω = UᵗU and
//     returns U·r and U·J.
//
// Variable layouts
//
//	SE2 poses are [theta, x, y]; SE3 poses are [qx, qy, qz, qw, tx, ty, tz].
//
// Errors
//
//	Wrong input count or length fails with ErrDimensionMismatch, a residual of
//	the wrong length also fails with ErrDimensionMismatch, and NaN/Inf output
//	fails with ErrNonFinite.
package factor
