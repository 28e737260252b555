// SPDX-License-Identifier: MIT

// Package dual implements forward-mode automatic differentiation with
// dual numbers that carry a whole derivative vector.
//
// What
//
//   - Number pairs a real value Re with a derivative vector Eps of fixed
//     width (one slot per active differentiation direction).
//   - Arithmetic (Add, Sub, Mul, Div, ...) and elementary functions
//     (Sin, Cos, Sqrt, Atan2, ...) propagate Eps through the exact chain rule.
//   - Seed and Jacobian turn a function f: Rⁿ → Rᵐ written over Number into
//     its value and full m×n Jacobian in a single pass.
//
// Width rules
//
//	A Number with an empty Eps is a constant and mixes with any width.
//	Two non-constant operands must share the same width; mixing widths is a
//	programmer error and panics with ErrWidthMismatch.
//
// Determinism
//
//	All operations are pure value functions. Operands are never mutated and
//	every result owns a freshly allocated Eps slice.
//
// Complexity
//
//   - Every binary operation is O(width) time and memory.
//   - A Jacobian of f: Rⁿ → Rᵐ costs one evaluation of f at width n.
//
// Errors
//
//   - ErrWidthMismatch: the panic value when two non-constant operands have
//     different widths. problem.Evaluate recovers it and reports a
//     dimension mismatch.
//   - ErrBadSeed: the panic value of Variable when the seed direction lies
//     outside the derivative width.
//
// Example
//
//	f := func(v dual.Vector) dual.Vector {
//		return dual.Vector{dual.Mul(v[0], dual.Sin(v[1]))}
//	}
//	val, jac := dual.Jacobian(f, []float64{2, 0})
//	// val = [0], jac = [[0 2]]
package dual
