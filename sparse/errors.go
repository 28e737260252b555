// SPDX-License-Identifier: MIT
// Package sparse: sentinel error set.
// All kernels return these sentinels (possibly wrapped with an operation
// tag); tests match them with errors.Is.

package sparse

import (
	"errors"
	"fmt"
)

var (
	// ErrBadShape is returned for non-positive dimensions.
	ErrBadShape = errors.New("sparse: invalid shape")

	// ErrOutOfRange indicates a row or column index outside the matrix.
	ErrOutOfRange = errors.New("sparse: index out of range")

	// ErrDimensionMismatch indicates incompatible operand sizes.
	ErrDimensionMismatch = errors.New("sparse: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required.
	ErrNonSquare = errors.New("sparse: matrix is not square")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("sparse: NaN or Inf encountered")

	// ErrNilMatrix indicates a nil matrix argument.
	ErrNilMatrix = errors.New("sparse: nil matrix")

	// ErrPatternMismatch is returned when a cached symbolic analysis or
	// assembly plan is used with a matrix of a different sparsity pattern.
	ErrPatternMismatch = errors.New("sparse: sparsity pattern mismatch")

	// ErrNotPositiveDefinite is returned by Cholesky on a non-positive pivot.
	ErrNotPositiveDefinite = errors.New("sparse: matrix is not positive definite")

	// ErrBadPermutation is returned for a slice that is not a permutation.
	ErrBadPermutation = errors.New("sparse: invalid permutation")
)

// sparseErrorf tags err with the failing operation.
func sparseErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
