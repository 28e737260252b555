// SPDX-License-Identifier: MIT
// Package: sparse
//
// Shared argument checks. Each validator returns a tagged sentinel so call
// sites can wrap uniformly.

package sparse

import "math"

// ValidateNotNil ensures m is non-nil.
func ValidateNotNil(m *CSC) error {
	if m == nil {
		return sparseErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSquare ensures m is non-nil and square.
func ValidateSquare(m *CSC) error {
	if err := ValidateNotNil(m); err != nil {
		return err
	}
	if m.rows != m.cols {
		return sparseErrorf("ValidateSquare", ErrNonSquare)
	}

	return nil
}

// ValidateVecLen ensures len(x) == n.
func ValidateVecLen(x []float64, n int) error {
	if len(x) != n {
		return sparseErrorf("ValidateVecLen", ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite ensures every entry of x is finite.
func ValidateFinite(x []float64) error {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return sparseErrorf("ValidateFinite", ErrNaNInf)
		}
	}

	return nil
}
