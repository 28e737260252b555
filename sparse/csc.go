// SPDX-License-Identifier: MIT
// Package: sparse
//
// CSC storage and the matrix-vector kernels used to form and check normal
// equations.
//
// Layout:
//   - colPtr has cols+1 entries; column j occupies [colPtr[j], colPtr[j+1]).
//   - rowIdx is strictly increasing inside each column.
//   - val[k] is the value at (rowIdx[k], j).
//
// Ownership:
//   - A CSC is never mutated after construction. Derived matrices that keep
//     the same pattern share colPtr/rowIdx and own a fresh val slice.

package sparse

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CSC is a compressed sparse column matrix.
type CSC struct {
	rows, cols int
	colPtr     []int
	rowIdx     []int
	val        []float64
}

// NewCSC builds a matrix from raw CSC arrays after validating them.
// The slices are copied.
//
// Errors: ErrBadShape, ErrDimensionMismatch for inconsistent lengths,
// ErrOutOfRange or ErrPatternMismatch for unsorted/duplicate row indices.
func NewCSC(rows, cols int, colPtr, rowIdx []int, val []float64) (*CSC, error) {
	const op = "NewCSC"
	if rows < 0 || cols < 0 {
		return nil, sparseErrorf(op, ErrBadShape)
	}
	if len(colPtr) != cols+1 || len(rowIdx) != len(val) || colPtr[0] != 0 || colPtr[cols] != len(rowIdx) {
		return nil, sparseErrorf(op, ErrDimensionMismatch)
	}
	for j := 0; j < cols; j++ {
		if colPtr[j+1] < colPtr[j] {
			return nil, sparseErrorf(op, ErrDimensionMismatch)
		}
		for k := colPtr[j]; k < colPtr[j+1]; k++ {
			i := rowIdx[k]
			if i < 0 || i >= rows {
				return nil, sparseErrorf(op, ErrOutOfRange)
			}
			if k > colPtr[j] && rowIdx[k-1] >= i {
				return nil, sparseErrorf(op, ErrPatternMismatch)
			}
		}
	}

	return &CSC{
		rows:   rows,
		cols:   cols,
		colPtr: append([]int(nil), colPtr...),
		rowIdx: append([]int(nil), rowIdx...),
		val:    append([]float64(nil), val...),
	}, nil
}

// FromDense converts a gonum matrix, dropping exact zeros.
func FromDense(a mat.Matrix) *CSC {
	r, c := a.Dims()
	m := &CSC{rows: r, cols: c, colPtr: make([]int, c+1)}
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if v := a.At(i, j); v != 0 {
				m.rowIdx = append(m.rowIdx, i)
				m.val = append(m.val, v)
			}
		}
		m.colPtr[j+1] = len(m.rowIdx)
	}

	return m
}

// Identity returns the n×n identity.
func Identity(n int) *CSC {
	m := &CSC{rows: n, cols: n, colPtr: make([]int, n+1), rowIdx: make([]int, n), val: make([]float64, n)}
	for i := 0; i < n; i++ {
		m.colPtr[i+1] = i + 1
		m.rowIdx[i] = i
		m.val[i] = 1
	}

	return m
}

// Dims returns (rows, cols).
func (m *CSC) Dims() (int, int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *CSC) NNZ() int { return len(m.val) }

// ColPtr exposes the column pointer array. Callers must not modify it.
func (m *CSC) ColPtr() []int { return m.colPtr }

// RowIdx exposes the row index array. Callers must not modify it.
func (m *CSC) RowIdx() []int { return m.rowIdx }

// Values exposes the value array. Callers must not modify it.
func (m *CSC) Values() []float64 { return m.val }

// At returns element (i, j), zero when not stored.
func (m *CSC) At(i, j int) (float64, error) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return 0, sparseErrorf("At", ErrOutOfRange)
	}
	lo, hi := m.colPtr[j], m.colPtr[j+1]
	k := lo + sort.SearchInts(m.rowIdx[lo:hi], i)
	if k < hi && m.rowIdx[k] == i {
		return m.val[k], nil
	}

	return 0, nil
}

// ToDense materializes m as a gonum dense matrix.
func (m *CSC) ToDense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	for j := 0; j < m.cols; j++ {
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			d.Set(m.rowIdx[k], j, m.val[k])
		}
	}

	return d
}

// SamePattern reports whether m and o have identical shape and structure.
func (m *CSC) SamePattern(o *CSC) bool {
	if m == nil || o == nil || m.rows != o.rows || m.cols != o.cols || len(m.rowIdx) != len(o.rowIdx) {
		return false
	}
	for j, p := range m.colPtr {
		if o.colPtr[j] != p {
			return false
		}
	}
	for k, i := range m.rowIdx {
		if o.rowIdx[k] != i {
			return false
		}
	}

	return true
}

// withValues returns a matrix sharing m's pattern with the given values.
func (m *CSC) withValues(val []float64) *CSC {
	return &CSC{rows: m.rows, cols: m.cols, colPtr: m.colPtr, rowIdx: m.rowIdx, val: val}
}

// MulVec returns y = m·x.
func (m *CSC) MulVec(x []float64) ([]float64, error) {
	if err := ValidateVecLen(x, m.cols); err != nil {
		return nil, sparseErrorf("MulVec", err)
	}
	y := make([]float64, m.rows)
	for j := 0; j < m.cols; j++ {
		xj := x[j]
		if xj == 0 {
			continue
		}
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			y[m.rowIdx[k]] += m.val[k] * xj
		}
	}

	return y, nil
}

// MulTransVec returns y = mᵗ·x.
func (m *CSC) MulTransVec(x []float64) ([]float64, error) {
	if err := ValidateVecLen(x, m.rows); err != nil {
		return nil, sparseErrorf("MulTransVec", err)
	}
	y := make([]float64, m.cols)
	for j := 0; j < m.cols; j++ {
		s := 0.0
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			s += m.val[k] * x[m.rowIdx[k]]
		}
		y[j] = s
	}

	return y, nil
}

// Transpose returns mᵗ. Row indices of the result are sorted because
// columns of m are visited in increasing order.
func (m *CSC) Transpose() *CSC {
	t := &CSC{
		rows:   m.cols,
		cols:   m.rows,
		colPtr: make([]int, m.rows+1),
		rowIdx: make([]int, len(m.rowIdx)),
		val:    make([]float64, len(m.val)),
	}
	for _, i := range m.rowIdx {
		t.colPtr[i+1]++
	}
	for i := 0; i < m.rows; i++ {
		t.colPtr[i+1] += t.colPtr[i]
	}
	next := append([]int(nil), t.colPtr[:m.rows]...)
	for j := 0; j < m.cols; j++ {
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			i := m.rowIdx[k]
			p := next[i]
			next[i]++
			t.rowIdx[p] = j
			t.val[p] = m.val[k]
		}
	}

	return t
}

// AtA returns the full symmetric product mᵗ·m (both triangles stored).
//
// Implementation:
//   - Column j of mᵗm is Σ_i m(i,j)·row_i(m); rows of m are read from mᵗ.
//   - A marker array gathers the column pattern, which is sorted before
//     emission so the result is canonical.
//
// Complexity: O(Σ_j Σ_{i∈col j} nnz(row i)) time, O(cols) workspace.
func (m *CSC) AtA() *CSC {
	t := m.Transpose() // column i of t is row i of m
	n := m.cols
	out := &CSC{rows: n, cols: n, colPtr: make([]int, n+1)}
	acc := make([]float64, n)
	mark := make([]int, n)
	for i := range mark {
		mark[i] = -1
	}
	pattern := make([]int, 0, n)
	for j := 0; j < n; j++ {
		pattern = pattern[:0]
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			i, a := m.rowIdx[k], m.val[k]
			for q := t.colPtr[i]; q < t.colPtr[i+1]; q++ {
				c := t.rowIdx[q]
				if mark[c] != j {
					mark[c] = j
					acc[c] = 0
					pattern = append(pattern, c)
				}
				acc[c] += a * t.val[q]
			}
		}
		sort.Ints(pattern)
		for _, c := range pattern {
			out.rowIdx = append(out.rowIdx, c)
			out.val = append(out.val, acc[c])
		}
		out.colPtr[j+1] = len(out.rowIdx)
	}

	return out
}

// ColumnNorms returns the Euclidean norm of every column.
func (m *CSC) ColumnNorms() []float64 {
	norms := make([]float64, m.cols)
	for j := 0; j < m.cols; j++ {
		s := 0.0
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			s += m.val[k] * m.val[k]
		}
		norms[j] = sqrt(s)
	}

	return norms
}

// ScaleColumns returns m·diag(s).
func (m *CSC) ScaleColumns(s []float64) (*CSC, error) {
	if err := ValidateVecLen(s, m.cols); err != nil {
		return nil, sparseErrorf("ScaleColumns", err)
	}
	val := make([]float64, len(m.val))
	for j := 0; j < m.cols; j++ {
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			val[k] = m.val[k] * s[j]
		}
	}

	return m.withValues(val), nil
}

// Diagonal returns the main diagonal of a square matrix.
func (m *CSC) Diagonal() ([]float64, error) {
	if err := ValidateSquare(m); err != nil {
		return nil, sparseErrorf("Diagonal", err)
	}
	d := make([]float64, m.cols)
	for j := 0; j < m.cols; j++ {
		d[j], _ = m.At(j, j)
	}

	return d, nil
}

// AddDiagonal returns m + diag(d). Missing diagonal entries are inserted.
func (m *CSC) AddDiagonal(d []float64) (*CSC, error) {
	const op = "AddDiagonal"
	if err := ValidateSquare(m); err != nil {
		return nil, sparseErrorf(op, err)
	}
	if err := ValidateVecLen(d, m.cols); err != nil {
		return nil, sparseErrorf(op, err)
	}
	if m.hasFullDiagonal() {
		val := append([]float64(nil), m.val...)
		for j := 0; j < m.cols; j++ {
			lo, hi := m.colPtr[j], m.colPtr[j+1]
			val[lo+sort.SearchInts(m.rowIdx[lo:hi], j)] += d[j]
		}
		return m.withValues(val), nil
	}

	out := &CSC{rows: m.rows, cols: m.cols, colPtr: make([]int, m.cols+1)}
	for j := 0; j < m.cols; j++ {
		inserted := false
		for k := m.colPtr[j]; k < m.colPtr[j+1]; k++ {
			i, v := m.rowIdx[k], m.val[k]
			if !inserted && i >= j {
				if i == j {
					v += d[j]
				} else {
					out.rowIdx = append(out.rowIdx, j)
					out.val = append(out.val, d[j])
				}
				inserted = true
			}
			out.rowIdx = append(out.rowIdx, i)
			out.val = append(out.val, v)
		}
		if !inserted {
			out.rowIdx = append(out.rowIdx, j)
			out.val = append(out.val, d[j])
		}
		out.colPtr[j+1] = len(out.rowIdx)
	}

	return out, nil
}

func (m *CSC) hasFullDiagonal() bool {
	for j := 0; j < m.cols; j++ {
		lo, hi := m.colPtr[j], m.colPtr[j+1]
		k := lo + sort.SearchInts(m.rowIdx[lo:hi], j)
		if k >= hi || m.rowIdx[k] != j {
			return false
		}
	}

	return true
}
