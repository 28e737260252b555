// SPDX-License-Identifier: MIT
// Package: sparse
//
// Row-wise Givens QR for sparse least squares, min ‖A·x − b‖₂.
//
// Implementation:
//   - Columns are permuted by P (typically ColumnOrdering) so R = QᵗAP
//     stays sparse.
//   - The right-hand side travels as one extra trailing column of every
//     row, so Qᵗb is formed without storing Q.
//   - Rows are merged one at a time, ordered by their leading column. A row
//     whose leading column k has an empty R row becomes that row; otherwise
//     a Givens rotation between R(k,:) and the row annihilates the leading
//     entry and the loop continues with the shortened row.
//
// Rank policy:
//   - A column is deficient when R(k,k) is missing or
//     |R(k,k)| ≤ RankTolerance·max|R(i,i)|.
//   - Solution returns the basic solution: deficient components are zero
//     and the rest come from back substitution over the remaining pivots.
//     A rank-deficient system is therefore not an error here; callers
//     inspect Rank to decide.
//
// Complexity: O(Σ rotations × merged row length); memory O(nnz(R)).

package sparse

import (
	"math"
	"sort"
)

// RankTolerance is the relative diagonal threshold for rank detection.
const RankTolerance = 1e-10

// sparseRow is a row with strictly increasing column indices.
type sparseRow struct {
	idx []int
	val []float64
}

// QR is a completed least-squares factorization with its right-hand side.
type QR struct {
	a         *CSC
	b         []float64
	perm      Perm
	r         []sparseRow
	deficient []bool
	rank      int
}

// FactorQR factors A·P and applies the same rotations to b.
// A nil p selects the natural column order.
func FactorQR(a *CSC, b []float64, p Perm) (*QR, error) {
	const op = "QR"
	if err := ValidateNotNil(a); err != nil {
		return nil, sparseErrorf(op, err)
	}
	if err := ValidateVecLen(b, a.rows); err != nil {
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
	pinv := p.Inverse()

	// Gather rows of A·P, each sorted, with b as column n.
	t := a.Transpose()
	rows := make([]sparseRow, a.rows)
	for i := 0; i < a.rows; i++ {
		lo, hi := t.colPtr[i], t.colPtr[i+1]
		row := sparseRow{idx: make([]int, 0, hi-lo+1), val: make([]float64, 0, hi-lo+1)}
		for q := lo; q < hi; q++ {
			if t.val[q] != 0 {
				row.idx = append(row.idx, pinv[t.rowIdx[q]])
				row.val = append(row.val, t.val[q])
			}
		}
		sort.Sort(&row)
		if b[i] != 0 {
			row.idx = append(row.idx, n)
			row.val = append(row.val, b[i])
		}
		rows[i] = row
	}
	order := make([]int, a.rows)
	for i := range order {
		order[i] = i
	}
	lead := func(i int) int {
		if len(rows[i].idx) == 0 {
			return n + 1
		}
		return rows[i].idx[0]
	}
	sort.SliceStable(order, func(x, y int) bool { return lead(order[x]) < lead(order[y]) })

	r := make([]sparseRow, n)
	for _, i := range order {
		row := rows[i]
		for len(row.idx) > 0 && row.idx[0] < n {
			k := row.idx[0]
			if len(r[k].idx) == 0 {
				r[k] = row
				break
			}
			r[k], row = givens(r[k], row)
		}
	}

	qr := &QR{a: a, b: append([]float64(nil), b...), perm: append(Perm(nil), p...), r: r, deficient: make([]bool, n)}
	maxDiag := 0.0
	for k := 0; k < n; k++ {
		if d := qr.diag(k); math.Abs(d) > maxDiag {
			maxDiag = math.Abs(d)
		}
	}
	for k := 0; k < n; k++ {
		if d := qr.diag(k); d == 0 || math.Abs(d) <= RankTolerance*maxDiag {
			qr.deficient[k] = true
			continue
		}
		qr.rank++
	}

	return qr, nil
}

// diag returns R(k,k), zero when row k is empty.
func (q *QR) diag(k int) float64 {
	row := q.r[k]
	if len(row.idx) == 0 || row.idx[0] != k {
		return 0
	}

	return row.val[0]
}

// Rank returns the numerical rank of A.
func (q *QR) Rank() int { return q.rank }

// FullRank reports whether every column has a usable pivot.
func (q *QR) FullRank() bool { return q.rank == len(q.r) }

// Solution returns the basic least-squares solution in the original
// column order.
func (q *QR) Solution() []float64 {
	n := len(q.r)
	y := make([]float64, n)
	for k := n - 1; k >= 0; k-- {
		if q.deficient[k] {
			continue
		}
		row := q.r[k]
		s := 0.0
		for e := 1; e < len(row.idx); e++ {
			j := row.idx[e]
			if j == n {
				s += row.val[e]
				continue
			}
			s -= row.val[e] * y[j]
		}
		y[k] = s / row.val[0]
	}
	x := make([]float64, n)
	for k, old := range q.perm {
		x[old] = y[k]
	}

	return x
}

// ResidualNorm returns ‖A·x − b‖₂ for the basic solution.
func (q *QR) ResidualNorm() float64 {
	ax, _ := q.a.MulVec(q.Solution())
	for i := range ax {
		ax[i] -= q.b[i]
	}

	return nrm2(ax)
}

// R returns the triangular factor in permuted column order.
func (q *QR) R() *CSC {
	n := len(q.r)
	t, _ := NewTriplets(n, n, 0)
	for k, row := range q.r {
		for e, j := range row.idx {
			if j < n {
				_ = t.Append(k, j, row.val[e])
			}
		}
	}

	return t.ToCSC()
}

// SolveLeastSquares is FactorQR followed by Solution.
func SolveLeastSquares(a *CSC, b []float64, p Perm) ([]float64, int, error) {
	q, err := FactorQR(a, b, p)
	if err != nil {
		return nil, 0, err
	}

	return q.Solution(), q.Rank(), nil
}

// givens rotates (rk, row) so that row's leading entry (column k, shared with
// rk's diagonal) vanishes, returning the updated pair. Exact zeros produced
// in row are dropped.
func givens(rk, row sparseRow) (sparseRow, sparseRow) {
	a, b := rk.val[0], row.val[0]
	h := math.Hypot(a, b)
	c, s := a/h, b/h

	n := len(rk.idx) + len(row.idx)
	outR := sparseRow{idx: make([]int, 0, n), val: make([]float64, 0, n)}
	outRow := sparseRow{idx: make([]int, 0, n), val: make([]float64, 0, n)}
	x, y := 0, 0
	first := true
	for x < len(rk.idx) || y < len(row.idx) {
		var col int
		var u, v float64
		switch {
		case y >= len(row.idx) || (x < len(rk.idx) && rk.idx[x] < row.idx[y]):
			col, u = rk.idx[x], rk.val[x]
			x++
		case x >= len(rk.idx) || row.idx[y] < rk.idx[x]:
			col, v = row.idx[y], row.val[y]
			y++
		default:
			col, u, v = rk.idx[x], rk.val[x], row.val[y]
			x++
			y++
		}
		outR.idx = append(outR.idx, col)
		if first {
			outR.val = append(outR.val, h)
			first = false
			continue
		}
		outR.val = append(outR.val, c*u+s*v)
		if w := -s*u + c*v; w != 0 {
			outRow.idx = append(outRow.idx, col)
			outRow.val = append(outRow.val, w)
		}
	}

	return outR, outRow
}

// sort.Interface over the parallel slices of a row.
func (r *sparseRow) Len() int           { return len(r.idx) }
func (r *sparseRow) Less(a, b int) bool { return r.idx[a] < r.idx[b] }
func (r *sparseRow) Swap(a, b int) {
	r.idx[a], r.idx[b] = r.idx[b], r.idx[a]
	r.val[a], r.val[b] = r.val[b], r.val[a]
}
