// SPDX-License-Identifier: MIT
// Package: sparse
//
// Coordinate-format assembly.
//
// Triplets collects (i, j, v) entries in any order; ToCSC sums duplicates.
// Compile turns the same entry list into an Assembly: a fixed CSC pattern
// plus a slot per entry, so a matrix with an unchanged structure is rebuilt
// from a fresh value list in O(nnz) with no sorting.

package sparse

import "sort"

// Triplets is a coordinate-format matrix builder.
type Triplets struct {
	rows, cols int
	i, j       []int
	v          []float64
}

// NewTriplets returns an empty builder with room for capacity entries.
func NewTriplets(rows, cols, capacity int) (*Triplets, error) {
	if rows < 0 || cols < 0 || capacity < 0 {
		return nil, sparseErrorf("NewTriplets", ErrBadShape)
	}

	return &Triplets{
		rows: rows,
		cols: cols,
		i:    make([]int, 0, capacity),
		j:    make([]int, 0, capacity),
		v:    make([]float64, 0, capacity),
	}, nil
}

// Dims returns (rows, cols).
func (t *Triplets) Dims() (int, int) { return t.rows, t.cols }

// Len returns the number of appended entries, duplicates included.
func (t *Triplets) Len() int { return len(t.v) }

// Append records entry (i, j) += v.
func (t *Triplets) Append(i, j int, v float64) error {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		return sparseErrorf("Append", ErrOutOfRange)
	}
	t.i = append(t.i, i)
	t.j = append(t.j, j)
	t.v = append(t.v, v)

	return nil
}

// ToCSC compiles the entries and returns the summed matrix.
func (t *Triplets) ToCSC() *CSC {
	a := t.Compile()
	m, _ := a.Fill(t.v)

	return m
}

// Compile builds the assembly plan for the current entry list.
//
// Implementation:
//   - Counting sort by column, then a stable sort by row inside each
//     column, so equal positions keep insertion order.
//   - Equal (i, j) positions share one slot.
//
// Complexity: O(nnz log(max column nnz)).
func (t *Triplets) Compile() *Assembly {
	n := len(t.v)
	order := make([]int, n)
	start := make([]int, t.cols+1)
	for _, j := range t.j {
		start[j+1]++
	}
	for j := 0; j < t.cols; j++ {
		start[j+1] += start[j]
	}
	next := append([]int(nil), start[:t.cols]...)
	for k, j := range t.j {
		order[next[j]] = k
		next[j]++
	}

	m := &CSC{rows: t.rows, cols: t.cols, colPtr: make([]int, t.cols+1)}
	slot := make([]int, n)
	for j := 0; j < t.cols; j++ {
		seg := order[start[j]:start[j+1]]
		sort.SliceStable(seg, func(a, b int) bool { return t.i[seg[a]] < t.i[seg[b]] })
		last := -1
		for _, k := range seg {
			if t.i[k] != last {
				m.rowIdx = append(m.rowIdx, t.i[k])
				last = t.i[k]
			}
			slot[k] = len(m.rowIdx) - 1
		}
		m.colPtr[j+1] = len(m.rowIdx)
	}
	m.val = make([]float64, len(m.rowIdx))

	return &Assembly{pattern: m, slot: slot}
}

// Assembly is a compiled scatter plan from an entry list to a CSC pattern.
type Assembly struct {
	pattern *CSC
	slot    []int
}

// Len returns the number of entries the plan expects.
func (a *Assembly) Len() int { return len(a.slot) }

// Pattern returns the structure (with zero values).
func (a *Assembly) Pattern() *CSC { return a.pattern }

// Fill returns a new matrix with the plan's pattern and values summed from
// vals, which must follow the entry order used at Compile time.
func (a *Assembly) Fill(vals []float64) (*CSC, error) {
	if len(vals) != len(a.slot) {
		return nil, sparseErrorf("Fill", ErrPatternMismatch)
	}
	out := make([]float64, len(a.pattern.rowIdx))
	for k, v := range vals {
		out[a.slot[k]] += v
	}

	return a.pattern.withValues(out), nil
}
