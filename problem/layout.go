package problem

import (
	"github.com/katalvlaran/lvlopt/sparse"
)

// Layout maps variables to Jacobian columns and blocks to rows.
type Layout struct {
	Rows, Cols int
	// RowOffset[b] is the first row of block b.
	RowOffset []int
	// ColOffset[i] is the first column of variable i, −1 for constants.
	ColOffset []int
	// ColCount[i] is the number of columns of variable i.
	ColCount []int
	// Names[i] is the name of variable i, in registration order.
	Names []string
}

// Column returns the column range of name; ok is false for constants and
// unknown names.
func (l *Layout) Column(name string) (offset, count int, ok bool) {
	for i, n := range l.Names {
		if n == name {
			if l.ColOffset[i] < 0 {
				return 0, 0, false
			}
			return l.ColOffset[i], l.ColCount[i], true
		}
	}

	return 0, 0, false
}

// structure is the cached layout and Jacobian plan of one revision.
type structure struct {
	revision uint64
	layout   *Layout
	// free[i] are the coordinates of variable i that own a column, or nil
	// for manifold variables.
	free [][]int
	// valOffset[b] is where block b's Jacobian values start in the entry
	// list handed to the assembly plan.
	valOffset []int
	assembly  *sparse.Assembly
}

// Layout returns the current layout.
func (p *Problem) Layout() *Layout {
	return p.structure().layout
}

// structure returns the cached structure, rebuilding it after a change.
func (p *Problem) structure() *structure {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache != nil && p.cache.revision == p.revision {
		return p.cache
	}
	p.cache = p.buildStructure()

	return p.cache
}

func (p *Problem) buildStructure() *structure {
	l := &Layout{
		RowOffset: make([]int, len(p.blocks)),
		ColOffset: make([]int, len(p.vars)),
		ColCount:  make([]int, len(p.vars)),
		Names:     make([]string, len(p.vars)),
	}
	s := &structure{revision: p.revision, layout: l, free: make([][]int, len(p.vars))}
	for i, v := range p.vars {
		l.Names[i] = v.name
		n := v.columns()
		l.ColCount[i] = n
		if n == 0 {
			l.ColOffset[i] = -1
			continue
		}
		l.ColOffset[i] = l.Cols
		l.Cols += n
		if v.manifold == nil {
			s.free[i] = v.free()
		}
	}

	nnz := 0
	s.valOffset = make([]int, len(p.blocks)+1)
	for b, blk := range p.blocks {
		l.RowOffset[b] = l.Rows
		l.Rows += blk.ResidualDim
		for _, i := range blk.vars {
			nnz += blk.ResidualDim * l.ColCount[i]
		}
		s.valOffset[b+1] = nnz
	}

	// Entries are listed block by block, variable by variable, row-major
	// within each dense block. Evaluate fills values in the same order.
	t, _ := sparse.NewTriplets(l.Rows, l.Cols, nnz)
	for b, blk := range p.blocks {
		r0 := l.RowOffset[b]
		for _, i := range blk.vars {
			c0, nc := l.ColOffset[i], l.ColCount[i]
			for r := 0; r < blk.ResidualDim; r++ {
				for c := 0; c < nc; c++ {
					_ = t.Append(r0+r, c0+c, 0)
				}
			}
		}
	}
	s.assembly = t.Compile()

	return s
}
