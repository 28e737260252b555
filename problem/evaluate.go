package problem

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlopt/dual"
	"github.com/katalvlaran/lvlopt/loss"
	"github.com/katalvlaran/lvlopt/manifold"
	"github.com/katalvlaran/lvlopt/sparse"
)

// Evaluation is the linearization of a problem at one point.
type Evaluation struct {
	// Residual is the stacked, loss-corrected residual.
	Residual []float64
	// Jacobian is nil for residual-only evaluations.
	Jacobian *sparse.CSC
	// Cost is ½·Σ ρ(‖rᵢ‖²) over all blocks.
	Cost float64
	// Layout is the layout the evaluation was assembled with.
	Layout *Layout
}

// Evaluate linearizes the problem at values using up to workers goroutines
// (workers ≤ 0 selects GOMAXPROCS). values is not modified.
func (p *Problem) Evaluate(values map[string][]float64, wantJacobian bool, workers int) (*Evaluation, error) {
	if err := p.CheckValues(values); err != nil {
		return nil, err
	}
	s := p.structure()
	l := s.layout

	// Manifold Jacobians depend only on the variable, not on the block.
	var plus map[int]*mat.Dense
	if wantJacobian {
		plus = make(map[int]*mat.Dense)
		for i, v := range p.vars {
			if v.manifold == nil || l.ColOffset[i] < 0 {
				continue
			}
			j, err := manifold.PlusJacobian(v.manifold, values[v.name])
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", v.name, err)
			}
			plus[i] = j
		}
	}

	e := &evaluator{
		p:        p,
		s:        s,
		values:   values,
		plus:     plus,
		wantJ:    wantJacobian,
		residual: make([]float64, l.Rows),
		rho:      make([]float64, len(p.blocks)),
		errs:     make([]error, len(p.blocks)),
	}
	if wantJacobian {
		e.jvals = make([]float64, s.assembly.Len())
	}
	e.run(workers)

	for b, err := range e.errs {
		if err != nil {
			return nil, fmt.Errorf("residual block %d: %w", b, err)
		}
	}
	cost := 0.0
	for _, r := range e.rho {
		cost += r
	}
	out := &Evaluation{Residual: e.residual, Cost: 0.5 * cost, Layout: l}
	if wantJacobian {
		j, err := s.assembly.Fill(e.jvals)
		if err != nil {
			return nil, err
		}
		out.Jacobian = j
	}

	return out, nil
}

// Cost returns ½·Σ ρ(‖rᵢ‖²) without computing Jacobians.
func (p *Problem) Cost(values map[string][]float64, workers int) (float64, error) {
	ev, err := p.Evaluate(values, false, workers)
	if err != nil {
		return 0, err
	}

	return ev.Cost, nil
}

// evaluator holds the per-call buffers. Each block writes only its own
// residual rows, value range, rho and errs slot.
type evaluator struct {
	p      *Problem
	s      *structure
	values map[string][]float64
	plus   map[int]*mat.Dense
	wantJ  bool

	residual []float64
	jvals    []float64
	rho      []float64
	errs     []error
}

// run evaluates all blocks over a fixed pool of contiguous chunks.
func (e *evaluator) run(workers int) {
	n := len(e.p.blocks)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for b := 0; b < n; b++ {
			e.errs[b] = e.safeBlock(b)
		}
		return
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for b := lo; b < hi; b++ {
				e.errs[b] = e.safeBlock(b)
			}
		}(lo, hi)
	}
	wg.Wait()
}

// safeBlock runs block b and returns a panic raised by factor code as the
// block's error.
func (e *evaluator) safeBlock(b int) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = recovered(b, v)
		}
	}()

	return e.block(b)
}

func recovered(b int, v any) error {
	if re, ok := v.(runtime.Error); ok && strings.Contains(re.Error(), "out of range") {
		return fmt.Errorf("%w: block %d: %v", ErrDimensionMismatch, b, re)
	}
	if err, ok := v.(error); ok && errors.Is(err, dual.ErrWidthMismatch) {
		return fmt.Errorf("%w: block %d: %w", ErrDimensionMismatch, b, err)
	}

	return fmt.Errorf("%w: block %d: %v", ErrFactorPanic, b, v)
}

// block evaluates residual block b into the shared buffers.
func (e *evaluator) block(b int) error {
	blk := e.p.blocks[b]
	l := e.s.layout
	params := make([][]float64, len(blk.vars))
	for k, i := range blk.vars {
		params[k] = e.values[e.p.vars[i].name]
	}

	r, jac, err := blk.Factor.Evaluate(params, e.wantJ)
	if err != nil {
		return err
	}
	if len(r) != blk.ResidualDim {
		return fmt.Errorf("%w: factor returned %d residuals, want %d", ErrDimensionMismatch, len(r), blk.ResidualDim)
	}
	r = append([]float64(nil), r...)

	// Tangent-space Jacobians, one per variable; nil for constants.
	var tj []*mat.Dense
	if e.wantJ {
		if len(jac) != len(blk.vars) {
			return fmt.Errorf("%w: factor returned %d Jacobian blocks, want %d", ErrDimensionMismatch, len(jac), len(blk.vars))
		}
		tj = make([]*mat.Dense, len(blk.vars))
		for k, i := range blk.vars {
			if l.ColOffset[i] < 0 {
				continue
			}
			v := e.p.vars[i]
			if jac[k] == nil {
				return fmt.Errorf("%w: missing Jacobian for %q", ErrDimensionMismatch, v.name)
			}
			if rows, cols := jac[k].Dims(); rows != blk.ResidualDim || cols != v.dim {
				return fmt.Errorf("%w: Jacobian for %q is %d×%d, want %d×%d",
					ErrDimensionMismatch, v.name, rows, cols, blk.ResidualDim, v.dim)
			}
			if pj, ok := e.plus[i]; ok {
				var m mat.Dense
				m.Mul(jac[k], pj)
				tj[k] = &m
				continue
			}
			tj[k] = mat.DenseCopyOf(jac[k])
		}
	}

	e.rho[b] = loss.Apply(blk.Loss, r, tj)
	copy(e.residual[l.RowOffset[b]:], r)

	if !e.wantJ {
		return nil
	}
	pos := e.s.valOffset[b]
	for k, i := range blk.vars {
		nc := l.ColCount[i]
		if nc == 0 {
			continue
		}
		free := e.s.free[i]
		for row := 0; row < blk.ResidualDim; row++ {
			for c := 0; c < nc; c++ {
				col := c
				if free != nil {
					col = free[c]
				}
				e.jvals[pos] = tj[k].At(row, col)
				pos++
			}
		}
	}

	return nil
}

// Plus applies the step delta (one entry per layout column) to values and
// returns the updated copy. Manifold variables move through Plus, fixed
// coordinates stay put, and bounds are enforced afterwards.
func (p *Problem) Plus(values map[string][]float64, delta []float64) (map[string][]float64, error) {
	if err := p.CheckValues(values); err != nil {
		return nil, err
	}
	s := p.structure()
	l := s.layout
	if len(delta) != l.Cols {
		return nil, fmt.Errorf("%w: step has length %d, want %d", ErrDimensionMismatch, len(delta), l.Cols)
	}
	out := CloneValues(values)
	for i, v := range p.vars {
		x := out[v.name]
		if off := l.ColOffset[i]; off >= 0 {
			d := delta[off : off+l.ColCount[i]]
			if v.manifold != nil {
				nx, err := manifold.PlusValues(v.manifold, x, d)
				if err != nil {
					return nil, fmt.Errorf("variable %q: %w", v.name, err)
				}
				x = nx
			} else {
				for c, coord := range s.free[i] {
					x[coord] += d[c]
				}
			}
		}
		v.clamp(x)
		out[v.name] = x
	}

	return out, nil
}
