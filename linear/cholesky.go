package linear

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/katalvlaran/lvlopt/sparse"
)

// Cholesky solves the normal equations by sparse LLᵗ factorization.
type Cholesky struct {
	log  logr.Logger
	sym  *sparse.SymbolicCholesky
	rank int
}

// Type returns SparseCholesky.
func (c *Cholesky) Type() SolverType { return SparseCholesky }

// LastRank is the system size: a successful Cholesky is always full rank.
func (c *Cholesky) LastRank() int { return c.rank }

// Solve forms JᵗJ and −Jᵗr and solves.
func (c *Cholesky) Solve(j *sparse.CSC, r []float64) ([]float64, error) {
	if err := sparse.ValidateNotNil(j); err != nil {
		return nil, err
	}
	g, err := gradient(j, r)
	if err != nil {
		return nil, err
	}

	return c.SolveNormal(j.AtA(), g)
}

// SolveNormal factors h, reusing the cached analysis while the pattern is
// unchanged.
func (c *Cholesky) SolveNormal(h *sparse.CSC, g []float64) ([]float64, error) {
	if err := sparse.ValidateSquare(h); err != nil {
		return nil, err
	}
	if c.sym == nil || !c.sym.Matches(h) {
		if err := c.analyze(h); err != nil {
			return nil, err
		}
	}
	f, err := c.sym.Factor(h)
	if err != nil {
		if errors.Is(err, sparse.ErrNotPositiveDefinite) {
			return nil, fmt.Errorf("%w: %w", ErrSingularSystem, err)
		}
		return nil, err
	}
	x, err := f.Solve(g)
	if err != nil {
		return nil, err
	}
	if err := checkStep(x); err != nil {
		return nil, err
	}
	c.rank = c.sym.Size()

	return x, nil
}

func (c *Cholesky) analyze(h *sparse.CSC) error {
	p, err := sparse.MinimumDegree(h)
	if err != nil {
		return err
	}
	sym, err := sparse.AnalyzeCholesky(h, p)
	if err != nil {
		return err
	}
	c.sym = sym
	c.log.V(1).Info("symbolic cholesky", "n", sym.Size(), "nnzA", h.NNZ(), "nnzL", sym.NNZ())

	return nil
}
