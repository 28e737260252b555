package linear

import (
	"github.com/go-logr/logr"

	"github.com/katalvlaran/lvlopt/sparse"
)

// QR solves the least-squares problem min ‖J·δ + r‖ by sparse QR.
type QR struct {
	log     logr.Logger
	pattern *sparse.CSC
	perm    sparse.Perm
	rank    int
}

// Type returns SparseQR.
func (q *QR) Type() SolverType { return SparseQR }

// LastRank is the numerical rank of R from the last solve.
func (q *QR) LastRank() int { return q.rank }

// Solve factors J directly. A rank-deficient J yields the basic solution.
func (q *QR) Solve(j *sparse.CSC, r []float64) ([]float64, error) {
	if err := sparse.ValidateNotNil(j); err != nil {
		return nil, err
	}
	if err := sparse.ValidateVecLen(r, rowsOf(j)); err != nil {
		return nil, err
	}
	b := make([]float64, len(r))
	for i, v := range r {
		b[i] = -v
	}

	return q.solve(j, b)
}

// SolveNormal factors h as a square least-squares system.
func (q *QR) SolveNormal(h *sparse.CSC, g []float64) ([]float64, error) {
	if err := sparse.ValidateSquare(h); err != nil {
		return nil, err
	}

	return q.solve(h, g)
}

func (q *QR) solve(a *sparse.CSC, b []float64) ([]float64, error) {
	if q.pattern == nil || !q.pattern.SamePattern(a) {
		p, err := sparse.ColumnOrdering(a)
		if err != nil {
			return nil, err
		}
		q.pattern, q.perm = a, p
	}
	f, err := sparse.FactorQR(a, b, q.perm)
	if err != nil {
		return nil, err
	}
	x := f.Solution()
	if err := checkStep(x); err != nil {
		return nil, err
	}
	q.rank = f.Rank()
	if !f.FullRank() {
		_, cols := a.Dims()
		q.log.V(1).Info("rank-deficient system, returning basic solution", "rank", q.rank, "cols", cols)
	}

	return x, nil
}

func rowsOf(a *sparse.CSC) int {
	r, _ := a.Dims()
	return r
}
