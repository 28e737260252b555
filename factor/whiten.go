package factor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrNotPositiveDefinite is returned for an information matrix that has no
// Cholesky factor.
var ErrNotPositiveDefinite = errors.New("factor: information matrix is not positive definite")

// Whitened weights another factor by an information matrix Ω: the
// residual becomes U·r with Ω = UᵗU, so ‖U·r‖² = rᵗΩr.
type Whitened struct {
	Factor Factor
	sqrt   *mat.TriDense
}

// NewWhitened wraps f with the information matrix info, which must be
// ResidualDim×ResidualDim and positive definite.
func NewWhitened(f Factor, info mat.Symmetric) (*Whitened, error) {
	if n := info.SymmetricDim(); n != f.ResidualDim() {
		return nil, fmt.Errorf("%w: information is %d×%d, residual has %d rows", ErrDimensionMismatch, n, n, f.ResidualDim())
	}
	var c mat.Cholesky
	if !c.Factorize(info) {
		return nil, ErrNotPositiveDefinite
	}
	var u mat.TriDense
	c.UTo(&u)

	return &Whitened{Factor: f, sqrt: &u}, nil
}

// ResidualDim is the wrapped factor's residual size.
func (w *Whitened) ResidualDim() int { return w.Factor.ResidualDim() }

// ParameterDims forwards the wrapped factor's sizes, if it declares them.
func (w *Whitened) ParameterDims() []int {
	if s, ok := w.Factor.(Sized); ok {
		return s.ParameterDims()
	}

	return nil
}

// Evaluate returns U·r and U·Jᵢ for the wrapped factor's r and Jᵢ.
func (w *Whitened) Evaluate(params [][]float64, wantJacobian bool) ([]float64, []*mat.Dense, error) {
	r, jac, err := w.Factor.Evaluate(params, wantJacobian)
	if err != nil {
		return nil, nil, err
	}
	var wr mat.VecDense
	wr.MulVec(w.sqrt, mat.NewVecDense(len(r), r))
	out := wr.RawVector().Data
	if !wantJacobian {
		return out, nil, nil
	}
	wj := make([]*mat.Dense, len(jac))
	for k, j := range jac {
		if j == nil {
			continue
		}
		var m mat.Dense
		m.Mul(w.sqrt, j)
		wj[k] = &m
	}

	return out, wj, nil
}
