package factor

import "gonum.org/v1/gonum/mat"

// Prior pins a variable to Target: r = x − Target.
type Prior struct {
	Target []float64
}

// NewPrior copies target into a new Prior.
func NewPrior(target []float64) *Prior {
	return &Prior{Target: append([]float64(nil), target...)}
}

// ResidualDim is len(Target).
func (p *Prior) ResidualDim() int { return len(p.Target) }

// ParameterDims is one input of len(Target).
func (p *Prior) ParameterDims() []int { return []int{len(p.Target)} }

// Evaluate returns x − Target and the identity Jacobian.
func (p *Prior) Evaluate(params [][]float64, wantJacobian bool) ([]float64, []*mat.Dense, error) {
	if err := CheckParams(p.ParameterDims(), params); err != nil {
		return nil, nil, err
	}
	n := len(p.Target)
	r := make([]float64, n)
	for i := range r {
		r[i] = params[0][i] - p.Target[i]
	}
	if !wantJacobian {
		return r, nil, nil
	}
	j := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		j.Set(i, i, 1)
	}

	return r, []*mat.Dense{j}, nil
}
