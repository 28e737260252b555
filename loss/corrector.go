package loss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Corrector applies a loss to one residual block.
type Corrector struct {
	sqrtRho1        float64
	residualScaling float64
	alphaSqNorm     float64
}

// NewCorrector builds the corrector for squared norm s and rho = ρ(s).
func NewCorrector(s float64, rho [3]float64) Corrector {
	sqrtRho1 := math.Sqrt(rho[1])
	if s == 0 || rho[2] <= 0 {
		return Corrector{sqrtRho1: sqrtRho1, residualScaling: sqrtRho1}
	}
	d := 1 + 2*s*rho[2]/rho[1]
	alpha := 1 - math.Sqrt(d)

	return Corrector{
		sqrtRho1:        sqrtRho1,
		residualScaling: sqrtRho1 / (1 - alpha),
		alphaSqNorm:     alpha / s,
	}
}

// CorrectResidual scales r in place.
func (c Corrector) CorrectResidual(r []float64) {
	for i := range r {
		r[i] *= c.residualScaling
	}
}

// CorrectJacobian rewrites j in place using the uncorrected residual r.
// Call it before CorrectResidual.
func (c Corrector) CorrectJacobian(r []float64, j *mat.Dense) {
	if c.alphaSqNorm == 0 {
		j.Scale(c.sqrtRho1, j)
		return
	}
	rows, cols := j.Dims()
	// rtj = rᵗJ
	rtj := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for k := 0; k < cols; k++ {
			rtj[k] += r[i] * j.At(i, k)
		}
	}
	for i := 0; i < rows; i++ {
		for k := 0; k < cols; k++ {
			j.Set(i, k, c.sqrtRho1*(j.At(i, k)-c.alphaSqNorm*r[i]*rtj[k]))
		}
	}
}

// Apply robustifies one block in place. It returns ρ(‖r‖²), the block's
// contribution to twice the total cost. A nil loss leaves r and jacobians
// untouched and returns ‖r‖². Nil entries of jacobians are skipped.
func Apply(l Loss, r []float64, jacobians []*mat.Dense) float64 {
	s := 0.0
	for _, v := range r {
		s += v * v
	}
	if l == nil {
		return s
	}
	if _, ok := l.(Trivial); ok {
		return s
	}
	rho := l.Evaluate(s)
	c := NewCorrector(s, rho)
	for _, j := range jacobians {
		if j != nil && !j.IsEmpty() {
			c.CorrectJacobian(r, j)
		}
	}
	c.CorrectResidual(r)

	return rho[0]
}
