package loss_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlopt/loss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func mustHuber(t *testing.T, scale float64) *loss.Huber {
	t.Helper()
	h, err := loss.NewHuber(scale)
	require.NoError(t, err)
	return h
}

// TestHuberRegions checks the inlier and outlier branches.
func TestHuberRegions(t *testing.T) {
	h := mustHuber(t, 2)
	assert.Equal(t, [3]float64{3, 1, 0}, h.Evaluate(3))
	assert.Equal(t, [3]float64{4, 1, 0}, h.Evaluate(4)) // threshold is inclusive

	rho := h.Evaluate(16) // r = 4
	assert.InDelta(t, 2*2*4-4, rho[0], 1e-12)
	assert.InDelta(t, 0.5, rho[1], 1e-12)
	assert.InDelta(t, -0.5/32, rho[2], 1e-12)
}

// TestHuberSubLinear doubles an outlier residual and expects the cost to
// grow by less than 2x, while an inlier grows exactly 4x.
func TestHuberSubLinear(t *testing.T) {
	h := mustHuber(t, 1)
	out := func(r float64) float64 { return h.Evaluate(r * r)[0] }
	assert.Less(t, out(20)/out(10), 2.0)
	assert.InDelta(t, 4.0, out(0.4)/out(0.2), 1e-12)
}

// TestConstructorsRejectBadScale covers every constructor.
func TestConstructorsRejectBadScale(t *testing.T) {
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := loss.NewHuber(s)
		assert.ErrorIs(t, err, loss.ErrInvalidScale)
		_, err = loss.NewCauchy(s)
		assert.ErrorIs(t, err, loss.ErrInvalidScale)
		_, err = loss.NewArctan(s)
		assert.ErrorIs(t, err, loss.ErrInvalidScale)
		_, err = loss.NewSoftLOne(s)
		assert.ErrorIs(t, err, loss.ErrInvalidScale)
	}
}

// TestDerivativesMatchFiniteDifferences validates ρ' and ρ'' numerically.
func TestDerivativesMatchFiniteDifferences(t *testing.T) {
	c, _ := loss.NewCauchy(1.5)
	a, _ := loss.NewArctan(2)
	s1, _ := loss.NewSoftLOne(0.7)
	h := mustHuber(t, 1)
	const eps = 1e-6
	for _, l := range []loss.Loss{c, a, s1, h, loss.Trivial{}} {
		for _, s := range []float64{0.3, 2, 9} {
			rho := l.Evaluate(s)
			lo, hi := l.Evaluate(s-eps), l.Evaluate(s+eps)
			assert.InDelta(t, (hi[0]-lo[0])/(2*eps), rho[1], 1e-6, "%T ρ' at %v", l, s)
			assert.InDelta(t, (hi[1]-lo[1])/(2*eps), rho[2], 1e-5, "%T ρ'' at %v", l, s)
		}
	}
}

// TestArctanBounded checks saturation at tolerance·π/2.
func TestArctanBounded(t *testing.T) {
	a, err := loss.NewArctan(0.5)
	require.NoError(t, err)
	assert.Less(t, a.Evaluate(1e12)[0], 0.5*math.Pi/2+1e-9)
}

// TestCorrectorTrivial leaves the block unchanged.
func TestCorrectorTrivial(t *testing.T) {
	r := []float64{3, 4}
	j := mat.NewDense(2, 1, []float64{1, 2})
	cost := loss.Apply(loss.Trivial{}, r, []*mat.Dense{j})
	assert.Equal(t, 25.0, cost)
	assert.Equal(t, []float64{3, 4}, r)
	assert.Equal(t, 2.0, j.At(1, 0))
}

// TestCorrectorHuber scales an outlier by √ρ'.
func TestCorrectorHuber(t *testing.T) {
	h := mustHuber(t, 1)
	r := []float64{3, 4} // s = 25
	j := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	cost := loss.Apply(h, r, []*mat.Dense{j, nil})
	assert.InDelta(t, 2*5-1, cost, 1e-12)
	w := math.Sqrt(1.0 / 5)
	assert.InDelta(t, 3*w, r[0], 1e-12)
	assert.InDelta(t, 4*w, r[1], 1e-12)
	assert.InDelta(t, w, j.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, j.At(0, 1), 1e-12)
}

// TestCorrectorPositiveCurvature exercises the α branch with a synthetic ρ.
func TestCorrectorPositiveCurvature(t *testing.T) {
	r := []float64{1, 0}
	c := loss.NewCorrector(1, [3]float64{1, 1, 0.375}) // d = 1.75 + ..., α = 1 − √1.75
	j := mat.NewDense(2, 1, []float64{1, 1})
	c.CorrectJacobian(r, j)
	alpha := 1 - math.Sqrt(1.75)
	assert.InDelta(t, 1-alpha, j.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, j.At(1, 0), 1e-12)
	c.CorrectResidual(r)
	assert.InDelta(t, 1/(1-alpha), r[0], 1e-12)
}

// TestParse covers the name:scale syntax.
func TestParse(t *testing.T) {
	l, err := loss.Parse("huber:2")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{4, 1, 0}, l.Evaluate(4))

	l, err = loss.Parse("none")
	require.NoError(t, err)
	assert.IsType(t, loss.Trivial{}, l)

	_, err = loss.Parse("tukey")
	assert.ErrorIs(t, err, loss.ErrUnknownLoss)
	_, err = loss.Parse("cauchy:-1")
	assert.ErrorIs(t, err, loss.ErrInvalidScale)
	_, err = loss.Parse("cauchy:abc")
	assert.ErrorIs(t, err, loss.ErrInvalidScale)
}
