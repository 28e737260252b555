package manifold_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlopt/dual"
	"github.com/katalvlaran/lvlopt/manifold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identitySE3() []float64 { return []float64{0, 0, 0, 1, 0, 0, 0} }

// TestPlusMinusRoundTrip checks Minus(Plus(x, δ), x) = δ for every manifold.
func TestPlusMinusRoundTrip(t *testing.T) {
	q := []float64{0.1, -0.2, 0.3, 0}
	q[3] = math.Sqrt(1 - q[0]*q[0] - q[1]*q[1] - q[2]*q[2])
	cases := []struct {
		name  string
		m     manifold.Manifold
		x     []float64
		delta []float64
	}{
		{"se3", manifold.SE3{}, append(append([]float64{}, q...), 1, 2, 3), []float64{0.05, -0.1, 0.2, 0.3, -0.4, 0.5}},
		{"quaternion", manifold.Quaternion{}, q, []float64{0.2, 0.1, -0.3}},
		{"se2", manifold.SE2{}, []float64{0.4, 1, -2}, []float64{0.3, 0.5, -0.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			y, err := manifold.PlusValues(tc.m, tc.x, tc.delta)
			require.NoError(t, err)
			back := dual.Values(tc.m.Minus(dual.Constants(y), dual.Constants(tc.x)))
			for i := range tc.delta {
				assert.InDelta(t, tc.delta[i], back[i], 1e-9)
			}
		})
	}
}

// TestPlusJacobianAtIdentity verifies the SE3 plus Jacobian at the identity pose.
func TestPlusJacobianAtIdentity(t *testing.T) {
	j, err := manifold.PlusJacobian(manifold.SE3{}, identitySE3())
	require.NoError(t, err)
	r, c := j.Dims()
	require.Equal(t, 7, r)
	require.Equal(t, 6, c)
	// quaternion vector part moves by δω/2, qw is stationary, translation by δρ
	for k := 0; k < 3; k++ {
		assert.InDelta(t, 0.5, j.At(k, k), 1e-12)
		assert.InDelta(t, 1.0, j.At(4+k, 3+k), 1e-12)
	}
	for col := 0; col < 6; col++ {
		assert.InDelta(t, 0.0, j.At(3, col), 1e-12)
	}
}

// TestSizeMismatch rejects vectors of the wrong length.
func TestSizeMismatch(t *testing.T) {
	_, err := manifold.PlusValues(manifold.Quaternion{}, []float64{0, 0, 1}, []float64{0, 0, 0})
	assert.ErrorIs(t, err, manifold.ErrSizeMismatch)
	_, err = manifold.PlusJacobian(manifold.SE3{}, []float64{1})
	assert.ErrorIs(t, err, manifold.ErrSizeMismatch)
}

// TestPlusStaysUnit keeps quaternions on the unit sphere.
func TestPlusStaysUnit(t *testing.T) {
	y, err := manifold.PlusValues(manifold.Quaternion{}, []float64{0, 0, 0, 1}, []float64{1, 2, -0.5})
	require.NoError(t, err)
	n := math.Sqrt(y[0]*y[0] + y[1]*y[1] + y[2]*y[2] + y[3]*y[3])
	assert.InDelta(t, 1.0, n, 1e-12)
}
