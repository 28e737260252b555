package sparse_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/lvlopt/sparse"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// randomSparse returns an m×n matrix with about density·m·n entries.
// When anchored, the first n rows carry a unit diagonal so AᵗA is SPD.
func randomSparse(t testing.TB, rng *rand.Rand, m, n int, density float64, anchored bool) *sparse.CSC {
	t.Helper()
	tr, err := sparse.NewTriplets(m, n, int(density*float64(m*n))+n)
	require.NoError(t, err)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if rng.Float64() < density {
				require.NoError(t, tr.Append(i, j, rng.NormFloat64()))
			}
		}
	}
	if anchored {
		for j := 0; j < n && j < m; j++ {
			require.NoError(t, tr.Append(j, j, 1))
		}
	}
	return tr.ToCSC()
}

func randomVec(rng *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return v
}

// chain builds the Jacobian of a 1-D chain x0 - prior, x(k+1) - x(k).
func chain(t testing.TB, n int, withPrior bool) *sparse.CSC {
	t.Helper()
	rows := n - 1
	if withPrior {
		rows++
	}
	tr, err := sparse.NewTriplets(rows, n, 2*rows)
	require.NoError(t, err)
	r := 0
	if withPrior {
		require.NoError(t, tr.Append(0, 0, 1))
		r = 1
	}
	for k := 0; k+1 < n; k++ {
		require.NoError(t, tr.Append(r, k, -1))
		require.NoError(t, tr.Append(r, k+1, 1))
		r++
	}
	return tr.ToCSC()
}

func denseVec(x []float64) *mat.VecDense { return mat.NewVecDense(len(x), append([]float64(nil), x...)) }
