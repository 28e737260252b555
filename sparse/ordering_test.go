package sparse_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/lvlopt/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// arrow returns an n×n arrow matrix whose dense row/column is index 0.
func arrow(n int) *sparse.CSC {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, float64(n))
		if i > 0 {
			d.Set(0, i, 1)
			d.Set(i, 0, 1)
		}
	}
	return sparse.FromDense(d)
}

// TestMinimumDegreeArrow eliminates the leaves before the hub, avoiding all fill.
func TestMinimumDegreeArrow(t *testing.T) {
	a := arrow(8)
	p, err := sparse.MinimumDegree(a)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Contains(t, []int{p[len(p)-1], p[len(p)-2]}, 0, "hub is among the last two")

	natural, err := sparse.AnalyzeCholesky(a, nil)
	require.NoError(t, err)
	ordered, err := sparse.AnalyzeCholesky(a, p)
	require.NoError(t, err)
	assert.Equal(t, 8*9/2, natural.NNZ(), "natural order fills completely")
	assert.Equal(t, 8+7, ordered.NNZ(), "hub-last order has no fill")
}

// TestMinimumDegreeDeterministic repeats the ordering and expects equality.
func TestMinimumDegreeDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	a := randomSparse(t, rng, 40, 30, 0.08, true).AtA()
	p1, err := sparse.MinimumDegree(a)
	require.NoError(t, err)
	for k := 0; k < 5; k++ {
		p2, err := sparse.MinimumDegree(a)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	}
}

// TestPermValidate rejects duplicates and out-of-range entries.
func TestPermValidate(t *testing.T) {
	assert.ErrorIs(t, sparse.Perm{0, 0}.Validate(), sparse.ErrBadPermutation)
	assert.ErrorIs(t, sparse.Perm{0, 2}.Validate(), sparse.ErrBadPermutation)
	p := sparse.Perm{2, 0, 1}
	assert.Equal(t, sparse.Perm{1, 2, 0}, p.Inverse())
}

// TestPermuteColumns checks A·P against gonum.
func TestPermuteColumns(t *testing.T) {
	a := sparse.FromDense(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))
	ap, err := sparse.PermuteColumns(a, sparse.Perm{2, 0, 1})
	require.NoError(t, err)
	want := mat.NewDense(2, 3, []float64{3, 1, 2, 6, 4, 5})
	assert.True(t, mat.Equal(want, ap.ToDense()))
}
