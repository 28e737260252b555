package sparse_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/lvlopt/sparse"
)

func BenchmarkAtA(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	a := randomSparse(b, rng, 2000, 600, 0.005, true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.AtA()
	}
}

func BenchmarkCholesky(b *testing.B) {
	rng := rand.New(rand.NewSource(2))
	h := randomSparse(b, rng, 2000, 600, 0.005, true).AtA()
	p, _ := sparse.MinimumDegree(h)
	sym, _ := sparse.AnalyzeCholesky(h, p)
	rhs := randomVec(rng, 600)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f, err := sym.Factor(h)
		if err != nil {
			b.Fatal(err)
		}
		_, _ = f.Solve(rhs)
	}
}

func BenchmarkQR(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	a := randomSparse(b, rng, 2000, 600, 0.005, true)
	p, _ := sparse.ColumnOrdering(a)
	rhs := randomVec(rng, 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = sparse.SolveLeastSquares(a, rhs, p)
	}
}
