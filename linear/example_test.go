package linear_test

import (
	"fmt"

	"github.com/katalvlaran/lvlopt/linear"
	"github.com/katalvlaran/lvlopt/sparse"
)

// ExampleNew computes one Gauss-Newton step for r = x − 3 starting at x = 0.
func ExampleNew() {
	j := sparse.Identity(1)
	s, _ := linear.New(linear.SparseCholesky)
	delta, _ := s.Solve(j, []float64{-3})
	fmt.Printf("%s step: %.1f\n", s.Type(), delta[0])
	// Output: SparseCholesky step: 3.0
}
