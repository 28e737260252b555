package dual_test

import (
	"fmt"

	"github.com/katalvlaran/lvlopt/dual"
)

// ExampleJacobian differentiates f(x, y) = x²·y at (3, 2) in one pass.
func ExampleJacobian() {
	f := func(v dual.Vector) dual.Vector {
		return dual.Vector{dual.Mul(dual.Mul(v[0], v[0]), v[1])}
	}
	val, j := dual.Jacobian(f, []float64{3, 2})
	fmt.Println(val[0], j.At(0, 0), j.At(0, 1))
	// Output:
	// 18 12 9
}
