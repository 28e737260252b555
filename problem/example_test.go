package problem_test

import (
	"fmt"

	"github.com/katalvlaran/lvlopt/factor"
	"github.com/katalvlaran/lvlopt/problem"
)

// ExampleProblem_Evaluate builds a two-pose graph and prints its size.
func ExampleProblem_Evaluate() {
	p := problem.New()
	x0 := problem.VariableSpec{Name: "x0", Dim: 3}
	x1 := problem.VariableSpec{Name: "x1", Dim: 3}
	_ = p.AddResidualBlock(3, []problem.VariableSpec{x0}, factor.NewPrior([]float64{0, 0, 0}), nil)
	_ = p.AddResidualBlock(3, []problem.VariableSpec{x0, x1}, factor.NewBetweenSE2(1, 0, 0), nil)

	ev, err := p.Evaluate(map[string][]float64{
		"x0": {0, 0, 0},
		"x1": {0, 1, 0},
	}, true, 1)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	rows, cols := ev.Jacobian.Dims()
	fmt.Printf("%d×%d cost=%.1f\n", rows, cols, ev.Cost)
	// Output: 6×6 cost=0.0
}
