package factor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlopt/dual"
)

var (
	// ErrDimensionMismatch reports disagreeing block, factor or variable sizes.
	ErrDimensionMismatch = errors.New("factor: dimension mismatch")

	// ErrNonFinite reports a NaN or ±Inf residual or derivative.
	ErrNonFinite = errors.New("factor: non-finite output")
)

// Factor produces a residual and, when wantJacobian is set, one
// ResidualDim()×len(params[i]) Jacobian block per input.
type Factor interface {
	ResidualDim() int
	Evaluate(params [][]float64, wantJacobian bool) ([]float64, []*mat.Dense, error)
}

// Sized is implemented by factors that know their input dimensions.
// A nil result means "any".
type Sized interface {
	ParameterDims() []int
}

// CostFunction is a residual written over dual numbers.
// Residual must be pure: same inputs, same outputs, no retained state.
type CostFunction interface {
	ResidualDim() int
	Residual(params []dual.Vector) dual.Vector
}

// CostFunc adapts a plain function to CostFunction.
type CostFunc struct {
	Dim int
	Fn  func(params []dual.Vector) dual.Vector
}

// NewCostFunc returns a CostFunction producing dim residuals with fn.
func NewCostFunc(dim int, fn func(params []dual.Vector) dual.Vector) CostFunc {
	return CostFunc{Dim: dim, Fn: fn}
}

// ResidualDim returns c.Dim.
func (c CostFunc) ResidualDim() int { return c.Dim }

// Residual calls c.Fn.
func (c CostFunc) Residual(params []dual.Vector) dual.Vector { return c.Fn(params) }

// CheckParams verifies params against dims (skipped when dims is nil).
func CheckParams(dims []int, params [][]float64) error {
	if dims == nil {
		return nil
	}
	if len(params) != len(dims) {
		return fmt.Errorf("%w: got %d inputs, want %d", ErrDimensionMismatch, len(params), len(dims))
	}
	for i, p := range params {
		if len(p) != dims[i] {
			return fmt.Errorf("%w: input %d has length %d, want %d", ErrDimensionMismatch, i, len(p), dims[i])
		}
	}

	return nil
}

// AutoDiff evaluates a CostFunction and differentiates it in forward mode.
type AutoDiff struct {
	Cost CostFunction
	Dims []int // optional input dimensions
}

// NewAutoDiff wraps c. paramDims, if given, fixes the expected input sizes.
func NewAutoDiff(c CostFunction, paramDims ...int) *AutoDiff {
	var dims []int
	if len(paramDims) > 0 {
		dims = append(dims, paramDims...)
	}

	return &AutoDiff{Cost: c, Dims: dims}
}

// NewFunc is the user-defined factor: fn has no analytic derivative and is
// always differentiated through dual numbers.
func NewFunc(residualDim int, fn func(params []dual.Vector) dual.Vector, paramDims ...int) *AutoDiff {
	return NewAutoDiff(NewCostFunc(residualDim, fn), paramDims...)
}

// ResidualDim is the wrapped cost's residual size.
func (a *AutoDiff) ResidualDim() int { return a.Cost.ResidualDim() }

// ParameterDims returns the sizes given at construction, or nil when
// the input count is left unchecked.
func (a *AutoDiff) ParameterDims() []int { return a.Dims }

// Evaluate runs the cost once; with wantJacobian every input scalar is
// seeded so one pass yields all Jacobian blocks.
func (a *AutoDiff) Evaluate(params [][]float64, wantJacobian bool) ([]float64, []*mat.Dense, error) {
	return evaluateCost(a.Cost, a.Dims, params, wantJacobian)
}

// evaluateCost runs c once. Residual-only calls use width-0 constants.
func evaluateCost(c CostFunction, dims []int, params [][]float64, wantJacobian bool) ([]float64, []*mat.Dense, error) {
	if err := CheckParams(dims, params); err != nil {
		return nil, nil, err
	}
	m := c.ResidualDim()

	if !wantJacobian {
		in := make([]dual.Vector, len(params))
		for i, p := range params {
			in[i] = dual.Constants(p)
		}
		out := c.Residual(in)
		if err := checkOutput(out, m); err != nil {
			return nil, nil, err
		}

		return dual.Values(out), nil, nil
	}

	in, _ := dual.Seed(params)
	out := c.Residual(in)
	if err := checkOutput(out, m); err != nil {
		return nil, nil, err
	}

	jacobians := make([]*mat.Dense, len(params))
	offset := 0
	for k, p := range params {
		j := mat.NewDense(m, len(p), nil)
		for r, v := range out {
			for col := range p {
				j.Set(r, col, v.Deriv(offset+col))
			}
		}
		jacobians[k] = j
		offset += len(p)
	}

	return dual.Values(out), jacobians, nil
}

func checkOutput(out dual.Vector, m int) error {
	if len(out) != m {
		return fmt.Errorf("%w: residual has length %d, want %d", ErrDimensionMismatch, len(out), m)
	}
	for i, v := range out {
		if !v.IsFinite() {
			return fmt.Errorf("%w: residual %d", ErrNonFinite, i)
		}
	}

	return nil
}
