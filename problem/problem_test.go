package problem_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/lvlopt/dual"
	"github.com/katalvlaran/lvlopt/factor"
	"github.com/katalvlaran/lvlopt/loss"
	"github.com/katalvlaran/lvlopt/manifold"
	"github.com/katalvlaran/lvlopt/problem"
)

func scalar(name string) problem.VariableSpec { return problem.VariableSpec{Name: name, Dim: 1} }

// smallProblem is r0 = x + 2y + 4z, r1 = y·z, r2 = x − 3.
func smallProblem(t *testing.T) *problem.Problem {
	t.Helper()
	p := problem.New()
	r0 := factor.NewFunc(1, func(v []dual.Vector) dual.Vector {
		return dual.Vector{dual.Sum(v[0][0], dual.Scale(v[1][0], 2), dual.Scale(v[2][0], 4))}
	}, 1, 1, 1)
	r1 := factor.NewFunc(1, func(v []dual.Vector) dual.Vector {
		return dual.Vector{dual.Mul(v[0][0], v[1][0])}
	}, 1, 1)
	require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("x"), scalar("y"), scalar("z")}, r0, nil))
	require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("y"), scalar("z")}, r1, nil))
	require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("x")}, factor.NewPrior([]float64{3}), nil))

	return p
}

func smallValues() map[string][]float64 {
	return map[string][]float64{"x": {0.7}, "y": {-30.2}, "z": {123.9}}
}

func TestAddResidualBlockRegisters(t *testing.T) {
	p := smallProblem(t)
	assert.Equal(t, 3, p.NumVariables())
	assert.Equal(t, 3, p.NumResidualBlocks())
	assert.Equal(t, 3, p.NumResiduals())
	assert.Equal(t, []problem.VariableSpec{scalar("x"), scalar("y"), scalar("z")}, p.Variables())
	d, err := p.VariableDim("y")
	require.NoError(t, err)
	assert.Equal(t, 1, d)
	_, err = p.VariableDim("w")
	assert.ErrorIs(t, err, problem.ErrUnknownVariable)
}

// TestAddResidualBlockAtomic re-registers a name with another dimension and
// checks that nothing changed.
func TestAddResidualBlockAtomic(t *testing.T) {
	p := smallProblem(t)
	rev := p.Revision()
	before := p.Variables()

	err := p.AddResidualBlock(2,
		[]problem.VariableSpec{{Name: "new", Dim: 2}, {Name: "x", Dim: 2}},
		factor.NewFunc(2, func(v []dual.Vector) dual.Vector { return v[0] }), nil)
	require.ErrorIs(t, err, problem.ErrDimensionMismatch)

	assert.Equal(t, rev, p.Revision())
	assert.Equal(t, before, p.Variables())
	assert.False(t, p.HasVariable("new"))
	assert.Equal(t, 3, p.NumResidualBlocks())
}

func TestAddResidualBlockValidation(t *testing.T) {
	p := problem.New()
	prior := factor.NewPrior([]float64{1, 2})
	cases := map[string]struct {
		dim  int
		vars []problem.VariableSpec
		f    factor.Factor
		want error
	}{
		"nil factor":         {2, []problem.VariableSpec{{Name: "a", Dim: 2}}, nil, problem.ErrNilFactor},
		"zero residual":      {0, []problem.VariableSpec{{Name: "a", Dim: 2}}, prior, problem.ErrDimensionMismatch},
		"factor disagrees":   {3, []problem.VariableSpec{{Name: "a", Dim: 2}}, prior, problem.ErrDimensionMismatch},
		"sized input size":   {2, []problem.VariableSpec{{Name: "a", Dim: 3}}, prior, problem.ErrDimensionMismatch},
		"sized input count":  {2, []problem.VariableSpec{{Name: "a", Dim: 2}, {Name: "b", Dim: 2}}, prior, problem.ErrDimensionMismatch},
		"zero variable dim":  {1, []problem.VariableSpec{{Name: "a", Dim: 0}}, factor.NewFunc(1, nil), problem.ErrDimensionMismatch},
		"duplicate variable": {1, []problem.VariableSpec{scalar("a"), scalar("a")}, factor.NewFunc(1, nil), problem.ErrDuplicateVariable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := p.AddResidualBlock(tc.dim, tc.vars, tc.f, nil)
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, p.NumVariables())
		})
	}
}

func TestEvaluateSmallProblem(t *testing.T) {
	p := smallProblem(t)
	ev, err := p.Evaluate(smallValues(), true, 1)
	require.NoError(t, err)

	r0 := 0.7 + 2*-30.2 + 4*123.9
	r1 := -30.2 * 123.9
	r2 := 0.7 - 3
	assert.InDeltaSlice(t, []float64{r0, r1, r2}, ev.Residual, 1e-9)
	assert.InDelta(t, 0.5*(r0*r0+r1*r1+r2*r2), ev.Cost, 1e-6)

	rows, cols := ev.Jacobian.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 3, cols)
	j := ev.Jacobian.ToDense()
	assert.Equal(t, []float64{1, 2, 4}, j.RawRowView(0))
	assert.InDeltaSlice(t, []float64{0, 123.9, -30.2}, j.RawRowView(1), 1e-12)
	assert.Equal(t, []float64{1, 0, 0}, j.RawRowView(2))

	cost, err := p.Cost(smallValues(), 1)
	require.NoError(t, err)
	assert.Equal(t, ev.Cost, cost)
}

// TestEvaluateWorkersDeterministic compares a sequential and a parallel
// evaluation bit for bit.
func TestEvaluateWorkersDeterministic(t *testing.T) {
	p := problem.New()
	values := map[string][]float64{}
	const n = 200
	names := make([]string, n)
	for i := range names {
		names[i] = "p" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		values[names[i]] = []float64{0.01 * float64(i), float64(i) + 0.3, -0.5 * float64(i)}
	}
	spec := func(name string) problem.VariableSpec { return problem.VariableSpec{Name: name, Dim: 3} }
	require.NoError(t, p.AddResidualBlock(3, []problem.VariableSpec{spec(names[0])}, factor.NewPrior([]float64{0, 0, 0}), nil))
	h, err := loss.NewHuber(0.5)
	require.NoError(t, err)
	for i := 0; i+1 < n; i++ {
		b := factor.NewBetweenSE2(1, 0.1, 0.05)
		require.NoError(t, p.AddResidualBlock(3, []problem.VariableSpec{spec(names[i]), spec(names[i+1])}, b, h))
	}

	seq, err := p.Evaluate(values, true, 1)
	require.NoError(t, err)
	for _, w := range []int{2, 7, 0} {
		par, err := p.Evaluate(values, true, w)
		require.NoError(t, err)
		assert.Equal(t, seq.Residual, par.Residual)
		assert.Equal(t, seq.Cost, par.Cost)
		assert.Equal(t, seq.Jacobian.Values(), par.Jacobian.Values())
		assert.True(t, seq.Jacobian.SamePattern(par.Jacobian))
	}
}

func TestEvaluateMissingValues(t *testing.T) {
	p := smallProblem(t)
	v := smallValues()
	delete(v, "z")
	_, err := p.Evaluate(v, true, 1)
	assert.ErrorIs(t, err, problem.ErrMissingInitialValue)

	v = smallValues()
	v["y"] = []float64{1, 2}
	_, err = p.Evaluate(v, false, 1)
	assert.ErrorIs(t, err, problem.ErrDimensionMismatch)
}

func TestEvaluateDoesNotMutateValues(t *testing.T) {
	p := smallProblem(t)
	v := smallValues()
	_, err := p.Evaluate(v, true, 2)
	require.NoError(t, err)
	assert.Equal(t, smallValues(), v)
}

func TestHuberReweighting(t *testing.T) {
	p := problem.New()
	h, err := loss.NewHuber(1)
	require.NoError(t, err)
	require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("x")}, factor.NewPrior([]float64{0}), h))

	ev, err := p.Evaluate(map[string][]float64{"x": {3}}, true, 1)
	require.NoError(t, err)
	// ρ(9) = 2·1·3 − 1, ρ'(9) = 1/3
	assert.InDelta(t, 2.5, ev.Cost, 1e-12)
	assert.InDelta(t, math.Sqrt(3), ev.Residual[0], 1e-12)
	v, err := ev.Jacobian.At(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(1.0/3), v, 1e-12)

	// inlier: unchanged
	ev, err = p.Evaluate(map[string][]float64{"x": {0.5}}, true, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.125, ev.Cost, 1e-12)
	assert.InDelta(t, 0.5, ev.Residual[0], 1e-12)
}

func TestCombineSplit(t *testing.T) {
	p := smallProblem(t)
	flat, err := p.CombineVariables(smallValues())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.7, -30.2, 123.9}, flat)
	back, err := p.SplitVariables(flat)
	require.NoError(t, err)
	assert.Equal(t, smallValues(), back)
	_, err = p.SplitVariables(flat[:2])
	assert.ErrorIs(t, err, problem.ErrDimensionMismatch)
}

func TestFixedCoordinates(t *testing.T) {
	p := problem.New()
	require.NoError(t, p.AddResidualBlock(2, []problem.VariableSpec{{Name: "a", Dim: 2}}, factor.NewPrior([]float64{1, 1}), nil))
	require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("b")}, factor.NewPrior([]float64{5}), nil))
	require.NoError(t, p.FixVariable("a", 1))
	assert.True(t, p.IsFixed("a", 1))
	assert.False(t, p.IsFixed("a", 0))

	l := p.Layout()
	assert.Equal(t, 3, l.Rows)
	assert.Equal(t, 2, l.Cols)
	off, n, ok := l.Column("b")
	require.True(t, ok)
	assert.Equal(t, 1, off)
	assert.Equal(t, 1, n)

	values := map[string][]float64{"a": {0, 0}, "b": {0}}
	ev, err := p.Evaluate(values, true, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 1}, ev.Jacobian.ToDense().RawMatrix().Data)

	next, err := p.Plus(values, []float64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0}, next["a"])
	assert.Equal(t, []float64{3}, next["b"])

	require.NoError(t, p.FixVariable("a"))
	_, _, ok = p.Layout().Column("a")
	assert.False(t, ok, "fully fixed variables own no columns")
	require.NoError(t, p.UnfixVariable("a"))
	assert.Equal(t, 3, p.Layout().Cols)

	assert.ErrorIs(t, p.FixVariable("a", 2), problem.ErrIndexOutOfRange)
	assert.ErrorIs(t, p.FixVariable("zz"), problem.ErrUnknownVariable)
}

func TestBounds(t *testing.T) {
	p := smallProblem(t)
	require.NoError(t, p.SetVariableBounds("x", 0, -1, 1))
	lo, hi := p.Bounds("x", 0)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 1.0, hi)

	next, err := p.Plus(smallValues(), []float64{10, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, next["x"])

	assert.ErrorIs(t, p.SetVariableBounds("x", 0, 2, 1), problem.ErrInvalidBounds)
	assert.ErrorIs(t, p.SetVariableBounds("x", 0, math.NaN(), 1), problem.ErrInvalidBounds)
	assert.ErrorIs(t, p.SetVariableBounds("x", 3, 0, 1), problem.ErrIndexOutOfRange)

	require.NoError(t, p.RemoveVariableBounds("x"))
	next, err = p.Plus(smallValues(), []float64{10, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 10.7, next["x"][0], 1e-12)
}

func TestManifoldVariable(t *testing.T) {
	p := problem.New()
	pose := problem.VariableSpec{Name: "pose", Dim: 3}
	require.NoError(t, p.AddResidualBlock(3, []problem.VariableSpec{pose}, factor.NewPrior([]float64{0, 0, 0}), nil))
	require.NoError(t, p.SetManifold("pose", manifold.SE2{}))
	assert.Equal(t, manifold.SE2{}, p.Manifold("pose"))

	x := map[string][]float64{"pose": {0.4, 1, 2}}
	ev, err := p.Evaluate(x, true, 1)
	require.NoError(t, err)
	want, err := manifold.PlusJacobian(manifold.SE2{}, x["pose"])
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.RawMatrix().Data, ev.Jacobian.ToDense().RawMatrix().Data, 1e-12)

	step := []float64{0.1, 0.5, -0.2}
	next, err := p.Plus(x, step)
	require.NoError(t, err)
	direct, err := manifold.PlusValues(manifold.SE2{}, x["pose"], step)
	require.NoError(t, err)
	assert.Equal(t, direct, next["pose"])

	assert.ErrorIs(t, p.FixVariable("pose", 0), problem.ErrFixedManifold)
	assert.ErrorIs(t, p.SetManifold("pose", manifold.SE3{}), problem.ErrDimensionMismatch)

	require.NoError(t, p.SetManifold("pose", nil))
	require.NoError(t, p.FixVariable("pose", 2))
	assert.ErrorIs(t, p.SetManifold("pose", manifold.SE2{}), problem.ErrFixedManifold)
}

func TestComponents(t *testing.T) {
	p := problem.New()
	between := func() factor.Factor { return factor.NewBetweenSE2(1, 0, 0) }
	spec := func(n string) problem.VariableSpec { return problem.VariableSpec{Name: n, Dim: 3} }
	require.NoError(t, p.AddResidualBlock(3, []problem.VariableSpec{spec("a0"), spec("a1")}, between(), nil))
	require.NoError(t, p.AddResidualBlock(3, []problem.VariableSpec{spec("b0"), spec("b1")}, between(), nil))
	require.NoError(t, p.AddResidualBlock(3, []problem.VariableSpec{spec("a1"), spec("a2")}, between(), nil))
	require.NoError(t, p.AddResidualBlock(3, []problem.VariableSpec{spec("a0")}, factor.NewPrior([]float64{0, 0, 0}), nil))

	cs := p.Components()
	require.Len(t, cs, 2)
	assert.Equal(t, []string{"a0", "a1", "a2"}, cs[0].Variables)
	assert.True(t, cs[0].Anchored)
	assert.Equal(t, []string{"b0", "b1"}, cs[1].Variables)
	assert.False(t, cs[1].Anchored)

	require.NoError(t, p.FixVariable("b1"))
	assert.True(t, p.Components()[1].Anchored)
}

// TestHuberOutlierGrowth doubles one residual and compares how its cost
// contribution scales with and without a Huber loss.
func TestHuberOutlierGrowth(t *testing.T) {
	contribution := func(l loss.Loss, r float64) float64 {
		p := problem.New()
		require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("x")}, factor.NewPrior([]float64{0}), l))
		require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("y")}, factor.NewPrior([]float64{1}), l))
		c, err := p.Cost(map[string][]float64{"x": {r}, "y": {1.5}}, 1)
		require.NoError(t, err)
		return c
	}
	h, err := loss.NewHuber(1)
	require.NoError(t, err)

	base := contribution(h, 0)
	outlier := contribution(h, 10) - base
	doubled := contribution(h, 20) - base
	assert.Less(t, doubled/outlier, 4.0)
	assert.InDelta(t, 39.0/19.0, doubled/outlier, 1e-12)

	plainBase := contribution(nil, 0)
	plain := contribution(nil, 10) - plainBase
	plainDoubled := contribution(nil, 20) - plainBase
	assert.InDelta(t, 4.0, plainDoubled/plain, 1e-12)

	inlier := contribution(h, 0.25) - base
	inlierDoubled := contribution(h, 0.5) - base
	assert.InDelta(t, 4.0, inlierDoubled/inlier, 1e-12)
}

// TestEvaluateRecoversFactorPanics: a cost function that reads an input it
// was not given fails the evaluation instead of crashing a worker.
func TestEvaluateRecoversFactorPanics(t *testing.T) {
	outOfRange := factor.NewFunc(1, func(v []dual.Vector) dual.Vector {
		return dual.Vector{dual.Add(v[0][0], v[1][0])}
	})
	explode := factor.NewFunc(1, func(v []dual.Vector) dual.Vector {
		panic("boom")
	})
	for _, tc := range []struct {
		name string
		f    factor.Factor
		want error
	}{
		{"missing input", outOfRange, problem.ErrDimensionMismatch},
		{"other panic", explode, problem.ErrFactorPanic},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := problem.New()
			values := map[string][]float64{}
			for i := 0; i < 16; i++ {
				name := string(rune('a' + i))
				values[name] = []float64{float64(i)}
				require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar(name)}, factor.NewPrior([]float64{0}), nil))
			}
			require.NoError(t, p.AddResidualBlock(1, []problem.VariableSpec{scalar("h")}, tc.f, nil))

			for _, workers := range []int{1, 4} {
				_, err := p.Evaluate(values, true, workers)
				assert.ErrorIs(t, err, tc.want, "workers=%d", workers)
				_, err = p.Cost(values, workers)
				assert.ErrorIs(t, err, tc.want, "workers=%d", workers)
			}
		})
	}
}
