package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/katalvlaran/lvlopt/linear"
	"github.com/katalvlaran/lvlopt/optimizer"
)

func TestDefaultOptionsValid(t *testing.T) {
	o := optimizer.DefaultOptions()
	require.NoError(t, o.Validate())
	assert.Equal(t, 100, o.MaxIteration)
	assert.Equal(t, linear.SparseCholesky, o.LinearSolverType)
	assert.Equal(t, optimizer.AllCriteria, o.ActiveCriteria)
	assert.Equal(t, 10, o.MaxConsecutiveRejections)
	assert.True(t, o.JacobiScaling)
}

func TestNewOptions(t *testing.T) {
	o, err := optimizer.NewOptions(
		optimizer.WithMaxIteration(7),
		optimizer.WithLinearSolver(linear.SparseQR),
		optimizer.WithVerbosity(2),
		optimizer.WithTolerances(1e-3, 1e-4, 1e-5),
		optimizer.WithErrorThresholds(1e-12, 0, 0),
		optimizer.WithWorkers(3),
		optimizer.WithTrustRegion(100, 4),
		optimizer.WithJacobiScaling(false),
	)
	require.NoError(t, err)
	assert.Equal(t, 7, o.MaxIteration)
	assert.Equal(t, linear.SparseQR, o.LinearSolverType)
	assert.Equal(t, 2, o.VerbosityLevel)
	assert.Equal(t, 1e-4, o.ParameterTolerance)
	assert.Equal(t, 1e-12, o.MinError)
	assert.Equal(t, 3, o.Workers)
	assert.Equal(t, 100.0, o.InitialTrustRegionRadius)
	assert.Equal(t, 4, o.MaxConsecutiveRejections)
	assert.False(t, o.JacobiScaling)
}

func TestInvalidOptions(t *testing.T) {
	cases := map[string]optimizer.Option{
		"max iteration":   optimizer.WithMaxIteration(-1),
		"verbosity":       optimizer.WithVerbosity(-2),
		"workers":         optimizer.WithWorkers(-1),
		"solver":          optimizer.WithLinearSolver(linear.SolverType(5)),
		"tolerance":       optimizer.WithTolerances(-1, 0, 0),
		"radius":          optimizer.WithTrustRegion(0, 10),
		"rejections":      optimizer.WithTrustRegion(1e4, 0),
		"criteria":        optimizer.WithCriteria(1 << 10),
		"error threshold": optimizer.WithErrorThresholds(-1, 0, 0),
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := optimizer.NewOptions(opt)
			assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	o, err := optimizer.LoadOptions([]byte(`
maxIteration: 25
linearSolverType: SparseQR
verbosityLevel: 1
parameterTolerance: 1e-6
activeCriteria: parameter,gradient
jacobiScaling: false
`))
	require.NoError(t, err)
	assert.Equal(t, 25, o.MaxIteration)
	assert.Equal(t, linear.SparseQR, o.LinearSolverType)
	assert.Equal(t, 1, o.VerbosityLevel)
	assert.Equal(t, 1e-6, o.ParameterTolerance)
	assert.Equal(t, optimizer.CriterionParameterTolerance|optimizer.CriterionGradientTolerance, o.ActiveCriteria)
	assert.False(t, o.JacobiScaling)
	assert.Equal(t, 1e-6, o.FunctionTolerance, "unset fields keep their defaults")

	_, err = optimizer.LoadOptions([]byte("maxIteration: 0\n"))
	assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration)
	_, err = optimizer.LoadOptions([]byte("linearSolverType: LU\n"))
	assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration)
	_, err = optimizer.LoadOptions([]byte("maxIterations: 3\n"))
	assert.ErrorIs(t, err, optimizer.ErrInvalidConfiguration, "unknown fields are rejected")
}

func TestOptionsRoundTripYAML(t *testing.T) {
	o := optimizer.DefaultOptions()
	o.ActiveCriteria = optimizer.CriterionMinError | optimizer.CriterionRelErrorDecrease
	o.LinearSolverType = linear.SparseQR
	data, err := yaml.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(data), "error,relDecrease")
	assert.Contains(t, string(data), "linearSolverType: SparseQR")

	back, err := optimizer.LoadOptions(data)
	require.NoError(t, err)
	assert.Equal(t, o.ActiveCriteria, back.ActiveCriteria)
	assert.Equal(t, o.LinearSolverType, back.LinearSolverType)
	assert.Equal(t, o.MaxDiagonal, back.MaxDiagonal)
}

func TestCriteriaText(t *testing.T) {
	var c optimizer.Criteria
	require.NoError(t, c.UnmarshalText([]byte("all")))
	assert.Equal(t, optimizer.AllCriteria, c)
	assert.Equal(t, "all", c.String())
	require.NoError(t, c.UnmarshalText([]byte("none")))
	assert.Equal(t, "none", c.String())
	require.NoError(t, c.UnmarshalText([]byte("Function, absDecrease")))
	assert.True(t, c.Has(optimizer.CriterionFunctionTolerance))
	assert.True(t, c.Has(optimizer.CriterionAbsErrorDecrease))
	assert.False(t, c.Has(optimizer.CriterionGradientTolerance))
	assert.ErrorIs(t, c.UnmarshalText([]byte("speed")), optimizer.ErrInvalidConfiguration)
}
