package optimizer

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/go-logr/logr"
	"sigs.k8s.io/yaml"

	"github.com/katalvlaran/lvlopt/linear"
)

// Criteria is a set of stopping criteria.
type Criteria uint

const (
	// CriterionFunctionTolerance: relative cost change below FunctionTolerance.
	CriterionFunctionTolerance Criteria = 1 << iota
	// CriterionParameterTolerance: step small relative to the parameters.
	CriterionParameterTolerance
	// CriterionGradientTolerance: max|Jᵗr| below GradientTolerance.
	CriterionGradientTolerance
	// CriterionMinError: ‖r‖ below MinError.
	CriterionMinError
	// CriterionAbsErrorDecrease: ‖r‖ changed by less than MinAbsErrorDecrease.
	CriterionAbsErrorDecrease
	// CriterionRelErrorDecrease: ‖r‖ changed by less than MinRelErrorDecrease·‖r‖.
	CriterionRelErrorDecrease

	// AllCriteria enables every criterion.
	AllCriteria = CriterionFunctionTolerance | CriterionParameterTolerance | CriterionGradientTolerance |
		CriterionMinError | CriterionAbsErrorDecrease | CriterionRelErrorDecrease
)

var criterionNames = []struct {
	c    Criteria
	name string
}{
	{CriterionFunctionTolerance, "function"},
	{CriterionParameterTolerance, "parameter"},
	{CriterionGradientTolerance, "gradient"},
	{CriterionMinError, "error"},
	{CriterionAbsErrorDecrease, "absDecrease"},
	{CriterionRelErrorDecrease, "relDecrease"},
}

// Has reports whether c includes x.
func (c Criteria) Has(x Criteria) bool { return c&x != 0 }

// String lists the enabled criteria, or "all" / "none".
func (c Criteria) String() string {
	if c == AllCriteria {
		return "all"
	}
	var parts []string
	for _, n := range criterionNames {
		if c.Has(n.c) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}

	return strings.Join(parts, ",")
}

// MarshalText writes a comma-separated list of criterion names.
func (c Criteria) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses "all", "none" or a comma-separated list of
// function, parameter, gradient, error, absDecrease and relDecrease.
func (c *Criteria) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	switch strings.ToLower(s) {
	case "all":
		*c = AllCriteria
		return nil
	case "none", "":
		*c = 0
		return nil
	}
	var out Criteria
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		found := false
		for _, n := range criterionNames {
			if strings.EqualFold(part, n.name) {
				out |= n.c
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: unknown criterion %q", ErrInvalidConfiguration, part)
		}
	}
	*c = out

	return nil
}

// Options configures a solve. The zero value is not valid; start from
// DefaultOptions or use NewOptions.
type Options struct {
	// MaxIteration caps the accepted outer iterations (> 0).
	MaxIteration int `json:"maxIteration"`
	// LinearSolverType selects the factorization.
	LinearSolverType linear.SolverType `json:"linearSolverType"`
	// VerbosityLevel: 0 silent, 1 one line per iteration, 2 adds linear
	// solve timing and rejected LM steps.
	VerbosityLevel int `json:"verbosityLevel"`

	// FunctionTolerance bounds the relative cost change |Δcost|/cost.
	FunctionTolerance float64 `json:"functionTolerance"`
	// ParameterTolerance bounds ‖δ‖ relative to ‖x‖.
	ParameterTolerance float64 `json:"parameterTolerance"`
	// GradientTolerance bounds max|Jᵗr|.
	GradientTolerance float64 `json:"gradientTolerance"`
	// MinError stops once the error norm ‖r‖ = √(2·cost) falls below it.
	MinError float64 `json:"minError"`
	// MinAbsErrorDecrease stops once an accepted step changes ‖r‖ by less.
	MinAbsErrorDecrease float64 `json:"minAbsErrorDecrease"`
	// MinRelErrorDecrease stops once an accepted step changes ‖r‖ by less
	// than this fraction of the previous ‖r‖.
	MinRelErrorDecrease float64 `json:"minRelErrorDecrease"`
	// ActiveCriteria selects which of the above may stop the solve.
	ActiveCriteria Criteria `json:"activeCriteria"`

	// Workers is the residual evaluation pool size (1 = sequential).
	Workers int `json:"workers"`

	// Levenberg-Marquardt.
	InitialTrustRegionRadius float64 `json:"initialTrustRegionRadius"`
	MinDiagonal              float64 `json:"minDiagonal"`
	MaxDiagonal              float64 `json:"maxDiagonal"`
	MaxConsecutiveRejections int     `json:"maxConsecutiveRejections"`
	JacobiScaling            bool    `json:"jacobiScaling"`

	// Logger receives diagnostics; the default discards them.
	Logger logr.Logger `json:"-"`

	err error
}

// DefaultOptions returns the defaults:
//   - 100 iterations, sparse Cholesky, silent
//   - FunctionTolerance 1e-6, ParameterTolerance 1e-8, GradientTolerance 1e-10
//   - MinError 1e-10, MinAbsErrorDecrease 1e-5, MinRelErrorDecrease 1e-5 (on ‖r‖)
//   - every criterion active, GOMAXPROCS workers
//   - LM: radius 1e4, diagonal clamp [1e-6, 1e32], 10 rejections, Jacobi scaling.
func DefaultOptions() Options {
	return Options{
		MaxIteration:             100,
		LinearSolverType:         linear.SparseCholesky,
		VerbosityLevel:           0,
		FunctionTolerance:        1e-6,
		ParameterTolerance:       1e-8,
		GradientTolerance:        1e-10,
		MinError:                 1e-10,
		MinAbsErrorDecrease:      1e-5,
		MinRelErrorDecrease:      1e-5,
		ActiveCriteria:           AllCriteria,
		Workers:                  runtime.GOMAXPROCS(0),
		InitialTrustRegionRadius: 1e4,
		MinDiagonal:              1e-6,
		MaxDiagonal:              1e32,
		MaxConsecutiveRejections: 10,
		JacobiScaling:            true,
		Logger:                   logr.Discard(),
	}
}

// Option customizes Options. An invalid literal is recorded and reported
// as ErrInvalidConfiguration by NewOptions and Optimize.
type Option func(*Options)

// NewOptions applies opts over the defaults and validates the result.
func NewOptions(opts ...Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return o, o.err
	}

	return o, o.Validate()
}

// LoadOptions decodes YAML (or JSON) over the defaults and validates it.
// Unknown fields are rejected.
func LoadOptions(data []byte) (Options, error) {
	o := DefaultOptions()
	if err := yaml.UnmarshalStrict(data, &o); err != nil {
		return o, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	return o, o.Validate()
}

// Apply returns a copy of o with opts applied and validated.
func (o Options) Apply(opts ...Option) (Options, error) {
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return o, o.err
	}

	return o, o.Validate()
}

// Validate checks every field.
func (o Options) Validate() error {
	bad := func(field string, v any) error {
		return fmt.Errorf("%w: %s = %v", ErrInvalidConfiguration, field, v)
	}
	nonNeg := func(x float64) bool { return x >= 0 && !math.IsNaN(x) && !math.IsInf(x, 0) }
	switch {
	case o.MaxIteration <= 0:
		return bad("MaxIteration", o.MaxIteration)
	case o.LinearSolverType != linear.SparseCholesky && o.LinearSolverType != linear.SparseQR:
		return bad("LinearSolverType", o.LinearSolverType)
	case o.VerbosityLevel < 0:
		return bad("VerbosityLevel", o.VerbosityLevel)
	case !nonNeg(o.FunctionTolerance):
		return bad("FunctionTolerance", o.FunctionTolerance)
	case !nonNeg(o.ParameterTolerance):
		return bad("ParameterTolerance", o.ParameterTolerance)
	case !nonNeg(o.GradientTolerance):
		return bad("GradientTolerance", o.GradientTolerance)
	case !nonNeg(o.MinError):
		return bad("MinError", o.MinError)
	case !nonNeg(o.MinAbsErrorDecrease):
		return bad("MinAbsErrorDecrease", o.MinAbsErrorDecrease)
	case !nonNeg(o.MinRelErrorDecrease):
		return bad("MinRelErrorDecrease", o.MinRelErrorDecrease)
	case o.ActiveCriteria&^AllCriteria != 0:
		return bad("ActiveCriteria", uint(o.ActiveCriteria))
	case o.Workers < 0:
		return bad("Workers", o.Workers)
	case !(o.InitialTrustRegionRadius > 0) || math.IsInf(o.InitialTrustRegionRadius, 0):
		return bad("InitialTrustRegionRadius", o.InitialTrustRegionRadius)
	case !(o.MinDiagonal > 0) || !(o.MaxDiagonal >= o.MinDiagonal):
		return bad("MinDiagonal/MaxDiagonal", fmt.Sprintf("[%g, %g]", o.MinDiagonal, o.MaxDiagonal))
	case o.MaxConsecutiveRejections <= 0:
		return bad("MaxConsecutiveRejections", o.MaxConsecutiveRejections)
	}

	return nil
}

// WithMaxIteration sets MaxIteration; n ≤ 0 is invalid.
func WithMaxIteration(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			o.err = fmt.Errorf("%w: MaxIteration must be positive (%d)", ErrInvalidConfiguration, n)
			return
		}
		o.MaxIteration = n
	}
}

// WithLinearSolver selects the factorization.
func WithLinearSolver(t linear.SolverType) Option {
	return func(o *Options) {
		o.LinearSolverType = t
	}
}

// WithVerbosity sets VerbosityLevel; negative levels are invalid.
func WithVerbosity(level int) Option {
	return func(o *Options) {
		if level < 0 {
			o.err = fmt.Errorf("%w: VerbosityLevel cannot be negative (%d)", ErrInvalidConfiguration, level)
			return
		}
		o.VerbosityLevel = level
	}
}

// WithTolerances sets the function, parameter and gradient tolerances.
func WithTolerances(function, parameter, gradient float64) Option {
	return func(o *Options) {
		o.FunctionTolerance = function
		o.ParameterTolerance = parameter
		o.GradientTolerance = gradient
	}
}

// WithErrorThresholds sets MinError, MinAbsErrorDecrease and
// MinRelErrorDecrease.
func WithErrorThresholds(minError, absDecrease, relDecrease float64) Option {
	return func(o *Options) {
		o.MinError = minError
		o.MinAbsErrorDecrease = absDecrease
		o.MinRelErrorDecrease = relDecrease
	}
}

// WithCriteria selects the active stopping criteria.
func WithCriteria(c Criteria) Option {
	return func(o *Options) {
		o.ActiveCriteria = c
	}
}

// WithWorkers sets the evaluation pool size; 0 selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = fmt.Errorf("%w: Workers cannot be negative (%d)", ErrInvalidConfiguration, n)
			return
		}
		if n == 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.Workers = n
	}
}

// WithTrustRegion sets the initial radius (the inverse initial damping)
// and the retry cap of Levenberg-Marquardt.
func WithTrustRegion(radius float64, maxRejections int) Option {
	return func(o *Options) {
		o.InitialTrustRegionRadius = radius
		o.MaxConsecutiveRejections = maxRejections
	}
}

// WithJacobiScaling toggles column scaling in Levenberg-Marquardt.
func WithJacobiScaling(on bool) Option {
	return func(o *Options) {
		o.JacobiScaling = on
	}
}

// WithLogger routes diagnostics to l.
func WithLogger(l logr.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithOptions replaces every field with base, keeping the logger when base
// has none.
func WithOptions(base Options) Option {
	return func(o *Options) {
		log := o.Logger
		*o = base
		if o.Logger.GetSink() == nil {
			o.Logger = log
		}
	}
}
