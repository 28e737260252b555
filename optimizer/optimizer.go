package optimizer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/lvlopt/linear"
	"github.com/katalvlaran/lvlopt/problem"
)

// Optimizer minimizes the cost of a problem from initial values. The
// initial map is never modified.
type Optimizer interface {
	Optimize(ctx context.Context, p *problem.Problem, initial map[string][]float64, opts ...Option) (*Result, error)
}

// New returns the optimizer named by method: "gn" / "gauss-newton" or
// "lm" / "levenberg-marquardt".
func New(method string, opts ...Option) (Optimizer, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "gn", "gauss-newton", "gaussnewton":
		return GaussNewton{Options: opts}, nil
	case "lm", "levenberg-marquardt", "levenbergmarquardt":
		return LevenbergMarquardt{Options: opts}, nil
	}

	return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidConfiguration, method)
}

// run is the state of one solve.
type run struct {
	p      *problem.Problem
	o      Options
	log    logr.Logger
	solver linear.Solver
	res    *Result
	x      map[string][]float64
	start  time.Time
}

func newRun(p *problem.Problem, initial map[string][]float64, opts []Option) (*run, error) {
	if p == nil {
		return nil, ErrNilProblem
	}
	o, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	if err := p.CheckValues(initial); err != nil {
		return nil, err
	}
	solver, err := linear.New(o.LinearSolverType, linear.WithLogger(o.Logger))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	x := problem.CloneValues(initial)

	return &run{
		p:      p,
		o:      o,
		log:    o.Logger,
		solver: solver,
		x:      x,
		start:  time.Now(),
		res: &Result{
			Values:  x,
			Status:  StatusFailed,
			Summary: Summary{Columns: p.Layout().Cols},
		},
	}, nil
}

// evaluate times one problem evaluation and rejects non-finite costs.
func (r *run) evaluate(values map[string][]float64, wantJacobian bool) (*problem.Evaluation, error) {
	t := time.Now()
	ev, err := r.p.Evaluate(values, wantJacobian, r.o.Workers)
	r.res.Summary.EvaluationTime += time.Since(t)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(ev.Cost) || math.IsInf(ev.Cost, 0) {
		return nil, fmt.Errorf("%w: %g", ErrNonFiniteCost, ev.Cost)
	}

	return ev, nil
}

// solve times one linear solve and tracks the rank it saw.
func (r *run) solve(fn func() ([]float64, error)) ([]float64, error) {
	t := time.Now()
	delta, err := fn()
	elapsed := time.Since(t)
	r.res.Summary.SolveTime += elapsed
	r.res.Summary.LinearSolves++
	if err != nil {
		return nil, err
	}
	r.res.Summary.Rank = r.solver.LastRank()
	if r.o.VerbosityLevel >= 2 {
		r.log.Info("linear solve", "solver", r.solver.Type().String(), "elapsed", elapsed)
	}

	return delta, nil
}

// gradientMax returns max|Jᵗr| at ev.
func gradientMax(ev *problem.Evaluation) (float64, error) {
	g, err := ev.Jacobian.MulTransVec(ev.Residual)
	if err != nil {
		return 0, err
	}
	if len(g) == 0 {
		return 0, nil
	}

	return floats.Norm(g, math.Inf(1)), nil
}

// paramNorm returns ‖x‖ over every registered variable.
func (r *run) paramNorm() float64 {
	flat, err := r.p.CombineVariables(r.x)
	if err != nil {
		return 0
	}

	return floats.Norm(flat, 2)
}

// smallStep reports whether a step of norm stepNorm meets the parameter
// tolerance.
func (r *run) smallStep(stepNorm, xNorm float64) bool {
	tol := r.o.ParameterTolerance
	return r.o.ActiveCriteria.Has(CriterionParameterTolerance) && stepNorm <= tol*(xNorm+tol)
}

// errorNorm is ‖r‖ recovered from cost = ½‖r‖². The error thresholds
// compare against it, not against the cost.
func errorNorm(cost float64) float64 { return math.Sqrt(2 * math.Max(cost, 0)) }

// preStep checks the criteria that need no step: error and gradient.
func (r *run) preStep(cost, gmax float64) (Status, bool) {
	c := r.o.ActiveCriteria
	switch {
	case c.Has(CriterionMinError) && errorNorm(cost) < r.o.MinError:
		return StatusConvergedErrorTooSmall, true
	case c.Has(CriterionGradientTolerance) && gmax < r.o.GradientTolerance:
		return StatusConvergedGradientTolerance, true
	}

	return 0, false
}

// postStep checks the criteria after an accepted step from prev to cost.
// FunctionTolerance is relative to the cost; MinError and the error
// decrease thresholds apply to ‖r‖.
func (r *run) postStep(prev, cost, stepNorm, xNorm float64) (Status, bool) {
	c := r.o.ActiveCriteria
	costRel := 0.0
	if prev > 0 {
		costRel = math.Abs(prev-cost) / prev
	}
	prevErr, curErr := errorNorm(prev), errorNorm(cost)
	errChange := math.Abs(prevErr - curErr)
	errRel := 0.0
	if prevErr > 0 {
		errRel = errChange / prevErr
	}
	switch {
	case c.Has(CriterionMinError) && curErr < r.o.MinError:
		return StatusConvergedErrorTooSmall, true
	case r.smallStep(stepNorm, xNorm):
		return StatusConvergedParameterTolerance, true
	case c.Has(CriterionFunctionTolerance) && costRel < r.o.FunctionTolerance:
		return StatusConvergedFunctionTolerance, true
	case c.Has(CriterionAbsErrorDecrease) && errChange < r.o.MinAbsErrorDecrease:
		return StatusConvergedAbsErrorDecrease, true
	case c.Has(CriterionRelErrorDecrease) && errRel < r.o.MinRelErrorDecrease:
		return StatusConvergedRelErrorDecrease, true
	}

	return 0, false
}

// canceled reports whether ctx is done.
func canceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// record appends an iteration to the history and logs it.
func (r *run) record(it IterationSummary) {
	it.Elapsed = time.Since(r.start)
	r.res.Summary.History = append(r.res.Summary.History, it)
	if it.Accepted {
		r.res.Summary.Accepted++
	} else {
		r.res.Summary.Rejected++
	}
	switch {
	case it.Accepted && r.o.VerbosityLevel >= 1:
		kv := []any{"iter", it.Iteration, "cost", it.Cost, "costChange", it.CostChange,
			"stepNorm", it.StepNorm, "gradientMax", it.GradientMax, "elapsed", it.Elapsed}
		if it.Lambda != 0 {
			kv = append(kv, "lambda", it.Lambda)
		}
		r.log.Info("iteration", kv...)
	case !it.Accepted && r.o.VerbosityLevel >= 2:
		r.log.Info("rejected step", "iter", it.Iteration, "trialCost", it.Cost, "lambda", it.Lambda)
	}
}

// finish stores the terminal state. Values always hold the last accepted
// iterate.
func (r *run) finish(status Status, cost float64, err error) (*Result, error) {
	r.res.Status = status
	r.res.Values = r.x
	r.res.FinalCost = cost
	switch {
	case err != nil:
		r.log.Error(err, "optimization stopped", "status", status.String(), "iterations", r.res.Iterations)
	case r.o.VerbosityLevel >= 1:
		r.log.Info("optimization finished", "status", status.String(), "iterations", r.res.Iterations,
			"initialCost", r.res.InitialCost, "finalCost", cost, "elapsed", time.Since(r.start))
	}

	return r.res, err
}
