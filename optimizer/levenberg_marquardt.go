package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/lvlopt/problem"
	"github.com/katalvlaran/lvlopt/sparse"
)

// LevenbergMarquardt damps the Gauss-Newton step and accepts it only when
// the cost decreases. Options are applied before the per-call options.
type LevenbergMarquardt struct {
	Options []Option
}

// Optimize runs Levenberg-Marquardt on p from initial.
func (l LevenbergMarquardt) Optimize(ctx context.Context, p *problem.Problem, initial map[string][]float64, opts ...Option) (*Result, error) {
	r, err := newRun(p, initial, append(append([]Option(nil), l.Options...), opts...))
	if err != nil {
		return nil, err
	}

	return r.levenbergMarquardt(ctx)
}

// jacobiScale returns 1/(1+‖J(:,j)‖) per column, or ones when disabled.
func (r *run) jacobiScale(j *sparse.CSC) []float64 {
	_, n := j.Dims()
	scale := make([]float64, n)
	if !r.o.JacobiScaling {
		floats.AddConst(1, scale)
		return scale
	}
	for k, norm := range j.ColumnNorms() {
		scale[k] = 1 / (1 + norm)
	}

	return scale
}

func (r *run) levenbergMarquardt(ctx context.Context) (*Result, error) {
	ev, err := r.evaluate(r.x, true)
	if err != nil {
		return r.finish(StatusFailed, 0, err)
	}
	cost := ev.Cost
	r.res.InitialCost = cost
	if ev.Layout.Cols == 0 {
		return r.finish(StatusConvergedParameterTolerance, cost, nil)
	}

	scale := r.jacobiScale(ev.Jacobian)
	u, v := 1/r.o.InitialTrustRegionRadius, 2.0

outer:
	for {
		if canceled(ctx) {
			return r.finish(StatusCanceled, cost, ctx.Err())
		}
		gmax, err := gradientMax(ev)
		if err != nil {
			return r.finish(StatusFailed, cost, err)
		}
		if st, ok := r.preStep(cost, gmax); ok {
			return r.finish(st, cost, nil)
		}
		if r.res.Iterations >= r.o.MaxIteration {
			return r.finish(StatusMaxIterationsReached, cost, nil)
		}

		// Scaled normal equations: H = JsᵗJs, g = −Jsᵗr.
		js, err := ev.Jacobian.ScaleColumns(scale)
		if err != nil {
			return r.finish(StatusFailed, cost, err)
		}
		h := js.AtA()
		g, err := js.MulTransVec(ev.Residual)
		if err != nil {
			return r.finish(StatusFailed, cost, err)
		}
		floats.Scale(-1, g)
		diag, err := h.Diagonal()
		if err != nil {
			return r.finish(StatusFailed, cost, err)
		}
		for i, d := range diag {
			diag[i] = math.Min(math.Max(d, r.o.MinDiagonal), r.o.MaxDiagonal)
		}
		xNorm := r.paramNorm()

		var lastErr error
		for rejections := 0; ; {
			damping := make([]float64, len(diag))
			floats.ScaleTo(damping, u, diag)
			hd, err := h.AddDiagonal(damping)
			if err != nil {
				return r.finish(StatusFailed, cost, err)
			}
			step, err := r.solve(func() ([]float64, error) { return r.solver.SolveNormal(hd, g) })
			switch {
			case errors.Is(err, ErrSingularSystem):
				lastErr = err
			case err != nil:
				return r.finish(StatusFailed, cost, err)
			default:
				delta := make([]float64, len(step))
				floats.MulTo(delta, step, scale)
				stepNorm := floats.Norm(delta, 2)
				if r.smallStep(stepNorm, xNorm) {
					return r.finish(StatusConvergedParameterTolerance, cost, nil)
				}
				next, nextEv, rho, err := r.trial(delta, step, damping, g, cost)
				if err != nil {
					return r.finish(StatusFailed, cost, err)
				}
				if rho > 0 {
					u *= math.Max(1.0/3, 1-math.Pow(2*rho-1, 3))
					v = 2
					prev := cost
					r.x, ev, cost = next, nextEv, nextEv.Cost
					r.res.Iterations++
					r.record(IterationSummary{
						Iteration:   r.res.Iterations,
						Cost:        cost,
						CostChange:  prev - cost,
						StepNorm:    stepNorm,
						GradientMax: gmax,
						Lambda:      u,
						Accepted:    true,
					})
					if st, ok := r.postStep(prev, cost, stepNorm, xNorm); ok {
						return r.finish(st, cost, nil)
					}
					continue outer
				}
				r.record(IterationSummary{Iteration: r.res.Iterations + 1, Cost: nextCost(nextEv, cost), StepNorm: stepNorm, Lambda: u})
			}

			u *= v
			v *= 2
			rejections++
			if rejections > r.o.MaxConsecutiveRejections {
				err := fmt.Errorf("%w: %d in a row", ErrRetryCapExhausted, rejections)
				if lastErr != nil {
					err = fmt.Errorf("%w: %w", err, lastErr)
				}
				return r.finish(StatusFailed, cost, err)
			}
		}
	}
}

// trial evaluates x ⊞ delta and returns the gain ratio of the actual to the
// predicted decrease; rho ≤ 0 rejects the step. The predicted decrease of
// ½‖r‖² under the damped model is ½·stepᵗ(D·step + g) in scaled space.
func (r *run) trial(delta, step, damping, g []float64, cost float64) (map[string][]float64, *problem.Evaluation, float64, error) {
	next, err := r.p.Plus(r.x, delta)
	if err != nil {
		return nil, nil, 0, err
	}
	ev, err := r.evaluate(next, true)
	if errors.Is(err, ErrNonFiniteCost) {
		return nil, nil, -1, nil
	}
	if err != nil {
		return nil, nil, 0, err
	}
	predicted := 0.0
	for i, s := range step {
		predicted += s * (damping[i]*s + g[i])
	}
	if !(predicted > 0) {
		return next, ev, -1, nil
	}

	return next, ev, 2 * (cost - ev.Cost) / predicted, nil
}

// nextCost is the trial cost for the history, or the current cost when the
// trial was not finite.
func nextCost(ev *problem.Evaluation, cost float64) float64 {
	if ev == nil {
		return cost
	}

	return ev.Cost
}
