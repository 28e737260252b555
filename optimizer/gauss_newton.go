package optimizer

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/lvlopt/problem"
)

// GaussNewton takes the full Gauss-Newton step every iteration. Options
// are applied before the per-call options.
type GaussNewton struct {
	Options []Option
}

// Optimize runs Gauss-Newton on p from initial.
func (g GaussNewton) Optimize(ctx context.Context, p *problem.Problem, initial map[string][]float64, opts ...Option) (*Result, error) {
	r, err := newRun(p, initial, append(append([]Option(nil), g.Options...), opts...))
	if err != nil {
		return nil, err
	}

	return r.gaussNewton(ctx)
}

func (r *run) gaussNewton(ctx context.Context) (*Result, error) {
	ev, err := r.evaluate(r.x, true)
	if err != nil {
		return r.finish(StatusFailed, 0, err)
	}
	cost := ev.Cost
	r.res.InitialCost = cost
	if ev.Layout.Cols == 0 {
		return r.finish(StatusConvergedParameterTolerance, cost, nil)
	}

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

		delta, err := r.solve(func() ([]float64, error) { return r.solver.Solve(ev.Jacobian, ev.Residual) })
		if err != nil {
			return r.finish(StatusFailed, cost, err)
		}
		next, err := r.p.Plus(r.x, delta)
		if err != nil {
			return r.finish(StatusFailed, cost, err)
		}
		nextEv, err := r.evaluate(next, true)
		if err != nil {
			return r.finish(StatusFailed, cost, err)
		}

		stepNorm := floats.Norm(delta, 2)
		xNorm := r.paramNorm()
		prev := cost
		r.x, ev, cost = next, nextEv, nextEv.Cost
		r.res.Iterations++
		r.record(IterationSummary{
			Iteration:   r.res.Iterations,
			Cost:        cost,
			CostChange:  prev - cost,
			StepNorm:    stepNorm,
			GradientMax: gmax,
			Accepted:    true,
		})
		if st, ok := r.postStep(prev, cost, stepNorm, xNorm); ok {
			return r.finish(st, cost, nil)
		}
	}
}
