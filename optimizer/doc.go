// Package optimizer minimizes ½·Σ ρ(‖rᵢ(x)‖²) over a problem.Problem.
//
// Overview:
//
//   - Two methods share one driver and one Options type:
//   - GaussNewton: linearize, solve JᵗJ·δ = −Jᵗr, apply x ← x ⊞ δ. Every
//     step is taken; a singular system fails the solve.
//   - LevenbergMarquardt: the same step on a damped system. Columns are
//     Jacobi-scaled by 1/(1+‖J(:,j)‖) once, the damping term is
//     u·clamp(diag(JᵗJ), MinDiagonal, MaxDiagonal), and a trial step is
//     accepted only when the gain ratio ρ of actual to predicted decrease
//     is positive. On acceptance u shrinks by max(1/3, 1−(2ρ−1)³); on
//     rejection u grows by v and v doubles, the Jacobian is kept and the
//     iteration counter does not advance. More than
//     MaxConsecutiveRejections rejections in a row fail the solve.
//   - New("gn" | "lm") picks a method by name, for CLIs and config files.
//
// States:
//
//	Initialized → Iterating → {Converged, MaxIterationsReached, Failed}
//
// plus Canceled when the context is done; the context is checked once per
// outer iteration.
//
// Stopping criteria:
//
// Each is gated by Options.ActiveCriteria. ErrorTooSmall and
// GradientTolerance are checked before every solve, the rest after every
// accepted step. ‖r‖ = √(2·cost) is the error norm, so the error
// thresholds are in residual units, not squared ones.
//
//	– ErrorTooSmall:      ‖r‖ < MinError
//	– GradientTolerance:  max|Jᵗr| < GradientTolerance
//	– ParameterTolerance: ‖δ‖ ≤ ParameterTolerance·(‖x‖ + ParameterTolerance)
//	– FunctionTolerance:  |Δcost| / cost < FunctionTolerance
//	– AbsErrorDecrease:   |Δ‖r‖| < MinAbsErrorDecrease
//	– RelErrorDecrease:   |Δ‖r‖| / ‖r‖ < MinRelErrorDecrease
//
// MinAbsErrorDecrease is absolute: for residuals far below unit scale,
// lower it or drop CriterionAbsErrorDecrease from ActiveCriteria.
//
// Options:
//
//	– MaxIteration (100), LinearSolverType (SparseCholesky), VerbosityLevel (0)
//	– FunctionTolerance 1e-6, ParameterTolerance 1e-8, GradientTolerance 1e-10
//	– MinError 1e-10, MinAbsErrorDecrease 1e-5, MinRelErrorDecrease 1e-5
//	– Workers (GOMAXPROCS): residual evaluation pool, results are identical
//	  for any value
//	– LM: InitialTrustRegionRadius 1e4, MinDiagonal 1e-6, MaxDiagonal 1e32,
//	  MaxConsecutiveRejections 10, JacobiScaling true
//	– Logger (discard): iteration lines at VerbosityLevel ≥ 1, solve timing
//	  and rejected steps at ≥ 2
//
// Options load from YAML with LoadOptions (unknown fields are rejected) and
// are layered with WithX setters. A setter given an invalid value records
// it; NewOptions and Optimize then fail with ErrInvalidConfiguration.
//
// Complexity:
//
//	– Per iteration: one evaluation O(Σ blockCost), one sparse assembly
//	  O(nnz(J)), one factorization (see package sparse).
//	– LM rejections repeat only the factorization and one evaluation.
//	– Space: O(nnz(J) + nnz(L)) plus the iteration history.
//
// Errors (sentinel):
//
//	– ErrInvalidConfiguration an option outside its domain or an unknown method.
//	– ErrMissingInitialValue  a registered variable has no initial value.
//	– ErrDimensionMismatch    an initial value has the wrong length.
//	– ErrSingularSystem       Gauss-Newton hit a singular normal system.
//	– ErrRetryCapExhausted    Levenberg-Marquardt rejected too many steps.
//	– ErrNonFiniteCost        the cost became NaN or ±Inf (LM rejects such
//	                          trial steps instead and fails only at the start).
//	– ErrNilProblem           Optimize received a nil problem.
//
// MaxIterationsReached is a status, not an error. Failures return the last
// valid values together with the error.
//
// Example:
//
//	res, err := optimizer.GaussNewton{}.Optimize(ctx, p, initial,
//	    optimizer.WithMaxIteration(50),
//	    optimizer.WithLinearSolver(linear.SparseQR),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Status, res.FinalCost)
package optimizer
