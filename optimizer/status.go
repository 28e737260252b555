package optimizer

import (
	"fmt"
	"time"
)

// Status is the terminal state of a solve.
type Status int

const (
	// StatusConvergedFunctionTolerance: relative cost change below tolerance.
	StatusConvergedFunctionTolerance Status = iota
	// StatusConvergedParameterTolerance: step small relative to the parameters.
	StatusConvergedParameterTolerance
	// StatusConvergedGradientTolerance: max|Jᵗr| below tolerance.
	StatusConvergedGradientTolerance
	// StatusConvergedErrorTooSmall: cost below MinError.
	StatusConvergedErrorTooSmall
	// StatusConvergedAbsErrorDecrease: absolute cost decrease below threshold.
	StatusConvergedAbsErrorDecrease
	// StatusConvergedRelErrorDecrease: relative cost decrease below threshold.
	StatusConvergedRelErrorDecrease
	// StatusMaxIterationsReached: MaxIteration accepted steps without converging.
	StatusMaxIterationsReached
	// StatusFailed: the solve could not continue; see the returned error.
	StatusFailed
	// StatusCanceled: the context was done.
	StatusCanceled
)

var statusNames = [...]string{
	"ConvergedFunctionTolerance",
	"ConvergedParameterTolerance",
	"ConvergedGradientTolerance",
	"ConvergedErrorTooSmall",
	"ConvergedAbsErrorDecrease",
	"ConvergedRelErrorDecrease",
	"MaxIterationsReached",
	"Failed",
	"Canceled",
}

// String returns the status name, or "Status(n)" when unknown.
func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}

	return fmt.Sprintf("Status(%d)", int(s))
}

// Converged reports whether s is one of the converged states.
func (s Status) Converged() bool { return s <= StatusConvergedRelErrorDecrease && s >= 0 }

// IterationSummary records one accepted (or, for LM, rejected) step.
type IterationSummary struct {
	Iteration   int           `json:"iteration"`
	Cost        float64       `json:"cost"`
	CostChange  float64       `json:"costChange"`
	StepNorm    float64       `json:"stepNorm"`
	GradientMax float64       `json:"gradientMax"`
	Lambda      float64       `json:"lambda,omitempty"`
	Accepted    bool          `json:"accepted"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Summary collects statistics of a solve.
type Summary struct {
	Accepted       int           `json:"accepted"`
	Rejected       int           `json:"rejected"`
	LinearSolves   int           `json:"linearSolves"`
	EvaluationTime time.Duration `json:"evaluationTime"`
	SolveTime      time.Duration `json:"solveTime"`

	// Rank is the numerical rank seen by the last linear solve, out of
	// Columns.
	Rank    int `json:"rank"`
	Columns int `json:"columns"`

	History []IterationSummary `json:"history"`
}

// Result is the outcome of Optimize.
type Result struct {
	// Values maps every variable to its final value. On failure these are
	// the last valid values.
	Values      map[string][]float64 `json:"values"`
	Status      Status               `json:"status"`
	Iterations  int                  `json:"iterations"`
	InitialCost float64              `json:"initialCost"`
	FinalCost   float64              `json:"finalCost"`
	Summary     Summary              `json:"summary"`
}
