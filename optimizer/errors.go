package optimizer

import (
	"errors"

	"github.com/katalvlaran/lvlopt/linear"
	"github.com/katalvlaran/lvlopt/problem"
)

// Sentinel errors returned by Optimize.
var (
	// ErrInvalidConfiguration reports an option outside its domain, an
	// unknown criterion or method name, or a malformed options file.
	ErrInvalidConfiguration = errors.New("optimizer: invalid configuration")

	// ErrRetryCapExhausted reports more than MaxConsecutiveRejections
	// rejected Levenberg-Marquardt steps in a row. The result holds the last
	// accepted values.
	ErrRetryCapExhausted = errors.New("optimizer: too many consecutive rejected steps")

	// ErrNonFiniteCost reports a NaN or infinite cost.
	ErrNonFiniteCost = errors.New("optimizer: non-finite cost")

	// ErrNilProblem is returned when Optimize receives no problem.
	ErrNilProblem = errors.New("optimizer: problem is nil")

	// ErrSingularSystem is linear.ErrSingularSystem.
	ErrSingularSystem = linear.ErrSingularSystem

	// ErrMissingInitialValue is problem.ErrMissingInitialValue.
	ErrMissingInitialValue = problem.ErrMissingInitialValue

	// ErrDimensionMismatch is problem.ErrDimensionMismatch.
	ErrDimensionMismatch = problem.ErrDimensionMismatch
)
