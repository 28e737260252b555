package problem

import (
	"errors"

	"github.com/katalvlaran/lvlopt/factor"
)

// Sentinel errors for graph construction and evaluation.
var (
	// ErrDimensionMismatch reports disagreeing block, factor or variable
	// sizes. It is the same value as factor.ErrDimensionMismatch.
	ErrDimensionMismatch = factor.ErrDimensionMismatch

	// ErrMissingInitialValue reports a registered variable absent from the
	// supplied values.
	ErrMissingInitialValue = errors.New("problem: missing initial value")

	// ErrUnknownVariable is returned when a name was never registered.
	ErrUnknownVariable = errors.New("problem: unknown variable")

	// ErrDuplicateVariable is returned when a block lists a name twice.
	ErrDuplicateVariable = errors.New("problem: variable listed twice in one block")

	// ErrNilFactor is returned when AddResidualBlock receives no factor.
	ErrNilFactor = errors.New("problem: factor is nil")

	// ErrFixedManifold is returned when fixing single coordinates of a
	// manifold variable, or attaching a manifold to a partly fixed one.
	ErrFixedManifold = errors.New("problem: manifold variables cannot be partially fixed")

	// ErrInvalidBounds is returned when lower > upper or a bound is NaN.
	ErrInvalidBounds = errors.New("problem: invalid bounds")

	// ErrFactorPanic reports a factor that panicked during evaluation. Out of
	// range indexing and dual width mismatches are reported as
	// ErrDimensionMismatch instead.
	ErrFactorPanic = errors.New("problem: factor panicked")

	// ErrIndexOutOfRange is returned for a coordinate outside a variable.
	ErrIndexOutOfRange = errors.New("problem: coordinate index out of range")
)
