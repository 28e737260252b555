package linear

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/lvlopt/sparse"
)

var (
	// ErrSingularSystem reports that no unique update exists.
	ErrSingularSystem = errors.New("linear: singular system")

	// ErrUnknownSolver is returned for an unrecognized SolverType.
	ErrUnknownSolver = errors.New("linear: unknown solver type")
)

// SolverType selects the factorization.
type SolverType int

const (
	// SparseCholesky factors the normal equations.
	SparseCholesky SolverType = iota
	// SparseQR factors the Jacobian directly.
	SparseQR
)

var solverNames = map[SolverType]string{
	SparseCholesky: "SparseCholesky",
	SparseQR:       "SparseQR",
}

// String returns the solver name, or "SolverType(n)" when unknown.
func (t SolverType) String() string {
	if s, ok := solverNames[t]; ok {
		return s
	}

	return fmt.Sprintf("SolverType(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t SolverType) MarshalText() ([]byte, error) {
	s, ok := solverNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSolver, int(t))
	}

	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Matching ignores case,
// and the short forms "cholesky" and "qr" are accepted.
func (t *SolverType) UnmarshalText(text []byte) error {
	parsed, err := ParseSolverType(string(text))
	if err != nil {
		return err
	}
	*t = parsed

	return nil
}

// ParseSolverType converts a name into a SolverType.
func ParseSolverType(name string) (SolverType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sparsecholesky", "sparse_cholesky", "cholesky":
		return SparseCholesky, nil
	case "sparseqr", "sparse_qr", "qr":
		return SparseQR, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
}

// Solver computes Gauss-Newton steps.
type Solver interface {
	// Solve returns δ with JᵗJ·δ = −Jᵗr.
	Solve(j *sparse.CSC, r []float64) ([]float64, error)
	// SolveNormal returns δ with H·δ = g for an already formed, possibly
	// damped, symmetric system.
	SolveNormal(h *sparse.CSC, g []float64) ([]float64, error)
	// Type reports which factorization the solver uses.
	Type() SolverType
	// LastRank is the numerical rank seen by the last successful call.
	LastRank() int
}

// Option configures a Solver.
type Option func(*config)

type config struct {
	log logr.Logger
}

// WithLogger routes factorization diagnostics to l at V(1).
func WithLogger(l logr.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// New returns a fresh solver of type t.
func New(t SolverType, opts ...Option) (Solver, error) {
	c := config{log: logr.Discard()}
	for _, opt := range opts {
		opt(&c)
	}
	switch t {
	case SparseCholesky:
		return &Cholesky{log: c.log}, nil
	case SparseQR:
		return &QR{log: c.log}, nil
	}

	return nil, fmt.Errorf("%w: %d", ErrUnknownSolver, int(t))
}

// gradient returns −Jᵗr.
func gradient(j *sparse.CSC, r []float64) ([]float64, error) {
	g, err := j.MulTransVec(r)
	if err != nil {
		return nil, err
	}
	floats.Scale(-1, g)

	return g, nil
}

// checkStep rejects a step carrying NaN or ±Inf.
func checkStep(x []float64) error {
	if err := sparse.ValidateFinite(x); err != nil {
		return fmt.Errorf("%w: %w", ErrSingularSystem, err)
	}

	return nil
}
