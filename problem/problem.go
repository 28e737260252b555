package problem

import (
	"fmt"
	"math"
	"sync"

	"github.com/katalvlaran/lvlopt/factor"
	"github.com/katalvlaran/lvlopt/loss"
	"github.com/katalvlaran/lvlopt/manifold"
)

// VariableSpec names a variable block and its dimension.
type VariableSpec struct {
	Name string
	Dim  int
}

// variable is one registry entry. Values live outside the problem.
type variable struct {
	name     string
	dim      int
	manifold manifold.Manifold
	fixed    []bool
	lower    []float64
	upper    []float64
}

// free lists the coordinates that receive a column, or nil for a manifold
// variable, which is updated through its tangent space.
func (v *variable) free() []int {
	var out []int
	for i, f := range v.fixed {
		if !f {
			out = append(out, i)
		}
	}

	return out
}

// columns returns the number of Jacobian columns the variable owns.
func (v *variable) columns() int {
	if v.constant() {
		return 0
	}
	if v.manifold != nil {
		return v.manifold.TangentSize()
	}

	return len(v.free())
}

// constant reports whether every coordinate is fixed.
func (v *variable) constant() bool {
	for _, f := range v.fixed {
		if !f {
			return false
		}
	}

	return true
}

// ResidualBlock is one factor with the variables it reads and its loss.
type ResidualBlock struct {
	ResidualDim int
	Variables   []VariableSpec
	Factor      factor.Factor
	Loss        loss.Loss

	vars []int // registry indices of Variables
}

// Problem is a factor graph under construction.
type Problem struct {
	vars   []*variable
	index  map[string]int
	blocks []*ResidualBlock

	revision uint64

	mu    sync.Mutex
	cache *structure
}

// New returns an empty problem.
func New() *Problem {
	return &Problem{index: make(map[string]int)}
}

// AddResidualBlock appends a residual block of residualDim rows reading
// vars through f, robustified by l (nil means no loss).
//
// Every argument is checked before anything is registered: positive
// dimensions, f.ResidualDim() == residualDim, agreement with the factor's
// own parameter sizes when it declares them, agreement with already
// registered dimensions, and no name listed twice. On error the problem is
// unchanged.
func (p *Problem) AddResidualBlock(residualDim int, vars []VariableSpec, f factor.Factor, l loss.Loss) error {
	if f == nil {
		return ErrNilFactor
	}
	if residualDim <= 0 {
		return fmt.Errorf("%w: residual dimension %d", ErrDimensionMismatch, residualDim)
	}
	if got := f.ResidualDim(); got != residualDim {
		return fmt.Errorf("%w: factor produces %d residuals, block declares %d", ErrDimensionMismatch, got, residualDim)
	}
	if sized, ok := f.(factor.Sized); ok {
		if dims := sized.ParameterDims(); dims != nil {
			if len(dims) != len(vars) {
				return fmt.Errorf("%w: factor reads %d variables, block lists %d", ErrDimensionMismatch, len(dims), len(vars))
			}
			for k, d := range dims {
				if vars[k].Dim != d {
					return fmt.Errorf("%w: variable %q has dimension %d, factor expects %d",
						ErrDimensionMismatch, vars[k].Name, vars[k].Dim, d)
				}
			}
		}
	}
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if v.Dim <= 0 {
			return fmt.Errorf("%w: variable %q has dimension %d", ErrDimensionMismatch, v.Name, v.Dim)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateVariable, v.Name)
		}
		seen[v.Name] = true
		if i, ok := p.index[v.Name]; ok && p.vars[i].dim != v.Dim {
			return fmt.Errorf("%w: variable %q registered with dimension %d, got %d",
				ErrDimensionMismatch, v.Name, p.vars[i].dim, v.Dim)
		}
	}

	// All checks passed; mutate.
	block := &ResidualBlock{
		ResidualDim: residualDim,
		Variables:   append([]VariableSpec(nil), vars...),
		Factor:      f,
		Loss:        l,
		vars:        make([]int, len(vars)),
	}
	for k, v := range vars {
		i, ok := p.index[v.Name]
		if !ok {
			i = len(p.vars)
			p.index[v.Name] = i
			p.vars = append(p.vars, &variable{name: v.Name, dim: v.Dim, fixed: make([]bool, v.Dim)})
		}
		block.vars[k] = i
	}
	p.blocks = append(p.blocks, block)
	p.touch()

	return nil
}

// touch invalidates every derived view.
func (p *Problem) touch() {
	p.revision++
	p.mu.Lock()
	p.cache = nil
	p.mu.Unlock()
}

// Revision increases on every structural change.
func (p *Problem) Revision() uint64 { return p.revision }

// NumVariables returns the number of registered variables.
func (p *Problem) NumVariables() int { return len(p.vars) }

// NumResidualBlocks returns the number of residual blocks.
func (p *Problem) NumResidualBlocks() int { return len(p.blocks) }

// NumResiduals returns the total residual dimension.
func (p *Problem) NumResiduals() int {
	n := 0
	for _, b := range p.blocks {
		n += b.ResidualDim
	}

	return n
}

// Variables returns the registered variables in registration order.
func (p *Problem) Variables() []VariableSpec {
	out := make([]VariableSpec, len(p.vars))
	for i, v := range p.vars {
		out[i] = VariableSpec{Name: v.name, Dim: v.dim}
	}

	return out
}

// HasVariable reports whether name is registered.
func (p *Problem) HasVariable(name string) bool {
	_, ok := p.index[name]
	return ok
}

// VariableDim returns the registered dimension of name.
func (p *Problem) VariableDim(name string) (int, error) {
	v, err := p.lookup(name)
	if err != nil {
		return 0, err
	}

	return v.dim, nil
}

// ResidualBlocks returns the blocks in insertion order.
func (p *Problem) ResidualBlocks() []*ResidualBlock {
	return append([]*ResidualBlock(nil), p.blocks...)
}

func (p *Problem) lookup(name string) (*variable, error) {
	i, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}

	return p.vars[i], nil
}

// SetManifold updates name through m instead of plain addition. A nil m
// restores plain addition.
func (p *Problem) SetManifold(name string, m manifold.Manifold) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	if m != nil {
		if m.AmbientSize() != v.dim {
			return fmt.Errorf("%w: variable %q has dimension %d, manifold ambient size %d",
				ErrDimensionMismatch, name, v.dim, m.AmbientSize())
		}
		if !v.constant() && len(v.free()) != v.dim {
			return fmt.Errorf("%w: %q", ErrFixedManifold, name)
		}
	}
	v.manifold = m
	p.touch()

	return nil
}

// Manifold returns the manifold attached to name, or nil.
func (p *Problem) Manifold(name string) manifold.Manifold {
	v, err := p.lookup(name)
	if err != nil {
		return nil
	}

	return v.manifold
}

// FixVariable holds the given coordinates of name constant. With no
// indices the whole variable is held constant. Manifold variables can only
// be fixed as a whole.
func (p *Problem) FixVariable(name string, indices ...int) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	if len(indices) == 0 {
		for i := range v.fixed {
			v.fixed[i] = true
		}
		p.touch()
		return nil
	}
	for _, i := range indices {
		if i < 0 || i >= v.dim {
			return fmt.Errorf("%w: %q[%d]", ErrIndexOutOfRange, name, i)
		}
	}
	if v.manifold != nil && len(indices) < v.dim {
		return fmt.Errorf("%w: %q", ErrFixedManifold, name)
	}
	for _, i := range indices {
		v.fixed[i] = true
	}
	p.touch()

	return nil
}

// UnfixVariable releases every fixed coordinate of name.
func (p *Problem) UnfixVariable(name string) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	for i := range v.fixed {
		v.fixed[i] = false
	}
	p.touch()

	return nil
}

// IsFixed reports whether coordinate index of name is fixed.
func (p *Problem) IsFixed(name string, index int) bool {
	v, err := p.lookup(name)
	if err != nil || index < 0 || index >= v.dim {
		return false
	}

	return v.fixed[index]
}

// SetVariableBounds clamps coordinate index of name to [lower, upper]
// after every update. Infinite bounds are allowed.
func (p *Problem) SetVariableBounds(name string, index int, lower, upper float64) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	if index < 0 || index >= v.dim {
		return fmt.Errorf("%w: %q[%d]", ErrIndexOutOfRange, name, index)
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || lower > upper {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, lower, upper)
	}
	if v.lower == nil {
		v.lower = make([]float64, v.dim)
		v.upper = make([]float64, v.dim)
		for i := range v.lower {
			v.lower[i] = math.Inf(-1)
			v.upper[i] = math.Inf(1)
		}
	}
	v.lower[index], v.upper[index] = lower, upper

	return nil
}

// RemoveVariableBounds drops every bound on name.
func (p *Problem) RemoveVariableBounds(name string) error {
	v, err := p.lookup(name)
	if err != nil {
		return err
	}
	v.lower, v.upper = nil, nil

	return nil
}

// Bounds returns the bounds of coordinate index, ±Inf when unbounded.
func (p *Problem) Bounds(name string, index int) (lower, upper float64) {
	lower, upper = math.Inf(-1), math.Inf(1)
	v, err := p.lookup(name)
	if err != nil || v.lower == nil || index < 0 || index >= v.dim {
		return lower, upper
	}

	return v.lower[index], v.upper[index]
}

// clamp applies v's bounds to x in place.
func (v *variable) clamp(x []float64) {
	if v.lower == nil {
		return
	}
	for i := range x {
		x[i] = math.Max(v.lower[i], math.Min(v.upper[i], x[i]))
	}
}

// CheckValues verifies that values holds every registered variable at its
// registered dimension.
func (p *Problem) CheckValues(values map[string][]float64) error {
	for _, v := range p.vars {
		x, ok := values[v.name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingInitialValue, v.name)
		}
		if len(x) != v.dim {
			return fmt.Errorf("%w: value of %q has length %d, want %d", ErrDimensionMismatch, v.name, len(x), v.dim)
		}
	}

	return nil
}

// CombineVariables concatenates values in registration order.
func (p *Problem) CombineVariables(values map[string][]float64) ([]float64, error) {
	if err := p.CheckValues(values); err != nil {
		return nil, err
	}
	n := 0
	for _, v := range p.vars {
		n += v.dim
	}
	out := make([]float64, 0, n)
	for _, v := range p.vars {
		out = append(out, values[v.name]...)
	}

	return out, nil
}

// SplitVariables is the inverse of CombineVariables.
func (p *Problem) SplitVariables(flat []float64) (map[string][]float64, error) {
	n := 0
	for _, v := range p.vars {
		n += v.dim
	}
	if len(flat) != n {
		return nil, fmt.Errorf("%w: flat vector has length %d, want %d", ErrDimensionMismatch, len(flat), n)
	}
	out := make(map[string][]float64, len(p.vars))
	off := 0
	for _, v := range p.vars {
		out[v.name] = append([]float64(nil), flat[off:off+v.dim]...)
		off += v.dim
	}

	return out, nil
}

// CloneValues returns a deep copy of values.
func CloneValues(values map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(values))
	for k, v := range values {
		out[k] = append([]float64(nil), v...)
	}

	return out
}
