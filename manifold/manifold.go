// Package manifold provides local parameterizations for variables whose
// ambient representation is larger than their degrees of freedom, such as
// unit quaternions or SE3 poses.
//
// The optimizer works in the tangent space: a step δ of TangentSize()
// scalars is applied with Plus(x, δ), which stays on the manifold.
package manifold

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlopt/dual"
	"github.com/katalvlaran/lvlopt/lie"
)

// ErrSizeMismatch is returned when a vector does not match a manifold size.
var ErrSizeMismatch = errors.New("manifold: size mismatch")

// Manifold is a local parameterization x ⊞ δ.
type Manifold interface {
	// AmbientSize is the number of stored scalars.
	AmbientSize() int
	// TangentSize is the number of degrees of freedom.
	TangentSize() int
	// Plus moves x by the tangent vector delta.
	Plus(x, delta dual.Vector) dual.Vector
	// Minus returns the tangent vector taking x to y.
	Minus(y, x dual.Vector) dual.Vector
}

// SE3 parameterizes [qx, qy, qz, qw, tx, ty, tz] as x·exp(δ).
type SE3 struct{}

// AmbientSize is 7: [qx, qy, qz, qw, x, y, z].
func (SE3) AmbientSize() int { return 7 }

// TangentSize is 6: (ω, ρ).
func (SE3) TangentSize() int { return 6 }

// Plus returns x·exp(δ).
func (SE3) Plus(x, delta dual.Vector) dual.Vector {
	return lie.SE3FromVector(x).Compose(lie.SE3Exp(delta)).Vector()
}

// Minus returns log(x⁻¹·y).
func (SE3) Minus(y, x dual.Vector) dual.Vector {
	return lie.SE3FromVector(x).Inverse().Compose(lie.SE3FromVector(y)).Log()
}

// Quaternion parameterizes a unit quaternion [qx, qy, qz, qw] as q·exp(δ).
type Quaternion struct{}

// AmbientSize is 4: [qx, qy, qz, qw].
func (Quaternion) AmbientSize() int { return 4 }

// TangentSize is 3.
func (Quaternion) TangentSize() int { return 3 }

// Plus returns q·exp(δ), a unit quaternion for unit q.
func (Quaternion) Plus(x, delta dual.Vector) dual.Vector {
	return lie.SO3FromVector(x).Compose(lie.SO3Exp(delta)).Vector()
}

// Minus returns log(x⁻¹·y).
func (Quaternion) Minus(y, x dual.Vector) dual.Vector {
	return lie.SO3FromVector(x).Inverse().Compose(lie.SO3FromVector(y)).Log()
}

// SE2 parameterizes [theta, x, y] as x∘δ with the heading kept in (-π, π].
type SE2 struct{}

// AmbientSize is 3: [theta, x, y].
func (SE2) AmbientSize() int { return 3 }

// TangentSize is 3.
func (SE2) TangentSize() int { return 3 }

// Plus composes x with δ read as a [theta, x, y] pose.
func (SE2) Plus(x, delta dual.Vector) dual.Vector {
	return lie.SE2FromVector(x).Compose(lie.SE2FromVector(delta)).Vector()
}

// Minus returns x⁻¹·y as a [theta, x, y] pose.
func (SE2) Minus(y, x dual.Vector) dual.Vector {
	return lie.SE2FromVector(x).Inverse().Compose(lie.SE2FromVector(y)).Vector()
}

// PlusValues applies m.Plus to plain values.
func PlusValues(m Manifold, x, delta []float64) ([]float64, error) {
	if len(x) != m.AmbientSize() || len(delta) != m.TangentSize() {
		return nil, fmt.Errorf("%w: x=%d (want %d), delta=%d (want %d)",
			ErrSizeMismatch, len(x), m.AmbientSize(), len(delta), m.TangentSize())
	}

	return dual.Values(m.Plus(dual.Constants(x), dual.Constants(delta))), nil
}

// PlusJacobian returns ∂Plus(x, δ)/∂δ at δ = 0 as an AmbientSize×TangentSize
// matrix. Multiplying an ambient Jacobian by it yields the tangent Jacobian.
func PlusJacobian(m Manifold, x []float64) (*mat.Dense, error) {
	if len(x) != m.AmbientSize() {
		return nil, fmt.Errorf("%w: x=%d (want %d)", ErrSizeMismatch, len(x), m.AmbientSize())
	}
	xc := dual.Constants(x)
	f := func(delta dual.Vector) dual.Vector { return m.Plus(xc, delta) }
	_, j := dual.Jacobian(f, make([]float64, m.TangentSize()))

	return j, nil
}
