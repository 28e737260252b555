package lie

import "github.com/katalvlaran/lvlopt/dual"

// SO2 is a planar rotation stored as the unit complex number (cos θ, sin θ).
type SO2 struct {
	Cos, Sin dual.Number
}

// SO2FromAngle builds the rotation by theta radians.
func SO2FromAngle(theta dual.Number) SO2 {
	return SO2{Cos: dual.Cos(theta), Sin: dual.Sin(theta)}
}

// Compose returns r·o.
func (r SO2) Compose(o SO2) SO2 {
	return SO2{
		Cos: dual.Sub(dual.Mul(r.Cos, o.Cos), dual.Mul(r.Sin, o.Sin)),
		Sin: dual.Add(dual.Mul(r.Sin, o.Cos), dual.Mul(r.Cos, o.Sin)),
	}
}

// Inverse returns r⁻¹.
func (r SO2) Inverse() SO2 { return SO2{Cos: r.Cos, Sin: dual.Neg(r.Sin)} }

// Rotate applies r to the point (x, y).
func (r SO2) Rotate(x, y dual.Number) (dual.Number, dual.Number) {
	return dual.Sub(dual.Mul(r.Cos, x), dual.Mul(r.Sin, y)),
		dual.Add(dual.Mul(r.Sin, x), dual.Mul(r.Cos, y))
}

// Angle returns the rotation angle in (-π, π].
func (r SO2) Angle() dual.Number { return dual.Atan2(r.Sin, r.Cos) }

// SE2 is a planar rigid motion: rotation Rot followed by translation (X, Y).
type SE2 struct {
	Rot  SO2
	X, Y dual.Number
}

// NewSE2 builds a pose from heading and position.
func NewSE2(theta, x, y dual.Number) SE2 {
	return SE2{Rot: SO2FromAngle(theta), X: x, Y: y}
}

// SE2FromVector builds a pose from the [theta, x, y] layout.
func SE2FromVector(v dual.Vector) SE2 { return NewSE2(v[0], v[1], v[2]) }

// SE2FromValues builds a constant pose.
func SE2FromValues(theta, x, y float64) SE2 {
	return NewSE2(dual.Const(theta), dual.Const(x), dual.Const(y))
}

// Compose returns a·b.
func (a SE2) Compose(b SE2) SE2 {
	bx, by := a.Rot.Rotate(b.X, b.Y)

	return SE2{Rot: a.Rot.Compose(b.Rot), X: dual.Add(bx, a.X), Y: dual.Add(by, a.Y)}
}

// Inverse returns a⁻¹.
func (a SE2) Inverse() SE2 {
	inv := a.Rot.Inverse()
	x, y := inv.Rotate(a.X, a.Y)

	return SE2{Rot: inv, X: dual.Neg(x), Y: dual.Neg(y)}
}

// Vector returns the pose in the [theta, x, y] layout.
func (a SE2) Vector() dual.Vector { return dual.Vector{a.Rot.Angle(), a.X, a.Y} }

// Error returns the pose as a residual ordered (x, y, theta).
func (a SE2) Error() dual.Vector { return dual.Vector{a.X, a.Y, a.Rot.Angle()} }
