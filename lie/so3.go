package lie

import "github.com/katalvlaran/lvlopt/dual"

const (
	expSmallAngle2 = 1e-6 // θ² below which exp uses the second-order expansion
	logSmallNorm   = 1e-3 // |v| below which log uses the first-order expansion
)

// SO3 is a 3-D rotation stored as the quaternion X·i + Y·j + Z·k + W.
type SO3 struct {
	X, Y, Z, W dual.Number
}

// SO3Identity returns the identity rotation.
func SO3Identity() SO3 {
	return SO3{X: dual.Const(0), Y: dual.Const(0), Z: dual.Const(0), W: dual.Const(1)}
}

// SO3FromVector reads the [qx, qy, qz, qw] layout.
func SO3FromVector(v dual.Vector) SO3 { return SO3{X: v[0], Y: v[1], Z: v[2], W: v[3]} }

// SO3Exp maps a rotation vector ω to the unit quaternion exp(ω).
func SO3Exp(omega dual.Vector) SO3 {
	w := toVec3(omega)
	theta2 := w.dot(w)
	if theta2.Re < expSmallAngle2 {
		// cos(θ/2) ≈ 1 − θ²/8, sin(θ/2)/θ ≈ 1/2
		half := dual.Const(0.5)
		return SO3{
			X: dual.Mul(w[0], half),
			Y: dual.Mul(w[1], half),
			Z: dual.Mul(w[2], half),
			W: dual.ScalarSub(1, dual.Scale(theta2, 1.0/8)),
		}
	}
	theta := dual.Sqrt(theta2)
	half := dual.Scale(theta, 0.5)
	k := dual.Div(dual.Sin(half), theta)

	return SO3{
		X: dual.Mul(w[0], k),
		Y: dual.Mul(w[1], k),
		Z: dual.Mul(w[2], k),
		W: dual.Cos(half),
	}
}

// Log maps q to its rotation vector. q and −q give the same result.
func (q SO3) Log() dual.Vector {
	v := vec3{q.X, q.Y, q.Z}
	w := q.W
	if w.Re < 0 {
		v = v.neg()
		w = dual.Neg(w)
	}
	n := dual.Sqrt(v.dot(v))
	if n.Re < logSmallNorm {
		two := dual.Const(2)
		return dual.Vector{dual.Mul(v[0], two), dual.Mul(v[1], two), dual.Mul(v[2], two)}
	}
	k := dual.Div(dual.Scale(dual.Atan2(n, w), 2), n)

	return dual.Vector{dual.Mul(v[0], k), dual.Mul(v[1], k), dual.Mul(v[2], k)}
}

// Compose returns the Hamilton product q·o.
func (q SO3) Compose(o SO3) SO3 {
	m := dual.Mul
	return SO3{
		X: dual.Sum(m(q.W, o.X), m(q.X, o.W), m(q.Y, o.Z), dual.Neg(m(q.Z, o.Y))),
		Y: dual.Sum(m(q.W, o.Y), dual.Neg(m(q.X, o.Z)), m(q.Y, o.W), m(q.Z, o.X)),
		Z: dual.Sum(m(q.W, o.Z), m(q.X, o.Y), dual.Neg(m(q.Y, o.X)), m(q.Z, o.W)),
		W: dual.Sum(m(q.W, o.W), dual.Neg(m(q.X, o.X)), dual.Neg(m(q.Y, o.Y)), dual.Neg(m(q.Z, o.Z))),
	}
}

// Inverse returns the conjugate, the inverse of a unit quaternion.
func (q SO3) Inverse() SO3 {
	return SO3{X: dual.Neg(q.X), Y: dual.Neg(q.Y), Z: dual.Neg(q.Z), W: q.W}
}

// Rotate applies q to p: p + 2w(u×p) + 2u×(u×p) with u the vector part.
func (q SO3) Rotate(p dual.Vector) dual.Vector {
	r := q.rotate(toVec3(p))
	return dual.Vector{r[0], r[1], r[2]}
}

func (q SO3) rotate(p vec3) vec3 {
	u := vec3{q.X, q.Y, q.Z}
	t := u.cross(p).scale(dual.Const(2))
	return p.add(t.scale(q.W)).add(u.cross(t))
}

// Vector returns the [qx, qy, qz, qw] layout.
func (q SO3) Vector() dual.Vector { return dual.Vector{q.X, q.Y, q.Z, q.W} }

// Hat returns the skew-symmetric matrix of v as rows.
func Hat(v dual.Vector) [3][3]dual.Number {
	return [3][3]dual.Number(hat(toVec3(v)))
}

func hat(v vec3) mat3 {
	z := dual.Const(0)
	return mat3{
		{z, dual.Neg(v[2]), v[1]},
		{v[2], z, dual.Neg(v[0])},
		{dual.Neg(v[1]), v[0], z},
	}
}

// leftJacobian returns V(ω) = I + (1−cos θ)/θ² Ω + (θ−sin θ)/θ³ Ω².
func leftJacobian(w vec3) mat3 {
	theta2 := w.dot(w)
	if theta2.Re < expSmallAngle2 {
		return affine(hat(w), dual.Const(0.5), dual.Const(1.0/6))
	}
	theta := dual.Sqrt(theta2)
	a := dual.Div(dual.ScalarSub(1, dual.Cos(theta)), theta2)
	b := dual.Div(dual.Sub(theta, dual.Sin(theta)), dual.Mul(theta2, theta))

	return affine(hat(w), a, b)
}

// leftJacobianInverse returns V(ω)⁻¹ = I − ½Ω + (1 − θ sin θ / (2(1−cos θ)))/θ² Ω².
func leftJacobianInverse(w vec3) mat3 {
	theta2 := w.dot(w)
	if theta2.Re < expSmallAngle2 {
		return affine(hat(w), dual.Const(-0.5), dual.Const(1.0/12))
	}
	theta := dual.Sqrt(theta2)
	num := dual.Mul(theta, dual.Sin(theta))
	den := dual.Scale(dual.ScalarSub(1, dual.Cos(theta)), 2)
	b := dual.Div(dual.ScalarSub(1, dual.Div(num, den)), theta2)

	return affine(hat(w), dual.Const(-0.5), b)
}
