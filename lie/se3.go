package lie

import "github.com/katalvlaran/lvlopt/dual"

// SE3 is a 3-D rigid motion: rotation Rot followed by translation T.
type SE3 struct {
	Rot SO3
	T   [3]dual.Number
}

// SE3Identity returns the identity motion.
func SE3Identity() SE3 {
	z := dual.Const(0)
	return SE3{Rot: SO3Identity(), T: [3]dual.Number{z, z, z}}
}

// SE3FromVector reads the [qx, qy, qz, qw, tx, ty, tz] layout.
func SE3FromVector(v dual.Vector) SE3 {
	return SE3{Rot: SO3FromVector(v[:4]), T: [3]dual.Number{v[4], v[5], v[6]}}
}

// SE3FromValues builds a constant motion from the same layout.
func SE3FromValues(v []float64) SE3 { return SE3FromVector(dual.Constants(v)) }

// SE3Exp maps ξ = (ω, ρ) to exp(ξ) = (exp(ω), V(ω)·ρ).
func SE3Exp(xi dual.Vector) SE3 {
	w := toVec3(xi[:3])
	rho := toVec3(xi[3:6])

	return SE3{Rot: SO3Exp(xi[:3]), T: [3]dual.Number(leftJacobian(w).mulVec(rho))}
}

// Log returns the tangent 6-vector (ω, V(ω)⁻¹·t).
func (a SE3) Log() dual.Vector {
	w := a.Rot.Log()
	rho := leftJacobianInverse(toVec3(w)).mulVec(vec3(a.T))

	return dual.Vector{w[0], w[1], w[2], rho[0], rho[1], rho[2]}
}

// Compose returns a·b.
func (a SE3) Compose(b SE3) SE3 {
	t := a.Rot.rotate(vec3(b.T)).add(vec3(a.T))

	return SE3{Rot: a.Rot.Compose(b.Rot), T: [3]dual.Number(t)}
}

// Inverse returns a⁻¹.
func (a SE3) Inverse() SE3 {
	inv := a.Rot.Inverse()
	t := inv.rotate(vec3(a.T)).neg()

	return SE3{Rot: inv, T: [3]dual.Number(t)}
}

// Transform applies a to the point p.
func (a SE3) Transform(p dual.Vector) dual.Vector {
	r := a.Rot.rotate(toVec3(p)).add(vec3(a.T))
	return dual.Vector{r[0], r[1], r[2]}
}

// Vector returns the [qx, qy, qz, qw, tx, ty, tz] layout.
func (a SE3) Vector() dual.Vector {
	return dual.Vector{a.Rot.X, a.Rot.Y, a.Rot.Z, a.Rot.W, a.T[0], a.T[1], a.T[2]}
}
