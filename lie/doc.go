// Package lie implements the rigid-motion groups used by pose factors and
// manifolds: SO2 and SE2 in the plane, SO3 (unit quaternions) and SE3 in space.
//
// Every group element stores dual.Number components, so the same code path
// produces plain values (constant numbers) or exact derivatives (seeded
// numbers) without duplication.
//
// Layouts
//
//	SE2 vectors are [theta, x, y].
//	SO3 vectors are [qx, qy, qz, qw].
//	SE3 vectors are [qx, qy, qz, qw, tx, ty, tz].
//	SE3 tangent vectors are ξ = [ωx, ωy, ωz, ρx, ρy, ρz].
//
// Composition follows the usual convention a.Compose(b) = a·b, so a point p
// is mapped by (a·b)(p) = a(b(p)).
package lie
