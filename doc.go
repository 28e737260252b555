// Package lvlopt is a sparse nonlinear least-squares toolkit: build a
// factor graph, hand it an initial guess, and let Gauss-Newton or
// Levenberg-Marquardt drive the cost ½Σρ(‖rᵢ‖²) down.
//
// What is in the box?
//
//	A pure-Go stack with no cgo, organized bottom-up:
//		• dual/      forward-mode dual numbers for automatic Jacobians
//		• lie/       SO3, SE2, SE3 exp/log/compose over dual numbers
//		• manifold/  on-manifold updates (SE2, SE3, unit quaternion)
//		• loss/      robust losses (Huber, Cauchy, Arctan, SoftL1) + corrector
//		• factor/    Factor contract, AutoDiff, Prior, BetweenSE2/SE3, Whitened
//		• sparse/    CSC matrices, triplet assembly, min-degree ordering,
//		             sparse Cholesky and Givens QR
//		• linear/    Gauss-Newton step solvers over sparse/
//		• problem/   the factor graph: variables, residual blocks, fixing,
//		             bounds, parallel evaluation
//		• optimizer/ Gauss-Newton and Levenberg-Marquardt drivers
//		• g2o/       g2o pose-graph reader and writer
//
// Quick ASCII example:
//
//	[x]──r0──[y]──r1──[z]
//	 │
//	 r2 (prior x = 3)
//
// is three variables and three residual blocks. Build it with
// problem.AddResidualBlock, then call optimizer.LevenbergMarquardt{}.Optimize.
//
// The examples/ directory holds runnable programs and cmd/lvlopt is a
// command-line optimizer for g2o files.
//
//	go get github.com/katalvlaran/lvlopt
package lvlopt
