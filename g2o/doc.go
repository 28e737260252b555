// Package g2o reads and writes pose graphs in the g2o text format.
//
// Supported records:
//
//	VERTEX_SE2 id x y theta
//	EDGE_SE2 id0 id1 dx dy dtheta i11 i12 i13 i22 i23 i33
//	VERTEX_SE3:QUAT id x y z qx qy qz qw
//	EDGE_SE3:QUAT id0 id1 x y z qx qy qz qw <21 information entries>
//	FIX id
//
// Vertex id becomes variable "x<id>". SE2 poses are stored as
// [theta, x, y] and SE3 poses as [qx, qy, qz, qw, x, y, z] with the SE3
// manifold attached. Edges become BetweenSE2 or BetweenSE3 residual blocks
// under a Huber(1) loss, and the first vertex is held by a prior so the
// graph has no gauge freedom. Unknown record tags are skipped.
package g2o
