// Package problem holds the factor graph: a registry of named variable
// blocks and an ordered list of residual blocks that read them.
//
// A Problem is built by AddResidualBlock calls. Each call names the
// variables a factor reads, with their dimensions; unseen names are
// registered on the spot, known names must agree with their registered
// dimension. A failed call leaves the problem exactly as it was.
//
// Layout:
//
//	– Rows:    one range per residual block, in insertion order.
//	– Columns: one range per variable, in registration order. A variable
//	  contributes its tangent size (manifold variables) or its dimension
//	  minus its fixed coordinates; a fully fixed variable is constant and
//	  owns no columns.
//
// The layout and the Jacobian sparsity pattern are derived on demand and
// cached until the next structural change, so repeated evaluations during a
// solve refill values into one fixed pattern.
//
// Evaluation:
//
//	– Evaluate runs every factor at the given values, chains manifold
//	  Jacobians, applies the block's robust loss and assembles the stacked
//	  residual and sparse Jacobian. Blocks are spread over a worker pool;
//	  each block writes a disjoint slice of the output, and the cost is
//	  summed in block order, so the result does not depend on the number
//	  of workers.
//	– Cost is the residual-only variant used for trial steps.
//
// Values are passed as map[string][]float64 and never mutated; Plus returns
// a fresh map.
//
// A Problem must not be modified while it is being evaluated.
package problem
