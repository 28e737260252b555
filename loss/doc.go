// Package loss provides robust loss functions ρ(s) of the squared residual
// norm s = ‖r‖² and the Corrector that folds ρ into a residual block.
//
// What
//
//   - Loss.Evaluate(s) returns [ρ(s), ρ'(s), ρ''(s)].
//   - Trivial is ρ(s) = s, the weight used when a block has no loss.
//   - Huber, Cauchy, Arctan and SoftLOne bound the influence of outliers.
//   - Corrector rescales a block's residual and Jacobian so that the
//     Gauss-Newton model of ½ρ(‖r‖²) is the plain least-squares model of the
//     corrected quantities.
//
// Corrector math
//
//	With ρ' > 0 and, when s > 0 and ρ'' > 0, α = 1 − √(1 + 2sρ''/ρ'):
//	  r̃ = √ρ' / (1 − α) · r
//	  J̃ = √ρ' · (I − α/s · r rᵗ) · J
//	Otherwise α = 0, so both are scaled by √ρ' only.
package loss
