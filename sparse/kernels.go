// SPDX-License-Identifier: MIT

package sparse

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
)

func sqrt(x float64) float64 { return math.Sqrt(x) }

// nrm2 returns ‖x‖₂ through the BLAS kernel.
func nrm2(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return blas64.Nrm2(blas64.Vector{N: len(x), Data: x, Inc: 1})
}
