// SPDX-License-Identifier: MIT

package dual

import "gonum.org/v1/gonum/mat"

// Vector is an ordered list of dual numbers.
type Vector []Number

// Constants lifts plain values to a constant Vector.
func Constants(xs []float64) Vector {
	v := make(Vector, len(xs))
	for i, x := range xs {
		v[i] = Const(x)
	}

	return v
}

// Values extracts the real parts of v.
func Values(v Vector) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x.Re
	}

	return out
}

// Seed lifts every scalar of every block to an independent direction.
// Directions are numbered block-major: block 0 takes [0, len(blocks[0])),
// block 1 the next range, and so on. The total width is returned.
func Seed(blocks [][]float64) ([]Vector, int) {
	width := 0
	for _, b := range blocks {
		width += len(b)
	}
	out := make([]Vector, len(blocks))
	dir := 0
	for k, b := range blocks {
		v := make(Vector, len(b))
		for i, x := range b {
			v[i] = Variable(x, dir, width)
			dir++
		}
		out[k] = v
	}

	return out, width
}

// JacobianOf arranges the derivative vectors of v as a len(v)×width matrix.
// Constant entries yield zero rows.
func JacobianOf(v Vector, width int) *mat.Dense {
	if len(v) == 0 || width == 0 {
		return &mat.Dense{}
	}
	j := mat.NewDense(len(v), width, nil)
	for r, x := range v {
		for c := 0; c < width && c < len(x.Eps); c++ {
			j.Set(r, c, x.Eps[c])
		}
	}

	return j
}

// Jacobian evaluates f at x once with len(x) seeded directions and returns
// f(x) together with its len(f(x))×len(x) Jacobian.
func Jacobian(f func(Vector) Vector, x []float64) ([]float64, *mat.Dense) {
	seeded, width := Seed([][]float64{x})
	out := f(seeded[0])

	return Values(out), JacobianOf(out, width)
}
