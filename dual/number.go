// SPDX-License-Identifier: MIT

package dual

import "math"

// Number is a dual number: a real value and the derivative of that value
// along every seeded direction.
type Number struct {
	Re  float64   // value
	Eps []float64 // ∂value/∂xᵢ for each seeded direction i
}

// Const returns a constant (zero derivative, width 0).
func Const(v float64) Number {
	return Number{Re: v}
}

// Variable returns v seeded along direction index of a width-wide space.
// Panics with ErrBadSeed when index is outside [0, width).
func Variable(v float64, index, width int) Number {
	if index < 0 || index >= width {
		panic(ErrBadSeed)
	}
	eps := make([]float64, width)
	eps[index] = 1

	return Number{Re: v, Eps: eps}
}

// New builds a Number from a value and a derivative vector. eps is copied.
func New(re float64, eps []float64) Number {
	var cp []float64
	if len(eps) > 0 {
		cp = make([]float64, len(eps))
		copy(cp, eps)
	}

	return Number{Re: re, Eps: cp}
}

// Width reports the number of derivative directions carried by a.
func (a Number) Width() int { return len(a.Eps) }

// IsConst reports whether a carries no derivative directions.
func (a Number) IsConst() bool { return len(a.Eps) == 0 }

// Deriv returns ∂a/∂x_i, treating missing directions as zero.
func (a Number) Deriv(i int) float64 {
	if i < 0 || i >= len(a.Eps) {
		return 0
	}

	return a.Eps[i]
}

// IsFinite reports whether the value and every derivative are finite.
func (a Number) IsFinite() bool {
	if math.IsNaN(a.Re) || math.IsInf(a.Re, 0) {
		return false
	}
	for _, e := range a.Eps {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
	}

	return true
}

// linear returns re with derivative da·a.Eps + db·b.Eps.
func linear(re float64, a Number, da float64, b Number, db float64) Number {
	w := widthOf(a, b)
	if w == 0 {
		return Number{Re: re}
	}
	eps := make([]float64, w)
	if len(a.Eps) > 0 && da != 0 {
		for i, e := range a.Eps {
			eps[i] = da * e
		}
	}
	if len(b.Eps) > 0 && db != 0 {
		for i, e := range b.Eps {
			eps[i] += db * e
		}
	}

	return Number{Re: re, Eps: eps}
}

// chain returns re with derivative d·a.Eps (unary chain rule).
func chain(re float64, a Number, d float64) Number {
	if len(a.Eps) == 0 {
		return Number{Re: re}
	}
	eps := make([]float64, len(a.Eps))
	for i, e := range a.Eps {
		eps[i] = d * e
	}

	return Number{Re: re, Eps: eps}
}

// Add returns a + b.
func Add(a, b Number) Number { return linear(a.Re+b.Re, a, 1, b, 1) }

// Sub returns a − b.
func Sub(a, b Number) Number { return linear(a.Re-b.Re, a, 1, b, -1) }

// Mul returns a · b.
func Mul(a, b Number) Number { return linear(a.Re*b.Re, a, b.Re, b, a.Re) }

// Div returns a / b. Division by an exact zero follows IEEE-754.
func Div(a, b Number) Number {
	inv := 1 / b.Re
	q := a.Re * inv

	return linear(q, a, inv, b, -q*inv)
}

// Neg returns −a.
func Neg(a Number) Number { return chain(-a.Re, a, -1) }

// Scale returns k · a for a real k.
func Scale(a Number, k float64) Number { return chain(k*a.Re, a, k) }

// AddScalar returns a + k for a real k.
func AddScalar(a Number, k float64) Number { return chain(a.Re+k, a, 1) }

// ScalarSub returns k − a for a real k.
func ScalarSub(k float64, a Number) Number { return chain(k-a.Re, a, -1) }

// ScalarDiv returns k / a for a real k.
func ScalarDiv(k float64, a Number) Number {
	inv := 1 / a.Re

	return chain(k*inv, a, -k*inv*inv)
}

// Sum returns the sum of xs (a zero constant for an empty list).
func Sum(xs ...Number) Number {
	acc := Const(0)
	for _, x := range xs {
		acc = Add(acc, x)
	}

	return acc
}
