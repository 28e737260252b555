// SPDX-License-Identifier: MIT

package dual

import "math"

// Sin returns sin(a).
func Sin(a Number) Number { return chain(math.Sin(a.Re), a, math.Cos(a.Re)) }

// Cos returns cos(a).
func Cos(a Number) Number { return chain(math.Cos(a.Re), a, -math.Sin(a.Re)) }

// Tan returns tan(a).
func Tan(a Number) Number {
	t := math.Tan(a.Re)

	return chain(t, a, 1+t*t)
}

// Asin returns asin(a). Derivative is infinite at |a| = 1.
func Asin(a Number) Number {
	return chain(math.Asin(a.Re), a, 1/math.Sqrt(1-a.Re*a.Re))
}

// Acos returns acos(a). Derivative is infinite at |a| = 1.
func Acos(a Number) Number {
	return chain(math.Acos(a.Re), a, -1/math.Sqrt(1-a.Re*a.Re))
}

// Atan returns atan(a).
func Atan(a Number) Number {
	return chain(math.Atan(a.Re), a, 1/(1+a.Re*a.Re))
}

// Atan2 returns atan2(y, x) with the quadrant of (x, y).
// At the origin the derivative is reported as zero.
func Atan2(y, x Number) Number {
	r2 := x.Re*x.Re + y.Re*y.Re
	v := math.Atan2(y.Re, x.Re)
	if r2 == 0 {
		return linear(v, y, 0, x, 0)
	}

	return linear(v, y, x.Re/r2, x, -y.Re/r2)
}

// Sqrt returns √a. At a = 0 the derivative is reported as zero
// so that squared-norm expressions stay finite at the origin.
func Sqrt(a Number) Number {
	s := math.Sqrt(a.Re)
	if s == 0 {
		return chain(0, a, 0)
	}

	return chain(s, a, 0.5/s)
}

// Exp returns eᵃ.
func Exp(a Number) Number {
	e := math.Exp(a.Re)

	return chain(e, a, e)
}

// Log returns ln(a).
func Log(a Number) Number { return chain(math.Log(a.Re), a, 1/a.Re) }

// Pow returns aᵖ for a real exponent p.
func Pow(a Number, p float64) Number {
	switch p {
	case 0:
		return chain(1, a, 0)
	case 1:
		return chain(a.Re, a, 1)
	}

	return chain(math.Pow(a.Re, p), a, p*math.Pow(a.Re, p-1))
}

// Powi returns aⁿ for an integer exponent n.
func Powi(a Number, n int) Number {
	if n == 0 {
		return chain(1, a, 0)
	}
	v := math.Pow(a.Re, float64(n))
	d := float64(n) * math.Pow(a.Re, float64(n-1))

	return chain(v, a, d)
}

// Abs returns |a|. The derivative at zero is taken as zero.
func Abs(a Number) Number {
	switch {
	case a.Re > 0:
		return chain(a.Re, a, 1)
	case a.Re < 0:
		return chain(-a.Re, a, -1)
	default:
		return chain(0, a, 0)
	}
}

// Hypot returns √(a² + b²) without undue overflow.
func Hypot(a, b Number) Number {
	h := math.Hypot(a.Re, b.Re)
	if h == 0 {
		return linear(0, a, 0, b, 0)
	}

	return linear(h, a, a.Re/h, b, b.Re/h)
}

// Sinh returns sinh(a).
func Sinh(a Number) Number { return chain(math.Sinh(a.Re), a, math.Cosh(a.Re)) }

// Cosh returns cosh(a).
func Cosh(a Number) Number { return chain(math.Cosh(a.Re), a, math.Sinh(a.Re)) }

// Tanh returns tanh(a).
func Tanh(a Number) Number {
	t := math.Tanh(a.Re)

	return chain(t, a, 1-t*t)
}
