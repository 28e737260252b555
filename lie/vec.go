package lie

import "github.com/katalvlaran/lvlopt/dual"

// vec3 is a 3-vector of dual numbers.
type vec3 [3]dual.Number

// mat3 is a row-major 3×3 matrix of dual numbers.
type mat3 [3][3]dual.Number

func toVec3(v dual.Vector) vec3 { return vec3{v[0], v[1], v[2]} }

func (a vec3) add(b vec3) vec3 {
	return vec3{dual.Add(a[0], b[0]), dual.Add(a[1], b[1]), dual.Add(a[2], b[2])}
}

func (a vec3) neg() vec3 {
	return vec3{dual.Neg(a[0]), dual.Neg(a[1]), dual.Neg(a[2])}
}

func (a vec3) scale(k dual.Number) vec3 {
	return vec3{dual.Mul(a[0], k), dual.Mul(a[1], k), dual.Mul(a[2], k)}
}

func (a vec3) dot(b vec3) dual.Number {
	return dual.Sum(dual.Mul(a[0], b[0]), dual.Mul(a[1], b[1]), dual.Mul(a[2], b[2]))
}

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		dual.Sub(dual.Mul(a[1], b[2]), dual.Mul(a[2], b[1])),
		dual.Sub(dual.Mul(a[2], b[0]), dual.Mul(a[0], b[2])),
		dual.Sub(dual.Mul(a[0], b[1]), dual.Mul(a[1], b[0])),
	}
}

func (m mat3) mulVec(v vec3) vec3 {
	var out vec3
	for r := 0; r < 3; r++ {
		out[r] = dual.Sum(dual.Mul(m[r][0], v[0]), dual.Mul(m[r][1], v[1]), dual.Mul(m[r][2], v[2]))
	}

	return out
}

func (m mat3) mul(o mat3) mat3 {
	var out mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = dual.Sum(dual.Mul(m[r][0], o[0][c]), dual.Mul(m[r][1], o[1][c]), dual.Mul(m[r][2], o[2][c]))
		}
	}

	return out
}

// affine returns I + a·m + b·m².
func affine(m mat3, a, b dual.Number) mat3 {
	m2 := m.mul(m)
	var out mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := dual.Add(dual.Mul(a, m[r][c]), dual.Mul(b, m2[r][c]))
			if r == c {
				v = dual.AddScalar(v, 1)
			}
			out[r][c] = v
		}
	}

	return out
}
