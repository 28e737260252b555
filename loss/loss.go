package loss

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidScale is returned by constructors for a non-positive or
// non-finite scale parameter.
var ErrInvalidScale = errors.New("loss: scale must be positive and finite")

// ErrUnknownLoss is returned by Parse for an unrecognized name.
var ErrUnknownLoss = errors.New("loss: unknown loss function")

// Loss maps a squared residual norm to [ρ, ρ', ρ''].
type Loss interface {
	Evaluate(s float64) [3]float64
}

// rhoFloor keeps ρ' strictly positive so that √ρ' is well defined.
const rhoFloor = math.SmallestNonzeroFloat64

func checkScale(scale float64) error {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}

	return nil
}

// Trivial is the identity loss ρ(s) = s.
type Trivial struct{}

// Evaluate returns (s, 1, 0).
func (Trivial) Evaluate(s float64) [3]float64 { return [3]float64{s, 1, 0} }

// Huber is quadratic for s ≤ scale² and grows like 2·scale·√s beyond it.
type Huber struct {
	scale  float64
	scale2 float64
}

// NewHuber returns a Huber loss with the given inlier threshold.
func NewHuber(scale float64) (*Huber, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}

	return &Huber{scale: scale, scale2: scale * scale}, nil
}

// Evaluate returns ρ and its first two derivatives at s.
func (h *Huber) Evaluate(s float64) [3]float64 {
	if s <= h.scale2 {
		return [3]float64{s, 1, 0}
	}
	r := math.Sqrt(s)
	rho1 := math.Max(h.scale/r, rhoFloor)

	return [3]float64{2*h.scale*r - h.scale2, rho1, -rho1 / (2 * s)}
}

// Cauchy is ρ(s) = b·log(1 + s/b) with b = scale².
type Cauchy struct {
	b, c float64
}

// NewCauchy returns a Cauchy loss.
func NewCauchy(scale float64) (*Cauchy, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	b := scale * scale

	return &Cauchy{b: b, c: 1 / b}, nil
}

// Evaluate returns b·log(1 + s/b) and its derivatives, b = scale².
func (l *Cauchy) Evaluate(s float64) [3]float64 {
	sum := 1 + s*l.c
	inv := 1 / sum

	return [3]float64{l.b * math.Log(sum), math.Max(rhoFloor, inv), -l.c * inv * inv}
}

// Arctan is ρ(s) = a·atan(s/a); it saturates at a·π/2.
type Arctan struct {
	a, b float64
}

// NewArctan returns an Arctan loss with the given tolerance a.
func NewArctan(tolerance float64) (*Arctan, error) {
	if err := checkScale(tolerance); err != nil {
		return nil, err
	}

	return &Arctan{a: tolerance, b: 1 / (tolerance * tolerance)}, nil
}

// Evaluate returns a·atan2(s, a) and its derivatives; ρ' is floored at a
// small positive value.
func (l *Arctan) Evaluate(s float64) [3]float64 {
	sum := 1 + s*s*l.b
	inv := 1 / sum

	return [3]float64{l.a * math.Atan2(s, l.a), math.Max(rhoFloor, inv), -2 * s * l.b * inv * inv}
}

// SoftLOne is ρ(s) = 2b(√(1 + s/b) − 1) with b = scale².
type SoftLOne struct {
	b, c float64
}

// NewSoftLOne returns a soft L1 loss.
func NewSoftLOne(scale float64) (*SoftLOne, error) {
	if err := checkScale(scale); err != nil {
		return nil, err
	}
	b := scale * scale

	return &SoftLOne{b: b, c: 1 / b}, nil
}

// Evaluate returns 2b(√(1 + s/b) − 1) and its derivatives.
func (l *SoftLOne) Evaluate(s float64) [3]float64 {
	sum := 1 + s*l.c
	tmp := math.Sqrt(sum)
	rho1 := math.Max(rhoFloor, 1/tmp)

	return [3]float64{2 * l.b * (tmp - 1), rho1, -(l.c * rho1) / (2 * sum)}
}

// Parse builds a loss from "name" or "name:scale", e.g. "huber:1.5".
// Recognized names: trivial (or none), huber, cauchy, arctan, softlone.
// The scale defaults to 1.
func Parse(spec string) (Loss, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(strings.ToLower(spec)), ":")
	scale := 1.0
	if hasArg {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidScale, arg, err)
		}
		scale = v
	}
	switch name {
	case "", "none", "trivial":
		return Trivial{}, nil
	case "huber":
		return NewHuber(scale)
	case "cauchy":
		return NewCauchy(scale)
	case "arctan":
		return NewArctan(scale)
	case "softlone", "soft_l1":
		return NewSoftLOne(scale)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLoss, name)
	}
}
