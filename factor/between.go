package factor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/lvlopt/dual"
	"github.com/katalvlaran/lvlopt/lie"
)

var (
	se2Dims = []int{3, 3}
	se3Dims = []int{7, 7}
)

// BetweenSE2 constrains two planar poses by a measured relative motion.
// The residual is the (x, y, theta) error of T1⁻¹·T0·Tmeas, which is zero
// when T0 = T1·Tmeas⁻¹.
type BetweenSE2 struct {
	DX, DY, DTheta float64
}

// NewBetweenSE2 returns the constraint for the measurement (dx, dy, dtheta).
func NewBetweenSE2(dx, dy, dtheta float64) *BetweenSE2 {
	return &BetweenSE2{DX: dx, DY: dy, DTheta: dtheta}
}

// ResidualDim is 3: (x, y, theta).
func (b *BetweenSE2) ResidualDim() int { return 3 }

// ParameterDims is two [theta, x, y] poses.
func (b *BetweenSE2) ParameterDims() []int { return se2Dims }

// Residual implements CostFunction, so NewAutoDiff(b) yields the
// automatically differentiated twin of the analytic Evaluate.
func (b *BetweenSE2) Residual(params []dual.Vector) dual.Vector {
	t0 := lie.SE2FromVector(params[0])
	t1 := lie.SE2FromVector(params[1])
	m := lie.SE2FromValues(b.DTheta, b.DX, b.DY)

	return t1.Inverse().Compose(t0).Compose(m).Error()
}

// Evaluate computes the residual and its closed-form Jacobian.
//
// With φ = θ0 − θ1 and R(·) the planar rotation:
//
//	r_xy = R(φ)·m + R(θ1)ᵗ·(t0 − t1)
//	r_θ  = wrap(φ + dθ)
func (b *BetweenSE2) Evaluate(params [][]float64, wantJacobian bool) ([]float64, []*mat.Dense, error) {
	if err := CheckParams(se2Dims, params); err != nil {
		return nil, nil, err
	}
	th0, x0, y0 := params[0][0], params[0][1], params[0][2]
	th1, x1, y1 := params[1][0], params[1][1], params[1][2]

	phi := th0 - th1
	cp, sp := math.Cos(phi), math.Sin(phi)
	c1, s1 := math.Cos(th1), math.Sin(th1)
	dx, dy := x0-x1, y0-y1

	// R(φ)·m and R(θ1)ᵗ·(t0 − t1)
	mx := cp*b.DX - sp*b.DY
	my := sp*b.DX + cp*b.DY
	lx := c1*dx + s1*dy
	ly := -s1*dx + c1*dy

	ang := phi + b.DTheta
	r := []float64{mx + lx, my + ly, math.Atan2(math.Sin(ang), math.Cos(ang))}
	if !wantJacobian {
		return r, nil, nil
	}

	// ∂(R(φ)·m)/∂φ
	dmx := -sp*b.DX - cp*b.DY
	dmy := cp*b.DX - sp*b.DY
	// ∂(R(θ1)ᵗ·d)/∂θ1
	dlx := -s1*dx + c1*dy
	dly := -c1*dx - s1*dy

	j0 := mat.NewDense(3, 3, []float64{
		dmx, c1, s1,
		dmy, -s1, c1,
		1, 0, 0,
	})
	j1 := mat.NewDense(3, 3, []float64{
		-dmx + dlx, -c1, -s1,
		-dmy + dly, s1, -c1,
		-1, 0, 0,
	})

	return r, []*mat.Dense{j0, j1}, nil
}

// BetweenSE3 constrains two spatial poses by a measured relative motion.
// The residual is log(T1⁻¹·T0·Tmeas) ∈ R⁶ ordered (ω, ρ).
type BetweenSE3 struct {
	T [3]float64 // measured translation
	Q [4]float64 // measured rotation [qx, qy, qz, qw]
}

// NewBetweenSE3 returns the constraint for translation t and quaternion q.
func NewBetweenSE3(t [3]float64, q [4]float64) *BetweenSE3 {
	return &BetweenSE3{T: t, Q: q}
}

// ResidualDim is 6: (ω, ρ).
func (b *BetweenSE3) ResidualDim() int { return 6 }

// ParameterDims is two [qx, qy, qz, qw, x, y, z] poses.
func (b *BetweenSE3) ParameterDims() []int { return se3Dims }

func (b *BetweenSE3) measurement() lie.SE3 {
	return lie.SE3FromValues([]float64{b.Q[0], b.Q[1], b.Q[2], b.Q[3], b.T[0], b.T[1], b.T[2]})
}

// Residual is log(T1⁻¹·T0·Tmeas) over dual numbers.
func (b *BetweenSE3) Residual(params []dual.Vector) dual.Vector {
	t0 := lie.SE3FromVector(params[0])
	t1 := lie.SE3FromVector(params[1])

	return t1.Inverse().Compose(t0).Compose(b.measurement()).Log()
}

// Evaluate differentiates Residual in forward mode.
func (b *BetweenSE3) Evaluate(params [][]float64, wantJacobian bool) ([]float64, []*mat.Dense, error) {
	return evaluateCost(b, se3Dims, params, wantJacobian)
}
