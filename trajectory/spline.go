package trajectory

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/utils"
)

// PoseWithCurvature is a point on a path together with the path's curvature there, in rad/m.
type PoseWithCurvature struct {
	Pose      spatialmath.Pose2d
	Curvature float64
}

// ControlVector holds the value and derivatives of x and y at one end of a spline, lowest order
// first. Cubic splines use [value, first derivative]; quintic splines add the second derivative.
type ControlVector struct {
	X []float64
	Y []float64
}

// Spline is a parametric curve over t in [0, 1].
type Spline interface {
	// Point returns the pose and curvature at t. ok is false where the curve has no tangent.
	Point(t float64) (pt PoseWithCurvature, ok bool)
}

var (
	cubicHermiteBasis = mat.NewDense(4, 4, []float64{
		+2, +1, -2, +1,
		-3, -2, +3, -1,
		+0, +1, +0, +0,
		+1, +0, +0, +0,
	})
	quinticHermiteBasis = mat.NewDense(6, 6, []float64{
		-6, -3, -0.5, +6, -3, +0.5,
		+15, +8, +1.5, -15, +7, -1,
		-10, -6, -1.5, +10, -4, +0.5,
		0, 0, +0.5, 0, 0, 0,
		0, +1, 0, 0, 0, 0,
		+1, 0, 0, 0, 0, 0,
	})
)

// polynomialSpline is a pair of polynomials x(t), y(t). Coefficients are highest degree first.
type polynomialSpline struct {
	x, dx, ddx []float64
	y, dy, ddy []float64
}

func newPolynomialSpline(xCoeffs, yCoeffs []float64) *polynomialSpline {
	s := &polynomialSpline{x: xCoeffs, y: yCoeffs}
	s.dx = derivative(s.x)
	s.ddx = derivative(s.dx)
	s.dy = derivative(s.y)
	s.ddy = derivative(s.dy)
	return s
}

// newCubicHermiteSpline builds a cubic through two control vectors of [value, derivative].
func newCubicHermiteSpline(initial, final ControlVector) *polynomialSpline {
	return newPolynomialSpline(
		hermiteCoefficients(cubicHermiteBasis, initial.X[:2], final.X[:2]),
		hermiteCoefficients(cubicHermiteBasis, initial.Y[:2], final.Y[:2]),
	)
}

// newQuinticHermiteSpline builds a quintic through two control vectors of
// [value, derivative, second derivative].
func newQuinticHermiteSpline(initial, final ControlVector) *polynomialSpline {
	return newPolynomialSpline(
		hermiteCoefficients(quinticHermiteBasis, initial.X[:3], final.X[:3]),
		hermiteCoefficients(quinticHermiteBasis, initial.Y[:3], final.Y[:3]),
	)
}

func hermiteCoefficients(basis *mat.Dense, initial, final []float64) []float64 {
	control := make([]float64, 0, len(initial)+len(final))
	control = append(control, initial...)
	control = append(control, final...)

	var coeffs mat.VecDense
	coeffs.MulVec(basis, mat.NewVecDense(len(control), control))
	return coeffs.RawVector().Data
}

// derivative returns the coefficients of the derivative polynomial, highest degree first.
func derivative(coeffs []float64) []float64 {
	degree := len(coeffs) - 1
	if degree <= 0 {
		return []float64{0}
	}
	out := make([]float64, degree)
	for i := 0; i < degree; i++ {
		out[i] = coeffs[i] * float64(degree-i)
	}
	return out
}

func evaluate(coeffs []float64, t float64) float64 {
	var v float64
	for _, c := range coeffs {
		v = v*t + c
	}
	return v
}

func (s *polynomialSpline) Point(t float64) (PoseWithCurvature, bool) {
	dx, dy := evaluate(s.dx, t), evaluate(s.dy, t)
	ddx, ddy := evaluate(s.ddx, t), evaluate(s.ddy, t)

	speed := math.Hypot(dx, dy)
	if speed < 1e-12 {
		return PoseWithCurvature{}, false
	}
	curvature := (dx*ddy - ddx*dy) / (speed * speed * speed)
	if !utils.IsFinite(curvature) {
		return PoseWithCurvature{}, false
	}
	return PoseWithCurvature{
		Pose:      spatialmath.NewPose2d(evaluate(s.x, t), evaluate(s.y, t), spatialmath.NewRotation2dFromVector(dx, dy)),
		Curvature: curvature,
	}, true
}
