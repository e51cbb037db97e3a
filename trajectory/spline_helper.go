package trajectory

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/holonomic/spatialmath"
)

// tangentScale stretches endpoint tangents relative to the chord length. Larger values make the
// path hug the waypoint headings longer.
const tangentScale = 1.2

func cubicControlVector(scalar float64, pose spatialmath.Pose2d) ControlVector {
	return ControlVector{
		X: []float64{pose.X(), scalar * pose.Rotation().Cos()},
		Y: []float64{pose.Y(), scalar * pose.Rotation().Sin()},
	}
}

func quinticControlVector(scalar float64, pose spatialmath.Pose2d) ControlVector {
	return ControlVector{
		X: []float64{pose.X(), scalar * pose.Rotation().Cos(), 0},
		Y: []float64{pose.Y(), scalar * pose.Rotation().Sin(), 0},
	}
}

// cubicControlVectorsFromWaypoints returns the clamped end conditions for a cubic path that
// starts at start, passes through interior and ends at end.
func cubicControlVectorsFromWaypoints(
	start spatialmath.Pose2d,
	interior []r2.Point,
	end spatialmath.Pose2d,
) (ControlVector, ControlVector) {
	var scalar float64
	if len(interior) == 0 {
		scalar = tangentScale * start.Point().Sub(end.Point()).Norm()
	} else {
		scalar = tangentScale * start.Point().Sub(interior[0]).Norm()
	}
	initial := cubicControlVector(scalar, start)

	if len(interior) > 0 {
		scalar = tangentScale * end.Point().Sub(interior[len(interior)-1]).Norm()
	}
	final := cubicControlVector(scalar, end)
	return initial, final
}

// cubicSplinesFromControlVectors fits a clamped cubic spline: the first derivative is continuous
// through every interior point and fixed at both ends by the control vectors.
func cubicSplinesFromControlVectors(initial ControlVector, interior []r2.Point, final ControlVector) ([]Spline, error) {
	switch len(interior) {
	case 0:
		return []Spline{newCubicHermiteSpline(initial, final)}, nil
	case 1:
		xDeriv := (3*(final.X[0]-initial.X[0]) - final.X[1] - initial.X[1]) / 4
		yDeriv := (3*(final.Y[0]-initial.Y[0]) - final.Y[1] - initial.Y[1]) / 4
		mid := ControlVector{X: []float64{interior[0].X, xDeriv}, Y: []float64{interior[0].Y, yDeriv}}
		return []Spline{newCubicHermiteSpline(initial, mid), newCubicHermiteSpline(mid, final)}, nil
	}

	points := make([]r2.Point, 0, len(interior)+2)
	points = append(points, r2.Point{X: initial.X[0], Y: initial.Y[0]})
	points = append(points, interior...)
	points = append(points, r2.Point{X: final.X[0], Y: final.Y[0]})

	// The unknowns are the tangents at the interior points. Each row is
	// t[i-1] + 4 t[i] + t[i+1] = 3 (p[i+1] - p[i-1]) with the known end tangents moved to the
	// right hand side.
	n := len(interior)
	diag := make([]float64, n)
	lower := make([]float64, n-1)
	upper := make([]float64, n-1)
	for i := range diag {
		diag[i] = 4
	}
	for i := range lower {
		lower[i] = 1
		upper[i] = 1
	}
	rhs := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		rhs.Set(i, 0, 3*(points[i+2].X-points[i].X))
		rhs.Set(i, 1, 3*(points[i+2].Y-points[i].Y))
	}
	rhs.Set(0, 0, rhs.At(0, 0)-initial.X[1])
	rhs.Set(0, 1, rhs.At(0, 1)-initial.Y[1])
	rhs.Set(n-1, 0, rhs.At(n-1, 0)-final.X[1])
	rhs.Set(n-1, 1, rhs.At(n-1, 1)-final.Y[1])

	var tangents mat.Dense
	if err := mat.NewTridiag(n, lower, diag, upper).SolveTo(&tangents, false, rhs); err != nil {
		return nil, errors.Wrap(err, "cannot solve for interior tangents")
	}

	splines := make([]Spline, 0, n+1)
	prev := initial
	for i := 0; i <= n; i++ {
		next := final
		if i < n {
			next = ControlVector{
				X: []float64{points[i+1].X, tangents.At(i, 0)},
				Y: []float64{points[i+1].Y, tangents.At(i, 1)},
			}
		}
		splines = append(splines, newCubicHermiteSpline(prev, next))
		prev = next
	}
	return splines, nil
}

// quinticSplinesFromWaypoints joins consecutive poses with quintic splines whose tangents follow
// each pose's heading.
func quinticSplinesFromWaypoints(waypoints []spatialmath.Pose2d) []Spline {
	splines := make([]Spline, 0, len(waypoints)-1)
	for i := 0; i+1 < len(waypoints); i++ {
		p0, p1 := waypoints[i], waypoints[i+1]
		scalar := tangentScale * p0.Distance(p1)
		splines = append(splines, newQuinticHermiteSpline(quinticControlVector(scalar, p0), quinticControlVector(scalar, p1)))
	}
	return splines
}
