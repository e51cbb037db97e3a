package trajectory

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

// Subdivision stops once consecutive samples are closer than these bounds, measured as the twist
// between them.
const (
	maxSegmentDx     = 0.127
	maxSegmentDy     = 0.00127
	maxSegmentDtheta = 0.0872

	// maxSubdivisions bounds the work spent on one spline. Hitting it means the spline is
	// malformed, usually because two waypoints face into each other.
	maxSubdivisions = 5000
)

type splineInterval struct {
	t0, t1 float64
}

// parameterizeSpline samples spline densely enough that every pair of consecutive samples is
// within the segment bounds. The first sample is at t=0 and the last at t=1.
func parameterizeSpline(spline Spline) ([]PoseWithCurvature, error) {
	first, ok := spline.Point(0)
	if !ok {
		return nil, errors.Wrap(ErrInvalidTrajectory, "spline has no tangent at its start")
	}
	points := []PoseWithCurvature{first}

	// Intervals are pushed second half first so the first half is refined before moving on.
	stack := []splineInterval{{0, 1}}
	for iterations := 0; len(stack) > 0; iterations++ {
		if iterations >= maxSubdivisions {
			return nil, errors.Wrapf(ErrInvalidTrajectory,
				"spline could not be parameterized in %d subdivisions; it may be malformed", maxSubdivisions)
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		start, okStart := spline.Point(current.t0)
		end, okEnd := spline.Point(current.t1)
		if !okStart || !okEnd {
			return nil, errors.Wrapf(ErrInvalidTrajectory, "spline has no tangent between t=%.4f and t=%.4f", current.t0, current.t1)
		}

		twist := start.Pose.Log(end.Pose)
		if math.Abs(twist.Dy) > maxSegmentDy || math.Abs(twist.Dx) > maxSegmentDx || math.Abs(twist.Dtheta) > maxSegmentDtheta {
			mid := (current.t0 + current.t1) / 2
			stack = append(stack, splineInterval{mid, current.t1}, splineInterval{current.t0, mid})
			continue
		}
		points = append(points, end)
	}
	return points, nil
}

// splinePointsFromSplines parameterizes each spline in turn and joins the results, dropping the
// duplicate point where two splines meet.
func splinePointsFromSplines(ctx context.Context, splines []Spline) ([]PoseWithCurvature, error) {
	var points []PoseWithCurvature
	for i, spline := range splines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		segment, err := parameterizeSpline(spline)
		if err != nil {
			return nil, errors.Wrapf(err, "spline %d", i)
		}
		if len(points) > 0 {
			segment = segment[1:]
		}
		for _, p := range segment {
			if len(points) > 0 && points[len(points)-1].Pose.Distance(p.Pose) < minPointSpacing {
				continue
			}
			points = append(points, p)
		}
	}
	return points, nil
}
