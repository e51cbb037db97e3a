package trajectory

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/utils"
)

// minWaypointSpacing is the closest two consecutive waypoints may be.
const minWaypointSpacing = 1e-6

// flip turns a pose around in place. Reversed paths are built facing forward and flipped back.
var flip = spatialmath.NewTransform2d(r2.Point{}, spatialmath.NewRotation2d(math.Pi))

// Generate builds a trajectory that starts at start, passes through the interior points and
// ends at end. The path is a clamped cubic spline whose end tangents follow the start and end
// headings.
func Generate(
	ctx context.Context,
	start spatialmath.Pose2d,
	interior []r2.Point,
	end spatialmath.Pose2d,
	cfg *Config,
) (*Trajectory, error) {
	ctx, span := trace.StartSpan(ctx, "trajectory::Generate")
	defer span.End()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chain := make([]r2.Point, 0, len(interior)+2)
	chain = append(chain, start.Point())
	chain = append(chain, interior...)
	chain = append(chain, end.Point())
	if err := checkWaypoints(chain); err != nil {
		return nil, err
	}
	if !utils.IsFinite(start.Rotation().Radians(), end.Rotation().Radians()) {
		return nil, errors.Wrap(ErrInvalidTrajectory, "waypoint heading is not finite")
	}

	initial, final := cubicControlVectorsFromWaypoints(start, interior, end)
	if cfg.Reversed {
		initial.X[1], initial.Y[1] = -initial.X[1], -initial.Y[1]
		final.X[1], final.Y[1] = -final.X[1], -final.Y[1]
	}
	splines, err := cubicSplinesFromControlVectors(initial, interior, final)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidTrajectory, err.Error())
	}
	return parameterizeSplines(ctx, splines, cfg)
}

// GenerateFromPoses builds a trajectory through every pose in order using quintic splines, so the
// path is tangent to each pose's heading.
func GenerateFromPoses(ctx context.Context, waypoints []spatialmath.Pose2d, cfg *Config) (*Trajectory, error) {
	ctx, span := trace.StartSpan(ctx, "trajectory::GenerateFromPoses")
	defer span.End()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(waypoints) < 2 {
		return nil, errors.Wrapf(ErrInvalidTrajectory, "need at least 2 waypoints, got %d", len(waypoints))
	}
	chain := make([]r2.Point, len(waypoints))
	for i, w := range waypoints {
		chain[i] = w.Point()
	}
	if err := checkWaypoints(chain); err != nil {
		return nil, err
	}

	poses := waypoints
	if cfg.Reversed {
		poses = make([]spatialmath.Pose2d, len(waypoints))
		for i, w := range waypoints {
			poses[i] = w.Plus(flip)
		}
	}
	return parameterizeSplines(ctx, quinticSplinesFromWaypoints(poses), cfg)
}

func parameterizeSplines(ctx context.Context, splines []Spline, cfg *Config) (*Trajectory, error) {
	points, err := splinePointsFromSplines(ctx, splines)
	if err != nil {
		return nil, err
	}
	if cfg.Reversed {
		for i := range points {
			points[i].Pose = points[i].Pose.Plus(flip)
			points[i].Curvature = -points[i].Curvature
		}
	}
	return timeParameterize(points, cfg)
}

func checkWaypoints(chain []r2.Point) error {
	for i, p := range chain {
		if !utils.IsFinite(p.X, p.Y) {
			return errors.Wrapf(ErrInvalidTrajectory, "waypoint %d is not finite", i)
		}
		if i > 0 && p.Sub(chain[i-1]).Norm() < minWaypointSpacing {
			return errors.Wrapf(ErrInvalidTrajectory, "waypoints %d and %d coincide at %v", i-1, i, p)
		}
	}
	return nil
}
