package trajectory

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/spatialmath"
)

func squareKinematics(t *testing.T) *kinematics.SwerveKinematics {
	t.Helper()
	k, err := kinematics.NewSwerveKinematics(
		r2.Point{X: 0.3, Y: 0.3},
		r2.Point{X: 0.3, Y: -0.3},
		r2.Point{X: -0.3, Y: 0.3},
		r2.Point{X: -0.3, Y: -0.3},
	)
	test.That(t, err, test.ShouldBeNil)
	return k
}

func sCurve(t *testing.T, cfg *Config) *Trajectory {
	t.Helper()
	traj, err := Generate(
		context.Background(),
		spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{}),
		[]r2.Point{{X: 1, Y: 1}, {X: 2, Y: -1}},
		spatialmath.NewPose2d(3, 0, spatialmath.Rotation2d{}),
		cfg,
	)
	test.That(t, err, test.ShouldBeNil)
	return traj
}

func TestGenerateSCurve(t *testing.T) {
	kin := squareKinematics(t)
	cfg := NewConfig(3, 3).SetKinematics(kin)
	traj := sCurve(t, cfg)

	states := traj.States()
	test.That(t, len(states), test.ShouldBeGreaterThan, 10)
	test.That(t, states[0].Time, test.ShouldEqual, 0)
	test.That(t, states[0].Velocity, test.ShouldEqual, 0)
	test.That(t, states[len(states)-1].Velocity, test.ShouldAlmostEqual, 0)
	test.That(t, traj.InitialPose().AlmostEqual(spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{}), 1e-9, 1e-9), test.ShouldBeTrue)
	test.That(t, traj.FinalPose().AlmostEqual(spatialmath.NewPose2d(3, 0, spatialmath.Rotation2d{}), 1e-9, 1e-6), test.ShouldBeTrue)

	var pathLength float64
	for i, s := range states {
		test.That(t, math.Abs(s.Velocity), test.ShouldBeLessThanOrEqualTo, cfg.MaxVelocity+1e-9)
		// The kinematics constraint keeps every wheel within the limit while following the path.
		moduleStates := kin.ToModuleStates(kinematics.ChassisSpeeds{
			Vx:    s.Velocity * s.Pose.Rotation().Cos(),
			Vy:    s.Velocity * s.Pose.Rotation().Sin(),
			Omega: s.Velocity * s.Curvature,
		}, nil)
		test.That(t, kinematics.MaxSpeed(moduleStates), test.ShouldBeLessThanOrEqualTo, cfg.MaxVelocity+1e-6)
		if i > 0 {
			test.That(t, s.Time, test.ShouldBeGreaterThan, states[i-1].Time)
			pathLength += s.Pose.Distance(states[i-1].Pose)
		}
	}
	// The S-curve is longer than the straight line and cannot be driven faster than max velocity.
	test.That(t, pathLength, test.ShouldBeGreaterThan, 3)
	test.That(t, traj.Duration(), test.ShouldBeGreaterThan, pathLength/cfg.MaxVelocity)
}

func TestGenerateStraightLineProfile(t *testing.T) {
	traj, err := GenerateFromPoses(context.Background(), []spatialmath.Pose2d{
		spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{}),
		spatialmath.NewPose2d(4, 0, spatialmath.Rotation2d{}),
	}, NewConfig(1, 1))
	test.That(t, err, test.ShouldBeNil)

	// One second to reach 1 m/s, three at cruise, one to stop.
	// The discrete path rounds the corners of the profile a little.
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 5, 0.01)
	test.That(t, traj.Sample(0.5).Velocity, test.ShouldAlmostEqual, 0.5, 0.01)
	test.That(t, traj.Sample(2.5).Velocity, test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, traj.Sample(2.5).Pose.X(), test.ShouldAlmostEqual, 2, 0.01)
	test.That(t, traj.Sample(4.5).Velocity, test.ShouldAlmostEqual, 0.5, 0.01)
	for _, s := range traj.States() {
		test.That(t, s.Pose.Y(), test.ShouldAlmostEqual, 0)
		test.That(t, s.Curvature, test.ShouldAlmostEqual, 0)
	}
}

func TestGenerateStartEndVelocity(t *testing.T) {
	cfg := NewConfig(2, 1)
	cfg.StartVelocity = 1
	cfg.EndVelocity = 1
	traj, err := GenerateFromPoses(context.Background(), []spatialmath.Pose2d{
		spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{}),
		spatialmath.NewPose2d(3, 0, spatialmath.Rotation2d{}),
	}, cfg)
	test.That(t, err, test.ShouldBeNil)
	states := traj.States()
	test.That(t, states[0].Velocity, test.ShouldAlmostEqual, 1)
	test.That(t, states[len(states)-1].Velocity, test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, traj.Duration(), test.ShouldBeLessThan, 3)
}

func TestGenerateReversed(t *testing.T) {
	cfg := NewConfig(1, 1)
	cfg.Reversed = true
	traj, err := GenerateFromPoses(context.Background(), []spatialmath.Pose2d{
		spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{}),
		spatialmath.NewPose2d(-2, 0, spatialmath.Rotation2d{}),
	}, cfg)
	test.That(t, err, test.ShouldBeNil)

	for _, s := range traj.States() {
		test.That(t, s.Velocity, test.ShouldBeLessThanOrEqualTo, 0)
		test.That(t, s.Pose.Rotation().Radians(), test.ShouldAlmostEqual, 0)
	}
	test.That(t, traj.FinalPose().X(), test.ShouldAlmostEqual, -2)
	test.That(t, traj.Sample(traj.Duration()/2).Pose.X(), test.ShouldAlmostEqual, -1, 0.01)

	cubic, err := Generate(context.Background(),
		spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{}),
		[]r2.Point{{X: -1, Y: 0.5}},
		spatialmath.NewPose2d(-2, 0, spatialmath.Rotation2d{}),
		cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cubic.FinalPose().X(), test.ShouldAlmostEqual, -2)
	test.That(t, cubic.FinalPose().Rotation().Radians(), test.ShouldAlmostEqual, 0, 1e-6)
}

func TestGenerateCentripetalConstraint(t *testing.T) {
	const maxCentripetal = 1.0
	traj := sCurve(t, NewConfig(3, 3).AddConstraint(CentripetalAccelerationConstraint{Max: maxCentripetal}))
	for _, s := range traj.States() {
		test.That(t, s.Velocity*s.Velocity*math.Abs(s.Curvature), test.ShouldBeLessThanOrEqualTo, maxCentripetal+1e-6)
	}

	capped := sCurve(t, NewConfig(3, 3).AddConstraint(MaxVelocityConstraint{Max: 0.5}))
	for _, s := range capped.States() {
		test.That(t, s.Velocity, test.ShouldBeLessThanOrEqualTo, 0.5)
	}
}

func TestGenerateInvalid(t *testing.T) {
	ctx := context.Background()
	origin := spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{})
	end := spatialmath.NewPose2d(3, 0, spatialmath.Rotation2d{})

	for _, tc := range []struct {
		name     string
		interior []r2.Point
		end      spatialmath.Pose2d
		cfg      *Config
		errStr   string
	}{
		{"coincident ends", nil, origin, NewConfig(1, 1), "coincide"},
		{"coincident interior", []r2.Point{{X: 1}, {X: 1}}, end, NewConfig(1, 1), "coincide"},
		{"nan waypoint", []r2.Point{{X: math.NaN()}}, end, NewConfig(1, 1), "not finite"},
		{"zero velocity", nil, end, NewConfig(0, 1), "max velocity"},
		{"negative acceleration", nil, end, NewConfig(1, -1), "max acceleration"},
		{"nil config", nil, end, nil, "no trajectory config"},
		{"nil constraint", nil, end, NewConfig(1, 1).AddConstraint(nil), "constraint 0 is nil"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Generate(ctx, origin, tc.interior, tc.end, tc.cfg)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, ErrInvalidTrajectory), test.ShouldBeTrue)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errStr)
		})
	}

	_, err := GenerateFromPoses(ctx, []spatialmath.Pose2d{origin}, NewConfig(1, 1))
	test.That(t, errors.Is(err, ErrInvalidTrajectory), test.ShouldBeTrue)

	startTooFast := NewConfig(1, 1)
	startTooFast.StartVelocity = 2
	_, err = GenerateFromPoses(ctx, []spatialmath.Pose2d{origin, end}, startTooFast)
	test.That(t, errors.Is(err, ErrInvalidTrajectory), test.ShouldBeTrue)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = GenerateFromPoses(canceled, []spatialmath.Pose2d{origin, end}, NewConfig(1, 1))
	test.That(t, err, test.ShouldEqual, context.Canceled)
}

type infeasibleConstraint struct{}

func (infeasibleConstraint) MaxVelocity(_ spatialmath.Pose2d, _, v float64) float64 { return v }

func (infeasibleConstraint) MinMaxAcceleration(spatialmath.Pose2d, float64, float64) MinMax {
	return MinMax{Min: 1, Max: -1}
}

func TestGenerateInfeasibleConstraint(t *testing.T) {
	_, err := GenerateFromPoses(context.Background(), []spatialmath.Pose2d{
		spatialmath.NewPose2d(0, 0, spatialmath.Rotation2d{}),
		spatialmath.NewPose2d(1, 0, spatialmath.Rotation2d{}),
	}, NewConfig(1, 1).AddConstraint(infeasibleConstraint{}))
	test.That(t, errors.Is(err, ErrInvalidTrajectory), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "infeasible")
}
