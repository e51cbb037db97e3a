package drivetrain

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/holonomic/components/drivetrain/fake"
	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
)

func newTestDrive(t *testing.T) (*Drive, *fake.Drivetrain, *clock.Mock) {
	t.Helper()
	kin, err := kinematics.NewSwerveKinematics(
		r2.Point{X: 0.3, Y: 0.3},
		r2.Point{X: 0.3, Y: -0.3},
		r2.Point{X: -0.3, Y: 0.3},
		r2.Point{X: -0.3, Y: -0.3},
	)
	test.That(t, err, test.ShouldBeNil)
	logger := logging.NewTestLogger(t)
	clk := clock.NewMock()
	sim := fake.NewDrivetrain(kin, spatialmath.Pose2d{}, clk, logger)
	return NewDrive("drive", kin, sim, sim, sim, 4, clk, logger), sim, clk
}

func TestDriveOdometry(t *testing.T) {
	ctx := context.Background()
	d, sim, clk := newTestDrive(t)

	test.That(t, d.Localized(), test.ShouldBeFalse)
	test.That(t, d.Periodic(ctx), test.ShouldBeNil)

	test.That(t, d.ResetPose(ctx, spatialmath.Pose2d{}), test.ShouldBeNil)
	test.That(t, d.Localized(), test.ShouldBeTrue)

	test.That(t, d.DriveSpeeds(ctx, kinematics.ChassisSpeeds{Vx: 1}, false), test.ShouldBeNil)
	for i := 0; i < 50; i++ {
		clk.Add(20 * time.Millisecond)
		test.That(t, d.Periodic(ctx), test.ShouldBeNil)
	}
	test.That(t, d.Pose().X(), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, d.Pose().Y(), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, sim.TruePose().X(), test.ShouldAlmostEqual, 1, 1e-9)
}

func TestDriveFieldRelative(t *testing.T) {
	ctx := context.Background()
	d, sim, _ := newTestDrive(t)

	sim.SetGyroOffset(spatialmath.NewRotation2dFromDegrees(90))
	test.That(t, d.ResetPose(ctx, spatialmath.NewPose2d(0, 0, spatialmath.NewRotation2dFromDegrees(90))), test.ShouldBeNil)

	test.That(t, d.DriveSpeeds(ctx, kinematics.ChassisSpeeds{Vx: 1}, true), test.ShouldBeNil)
	for _, s := range d.LastCommanded() {
		test.That(t, s.Speed, test.ShouldAlmostEqual, 1, 1e-9)
		test.That(t, s.Angle.Radians(), test.ShouldAlmostEqual, -math.Pi/2, 1e-9)
	}
}

func TestDriveStopHoldsAngles(t *testing.T) {
	ctx := context.Background()
	d, sim, _ := newTestDrive(t)

	test.That(t, d.DriveSpeeds(ctx, kinematics.ChassisSpeeds{Vy: 10}, false), test.ShouldBeNil)
	for _, s := range d.LastCommanded() {
		test.That(t, s.Speed, test.ShouldAlmostEqual, 4, 1e-9)
	}

	test.That(t, d.Stop(ctx), test.ShouldBeNil)
	for _, s := range sim.LastCommand() {
		test.That(t, s.Speed, test.ShouldEqual, 0.0)
		test.That(t, s.Angle.Radians(), test.ShouldAlmostEqual, math.Pi/2, 1e-9)
	}

	err := d.SetModuleStates(ctx, make([]kinematics.ModuleState, 3))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 4 module states")
}
