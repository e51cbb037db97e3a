package fake

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
)

func newTestDrivetrain(t *testing.T) (*Drivetrain, *clock.Mock) {
	t.Helper()
	kin, err := kinematics.NewSwerveKinematics(r2.Point{X: 0.3, Y: 0.3}, r2.Point{X: -0.3, Y: -0.3})
	test.That(t, err, test.ShouldBeNil)
	clk := clock.NewMock()
	return NewDrivetrain(kin, spatialmath.NewPose2d(1, 1, spatialmath.Rotation2d{}), clk, logging.NewTestLogger(t)), clk
}

func TestDrivetrainMoves(t *testing.T) {
	ctx := context.Background()
	d, clk := newTestDrivetrain(t)

	backward := kinematics.ModuleState{Speed: 1, Angle: spatialmath.NewRotation2d(math.Pi)}
	test.That(t, d.SetModuleStates(ctx, []kinematics.ModuleState{backward, backward}), test.ShouldBeNil)
	test.That(t, d.CommandCount(), test.ShouldEqual, 1)

	// modules reverse instead of turning half a revolution
	applied, err := d.ModuleStates(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, applied[0].Speed, test.ShouldAlmostEqual, -1)
	test.That(t, applied[0].Angle.Radians(), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, d.LastCommand()[0], test.ShouldResemble, backward)

	clk.Add(time.Second)
	test.That(t, d.TruePose().X(), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, d.TruePose().Y(), test.ShouldAlmostEqual, 1, 1e-9)

	heading, err := d.Heading(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, heading.Radians(), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestDrivetrainRejectsBadCommands(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDrivetrain(t)

	test.That(t, d.SetModuleStates(ctx, make([]kinematics.ModuleState, 3)), test.ShouldNotBeNil)
	test.That(t, d.SetModuleStates(ctx, []kinematics.ModuleState{{Speed: math.NaN()}, {}}), test.ShouldNotBeNil)

	boom := errors.New("boom")
	d.FailNextCommand(boom)
	test.That(t, d.SetModuleStates(ctx, make([]kinematics.ModuleState, 2)), test.ShouldEqual, boom)
	test.That(t, d.SetModuleStates(ctx, make([]kinematics.ModuleState, 2)), test.ShouldBeNil)
	test.That(t, d.CommandCount(), test.ShouldEqual, 1)
}
