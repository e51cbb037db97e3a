package control

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/trajectory"
)

func newTestController(t *testing.T) *HolonomicDriveController {
	t.Helper()
	x, err := NewPID(PIDConfig{P: 1}, period)
	test.That(t, err, test.ShouldBeNil)
	y, err := NewPID(PIDConfig{P: 1}, period)
	test.That(t, err, test.ShouldBeNil)
	theta, err := NewProfiledPID(ProfiledPIDConfig{
		PIDConfig:       PIDConfig{P: 1},
		MaxVelocity:     math.Pi,
		MaxAcceleration: math.Pi,
	}, period)
	test.That(t, err, test.ShouldBeNil)
	return NewHolonomicDriveController(x, y, theta, logging.NewTestLogger(t))
}

func TestHolonomicFeedforward(t *testing.T) {
	c := newTestController(t)

	pose := spatialmath.NewPose2d(1, 0, spatialmath.NewRotation2dFromDegrees(30))
	desired := trajectory.State{Velocity: 2, Pose: pose}
	speeds := c.Calculate(pose, desired, spatialmath.NewRotation2d(0))

	test.That(t, speeds.Vx, test.ShouldAlmostEqual, 2*math.Cos(math.Pi/6), 1e-9)
	test.That(t, speeds.Vy, test.ShouldAlmostEqual, 2*math.Sin(math.Pi/6), 1e-9)
}

func TestHolonomicFeedback(t *testing.T) {
	c := newTestController(t)

	current := spatialmath.NewPose2d(0, 0, spatialmath.NewRotation2d(0))
	reference := spatialmath.NewPose2d(1, 2, spatialmath.NewRotation2dFromDegrees(90))
	speeds := c.CalculateToPose(current, reference, 0, spatialmath.NewRotation2d(0))

	test.That(t, speeds.Vx, test.ShouldAlmostEqual, 1)
	test.That(t, speeds.Vy, test.ShouldAlmostEqual, 2)
	test.That(t, speeds.Omega, test.ShouldAlmostEqual, 0)
	test.That(t, c.PoseError().X(), test.ShouldAlmostEqual, 1)
	test.That(t, c.PoseError().Y(), test.ShouldAlmostEqual, 2)

	c.SetEnabled(false)
	speeds = c.CalculateToPose(current, reference, 0.5, spatialmath.NewRotation2d(0))
	test.That(t, speeds.Vx, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, speeds.Vy, test.ShouldAlmostEqual, 0.5, 1e-9)
}

func TestHolonomicHeadingWraparound(t *testing.T) {
	c := newTestController(t)

	current := spatialmath.NewPose2d(0, 0, spatialmath.NewRotation2d(3.0))
	speeds := c.CalculateToPose(current, current, 0, spatialmath.NewRotation2d(-3.0))

	// -3.0 is 0.28 rad counter-clockwise of 3.0
	test.That(t, speeds.Omega, test.ShouldBeGreaterThan, 0)
	test.That(t, c.RotationError().Radians(), test.ShouldAlmostEqual, 2*math.Pi-6.0, 1e-9)

	errShort := HeadingError(spatialmath.NewRotation2d(3.0), spatialmath.NewRotation2d(-3.0))
	test.That(t, math.Abs(errShort), test.ShouldBeLessThan, math.Pi)
	test.That(t, errShort, test.ShouldAlmostEqual, 2*math.Pi-6.0, 1e-9)
}

func TestHolonomicAtReference(t *testing.T) {
	c := newTestController(t)
	c.SetTolerance(spatialmath.NewPose2d(0.1, 0.1, spatialmath.NewRotation2dFromDegrees(5)))

	current := spatialmath.NewPose2d(0, 0, spatialmath.NewRotation2d(0))
	c.CalculateToPose(current, spatialmath.NewPose2d(0.05, -0.05, spatialmath.NewRotation2d(0)), 0, spatialmath.NewRotation2d(0))
	test.That(t, c.AtReference(), test.ShouldBeTrue)

	// out of tolerance still produces output
	speeds := c.CalculateToPose(current, spatialmath.NewPose2d(0.5, 0, spatialmath.NewRotation2d(0)), 0, spatialmath.NewRotation2d(0))
	test.That(t, c.AtReference(), test.ShouldBeFalse)
	test.That(t, speeds.Vx, test.ShouldAlmostEqual, 0.5)

	c.Reset()
	speeds = c.CalculateToPose(current, current, 0, spatialmath.NewRotation2d(0))
	test.That(t, speeds.IsZero(), test.ShouldBeTrue)
}
