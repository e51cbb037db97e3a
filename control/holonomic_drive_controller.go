package control

import (
	"math"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/trajectory"
	"go.viam.com/holonomic/utils"
)

// HolonomicDriveController follows a trajectory with a holonomic drivetrain. Translation is
// feedforward along the path tangent plus independent x and y PID feedback; heading is driven by
// a profiled PID toward a separately chosen target, taking the short way around.
//
// Output speeds are field-relative. Callers using chassis-frame kinematics must rotate them by
// the current heading first.
type HolonomicDriveController struct {
	x, y   *PID
	theta  *ProfiledPID
	logger logging.Logger

	enabled   bool
	firstRun  bool
	poseError spatialmath.Pose2d
	rotError  spatialmath.Rotation2d
	tolerance spatialmath.Pose2d
}

// NewHolonomicDriveController takes ownership of the three controllers. theta is switched to
// continuous input over (-π, π].
func NewHolonomicDriveController(x, y *PID, theta *ProfiledPID, logger logging.Logger) *HolonomicDriveController {
	theta.EnableContinuousInput(-math.Pi, math.Pi)
	return &HolonomicDriveController{
		x:        x,
		y:        y,
		theta:    theta,
		logger:   logger,
		enabled:  true,
		firstRun: true,
	}
}

// Calculate returns field-relative speeds that move current toward the desired trajectory state
// while turning to desiredHeading.
func (c *HolonomicDriveController) Calculate(
	current spatialmath.Pose2d,
	desired trajectory.State,
	desiredHeading spatialmath.Rotation2d,
) kinematics.ChassisSpeeds {
	return c.CalculateToPose(current, desired.Pose, desired.Velocity, desiredHeading)
}

// CalculateToPose is Calculate with the trajectory state split into a reference pose and the
// linear velocity along its heading.
func (c *HolonomicDriveController) CalculateToPose(
	current, reference spatialmath.Pose2d,
	linearVelocity float64,
	desiredHeading spatialmath.Rotation2d,
) kinematics.ChassisSpeeds {
	if c.firstRun {
		c.theta.Reset(current.Rotation().Radians())
		c.firstRun = false
		c.logger.Debugw("holonomic controller starting", "pose", current.String(), "heading", desiredHeading.String())
	}

	xFF := linearVelocity * reference.Rotation().Cos()
	yFF := linearVelocity * reference.Rotation().Sin()
	omega := c.theta.Calculate(current.Rotation().Radians(), desiredHeading.Radians())

	c.poseError = reference.RelativeTo(current)
	c.rotError = desiredHeading.Minus(current.Rotation())

	if !c.enabled {
		return kinematics.ChassisSpeeds{Vx: xFF, Vy: yFF, Omega: omega}
	}
	return kinematics.ChassisSpeeds{
		Vx:    xFF + c.x.Calculate(current.X(), reference.X()),
		Vy:    yFF + c.y.Calculate(current.Y(), reference.Y()),
		Omega: omega,
	}
}

// SetTolerance sets the pose error under which AtReference reports true. It does not gate output.
func (c *HolonomicDriveController) SetTolerance(tolerance spatialmath.Pose2d) {
	c.tolerance = tolerance
}

// AtReference reports whether the last pose error was within tolerance.
func (c *HolonomicDriveController) AtReference() bool {
	return math.Abs(c.poseError.X()) < math.Abs(c.tolerance.X()) &&
		math.Abs(c.poseError.Y()) < math.Abs(c.tolerance.Y()) &&
		math.Abs(c.rotError.Radians()) < math.Abs(c.tolerance.Rotation().Radians())
}

// PoseError returns the reference pose relative to the current pose from the last call.
func (c *HolonomicDriveController) PoseError() spatialmath.Pose2d {
	return c.poseError
}

// RotationError returns desired minus current heading from the last call, wrapped to (-π, π].
func (c *HolonomicDriveController) RotationError() spatialmath.Rotation2d {
	return c.rotError
}

// SetEnabled turns x and y feedback on or off. Disabled, the controller is pure feedforward.
func (c *HolonomicDriveController) SetEnabled(enabled bool) {
	c.enabled = enabled
	c.logger.Debugw("holonomic controller feedback", "enabled", enabled)
}

// Reset clears controller history so the next Calculate restarts the heading profile from the
// measured heading.
func (c *HolonomicDriveController) Reset() {
	c.x.Reset()
	c.y.Reset()
	c.firstRun = true
}

// HeadingError is target minus current taken the short way around, in (-π, π].
func HeadingError(current, target spatialmath.Rotation2d) float64 {
	return utils.AngleDiff(current.Radians(), target.Radians())
}
