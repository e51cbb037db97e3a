package trajectory

import (
	"math"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/spatialmath"
)

// MinMax is an acceleration window in m/s².
type MinMax struct {
	Min float64
	Max float64
}

var unconstrained = MinMax{Min: math.Inf(-1), Max: math.Inf(1)}

// A Constraint limits velocity and acceleration at each point of a path.
type Constraint interface {
	// MaxVelocity returns the largest speed allowed at the pose given the speed the path would
	// otherwise reach there.
	MaxVelocity(pose spatialmath.Pose2d, curvature, velocity float64) float64
	// MinMaxAcceleration returns the acceleration window at the pose and speed.
	MinMaxAcceleration(pose spatialmath.Pose2d, curvature, velocity float64) MinMax
}

// MaxVelocityConstraint caps speed everywhere.
type MaxVelocityConstraint struct {
	Max float64
}

// MaxVelocity implements Constraint.
func (c MaxVelocityConstraint) MaxVelocity(spatialmath.Pose2d, float64, float64) float64 {
	return c.Max
}

// MinMaxAcceleration implements Constraint.
func (c MaxVelocityConstraint) MinMaxAcceleration(spatialmath.Pose2d, float64, float64) MinMax {
	return unconstrained
}

// CentripetalAccelerationConstraint slows the robot in turns so that v²·|κ| stays under Max.
type CentripetalAccelerationConstraint struct {
	Max float64
}

// MaxVelocity implements Constraint.
func (c CentripetalAccelerationConstraint) MaxVelocity(_ spatialmath.Pose2d, curvature, _ float64) float64 {
	return math.Sqrt(c.Max / math.Abs(curvature))
}

// MinMaxAcceleration implements Constraint.
func (c CentripetalAccelerationConstraint) MinMaxAcceleration(spatialmath.Pose2d, float64, float64) MinMax {
	return unconstrained
}

// SwerveDriveKinematicsConstraint keeps every module at or under maxModuleSpeed while the robot
// follows the path tangent and turns with it.
type SwerveDriveKinematicsConstraint struct {
	kin            *kinematics.SwerveKinematics
	maxModuleSpeed float64
}

// NewSwerveDriveKinematicsConstraint returns a constraint for the given drive.
func NewSwerveDriveKinematicsConstraint(kin *kinematics.SwerveKinematics, maxModuleSpeed float64) *SwerveDriveKinematicsConstraint {
	return &SwerveDriveKinematicsConstraint{kin: kin, maxModuleSpeed: maxModuleSpeed}
}

// MaxVelocity implements Constraint.
func (c *SwerveDriveKinematicsConstraint) MaxVelocity(pose spatialmath.Pose2d, curvature, velocity float64) float64 {
	speeds := kinematics.ChassisSpeeds{
		Vx:    velocity * pose.Rotation().Cos(),
		Vy:    velocity * pose.Rotation().Sin(),
		Omega: velocity * curvature,
	}
	states := kinematics.DesaturateWheelSpeeds(c.kin.ToModuleStates(speeds, nil), c.maxModuleSpeed)
	normalized, err := c.kin.ToChassisSpeeds(states...)
	if err != nil {
		// ToModuleStates always returns one state per module.
		return velocity
	}
	return math.Hypot(normalized.Vx, normalized.Vy)
}

// MinMaxAcceleration implements Constraint.
func (c *SwerveDriveKinematicsConstraint) MinMaxAcceleration(spatialmath.Pose2d, float64, float64) MinMax {
	return unconstrained
}
