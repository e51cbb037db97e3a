// Package kinematics converts between whole-body chassis velocities and per-module swerve
// states.
package kinematics

import (
	"fmt"

	"github.com/golang/geo/r2"

	"go.viam.com/holonomic/spatialmath"
)

// ChassisSpeeds is a body velocity. Whether it is expressed in the robot frame or the field frame
// is up to the caller; the helpers below convert between the two.
type ChassisSpeeds struct {
	Vx    float64 `json:"vx_mps"`
	Vy    float64 `json:"vy_mps"`
	Omega float64 `json:"omega_radps"`
}

// FromFieldRelativeSpeeds rotates a field frame velocity into the frame of a robot facing
// robotHeading. Omega is unchanged.
func FromFieldRelativeSpeeds(fieldSpeeds ChassisSpeeds, robotHeading spatialmath.Rotation2d) ChassisSpeeds {
	v := spatialmath.RotatePoint(r2.Point{X: fieldSpeeds.Vx, Y: fieldSpeeds.Vy}, robotHeading.Neg())
	return ChassisSpeeds{Vx: v.X, Vy: v.Y, Omega: fieldSpeeds.Omega}
}

// ToFieldRelativeSpeeds rotates a robot frame velocity into the field frame.
func ToFieldRelativeSpeeds(robotSpeeds ChassisSpeeds, robotHeading spatialmath.Rotation2d) ChassisSpeeds {
	v := spatialmath.RotatePoint(r2.Point{X: robotSpeeds.Vx, Y: robotSpeeds.Vy}, robotHeading)
	return ChassisSpeeds{Vx: v.X, Vy: v.Y, Omega: robotSpeeds.Omega}
}

// Discretize returns the constant velocity that, held for dt seconds, lands on the same pose as
// following speeds along a straight line while rotating. This removes the sideways drift of
// translating and rotating at once.
func Discretize(speeds ChassisSpeeds, dtSeconds float64) ChassisSpeeds {
	if dtSeconds <= 0 {
		return speeds
	}
	var origin spatialmath.Pose2d
	desired := spatialmath.NewPose2d(
		speeds.Vx*dtSeconds,
		speeds.Vy*dtSeconds,
		spatialmath.NewRotation2d(speeds.Omega*dtSeconds),
	)
	twist := origin.Log(desired)
	return ChassisSpeeds{Vx: twist.Dx / dtSeconds, Vy: twist.Dy / dtSeconds, Omega: twist.Dtheta / dtSeconds}
}

// IsZero reports whether every component is exactly zero.
func (cs ChassisSpeeds) IsZero() bool {
	return cs.Vx == 0 && cs.Vy == 0 && cs.Omega == 0
}

// String formats the speeds for logs.
func (cs ChassisSpeeds) String() string {
	return fmt.Sprintf("vx=%.3f vy=%.3f ω=%.3f", cs.Vx, cs.Vy, cs.Omega)
}
