package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose2d is a position and heading in the field frame.
type Pose2d struct {
	pt  r2.Point
	rot Rotation2d
}

// NewPose2d returns a pose at (x, y) facing rot.
func NewPose2d(x, y float64, rot Rotation2d) Pose2d {
	return Pose2d{pt: r2.Point{X: x, Y: y}, rot: rot}
}

// NewPose2dFromPoint returns a pose at pt facing rot.
func NewPose2dFromPoint(pt r2.Point, rot Rotation2d) Pose2d {
	return Pose2d{pt: pt, rot: rot}
}

// Point returns the position.
func (p Pose2d) Point() r2.Point {
	return p.pt
}

// X returns the x coordinate.
func (p Pose2d) X() float64 {
	return p.pt.X
}

// Y returns the y coordinate.
func (p Pose2d) Y() float64 {
	return p.pt.Y
}

// Rotation returns the heading.
func (p Pose2d) Rotation() Rotation2d {
	return p.rot
}

// Plus applies a transform expressed in this pose's frame.
func (p Pose2d) Plus(t Transform2d) Pose2d {
	return Pose2d{
		pt:  p.pt.Add(RotatePoint(t.pt, p.rot)),
		rot: p.rot.Plus(t.rot),
	}
}

// Minus returns the transform that takes other onto p.
func (p Pose2d) Minus(other Pose2d) Transform2d {
	return TransformBetween(other, p)
}

// RelativeTo expresses p in the frame of other.
func (p Pose2d) RelativeTo(other Pose2d) Pose2d {
	t := TransformBetween(other, p)
	return Pose2d{pt: t.pt, rot: t.rot}
}

// Exp moves the pose along a constant-curvature arc described by a twist in the pose's own frame.
func (p Pose2d) Exp(twist Twist2d) Pose2d {
	sinTheta := math.Sin(twist.Dtheta)
	cosTheta := math.Cos(twist.Dtheta)

	var s, c float64
	if math.Abs(twist.Dtheta) < 1e-9 {
		s = 1 - twist.Dtheta*twist.Dtheta/6
		c = 0.5 * twist.Dtheta
	} else {
		s = sinTheta / twist.Dtheta
		c = (1 - cosTheta) / twist.Dtheta
	}

	return p.Plus(Transform2d{
		pt:  r2.Point{X: twist.Dx*s - twist.Dy*c, Y: twist.Dx*c + twist.Dy*s},
		rot: NewRotation2d(twist.Dtheta),
	})
}

// Log returns the twist that Exp would need to move p onto end.
func (p Pose2d) Log(end Pose2d) Twist2d {
	t := end.RelativeTo(p)
	dtheta := t.rot.Radians()
	halfDtheta := dtheta / 2

	cosMinusOne := t.rot.Cos() - 1
	var halfThetaByTanOfHalfDtheta float64
	if math.Abs(cosMinusOne) < 1e-9 {
		halfThetaByTanOfHalfDtheta = 1 - dtheta*dtheta/12
	} else {
		halfThetaByTanOfHalfDtheta = -(halfDtheta * t.rot.Sin()) / cosMinusOne
	}

	translation := RotatePoint(t.pt, NewRotation2dFromVector(halfThetaByTanOfHalfDtheta, -halfDtheta)).
		Mul(math.Hypot(halfThetaByTanOfHalfDtheta, halfDtheta))
	return Twist2d{Dx: translation.X, Dy: translation.Y, Dtheta: dtheta}
}

// Interpolate moves a fraction t along the arc from p to end. t is clamped to [0, 1].
func (p Pose2d) Interpolate(end Pose2d, t float64) Pose2d {
	switch {
	case t <= 0:
		return p
	case t >= 1:
		return end
	}
	return p.Exp(p.Log(end).Scale(t))
}

// Distance returns the straight line distance between the two positions.
func (p Pose2d) Distance(other Pose2d) float64 {
	return p.pt.Sub(other.pt).Norm()
}

// AlmostEqual reports whether the positions are within posTol and the headings within rotTol
// radians.
func (p Pose2d) AlmostEqual(other Pose2d, posTol, rotTol float64) bool {
	return p.Distance(other) <= posTol && p.rot.AlmostEqual(other.rot, rotTol)
}

// String formats the pose for logs.
func (p Pose2d) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %v)", p.pt.X, p.pt.Y, p.rot)
}
