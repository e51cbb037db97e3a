package spatialmath

import (
	"github.com/golang/geo/r2"
)

// Transform2d is a rigid motion: a translation followed by a rotation, expressed in the frame of
// the pose it is applied to.
type Transform2d struct {
	pt  r2.Point
	rot Rotation2d
}

// NewTransform2d returns a transform from its parts.
func NewTransform2d(pt r2.Point, rot Rotation2d) Transform2d {
	return Transform2d{pt: pt, rot: rot}
}

// TransformBetween returns the transform that takes initial onto last.
func TransformBetween(initial, last Pose2d) Transform2d {
	return Transform2d{
		pt:  RotatePoint(last.pt.Sub(initial.pt), initial.rot.Neg()),
		rot: last.rot.Minus(initial.rot),
	}
}

// Translation returns the translational part.
func (t Transform2d) Translation() r2.Point {
	return t.pt
}

// Rotation returns the rotational part.
func (t Transform2d) Rotation() Rotation2d {
	return t.rot
}

// Inverse returns the transform that undoes t.
func (t Transform2d) Inverse() Transform2d {
	return Transform2d{
		pt:  RotatePoint(t.pt.Mul(-1), t.rot.Neg()),
		rot: t.rot.Neg(),
	}
}
