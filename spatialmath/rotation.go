// Package spatialmath defines the planar geometry used to describe where a drive base is and
// how it moves: headings, poses, rigid transforms and twists.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/holonomic/utils"
)

// vectorEpsilon is the shortest vector that still has a meaningful direction.
const vectorEpsilon = 1e-9

// Rotation2d is a heading in the plane, counter-clockwise positive. The angle is always kept in
// (-π, π]. The zero value is a heading of zero.
type Rotation2d struct {
	rad float64
}

// NewRotation2d returns the heading for the given angle in radians.
func NewRotation2d(radians float64) Rotation2d {
	return Rotation2d{rad: utils.WrapAngle(radians)}
}

// NewRotation2dFromDegrees returns the heading for the given angle in degrees.
func NewRotation2dFromDegrees(degrees float64) Rotation2d {
	return NewRotation2d(utils.DegToRad(degrees))
}

// NewRotation2dFromVector returns the direction of the vector (x, y). A vector too short to have a
// direction yields a zero heading.
func NewRotation2dFromVector(x, y float64) Rotation2d {
	if math.Hypot(x, y) < vectorEpsilon {
		return Rotation2d{}
	}
	return NewRotation2d(math.Atan2(y, x))
}

// Radians returns the angle in (-π, π].
func (r Rotation2d) Radians() float64 {
	return r.rad
}

// Degrees returns the angle in (-180, 180].
func (r Rotation2d) Degrees() float64 {
	return utils.RadToDeg(r.rad)
}

// Cos returns the cosine of the heading.
func (r Rotation2d) Cos() float64 {
	return math.Cos(r.rad)
}

// Sin returns the sine of the heading.
func (r Rotation2d) Sin() float64 {
	return math.Sin(r.rad)
}

// Plus composes two rotations.
func (r Rotation2d) Plus(other Rotation2d) Rotation2d {
	return NewRotation2d(r.rad + other.rad)
}

// Minus returns the shortest rotation that takes other onto r.
func (r Rotation2d) Minus(other Rotation2d) Rotation2d {
	return NewRotation2d(r.rad - other.rad)
}

// Neg returns the inverse rotation.
func (r Rotation2d) Neg() Rotation2d {
	return NewRotation2d(-r.rad)
}

// Scale multiplies the angle by s.
func (r Rotation2d) Scale(s float64) Rotation2d {
	return NewRotation2d(r.rad * s)
}

// Interpolate returns the heading a fraction t of the shortest way from r to end. t is clamped
// to [0, 1].
func (r Rotation2d) Interpolate(end Rotation2d, t float64) Rotation2d {
	return r.Plus(end.Minus(r).Scale(utils.Clamp(t, 0, 1)))
}

// AlmostEqual reports whether the two headings are within tol radians of each other.
func (r Rotation2d) AlmostEqual(other Rotation2d, tol float64) bool {
	return math.Abs(r.Minus(other).rad) <= tol
}

// String formats the heading in degrees.
func (r Rotation2d) String() string {
	return fmt.Sprintf("%.2f°", r.Degrees())
}

// RotatePoint rotates p counter-clockwise about the origin by r.
func RotatePoint(p r2.Point, r Rotation2d) r2.Point {
	c, s := r.Cos(), r.Sin()
	return r2.Point{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}
