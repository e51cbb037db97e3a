package kinematics

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/holonomic/spatialmath"
)

// ModuleState is the commanded or measured state of one swerve module: wheel speed in m/s and
// steering angle in the robot frame.
type ModuleState struct {
	Speed float64
	Angle spatialmath.Rotation2d
}

// String formats the state for logs.
func (s ModuleState) String() string {
	return fmt.Sprintf("%.3f m/s @ %v", s.Speed, s.Angle)
}

// Optimize returns an equivalent state that needs at most a quarter turn of steering from
// currentAngle, reversing the wheel when that is shorter.
func Optimize(desired ModuleState, currentAngle spatialmath.Rotation2d) ModuleState {
	delta := desired.Angle.Minus(currentAngle)
	if math.Abs(delta.Radians()) > math.Pi/2 {
		return ModuleState{
			Speed: -desired.Speed,
			Angle: desired.Angle.Plus(spatialmath.NewRotation2d(math.Pi)),
		}
	}
	return desired
}

// DesaturateWheelSpeeds scales every speed by the same factor so that none exceeds
// maxAttainableSpeed in magnitude. Angles and the ratios between speeds are preserved. States
// already within the limit are returned unchanged. A non-positive limit stops every wheel.
func DesaturateWheelSpeeds(states []ModuleState, maxAttainableSpeed float64) []ModuleState {
	out := make([]ModuleState, len(states))
	copy(out, states)
	if len(out) == 0 {
		return out
	}
	if math.IsNaN(maxAttainableSpeed) || maxAttainableSpeed <= 0 {
		for i := range out {
			out[i].Speed = 0
		}
		return out
	}

	realMax := MaxSpeed(out)
	if realMax <= maxAttainableSpeed {
		return out
	}
	scale := maxAttainableSpeed / realMax
	for i := range out {
		out[i].Speed *= scale
	}
	return out
}

// MaxSpeed returns the largest wheel speed magnitude, or zero for no states.
func MaxSpeed(states []ModuleState) float64 {
	if len(states) == 0 {
		return 0
	}
	return floats.Max(lo.Map(states, func(s ModuleState, _ int) float64 { return math.Abs(s.Speed) }))
}
