package control

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/holonomic/utils"
)

// TrapezoidConstraints bound the velocity and acceleration of a TrapezoidProfile.
type TrapezoidConstraints struct {
	MaxVelocity     float64
	MaxAcceleration float64
}

// TrapezoidState is a position and velocity along one axis.
type TrapezoidState struct {
	Position float64
	Velocity float64
}

// TrapezoidProfile generates a one-dimensional motion profile that accelerates at the maximum
// rate up to the maximum velocity, coasts, then decelerates into the goal. Profiles too short to
// reach full speed become triangles.
type TrapezoidProfile struct {
	constraints TrapezoidConstraints

	// timings from the last Calculate
	direction    float64
	endAccel     float64
	endFullSpeed float64
	endDecel     float64
}

// NewTrapezoidProfile returns a profile with the given limits.
func NewTrapezoidProfile(constraints TrapezoidConstraints) (*TrapezoidProfile, error) {
	if !utils.IsFinite(constraints.MaxVelocity) || constraints.MaxVelocity <= 0 {
		return nil, errors.Wrap(
			utils.NewInvalidArgumentError("max velocity", constraints.MaxVelocity, "positive"), "trapezoid profile")
	}
	if !utils.IsFinite(constraints.MaxAcceleration) || constraints.MaxAcceleration <= 0 {
		return nil, errors.Wrap(
			utils.NewInvalidArgumentError("max acceleration", constraints.MaxAcceleration, "positive"), "trapezoid profile")
	}
	return &TrapezoidProfile{constraints: constraints, direction: 1}, nil
}

// Constraints returns the limits of the profile.
func (p *TrapezoidProfile) Constraints() TrapezoidConstraints {
	return p.constraints
}

// Calculate returns the state t seconds after current on the way to goal.
func (p *TrapezoidProfile) Calculate(t float64, current, goal TrapezoidState) TrapezoidState {
	maxVel := p.constraints.MaxVelocity
	maxAccel := p.constraints.MaxAcceleration

	p.direction = 1
	if current.Position > goal.Position {
		p.direction = -1
	}
	current = p.direct(current)
	goal = p.direct(goal)

	if current.Velocity > maxVel {
		current.Velocity = maxVel
	}

	// The profile is computed as if it started and ended at rest, then cut at both ends.
	cutoffBegin := current.Velocity / maxAccel
	cutoffDistBegin := cutoffBegin * cutoffBegin * maxAccel / 2
	cutoffEnd := goal.Velocity / maxAccel
	cutoffDistEnd := cutoffEnd * cutoffEnd * maxAccel / 2

	fullTrapezoidDist := cutoffDistBegin + (goal.Position - current.Position) + cutoffDistEnd
	accelerationTime := maxVel / maxAccel
	fullSpeedDist := fullTrapezoidDist - accelerationTime*accelerationTime*maxAccel
	if fullSpeedDist < 0 {
		accelerationTime = math.Sqrt(math.Max(fullTrapezoidDist, 0) / maxAccel)
		fullSpeedDist = 0
	}

	p.endAccel = accelerationTime - cutoffBegin
	p.endFullSpeed = p.endAccel + fullSpeedDist/maxVel
	p.endDecel = p.endFullSpeed + accelerationTime - cutoffEnd

	result := current
	switch {
	case t < p.endAccel:
		result.Velocity += t * maxAccel
		result.Position += (current.Velocity + t*maxAccel/2) * t
	case t < p.endFullSpeed:
		result.Velocity = maxVel
		result.Position += (current.Velocity+p.endAccel*maxAccel/2)*p.endAccel + maxVel*(t-p.endAccel)
	case t <= p.endDecel:
		timeLeft := p.endDecel - t
		result.Velocity = goal.Velocity + timeLeft*maxAccel
		result.Position = goal.Position - (goal.Velocity+timeLeft*maxAccel/2)*timeLeft
	default:
		result = goal
	}
	return p.direct(result)
}

// TotalTime returns the duration of the profile from the last Calculate.
func (p *TrapezoidProfile) TotalTime() float64 {
	return p.endDecel
}

// IsFinished reports whether the profile from the last Calculate has reached its goal at t.
func (p *TrapezoidProfile) IsFinished(t float64) bool {
	return t >= p.TotalTime()
}

func (p *TrapezoidProfile) direct(in TrapezoidState) TrapezoidState {
	return TrapezoidState{Position: in.Position * p.direction, Velocity: in.Velocity * p.direction}
}
