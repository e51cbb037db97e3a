package control

import (
	"time"

	"go.viam.com/holonomic/utils"
)

// ProfiledPID is a PID whose setpoint moves toward the goal along a TrapezoidProfile, so the
// commanded motion respects velocity and acceleration limits.
type ProfiledPID struct {
	pid     *PID
	profile *TrapezoidProfile
	period  float64

	goal     TrapezoidState
	setpoint TrapezoidState

	continuous         bool
	minInput, maxInput float64
}

// NewProfiledPID returns a ProfiledPID that expects Calculate to be called every period.
func NewProfiledPID(cfg ProfiledPIDConfig, period time.Duration) (*ProfiledPID, error) {
	if err := cfg.Validate("profiled_pid"); err != nil {
		return nil, err
	}
	pid, err := NewPID(cfg.PIDConfig, period)
	if err != nil {
		return nil, err
	}
	profile, err := NewTrapezoidProfile(TrapezoidConstraints{
		MaxVelocity:     cfg.MaxVelocity,
		MaxAcceleration: cfg.MaxAcceleration,
	})
	if err != nil {
		return nil, err
	}
	return &ProfiledPID{pid: pid, profile: profile, period: period.Seconds()}, nil
}

// Calculate advances the setpoint one period toward goal and returns the PID output for it.
func (c *ProfiledPID) Calculate(measurement, goal float64) float64 {
	c.goal = TrapezoidState{Position: goal}
	if c.continuous {
		// Move goal and setpoint to the copies closest to the measurement.
		errorBound := (c.maxInput - c.minInput) / 2
		goalMinDistance := utils.InputModulus(c.goal.Position-measurement, -errorBound, errorBound)
		setpointMinDistance := utils.InputModulus(c.setpoint.Position-measurement, -errorBound, errorBound)
		c.goal.Position = goalMinDistance + measurement
		c.setpoint.Position = setpointMinDistance + measurement
	}
	c.setpoint = c.profile.Calculate(c.period, c.setpoint, c.goal)
	return c.pid.Calculate(measurement, c.setpoint.Position)
}

// EnableContinuousInput treats minInput and maxInput as the same point.
func (c *ProfiledPID) EnableContinuousInput(minInput, maxInput float64) {
	c.pid.EnableContinuousInput(minInput, maxInput)
	c.continuous = true
	c.minInput = minInput
	c.maxInput = maxInput
}

// SetTolerance sets the errors under which AtGoal can report true.
func (c *ProfiledPID) SetTolerance(positionTolerance, velocityTolerance float64) {
	c.pid.SetTolerance(positionTolerance, velocityTolerance)
}

// Reset restarts the profile from the given position at rest and clears PID history.
func (c *ProfiledPID) Reset(measurement float64) {
	c.ResetState(TrapezoidState{Position: measurement})
}

// ResetState restarts the profile from state and clears PID history.
func (c *ProfiledPID) ResetState(state TrapezoidState) {
	c.pid.Reset()
	c.setpoint = state
}

// Goal returns the last goal.
func (c *ProfiledPID) Goal() TrapezoidState {
	return c.goal
}

// Setpoint returns the current profiled setpoint.
func (c *ProfiledPID) Setpoint() TrapezoidState {
	return c.setpoint
}

// PositionError returns the last error between setpoint and measurement.
func (c *ProfiledPID) PositionError() float64 {
	return c.pid.PositionError()
}

// AtGoal reports whether the setpoint has reached the goal and the PID is within tolerance.
func (c *ProfiledPID) AtGoal() bool {
	return c.pid.AtSetpoint() && c.goal == c.setpoint
}
