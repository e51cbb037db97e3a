package control

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestTrapezoidProfileShape(t *testing.T) {
	profile, err := NewTrapezoidProfile(TrapezoidConstraints{MaxVelocity: 1, MaxAcceleration: 1})
	test.That(t, err, test.ShouldBeNil)

	start := TrapezoidState{}
	goal := TrapezoidState{Position: 3}

	s := profile.Calculate(0.5, start, goal)
	test.That(t, s.Velocity, test.ShouldAlmostEqual, 0.5)
	test.That(t, s.Position, test.ShouldAlmostEqual, 0.125)
	test.That(t, profile.TotalTime(), test.ShouldAlmostEqual, 4)

	s = profile.Calculate(2, start, goal)
	test.That(t, s.Velocity, test.ShouldAlmostEqual, 1)
	test.That(t, s.Position, test.ShouldAlmostEqual, 1.5)

	s = profile.Calculate(3.5, start, goal)
	test.That(t, s.Velocity, test.ShouldAlmostEqual, 0.5)
	test.That(t, s.Position, test.ShouldAlmostEqual, 3-0.125)

	s = profile.Calculate(5, start, goal)
	test.That(t, s, test.ShouldResemble, goal)
	test.That(t, profile.IsFinished(5), test.ShouldBeTrue)
	test.That(t, profile.IsFinished(3), test.ShouldBeFalse)
}

func TestTrapezoidProfileReverse(t *testing.T) {
	profile, err := NewTrapezoidProfile(TrapezoidConstraints{MaxVelocity: 1, MaxAcceleration: 1})
	test.That(t, err, test.ShouldBeNil)

	s := profile.Calculate(0.5, TrapezoidState{}, TrapezoidState{Position: -3})
	test.That(t, s.Velocity, test.ShouldAlmostEqual, -0.5)
	test.That(t, s.Position, test.ShouldAlmostEqual, -0.125)
}

func TestTrapezoidProfileTriangle(t *testing.T) {
	profile, err := NewTrapezoidProfile(TrapezoidConstraints{MaxVelocity: 1, MaxAcceleration: 1})
	test.That(t, err, test.ShouldBeNil)

	profile.Calculate(0, TrapezoidState{}, TrapezoidState{Position: 0.5})
	test.That(t, profile.TotalTime(), test.ShouldAlmostEqual, 2*math.Sqrt(0.5), 1e-9)
}

func TestTrapezoidProfileStepping(t *testing.T) {
	constraints := TrapezoidConstraints{MaxVelocity: 2, MaxAcceleration: 4}
	profile, err := NewTrapezoidProfile(constraints)
	test.That(t, err, test.ShouldBeNil)

	goal := TrapezoidState{Position: 5}
	state := TrapezoidState{}
	dt := period.Seconds()
	for i := 0; i < 300; i++ {
		next := profile.Calculate(dt, state, goal)
		test.That(t, math.Abs(next.Velocity), test.ShouldBeLessThanOrEqualTo, constraints.MaxVelocity+1e-9)
		test.That(t, math.Abs(next.Velocity-state.Velocity)/dt, test.ShouldBeLessThanOrEqualTo, constraints.MaxAcceleration+1e-6)
		state = next
	}
	test.That(t, state, test.ShouldResemble, goal)
}

func TestTrapezoidProfileInvalid(t *testing.T) {
	_, err := NewTrapezoidProfile(TrapezoidConstraints{MaxVelocity: 0, MaxAcceleration: 1})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewTrapezoidProfile(TrapezoidConstraints{MaxVelocity: 1, MaxAcceleration: math.Inf(1)})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProfiledPIDShortWayAround(t *testing.T) {
	c, err := NewProfiledPID(ProfiledPIDConfig{PIDConfig: PIDConfig{P: 1}, MaxVelocity: 1, MaxAcceleration: 1}, period)
	test.That(t, err, test.ShouldBeNil)
	c.EnableContinuousInput(-math.Pi, math.Pi)
	c.Reset(3.0)

	out := c.Calculate(3.0, -3.0)
	test.That(t, out, test.ShouldBeGreaterThan, 0)
	test.That(t, c.Goal().Position, test.ShouldAlmostEqual, 3.0+2*math.Pi-6.0, 1e-9)
	test.That(t, c.Setpoint().Position, test.ShouldBeGreaterThan, 3.0)
	test.That(t, c.Setpoint().Velocity, test.ShouldAlmostEqual, period.Seconds(), 1e-9)
	test.That(t, c.AtGoal(), test.ShouldBeFalse)
}

func TestProfiledPIDReachesGoal(t *testing.T) {
	c, err := NewProfiledPID(ProfiledPIDConfig{PIDConfig: PIDConfig{P: 1}, MaxVelocity: 2, MaxAcceleration: 2}, period)
	test.That(t, err, test.ShouldBeNil)
	c.Reset(0)

	// measurement tracks the setpoint exactly
	measurement := 0.0
	for i := 0; i < 200; i++ {
		c.Calculate(measurement, 1)
		measurement = c.Setpoint().Position
	}
	test.That(t, c.Setpoint(), test.ShouldResemble, TrapezoidState{Position: 1})
	c.Calculate(measurement, 1)
	test.That(t, c.AtGoal(), test.ShouldBeTrue)
	test.That(t, c.PositionError(), test.ShouldAlmostEqual, 0)
}

func TestProfiledPIDConfigValidate(t *testing.T) {
	cfg := ProfiledPIDConfig{PIDConfig: PIDConfig{P: 1}, MaxVelocity: 1}
	err := cfg.Validate("theta_controller")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "theta_controller.max_acceleration")

	cfg.MaxAcceleration = 1
	test.That(t, cfg.Validate("theta_controller"), test.ShouldBeNil)
}
