package control

import (
	"math"
	"testing"
	"time"

	"go.viam.com/test"
)

const period = 20 * time.Millisecond

func TestPIDConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  PIDConfig
		err  string
	}{
		{"ok", PIDConfig{P: 1, I: 0.1, D: 0.01}, ""},
		{"negative p", PIDConfig{P: -1}, "x_controller.p"},
		{"nan d", PIDConfig{P: 1, D: math.NaN()}, "x_controller.d"},
		{"negative range", PIDConfig{P: 1, IntegralRange: -2}, "x_controller.integral_range"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate("x_controller")
			if tc.err == "" {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}

	_, err := NewPID(PIDConfig{P: 1}, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPIDProportional(t *testing.T) {
	pid, err := NewPID(PIDConfig{P: 2}, period)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pid.Calculate(1, 3), test.ShouldAlmostEqual, 4)
	test.That(t, pid.Setpoint(), test.ShouldAlmostEqual, 3)
	test.That(t, pid.PositionError(), test.ShouldAlmostEqual, 2)
	test.That(t, pid.Period(), test.ShouldEqual, period)
}

func TestPIDNoDerivativeKick(t *testing.T) {
	pid, err := NewPID(PIDConfig{D: 1}, period)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, pid.Calculate(0, 5), test.ShouldAlmostEqual, 0)
	// error 5 -> 4 over one period
	test.That(t, pid.Calculate(1, 5), test.ShouldAlmostEqual, -50)

	pid.Reset()
	test.That(t, pid.Calculate(4, 5), test.ShouldAlmostEqual, 0)
}

func TestPIDIntegralBound(t *testing.T) {
	pid, err := NewPID(PIDConfig{I: 10, IntegralRange: 0.5}, period)
	test.That(t, err, test.ShouldBeNil)

	var out float64
	for i := 0; i < 500; i++ {
		out = pid.Calculate(0, 1)
	}
	test.That(t, out, test.ShouldAlmostEqual, 0.5)

	for i := 0; i < 500; i++ {
		out = pid.Calculate(1, 0)
	}
	test.That(t, out, test.ShouldAlmostEqual, -0.5)
}

func TestPIDContinuousInput(t *testing.T) {
	pid, err := NewPID(PIDConfig{P: 1}, period)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, pid.Calculate(3.0, -3.0), test.ShouldAlmostEqual, -6.0)

	pid.EnableContinuousInput(-math.Pi, math.Pi)
	test.That(t, pid.IsContinuousInputEnabled(), test.ShouldBeTrue)
	out := pid.Calculate(3.0, -3.0)
	test.That(t, out, test.ShouldAlmostEqual, 2*math.Pi-6.0, 1e-9)
	test.That(t, math.Abs(out), test.ShouldBeLessThan, math.Pi)

	out = pid.Calculate(-3.0, 3.0)
	test.That(t, out, test.ShouldAlmostEqual, 6.0-2*math.Pi, 1e-9)

	pid.DisableContinuousInput()
	test.That(t, pid.IsContinuousInputEnabled(), test.ShouldBeFalse)
}

func TestPIDAtSetpoint(t *testing.T) {
	pid, err := NewPID(PIDConfig{P: 1}, period)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pid.AtSetpoint(), test.ShouldBeFalse)

	pid.Calculate(1, 1.01)
	test.That(t, pid.AtSetpoint(), test.ShouldBeTrue)

	pid.SetTolerance(0.001, math.Inf(1))
	test.That(t, pid.AtSetpoint(), test.ShouldBeFalse)

	test.That(t, pid.UpdateConfig(PIDConfig{P: 3}), test.ShouldBeNil)
	test.That(t, pid.Config().P, test.ShouldEqual, 3.0)
	test.That(t, pid.AtSetpoint(), test.ShouldBeFalse)
	test.That(t, pid.UpdateConfig(PIDConfig{P: -3}), test.ShouldNotBeNil)
}
