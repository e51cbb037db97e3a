package control

import (
	"math"
	"sync"
	"time"

	"go.viam.com/holonomic/utils"
)

// PID is a discrete PID controller that is called once per fixed period.
type PID struct {
	mu     sync.Mutex
	cfg    PIDConfig
	period float64

	continuous         bool
	minInput, maxInput float64

	positionTolerance float64
	velocityTolerance float64

	setpoint      float64
	positionError float64
	velocityError float64
	prevError     float64
	totalError    float64
	haveSetpoint  bool
	// haveMeasurement is false until the first Calculate after construction or Reset.
	haveMeasurement bool
}

// NewPID returns a PID that expects Calculate to be called every period.
func NewPID(cfg PIDConfig, period time.Duration) (*PID, error) {
	if err := cfg.Validate("pid"); err != nil {
		return nil, err
	}
	if err := checkPeriod(period); err != nil {
		return nil, err
	}
	return &PID{
		cfg:               cfg,
		period:            period.Seconds(),
		positionTolerance: 0.05,
		velocityTolerance: math.Inf(1),
	}, nil
}

// Calculate returns the control output for the measurement and setpoint. The derivative term is
// zero on the first call after a reset.
func (p *PID) Calculate(measurement, setpoint float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setpoint = setpoint
	p.haveSetpoint = true
	p.prevError = p.positionError

	if p.continuous {
		errorBound := (p.maxInput - p.minInput) / 2
		p.positionError = utils.InputModulus(setpoint-measurement, -errorBound, errorBound)
	} else {
		p.positionError = setpoint - measurement
	}
	if !p.haveMeasurement {
		p.prevError = p.positionError
		p.haveMeasurement = true
	}
	p.velocityError = (p.positionError - p.prevError) / p.period

	if p.cfg.I != 0 {
		bound := p.cfg.integralRange() / p.cfg.I
		p.totalError = utils.Clamp(p.totalError+p.positionError*p.period, -bound, bound)
	}

	return p.cfg.P*p.positionError + p.cfg.I*p.totalError + p.cfg.D*p.velocityError
}

// EnableContinuousInput treats minInput and maxInput as the same point, so errors are taken the
// short way around. Used for angles.
func (p *PID) EnableContinuousInput(minInput, maxInput float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.continuous = true
	p.minInput = minInput
	p.maxInput = maxInput
}

// DisableContinuousInput reverts EnableContinuousInput.
func (p *PID) DisableContinuousInput() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.continuous = false
}

// IsContinuousInputEnabled reports whether errors wrap.
func (p *PID) IsContinuousInputEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.continuous
}

// SetTolerance sets the errors under which AtSetpoint reports true.
func (p *PID) SetTolerance(positionTolerance, velocityTolerance float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positionTolerance = positionTolerance
	p.velocityTolerance = velocityTolerance
}

// AtSetpoint reports whether the last errors were within tolerance.
func (p *PID) AtSetpoint() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.haveSetpoint && p.haveMeasurement &&
		math.Abs(p.positionError) < p.positionTolerance &&
		math.Abs(p.velocityError) < p.velocityTolerance
}

// Setpoint returns the last setpoint passed to Calculate.
func (p *PID) Setpoint() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setpoint
}

// PositionError returns the last error, wrapped when continuous input is enabled.
func (p *PID) PositionError() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionError
}

// VelocityError returns the last rate of change of the error.
func (p *PID) VelocityError() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.velocityError
}

// Period returns the period the controller was built for.
func (p *PID) Period() time.Duration {
	return time.Duration(p.period * float64(time.Second))
}

// Config returns the gains.
func (p *PID) Config() PIDConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// UpdateConfig swaps the gains and clears accumulated state.
func (p *PID) UpdateConfig(cfg PIDConfig) error {
	if err := cfg.Validate("pid"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	p.reset()
	return nil
}

// Reset clears the integral and derivative history.
func (p *PID) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

func (p *PID) reset() {
	p.positionError = 0
	p.prevError = 0
	p.totalError = 0
	p.velocityError = 0
	p.haveMeasurement = false
}
