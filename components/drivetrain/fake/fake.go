// Package fake implements a simulated swerve drivetrain that moves exactly as commanded.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/utils"
)

// Drivetrain is a perfect swerve drivetrain: modules reach commanded states instantly and the
// chassis moves by forward kinematics over clock time. It serves as gyro, module feedback and
// module sink.
type Drivetrain struct {
	kin    *kinematics.SwerveKinematics
	clk    clock.Clock
	logger logging.Logger

	mu          sync.Mutex
	pose        spatialmath.Pose2d
	gyroOffset  spatialmath.Rotation2d
	applied     []kinematics.ModuleState
	lastAdvance time.Time
	commands    int
	lastCommand []kinematics.ModuleState
	failNext    error
}

// NewDrivetrain returns a stationary drivetrain at pose.
func NewDrivetrain(
	kin *kinematics.SwerveKinematics,
	pose spatialmath.Pose2d,
	clk clock.Clock,
	logger logging.Logger,
) *Drivetrain {
	return &Drivetrain{
		kin:         kin,
		clk:         clk,
		logger:      logger,
		pose:        pose,
		applied:     make([]kinematics.ModuleState, kin.NumModules()),
		lastAdvance: clk.Now(),
	}
}

// advance moves the chassis by the applied module states up to now. Callers hold mu.
func (d *Drivetrain) advance() {
	now := d.clk.Now()
	dt := now.Sub(d.lastAdvance).Seconds()
	d.lastAdvance = now
	if dt <= 0 {
		return
	}
	twist, err := d.kin.ToTwist2d(dt, d.applied...)
	if err != nil {
		d.logger.Errorw("cannot integrate module states", "error", err)
		return
	}
	d.pose = d.pose.Exp(twist)
}

// Heading returns the true heading plus the gyro offset.
func (d *Drivetrain) Heading(ctx context.Context) (spatialmath.Rotation2d, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advance()
	return d.pose.Rotation().Plus(d.gyroOffset), nil
}

// ModuleStates returns the applied module states.
func (d *Drivetrain) ModuleStates(ctx context.Context) ([]kinematics.ModuleState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advance()
	return append([]kinematics.ModuleState(nil), d.applied...), nil
}

// SetModuleStates applies the commands from now on. Each module takes the shorter steering
// direction.
func (d *Drivetrain) SetModuleStates(ctx context.Context, states []kinematics.ModuleState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		return err
	}
	if len(states) != len(d.applied) {
		return utils.NewLengthMismatchError("module states", len(d.applied), len(states))
	}
	for i, s := range states {
		if !utils.IsFinite(s.Speed, s.Angle.Radians()) {
			return errors.Errorf("module %d command %v is not finite", i, s)
		}
	}
	d.advance()
	d.applied = lo.Map(states, func(s kinematics.ModuleState, i int) kinematics.ModuleState {
		return kinematics.Optimize(s, d.applied[i].Angle)
	})
	d.commands++
	d.lastCommand = append(d.lastCommand[:0], states...)
	return nil
}

// TruePose returns where the robot actually is.
func (d *Drivetrain) TruePose() spatialmath.Pose2d {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advance()
	return d.pose
}

// SetGyroOffset makes Heading report the true heading plus offset.
func (d *Drivetrain) SetGyroOffset(offset spatialmath.Rotation2d) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gyroOffset = offset
}

// FailNextCommand makes the next SetModuleStates return err without applying anything.
func (d *Drivetrain) FailNextCommand(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = err
}

// CommandCount returns the number of accepted SetModuleStates calls.
func (d *Drivetrain) CommandCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commands
}

// LastCommand returns a copy of the last accepted commands, as given.
func (d *Drivetrain) LastCommand() []kinematics.ModuleState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]kinematics.ModuleState(nil), d.lastCommand...)
}
