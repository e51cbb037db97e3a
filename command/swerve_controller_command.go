package command

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"

	"go.viam.com/holonomic/components/drivetrain"
	"go.viam.com/holonomic/control"
	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/trajectory"
	"go.viam.com/holonomic/utils"
)

// SwerveControllerConfig holds everything a SwerveControllerCommand needs.
type SwerveControllerConfig struct {
	Trajectory *trajectory.Trajectory
	Pose       drivetrain.PoseProvider
	Kinematics *kinematics.SwerveKinematics
	Controller *control.HolonomicDriveController
	Sink       drivetrain.ModuleSink
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// MaxModuleSpeed is the desaturation limit in m/s.
	MaxModuleSpeed float64
	// ResetOdometry anchors the pose to the trajectory's initial pose on Initialize. Only set it
	// when this command is the authoritative source of localization.
	ResetOdometry bool
	// DesiredRotation picks the heading to hold at each sample. Defaults to the trajectory's final
	// heading.
	DesiredRotation func(trajectory.State) spatialmath.Rotation2d
}

// SwerveControllerCommand follows a trajectory with a swerve drive. Each period it samples the
// trajectory at the elapsed time, computes field speeds with the holonomic controller, converts
// them to desaturated module states and sends those to the sink. When it ends, finished or
// interrupted, it sends one command of zero speed on every module.
type SwerveControllerCommand struct {
	cfg    SwerveControllerConfig
	logger logging.Logger

	mu         sync.Mutex
	state      State
	start      time.Time
	runID      uuid.UUID
	lastStates []kinematics.ModuleState
}

// NewSwerveControllerCommand validates cfg and returns an idle command.
func NewSwerveControllerCommand(cfg SwerveControllerConfig, logger logging.Logger) (*SwerveControllerCommand, error) {
	switch {
	case cfg.Trajectory == nil:
		return nil, errors.New("trajectory is required")
	case cfg.Pose == nil:
		return nil, errors.New("pose provider is required")
	case cfg.Kinematics == nil:
		return nil, errors.New("kinematics are required")
	case cfg.Controller == nil:
		return nil, errors.New("holonomic controller is required")
	case cfg.Sink == nil:
		return nil, errors.New("module sink is required")
	case !utils.IsFinite(cfg.MaxModuleSpeed) || cfg.MaxModuleSpeed <= 0:
		return nil, errors.Errorf("max module speed must be positive and finite, got %v", cfg.MaxModuleSpeed)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.DesiredRotation == nil {
		final := cfg.Trajectory.FinalPose().Rotation()
		cfg.DesiredRotation = func(trajectory.State) spatialmath.Rotation2d { return final }
	}
	return &SwerveControllerCommand{
		cfg:        cfg,
		logger:     logger,
		lastStates: make([]kinematics.ModuleState, cfg.Kinematics.NumModules()),
	}, nil
}

// Initialize starts a run. A finished command may be initialized again.
func (c *SwerveControllerCommand) Initialize(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "command::SwerveControllerCommand::Initialize")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		return errors.New("trajectory command is already running")
	}

	if c.cfg.ResetOdometry {
		if err := c.cfg.Pose.ResetPose(ctx, c.cfg.Trajectory.InitialPose()); err != nil {
			return errors.Wrap(err, "resetting odometry to trajectory start")
		}
	}
	if !c.cfg.Pose.Localized() {
		return errors.Wrap(ErrNotInitialized, "pose is not localized; reset odometry before following a trajectory")
	}

	c.cfg.Controller.Reset()
	c.runID = uuid.New()
	c.start = c.cfg.Clock.Now()
	c.state = StateRunning
	c.logger.CInfow(ctx, "following trajectory",
		"run", c.runID.String(),
		"duration", c.cfg.Trajectory.Duration(),
		"start", c.cfg.Trajectory.InitialPose().String(),
		"end", c.cfg.Trajectory.FinalPose().String())
	return nil
}

// Execute sends one period of module commands. It does nothing once the command has ended.
func (c *SwerveControllerCommand) Execute(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle:
		return ErrNotInitialized
	case StateFinished:
		return nil
	case StateRunning:
	}
	if !c.cfg.Pose.Localized() {
		return errors.Wrap(ErrNotInitialized, "pose is not localized")
	}

	elapsed := c.cfg.Clock.Since(c.start).Seconds()
	desired := c.cfg.Trajectory.Sample(elapsed)
	current := c.cfg.Pose.Pose()

	fieldSpeeds := c.cfg.Controller.Calculate(current, desired, c.cfg.DesiredRotation(desired))
	robotSpeeds := kinematics.FromFieldRelativeSpeeds(fieldSpeeds, current.Rotation())
	states := kinematics.DesaturateWheelSpeeds(
		c.cfg.Kinematics.ToModuleStates(robotSpeeds, c.lastStates), c.cfg.MaxModuleSpeed)
	c.lastStates = states

	c.logger.CDebugw(ctx, "trajectory step",
		"run", c.runID.String(),
		"t", elapsed,
		"desired", desired.Pose.String(),
		"current", current.String(),
		"speeds", robotSpeeds.String())

	if err := c.cfg.Sink.SetModuleStates(ctx, states); err != nil {
		c.logger.CWarnw(ctx, "module sink rejected command", "run", c.runID.String(), "error", err)
	}
	return nil
}

// IsFinished reports whether the trajectory's duration has elapsed or the command has ended.
func (c *SwerveControllerCommand) IsFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateFinished:
		return true
	case StateRunning:
		return c.cfg.Clock.Since(c.start).Seconds() >= c.cfg.Trajectory.Duration()
	default:
		return false
	}
}

// End stops the run and commands every module to zero speed, holding its angle. Only the first
// End of a run sends anything.
func (c *SwerveControllerCommand) End(ctx context.Context, interrupted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return nil
	}
	c.state = StateFinished

	stop := lo.Map(c.lastStates, func(s kinematics.ModuleState, _ int) kinematics.ModuleState {
		return kinematics.ModuleState{Angle: s.Angle}
	})
	c.lastStates = stop
	err := c.cfg.Sink.SetModuleStates(ctx, stop)

	c.logger.CInfow(ctx, "trajectory ended",
		"run", c.runID.String(),
		"interrupted", interrupted,
		"elapsed", c.cfg.Clock.Since(c.start).Seconds(),
		"pose", c.cfg.Pose.Pose().String(),
		"at_reference", c.cfg.Controller.AtReference())
	if err != nil {
		return errors.Wrap(err, "sending stop command")
	}
	return nil
}

// Cancel ends a running command as interrupted.
func (c *SwerveControllerCommand) Cancel(ctx context.Context) error {
	return c.End(ctx, true)
}

// State returns the lifecycle state.
func (c *SwerveControllerCommand) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RunID identifies the current or last run in logs. It is the zero UUID before the first run.
func (c *SwerveControllerCommand) RunID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

// Trajectory returns the trajectory being followed.
func (c *SwerveControllerCommand) Trajectory() *trajectory.Trajectory {
	return c.cfg.Trajectory
}
