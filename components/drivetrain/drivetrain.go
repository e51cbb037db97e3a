// Package drivetrain defines the hardware contracts a swerve drivetrain exposes to the trajectory
// follower and a Drive subsystem that ties them to odometry.
package drivetrain

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/odometry"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/utils"
)

// Gyro reports the absolute heading of the robot.
type Gyro interface {
	Heading(ctx context.Context) (spatialmath.Rotation2d, error)
}

// ModuleFeedback reports the measured state of every module, in module order.
type ModuleFeedback interface {
	ModuleStates(ctx context.Context) ([]kinematics.ModuleState, error)
}

// ModuleSink accepts one command per module, in module order, and applies them before the next
// control period.
type ModuleSink interface {
	SetModuleStates(ctx context.Context, states []kinematics.ModuleState) error
}

// PoseProvider reports the robot's field pose.
type PoseProvider interface {
	Pose() spatialmath.Pose2d
	// Localized reports whether Pose is meaningful.
	Localized() bool
	ResetPose(ctx context.Context, pose spatialmath.Pose2d) error
}

// Drive is the drivetrain subsystem: it owns odometry and forwards module commands to hardware.
type Drive struct {
	name      string
	gyro      Gyro
	feedback  ModuleFeedback
	sink      ModuleSink
	kin       *kinematics.SwerveKinematics
	estimator *odometry.PoseEstimator
	clk       clock.Clock
	logger    logging.Logger
	maxSpeed  float64

	mu            sync.Mutex
	lastCommanded []kinematics.ModuleState
}

// NewDrive returns a Drive. maxModuleSpeed bounds commands passed to DriveSpeeds.
func NewDrive(
	name string,
	kin *kinematics.SwerveKinematics,
	gyro Gyro,
	feedback ModuleFeedback,
	sink ModuleSink,
	maxModuleSpeed float64,
	clk clock.Clock,
	logger logging.Logger,
) *Drive {
	return &Drive{
		name:          name,
		gyro:          gyro,
		feedback:      feedback,
		sink:          sink,
		kin:           kin,
		estimator:     odometry.NewPoseEstimator(kin, logger.Sublogger("odometry")),
		clk:           clk,
		logger:        logger,
		maxSpeed:      maxModuleSpeed,
		lastCommanded: make([]kinematics.ModuleState, kin.NumModules()),
	}
}

// Name returns the subsystem name.
func (d *Drive) Name() string {
	return d.name
}

// Kinematics returns the module layout.
func (d *Drive) Kinematics() *kinematics.SwerveKinematics {
	return d.kin
}

// Periodic updates odometry from the gyro and module feedback. It does nothing until the pose has
// been reset.
func (d *Drive) Periodic(ctx context.Context) error {
	if !d.estimator.Initialized() {
		return nil
	}
	heading, err := d.gyro.Heading(ctx)
	if err != nil {
		return errors.Wrap(err, "reading gyro")
	}
	states, err := d.feedback.ModuleStates(ctx)
	if err != nil {
		return errors.Wrap(err, "reading module feedback")
	}
	_, err = d.estimator.Update(d.clk.Now(), heading, states)
	return err
}

// Pose returns the odometry estimate.
func (d *Drive) Pose() spatialmath.Pose2d {
	return d.estimator.Pose()
}

// Localized reports whether odometry has been reset.
func (d *Drive) Localized() bool {
	return d.estimator.Initialized()
}

// ResetPose anchors odometry to pose at the current gyro reading.
func (d *Drive) ResetPose(ctx context.Context, pose spatialmath.Pose2d) error {
	heading, err := d.gyro.Heading(ctx)
	if err != nil {
		return errors.Wrap(err, "reading gyro")
	}
	d.estimator.Reset(d.clk.Now(), heading, pose)
	return nil
}

// SetModuleStates forwards the commands to hardware.
func (d *Drive) SetModuleStates(ctx context.Context, states []kinematics.ModuleState) error {
	if len(states) != d.kin.NumModules() {
		return utils.NewLengthMismatchError("module states", d.kin.NumModules(), len(states))
	}
	d.mu.Lock()
	d.lastCommanded = append(d.lastCommanded[:0], states...)
	d.mu.Unlock()
	return d.sink.SetModuleStates(ctx, states)
}

// DriveSpeeds commands chassis speeds directly. Field-relative speeds are rotated by the current
// odometry heading.
func (d *Drive) DriveSpeeds(ctx context.Context, speeds kinematics.ChassisSpeeds, fieldRelative bool) error {
	if fieldRelative {
		speeds = kinematics.FromFieldRelativeSpeeds(speeds, d.Pose().Rotation())
	}
	d.mu.Lock()
	previous := append([]kinematics.ModuleState(nil), d.lastCommanded...)
	d.mu.Unlock()
	states := kinematics.DesaturateWheelSpeeds(d.kin.ToModuleStates(speeds, previous), d.maxSpeed)
	return d.SetModuleStates(ctx, states)
}

// Stop commands zero speed on every module, holding the last commanded angles.
func (d *Drive) Stop(ctx context.Context) error {
	d.mu.Lock()
	stopped := lo.Map(d.lastCommanded, func(s kinematics.ModuleState, _ int) kinematics.ModuleState {
		return kinematics.ModuleState{Angle: s.Angle}
	})
	d.mu.Unlock()
	return d.SetModuleStates(ctx, stopped)
}

// LastCommanded returns a copy of the last module commands.
func (d *Drive) LastCommanded() []kinematics.ModuleState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]kinematics.ModuleState(nil), d.lastCommanded...)
}
