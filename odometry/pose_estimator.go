// Package odometry tracks the robot's field pose from swerve module feedback and a gyro.
package odometry

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/utils"
)

// ErrSensorFault is returned by Update when the gyro or module feedback is unusable. The
// previous pose is kept.
var ErrSensorFault = errors.New("sensor fault")

// ErrNotInitialized is returned by Update before the first Reset.
var ErrNotInitialized = errors.New("pose estimator has not been reset")

// PoseEstimator integrates module motion into a field pose. Heading always comes from the gyro;
// module feedback only contributes translation.
//
// Update and Reset must be called from one goroutine. Pose may be read from any goroutine and
// always returns a complete result of some update.
type PoseEstimator struct {
	kin    *kinematics.SwerveKinematics
	logger logging.Logger

	mu         sync.Mutex
	gyroOffset spatialmath.Rotation2d
	prevAngle  spatialmath.Rotation2d
	lastUpdate time.Time

	pose    atomic.Pointer[spatialmath.Pose2d]
	updates atomic.Uint64
}

// NewPoseEstimator returns an estimator for the given module layout. It reports no pose until
// Reset is called.
func NewPoseEstimator(kin *kinematics.SwerveKinematics, logger logging.Logger) *PoseEstimator {
	return &PoseEstimator{kin: kin, logger: logger}
}

// Reset forces the estimate to pose at timestamp. gyroHeading is the gyro reading at that
// moment, so later readings are measured relative to it.
func (pe *PoseEstimator) Reset(timestamp time.Time, gyroHeading spatialmath.Rotation2d, pose spatialmath.Pose2d) {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	pe.gyroOffset = pose.Rotation().Minus(gyroHeading)
	pe.prevAngle = pose.Rotation()
	pe.lastUpdate = timestamp
	pe.pose.Store(&pose)
	pe.logger.Debugw("pose reset", "pose", pose.String(), "gyro", gyroHeading.String())
}

// Update integrates the module states measured at timestamp and returns the new pose. On error
// the estimate is left unchanged.
func (pe *PoseEstimator) Update(
	timestamp time.Time,
	gyroHeading spatialmath.Rotation2d,
	states []kinematics.ModuleState,
) (spatialmath.Pose2d, error) {
	pe.mu.Lock()
	defer pe.mu.Unlock()

	current := pe.pose.Load()
	if current == nil {
		return spatialmath.Pose2d{}, ErrNotInitialized
	}
	if !utils.IsFinite(gyroHeading.Radians()) {
		return *current, errors.Wrap(ErrSensorFault, "gyro heading is not finite")
	}
	if len(states) != pe.kin.NumModules() {
		return *current, errors.Wrap(ErrSensorFault,
			utils.NewLengthMismatchError("module states", pe.kin.NumModules(), len(states)).Error())
	}
	for i, s := range states {
		if !utils.IsFinite(s.Speed, s.Angle.Radians()) {
			return *current, errors.Wrapf(ErrSensorFault, "module %d reported %v", i, s)
		}
	}
	if timestamp.Before(pe.lastUpdate) {
		return *current, errors.Wrapf(ErrSensorFault, "timestamp %v is before last update %v", timestamp, pe.lastUpdate)
	}

	dt := timestamp.Sub(pe.lastUpdate).Seconds()
	twist, err := pe.kin.ToTwist2d(dt, states...)
	if err != nil {
		return *current, errors.Wrap(ErrSensorFault, err.Error())
	}

	angle := gyroHeading.Plus(pe.gyroOffset)
	twist.Dtheta = angle.Minus(pe.prevAngle).Radians()

	next := current.Exp(twist)
	next = spatialmath.NewPose2dFromPoint(next.Point(), angle)

	pe.prevAngle = angle
	pe.lastUpdate = timestamp
	pe.pose.Store(&next)
	pe.updates.Inc()
	return next, nil
}

// Pose returns the latest estimate, or the zero pose before the first Reset.
func (pe *PoseEstimator) Pose() spatialmath.Pose2d {
	if p := pe.pose.Load(); p != nil {
		return *p
	}
	return spatialmath.Pose2d{}
}

// Initialized reports whether Reset has been called.
func (pe *PoseEstimator) Initialized() bool {
	return pe.pose.Load() != nil
}

// Updates returns the number of successful updates since construction.
func (pe *PoseEstimator) Updates() uint64 {
	return pe.updates.Load()
}
