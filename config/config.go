// Package config defines the JSON configuration of a swerve robot and the trajectory it follows.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/holonomic/control"
	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/trajectory"
	"go.viam.com/holonomic/utils"
)

// DefaultPeriod is the control period used when period_ms is unset.
const DefaultPeriod = 20 * time.Millisecond

// Config describes a swerve robot: its module layout, limits, controller gains and optionally a
// path to follow.
type Config struct {
	Name              string                    `json:"name,omitempty"`
	LogLevel          string                    `json:"log_level,omitempty"`
	PeriodMs          int                       `json:"period_ms,omitempty"`
	MaxModuleSpeedMPS float64                   `json:"max_module_speed_mps"`
	Modules           []ModuleConfig            `json:"modules"`
	Trajectory        TrajectoryConfig          `json:"trajectory"`
	XController       control.PIDConfig         `json:"x_controller"`
	YController       control.PIDConfig         `json:"y_controller"`
	ThetaController   control.ProfiledPIDConfig `json:"theta_controller"`
	// ResetOdometry defaults to true.
	ResetOdometry *bool       `json:"reset_odometry,omitempty"`
	Tolerance     PoseConfig  `json:"tolerance,omitempty"`
	Path          *PathConfig `json:"path,omitempty"`

	ConfigFilePath string `json:"-"`
}

// ModuleConfig places one swerve module relative to the robot center, x forward and y left, in
// meters.
type ModuleConfig struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// TrajectoryConfig holds the limits trajectories are generated with.
type TrajectoryConfig struct {
	MaxVelocity                float64 `json:"max_velocity"`
	MaxAcceleration            float64 `json:"max_acceleration"`
	MaxCentripetalAcceleration float64 `json:"max_centripetal_acceleration,omitempty"`
	StartVelocity              float64 `json:"start_velocity,omitempty"`
	EndVelocity                float64 `json:"end_velocity,omitempty"`
	Reversed                   bool    `json:"reversed,omitempty"`
	UseKinematicsConstraint    bool    `json:"use_kinematics_constraint,omitempty"`
}

// PoseConfig is a field pose with the heading in degrees.
type PoseConfig struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ThetaDeg float64 `json:"theta_deg"`
}

// PointConfig is a field position.
type PointConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PathConfig is a path from Start to End through Waypoints.
type PathConfig struct {
	Start     PoseConfig    `json:"start"`
	Waypoints []PointConfig `json:"waypoints,omitempty"`
	End       PoseConfig    `json:"end"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if c.PeriodMs < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("period_ms must not be negative, got %d", c.PeriodMs))
	}
	if c.MaxModuleSpeedMPS == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "max_module_speed_mps")
	}
	if !utils.IsFinite(c.MaxModuleSpeedMPS) || c.MaxModuleSpeedMPS < 0 {
		return goutils.NewConfigValidationError(path,
			utils.NewInvalidArgumentError("max_module_speed_mps", c.MaxModuleSpeedMPS, "positive"))
	}

	if len(c.Modules) < 2 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("a swerve drive needs at least 2 modules, got %d", len(c.Modules)))
	}
	seen := map[string]bool{}
	for idx, m := range c.Modules {
		if err := m.Validate(fmt.Sprintf("%s.%s.%d", path, "modules", idx)); err != nil {
			return err
		}
		if seen[m.Name] {
			return goutils.NewConfigValidationError(path, errors.Errorf("module name %q is not unique", m.Name))
		}
		seen[m.Name] = true
	}

	if err := c.Trajectory.Validate(fmt.Sprintf("%s.%s", path, "trajectory")); err != nil {
		return err
	}
	if err := c.XController.Validate(fmt.Sprintf("%s.%s", path, "x_controller")); err != nil {
		return err
	}
	if err := c.YController.Validate(fmt.Sprintf("%s.%s", path, "y_controller")); err != nil {
		return err
	}
	if err := c.ThetaController.Validate(fmt.Sprintf("%s.%s", path, "theta_controller")); err != nil {
		return err
	}
	if !utils.IsFinite(c.Tolerance.X, c.Tolerance.Y, c.Tolerance.ThetaDeg) {
		return goutils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "tolerance"), errors.New("values must be finite"))
	}
	if c.Path != nil {
		if err := c.Path.Validate(fmt.Sprintf("%s.%s", path, "path")); err != nil {
			return err
		}
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (m *ModuleConfig) Validate(path string) error {
	if m.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if !utils.IsFinite(m.X, m.Y) {
		return goutils.NewConfigValidationError(path, errors.Errorf("module %q position must be finite", m.Name))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (t *TrajectoryConfig) Validate(path string) error {
	if t.MaxVelocity == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "max_velocity")
	}
	if t.MaxAcceleration == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "max_acceleration")
	}
	if t.MaxCentripetalAcceleration < 0 {
		return goutils.NewConfigValidationError(path,
			utils.NewInvalidArgumentError("max_centripetal_acceleration", t.MaxCentripetalAcceleration, "non-negative"))
	}
	if err := t.build().Validate(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

func (t *TrajectoryConfig) build() *trajectory.Config {
	cfg := trajectory.NewConfig(t.MaxVelocity, t.MaxAcceleration)
	cfg.StartVelocity = t.StartVelocity
	cfg.EndVelocity = t.EndVelocity
	cfg.Reversed = t.Reversed
	if t.MaxCentripetalAcceleration > 0 {
		cfg.AddConstraint(trajectory.CentripetalAccelerationConstraint{Max: t.MaxCentripetalAcceleration})
	}
	return cfg
}

// Validate ensures all parts of the config are valid.
func (p *PathConfig) Validate(path string) error {
	if !utils.IsFinite(p.Start.X, p.Start.Y, p.Start.ThetaDeg, p.End.X, p.End.Y, p.End.ThetaDeg) {
		return goutils.NewConfigValidationError(path, errors.New("start and end must be finite"))
	}
	for idx, w := range p.Waypoints {
		if !utils.IsFinite(w.X, w.Y) {
			return goutils.NewConfigValidationError(fmt.Sprintf("%s.%s.%d", path, "waypoints", idx),
				errors.New("waypoint must be finite"))
		}
	}
	return nil
}

// Pose converts the config to a field pose.
func (p PoseConfig) Pose() spatialmath.Pose2d {
	return spatialmath.NewPose2d(p.X, p.Y, spatialmath.NewRotation2dFromDegrees(p.ThetaDeg))
}

// Generate builds the trajectory for the path.
func (p *PathConfig) Generate(ctx context.Context, cfg *trajectory.Config) (*trajectory.Trajectory, error) {
	interior := lo.Map(p.Waypoints, func(w PointConfig, _ int) r2.Point { return r2.Point{X: w.X, Y: w.Y} })
	return trajectory.Generate(ctx, p.Start.Pose(), interior, p.End.Pose(), cfg)
}

// Period returns the control period.
func (c *Config) Period() time.Duration {
	if c.PeriodMs == 0 {
		return DefaultPeriod
	}
	return time.Duration(c.PeriodMs) * time.Millisecond
}

// Level returns the configured log level. Validate rejects unknown levels.
func (c *Config) Level() logging.Level {
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// ShouldResetOdometry reports whether a trajectory run anchors odometry to its start.
func (c *Config) ShouldResetOdometry() bool {
	return c.ResetOdometry == nil || *c.ResetOdometry
}

// Kinematics builds the swerve kinematics for the configured modules.
func (c *Config) Kinematics() (*kinematics.SwerveKinematics, error) {
	return kinematics.NewSwerveKinematics(lo.Map(c.Modules, func(m ModuleConfig, _ int) r2.Point {
		return r2.Point{X: m.X, Y: m.Y}
	})...)
}

// TrajectoryConfig builds the generation limits. kin is only used when the kinematics
// constraint is enabled.
func (c *Config) TrajectoryConfig(kin *kinematics.SwerveKinematics) *trajectory.Config {
	cfg := c.Trajectory.build()
	if c.Trajectory.UseKinematicsConstraint && kin != nil {
		cfg.SetKinematics(kin)
	}
	return cfg
}

// HolonomicController builds the trajectory-following controller for the configured period.
func (c *Config) HolonomicController(logger logging.Logger) (*control.HolonomicDriveController, error) {
	x, err := control.NewPID(c.XController, c.Period())
	if err != nil {
		return nil, errors.Wrap(err, "x_controller")
	}
	y, err := control.NewPID(c.YController, c.Period())
	if err != nil {
		return nil, errors.Wrap(err, "y_controller")
	}
	theta, err := control.NewProfiledPID(c.ThetaController, c.Period())
	if err != nil {
		return nil, errors.Wrap(err, "theta_controller")
	}
	controller := control.NewHolonomicDriveController(x, y, theta, logger)
	controller.SetTolerance(c.Tolerance.Pose())
	return controller, nil
}
