package trajectory

import (
	"github.com/pkg/errors"

	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/utils"
)

// Config holds the limits a generated trajectory must respect.
type Config struct {
	MaxVelocity     float64
	MaxAcceleration float64
	StartVelocity   float64
	EndVelocity     float64
	// Reversed drives the path backwards: the robot faces away from the direction of travel.
	Reversed bool

	constraints []Constraint
}

// NewConfig returns a config with the given global limits, starting and ending at rest.
func NewConfig(maxVelocity, maxAcceleration float64) *Config {
	return &Config{MaxVelocity: maxVelocity, MaxAcceleration: maxAcceleration}
}

// AddConstraint adds user constraints and returns the config for chaining.
func (c *Config) AddConstraint(constraints ...Constraint) *Config {
	c.constraints = append(c.constraints, constraints...)
	return c
}

// SetKinematics limits every module to the config's max velocity.
func (c *Config) SetKinematics(kin *kinematics.SwerveKinematics) *Config {
	return c.AddConstraint(NewSwerveDriveKinematicsConstraint(kin, c.MaxVelocity))
}

// Constraints returns the user constraints.
func (c *Config) Constraints() []Constraint {
	return c.constraints
}

// Validate checks that the limits describe a feasible motion.
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(ErrInvalidTrajectory, "no trajectory config")
	}
	if !utils.IsFinite(c.MaxVelocity) || c.MaxVelocity <= 0 {
		return errors.Wrap(ErrInvalidTrajectory, utils.NewInvalidArgumentError("max velocity", c.MaxVelocity, "positive").Error())
	}
	if !utils.IsFinite(c.MaxAcceleration) || c.MaxAcceleration <= 0 {
		return errors.Wrap(ErrInvalidTrajectory,
			utils.NewInvalidArgumentError("max acceleration", c.MaxAcceleration, "positive").Error())
	}
	if !utils.IsFinite(c.StartVelocity) || c.StartVelocity < 0 || c.StartVelocity > c.MaxVelocity {
		return errors.Wrap(ErrInvalidTrajectory,
			utils.NewInvalidArgumentError("start velocity", c.StartVelocity, "between zero and the max velocity").Error())
	}
	if !utils.IsFinite(c.EndVelocity) || c.EndVelocity < 0 || c.EndVelocity > c.MaxVelocity {
		return errors.Wrap(ErrInvalidTrajectory,
			utils.NewInvalidArgumentError("end velocity", c.EndVelocity, "between zero and the max velocity").Error())
	}
	for i, constraint := range c.constraints {
		if constraint == nil {
			return errors.Wrapf(ErrInvalidTrajectory, "constraint %d is nil", i)
		}
	}
	return nil
}
