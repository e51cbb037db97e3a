package control

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/holonomic/utils"
)

// DefaultIntegralRange bounds the integral contribution of a PID when none is configured.
const DefaultIntegralRange = 1.0

// PIDConfig holds the gains for one PID loop.
type PIDConfig struct {
	P float64 `json:"p"`
	I float64 `json:"i,omitempty"`
	D float64 `json:"d,omitempty"`
	// IntegralRange bounds I·∫e to ±IntegralRange. Zero means DefaultIntegralRange.
	IntegralRange float64 `json:"integral_range,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *PIDConfig) Validate(path string) error {
	for _, gain := range []struct {
		name  string
		value float64
	}{{"p", cfg.P}, {"i", cfg.I}, {"d", cfg.D}, {"integral_range", cfg.IntegralRange}} {
		if !utils.IsFinite(gain.value) || gain.value < 0 {
			return errors.Errorf("%s.%s: %v", path, gain.name,
				utils.NewInvalidArgumentError("gain", gain.value, "finite and non-negative"))
		}
	}
	return nil
}

func (cfg PIDConfig) integralRange() float64 {
	if cfg.IntegralRange == 0 {
		return DefaultIntegralRange
	}
	return cfg.IntegralRange
}

// ProfiledPIDConfig is a PID whose setpoint follows a trapezoid profile with these limits.
type ProfiledPIDConfig struct {
	PIDConfig
	MaxVelocity     float64 `json:"max_velocity"`
	MaxAcceleration float64 `json:"max_acceleration"`
}

// Validate ensures all parts of the config are valid.
func (cfg *ProfiledPIDConfig) Validate(path string) error {
	if err := cfg.PIDConfig.Validate(path); err != nil {
		return err
	}
	if !utils.IsFinite(cfg.MaxVelocity) || cfg.MaxVelocity <= 0 {
		return errors.Errorf("%s.max_velocity: %v", path, utils.NewInvalidArgumentError("limit", cfg.MaxVelocity, "positive"))
	}
	if !utils.IsFinite(cfg.MaxAcceleration) || cfg.MaxAcceleration <= 0 {
		return errors.Errorf("%s.max_acceleration: %v", path,
			utils.NewInvalidArgumentError("limit", cfg.MaxAcceleration, "positive"))
	}
	return nil
}

func checkPeriod(period time.Duration) error {
	if period <= 0 {
		return errors.Errorf("controller period must be positive, got %v", period)
	}
	return nil
}
