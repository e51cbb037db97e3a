package kinematics

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/utils"
)

// zeroSpeed is the module speed below which a wheel is treated as stopped and keeps its previous
// steering angle.
const zeroSpeed = 1e-9

// SwerveKinematics maps chassis speeds to module states and back for a fixed set of module
// positions. It is immutable after construction and safe for concurrent use.
type SwerveKinematics struct {
	modules []r2.Point
	// inverse maps [vx vy ω] to the stacked module velocity vectors [v0x v0y v1x v1y ...].
	inverse *mat.Dense
	// forward is the least-squares pseudo-inverse of inverse.
	forward *mat.Dense
}

// NewSwerveKinematics builds kinematics for modules at the given offsets from the robot center,
// in meters, x forward and y left. At least two distinct offsets are required.
func NewSwerveKinematics(moduleOffsets ...r2.Point) (*SwerveKinematics, error) {
	if len(moduleOffsets) < 2 {
		return nil, errors.Errorf("swerve drive needs at least 2 modules, got %d", len(moduleOffsets))
	}
	for i, m := range moduleOffsets {
		if !utils.IsFinite(m.X, m.Y) {
			return nil, errors.Errorf("module %d offset %v is not finite", i, m)
		}
	}

	n := len(moduleOffsets)
	inverse := mat.NewDense(2*n, 3, nil)
	for i, m := range moduleOffsets {
		inverse.SetRow(2*i, []float64{1, 0, -m.Y})
		inverse.SetRow(2*i+1, []float64{0, 1, m.X})
	}

	var normal mat.Dense
	normal.Mul(inverse.T(), inverse)
	var normalInv mat.Dense
	if err := normalInv.Inverse(&normal); err != nil {
		return nil, errors.Wrap(err, "module offsets do not constrain rotation; are they all at the same point?")
	}
	forward := mat.NewDense(3, 2*n, nil)
	forward.Mul(&normalInv, inverse.T())

	modules := make([]r2.Point, n)
	copy(modules, moduleOffsets)
	return &SwerveKinematics{modules: modules, inverse: inverse, forward: forward}, nil
}

// NumModules returns the number of modules.
func (k *SwerveKinematics) NumModules() int {
	return len(k.modules)
}

// ModuleOffsets returns a copy of the module positions.
func (k *SwerveKinematics) ModuleOffsets() []r2.Point {
	out := make([]r2.Point, len(k.modules))
	copy(out, k.modules)
	return out
}

// ToModuleStates returns the state every module needs for the robot frame speeds. A module whose
// computed speed is effectively zero keeps the angle it had in previous (or zero when previous
// does not cover it) instead of snapping to an arbitrary heading.
func (k *SwerveKinematics) ToModuleStates(speeds ChassisSpeeds, previous []ModuleState) []ModuleState {
	chassis := mat.NewVecDense(3, []float64{speeds.Vx, speeds.Vy, speeds.Omega})
	var moduleVectors mat.VecDense
	moduleVectors.MulVec(k.inverse, chassis)

	states := make([]ModuleState, len(k.modules))
	for i := range k.modules {
		x, y := moduleVectors.AtVec(2*i), moduleVectors.AtVec(2*i+1)
		speed := math.Hypot(x, y)
		if speed < zeroSpeed {
			if i < len(previous) {
				states[i].Angle = previous[i].Angle
			}
			continue
		}
		states[i] = ModuleState{Speed: speed, Angle: spatialmath.NewRotation2dFromVector(x, y)}
	}
	return states
}

// ToChassisSpeeds returns the least-squares robot frame speeds that best explain the module
// states. The states must be given in module order.
func (k *SwerveKinematics) ToChassisSpeeds(states ...ModuleState) (ChassisSpeeds, error) {
	if len(states) != len(k.modules) {
		return ChassisSpeeds{}, utils.NewLengthMismatchError("module states", len(k.modules), len(states))
	}
	moduleVectors := mat.NewVecDense(2*len(states), lo.FlatMap(states, func(s ModuleState, _ int) []float64 {
		return []float64{s.Speed * s.Angle.Cos(), s.Speed * s.Angle.Sin()}
	}))
	var chassis mat.VecDense
	chassis.MulVec(k.forward, moduleVectors)
	return ChassisSpeeds{Vx: chassis.AtVec(0), Vy: chassis.AtVec(1), Omega: chassis.AtVec(2)}, nil
}

// ToTwist2d returns the robot frame displacement produced by running the module states for
// dtSeconds.
func (k *SwerveKinematics) ToTwist2d(dtSeconds float64, states ...ModuleState) (spatialmath.Twist2d, error) {
	speeds, err := k.ToChassisSpeeds(states...)
	if err != nil {
		return spatialmath.Twist2d{}, err
	}
	return spatialmath.Twist2d{Dx: speeds.Vx * dtSeconds, Dy: speeds.Vy * dtSeconds, Dtheta: speeds.Omega * dtSeconds}, nil
}
