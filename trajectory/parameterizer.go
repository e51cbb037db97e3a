package trajectory

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// minPointSpacing is the closest two path points may be before the later one is dropped.
	minPointSpacing = 1e-9
	epsilon         = 1e-6
)

type constrainedState struct {
	point           PoseWithCurvature
	distance        float64
	maxVelocity     float64
	minAcceleration float64
	maxAcceleration float64
}

// timeParameterize assigns a speed and timestamp to every path point. A forward pass raises speed
// as fast as the acceleration limits allow, a backward pass makes sure the robot can still slow
// down for everything ahead, and a final pass integrates time along the path.
func timeParameterize(points []PoseWithCurvature, cfg *Config) (*Trajectory, error) {
	if len(points) < 2 {
		return nil, errors.Wrap(ErrInvalidTrajectory, "path has fewer than two distinct points")
	}
	constraints := cfg.Constraints()
	states := make([]constrainedState, len(points))

	predecessor := constrainedState{
		point:           points[0],
		maxVelocity:     cfg.StartVelocity,
		minAcceleration: -cfg.MaxAcceleration,
		maxAcceleration: cfg.MaxAcceleration,
	}
	for i := range points {
		state := &states[i]
		state.point = points[i]
		ds := state.point.Pose.Distance(predecessor.point.Pose)
		state.distance = predecessor.distance + ds

		// Acceleration limits can depend on speed, so iterate until the predecessor's
		// acceleration agrees with what this state can actually reach.
		for {
			// v_f = √(v_i² + 2ad)
			state.maxVelocity = math.Min(cfg.MaxVelocity,
				math.Sqrt(predecessor.maxVelocity*predecessor.maxVelocity+predecessor.maxAcceleration*ds*2))
			state.minAcceleration = -cfg.MaxAcceleration
			state.maxAcceleration = cfg.MaxAcceleration
			for _, constraint := range constraints {
				state.maxVelocity = math.Min(state.maxVelocity,
					constraint.MaxVelocity(state.point.Pose, state.point.Curvature, state.maxVelocity))
			}
			if err := enforceAccelerationLimits(cfg.Reversed, constraints, state); err != nil {
				return nil, err
			}
			if ds < epsilon {
				break
			}

			actualAcceleration := (state.maxVelocity*state.maxVelocity - predecessor.maxVelocity*predecessor.maxVelocity) / (ds * 2)
			if state.maxAcceleration < actualAcceleration-epsilon {
				predecessor.maxAcceleration = state.maxAcceleration
				continue
			}
			if actualAcceleration > predecessor.minAcceleration {
				predecessor.maxAcceleration = actualAcceleration
			}
			// Anything below the predecessor's min acceleration is repaired going backwards.
			break
		}
		predecessor = *state
	}

	last := states[len(states)-1]
	successor := constrainedState{
		point:           last.point,
		distance:        last.distance,
		maxVelocity:     cfg.EndVelocity,
		minAcceleration: -cfg.MaxAcceleration,
		maxAcceleration: cfg.MaxAcceleration,
	}
	for i := len(states) - 1; i >= 0; i-- {
		state := &states[i]
		ds := state.distance - successor.distance // non-positive

		for {
			newMaxVelocity := math.Sqrt(successor.maxVelocity*successor.maxVelocity + successor.minAcceleration*ds*2)
			if newMaxVelocity >= state.maxVelocity {
				break
			}
			state.maxVelocity = newMaxVelocity
			if err := enforceAccelerationLimits(cfg.Reversed, constraints, state); err != nil {
				return nil, err
			}
			if ds > -epsilon {
				break
			}

			actualAcceleration := (state.maxVelocity*state.maxVelocity - successor.maxVelocity*successor.maxVelocity) / (ds * 2)
			if state.minAcceleration > actualAcceleration+epsilon {
				successor.minAcceleration = state.minAcceleration
				continue
			}
			successor.minAcceleration = actualAcceleration
			break
		}
		successor = *state
	}

	out := make([]State, 0, len(states))
	direction := 1.0
	if cfg.Reversed {
		direction = -1
	}
	var elapsed, distance, velocity float64
	for i, state := range states {
		ds := state.distance - distance
		accel := (state.maxVelocity*state.maxVelocity - velocity*velocity) / (ds * 2)

		var dt float64
		if i > 0 {
			out[i-1].Acceleration = direction * accel
			switch {
			case math.Abs(accel) > epsilon:
				// v_f = v_0 + a·t
				dt = (state.maxVelocity - velocity) / accel
			case math.Abs(velocity) > epsilon:
				dt = ds / velocity
			default:
				return nil, errors.Wrapf(ErrInvalidTrajectory, "robot never moves past path point %d", i)
			}
		}
		if i == 0 {
			accel = 0
		}

		velocity = state.maxVelocity
		distance = state.distance
		elapsed += dt
		out = append(out, State{
			Time:         elapsed,
			Velocity:     direction * velocity,
			Acceleration: direction * accel,
			Pose:         state.point.Pose,
			Curvature:    state.point.Curvature,
		})
	}
	return NewTrajectory(out)
}

func enforceAccelerationLimits(reversed bool, constraints []Constraint, state *constrainedState) error {
	factor := 1.0
	if reversed {
		factor = -1
	}
	for _, constraint := range constraints {
		window := constraint.MinMaxAcceleration(state.point.Pose, state.point.Curvature, state.maxVelocity*factor)
		if window.Min > window.Max {
			return errors.Wrap(ErrInvalidTrajectory, "infeasible trajectory constraint")
		}
		if reversed {
			state.minAcceleration = math.Max(state.minAcceleration, -window.Max)
			state.maxAcceleration = math.Min(state.maxAcceleration, -window.Min)
		} else {
			state.minAcceleration = math.Max(state.minAcceleration, window.Min)
			state.maxAcceleration = math.Min(state.maxAcceleration, window.Max)
		}
	}
	return nil
}
