// Package trajectory generates and samples time-parameterized paths for a holonomic drive.
package trajectory

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/utils"
)

// ErrInvalidTrajectory is returned, possibly wrapped, whenever a trajectory cannot be built.
var ErrInvalidTrajectory = errors.New("invalid trajectory")

// State is one sample of a trajectory.
type State struct {
	// Time is seconds since the start of the trajectory.
	Time float64
	// Velocity is the signed speed along the path tangent in m/s. It is negative when the
	// trajectory is reversed.
	Velocity float64
	// Acceleration is the signed acceleration along the path tangent in m/s².
	Acceleration float64
	Pose         spatialmath.Pose2d
	// Curvature is in rad/m.
	Curvature float64
}

// interpolate estimates the state a fraction i of the way in time from s to end, assuming
// constant acceleration between them.
func (s State) interpolate(end State, i float64) State {
	newT := utils.Lerp(s.Time, end.Time, i)
	deltaT := newT - s.Time
	if deltaT < 0 {
		return end.interpolate(s, 1-i)
	}

	reversing := s.Velocity < 0 || (math.Abs(s.Velocity) < 1e-9 && s.Acceleration < 0)
	newV := s.Velocity + s.Acceleration*deltaT
	newS := s.Velocity*deltaT + 0.5*s.Acceleration*deltaT*deltaT
	if reversing {
		newS = -newS
	}

	frac := i
	if dist := s.Pose.Distance(end.Pose); dist > 1e-12 {
		frac = newS / dist
	}
	return State{
		Time:         newT,
		Velocity:     newV,
		Acceleration: s.Acceleration,
		Pose:         s.Pose.Interpolate(end.Pose, frac),
		Curvature:    utils.Lerp(s.Curvature, end.Curvature, frac),
	}
}

// Trajectory is an immutable sequence of states with strictly increasing timestamps starting at
// zero. It is safe for concurrent reads.
type Trajectory struct {
	states []State
}

// NewTrajectory validates and wraps states. The slice is copied.
func NewTrajectory(states []State) (*Trajectory, error) {
	if len(states) == 0 {
		return nil, errors.Wrap(ErrInvalidTrajectory, "no states")
	}
	if states[0].Time != 0 {
		return nil, errors.Wrapf(ErrInvalidTrajectory, "first state is at t=%v, not zero", states[0].Time)
	}
	for i, s := range states {
		if !utils.IsFinite(s.Time, s.Velocity, s.Acceleration, s.Curvature, s.Pose.X(), s.Pose.Y()) {
			return nil, errors.Wrapf(ErrInvalidTrajectory, "state %d is not finite", i)
		}
		if i > 0 && s.Time <= states[i-1].Time {
			return nil, errors.Wrapf(ErrInvalidTrajectory,
				"state %d at t=%v does not come after state %d at t=%v", i, s.Time, i-1, states[i-1].Time)
		}
	}
	copied := make([]State, len(states))
	copy(copied, states)
	return &Trajectory{states: copied}, nil
}

// States returns a copy of the states.
func (t *Trajectory) States() []State {
	out := make([]State, len(t.states))
	copy(out, t.states)
	return out
}

// Duration returns the time of the last state in seconds.
func (t *Trajectory) Duration() float64 {
	return t.states[len(t.states)-1].Time
}

// InitialPose returns the pose of the first state.
func (t *Trajectory) InitialPose() spatialmath.Pose2d {
	return t.states[0].Pose
}

// FinalPose returns the pose of the last state.
func (t *Trajectory) FinalPose() spatialmath.Pose2d {
	return t.states[len(t.states)-1].Pose
}

// Sample returns the state at seconds since the start. Times outside [0, Duration()] are clamped
// to the first or last state, NaN gives the first state, and between states the result is
// interpolated.
func (t *Trajectory) Sample(seconds float64) State {
	if math.IsNaN(seconds) || seconds <= t.states[0].Time {
		return t.states[0]
	}
	if seconds >= t.Duration() {
		return t.states[len(t.states)-1]
	}

	// First state at or after the requested time. It is never index 0 here.
	idx := sort.Search(len(t.states), func(i int) bool { return t.states[i].Time >= seconds })
	next, prev := t.states[idx], t.states[idx-1]
	if math.Abs(next.Time-prev.Time) < 1e-9 {
		return next
	}
	return prev.interpolate(next, (seconds-prev.Time)/(next.Time-prev.Time))
}

// TransformBy moves the whole trajectory so that its initial pose becomes
// InitialPose().Plus(transform). Every other state keeps its offset from the initial pose.
func (t *Trajectory) TransformBy(transform spatialmath.Transform2d) *Trajectory {
	first := t.states[0].Pose
	newFirst := first.Plus(transform)

	out := t.States()
	for i := range out {
		if i == 0 {
			out[i].Pose = newFirst
			continue
		}
		out[i].Pose = newFirst.Plus(out[i].Pose.Minus(first))
	}
	return &Trajectory{states: out}
}

// RelativeTo expresses every state in the frame of pose.
func (t *Trajectory) RelativeTo(pose spatialmath.Pose2d) *Trajectory {
	out := t.States()
	for i := range out {
		out[i].Pose = out[i].Pose.RelativeTo(pose)
	}
	return &Trajectory{states: out}
}

// Concatenate appends other after t. The first state of other is dropped since it should match
// the last state of t.
func (t *Trajectory) Concatenate(other *Trajectory) *Trajectory {
	out := t.States()
	offset := t.Duration()
	for _, s := range other.states[1:] {
		s.Time += offset
		out = append(out, s)
	}
	return &Trajectory{states: out}
}
