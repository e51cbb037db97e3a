// Package command runs commands against subsystems on a fixed control period.
//
// A command's lifecycle is Initialize once, then Execute followed by IsFinished every period,
// then End exactly once: End(false) when IsFinished reported true, End(true) when the command
// was canceled or replaced.
package command

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotInitialized is returned when a command is executed before Initialize, or when its
// inputs are not ready.
var ErrNotInitialized = errors.New("command not initialized")

// Command is one unit of scheduled robot behavior.
type Command interface {
	Initialize(ctx context.Context) error
	Execute(ctx context.Context) error
	IsFinished() bool
	End(ctx context.Context, interrupted bool) error
}

// Subsystem is robot hardware whose Periodic runs every control period before any command.
type Subsystem interface {
	Name() string
	Periodic(ctx context.Context) error
}

// State is where a command is in its lifecycle.
type State int

// The lifecycle states.
const (
	StateIdle State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}
