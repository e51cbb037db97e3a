package command

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/utils"
)

// Scheduler runs at most one command at a time on a fixed period. Every period it runs each
// subsystem's Periodic, then the command's Execute and IsFinished, ending the command when it
// reports finished.
type Scheduler struct {
	period     time.Duration
	clk        clock.Clock
	logger     logging.Logger
	subsystems []Subsystem

	mu       sync.Mutex
	current  Command
	workers  utils.StoppableWorkers
	cycles   atomic.Uint64
	overruns atomic.Uint64
}

// NewScheduler returns a stopped scheduler.
func NewScheduler(period time.Duration, clk clock.Clock, logger logging.Logger, subsystems ...Subsystem) (*Scheduler, error) {
	if period <= 0 {
		return nil, errors.Errorf("scheduler period must be positive, got %v", period)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{period: period, clk: clk, logger: logger, subsystems: subsystems}, nil
}

// Schedule initializes cmd and makes it the running command. A command that was already running
// is ended as interrupted first. If Initialize fails nothing is scheduled.
func (s *Scheduler) Schedule(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.current != nil {
		err = s.current.End(ctx, true)
		s.current = nil
	}
	if initErr := cmd.Initialize(ctx); initErr != nil {
		return multierr.Combine(err, errors.Wrap(initErr, "initializing command"))
	}
	s.current = cmd
	return err
}

// Cancel ends the running command as interrupted. It is a no-op when nothing is running.
func (s *Scheduler) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cmd := s.current
	s.current = nil
	return cmd.End(ctx, true)
}

// Current returns the running command, or nil.
func (s *Scheduler) Current() Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// RunOnce runs a single period. Errors from subsystems and the command are logged and returned
// combined; they do not stop the command.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles.Inc()

	var errs error
	for _, sub := range s.subsystems {
		if err := sub.Periodic(ctx); err != nil {
			s.logger.CWarnw(ctx, "subsystem periodic failed", "subsystem", sub.Name(), "error", err)
			errs = multierr.Combine(errs, errors.Wrap(err, sub.Name()))
		}
	}

	if s.current == nil {
		return errs
	}
	if err := s.current.Execute(ctx); err != nil {
		s.logger.CWarnw(ctx, "command execute failed", "error", err)
		errs = multierr.Combine(errs, err)
	}
	if s.current.IsFinished() {
		if err := s.current.End(ctx, false); err != nil {
			s.logger.CWarnw(ctx, "command end failed", "error", err)
			errs = multierr.Combine(errs, err)
		}
		s.current = nil
	}
	return errs
}

// Run calls RunOnce every period until ctx is done, then cancels the running command.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.clk.Ticker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return multierr.Combine(ctx.Err(), s.Cancel(context.Background()))
		case <-ticker.C:
		}

		start := s.clk.Now()
		// RunOnce logs its own failures.
		_ = s.RunOnce(ctx)
		if took := s.clk.Since(start); took > s.period {
			s.overruns.Inc()
			s.logger.CWarnw(ctx, "control period overrun", "period", s.period, "took", took)
		}
	}
}

// Start runs the scheduler in the background until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workers != nil {
		return
	}
	s.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Errorw("scheduler stopped", "error", err)
		}
	})
}

// Stop halts a scheduler started with Start and waits for it. The running command, if any, is
// ended as interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	workers := s.workers
	s.workers = nil
	s.mu.Unlock()
	if workers != nil {
		workers.Stop()
	}
}

// Period returns the control period.
func (s *Scheduler) Period() time.Duration {
	return s.period
}

// Cycles returns the number of periods run.
func (s *Scheduler) Cycles() uint64 {
	return s.cycles.Load()
}

// Overruns returns the number of periods that took longer than the period.
func (s *Scheduler) Overruns() uint64 {
	return s.overruns.Load()
}
