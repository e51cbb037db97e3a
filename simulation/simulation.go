// Package simulation runs the trajectory follower against a simulated drivetrain on a simulated
// clock, faster than real time.
package simulation

import (
	"context"
	"math"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"
	"go.uber.org/multierr"

	"go.viam.com/holonomic/command"
	"go.viam.com/holonomic/components/drivetrain"
	"go.viam.com/holonomic/components/drivetrain/fake"
	"go.viam.com/holonomic/config"
	"go.viam.com/holonomic/kinematics"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
	"go.viam.com/holonomic/trajectory"
)

// extraTicks bounds how long a run may overrun its trajectory before it is abandoned.
const extraTicks = 50

// Options adjust a run.
type Options struct {
	// StartPose is where the robot really starts. Defaults to the trajectory's initial pose.
	StartPose *spatialmath.Pose2d
	// GyroOffset is added to every gyro reading.
	GyroOffset spatialmath.Rotation2d
}

// Sample is the state of one control period, taken after the scheduler ran.
type Sample struct {
	Time     float64
	Desired  spatialmath.Pose2d
	Actual   spatialmath.Pose2d
	Estimate spatialmath.Pose2d
	// Error is the distance from Actual to Desired in meters.
	Error float64
}

// Result is the record of a simulated run.
type Result struct {
	Trajectory   *trajectory.Trajectory
	Samples      []Sample
	FinalPose    spatialmath.Pose2d
	FinalCommand []kinematics.ModuleState
	Ticks        int
	// Faults counts periods in which a subsystem or the command reported an error.
	Faults int
}

// Summary condenses a Result.
type Summary struct {
	MeanError       float64
	MaxError        float64
	P95Error        float64
	FinalError      float64
	FinalHeadingErr float64
	Duration        float64
}

// Run generates the configured path and follows it to completion. cfg must have a path.
func Run(ctx context.Context, cfg *config.Config, opts Options, logger logging.Logger) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "simulation::Run")
	defer span.End()

	if cfg.Path == nil {
		return nil, errors.New("config has no path to follow")
	}
	kin, err := cfg.Kinematics()
	if err != nil {
		return nil, err
	}
	traj, err := cfg.Path.Generate(ctx, cfg.TrajectoryConfig(kin))
	if err != nil {
		return nil, err
	}
	controller, err := cfg.HolonomicController(logger.Sublogger("controller"))
	if err != nil {
		return nil, err
	}

	startPose := traj.InitialPose()
	if opts.StartPose != nil {
		startPose = *opts.StartPose
	}

	clk := clock.NewMock()
	sim := fake.NewDrivetrain(kin, startPose, clk, logger.Sublogger("sim"))
	sim.SetGyroOffset(opts.GyroOffset)
	drive := drivetrain.NewDrive("drive", kin, sim, sim, sim, cfg.MaxModuleSpeedMPS, clk, logger.Sublogger("drive"))
	if !cfg.ShouldResetOdometry() {
		// localization comes from elsewhere; seed it with the truth
		if err := drive.ResetPose(ctx, startPose); err != nil {
			return nil, err
		}
	}

	cmd, err := command.NewSwerveControllerCommand(command.SwerveControllerConfig{
		Trajectory:     traj,
		Pose:           drive,
		Kinematics:     kin,
		Controller:     controller,
		Sink:           drive,
		Clock:          clk,
		MaxModuleSpeed: cfg.MaxModuleSpeedMPS,
		ResetOdometry:  cfg.ShouldResetOdometry(),
	}, logger.Sublogger("command"))
	if err != nil {
		return nil, err
	}
	sched, err := command.NewScheduler(cfg.Period(), clk, logger.Sublogger("scheduler"), drive)
	if err != nil {
		return nil, err
	}
	if err := sched.Schedule(ctx, cmd); err != nil {
		return nil, err
	}

	result := &Result{Trajectory: traj}
	maxTicks := int(math.Ceil(traj.Duration()/cfg.Period().Seconds())) + extraTicks
	start := clk.Now()
	for sched.Current() != nil {
		if err := ctx.Err(); err != nil {
			return nil, abandon(ctx, sched, err)
		}
		if result.Ticks >= maxTicks {
			return nil, abandon(ctx, sched, errors.Errorf("trajectory did not finish after %d periods", maxTicks))
		}
		clk.Add(cfg.Period())
		result.Ticks++
		if err := sched.RunOnce(ctx); err != nil {
			result.Faults++
		}

		elapsed := clk.Since(start).Seconds()
		desired := traj.Sample(elapsed).Pose
		actual := sim.TruePose()
		result.Samples = append(result.Samples, Sample{
			Time:     elapsed,
			Desired:  desired,
			Actual:   actual,
			Estimate: drive.Pose(),
			Error:    actual.Distance(desired),
		})
	}
	result.FinalPose = sim.TruePose()
	result.FinalCommand = sim.LastCommand()
	logger.Infow("simulation finished", "ticks", result.Ticks, "final", result.FinalPose.String(), "faults", result.Faults)
	return result, nil
}

// abandon stops the running command and returns err.
func abandon(ctx context.Context, sched *command.Scheduler, err error) error {
	return multierr.Combine(err, sched.Cancel(context.WithoutCancel(ctx)))
}

// Reached reports whether the run ended within tol of the trajectory's final pose. tol is per
// axis, measured in the final pose's frame.
func (r *Result) Reached(tol spatialmath.Pose2d) bool {
	diff := r.FinalPose.RelativeTo(r.Trajectory.FinalPose())
	return math.Abs(diff.X()) <= math.Abs(tol.X()) &&
		math.Abs(diff.Y()) <= math.Abs(tol.Y()) &&
		math.Abs(diff.Rotation().Radians()) <= math.Abs(tol.Rotation().Radians())
}

// Summarize computes tracking statistics.
func (r *Result) Summarize() (Summary, error) {
	if len(r.Samples) == 0 {
		return Summary{}, errors.New("no samples")
	}
	errs := lo.Map(r.Samples, func(s Sample, _ int) float64 { return s.Error })
	mean, err := stats.Mean(errs)
	if err != nil {
		return Summary{}, err
	}
	maxErr, err := stats.Max(errs)
	if err != nil {
		return Summary{}, err
	}
	p95, err := stats.Percentile(errs, 95)
	if err != nil {
		return Summary{}, err
	}
	final := r.Trajectory.FinalPose()
	return Summary{
		MeanError:       mean,
		MaxError:        maxErr,
		P95Error:        p95,
		FinalError:      r.FinalPose.Distance(final),
		FinalHeadingErr: math.Abs(r.FinalPose.Rotation().Minus(final.Rotation()).Degrees()),
		Duration:        r.Samples[len(r.Samples)-1].Time,
	}, nil
}
