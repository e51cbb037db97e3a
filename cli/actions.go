package cli

import (
	"encoding/json"
	"fmt"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot/vg"

	"go.viam.com/holonomic/config"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/simulation"
	"go.viam.com/holonomic/spatialmath"
)

func readConfig(c *cli.Context) (*config.Config, logging.Logger, error) {
	if c.Path(flagConfig) == "" {
		return nil, nil, errors.Errorf("--%s is required", flagConfig)
	}
	cfg, err := config.Read(c.Path(flagConfig))
	if err != nil {
		return nil, nil, err
	}
	if cfg.Path == nil {
		return nil, nil, errors.Errorf("%s has no path section", cfg.ConfigFilePath)
	}
	logger := logging.NewLogger("swerve")
	logger.SetLevel(cfg.Level())
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	return cfg, logger, nil
}

// verdict renders whether a run ended within the configured tolerance.
func verdict(result *simulation.Result, cfg *config.Config) string {
	if result.Reached(cfg.Tolerance.Pose()) {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}

// GenerateAction prints the configured path's trajectory sampled every --step seconds.
func GenerateAction(c *cli.Context) error {
	cfg, _, err := readConfig(c)
	if err != nil {
		return err
	}
	step := c.Float64(flagStep)
	if step <= 0 {
		return errors.Errorf("--%s must be positive", flagStep)
	}
	kin, err := cfg.Kinematics()
	if err != nil {
		return err
	}
	traj, err := cfg.Path.Generate(c.Context, cfg.TrajectoryConfig(kin))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"t (s)", "x (m)", "y (m)", "heading (°)", "v (m/s)", "a (m/s²)", "curvature (1/m)"})
	for ts := 0.0; ts < traj.Duration()+step; ts += step {
		s := traj.Sample(ts)
		t.AppendRow(table.Row{
			fmt.Sprintf("%.2f", s.Time),
			fmt.Sprintf("%.3f", s.Pose.X()),
			fmt.Sprintf("%.3f", s.Pose.Y()),
			fmt.Sprintf("%.1f", s.Pose.Rotation().Degrees()),
			fmt.Sprintf("%.3f", s.Velocity),
			fmt.Sprintf("%.3f", s.Acceleration),
			fmt.Sprintf("%.3f", s.Curvature),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "duration", fmt.Sprintf("%.3f s", traj.Duration())})
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

// SimulateAction follows the configured path with a simulated drivetrain and prints tracking
// statistics.
func SimulateAction(c *cli.Context) error {
	cfg, logger, err := readConfig(c)
	if err != nil {
		return err
	}
	var opts simulation.Options
	if c.IsSet(flagStartX) || c.IsSet(flagStartY) || c.IsSet(flagStartDeg) {
		start := spatialmath.NewPose2d(c.Float64(flagStartX), c.Float64(flagStartY),
			spatialmath.NewRotation2dFromDegrees(c.Float64(flagStartDeg)))
		opts.StartPose = &start
	}
	result, err := simulation.Run(c.Context, cfg, opts, logger)
	if err != nil {
		return err
	}
	summary, err := result.Summarize()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"trajectory duration", fmt.Sprintf("%.3f s", result.Trajectory.Duration())},
		{"control periods", result.Ticks},
		{"faults", result.Faults},
		{"final pose", result.FinalPose.String()},
		{"target pose", result.Trajectory.FinalPose().String()},
		{"final position error", fmt.Sprintf("%.4f m", summary.FinalError)},
		{"final heading error", fmt.Sprintf("%.3f°", summary.FinalHeadingErr)},
		{"mean tracking error", fmt.Sprintf("%.4f m", summary.MeanError)},
		{"p95 tracking error", fmt.Sprintf("%.4f m", summary.P95Error)},
		{"max tracking error", fmt.Sprintf("%.4f m", summary.MaxError)},
		{"within tolerance", verdict(result, cfg)},
	})
	fmt.Fprintln(c.App.Writer, t.Render())

	if c.Bool(flagHistogram) {
		errs := lo.Map(result.Samples, func(s simulation.Sample, _ int) float64 { return s.Error })
		fmt.Fprintln(c.App.Writer, "tracking error (m):")
		if err := histogram.Fprint(c.App.Writer, histogram.Hist(10, errs), histogram.Linear(40)); err != nil {
			return err
		}
	}
	return nil
}

// PlotAction simulates the configured path and writes an image of the reference and simulated
// paths.
func PlotAction(c *cli.Context) error {
	cfg, logger, err := readConfig(c)
	if err != nil {
		return err
	}
	result, err := simulation.Run(c.Context, cfg, simulation.Options{}, logger)
	if err != nil {
		return err
	}
	out := c.Path(flagOut)
	if err := simulation.SavePlot(result, out, vg.Length(c.Float64(flagSize))*vg.Inch); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", out)
	return nil
}

// SweepAction follows the configured path from --runs starts spaced --radius around the path start
// and prints one row per run. Odometry is seeded with each true start.
func SweepAction(c *cli.Context) error {
	cfg, logger, err := readConfig(c)
	if err != nil {
		return err
	}
	if c.Int(flagRuns) < 1 {
		return errors.Errorf("--%s must be at least 1", flagRuns)
	}
	external := false
	cfg.ResetOdometry = &external

	runs := simulation.StartRing(cfg.Path.Start.Pose(), c.Float64(flagRadius), c.Int(flagRuns))
	results, err := simulation.Sweep(c.Context, cfg, runs, logger)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Run", "Start", "Final error (m)", "Heading error (°)", "p95 error (m)", "Within tolerance"})
	reached := 0
	for i, result := range results {
		summary, err := result.Summarize()
		if err != nil {
			return errors.Wrapf(err, "run %d", i)
		}
		if result.Reached(cfg.Tolerance.Pose()) {
			reached++
		}
		t.AppendRow(table.Row{
			i,
			runs[i].StartPose.String(),
			fmt.Sprintf("%.4f", summary.FinalError),
			fmt.Sprintf("%.3f", summary.FinalHeadingErr),
			fmt.Sprintf("%.4f", summary.P95Error),
			verdict(result, cfg),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "reached", fmt.Sprintf("%d/%d", reached, len(results))})
	fmt.Fprintln(c.App.Writer, t.Render())
	return nil
}

// SchemaAction prints the JSON schema of the configuration file.
func SchemaAction(c *cli.Context) error {
	out, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
