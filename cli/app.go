// Package cli implements the swerve command line tool: it generates, simulates and plots
// trajectories for a configured robot.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	flagConfig    = "config"
	flagDebug     = "debug"
	flagStep      = "step"
	flagHistogram = "histogram"
	flagOut       = "out"
	flagSize      = "size"
	flagStartX    = "start-x"
	flagStartY    = "start-y"
	flagStartDeg  = "start-theta-deg"
	flagRadius    = "radius"
	flagRuns      = "runs"
)

var app = &cli.App{
	Name:            "swerve",
	Usage:           "generate and follow holonomic swerve trajectories",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.PathFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "load robot configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:  flagDebug,
			Usage: "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "generate",
			Usage: "generate the configured path and print the sampled trajectory",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  flagStep,
					Value: 0.1,
					Usage: "sampling step in seconds",
				},
			},
			Action: GenerateAction,
		},
		{
			Name:  "simulate",
			Usage: "follow the configured path with a simulated drivetrain and report tracking error",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  flagHistogram,
					Usage: "print a histogram of the tracking error",
				},
				&cli.Float64Flag{
					Name:  flagStartX,
					Usage: "start the robot at this x instead of the path start",
				},
				&cli.Float64Flag{
					Name:  flagStartY,
					Usage: "start the robot at this y instead of the path start",
				},
				&cli.Float64Flag{
					Name:  flagStartDeg,
					Usage: "start the robot at this heading instead of the path start",
				},
			},
			Action: SimulateAction,
		},
		{
			Name:      "plot",
			Usage:     "simulate the configured path and plot reference and simulated paths",
			UsageText: "swerve -c <config> plot --out <file.png>",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     flagOut,
					Required: true,
					Usage:    "image `FILE` to write; the extension picks the format",
				},
				&cli.Float64Flag{
					Name:  flagSize,
					Value: 6,
					Usage: "image width and height in inches",
				},
			},
			Action: PlotAction,
		},
		{
			Name:  "sweep",
			Usage: "follow the configured path from starts spread around the path start",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:  flagRadius,
					Value: 0.1,
					Usage: "distance in meters of each start from the path start",
				},
				&cli.IntFlag{
					Name:  flagRuns,
					Value: 8,
					Usage: "number of starts",
				},
			},
			Action: SweepAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of the configuration file",
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
