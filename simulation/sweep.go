package simulation

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/holonomic/config"
	"go.viam.com/holonomic/logging"
	"go.viam.com/holonomic/spatialmath"
)

// Sweep runs one simulation per entry of runs, at most GOMAXPROCS at a time. Results are in the
// order of runs. The first failure cancels the runs still going.
func Sweep(ctx context.Context, cfg *config.Config, runs []Options, logger logging.Logger) ([]*Result, error) {
	results := make([]*Result, len(runs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, opts := range runs {
		i, opts := i, opts
		g.Go(func() error {
			result, err := Run(ctx, cfg, opts, logger.Sublogger(fmt.Sprintf("run%d", i)))
			if err != nil {
				return errors.Wrapf(err, "run %d", i)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// StartRing returns n runs starting evenly spaced on a circle of the given radius around center,
// each facing the same way as center.
func StartRing(center spatialmath.Pose2d, radius float64, n int) []Options {
	runs := make([]Options, 0, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		start := spatialmath.NewPose2d(
			center.X()+radius*math.Cos(angle),
			center.Y()+radius*math.Sin(angle),
			center.Rotation(),
		)
		runs = append(runs, Options{StartPose: &start})
	}
	return runs
}
