package simulation

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/holonomic/trajectory"
)

var (
	referenceColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	actualColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// SavePlot draws the reference path and the simulated path in the field frame. The image format
// follows the file extension.
func SavePlot(r *Result, path string, size vg.Length) error {
	p := plot.New()
	p.Title.Text = "trajectory tracking"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	reference, err := plotter.NewLine(plotter.XYs(lo.Map(r.Trajectory.States(), func(s trajectory.State, _ int) plotter.XY {
		return plotter.XY{X: s.Pose.X(), Y: s.Pose.Y()}
	})))
	if err != nil {
		return errors.Wrap(err, "reference path")
	}
	reference.LineStyle.Color = referenceColor
	reference.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	actual, err := plotter.NewLine(plotter.XYs(lo.Map(r.Samples, func(s Sample, _ int) plotter.XY {
		return plotter.XY{X: s.Actual.X(), Y: s.Actual.Y()}
	})))
	if err != nil {
		return errors.Wrap(err, "simulated path")
	}
	actual.LineStyle.Color = actualColor

	p.Add(plotter.NewGrid(), reference, actual)
	p.Legend.Add("reference", reference)
	p.Legend.Add("simulated", actual)
	p.Legend.Top = true

	return p.Save(size, size, path)
}
