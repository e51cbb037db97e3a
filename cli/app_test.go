package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

var sampleConfig = filepath.Join("..", "etc", "configs", "swerve.json")

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"swerve"}, args...))
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	out, err := runApp(t, "-c", sampleConfig, "generate", "--step", "0.5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "HEADING")
	test.That(t, out, test.ShouldContainSubstring, "DURATION")

	_, err = runApp(t, "-c", sampleConfig, "generate", "--step", "0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSimulateCommand(t *testing.T) {
	out, err := runApp(t, "-c", sampleConfig, "simulate", "--histogram")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "final position error")
	test.That(t, out, test.ShouldContainSubstring, "tracking error (m):")
	test.That(t, out, test.ShouldContainSubstring, "within tolerance")
	test.That(t, out, test.ShouldContainSubstring, "yes")
}

func TestSweepCommand(t *testing.T) {
	out, err := runApp(t, "-c", sampleConfig, "sweep", "--runs", "3", "--radius", "0.05")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "3/3")

	_, err = runApp(t, "-c", sampleConfig, "sweep", "--runs", "0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSchemaCommand(t *testing.T) {
	out, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, `"max_module_speed_mps"`)
}

func TestPlotCommand(t *testing.T) {
	img := filepath.Join(t.TempDir(), "track.png")
	out, err := runApp(t, "-c", sampleConfig, "plot", "--out", img, "--size", "3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "wrote")
	_, err = os.Stat(img)
	test.That(t, err, test.ShouldBeNil)
}

func TestMissingConfig(t *testing.T) {
	_, err := runApp(t, "-c", filepath.Join(t.TempDir(), "nope.json"), "generate")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "simulate")
	test.That(t, err, test.ShouldNotBeNil)
}
