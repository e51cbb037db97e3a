package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/holonomic/logging"
)

const minimalConfig = `{
	"max_module_speed_mps": 4,
	"modules": [{"name": "left", "x": 0, "y": 0.3}, {"name": "right", "x": 0, "y": -0.3}],
	"trajectory": {"max_velocity": 3, "max_acceleration": 3},
	"x_controller": {"p": 1},
	"y_controller": {"p": 1},
	"theta_controller": {"p": 1, "max_velocity": 3, "max_acceleration": 3}
}`

func TestFromReaderValidate(t *testing.T) {
	_, err := FromReader("somepath", strings.NewReader(""))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader("somepath", strings.NewReader(`{"cloud": 1}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown field")

	_, err = FromReader("somepath", strings.NewReader(`{}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"max_module_speed_mps" is required`)

	conf, err := FromReader("somepath", strings.NewReader(minimalConfig))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, "somepath")
	test.That(t, conf.Modules, test.ShouldHaveLength, 2)
	test.That(t, conf.ThetaController.P, test.ShouldEqual, 1.0)
	test.That(t, conf.ThetaController.MaxVelocity, test.ShouldEqual, 3.0)
	test.That(t, conf.Period(), test.ShouldEqual, DefaultPeriod)
	test.That(t, conf.Level(), test.ShouldEqual, logging.INFO)
	test.That(t, conf.ShouldResetOdometry(), test.ShouldBeTrue)
	test.That(t, conf.Path, test.ShouldBeNil)
}

func TestReadSampleConfig(t *testing.T) {
	conf, err := Read(filepath.Join("..", "etc", "configs", "swerve.json"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Name, test.ShouldEqual, "swerve")
	test.That(t, conf.Modules, test.ShouldHaveLength, 4)
	test.That(t, conf.Period(), test.ShouldEqual, 20*time.Millisecond)
	test.That(t, conf.Path, test.ShouldNotBeNil)
	test.That(t, conf.Path.Waypoints, test.ShouldHaveLength, 2)
}

func TestReadExpandsEnvironment(t *testing.T) {
	t.Setenv("SWERVE_MAX_SPEED", "4.5")
	t.Setenv("SWERVE_LOG_LEVEL", "debug")
	raw := strings.Replace(minimalConfig, `"max_module_speed_mps": 4`, `"max_module_speed_mps": ${SWERVE_MAX_SPEED}`, 1)
	raw = strings.Replace(raw, "{\n", "{\n\t\"log_level\": \"${SWERVE_LOG_LEVEL}\",\n", 1)

	path := filepath.Join(t.TempDir(), "robot.json")
	test.That(t, os.WriteFile(path, []byte(raw), 0o600), test.ShouldBeNil)

	conf, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.MaxModuleSpeedMPS, test.ShouldEqual, 4.5)
	test.That(t, conf.Level(), test.ShouldEqual, logging.DEBUG)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
