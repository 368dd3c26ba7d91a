package robot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
)

const scenarioYAML = `
model: arm.json
integrator: rk4
dt: 0.005
duration: 2
initial_positions: [0.1, -0.2]
forces: [1.0, 0.0]
damping: [0.5, 0.5]
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	test.That(t, os.WriteFile(path, []byte(scenarioYAML), 0o600), test.ShouldBeNil)

	sc, err := LoadScenario(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.Model, test.ShouldEqual, "arm.json")
	test.That(t, sc.Integrator, test.ShouldEqual, "rk4")
	test.That(t, sc.Dt, test.ShouldAlmostEqual, 0.005)
	test.That(t, sc.Duration, test.ShouldAlmostEqual, 2)
	test.That(t, sc.InitialPositions, test.ShouldResemble, []float64{0.1, -0.2})

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	test.That(t, os.WriteFile(bad, []byte(":\n:::"), 0o600), test.ShouldBeNil)
	_, err = LoadScenario(bad)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadScenarioDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	test.That(t, os.WriteFile(path, []byte("model: arm.json\n"), 0o600), test.ShouldBeNil)

	sc, err := LoadScenario(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sc.Integrator, test.ShouldEqual, "euler")
	test.That(t, sc.Dt, test.ShouldAlmostEqual, defaultDt)
	test.That(t, sc.Duration, test.ShouldAlmostEqual, 10)
}

func TestScenarioBuild(t *testing.T) {
	logger := golog.NewTestLogger(t)
	sc := &Scenario{
		Integrator:       "rk4",
		Dt:               0.005,
		InitialPositions: []float64{0.1, -0.2},
		Forces:           []float64{1},
		Damping:          []float64{0.5, 0.5},
	}

	r, err := sc.Build(planarArm(t), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Dt(), test.ShouldAlmostEqual, 0.005)

	s := r.Snapshot()
	test.That(t, s.Positions, test.ShouldResemble, []float64{0.1, -0.2})

	forces := sc.StepForces(r.DoF())
	test.That(t, forces, test.ShouldResemble, []float64{1, 0})
	test.That(t, r.Step(forces), test.ShouldBeNil)
}

func TestScenarioBuildErrors(t *testing.T) {
	logger := golog.NewTestLogger(t)

	_, err := (&Scenario{Integrator: "leapfrog"}).Build(planarArm(t), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = (&Scenario{Damping: []float64{1}}).Build(planarArm(t), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = (&Scenario{InitialPositions: []float64{1, 2, 3}}).Build(planarArm(t), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
