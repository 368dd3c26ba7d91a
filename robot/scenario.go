package robot

import (
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robosim-dev/robosim/dynamics"
	"github.com/robosim-dev/robosim/kinematics"
)

// Scenario is a YAML description of one simulation run: which robot model to
// load, how to integrate, and what to do with the joints.
type Scenario struct {
	// Model is the path to a robot description JSON file.
	Model string `yaml:"model"`
	// Integrator selects "euler" (default) or "rk4".
	Integrator string `yaml:"integrator"`
	// Dt is the fixed step size in seconds.
	Dt float64 `yaml:"dt"`
	// Duration is the simulated run length in seconds; zero runs until
	// cancellation.
	Duration float64 `yaml:"duration"`
	// EndEffector names the link IK goals target; empty uses the first leaf.
	EndEffector string `yaml:"end_effector"`
	// InitialPositions seed the joints before the run starts.
	InitialPositions []float64 `yaml:"initial_positions"`
	// Forces are the constant generalized forces applied each step.
	Forces []float64 `yaml:"forces"`
	// Damping overrides the per-joint viscous damping; empty leaves the model
	// undamped.
	Damping []float64 `yaml:"damping"`
}

// DefaultScenario returns the scenario values used when the YAML omits them.
func DefaultScenario() *Scenario {
	return &Scenario{
		Integrator: "euler",
		Dt:         defaultDt,
		Duration:   10,
	}
}

// LoadScenario reads a scenario YAML file, filling omitted fields with defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultScenario()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse scenario %q", path)
	}
	return cfg, nil
}

// Build constructs a robot for the scenario around an already parsed chain.
func (sc *Scenario) Build(chain *kinematics.Chain, logger golog.Logger) (*Robot, error) {
	var integ dynamics.Integrator
	switch sc.Integrator {
	case "", "euler":
		integ = dynamics.NewSymplecticEuler()
	case "rk4":
		integ = dynamics.NewRK4()
	default:
		return nil, errors.Errorf("unknown integrator %q", sc.Integrator)
	}

	var model *dynamics.Model
	if len(sc.Damping) > 0 {
		base, err := dynamics.ModelFromChain(chain)
		if err != nil {
			return nil, err
		}
		model, err = base.WithDamping(sc.Damping)
		if err != nil {
			return nil, err
		}
	}

	r, err := New(chain, Options{
		Model:       model,
		Integrator:  integ,
		EndEffector: sc.EndEffector,
		Dt:          sc.Dt,
	}, logger)
	if err != nil {
		return nil, err
	}
	if len(sc.InitialPositions) > 0 {
		if err := r.SetJointTargets(sc.InitialPositions); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// StepForces returns the constant forces the scenario applies, zero-filled to the
// robot's DoF.
func (sc *Scenario) StepForces(dof int) []float64 {
	forces := make([]float64, dof)
	copy(forces, sc.Forces)
	return forces
}
