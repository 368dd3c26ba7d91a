package robot

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/robosim-dev/robosim/dynamics"
	"github.com/robosim-dev/robosim/ik"
	"github.com/robosim-dev/robosim/kinematics"
	"github.com/robosim-dev/robosim/spatialmath"
)

// Robot is a simulated articulated robot. Exactly one goroutine mutates it;
// any number of goroutines may call Snapshot concurrently. Every mutation
// recomputes forward kinematics and publishes a fresh snapshot in one atomic
// store, so readers never observe joint values and link poses from different
// steps.
type Robot struct {
	chain      *kinematics.Chain
	model      *dynamics.Model
	integrator dynamics.Integrator
	solver     ik.InverseKinematics
	logger     golog.Logger

	dt         float64
	velocities []float64
	stepCount  uint64

	current atomic.Pointer[State]
}

// Options configure a robot beyond its chain.
type Options struct {
	// Model supplies joint-space dynamics; when nil it is derived from the
	// chain's link masses.
	Model *dynamics.Model
	// Integrator advances state in Step; defaults to symplectic Euler.
	Integrator dynamics.Integrator
	// Solver handles MoveToPose; when nil a damped least-squares solver against
	// EndEffector is built with default options.
	Solver ik.InverseKinematics
	// EndEffector names the link MoveToPose targets; defaults to the chain's
	// first leaf.
	EndEffector string
	// Dt is the fixed step size in seconds; defaults to 0.01.
	Dt float64
}

const defaultDt = 0.01

// New creates a robot around the given chain. The robot takes ownership of the
// chain; callers must not mutate it afterwards.
func New(chain *kinematics.Chain, opts Options, logger golog.Logger) (*Robot, error) {
	if opts.Dt < 0 {
		return nil, errors.Errorf("step size cannot be negative, got %f", opts.Dt)
	}
	if opts.Dt == 0 {
		opts.Dt = defaultDt
	}
	if opts.EndEffector == "" {
		leaves := chain.Leaves()
		if len(leaves) == 0 {
			return nil, errors.New("chain has no links")
		}
		opts.EndEffector = leaves[0]
	} else if _, err := chain.Link(opts.EndEffector); err != nil {
		return nil, err
	}
	if opts.Model == nil {
		m, err := dynamics.ModelFromChain(chain)
		if err != nil {
			return nil, err
		}
		opts.Model = m
	}
	if opts.Model.DoF() != chain.DoF() {
		return nil, errors.Errorf(
			"dynamics model covers %d joints but chain has %d", opts.Model.DoF(), chain.DoF())
	}
	if opts.Integrator == nil {
		opts.Integrator = dynamics.NewSymplecticEuler()
	}
	if opts.Solver == nil {
		// The solver gets its own clone so solve iterations never touch the
		// published chain.
		solver, err := ik.NewDampedLeastSquares(
			chain.Clone(), opts.EndEffector, ik.DefaultSolverOptions(), logger)
		if err != nil {
			return nil, err
		}
		opts.Solver = solver
	}

	r := &Robot{
		chain:      chain,
		model:      opts.Model,
		integrator: opts.Integrator,
		solver:     opts.Solver,
		logger:     logger,
		dt:         opts.Dt,
		velocities: make([]float64, chain.DoF()),
	}
	r.publish()
	return r, nil
}

// DoF returns the robot's movable joint count.
func (r *Robot) DoF() int {
	return r.chain.DoF()
}

// Dt returns the fixed step size in seconds.
func (r *Robot) Dt() float64 {
	return r.dt
}

// Snapshot returns a copy of the most recently published state. The caller owns
// the copy outright.
func (r *Robot) Snapshot() *State {
	return r.current.Load().clone()
}

// SetJointTargets teleports the joints to the given values, clamped to limits,
// and zeroes all velocities. The value count must match the robot's DoF.
func (r *Robot) SetJointTargets(values []float64) error {
	if err := r.chain.SetJointValues(values); err != nil {
		return err
	}
	for i := range r.velocities {
		r.velocities[i] = 0
	}
	r.publish()
	return nil
}

// MoveToPose solves IK for the end effector to reach the goal pose and teleports
// the joints to the solution, zeroing velocities. On a convergence failure the
// chain is left unchanged and the error is returned.
func (r *Robot) MoveToPose(ctx context.Context, goal spatialmath.Pose) error {
	solution, err := r.solver.Solve(ctx, goal, r.chain.JointValues())
	if err != nil {
		return err
	}
	return r.SetJointTargets(solution)
}

// Step advances the dynamics by one fixed timestep under the given generalized
// forces, one per movable joint.
func (r *Robot) Step(forces []float64) error {
	if len(forces) != r.chain.DoF() {
		return kinematics.NewIncorrectDoFError(len(forces), r.chain.DoF())
	}
	pos, vel, err := r.integrator.Step(
		r.model, r.chain.Limits(), r.chain.JointValues(), r.velocities, forces, r.dt)
	if err != nil {
		return err
	}
	if err := r.chain.SetJointValues(pos); err != nil {
		return err
	}
	r.velocities = vel
	r.stepCount++
	r.publish()
	return nil
}

// publish recomputes forward kinematics and atomically swaps in a new snapshot.
func (r *Robot) publish() {
	r.chain.ForwardKinematics()
	poses, err := r.chain.LinkPoses()
	if err != nil {
		// LinkPoses cannot fail right after ForwardKinematics.
		panic(err)
	}
	s := &State{
		Positions:  r.chain.JointValues(),
		Velocities: append([]float64(nil), r.velocities...),
		LinkPoses:  poses,
		Step:       r.stepCount,
		Time:       float64(r.stepCount) * r.dt,
	}
	r.current.Store(s)
}
