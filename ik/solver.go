// Package ik implements inverse kinematics solvers over kinematic chains.
package ik

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/robosim-dev/robosim/kinematics"
	"github.com/robosim-dev/robosim/spatialmath"
)

// Default solver parameters. Lambda must stay strictly positive even at a perfectly
// conditioned Jacobian: the damping term is what keeps the normal equations
// solvable near kinematic singularities, where JᵀJ loses rank.
const (
	defaultMaxIterations        = 100
	defaultPositionTolerance    = 1e-6
	defaultOrientationTolerance = 1e-6
	defaultLambda               = 0.1
)

// InverseKinematics solves for the joint values that place a chain's end effector
// at a goal pose.
type InverseKinematics interface {
	// Solve receives a context, the goal pose, and seed joint values. On success
	// the returned values achieve the goal within the solver's tolerances. On a
	// ConvergenceError the returned values are the best effort found, still valid
	// for the chain's limits.
	Solve(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error)
}

// SolverOptions hold the numerical parameters of a damped least-squares solve.
type SolverOptions struct {
	// MaxIterations bounds the iteration loop; the solver never runs unbounded.
	MaxIterations int
	// PositionTolerance is the linear distance under which the goal counts as
	// reached.
	PositionTolerance float64
	// OrientationTolerance is the axis-angle magnitude in radians under which the
	// goal orientation counts as reached.
	OrientationTolerance float64
	// Lambda is the damping factor; it must be greater than zero.
	Lambda float64
}

// DefaultSolverOptions returns the solver parameters used when none are supplied.
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		MaxIterations:        defaultMaxIterations,
		PositionTolerance:    defaultPositionTolerance,
		OrientationTolerance: defaultOrientationTolerance,
		Lambda:               defaultLambda,
	}
}

// DampedLeastSquares is an iterative Levenberg-Marquardt style solver. Each
// iteration computes the pose error to the goal as a 6-vector, then solves
// dq = (JᵀJ + λ²I)⁻¹ Jᵀ e and applies dq to the joint values, clamping to limits.
type DampedLeastSquares struct {
	chain       *kinematics.Chain
	endEffector string
	opts        SolverOptions
	logger      golog.Logger
}

// NewDampedLeastSquares creates a solver against the given chain and end effector
// link. The chain is mutated during solves and must not be shared with a concurrent
// writer.
func NewDampedLeastSquares(
	chain *kinematics.Chain,
	endEffector string,
	opts SolverOptions,
	logger golog.Logger,
) (*DampedLeastSquares, error) {
	if _, err := chain.Link(endEffector); err != nil {
		return nil, err
	}
	if opts.Lambda <= 0 {
		return nil, errors.Errorf("damping factor must be greater than zero, got %f", opts.Lambda)
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = defaultMaxIterations
	}
	return &DampedLeastSquares{chain: chain, endEffector: endEffector, opts: opts, logger: logger}, nil
}

// Solve iterates damped least-squares steps from the seed until the end effector is
// within tolerance of the goal, the iteration bound is exhausted, or the context is
// cancelled. The chain is left at the returned joint values.
func (dls *DampedLeastSquares) Solve(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error) {
	if err := dls.chain.SetJointValues(seed); err != nil {
		return nil, err
	}
	dof := dls.chain.DoF()
	lambdaSq := dls.opts.Lambda * dls.opts.Lambda

	// An infinite tolerance means that component of the goal is unconstrained, so
	// its error must not steer the step either.
	posOnly := math.IsInf(dls.opts.OrientationTolerance, 1)
	ornOnly := math.IsInf(dls.opts.PositionTolerance, 1)

	var posErr, ornErr float64
	for iteration := 0; iteration < dls.opts.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return dls.chain.JointValues(), err
		}

		dls.chain.ForwardKinematics()
		current, err := dls.chain.LinkPose(dls.endEffector)
		if err != nil {
			return nil, err
		}

		delta := spatialmath.PoseDelta(current, goal)
		posErr = math.Sqrt(SquaredNorm(delta[:3]))
		ornErr = math.Sqrt(SquaredNorm(delta[3:]))
		if posErr < dls.opts.PositionTolerance && ornErr < dls.opts.OrientationTolerance {
			return dls.chain.JointValues(), nil
		}
		if posOnly {
			delta[3], delta[4], delta[5] = 0, 0, 0
		}
		if ornOnly {
			delta[0], delta[1], delta[2] = 0, 0, 0
		}

		jacobian, err := dls.chain.Jacobian(dls.endEffector)
		if err != nil {
			return nil, err
		}
		dq, err := solveDamped(jacobian, delta, lambdaSq, dof)
		if err != nil {
			return dls.chain.JointValues(), err
		}

		values := dls.chain.JointValues()
		for i := range values {
			values[i] += dq[i]
		}
		// SetJointValues clamps to limits: steps into a limit stick at the
		// boundary rather than wrapping.
		if err := dls.chain.SetJointValues(values); err != nil {
			return nil, err
		}
	}

	dls.chain.ForwardKinematics()
	if dls.logger != nil {
		dls.logger.Debugw("ik solve exhausted iterations",
			"iterations", dls.opts.MaxIterations, "position_error", posErr, "orientation_error", ornErr)
	}
	return dls.chain.JointValues(), NewConvergenceError(dls.opts.MaxIterations, posErr, ornErr)
}

// solveDamped computes (JᵀJ + λ²I)⁻¹ Jᵀ e without explicitly forming the inverse.
func solveDamped(jacobian *mat.Dense, delta []float64, lambdaSq float64, dof int) ([]float64, error) {
	if dof == 0 {
		return nil, nil
	}
	var jtj mat.Dense
	jtj.Mul(jacobian.T(), jacobian)
	for i := 0; i < dof; i++ {
		jtj.Set(i, i, jtj.At(i, i)+lambdaSq)
	}

	var jte mat.VecDense
	jte.MulVec(jacobian.T(), mat.NewVecDense(len(delta), delta))

	var dq mat.VecDense
	if err := dq.SolveVec(&jtj, &jte); err != nil {
		return nil, errors.Wrap(err, "damped normal equations were singular")
	}
	return dq.RawVector().Data, nil
}
