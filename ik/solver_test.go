package ik

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/robosim-dev/robosim/kinematics"
	"github.com/robosim-dev/robosim/spatialmath"
)

// planarArm builds a two-revolute-joint arm with unit link lengths reaching at
// most 2.0 from the base.
func planarArm(t *testing.T) *kinematics.Chain {
	t.Helper()
	base, err := kinematics.NewLink("base", 0, nil, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	chain, err := kinematics.NewChain("planar-2dof", base)
	test.That(t, err, test.ShouldBeNil)

	upper, err := kinematics.NewLink("upper", 1, nil, r3.Vector{X: 0.5})
	test.That(t, err, test.ShouldBeNil)
	shoulder, err := kinematics.NewRevoluteJoint("shoulder", r3.Vector{Z: 1}, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.AddLink(upper, "base", shoulder), test.ShouldBeNil)

	fore, err := kinematics.NewLink("fore", 1, nil, r3.Vector{X: 0.5})
	test.That(t, err, test.ShouldBeNil)
	elbow, err := kinematics.NewRevoluteJoint("elbow", r3.Vector{Z: 1}, spatialmath.NewPoseFromPoint(r3.Vector{X: 1}), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.AddLink(fore, "upper", elbow), test.ShouldBeNil)

	ee, err := kinematics.NewLink("ee", 0, nil, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.AddLink(ee, "fore", kinematics.NewFixedJoint("wrist", spatialmath.NewPoseFromPoint(r3.Vector{X: 1}))), test.ShouldBeNil)

	return chain
}

// positionOnlyOptions relaxes the orientation tolerance so planar position goals
// are solvable regardless of tip orientation.
func positionOnlyOptions() SolverOptions {
	opts := DefaultSolverOptions()
	opts.OrientationTolerance = math.Inf(1)
	return opts
}

func TestSolveReachableTarget(t *testing.T) {
	logger := golog.NewTestLogger(t)
	chain := planarArm(t)
	solver, err := NewDampedLeastSquares(chain, "ee", positionOnlyOptions(), logger)
	test.That(t, err, test.ShouldBeNil)

	// A spot well inside the workspace, seeded from a nearby bent configuration.
	goal := spatialmath.NewPoseFromPoint(r3.Vector{X: 1.2, Y: 0.8})
	values, err := solver.Solve(context.Background(), goal, []float64{0.5, 0.5})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, chain.SetJointValues(values), test.ShouldBeNil)
	chain.ForwardKinematics()
	pose, err := chain.LinkPose("ee")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 1.2, 1e-5)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 0.8, 1e-5)
}

func TestSolveUnreachableTarget(t *testing.T) {
	logger := golog.NewTestLogger(t)
	chain := planarArm(t)
	solver, err := NewDampedLeastSquares(chain, "ee", positionOnlyOptions(), logger)
	test.That(t, err, test.ShouldBeNil)

	// Chain reach is 2.0; a target at distance 3.0 must terminate with a
	// convergence failure, not loop forever.
	goal := spatialmath.NewPoseFromPoint(r3.Vector{X: 3, Y: 0})
	values, err := solver.Solve(context.Background(), goal, []float64{0.3, -0.2})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrConvergence), test.ShouldBeTrue)

	// The best-effort joint vector corresponds to the arm fully extended toward
	// the target direction.
	test.That(t, chain.SetJointValues(values), test.ShouldBeNil)
	chain.ForwardKinematics()
	pose, err := chain.LinkPose("ee")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 2, 1e-3)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 0, 1e-3)
}

func TestSolveRespectsLimits(t *testing.T) {
	logger := golog.NewTestLogger(t)
	base, err := kinematics.NewLink("base", 0, nil, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	chain, err := kinematics.NewChain("limited", base)
	test.That(t, err, test.ShouldBeNil)

	arm, err := kinematics.NewLink("arm", 1, nil, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	pivot, err := kinematics.NewRevoluteJoint("pivot", r3.Vector{Z: 1}, nil, &kinematics.Limit{Min: -0.5, Max: 0.5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.AddLink(arm, "base", pivot), test.ShouldBeNil)

	tip, err := kinematics.NewLink("tip", 0, nil, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.AddLink(tip, "arm", kinematics.NewFixedJoint("mount", spatialmath.NewPoseFromPoint(r3.Vector{X: 1}))), test.ShouldBeNil)

	solver, err := NewDampedLeastSquares(chain, "tip", positionOnlyOptions(), logger)
	test.That(t, err, test.ShouldBeNil)

	// The goal needs a rotation of pi/2, but the joint stops at 0.5.
	goal := spatialmath.NewPoseFromPoint(r3.Vector{X: 0, Y: 1})
	values, err := solver.Solve(context.Background(), goal, []float64{0})
	test.That(t, errors.Is(err, ErrConvergence), test.ShouldBeTrue)
	test.That(t, values[0], test.ShouldBeLessThanOrEqualTo, 0.5)
	test.That(t, values[0], test.ShouldBeGreaterThanOrEqualTo, -0.5)
	test.That(t, values[0], test.ShouldAlmostEqual, 0.5, 1e-3)
}

func TestSolverOptionValidation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	chain := planarArm(t)

	opts := DefaultSolverOptions()
	opts.Lambda = 0
	_, err := NewDampedLeastSquares(chain, "ee", opts, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewDampedLeastSquares(chain, "missing", DefaultSolverOptions(), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSolveCancellation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	chain := planarArm(t)
	solver, err := NewDampedLeastSquares(chain, "ee", positionOnlyOptions(), logger)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = solver.Solve(ctx, spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 1}), []float64{0, 0})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestCombinedSolver(t *testing.T) {
	logger := golog.NewTestLogger(t)
	chain := planarArm(t)
	solver, err := NewCombinedIKSolver(chain, "ee", 4, positionOnlyOptions(), logger)
	test.That(t, err, test.ShouldBeNil)

	goal := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5, Y: 1.5})
	values, err := solver.Solve(context.Background(), goal, []float64{0.2, 0.2})
	test.That(t, err, test.ShouldBeNil)

	verify := chain.Clone()
	test.That(t, verify.SetJointValues(values), test.ShouldBeNil)
	verify.ForwardKinematics()
	pose, err := verify.LinkPose("ee")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 0.5, 1e-5)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 1.5, 1e-5)

	// An unreachable goal surfaces a convergence failure from every child, and the
	// best-effort values are the candidate closest to the goal: the arm fully
	// extended along +X.
	values, err = solver.Solve(context.Background(), spatialmath.NewPoseFromPoint(r3.Vector{X: 5}), []float64{0, 0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrConvergence), test.ShouldBeTrue)
	verify = chain.Clone()
	test.That(t, verify.SetJointValues(values), test.ShouldBeNil)
	verify.ForwardKinematics()
	pose, err = verify.LinkPose("ee")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 2, 1e-3)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 0, 1e-3)
}

func TestWeightedSquaredNorm(t *testing.T) {
	vec := []float64{1, 0, 0, 2, 0, 0}
	weights := []float64{1, 1, 1, 0.25, 0.25, 0.25}
	test.That(t, SquaredNorm(vec), test.ShouldAlmostEqual, 5)
	test.That(t, WeightedSquaredNorm(vec, weights), test.ShouldAlmostEqual, 2)
}
