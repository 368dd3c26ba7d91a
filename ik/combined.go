package ik

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/robosim-dev/robosim/kinematics"
	"github.com/robosim-dev/robosim/spatialmath"
)

// seedPerturbation is the magnitude of the random jitter applied to the seed given
// to each child solver, so that solvers explore different basins of attraction.
const seedPerturbation = 0.5

// orientationWeight scales angular error in radians against positional error when
// ranking best-effort results from children that all failed to converge.
const orientationWeight = 0.25

// CombinedIK runs a damped least-squares solver from several perturbed seeds in
// parallel and returns the first solution found. Each child solver operates on its
// own clone of the chain, so they never contend.
type CombinedIK struct {
	solvers []*DampedLeastSquares
	logger  golog.Logger

	// verify scores best-effort candidates without disturbing any child's chain.
	verify      *kinematics.Chain
	endEffector string
}

// NewCombinedIKSolver creates a parallel solver with nSolvers children. The first
// child always receives the caller's seed untouched; the rest start from randomly
// perturbed copies.
func NewCombinedIKSolver(
	chain *kinematics.Chain,
	endEffector string,
	nSolvers int,
	opts SolverOptions,
	logger golog.Logger,
) (*CombinedIK, error) {
	ik := &CombinedIK{logger: logger, verify: chain.Clone(), endEffector: endEffector}
	if nSolvers < 1 {
		nSolvers = 1
	}
	for i := 0; i < nSolvers; i++ {
		solver, err := NewDampedLeastSquares(chain.Clone(), endEffector, opts, logger)
		if err != nil {
			return nil, err
		}
		ik.solvers = append(ik.solvers, solver)
	}
	return ik, nil
}

// Solve runs all child solvers in parallel, cancelling the rest as soon as one
// converges. If none converge, the best-effort result closest to the goal by
// weighted pose error is returned with the children's errors merged.
func (ik *CombinedIK) Solve(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error) {
	solveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		values []float64
		err    error
	}
	results := make([]result, len(ik.solvers))

	var activeSolvers sync.WaitGroup
	for i, solver := range ik.solvers {
		i, solver := i, solver

		childSeed := append([]float64(nil), seed...)
		if i > 0 {
			//nolint:gosec
			rseed := rand.New(rand.NewSource(int64(i)))
			for j := range childSeed {
				childSeed[j] += (rseed.Float64()*2 - 1) * seedPerturbation
			}
		}

		activeSolvers.Add(1)
		utils.PanicCapturingGo(func() {
			defer activeSolvers.Done()
			values, err := solver.Solve(solveCtx, goal, childSeed)
			results[i] = result{values, err}
			if err == nil {
				cancel()
			}
		})
	}
	activeSolvers.Wait()

	var solveErrors error
	var best []float64
	bestScore := math.Inf(1)
	for _, res := range results {
		if res.err == nil {
			return res.values, nil
		}
		solveErrors = multierr.Combine(solveErrors, res.err)
		if res.values == nil {
			continue
		}
		if score := ik.goalDistance(goal, res.values); score < bestScore {
			best = res.values
			bestScore = score
		}
	}
	return best, solveErrors
}

// goalDistance is the weighted squared pose error of the end effector at the given
// joint values, used to rank best-effort candidates. Angular error is weighted
// down so a radian of orientation miss does not dominate a meter of position miss.
func (ik *CombinedIK) goalDistance(goal spatialmath.Pose, values []float64) float64 {
	if err := ik.verify.SetJointValues(values); err != nil {
		return math.Inf(1)
	}
	ik.verify.ForwardKinematics()
	current, err := ik.verify.LinkPose(ik.endEffector)
	if err != nil {
		return math.Inf(1)
	}
	delta := spatialmath.PoseDelta(current, goal)
	weights := []float64{1, 1, 1, orientationWeight, orientationWeight, orientationWeight}
	return WeightedSquaredNorm(delta, weights)
}
