package dynamics

import (
	"math"

	"github.com/robosim-dev/robosim/kinematics"
	"github.com/robosim-dev/robosim/utils"
)

// Integrator advances joint positions and velocities by one fixed step under the
// given generalized forces. Implementations return fresh slices and never mutate
// their inputs. The limits slice, when non-nil, must have one entry per degree of
// freedom; positions clamp to it with velocity zeroed at the boundary, modeling a
// hard stop rather than a bounce. The step size dt is fixed configuration; the
// caller is responsible for accumulating wall-clock time into whole steps.
type Integrator interface {
	Step(m *Model, limits []kinematics.Limit, positions, velocities, forces []float64, dt float64) ([]float64, []float64, error)
}

// SymplecticEuler is the default fixed-step integrator: semi-implicit Euler, which
// updates velocity first and then advances position with the new velocity. It
// conserves energy well over long runs compared to explicit Euler.
type SymplecticEuler struct{}

// NewSymplecticEuler creates a semi-implicit Euler integrator.
func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

// Step advances one fixed timestep.
func (e *SymplecticEuler) Step(
	m *Model,
	limits []kinematics.Limit,
	positions, velocities, forces []float64,
	dt float64,
) ([]float64, []float64, error) {
	n := len(positions)
	acc := m.Acceleration(velocities, forces)

	nextPos := make([]float64, n)
	nextVel := make([]float64, n)
	for i := 0; i < n; i++ {
		nextVel[i] = velocities[i] + acc[i]*dt
		nextPos[i] = positions[i] + nextVel[i]*dt
	}
	if err := clampAndCheck(limits, nextPos, nextVel); err != nil {
		return nil, nil, err
	}
	return nextPos, nextVel, nil
}

// RK4 is a classic fourth-order Runge-Kutta integrator over the stacked
// position/velocity state, for callers needing higher accuracy than the default.
// Scratch buffers are reused across steps, so an RK4 value must not be shared
// between concurrent callers.
type RK4 struct {
	k1p, k2p, k3p, k4p []float64
	k1v, k2v, k3v, k4v []float64
	scratchP, scratchV []float64
}

// NewRK4 creates a fourth-order Runge-Kutta integrator.
func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1p) != n {
		r.k1p, r.k2p, r.k3p, r.k4p = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		r.k1v, r.k2v, r.k3v, r.k4v = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		r.scratchP, r.scratchV = make([]float64, n), make([]float64, n)
	}
}

// Step advances one fixed timestep.
func (r *RK4) Step(
	m *Model,
	limits []kinematics.Limit,
	positions, velocities, forces []float64,
	dt float64,
) ([]float64, []float64, error) {
	n := len(positions)
	r.ensureScratch(n)

	derive := func(vel []float64, dp, dv []float64) {
		acc := m.Acceleration(vel, forces)
		copy(dp, vel)
		copy(dv, acc)
	}

	derive(velocities, r.k1p, r.k1v)

	for i := 0; i < n; i++ {
		r.scratchV[i] = velocities[i] + dt*0.5*r.k1v[i]
	}
	derive(r.scratchV, r.k2p, r.k2v)

	for i := 0; i < n; i++ {
		r.scratchV[i] = velocities[i] + dt*0.5*r.k2v[i]
	}
	derive(r.scratchV, r.k3p, r.k3v)

	for i := 0; i < n; i++ {
		r.scratchV[i] = velocities[i] + dt*r.k3v[i]
	}
	derive(r.scratchV, r.k4p, r.k4v)

	nextPos := make([]float64, n)
	nextVel := make([]float64, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		nextPos[i] = positions[i] + dt6*(r.k1p[i]+2*r.k2p[i]+2*r.k3p[i]+r.k4p[i])
		nextVel[i] = velocities[i] + dt6*(r.k1v[i]+2*r.k2v[i]+2*r.k3v[i]+r.k4v[i])
	}
	if err := clampAndCheck(limits, nextPos, nextVel); err != nil {
		return nil, nil, err
	}
	return nextPos, nextVel, nil
}

// clampAndCheck applies joint limits with hard-stop semantics and rejects
// non-finite state.
func clampAndCheck(limits []kinematics.Limit, positions, velocities []float64) error {
	for i := range positions {
		if limits != nil {
			clamped := utils.Clamp(positions[i], limits[i].Min, limits[i].Max)
			if clamped != positions[i] {
				positions[i] = clamped
				velocities[i] = 0
			}
		}
		if !isFinite(positions[i]) || !isFinite(velocities[i]) {
			return NewNumericalInstabilityError(i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
