// Package dynamics advances joint-space state under applied generalized forces
// using fixed-step numerical integration.
package dynamics

import (
	"github.com/pkg/errors"

	"github.com/robosim-dev/robosim/kinematics"
)

// Model is a lumped joint-space dynamics model: each degree of freedom carries an
// effective inertia and a viscous damping coefficient. Acceleration under a
// generalized force u is (u - damping*velocity) / inertia per joint.
type Model struct {
	inertia []float64
	damping []float64
}

// NewModel creates a model from per-joint effective inertias and damping
// coefficients. Every inertia must be positive and damping non-negative.
func NewModel(inertia, damping []float64) (*Model, error) {
	if len(inertia) != len(damping) {
		return nil, errors.Errorf("inertia and damping lengths differ (%d vs %d)", len(inertia), len(damping))
	}
	for i, in := range inertia {
		if in <= 0 {
			return nil, errors.Errorf("effective inertia at joint index %d must be positive, got %f", i, in)
		}
		if damping[i] < 0 {
			return nil, errors.Errorf("damping at joint index %d cannot be negative, got %f", i, damping[i])
		}
	}
	return &Model{
		inertia: append([]float64(nil), inertia...),
		damping: append([]float64(nil), damping...),
	}, nil
}

// ModelFromChain builds an undamped model from a chain, lumping the mass of every
// link at or below each movable joint into that joint's effective inertia. This is
// a coarse approximation that ignores configuration dependence, suitable for the
// fixed-step integrators in this package.
func ModelFromChain(chain *kinematics.Chain) (*Model, error) {
	names := chain.JointNames()
	inertia := make([]float64, len(names))
	damping := make([]float64, len(names))

	// A link's mass contributes to every movable joint on its root path.
	for i, jointName := range names {
		total := 0.0
		for _, linkName := range chain.LinkNames() {
			onPath, err := jointOnPath(chain, linkName, jointName)
			if err != nil {
				return nil, err
			}
			if onPath {
				link, err := chain.Link(linkName)
				if err != nil {
					return nil, err
				}
				total += link.Mass()
			}
		}
		if total <= 0 {
			// Massless subtrees still need inertia for the math to stay finite.
			total = 1
		}
		inertia[i] = total
	}
	return NewModel(inertia, damping)
}

func jointOnPath(chain *kinematics.Chain, linkName, jointName string) (bool, error) {
	path, err := chain.PathJoints(linkName)
	if err != nil {
		return false, err
	}
	for _, name := range path {
		if name == jointName {
			return true, nil
		}
	}
	return false, nil
}

// WithDamping returns a copy of the model using the given per-joint viscous
// damping coefficients.
func (m *Model) WithDamping(damping []float64) (*Model, error) {
	return NewModel(m.inertia, damping)
}

// DoF returns the number of degrees of freedom the model covers.
func (m *Model) DoF() int {
	return len(m.inertia)
}

// Acceleration returns the per-joint acceleration under the given velocities and
// generalized forces.
func (m *Model) Acceleration(velocities, forces []float64) []float64 {
	acc := make([]float64, len(m.inertia))
	for i := range acc {
		acc[i] = (forces[i] - m.damping[i]*velocities[i]) / m.inertia[i]
	}
	return acc
}
