package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Link is a rigid body in a kinematic chain. It carries a mass, a 3x3 inertia
// tensor about its centroid, and the centroid's offset in the link's own frame.
// A link is owned by exactly one position in a chain's tree.
type Link struct {
	name     string
	mass     float64
	inertia  mgl64.Mat3
	centroid r3.Vector
}

// NewLink creates a rigid body from its name, mass, row-major 3x3 inertia tensor,
// and centroid offset. A nil inertia slice is treated as a zero tensor.
func NewLink(name string, mass float64, inertia []float64, centroid r3.Vector) (*Link, error) {
	if mass < 0 {
		return nil, errors.Errorf("link %q cannot have negative mass %f", name, mass)
	}
	l := &Link{name: name, mass: mass, centroid: centroid}
	if inertia != nil {
		if len(inertia) != 9 {
			return nil, errors.Errorf("link %q inertia tensor needs 9 values, got %d", name, len(inertia))
		}
		// mgl64 matrices are column major; inertia tensors are symmetric so the
		// transpose is harmless, but keep the conversion explicit.
		l.inertia = mgl64.Mat3FromRows(
			mgl64.Vec3{inertia[0], inertia[1], inertia[2]},
			mgl64.Vec3{inertia[3], inertia[4], inertia[5]},
			mgl64.Vec3{inertia[6], inertia[7], inertia[8]},
		)
	}
	return l, nil
}

// Name returns the name of the link.
func (l *Link) Name() string {
	return l.name
}

// Mass returns the link's mass.
func (l *Link) Mass() float64 {
	return l.mass
}

// Inertia returns the link's inertia tensor about its centroid.
func (l *Link) Inertia() mgl64.Mat3 {
	return l.inertia
}

// Centroid returns the offset of the link's center of mass in its own frame.
func (l *Link) Centroid() r3.Vector {
	return l.centroid
}
