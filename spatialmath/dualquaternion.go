package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// dualQuaternion defines functions to perform rigid transformations in 3D. The real
// part is a unit quaternion holding the rotation, and the dual part encodes the
// translation against it.
type dualQuaternion struct {
	dualquat.Number
}

// newDualQuaternion returns a pointer to a new dualQuaternion object whose rotation
// is an identity quaternion. Since the real part of a dual quaternion should be a
// unit quaternion, not all zeroes, this should be used instead of &dualQuaternion{}.
func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromRotation returns a pointer to a new dualQuaternion object
// with the given rotation and no translation.
func newDualQuaternionFromRotation(o Orientation) *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: o.Quaternion(),
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromPose takes any Pose and converts it to the dual quaternion
// representation, copying rather than referencing the original.
func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q.Clone()
	}
	q := newDualQuaternionFromRotation(p.Orientation())
	pt := p.Point()
	q.SetTranslation(pt.X, pt.Y, pt.Z)
	return q
}

// Clone returns a dualQuaternion object identical to this one.
func (q *dualQuaternion) Clone() *dualQuaternion {
	// No need for deep copies here, dual quaternions are primitives all the way down
	return &dualQuaternion{q.Number}
}

// Point returns the xyz translation encoded in the dual quaternion.
func (q *dualQuaternion) Point() r3.Vector {
	tq := dualquat.Mul(q.Number, dualquat.Conj(q.Number))
	return r3.Vector{X: tq.Dual.Imag, Y: tq.Dual.Jmag, Z: tq.Dual.Kmag}
}

// Orientation returns the rotation encoded in the dual quaternion.
func (q *dualQuaternion) Orientation() Orientation {
	o := quaternion(q.Real)
	return &o
}

// SetTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) SetTranslation(x, y, z float64) {
	q.Dual = quat.Number{Imag: x / 2, Jmag: y / 2, Kmag: z / 2}
	q.rotate()
}

// rotate multiplies the dual part of the quaternion by the real part to give the
// correct rotation.
func (q *dualQuaternion) rotate() {
	q.Dual = quat.Mul(q.Dual, q.Real)
}

// Invert returns a dualQuaternion representing the opposite transformation. In other
// words, transforming by q and then by q.Invert() yields the identity transform.
func (q *dualQuaternion) Invert() *dualQuaternion {
	return &dualQuaternion{dualquat.ConjQuat(q.Number)}
}

// Transformation multiplies the dual quat contained in this dualQuaternion by
// another dual quat, renormalizing the real part to keep composition chains from
// drifting off the unit sphere.
func (q *dualQuaternion) Transformation(by dualquat.Number) dualquat.Number {
	result := dualquat.Mul(q.Number, by)
	if vecLen := quat.Abs(result.Real); vecLen != 1 {
		result.Real = quat.Scale(1/vecLen, result.Real)
	}
	return result
}
