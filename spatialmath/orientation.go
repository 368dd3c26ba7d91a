// Package spatialmath defines spatial mathematical operations.
package spatialmath

import (
	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of the
// orientation of a rigid object or a frame of reference in 3D Euclidean space.
type Orientation interface {
	AxisAngles() *R4AA
	Quaternion() quat.Number
	EulerAngles() *EulerAngles
	RotationMatrix() *RotationMatrix
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{1, 0, 0, 0}
}

// NewOrientationFromQuaternion returns an orientation from the given quaternion after
// normalizing it. It returns a DegenerateRotationError if the quaternion's magnitude
// is too close to zero to normalize.
func NewOrientationFromQuaternion(q quat.Number) (Orientation, error) {
	normed, err := normalizeQuat(q)
	if err != nil {
		return nil, err
	}
	o := quaternion(normed)
	return &o, nil
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are
// approximately the same.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// OrientationBetween returns the orientation representing the difference between the
// two given Orientations.
func OrientationBetween(o1, o2 Orientation) Orientation {
	q := quaternion(quat.Mul(o2.Quaternion(), quat.Conj(o1.Quaternion())))
	return &q
}

// OrientationInverse returns the orientation representing the inverse rotation of the
// given Orientation.
func OrientationInverse(o Orientation) Orientation {
	q := quaternion(quat.Conj(o.Quaternion()))
	return &q
}
