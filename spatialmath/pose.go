package spatialmath

import (
	"github.com/golang/geo/r3"

	"github.com/robosim-dev/robosim/utils"
)

// Tolerances for treating two poses as equal: positions within defaultPosEpsilon
// of each other, orientations within defaultOrnEpsilon.
const (
	defaultPosEpsilon = 1e-9
	defaultOrnEpsilon = 1e-6
)

// Pose represents a 6dof pose, position and orientation, of an object or a frame of
// reference. By convention, when converted to a transformation, the rotation is
// applied first, then the translation.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with the same orientation as whatever frame
// it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	q := newDualQuaternionFromRotation(o)
	q.SetTranslation(p.X, p.Y, p.Z)
	return q
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector. It will
// have the same orientation as the frame it is in reference to.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.SetTranslation(point.X, point.Y, point.Z)
	return q
}

// NewPoseFromOrientation takes in an orientation and returns a Pose with
// that orientation and no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	if o == nil {
		return NewZeroPose()
	}
	return newDualQuaternionFromRotation(o)
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function
// C(x) = A(B(x)): the pose of B expressed in A's parent frame. The rotation is
// re-normalized after every composition to prevent drift.
func Compose(a, b Pose) Pose {
	aq := newDualQuaternionFromPose(a)
	result := &dualQuaternion{aq.Transformation(newDualQuaternionFromPose(b).Number)}
	return result
}

// PoseInverse returns the pose which, when composed with the given pose, produces
// the identity pose.
func PoseInverse(p Pose) Pose {
	return newDualQuaternionFromPose(p).Invert()
}

// Interpolate will return a new Pose that is the interpolated pose between the two
// given poses. Position blends linearly and orientation travels the shortest
// rotational path (spherical interpolation). The by parameter is a float between
// 0 and 1: 0 will return the first pose, 1 the second, 0.5 the pose halfway
// between them, and so on.
func Interpolate(p1, p2 Pose, by float64) Pose {
	intQ := newDualQuaternion()
	intQ.Real = slerp(p1.Orientation().Quaternion(), p2.Orientation().Quaternion(), by)

	pt1 := p1.Point()
	pt2 := p2.Point()
	intQ.SetTranslation(
		pt1.X+(pt2.X-pt1.X)*by,
		pt1.Y+(pt2.Y-pt1.Y)*by,
		pt1.Z+(pt2.Z-pt1.Z)*by,
	)
	return intQ
}

// PoseDelta returns the difference between two poses as a 6-vector: the position
// delta followed by the minimal rotation from a to b in R3 axis angle
// representation. We use axis angle for the rotational portion because distances
// are well-defined there.
func PoseDelta(a, b Pose) []float64 {
	ret := make([]float64, 6)

	aPt := a.Point()
	bPt := b.Point()
	ret[0] = bPt.X - aPt.X
	ret[1] = bPt.Y - aPt.Y
	ret[2] = bPt.Z - aPt.Z

	aa := OrientationBetween(a.Orientation(), b.Orientation()).AxisAngles().ToR3()
	ret[3] = aa.X
	ret[4] = aa.Y
	ret[5] = aa.Z
	return ret
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately
// the same, within the default positional and angular tolerances.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, defaultPosEpsilon, defaultOrnEpsilon)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are
// approximately the same, within the given positional and angular tolerances.
func PoseAlmostEqualEps(a, b Pose, posEpsilon, ornEpsilon float64) bool {
	aPt := a.Point()
	bPt := b.Point()
	if !utils.Float64AlmostEqual(aPt.X, bPt.X, posEpsilon) ||
		!utils.Float64AlmostEqual(aPt.Y, bPt.Y, posEpsilon) ||
		!utils.Float64AlmostEqual(aPt.Z, bPt.Z, posEpsilon) {
		return false
	}
	return QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), ornEpsilon)
}
