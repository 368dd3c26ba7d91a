package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// quaternion is an orientation in quaternion representation.
type quaternion quat.Number

// degenerateNormEpsilon is the magnitude below which a quaternion cannot be safely
// normalized into a unit rotation.
const degenerateNormEpsilon = 1e-10

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *quaternion) AxisAngles() *R4AA {
	return QuatToR4AA(q.Quaternion())
}

// EulerAngles returns orientation in Euler angle representation.
func (q *quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(q.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

// normalizeQuat scales a quaternion to unit magnitude, returning a
// DegenerateRotationError if the magnitude is too close to zero.
func normalizeQuat(q quat.Number) (quat.Number, error) {
	norm := quat.Abs(q)
	if norm < degenerateNormEpsilon {
		return quat.Number{}, NewDegenerateRotationError(norm)
	}
	return quat.Scale(1/norm, q), nil
}

// forceNormalizeQuat scales a quaternion to unit magnitude. It is used after
// composing two unit quaternions, where the result can drift from unit magnitude by
// floating point error but can never be degenerate.
func forceNormalizeQuat(q quat.Number) quat.Number {
	return quat.Scale(1/quat.Abs(q), q)
}

// QuaternionAlmostEqual checks whether two quaternions represent the same rotation
// to within the given tolerance. Since q and -q represent the same rotation, both
// signs are checked.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	diff := quat.Sub(a, b)
	sum := quat.Add(a, b)
	return quat.Abs(diff) < tol || quat.Abs(sum) < tol
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen
// library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) *R4AA {
	denom := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return &R4AA{angle, 1, 0, 0}
	}
	return &R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// QuatToEulerAngles converts a quaternion to the euler angle representation. The
// angles are Tait-Bryan ZYX, i.e. yaw is applied first, then pitch, then roll.
func QuatToEulerAngles(q quat.Number) *EulerAngles {
	ea := &EulerAngles{}

	// roll (x-axis rotation)
	sinrCosp := 2 * (q.Real*q.Imag + q.Jmag*q.Kmag)
	cosrCosp := 1 - 2*(q.Imag*q.Imag+q.Jmag*q.Jmag)
	ea.Roll = math.Atan2(sinrCosp, cosrCosp)

	// pitch (y-axis rotation)
	sinp := 2 * (q.Real*q.Jmag - q.Kmag*q.Imag)
	if math.Abs(sinp) >= 1 {
		// out of range, use 90 degrees
		ea.Pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		ea.Pitch = math.Asin(sinp)
	}

	// yaw (z-axis rotation)
	sinyCosp := 2 * (q.Real*q.Kmag + q.Imag*q.Jmag)
	cosyCosp := 1 - 2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag)
	ea.Yaw = math.Atan2(sinyCosp, cosyCosp)

	return ea
}

// slerp performs spherical linear interpolation between two unit quaternions along
// the shortest rotational path.
func slerp(qN1, qN2 quat.Number, by float64) quat.Number {
	dot := qN1.Real*qN2.Real + qN1.Imag*qN2.Imag + qN1.Jmag*qN2.Jmag + qN1.Kmag*qN2.Kmag

	// q and -q represent the same rotation; flip to take the short way around.
	if dot < 0 {
		qN2 = quat.Scale(-1, qN2)
		dot = -dot
	}

	// For nearly identical rotations fall back to linear interpolation to avoid
	// dividing by a vanishing sine.
	if dot > 0.9995 {
		lerped := quat.Add(quat.Scale(1-by, qN1), quat.Scale(by, qN2))
		return forceNormalizeQuat(lerped)
	}

	theta0 := math.Acos(dot)
	theta := theta0 * by
	sinTheta0 := math.Sin(theta0)

	s1 := math.Sin(theta0-theta) / sinTheta0
	s2 := math.Sin(theta) / sinTheta0
	return quat.Add(quat.Scale(s1, qN1), quat.Scale(s2, qN2))
}
