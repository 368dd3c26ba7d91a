package spatialmath

import "github.com/pkg/errors"

// ErrDegenerateRotation is returned when an orientation's magnitude is too close to
// zero to be normalized into a unit rotation.
var ErrDegenerateRotation = errors.New("degenerate rotation")

// NewDegenerateRotationError returns an error for an orientation whose magnitude is
// too close to zero to normalize.
func NewDegenerateRotationError(norm float64) error {
	return errors.Wrapf(ErrDegenerateRotation, "orientation magnitude %.3e is too close to zero to normalize", norm)
}

// newRotationMatrixInputError returns an error for a rotation matrix constructed
// from a slice of the wrong length.
func newRotationMatrixInputError(length int) error {
	return errors.Errorf("expected 9 values for a rotation matrix, got %d", length)
}
