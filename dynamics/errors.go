package dynamics

import "github.com/pkg/errors"

// ErrNumericalInstability is returned when integration produces a non-finite joint
// position or velocity, usually from a bad input force. Check for it with
// errors.Is.
var ErrNumericalInstability = errors.New("numerical instability")

// NewNumericalInstabilityError returns an error identifying the joint index whose
// state became non-finite.
func NewNumericalInstabilityError(joint int) error {
	return errors.Wrapf(ErrNumericalInstability, "non-finite state at joint index %d after integration", joint)
}
