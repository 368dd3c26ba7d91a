package kinematics

import "github.com/pkg/errors"

// ErrInvalidJoint is returned when a joint identifier does not exist in a chain, or
// an illegal operation is attempted on a fixed joint. Check for it with errors.Is.
var ErrInvalidJoint = errors.New("invalid joint")

// NewInvalidJointError returns an error for a joint name not present in the chain.
func NewInvalidJointError(name string) error {
	return errors.Wrapf(ErrInvalidJoint, "no joint with name %q", name)
}

// NewFixedJointError returns an error for an attempt to mutate a fixed joint.
func NewFixedJointError(name string) error {
	return errors.Wrapf(ErrInvalidJoint, "joint %q is fixed and cannot be set", name)
}

// NewInvalidLinkError returns an error for a link name not present in the chain.
func NewInvalidLinkError(name string) error {
	return errors.Errorf("no link with name %q", name)
}

// NewIncorrectDoFError returns an error for a joint vector with a number of elements
// that does not match the chain's degrees of freedom.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of joint values (%d) does not match chain DoF (%d)", actual, expected)
}

// NewStalePoseCacheError returns an error for reading link poses before forward
// kinematics has been run against the current joint values.
func NewStalePoseCacheError() error {
	return errors.New("link pose cache is stale; run ForwardKinematics after changing joint values")
}
