package ik

import "github.com/pkg/errors"

// ErrConvergence is returned when the solver exhausts its iteration bound without
// reaching the goal tolerances. It is non-fatal: the best-effort joint vector is
// returned alongside it, and the caller may retry with a different seed or relaxed
// tolerances. Check for it with errors.Is.
var ErrConvergence = errors.New("solver did not converge")

// NewConvergenceError returns an error describing a solve that ran out of
// iterations, with the remaining position and orientation errors.
func NewConvergenceError(iterations int, posErr, ornErr float64) error {
	return errors.Wrapf(ErrConvergence,
		"after %d iterations (position error %.3e, orientation error %.3e)", iterations, posErr, ornErr)
}
