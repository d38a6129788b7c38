package distribution

import "errors"

// ErrInvariantViolation marks a fault that can only come from a defect in the
// engine itself. The block must be rejected.
var ErrInvariantViolation = errors.New("distribution invariant violated")
