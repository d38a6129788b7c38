package governance

import "errors"

var (
	ErrBadOrigin             = errors.New("origin is not allowed to change reward parameters")
	ErrEmptyProposal         = errors.New("proposal changes nothing")
	ErrActivationNotInFuture = errors.New("activation height must be after the current height")
	ErrInvalidProposal       = errors.New("invalid proposal")
	ErrCapBelowIssued        = errors.New("cap is below the amount already issued")
)
