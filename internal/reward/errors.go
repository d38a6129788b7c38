package reward

import "errors"

var (
	ErrInvalidRatio    = errors.New("invalid ratio")
	ErrZeroBlockReward = errors.New("block reward must be non-zero")
)
