package currency

import (
	"errors"
	"fmt"
	"strings"

	"lukechampine.com/uint128"
)

// Balance is an amount of the native currency in its smallest unit.
type Balance = uint128.Uint128

var ErrInvalidBalance = errors.New("invalid balance")

// Zero is the zero balance.
var Zero = uint128.Zero

// FromUint64 converts a uint64 into a Balance.
func FromUint64(v uint64) Balance {
	return uint128.From64(v)
}

// ParseBalance parses a base-10 string into a Balance. Underscores are
// accepted as digit separators, so "1_000_000" is valid.
func ParseBalance(s string) (Balance, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrInvalidBalance)
	}
	b, err := uint128.FromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrInvalidBalance, s, err)
	}
	return b, nil
}

// MustParseBalance is like ParseBalance but panics on error. Only meant for
// constants and tests.
func MustParseBalance(s string) Balance {
	b, err := ParseBalance(s)
	if err != nil {
		panic(err)
	}
	return b
}
