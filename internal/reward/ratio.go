package reward

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Ratio is an exact rational in [0, 1]. Shares are kept as fractions so every
// node derives the same split without any floating point.
type Ratio struct {
	Numerator   uint64
	Denominator uint64
}

// NewRatio builds a ratio and validates it.
func NewRatio(numerator, denominator uint64) (Ratio, error) {
	r := Ratio{Numerator: numerator, Denominator: denominator}
	if err := r.Validate(); err != nil {
		return Ratio{}, err
	}
	return r, nil
}

// MustRatio is like NewRatio but panics on an invalid ratio.
func MustRatio(numerator, denominator uint64) Ratio {
	r, err := NewRatio(numerator, denominator)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Ratio) Validate() error {
	if r.Denominator == 0 {
		return fmt.Errorf("%w: zero denominator", ErrInvalidRatio)
	}
	if r.Numerator > r.Denominator {
		return fmt.Errorf("%w: %s is greater than one", ErrInvalidRatio, r)
	}
	return nil
}

// Complement returns 1 - r.
func (r Ratio) Complement() Ratio {
	return Ratio{Numerator: r.Denominator - r.Numerator, Denominator: r.Denominator}
}

func (r Ratio) IsZero() bool {
	return r.Numerator == 0
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Decimal renders the ratio as a decimal, for display only.
func (r Ratio) Decimal() decimal.Decimal {
	if r.Denominator == 0 {
		return decimal.Zero
	}
	return decimal.NewFromUint64(r.Numerator).Div(decimal.NewFromUint64(r.Denominator))
}

// ParseRatio accepts either an exact decimal ("0.31", "3.1e-1") or a fraction
// ("31/100"). The result is reduced to lowest terms.
func ParseRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	var rat *big.Rat
	if strings.Contains(s, "/") {
		var ok bool
		rat, ok = new(big.Rat).SetString(s)
		if !ok {
			return Ratio{}, fmt.Errorf("%w: cannot parse fraction %q", ErrInvalidRatio, s)
		}
	} else {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Ratio{}, fmt.Errorf("%w: %v", ErrInvalidRatio, err)
		}
		rat = d.Rat()
	}
	if rat.Sign() < 0 {
		return Ratio{}, fmt.Errorf("%w: %q is negative", ErrInvalidRatio, s)
	}
	if !rat.Num().IsUint64() || !rat.Denom().IsUint64() {
		return Ratio{}, fmt.Errorf("%w: %q does not fit in 64-bit terms", ErrInvalidRatio, s)
	}
	return NewRatio(rat.Num().Uint64(), rat.Denom().Uint64())
}
