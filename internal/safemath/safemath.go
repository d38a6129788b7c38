package safemath

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

var ErrOverflow = errors.New("number overflow")

// Add64 adds two 64-bit naturals, reporting false on overflow.
func Add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

// Add128 adds two 128-bit naturals, reporting false on overflow.
func Add128(a, b uint128.Uint128) (uint128.Uint128, bool) {
	lo, carry := bits.Add64(a.Lo, b.Lo, 0)
	hi, carry := bits.Add64(a.Hi, b.Hi, carry)
	return uint128.New(lo, hi), carry == 0
}

// Sub128 subtracts b from a, reporting false when b > a.
func Sub128(a, b uint128.Uint128) (uint128.Uint128, bool) {
	lo, borrow := bits.Sub64(a.Lo, b.Lo, 0)
	hi, borrow := bits.Sub64(a.Hi, b.Hi, borrow)
	return uint128.New(lo, hi), borrow == 0
}

// Mul128 multiplies two 128-bit naturals, reporting false when the product
// does not fit in 128 bits.
func Mul128(a, b uint128.Uint128) (uint128.Uint128, bool) {
	if a.Hi != 0 && b.Hi != 0 {
		return uint128.Zero, false
	}
	hi, lo := bits.Mul64(a.Lo, b.Lo)

	// At most one of the cross terms is non-zero.
	crossHi1, cross1 := bits.Mul64(a.Hi, b.Lo)
	crossHi2, cross2 := bits.Mul64(a.Lo, b.Hi)
	if crossHi1 != 0 || crossHi2 != 0 {
		return uint128.Zero, false
	}

	hi, carry := bits.Add64(hi, cross1, 0)
	if carry != 0 {
		return uint128.Zero, false
	}
	hi, carry = bits.Add64(hi, cross2, 0)
	if carry != 0 {
		return uint128.Zero, false
	}
	return uint128.New(lo, hi), true
}

// MulDiv128 computes floor(x * num / den) with a 256-bit intermediate product,
// so the multiplication itself never truncates. It reports false when den is
// zero or the quotient does not fit in 128 bits.
func MulDiv128(x uint128.Uint128, num, den uint64) (uint128.Uint128, bool) {
	if den == 0 {
		return uint128.Zero, false
	}
	wide := &uint256.Int{x.Lo, x.Hi, 0, 0}
	q, overflow := new(uint256.Int).MulDivOverflow(wide, uint256.NewInt(num), uint256.NewInt(den))
	if overflow || q[2] != 0 || q[3] != 0 {
		return uint128.Zero, false
	}
	return uint128.New(q[0], q[1]), true
}

// Min128 returns the smaller of a and b.
func Min128(a, b uint128.Uint128) uint128.Uint128 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
