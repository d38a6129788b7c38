package jam

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// encodeNatural implements the general compact natural encoding. Values below
// 2^(7(l+1)) use l trailing little-endian bytes, whose count is carried in the
// leading one bits of the prefix byte; everything else takes the 9-byte form.
func encodeNatural(x uint64) []byte {
	var l int
	for l = 0; l < 8; l++ {
		if x < 1<<(7*(l+1)) {
			break
		}
	}
	if l == 8 {
		out := make([]byte, 9)
		out[0] = math.MaxUint8
		binary.LittleEndian.PutUint64(out[1:], x)
		return out
	}

	out := make([]byte, 1+l)
	prefix := 256 - (1 << (8 - l)) + int(x>>(8*l))
	out[0] = byte(prefix)
	for i := 0; i < l; i++ {
		out[1+i] = byte(x >> (8 * i))
	}
	return out
}

// naturalLength returns the number of bytes following the given prefix.
func naturalLength(prefix byte) int {
	return bits.LeadingZeros8(^prefix)
}

// decodeNatural is the inverse of encodeNatural. serialized holds the prefix
// byte followed by exactly naturalLength(prefix) bytes.
func decodeNatural(serialized []byte) (uint64, error) {
	if len(serialized) == 0 {
		return 0, nil
	}
	l := naturalLength(serialized[0])
	if l == 8 {
		if serialized[0] != math.MaxUint8 || len(serialized) < 9 {
			return 0, ErrNonCanonicalNine
		}
		return binary.LittleEndian.Uint64(serialized[1:9]), nil
	}

	var x uint64
	for i := 0; i < l; i++ {
		x |= uint64(serialized[1+i]) << (8 * i)
	}
	x |= uint64(serialized[0]&(math.MaxUint8>>l)) << (8 * l)
	return x, nil
}

// encodeFixed writes the l low bytes of x in little-endian order.
func encodeFixed(x uint64, l uint) []byte {
	out := make([]byte, l)
	for i := uint(0); i < l && i < 8; i++ {
		out[i] = byte(x >> (8 * i))
	}
	return out
}

func decodeFixed(b []byte) uint64 {
	var x uint64
	for i := 0; i < len(b) && i < 8; i++ {
		x |= uint64(b[i]) << (8 * i)
	}
	return x
}
