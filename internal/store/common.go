package store

import "encoding/binary"

// Prefix constants for all store types
const (
	prefixState byte = iota + 1
	prefixBlockRecord
)

// PrefixToString converts a prefix byte to a string
func PrefixToString(p byte) string {
	switch p {
	case prefixState:
		return "state"
	case prefixBlockRecord:
		return "blockRecord"
	default:
		return "unknown"
	}
}

// makeKey creates a key from a prefix and payload
func makeKey(prefix byte, payload []byte) []byte {
	key := make([]byte, 1+len(payload))
	key[0] = prefix
	copy(key[1:], payload)
	return key
}

// heightKey encodes the height big-endian so records iterate in height order.
func heightKey(prefix byte, height uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return makeKey(prefix, b[:])
}
