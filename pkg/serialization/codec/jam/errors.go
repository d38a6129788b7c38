package jam

import (
	"errors"
)

var (
	ErrInvalidPointer   = errors.New("invalid pointer marker")
	ErrDecodingBool     = errors.New("error decoding boolean")
	ErrLengthTooLarge   = errors.New("length prefix exceeds max value of uint32")
	ErrNonCanonicalNine = errors.New("expected first byte to be 255 for 9-byte serialization")
	ErrTrailingBytes    = errors.New("trailing bytes after decoded value")

	ErrUnsupportedType     = "unsupported type: %v"
	ErrReadingBytes        = "error reading bytes: %w"
	ErrEncodingStructField = "encoding struct field '%s': %w"
	ErrDecodingStructField = "decoding struct field '%s': %w"
	ErrInvalidLengthValue  = "invalid length tag on field '%s': %w"
	ErrCompactField        = "compact encoding is not supported for field kind %v"
)
