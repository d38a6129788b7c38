package issuance

import "errors"

var (
	ErrCapExceeded    = errors.New("issuance cap exceeded")
	ErrZeroCap        = errors.New("issuance cap must be non-zero")
	ErrIssuedAboveCap = errors.New("total issued exceeds cap")
)
