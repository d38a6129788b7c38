package block

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const AccountIdSize = 32

var ErrInvalidAccountId = errors.New("invalid account id")

// AccountId identifies a reward recipient: a block author or the submitter of
// a vote proof.
type AccountId [AccountIdSize]byte

// ParseAccountId decodes a hex encoded account id, with or without the 0x prefix.
func ParseAccountId(s string) (AccountId, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return AccountId{}, fmt.Errorf("%w: %v", ErrInvalidAccountId, err)
	}
	if len(b) != AccountIdSize {
		return AccountId{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAccountId, AccountIdSize, len(b))
	}
	return AccountId(b), nil
}

func (a AccountId) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short returns an abbreviated form for log lines.
func (a AccountId) Short() string {
	return hex.EncodeToString(a[:4])
}
