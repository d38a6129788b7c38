package distribution

import (
	"fmt"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/crypto"
	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/safemath"
	"github.com/eigerco/rewards/pkg/serialization/codec/jam"
)

// CreditKind tells whether a credit pays the block author or a vote proof.
type CreditKind uint8

const (
	AuthorCredit CreditKind = iota + 1
	VoteCredit
)

func (k CreditKind) String() string {
	switch k {
	case AuthorCredit:
		return "author"
	case VoteCredit:
		return "vote"
	default:
		return "unknown"
	}
}

func (k CreditKind) role() event.Role {
	if k == AuthorCredit {
		return event.RoleAuthor
	}
	return event.RoleVoter
}

// CreditInstruction asks the balances ledger to credit Amount to Recipient.
type CreditInstruction struct {
	Recipient block.AccountId
	Amount    currency.Balance
	Kind      CreditKind
}

// Credits is the ordered sequence of instructions produced for one block.
type Credits []CreditInstruction

// Total sums every instruction.
func (c Credits) Total() (currency.Balance, error) {
	total := currency.Zero
	for _, ci := range c {
		var ok bool
		total, ok = safemath.Add128(total, ci.Amount)
		if !ok {
			return currency.Zero, fmt.Errorf("credits total: %w", safemath.ErrOverflow)
		}
	}
	return total, nil
}

// Digest commits to the exact encoded credit sequence, two nodes agree on a
// block's rewards iff their digests match.
func (c Credits) Digest() (crypto.Hash, error) {
	if c == nil {
		c = Credits{}
	}
	b, err := jam.Marshal(c)
	if err != nil {
		return crypto.Hash{}, fmt.Errorf("encode credits: %w", err)
	}
	return crypto.HashData(b), nil
}
