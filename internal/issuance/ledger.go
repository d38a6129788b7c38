package issuance

import (
	"fmt"

	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/safemath"
)

// State tracks the cumulative issuance of the chain against its lifetime cap.
// TotalIssued <= Cap holds after every mutation; RecordIssuance is the only
// method that changes TotalIssued.
type State struct {
	TotalIssued currency.Balance
	Cap         currency.Balance
	// CapReached is set once the distribution engine has had to cap a block
	// reward. It only drives the "first" flag of the cap reached event.
	CapReached bool
}

// NewState returns a ledger for the given cap with an initial issuance.
func NewState(limit, initial currency.Balance) (State, error) {
	s := State{TotalIssued: initial, Cap: limit}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Validate checks the class invariant.
func (s State) Validate() error {
	if s.Cap.IsZero() {
		return ErrZeroCap
	}
	if s.TotalIssued.Cmp(s.Cap) > 0 {
		return fmt.Errorf("%w: issued %s, cap %s", ErrIssuedAboveCap, s.TotalIssued, s.Cap)
	}
	return nil
}

// RemainingHeadroom is the amount that may still be minted, Cap - TotalIssued.
func (s State) RemainingHeadroom() currency.Balance {
	headroom, ok := safemath.Sub128(s.Cap, s.TotalIssued)
	if !ok {
		// Only reachable if the invariant was broken by a caller constructing
		// State by hand. Nothing more may be minted in that case.
		return currency.Zero
	}
	return headroom
}

// Exhausted reports whether the cap has been fully minted.
func (s State) Exhausted() bool {
	return s.TotalIssued.Cmp(s.Cap) >= 0
}

// RecordIssuance adds amount to the total issuance. It fails, leaving the
// state untouched, when the new total would exceed the cap.
func (s *State) RecordIssuance(amount currency.Balance) error {
	total, ok := safemath.Add128(s.TotalIssued, amount)
	if !ok || total.Cmp(s.Cap) > 0 {
		return fmt.Errorf("%w: issued %s + %s, cap %s", ErrCapExceeded, s.TotalIssued, amount, s.Cap)
	}
	s.TotalIssued = total
	return nil
}

// SetCap replaces the cap. The new cap may not be below what has already been
// issued. Raising the cap above TotalIssued re-opens minting.
func (s *State) SetCap(limit currency.Balance) error {
	next := State{TotalIssued: s.TotalIssued, Cap: limit, CapReached: s.CapReached}
	if err := next.Validate(); err != nil {
		return err
	}
	if limit.Cmp(s.TotalIssued) > 0 {
		next.CapReached = false
	}
	*s = next
	return nil
}
