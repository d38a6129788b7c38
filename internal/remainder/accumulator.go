package remainder

import "github.com/eigerco/rewards/internal/currency"

// State holds currency units that were computed for a block but could not be
// assigned to any recipient because of integer division. The carry is folded
// into the next block's nominal reward.
type State struct {
	Carry currency.Balance
}

// Take returns the stored carry and resets it to zero.
func (s *State) Take() currency.Balance {
	carry := s.Carry
	s.Carry = currency.Zero
	return carry
}

// Deposit stores the remainder of the current block's split, replacing any
// previous value.
func (s *State) Deposit(remainder currency.Balance) {
	s.Carry = remainder
}

// Peek returns the stored carry without consuming it.
func (s State) Peek() currency.Balance {
	return s.Carry
}
