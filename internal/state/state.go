// Package state holds the persisted reward state of the chain.
package state

import (
	"errors"
	"fmt"

	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/distribution"
	"github.com/eigerco/rewards/internal/governance"
	"github.com/eigerco/rewards/internal/issuance"
	"github.com/eigerco/rewards/internal/remainder"
	"github.com/eigerco/rewards/internal/reward"
	"github.com/eigerco/rewards/internal/safemath"
	"github.com/eigerco/rewards/pkg/serialization/codec/jam"
)

var ErrInvalidState = errors.New("invalid reward state")

// State is everything the host persists between blocks.
type State struct {
	Height          uint64           // height of the last block whose rewards were distributed
	GenesisIssuance currency.Balance // issuance minted outside of block rewards at genesis
	Schedule        reward.Schedule
	Issuance        issuance.State
	Remainder       remainder.State
	Pending         []governance.Proposal
	NextProposalSeq uint64
}

// Distribution returns the part of the state the distribution engine works on.
func (s State) Distribution() distribution.State {
	return distribution.State{Issuance: s.Issuance, Remainder: s.Remainder}
}

// WithDistribution returns a copy of s carrying the engine's posterior state.
func (s State) WithDistribution(d distribution.State) State {
	s.Issuance = d.Issuance
	s.Remainder = d.Remainder
	return s
}

// Clone returns a deep copy.
func (s State) Clone() State {
	if s.Pending != nil {
		pending := make([]governance.Proposal, len(s.Pending))
		copy(pending, s.Pending)
		s.Pending = pending
	}
	return s
}

func (s State) Validate() error {
	if err := s.Schedule.Validate(); err != nil {
		return fmt.Errorf("%w: schedule: %w", ErrInvalidState, err)
	}
	if err := s.Issuance.Validate(); err != nil {
		return fmt.Errorf("%w: issuance: %w", ErrInvalidState, err)
	}
	if s.GenesisIssuance.Cmp(s.Issuance.TotalIssued) > 0 {
		return fmt.Errorf("%w: genesis issuance %s above total issued %s", ErrInvalidState, s.GenesisIssuance, s.Issuance.TotalIssued)
	}
	return nil
}

// BlockRewardIssued is the amount minted through block rewards since genesis.
func (s State) BlockRewardIssued() currency.Balance {
	minted, ok := safemath.Sub128(s.Issuance.TotalIssued, s.GenesisIssuance)
	if !ok {
		return currency.Zero
	}
	return minted
}

func (s State) Bytes() ([]byte, error) {
	return jam.Marshal(s)
}

func FromBytes(b []byte) (State, error) {
	var s State
	if err := jam.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}
