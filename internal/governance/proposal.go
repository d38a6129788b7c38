package governance

import (
	"fmt"
	"slices"
	"strings"

	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/reward"
	"github.com/eigerco/rewards/pkg/log"
)

// Proposal is a scheduled change of one or more reward parameters. Nil fields
// are left unchanged.
type Proposal struct {
	Seq         uint64
	ActivateAt  uint64 // first block height the change applies to
	BlockReward *currency.Balance
	VoterShare  *reward.Ratio
	Cap         *currency.Balance
}

func (p Proposal) IsEmpty() bool {
	return p.BlockReward == nil && p.VoterShare == nil && p.Cap == nil
}

// Validate checks the proposed values in isolation. Whether a cap is still
// acceptable is only known at activation.
func (p Proposal) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyProposal
	}
	if p.BlockReward != nil && p.BlockReward.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidProposal, reward.ErrZeroBlockReward)
	}
	if p.VoterShare != nil {
		if err := p.VoterShare.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProposal, err)
		}
	}
	if p.Cap != nil && p.Cap.IsZero() {
		return fmt.Errorf("%w: zero cap", ErrInvalidProposal)
	}
	return nil
}

// Summary is a human readable description used in events and logs.
func (p Proposal) Summary() string {
	var parts []string
	if p.BlockReward != nil {
		parts = append(parts, "block_reward="+p.BlockReward.String())
	}
	if p.VoterShare != nil {
		parts = append(parts, "voter_share="+p.VoterShare.String())
	}
	if p.Cap != nil {
		parts = append(parts, "cap="+p.Cap.String())
	}
	return strings.Join(parts, " ")
}

// Submit validates a proposal and inserts it into the pending list, which is
// kept ordered by activation height and then sequence number. pending is not
// modified.
func Submit(origin Origin, pending []Proposal, p Proposal, currentHeight uint64) ([]Proposal, error) {
	if !origin.IsRoot() {
		return nil, fmt.Errorf("%w: %s", ErrBadOrigin, origin)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ActivateAt <= currentHeight {
		return nil, fmt.Errorf("%w: activation %d, current %d", ErrActivationNotInFuture, p.ActivateAt, currentHeight)
	}

	out := make([]Proposal, 0, len(pending)+1)
	out = append(out, pending...)
	out = append(out, p)
	slices.SortStableFunc(out, compareProposals)

	log.Governance.Debug().
		Uint64("proposal", p.Seq).
		Uint64("activate_at", p.ActivateAt).
		Str("change", p.Summary()).
		Msg("proposal queued")
	return out, nil
}

func compareProposals(a, b Proposal) int {
	switch {
	case a.ActivateAt < b.ActivateAt:
		return -1
	case a.ActivateAt > b.ActivateAt:
		return 1
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	default:
		return 0
	}
}
