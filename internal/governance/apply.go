package governance

import (
	"fmt"

	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/issuance"
	"github.com/eigerco/rewards/internal/reward"
	"github.com/eigerco/rewards/pkg/log"
)

// Result is the parameter state after the proposals due at a height were
// applied.
type Result struct {
	Schedule reward.Schedule
	Issuance issuance.State
	Pending  []Proposal // proposals that are not due yet
	Applied  []Proposal
	Rejected []Rejection
	Events   []event.Event
}

// Rejection is a due proposal that could not be enacted.
type Rejection struct {
	Proposal Proposal
	Err      error
}

// Apply enacts, in order, every pending proposal with ActivateAt <= height.
// It runs before the distribution of that block, so the block already uses
// the new parameters. A proposal is applied entirely or not at all: one whose
// cap would fall below the issued amount is dropped with a ChangeRejected
// event and leaves every parameter untouched.
func Apply(height uint64, schedule reward.Schedule, ledger issuance.State, pending []Proposal) Result {
	res := Result{Schedule: schedule, Issuance: ledger}

	for _, p := range pending {
		if p.ActivateAt > height {
			res.Pending = append(res.Pending, p)
			continue
		}

		nextSchedule, nextLedger, err := enact(p, res.Schedule, res.Issuance)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Proposal: p, Err: err})
			res.Events = append(res.Events, event.ChangeRejected{Height: height, ProposalSeq: p.Seq, Reason: err.Error()})
			continue
		}

		res.Schedule, res.Issuance = nextSchedule, nextLedger
		res.Applied = append(res.Applied, p)
		res.Events = append(res.Events, event.ScheduleChanged{Height: height, ProposalSeq: p.Seq, Summary: p.Summary()})
	}
	return res
}

// Log reports the outcome of Apply. Callers invoke it once the block the
// result belongs to has been committed.
func (r Result) Log(height uint64) {
	for _, p := range r.Applied {
		log.Governance.Info().
			Uint64("proposal", p.Seq).
			Uint64("height", height).
			Str("change", p.Summary()).
			Msg("parameters changed")
	}
	for _, rj := range r.Rejected {
		log.Governance.Warn().
			Err(rj.Err).
			Uint64("proposal", rj.Proposal.Seq).
			Uint64("height", height).
			Msg("proposal rejected at activation")
	}
}

func enact(p Proposal, schedule reward.Schedule, ledger issuance.State) (reward.Schedule, issuance.State, error) {
	if err := p.Validate(); err != nil {
		return schedule, ledger, err
	}
	if p.BlockReward != nil {
		schedule.BlockReward = *p.BlockReward
	}
	if p.VoterShare != nil {
		schedule.VoterShare = *p.VoterShare
	}
	if err := schedule.Validate(); err != nil {
		return schedule, ledger, fmt.Errorf("%w: %w", ErrInvalidProposal, err)
	}
	if p.Cap != nil {
		if p.Cap.Cmp(ledger.TotalIssued) < 0 {
			return schedule, ledger, fmt.Errorf("%w: cap %s, issued %s", ErrCapBelowIssued, p.Cap, ledger.TotalIssued)
		}
		if err := ledger.SetCap(*p.Cap); err != nil {
			return schedule, ledger, err
		}
	}
	return schedule, ledger, nil
}
