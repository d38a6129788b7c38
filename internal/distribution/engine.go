package distribution

import (
	"fmt"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/issuance"
	"github.com/eigerco/rewards/internal/remainder"
	"github.com/eigerco/rewards/internal/reward"
	"github.com/eigerco/rewards/internal/safemath"
)

// State is the consensus state touched by reward distribution. Both parts are
// updated together, once per block.
type State struct {
	Issuance  issuance.State
	Remainder remainder.State
}

// Outcome describes one block's reward cycle.
type Outcome struct {
	Nominal       currency.Balance // scheduled reward plus carried remainder
	CappedNominal currency.Balance // min(Nominal, headroom)
	Capped        bool             // CappedNominal < Nominal
	Split         reward.Split
	Issued        currency.Balance // recorded against the issuance ledger
	Credits       Credits
	Events        []event.Event
}

// Distribute runs the reward cycle of a single block and returns the
// posterior state. prior is never modified: on error the caller keeps its
// state and the block must be rejected.
//
// carry = take(); nominal = blockReward + carry; capped = min(nominal, headroom);
// split capped between author and votes; record issuance; deposit remainder;
// emit one credit for the author followed by one per vote.
//
// When the cap bites, the excess above it is discarded and the split
// remainder is paid to the author rather than carried, so nothing is carried
// across the cap boundary. A block with nothing left to mint produces no
// credits at all.
func Distribute(schedule reward.Schedule, prior State, ctx block.RewardContext) (State, Outcome, error) {
	next := prior

	carry := next.Remainder.Take()
	nominal, ok := safemath.Add128(schedule.BlockReward, carry)
	if !ok {
		return prior, Outcome{}, fmt.Errorf("nominal reward %s + carry %s: %w", schedule.BlockReward, carry, safemath.ErrOverflow)
	}

	headroom := next.Issuance.RemainingHeadroom()
	capped := safemath.Min128(nominal, headroom)
	isCapped := capped.Cmp(nominal) < 0

	split, err := reward.Calculate(capped, ctx.VoteCount(), schedule)
	if err != nil {
		return prior, Outcome{}, fmt.Errorf("calculate split: %w", err)
	}
	if isCapped && !split.Remainder.IsZero() {
		split.Author, ok = safemath.Add128(split.Author, split.Remainder)
		if !ok {
			return prior, Outcome{}, fmt.Errorf("fold remainder into author: %w", safemath.ErrOverflow)
		}
		split.Remainder = currency.Zero
	}

	issued, err := split.Issued()
	if err != nil {
		return prior, Outcome{}, err
	}
	if err := next.Issuance.RecordIssuance(issued); err != nil {
		return prior, Outcome{}, fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	next.Remainder.Deposit(split.Remainder)

	out := Outcome{
		Nominal:       nominal,
		CappedNominal: capped,
		Capped:        isCapped,
		Split:         split,
		Issued:        issued,
	}
	if !capped.IsZero() {
		out.Credits = make(Credits, 0, 1+len(ctx.Votes))
		out.Credits = append(out.Credits, CreditInstruction{Recipient: ctx.Author, Amount: split.Author, Kind: AuthorCredit})
		for _, voter := range ctx.Votes {
			out.Credits = append(out.Credits, CreditInstruction{Recipient: voter, Amount: split.PerVoter, Kind: VoteCredit})
		}
	}

	for _, ci := range out.Credits {
		out.Events = append(out.Events, event.RewardIssued{
			Height:    ctx.Height,
			Recipient: ci.Recipient,
			Amount:    ci.Amount,
			Role:      ci.Kind.role(),
		})
	}
	if isCapped {
		out.Events = append(out.Events, event.CapReached{
			Height:    ctx.Height,
			Scheduled: nominal,
			Capped:    capped,
			First:     !prior.Issuance.CapReached,
		})
		next.Issuance.CapReached = true
	}

	return next, out, nil
}
