package reward

import (
	"fmt"

	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/safemath"
)

// Split is the result of dividing one block's nominal reward.
type Split struct {
	Nominal   currency.Balance
	VoterPool currency.Balance // floor(Nominal * VoterShare)
	Author    currency.Balance
	PerVoter  currency.Balance // paid to every vote entry, duplicates included
	VoteCount uint64
	// Remainder is the part of VoterPool that could not be divided evenly
	// between the votes. It is not paid to anyone in this block.
	Remainder currency.Balance
}

// Calculate splits nominal between the author and voteCount vote proofs.
//
// VoterPool = floor(nominal * voterShare), Author = nominal - VoterPool,
// PerVoter = floor(VoterPool / voteCount) and Remainder = VoterPool mod voteCount.
// Without votes the author receives the whole nominal reward.
func Calculate(nominal currency.Balance, voteCount uint64, schedule Schedule) (Split, error) {
	ratio := schedule.VoterShare
	if err := ratio.Validate(); err != nil {
		return Split{}, err
	}

	pool, ok := safemath.MulDiv128(nominal, ratio.Numerator, ratio.Denominator)
	if !ok {
		return Split{}, fmt.Errorf("voter pool: %w", safemath.ErrOverflow)
	}
	author, ok := safemath.Sub128(nominal, pool)
	if !ok {
		return Split{}, fmt.Errorf("author amount: %w", safemath.ErrOverflow)
	}

	split := Split{
		Nominal:   nominal,
		VoterPool: pool,
		VoteCount: voteCount,
	}
	if voteCount == 0 {
		split.Author = nominal
		return split, nil
	}

	perVoter, rem := pool.QuoRem64(voteCount)
	split.Author = author
	split.PerVoter = perVoter
	split.Remainder = currency.FromUint64(rem)
	return split, nil
}

// VotersTotal is PerVoter * VoteCount.
func (s Split) VotersTotal() (currency.Balance, error) {
	total, ok := safemath.Mul128(s.PerVoter, currency.FromUint64(s.VoteCount))
	if !ok {
		return currency.Zero, fmt.Errorf("voters total: %w", safemath.ErrOverflow)
	}
	return total, nil
}

// Issued is the amount actually paid out by the split, Author + PerVoter * VoteCount.
func (s Split) Issued() (currency.Balance, error) {
	voters, err := s.VotersTotal()
	if err != nil {
		return currency.Zero, err
	}
	issued, ok := safemath.Add128(s.Author, voters)
	if !ok {
		return currency.Zero, fmt.Errorf("issued: %w", safemath.ErrOverflow)
	}
	return issued, nil
}
