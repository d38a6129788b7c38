package reward

import (
	"fmt"

	"github.com/eigerco/rewards/internal/currency"
)

// Schedule is the reward configuration set at genesis. It only changes through
// a governed parameter change.
type Schedule struct {
	BlockReward currency.Balance // minted per block before cap and remainder adjustments
	VoterShare  Ratio            // fraction of the nominal reward reserved for vote proofs
}

func (s Schedule) Validate() error {
	if s.BlockReward.IsZero() {
		return ErrZeroBlockReward
	}
	if err := s.VoterShare.Validate(); err != nil {
		return fmt.Errorf("voter share: %w", err)
	}
	return nil
}

// AuthorShare is the fraction of the nominal reward kept by the block author
// when votes are present. It always sums to one with VoterShare.
func (s Schedule) AuthorShare() Ratio {
	return s.VoterShare.Complement()
}
