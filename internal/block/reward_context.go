package block

// RewardContext is what the host hands to the distribution engine once per
// block. It is consumed entirely within one invocation and never persisted.
type RewardContext struct {
	Height uint64    // height of the block being produced
	Author AccountId // account credited for producing the block
	// Votes are the submitters of the already-validated vote proofs bundled in
	// the block, in block order. The same account may appear more than once,
	// every entry is paid independently.
	Votes []AccountId
}

// VoteCount is the number of vote proofs in the block.
func (c RewardContext) VoteCount() uint64 {
	return uint64(len(c.Votes))
}
