package store

import (
	"fmt"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/crypto"
	"github.com/eigerco/rewards/internal/distribution"
	"github.com/eigerco/rewards/pkg/serialization/codec/jam"
)

// BlockRecord is the audit trail of one block's reward distribution.
type BlockRecord struct {
	Height  uint64
	Author  block.AccountId
	Credits distribution.Credits
	Digest  crypto.Hash // digest of Credits
}

// NewBlockRecord builds the record of a block and computes its digest.
func NewBlockRecord(height uint64, author block.AccountId, credits distribution.Credits) (BlockRecord, error) {
	digest, err := credits.Digest()
	if err != nil {
		return BlockRecord{}, err
	}
	return BlockRecord{Height: height, Author: author, Credits: credits, Digest: digest}, nil
}

// Verify recomputes the digest of the stored credits.
func (r BlockRecord) Verify() error {
	digest, err := r.Credits.Digest()
	if err != nil {
		return err
	}
	if digest != r.Digest {
		return fmt.Errorf("%w: height %d, stored %s, computed %s", ErrDigestMismatch, r.Height, r.Digest, digest)
	}
	return nil
}

func (r BlockRecord) Bytes() ([]byte, error) {
	return jam.Marshal(r)
}

func BlockRecordFromBytes(b []byte) (BlockRecord, error) {
	var r BlockRecord
	if err := jam.Unmarshal(b, &r); err != nil {
		return BlockRecord{}, fmt.Errorf("decode block record: %w", err)
	}
	return r, nil
}
