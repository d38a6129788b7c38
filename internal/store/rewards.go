package store

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/eigerco/rewards/internal/state"
	"github.com/eigerco/rewards/pkg/db"
	"github.com/eigerco/rewards/pkg/db/pebble"
	"github.com/eigerco/rewards/pkg/log"
)

var (
	ErrStateNotFound  = errors.New("reward state not found")
	ErrRecordNotFound = errors.New("block record not found")
	ErrStoreClosed    = errors.New("rewards store is closed")
	ErrDigestMismatch = errors.New("block record digest mismatch")
)

// Rewards persists the reward state and the per-block records.
type Rewards struct {
	db     db.KVStore
	closed atomic.Bool
}

// NewRewards creates a rewards store on top of a KVStore
func NewRewards(db db.KVStore) *Rewards {
	return &Rewards{db: db}
}

// State returns the latest committed state.
func (r *Rewards) State() (state.State, error) {
	if r.closed.Load() {
		return state.State{}, ErrStoreClosed
	}

	b, err := r.db.Get([]byte{prefixState})
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return state.State{}, ErrStateNotFound
		}
		return state.State{}, fmt.Errorf("get state: %w", err)
	}
	return state.FromBytes(b)
}

// HasState reports whether a state was ever committed.
func (r *Rewards) HasState() (bool, error) {
	_, err := r.State()
	if errors.Is(err, ErrStateNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PutState overwrites the state on its own, e.g. at genesis or when a
// governance proposal is queued.
func (r *Rewards) PutState(s state.State) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}

	b, err := s.Bytes()
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := r.db.Put([]byte{prefixState}, b); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

// Commit stores the posterior state of a block together with its record. Both
// become visible atomically.
func (r *Rewards) Commit(s state.State, record BlockRecord) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	if s.Height != record.Height {
		return fmt.Errorf("state height %d does not match record height %d", s.Height, record.Height)
	}

	// Create new batch for atomic operations
	batch := r.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	stateBytes, err := s.Bytes()
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	recordBytes, err := record.Bytes()
	if err != nil {
		return fmt.Errorf("marshal block record: %w", err)
	}

	if err := batch.Put([]byte{prefixState}, stateBytes); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	if err := batch.Put(heightKey(prefixBlockRecord, record.Height), recordBytes); err != nil {
		return fmt.Errorf("store block record: %w", err)
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	log.Store.Debug().
		Uint64("height", record.Height).
		Int("credits", len(record.Credits)).
		Stringer("digest", record.Digest).
		Msg("block committed")
	return nil
}

// BlockRecord retrieves the record of the block at height.
func (r *Rewards) BlockRecord(height uint64) (BlockRecord, error) {
	if r.closed.Load() {
		return BlockRecord{}, ErrStoreClosed
	}

	b, err := r.db.Get(heightKey(prefixBlockRecord, height))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return BlockRecord{}, ErrRecordNotFound
		}
		return BlockRecord{}, fmt.Errorf("get block record: %w", err)
	}
	return BlockRecordFromBytes(b)
}

// BlockRecords returns the records with from <= height <= to in height order.
// Missing heights are skipped.
func (r *Rewards) BlockRecords(from, to uint64) ([]BlockRecord, error) {
	if r.closed.Load() {
		return nil, ErrStoreClosed
	}
	if from > to {
		return nil, nil
	}

	end := []byte{prefixBlockRecord + 1}
	if to < ^uint64(0) {
		end = heightKey(prefixBlockRecord, to+1)
	}
	iter, err := r.db.NewIterator(heightKey(prefixBlockRecord, from), end)
	if err != nil {
		return nil, fmt.Errorf("create iterator: %w", err)
	}
	defer iter.Close() //nolint:errcheck

	var records []BlockRecord
	for iter.Next() {
		b, err := iter.Value()
		if err != nil {
			return nil, fmt.Errorf("read block record value from iterator: %w", err)
		}
		rec, err := BlockRecordFromBytes(b)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate block records: %w", err)
	}
	return records, nil
}

// Close closes the rewards store and the underlying KVStore.
func (r *Rewards) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.db.Close()
}
