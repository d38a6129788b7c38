package pebble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/rewards/pkg/db"
)

func TestBatch(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store db.KVStore)
	}{
		{
			name: "commit_applies_all_writes",
			fn:   testBatchCommit,
		},
		{
			name: "uncommitted_batch_is_discarded",
			fn:   testBatchDiscarded,
		},
		{
			name: "batch_done_after_commit",
			fn:   testBatchDone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewKVStore()
			require.NoError(t, err)
			defer store.Close() //nolint:errcheck

			tc.fn(t, store)
		})
	}
}

func testBatchCommit(t *testing.T, store db.KVStore) {
	require.NoError(t, store.Put(heightKey(0x02, 1), []byte("stale")))

	batch := store.NewBatch()
	defer batch.Close() //nolint:errcheck

	require.NoError(t, batch.Put([]byte{0x01}, []byte("state")))
	require.NoError(t, batch.Put(heightKey(0x02, 2), []byte("record")))
	require.NoError(t, batch.Delete(heightKey(0x02, 1)))

	// nothing is visible before commit
	_, err := store.Get([]byte{0x01})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, batch.Commit())

	v, err := store.Get([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), v)

	v, err = store.Get(heightKey(0x02, 2))
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), v)

	_, err = store.Get(heightKey(0x02, 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBatchDiscarded(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte{0x01}, []byte("state")))
	require.NoError(t, batch.Close())

	_, err := store.Get([]byte{0x01})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, batch.Put([]byte{0x01}, nil), ErrBatchDone)
}

func testBatchDone(t *testing.T, store db.KVStore) {
	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("key"), []byte("value")))
	require.NoError(t, batch.Commit())

	assert.ErrorIs(t, batch.Put([]byte("key2"), []byte("value2")), ErrBatchDone)
	assert.ErrorIs(t, batch.Delete([]byte("key2")), ErrBatchDone)
	assert.ErrorIs(t, batch.Commit(), ErrBatchDone)

	// Close after commit and double close are no-ops
	assert.NoError(t, batch.Close())
	assert.NoError(t, batch.Close())
}
