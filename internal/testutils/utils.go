package testutils

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/crypto"
)

func RandomHash(t *testing.T) crypto.Hash {
	hash := make([]byte, crypto.HashSize)
	_, err := rand.Read(hash)
	require.NoError(t, err)
	return crypto.Hash(hash)
}

func RandomAccount(t *testing.T) block.AccountId {
	var id block.AccountId
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

// RandomAccounts returns n random accounts, e.g. the voters of a block.
func RandomAccounts(t *testing.T, n int) []block.AccountId {
	out := make([]block.AccountId, n)
	for i := range out {
		out[i] = RandomAccount(t)
	}
	return out
}
