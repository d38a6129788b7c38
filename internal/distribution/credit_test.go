package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/safemath"
)

func TestCreditsTotal(t *testing.T) {
	c := Credits{
		{Recipient: author, Amount: currency.FromUint64(690), Kind: AuthorCredit},
		{Recipient: voterA, Amount: currency.FromUint64(77), Kind: VoteCredit},
		{Recipient: voterB, Amount: currency.FromUint64(77), Kind: VoteCredit},
	}
	total, err := c.Total()
	require.NoError(t, err)
	assert.Equal(t, currency.FromUint64(844), total)

	total, err = Credits(nil).Total()
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	c = append(c, CreditInstruction{Recipient: voterC, Amount: uint128.Max, Kind: VoteCredit})
	_, err = c.Total()
	assert.ErrorIs(t, err, safemath.ErrOverflow)
}

func TestCreditsDigest(t *testing.T) {
	c := Credits{
		{Recipient: author, Amount: currency.FromUint64(700), Kind: AuthorCredit},
		{Recipient: voterA, Amount: currency.FromUint64(100), Kind: VoteCredit},
	}

	t.Run("stable", func(t *testing.T) {
		a, err := c.Digest()
		require.NoError(t, err)
		b, err := append(Credits{}, c...).Digest()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("nil and empty agree", func(t *testing.T) {
		a, err := Credits(nil).Digest()
		require.NoError(t, err)
		b, err := Credits{}.Digest()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("amount matters", func(t *testing.T) {
		a, err := c.Digest()
		require.NoError(t, err)
		changed := append(Credits{}, c...)
		changed[1].Amount = currency.FromUint64(101)
		b, err := changed.Digest()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("kind matters", func(t *testing.T) {
		a, err := c.Digest()
		require.NoError(t, err)
		changed := append(Credits{}, c...)
		changed[1].Kind = AuthorCredit
		b, err := changed.Digest()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestCreditKind(t *testing.T) {
	assert.Equal(t, "author", AuthorCredit.String())
	assert.Equal(t, "vote", VoteCredit.String())
	assert.Equal(t, "unknown", CreditKind(0).String())
	assert.Equal(t, event.RoleAuthor, AuthorCredit.role())
	assert.Equal(t, event.RoleVoter, VoteCredit.role())
}
