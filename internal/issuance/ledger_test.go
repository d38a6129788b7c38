package issuance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"github.com/eigerco/rewards/internal/currency"
)

func TestNewState(t *testing.T) {
	s, err := NewState(currency.FromUint64(1_000_000), currency.FromUint64(10))
	require.NoError(t, err)
	assert.Equal(t, currency.FromUint64(999_990), s.RemainingHeadroom())

	_, err = NewState(currency.Zero, currency.Zero)
	assert.ErrorIs(t, err, ErrZeroCap)

	_, err = NewState(currency.FromUint64(10), currency.FromUint64(11))
	assert.ErrorIs(t, err, ErrIssuedAboveCap)
}

func TestRemainingHeadroom(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  currency.Balance
	}{
		{"nothing issued", State{Cap: currency.FromUint64(1000)}, currency.FromUint64(1000)},
		{"partially issued", State{TotalIssued: currency.FromUint64(999_500), Cap: currency.FromUint64(1_000_000)}, currency.FromUint64(500)},
		{"exhausted", State{TotalIssued: currency.FromUint64(1000), Cap: currency.FromUint64(1000)}, currency.Zero},
		{"broken invariant", State{TotalIssued: currency.FromUint64(1001), Cap: currency.FromUint64(1000)}, currency.Zero},
		{"full range", State{Cap: uint128.Max}, uint128.Max},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.state.RemainingHeadroom())
		})
	}
}

func TestRecordIssuance(t *testing.T) {
	s := State{Cap: currency.FromUint64(1000)}

	require.NoError(t, s.RecordIssuance(currency.FromUint64(600)))
	require.NoError(t, s.RecordIssuance(currency.FromUint64(400)))
	assert.Equal(t, currency.FromUint64(1000), s.TotalIssued)
	assert.True(t, s.Exhausted())

	err := s.RecordIssuance(currency.FromUint64(1))
	require.ErrorIs(t, err, ErrCapExceeded)
	assert.Equal(t, currency.FromUint64(1000), s.TotalIssued, "failed issuance must not mutate the state")

	require.NoError(t, s.RecordIssuance(currency.Zero))
}

func TestRecordIssuanceOverflow(t *testing.T) {
	s := State{TotalIssued: uint128.Max.Sub64(1), Cap: uint128.Max}
	err := s.RecordIssuance(currency.FromUint64(2))
	require.ErrorIs(t, err, ErrCapExceeded)
	assert.Equal(t, uint128.Max.Sub64(1), s.TotalIssued)
}

func TestSetCap(t *testing.T) {
	s := State{TotalIssued: currency.FromUint64(1000), Cap: currency.FromUint64(1000), CapReached: true}

	err := s.SetCap(currency.FromUint64(999))
	require.ErrorIs(t, err, ErrIssuedAboveCap)
	assert.Equal(t, currency.FromUint64(1000), s.Cap)

	require.ErrorIs(t, s.SetCap(currency.Zero), ErrZeroCap)

	require.NoError(t, s.SetCap(currency.FromUint64(1000)))
	assert.True(t, s.CapReached, "keeping the cap at the issued amount keeps minting closed")

	require.NoError(t, s.SetCap(currency.FromUint64(2000)))
	assert.False(t, s.CapReached)
	assert.Equal(t, currency.FromUint64(1000), s.RemainingHeadroom())
}
