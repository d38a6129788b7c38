package remainder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eigerco/rewards/internal/currency"
)

func TestTakeResetsCarry(t *testing.T) {
	s := State{Carry: currency.FromUint64(2)}

	assert.Equal(t, currency.FromUint64(2), s.Take())
	assert.True(t, s.Peek().IsZero())
	assert.True(t, s.Take().IsZero())
}

func TestDepositOverwrites(t *testing.T) {
	var s State
	s.Deposit(currency.FromUint64(3))
	s.Deposit(currency.FromUint64(1))
	assert.Equal(t, currency.FromUint64(1), s.Peek())
}

func TestTakeDepositCycle(t *testing.T) {
	var s State
	deposits := []uint64{0, 2, 0, 1, 3}
	var taken uint64
	for _, d := range deposits {
		taken += s.Take().Lo
		s.Deposit(currency.FromUint64(d))
	}
	taken += s.Take().Lo

	// Everything deposited is eventually taken exactly once.
	assert.Equal(t, uint64(6), taken)
}
