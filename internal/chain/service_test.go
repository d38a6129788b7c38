package chain

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/distribution"
	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/genesis"
	"github.com/eigerco/rewards/internal/governance"
	"github.com/eigerco/rewards/internal/reward"
	"github.com/eigerco/rewards/internal/safemath"
	"github.com/eigerco/rewards/internal/store"
	"github.com/eigerco/rewards/internal/testutils"
	"github.com/eigerco/rewards/pkg/db/pebble"
)

func newService(t *testing.T, cfg *genesis.Config, opts ...Option) *Service {
	s, _ := newServiceWithStore(t, cfg, opts...)
	return s
}

func newServiceWithStore(t *testing.T, cfg *genesis.Config, opts ...Option) (*Service, *store.Rewards) {
	kv, err := pebble.NewKVStore()
	require.NoError(t, err)
	rewards := store.NewRewards(kv)
	t.Cleanup(func() {
		require.NoError(t, rewards.Close())
	})

	s := NewService(rewards, opts...)
	if cfg != nil {
		_, err = s.Genesis(cfg)
		require.NoError(t, err)
	}
	return s, rewards
}

func amounts(c distribution.Credits) []uint64 {
	out := make([]uint64, len(c))
	for i, ci := range c {
		out[i] = ci.Amount.Lo
	}
	return out
}

func TestGenesis(t *testing.T) {
	s := newService(t, nil)

	_, err := s.State()
	require.ErrorIs(t, err, ErrNotInitialized)

	st, err := s.Genesis(genesis.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.Height)

	_, err = s.Genesis(genesis.DefaultConfig())
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	bad := genesis.DefaultConfig()
	bad.Cap = "0"
	s2 := newService(t, nil)
	_, err = s2.Genesis(bad)
	require.ErrorIs(t, err, genesis.ErrZeroCap)
}

func TestProduceBlockRequiresGenesis(t *testing.T) {
	s := newService(t, nil)
	_, err := s.ProduceBlock(context.Background(), block.RewardContext{Height: 1})
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestProduceBlockSequencing(t *testing.T) {
	s := newService(t, genesis.DefaultConfig())
	ctx := context.Background()
	author := testutils.RandomAccount(t)

	_, err := s.ProduceBlock(ctx, block.RewardContext{Height: 2, Author: author})
	require.ErrorIs(t, err, ErrUnexpectedHeight)

	_, err = s.ProduceBlock(ctx, block.RewardContext{Height: 1, Author: author})
	require.NoError(t, err)

	// the same block cannot be rewarded twice
	_, err = s.ProduceBlock(ctx, block.RewardContext{Height: 1, Author: author})
	require.ErrorIs(t, err, ErrUnexpectedHeight)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Height)
	assert.Equal(t, currency.FromUint64(1000), st.Issuance.TotalIssued)
}

func TestCountersDoNotWrap(t *testing.T) {
	s, rewards := newServiceWithStore(t, genesis.DefaultConfig())

	st, err := rewards.State()
	require.NoError(t, err)
	st.Height = math.MaxUint64
	st.NextProposalSeq = math.MaxUint64
	require.NoError(t, rewards.PutState(st))

	t.Run("no height after the last one", func(t *testing.T) {
		for _, h := range []uint64{0, 1, math.MaxUint64} {
			_, err := s.ProduceBlock(context.Background(), block.RewardContext{Height: h, Author: block.AccountId{1}})
			require.ErrorIs(t, err, ErrUnexpectedHeight, "height %d", h)
		}
	})

	t.Run("proposal sequence exhausted", func(t *testing.T) {
		newReward := currency.FromUint64(5)
		_, err := s.Submit(governance.Root(), governance.Proposal{ActivateAt: 1, BlockReward: &newReward})
		require.ErrorIs(t, err, safemath.ErrOverflow)
	})

	after, err := rewards.State()
	require.NoError(t, err)
	assert.Equal(t, st, after)
}

func TestProduceBlockCanceledContext(t *testing.T) {
	s := newService(t, genesis.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ProduceBlock(ctx, block.RewardContext{Height: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestProduceBlockScenario(t *testing.T) {
	recorder := &event.Recorder{}
	cfg := &genesis.Config{BlockReward: "1000", VoterShareRatio: "0.31", Cap: "1000000"}
	s := newService(t, cfg, WithSink(recorder), WithReplicas(3))
	ctx := context.Background()

	author := testutils.RandomAccount(t)
	votes := testutils.RandomAccounts(t, 4)

	credits, err := s.ProduceBlock(ctx, block.RewardContext{Height: 1, Author: author, Votes: votes})
	require.NoError(t, err)
	assert.Equal(t, []uint64{690, 77, 77, 77, 77}, amounts(credits))
	assert.Equal(t, author, credits[0].Recipient)
	for i, v := range votes {
		assert.Equal(t, v, credits[i+1].Recipient)
	}

	credits, err = s.ProduceBlock(ctx, block.RewardContext{Height: 2, Author: author})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1002}, amounts(credits))

	rec, err := s.BlockRecord(2)
	require.NoError(t, err)
	assert.Equal(t, credits, rec.Credits)
	assert.NoError(t, rec.Verify())

	assert.Len(t, recorder.OfKind(event.KindRewardIssued), 6)
}

func TestProduceBlockCap(t *testing.T) {
	recorder := &event.Recorder{}
	cfg := &genesis.Config{BlockReward: "1000", VoterShareRatio: "0.3", Cap: "1000000", InitialIssuance: "999500"}
	s := newService(t, cfg, WithSink(recorder))
	ctx := context.Background()

	author := testutils.RandomAccount(t)
	votes := testutils.RandomAccounts(t, 3)

	credits, err := s.ProduceBlock(ctx, block.RewardContext{Height: 1, Author: author, Votes: votes})
	require.NoError(t, err)
	assert.Equal(t, []uint64{350, 50, 50, 50}, amounts(credits))

	credits, err = s.ProduceBlock(ctx, block.RewardContext{Height: 2, Author: author, Votes: votes})
	require.NoError(t, err)
	assert.Empty(t, credits)

	caps := recorder.OfKind(event.KindCapReached)
	require.Len(t, caps, 2)
	assert.True(t, caps[0].(event.CapReached).First)
	assert.False(t, caps[1].(event.CapReached).First)

	report, err := s.Audit()
	require.NoError(t, err)
	assert.Equal(t, currency.FromUint64(500), report.Credited)
	assert.Equal(t, 2, report.Blocks)
}

func TestGovernance(t *testing.T) {
	recorder := &event.Recorder{}
	s := newService(t, genesis.DefaultConfig(), WithSink(recorder))
	ctx := context.Background()
	author := testutils.RandomAccount(t)

	newReward := currency.FromUint64(2000)
	_, err := s.Submit(governance.Signed(author), governance.Proposal{ActivateAt: 3, BlockReward: &newReward})
	require.ErrorIs(t, err, governance.ErrBadOrigin)

	p, err := s.Submit(governance.Root(), governance.Proposal{ActivateAt: 3, BlockReward: &newReward})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.Seq)

	lowCap := currency.FromUint64(10)
	p2, err := s.Submit(governance.Root(), governance.Proposal{ActivateAt: 3, Cap: &lowCap})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p2.Seq)

	for h := uint64(1); h <= 3; h++ {
		credits, err := s.ProduceBlock(ctx, block.RewardContext{Height: h, Author: author})
		require.NoError(t, err)
		if h < 3 {
			assert.Equal(t, []uint64{1000}, amounts(credits), "height %d", h)
		} else {
			assert.Equal(t, []uint64{2000}, amounts(credits), "height %d", h)
		}
	}

	st, err := s.State()
	require.NoError(t, err)
	assert.Empty(t, st.Pending)
	assert.Equal(t, currency.FromUint64(1_000_000), st.Issuance.Cap)
	assert.Equal(t, uint64(3), st.NextProposalSeq)

	require.Len(t, recorder.OfKind(event.KindScheduleChanged), 1)
	rejected := recorder.OfKind(event.KindChangeRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, uint64(2), rejected[0].(event.ChangeRejected).ProposalSeq)

	// activation height must be in the future
	_, err = s.Submit(governance.Root(), governance.Proposal{ActivateAt: 3, BlockReward: &newReward})
	require.ErrorIs(t, err, governance.ErrActivationNotInFuture)
}

func TestAuditRandomChain(t *testing.T) {
	cfg := &genesis.Config{BlockReward: "997", VoterShareRatio: "31/100", Cap: "150000", InitialIssuance: "123"}
	s := newService(t, cfg, WithReplicas(2))
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))

	for h := uint64(1); h <= 200; h++ {
		votes := make([]block.AccountId, rng.IntN(9))
		for i := range votes {
			votes[i] = block.AccountId{byte(rng.IntN(4))}
		}
		_, err := s.ProduceBlock(ctx, block.RewardContext{Height: h, Author: block.AccountId{0xaa}, Votes: votes})
		require.NoError(t, err)
	}

	report, err := s.Audit()
	require.NoError(t, err)
	assert.Equal(t, uint64(200), report.Height)
	assert.Equal(t, 200, report.Blocks)
	assert.Equal(t, report.Minted, report.Credited)

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, currency.FromUint64(150_000), st.Issuance.TotalIssued)
	assert.True(t, st.Issuance.CapReached)
}

func TestVerifyDeterminism(t *testing.T) {
	schedule := reward.Schedule{BlockReward: currency.FromUint64(1000), VoterShare: reward.MustRatio(31, 100)}
	prior := distribution.State{}
	prior.Issuance.Cap = currency.FromUint64(1_000_000)
	rc := block.RewardContext{Height: 1, Author: block.AccountId{1}, Votes: []block.AccountId{{2}, {3}, {4}, {5}}}

	post, out, err := distribution.Distribute(schedule, prior, rc)
	require.NoError(t, err)
	digest, err := out.Credits.Digest()
	require.NoError(t, err)

	require.NoError(t, VerifyDeterminism(context.Background(), schedule, prior, rc, post, digest, 4))

	err = VerifyDeterminism(context.Background(), schedule, prior, rc, post, testutils.RandomHash(t), 4)
	require.ErrorIs(t, err, ErrNondeterministic)

	tampered := post
	tampered.Remainder.Carry = currency.Zero
	err = VerifyDeterminism(context.Background(), schedule, prior, rc, tampered, digest, 2)
	require.ErrorIs(t, err, ErrNondeterministic)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	cfg := &genesis.Config{BlockReward: "1000", VoterShareRatio: "0.3", Cap: "1500"}
	s := newService(t, cfg, WithMetrics(metrics))
	ctx := context.Background()

	votes := testutils.RandomAccounts(t, 2)
	for h := uint64(1); h <= 2; h++ {
		_, err := s.ProduceBlock(ctx, block.RewardContext{Height: h, Author: testutils.RandomAccount(t), Votes: votes})
		require.NoError(t, err)
	}

	values := gather(t, reg)
	assert.Equal(t, 2.0, values["rewards_distribution_blocks_total"])
	assert.Equal(t, 1.0, values["rewards_distribution_capped_blocks_total"])
	assert.Equal(t, 1500.0, values["rewards_issuance_total_issued"])
	assert.Equal(t, 0.0, values["rewards_issuance_headroom"])
	assert.Equal(t, 2.0, values["rewards_height"])
	assert.Equal(t, 0.3, values["rewards_schedule_voter_share"])
	assert.Equal(t, 2.0, values["rewards_distribution_credits_total{role=author}"])
	assert.Equal(t, 4.0, values["rewards_distribution_credits_total{role=voter}"])
}

// gather flattens counters and gauges into name{label=value} keys.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, l := range m.GetLabel() {
				name += "{" + l.GetName() + "=" + l.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[name] = m.GetGauge().GetValue()
			}
		}
	}
	return out
}
