package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/distribution"
	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/genesis"
	"github.com/eigerco/rewards/internal/governance"
	"github.com/eigerco/rewards/internal/safemath"
	"github.com/eigerco/rewards/internal/state"
	"github.com/eigerco/rewards/internal/store"
	"github.com/eigerco/rewards/pkg/log"
)

// Service is the host side of reward distribution. It invokes the
// distribution engine exactly once per block, in height order, and commits
// the posterior state together with the block's credits.
//
// ProduceBlock and Submit are serialized; the engine itself never runs
// concurrently with another block.
type Service struct {
	mu       sync.Mutex
	store    *store.Rewards
	sink     event.Sink
	metrics  *Metrics
	replicas int
}

type Option func(*Service)

// WithSink publishes committed events to sink.
func WithSink(sink event.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithReplicas re-runs every block on n independent copies of the prior state
// and rejects the block unless all of them agree.
func WithReplicas(n int) Option {
	return func(s *Service) {
		s.replicas = n
	}
}

func NewService(rewards *store.Rewards, opts ...Option) *Service {
	s := &Service{store: rewards, sink: event.Discard}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Genesis writes the initial state. It fails if the chain was already
// initialized.
func (s *Service) Genesis(cfg *genesis.Config) (state.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.store.HasState()
	if err != nil {
		return state.State{}, err
	}
	if exists {
		return state.State{}, ErrAlreadyInitialized
	}

	st, err := cfg.Build()
	if err != nil {
		return state.State{}, fmt.Errorf("build genesis state: %w", err)
	}
	if err := s.store.PutState(st); err != nil {
		return state.State{}, err
	}

	log.Chain.Info().
		Str("block_reward", st.Schedule.BlockReward.String()).
		Stringer("voter_share", st.Schedule.VoterShare).
		Str("cap", st.Issuance.Cap.String()).
		Str("initial_issuance", st.GenesisIssuance.String()).
		Msg("genesis written")
	if s.metrics != nil {
		s.metrics.ObserveState(st)
	}
	return st, nil
}

// State returns the latest committed state.
func (s *Service) State() (state.State, error) {
	st, err := s.store.State()
	if errors.Is(err, store.ErrStateNotFound) {
		return state.State{}, ErrNotInitialized
	}
	return st, err
}

// BlockRecord returns the committed record of a block.
func (s *Service) BlockRecord(height uint64) (store.BlockRecord, error) {
	return s.store.BlockRecord(height)
}

// ProduceBlock distributes the rewards of the block described by rc. rc.Height
// must directly follow the last committed height. Parameter changes due at
// rc.Height are applied first. On any error nothing is committed.
func (s *Service) ProduceBlock(ctx context.Context, rc block.RewardContext) (distribution.Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	prior, err := s.State()
	if err != nil {
		return nil, err
	}
	want, ok := safemath.Add64(prior.Height, 1)
	if !ok {
		return nil, fmt.Errorf("%w: no height follows %d", ErrUnexpectedHeight, prior.Height)
	}
	if rc.Height != want {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnexpectedHeight, rc.Height, want)
	}

	gov := governance.Apply(rc.Height, prior.Schedule, prior.Issuance, prior.Pending)
	next := prior.Clone()
	next.Schedule = gov.Schedule
	next.Issuance = gov.Issuance
	next.Pending = gov.Pending

	post, out, err := distribution.Distribute(next.Schedule, next.Distribution(), rc)
	if err != nil {
		log.Reward.Error().Err(err).Uint64("height", rc.Height).Msg("block rewards rejected")
		return nil, fmt.Errorf("distribute block %d: %w", rc.Height, err)
	}

	record, err := store.NewBlockRecord(rc.Height, rc.Author, out.Credits)
	if err != nil {
		return nil, err
	}

	if s.replicas > 0 {
		if err := VerifyDeterminism(ctx, next.Schedule, next.Distribution(), rc, post, record.Digest, s.replicas); err != nil {
			log.Reward.Error().Err(err).Uint64("height", rc.Height).Int("replicas", s.replicas).Msg("determinism check failed")
			return nil, err
		}
	}

	next = next.WithDistribution(post)
	next.Height = rc.Height
	if err := s.store.Commit(next, record); err != nil {
		return nil, fmt.Errorf("commit block %d: %w", rc.Height, err)
	}

	log.Reward.Info().
		Uint64("height", rc.Height).
		Str("author", rc.Author.Short()).
		Int("votes", len(rc.Votes)).
		Str("nominal", out.Nominal.String()).
		Str("issued", out.Issued.String()).
		Str("carry", post.Remainder.Carry.String()).
		Bool("capped", out.Capped).
		Msg("block rewards distributed")

	gov.Log(rc.Height)
	for _, e := range gov.Events {
		s.publish(e)
	}
	for _, e := range out.Events {
		s.publish(e)
	}
	if s.metrics != nil {
		s.metrics.ObserveBlock(next, len(rc.Votes), time.Since(start))
	}
	return out.Credits, nil
}

func (s *Service) publish(e event.Event) {
	s.sink.Publish(e)
	if s.metrics != nil {
		s.metrics.Publish(e)
	}
}

// Submit queues a parameter change. The proposal is assigned the next
// sequence number; its Seq field is ignored.
func (s *Service) Submit(origin governance.Origin, p governance.Proposal) (governance.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.State()
	if err != nil {
		return governance.Proposal{}, err
	}

	nextSeq, ok := safemath.Add64(st.NextProposalSeq, 1)
	if !ok {
		return governance.Proposal{}, fmt.Errorf("proposal sequence: %w", safemath.ErrOverflow)
	}
	p.Seq = st.NextProposalSeq
	pending, err := governance.Submit(origin, st.Pending, p, st.Height)
	if err != nil {
		return governance.Proposal{}, err
	}

	next := st.Clone()
	next.Pending = pending
	next.NextProposalSeq = nextSeq
	if err := s.store.PutState(next); err != nil {
		return governance.Proposal{}, err
	}
	return p, nil
}

// AuditReport is the result of Audit.
type AuditReport struct {
	Height   uint64
	Blocks   int
	Credited currency.Balance // sum of every stored credit
	Minted   currency.Balance // TotalIssued - GenesisIssuance
	Carry    currency.Balance
}

// Audit re-reads every block record, verifies its digest and checks that the
// credited total equals the issuance minted through block rewards.
func (s *Service) Audit() (AuditReport, error) {
	st, err := s.State()
	if err != nil {
		return AuditReport{}, err
	}
	report := AuditReport{
		Height: st.Height,
		Minted: st.BlockRewardIssued(),
		Carry:  st.Remainder.Carry,
	}
	if st.Height == 0 {
		return report, nil
	}

	records, err := s.store.BlockRecords(1, st.Height)
	if err != nil {
		return report, err
	}
	report.Blocks = len(records)

	for _, r := range records {
		if err := r.Verify(); err != nil {
			return report, err
		}
		total, err := r.Credits.Total()
		if err != nil {
			return report, err
		}
		var ok bool
		report.Credited, ok = safemath.Add128(report.Credited, total)
		if !ok {
			return report, fmt.Errorf("audit total: %w", safemath.ErrOverflow)
		}
	}

	if uint64(report.Blocks) != st.Height {
		return report, fmt.Errorf("%w: %d block records for height %d", ErrAuditMismatch, report.Blocks, st.Height)
	}
	if report.Credited != report.Minted {
		return report, fmt.Errorf("%w: credited %s, minted %s", ErrAuditMismatch, report.Credited, report.Minted)
	}
	return report, nil
}
