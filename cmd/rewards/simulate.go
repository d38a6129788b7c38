package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/chain"
	"github.com/eigerco/rewards/internal/genesis"
	"github.com/eigerco/rewards/internal/store"
	"github.com/eigerco/rewards/pkg/db/pebble"
	"github.com/eigerco/rewards/pkg/log"
)

type simulateOptions struct {
	genesisPath string
	blocks      uint64
	seed        uint64
	accounts    int
	maxVotes    int
	replicas    int
	metricsAddr string
}

func newSimulateCmd(_ *globalFlags) *cobra.Command {
	o := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a seeded chain in memory and audit it",
		Long: `Produce --blocks blocks on an in-memory store, with authors and vote
submitters drawn from a pool of --accounts accounts by a generator seeded
with --seed. The same seed always yields the same chain.

With --metrics-addr the Prometheus metrics are served until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, o)
		},
	}
	cmd.Flags().StringVar(&o.genesisPath, "genesis", "", "genesis YAML file, defaults to the built-in parameters")
	cmd.Flags().Uint64Var(&o.blocks, "blocks", 1000, "number of blocks to produce")
	cmd.Flags().Uint64Var(&o.seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&o.accounts, "accounts", 16, "size of the account pool")
	cmd.Flags().IntVar(&o.maxVotes, "max-votes", 8, "maximum vote proofs per block")
	cmd.Flags().IntVar(&o.replicas, "replicas", 0, "replicas used to re-check every block, 0 disables the check")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	return cmd
}

func runSimulate(cmd *cobra.Command, o simulateOptions) error {
	if o.accounts < 1 {
		return fmt.Errorf("--accounts must be at least 1")
	}
	if o.maxVotes < 0 {
		return fmt.Errorf("--max-votes must not be negative")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := genesis.DefaultConfig()
	if o.genesisPath != "" {
		var err error
		if cfg, err = genesis.Load(o.genesisPath); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	kv, err := pebble.NewKVStore()
	if err != nil {
		return err
	}
	rewards := store.NewRewards(kv)

	return closeAfter(func() error {
		return simulateChain(ctx, cmd, o, cfg, reg, rewards)
	}, rewards.Close)
}

func simulateChain(ctx context.Context, cmd *cobra.Command, o simulateOptions, cfg *genesis.Config, reg *prometheus.Registry, rewards *store.Rewards) error {
	svc := chain.NewService(rewards,
		chain.WithSink(eventLogger()),
		chain.WithMetrics(chain.NewMetrics(reg)),
		chain.WithReplicas(o.replicas),
	)
	if _, err := svc.Genesis(cfg); err != nil {
		return err
	}

	var srv *http.Server
	if o.metricsAddr != "" {
		srv = serveMetrics(o.metricsAddr, reg)
		defer srv.Close()
	}

	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	pool := make([]block.AccountId, o.accounts)
	for i := range pool {
		for j := range pool[i] {
			pool[i][j] = byte(rng.UintN(256))
		}
	}

	start := time.Now()
	for h := uint64(1); h <= o.blocks; h++ {
		rc := block.RewardContext{
			Height: h,
			Author: pool[rng.IntN(len(pool))],
			Votes:  make([]block.AccountId, rng.IntN(o.maxVotes+1)),
		}
		for i := range rc.Votes {
			rc.Votes[i] = pool[rng.IntN(len(pool))]
		}
		if _, err := svc.ProduceBlock(ctx, rc); err != nil {
			return err
		}
	}
	log.Chain.Info().Uint64("blocks", o.blocks).Dur("took", time.Since(start)).Msg("simulation finished")

	report, err := svc.Audit()
	if err != nil {
		return err
	}
	st, err := svc.State()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printState(out, st)
	fmt.Fprintln(out)
	printAudit(out, report)

	if srv != nil {
		log.Chain.Info().Str("addr", o.metricsAddr).Msg("serving metrics until interrupted")
		<-ctx.Done()
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Chain.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
