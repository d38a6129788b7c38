package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eigerco/rewards/internal/chain"
	"github.com/eigerco/rewards/internal/event"
	"github.com/eigerco/rewards/internal/store"
	"github.com/eigerco/rewards/pkg/db/pebble"
	"github.com/eigerco/rewards/pkg/log"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dataDir   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "rewards",
		Short: "Per-block reward distribution with a lifetime issuance cap",
		Long: `rewards mints a fixed reward for every block, splits it between the block
author and the submitters of vote proofs, and stops minting once the
lifetime issuance cap is reached.

State is kept in a pebble database under --datadir.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.initLogger(cmd)
		},
	}

	root.PersistentFlags().StringVar(&g.dataDir, "datadir", "./rewards-data", "database directory")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "console", "log format (console, json)")

	root.AddCommand(
		newInitCmd(g),
		newProduceCmd(g),
		newProposeCmd(g),
		newStateCmd(g),
		newCreditsCmd(g),
		newAuditCmd(g),
		newSimulateCmd(g),
	)
	return root
}

func (g *globalFlags) initLogger(cmd *cobra.Command) error {
	level, err := log.ParseLogLevel(g.logLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	format, err := log.ParseLoggerType(g.logFormat)
	if err != nil {
		return fmt.Errorf("--log-format: %w", err)
	}
	log.Init(log.Options{LogLevel: level, Type: format, Output: cmd.ErrOrStderr()})
	return nil
}

// openService opens the on-disk store. The returned close func must be called
// once the command is done.
func (g *globalFlags) openService(opts ...chain.Option) (*chain.Service, func() error, error) {
	kv, err := pebble.NewKVStore(pebble.WithPath(g.dataDir))
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", g.dataDir, err)
	}
	rewards := store.NewRewards(kv)

	opts = append([]chain.Option{chain.WithSink(eventLogger())}, opts...)
	return chain.NewService(rewards, opts...), rewards.Close, nil
}

// withService opens the store, runs fn and closes the store again.
func (g *globalFlags) withService(fn func(*chain.Service) error, opts ...chain.Option) error {
	svc, closeFn, err := g.openService(opts...)
	if err != nil {
		return err
	}
	return closeAfter(func() error { return fn(svc) }, closeFn)
}

// closeAfter runs fn, then closeFn. The close error is returned when fn
// succeeded, so a failed flush is never reported as success.
func closeAfter(fn, closeFn func() error) error {
	err := fn()
	if cerr := closeFn(); cerr != nil {
		if err != nil {
			return errors.Join(err, cerr)
		}
		return fmt.Errorf("close store: %w", cerr)
	}
	return err
}

func eventLogger() event.Sink {
	return event.LogSink{Logger: log.Root.With().Str("component", "events").Logger()}
}
