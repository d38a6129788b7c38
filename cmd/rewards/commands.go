package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/chain"
	"github.com/eigerco/rewards/internal/currency"
	"github.com/eigerco/rewards/internal/distribution"
	"github.com/eigerco/rewards/internal/genesis"
	"github.com/eigerco/rewards/internal/governance"
	"github.com/eigerco/rewards/internal/reward"
	"github.com/eigerco/rewards/internal/state"
)

func newInitCmd(g *globalFlags) *cobra.Command {
	var genesisPath, writeGenesis string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the genesis state",
		Long: `Write the genesis state from a YAML file, or from the default parameters
(block reward 1000, voter share 0.3, cap 1000000) when --genesis is not set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := genesis.DefaultConfig()
			if genesisPath != "" {
				var err error
				if cfg, err = genesis.Load(genesisPath); err != nil {
					return err
				}
			}
			if writeGenesis != "" {
				if err := cfg.Save(writeGenesis); err != nil {
					return err
				}
			}

			return g.withService(func(svc *chain.Service) error {
				st, err := svc.Genesis(cfg)
				if err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&genesisPath, "genesis", "", "genesis YAML file")
	cmd.Flags().StringVar(&writeGenesis, "write-genesis", "", "also save the effective genesis config to this file")
	return cmd
}

func newProduceCmd(g *globalFlags) *cobra.Command {
	var (
		author string
		votes  []string
		height uint64
	)

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Distribute the rewards of the next block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc := block.RewardContext{Height: height}
			var err error
			if rc.Author, err = block.ParseAccountId(author); err != nil {
				return fmt.Errorf("--author: %w", err)
			}
			for _, v := range votes {
				id, err := block.ParseAccountId(v)
				if err != nil {
					return fmt.Errorf("--vote %s: %w", v, err)
				}
				rc.Votes = append(rc.Votes, id)
			}

			return g.withService(func(svc *chain.Service) error {
				if rc.Height == 0 {
					st, err := svc.State()
					if err != nil {
						return err
					}
					rc.Height = st.Height + 1
				}

				credits, err := svc.ProduceBlock(cmd.Context(), rc)
				if err != nil {
					return err
				}
				printCredits(cmd.OutOrStdout(), rc.Height, credits)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "hex account id of the block author")
	cmd.Flags().StringSliceVar(&votes, "vote", nil, "hex account id of a vote proof submitter, repeatable, in inclusion order")
	cmd.Flags().Uint64Var(&height, "height", 0, "block height, defaults to the next height")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newProposeCmd(g *globalFlags) *cobra.Command {
	var (
		activateAt  uint64
		blockReward string
		voterShare  string
		limit       string
	)

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Schedule a change of the reward parameters",
		Long: `Schedule a change of the block reward, the voter share or the issuance cap.
The change takes effect at --activate-at, which must be above the current
height. Only the parameters given are changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := governance.Proposal{ActivateAt: activateAt}
			if blockReward != "" {
				b, err := currency.ParseBalance(blockReward)
				if err != nil {
					return fmt.Errorf("--block-reward: %w", err)
				}
				p.BlockReward = &b
			}
			if voterShare != "" {
				r, err := reward.ParseRatio(voterShare)
				if err != nil {
					return fmt.Errorf("--voter-share: %w", err)
				}
				p.VoterShare = &r
			}
			if limit != "" {
				b, err := currency.ParseBalance(limit)
				if err != nil {
					return fmt.Errorf("--cap: %w", err)
				}
				p.Cap = &b
			}

			return g.withService(func(svc *chain.Service) error {
				// the CLI operator is the chain's privileged origin
				queued, err := svc.Submit(governance.Root(), p)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "proposal %d scheduled at height %d: %s\n", queued.Seq, queued.ActivateAt, queued.Summary())
				return nil
			})
		},
	}
	cmd.Flags().Uint64Var(&activateAt, "activate-at", 0, "height at which the change takes effect")
	cmd.Flags().StringVar(&blockReward, "block-reward", "", "new reward per block")
	cmd.Flags().StringVar(&voterShare, "voter-share", "", "new voter share, decimal or fraction")
	cmd.Flags().StringVar(&limit, "cap", "", "new lifetime issuance cap")
	_ = cmd.MarkFlagRequired("activate-at")
	return cmd
}

func newStateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the latest committed state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withService(func(svc *chain.Service) error {
				st, err := svc.State()
				if err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func newCreditsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "credits <height> [to-height]",
		Short: "Show the credits of a block or a range of blocks",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("height: %w", err)
			}
			to := from
			if len(args) == 2 {
				if to, err = strconv.ParseUint(args[1], 10, 64); err != nil {
					return fmt.Errorf("to-height: %w", err)
				}
			}

			return g.withService(func(svc *chain.Service) error {
				for h := from; h <= to; h++ {
					rec, err := svc.BlockRecord(h)
					if err != nil {
						return fmt.Errorf("block %d: %w", h, err)
					}
					if err := rec.Verify(); err != nil {
						return fmt.Errorf("block %d: %w", h, err)
					}
					printCredits(cmd.OutOrStdout(), h, rec.Credits)
					if h == ^uint64(0) {
						break
					}
				}
				return nil
			})
		},
	}
}

func newAuditCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Verify every block record against the issuance ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withService(func(svc *chain.Service) error {
				report, err := svc.Audit()
				if err != nil {
					return err
				}
				printAudit(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
}

func printState(w io.Writer, st state.State) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "height\t%d\n", st.Height)
	fmt.Fprintf(tw, "block reward\t%s\n", st.Schedule.BlockReward)
	fmt.Fprintf(tw, "voter share\t%s (%s)\n", st.Schedule.VoterShare, st.Schedule.VoterShare.Decimal())
	fmt.Fprintf(tw, "cap\t%s\n", st.Issuance.Cap)
	fmt.Fprintf(tw, "total issued\t%s\n", st.Issuance.TotalIssued)
	fmt.Fprintf(tw, "headroom\t%s\n", st.Issuance.RemainingHeadroom())
	fmt.Fprintf(tw, "cap reached\t%t\n", st.Issuance.CapReached)
	fmt.Fprintf(tw, "carry\t%s\n", st.Remainder.Carry)
	fmt.Fprintf(tw, "pending changes\t%d\n", len(st.Pending))
	for _, p := range st.Pending {
		fmt.Fprintf(tw, "  #%d\tat %d: %s\n", p.Seq, p.ActivateAt, p.Summary())
	}
	_ = tw.Flush()
}

func printCredits(w io.Writer, height uint64, credits distribution.Credits) {
	total, err := credits.Total()
	if err != nil {
		fmt.Fprintf(w, "block %d: %d credits, total overflows\n", height, len(credits))
	} else {
		fmt.Fprintf(w, "block %d: %d credits, total %s\n", height, len(credits), total)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range credits {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Kind, c.Recipient, c.Amount)
	}
	_ = tw.Flush()
}

func printAudit(w io.Writer, r chain.AuditReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "height\t%d\n", r.Height)
	fmt.Fprintf(tw, "blocks\t%d\n", r.Blocks)
	fmt.Fprintf(tw, "credited\t%s\n", r.Credited)
	fmt.Fprintf(tw, "minted\t%s\n", r.Minted)
	fmt.Fprintf(tw, "carry\t%s\n", r.Carry)
	fmt.Fprintln(tw, "status\tok")
	_ = tw.Flush()
}
