package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lending-ledger/internal/adapter/platform"
	"lending-ledger/internal/app"
	dbinfra "lending-ledger/internal/infrastructure/db"
	"lending-ledger/internal/usecase/lifecycle"
	"lending-ledger/pkg/id"
)

func newMigrateCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create ledger tables and seed the loan counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}
			gdb, err := app.OpenDB(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := gdb.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()
			if err := dbinfra.Migrate(gdb); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

// tickFlag lets an operator pin the height; otherwise the wall clock decides.
type tickFlag struct {
	tick uint64
}

func (t *tickFlag) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&t.tick, "tick", 0, "block height to act at (default: derived from wall clock)")
}

func (t *tickFlag) resolve(cmd *cobra.Command, a *app.App) uint64 {
	if cmd.Flags().Changed("tick") {
		return t.tick
	}
	return a.Ticks.Now()
}

func newScanCmd(o *rootOpts) *cobra.Command {
	var (
		tf    tickFlag
		after uint64
		batch int
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Evaluate every active loan for liquidation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.Manager.ScanLiquidations(cmd.Context(), tf.resolve(cmd, a), lifecycle.ScanOptions{
					AfterID:   after,
					BatchSize: batch,
				})
				if err != nil {
					// still print progress so the scan can be resumed with --after
					_ = printJSON(cmd.OutOrStdout(), report)
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	tf.register(cmd)
	cmd.Flags().Uint64Var(&after, "after", 0, "resume after this loan id")
	cmd.Flags().IntVar(&batch, "batch", 100, "loans per page")
	return cmd
}

func newPriceCmd(o *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Read or publish oracle prices",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <asset>",
			Short: "Show the current price of an asset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.withApp(cmd.Context(), func(a *app.App) error {
					p, ok, err := a.Oracle.GetPrice(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("no price for %s", args[0])
					}
					fmt.Fprintln(cmd.OutOrStdout(), p)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <asset> <price>",
			Short: "Publish a price for an asset",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("price must be a non-negative integer: %w", err)
				}
				return o.withApp(cmd.Context(), func(a *app.App) error {
					return a.Oracle.SetPrice(cmd.Context(), args[0], p)
				})
			},
		},
		&cobra.Command{
			Use:   "clear <asset>",
			Short: "Withdraw an asset's price so it reads as unavailable",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.withApp(cmd.Context(), func(a *app.App) error {
					return a.Oracle.ClearPrice(cmd.Context(), args[0])
				})
			},
		},
	)
	return cmd
}

func newLoanCmd(o *rootOpts) *cobra.Command {
	var events bool
	get := &cobra.Command{
		Use:   "get <loan-id>",
		Short: "Show a loan and optionally its events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := id.ParseLoanID(args[0])
			if err != nil {
				return err
			}
			return o.withApp(cmd.Context(), func(a *app.App) error {
				dto, err := a.Manager.GetLoan(cmd.Context(), loanID)
				if err != nil {
					return err
				}
				if !events {
					return printJSON(cmd.OutOrStdout(), dto)
				}
				evs, err := a.Manager.LoanEvents(cmd.Context(), loanID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"loan": dto, "events": evs})
			})
		},
	}
	get.Flags().BoolVar(&events, "events", false, "include the loan's audit events")

	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Inspect loans",
	}
	cmd.AddCommand(get)
	return cmd
}

func newPlatformCmd(o *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platform",
		Short: "Manage the platform initialization flag",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Mark the platform initialized so loans can be opened",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd.Context(), func(a *app.App) error {
				return platform.NewRedisFlag(a.Redis).Set(cmd.Context(), true)
			})
		},
	})
	return cmd
}
