package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"lending-ledger/internal/app"
	"lending-ledger/internal/config"
	"lending-ledger/internal/infrastructure/logging"
)

type rootOpts struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the lending ledger",
		Long: `ledgerctl runs maintenance tasks against the lending ledger's database and Redis.

Examples:
  ledgerctl migrate
  ledgerctl price set BTC 50000000000
  ledgerctl scan --batch 200
  ledgerctl loan get 42`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $LEDGER_CONFIG)")

	root.AddCommand(
		newMigrateCmd(opts),
		newScanCmd(opts),
		newPriceCmd(opts),
		newLoanCmd(opts),
		newPlatformCmd(opts),
	)
	return root
}

func (o *rootOpts) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the full ledger for one command and closes it afterwards.
func (o *rootOpts) withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	log, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// the CLI exports nothing; a private registry keeps collectors off the default one
	a, err := app.New(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
