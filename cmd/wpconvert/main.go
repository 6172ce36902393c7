// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wpconvert CLI. It backs up the
// documents of one directory, renames them to .wpd and converts each to PDF
// with LibreOffice.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/pdiddy/wpconvert/internal/convert"
	"github.com/pdiddy/wpconvert/internal/ledger"
	"github.com/pdiddy/wpconvert/internal/logger"
	"github.com/pdiddy/wpconvert/internal/options"
	"github.com/pdiddy/wpconvert/internal/pipeline"
	"github.com/pdiddy/wpconvert/pkg/types"
)

// newRootCmd builds the wpconvert command tree.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wpconvert",
		Short: "Batch-convert WordPerfect documents in a directory to PDF",
		Long: `wpconvert converts the legacy word-processor documents of one directory
to PDF. It runs three passes over the directory:

  backup   copy every file into originals/
  rename   append .wpd to every file whose extension is not ignored
  convert  produce <name>.pdf next to each file with LibreOffice

By default the passes behave exactly like the historical tool (--mode compat).
--mode strict applies the ignore extension to every pass and only renames
files that have a backup copy, which makes repeated runs safe.`,
		Example: `  wpconvert -d ~/letters
  wpconvert -d ~/letters -i pdf --keep-going --report run.yaml
  wpconvert -d ~/letters --engine container --dry-run`,
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runConvert,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	options.RegisterFlags(cmd.Flags())
	cmd.AddCommand(newHistoryCmd())
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := options.TakeIgnoreArg(cmd.Flags(), args); err != nil {
		return err
	}
	// Flag errors above print usage; run failures do not.
	cmd.SilenceUsage = true

	v, err := options.NewViper(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := options.Resolve(v)
	if err != nil {
		return err
	}

	logger.Setup(cmd.ErrOrStderr(), logger.Config{Verbose: cfg.Verbose, JSON: cfg.LogJSON})
	slog.Debug("configuration",
		"dir", cfg.Directory, "ignore", cfg.IgnoreExtension, "mode", cfg.Mode,
		"engine", cfg.Engine, "dry_run", cfg.DryRun, "keep_going", cfg.KeepGoing)

	ctx := cmd.Context()

	var conv convert.Converter
	if !cfg.DryRun {
		conv, err = convert.New(ctx, cfg)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	report, runErr := pipeline.New(conv, out).Run(ctx, cfg)

	if cfg.Verbose || cfg.DryRun || report.HasFailures() {
		pipeline.Summary(out, report)
	}
	if err := persist(ctx, cfg, report); err != nil {
		slog.Warn("could not save run", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	return report.Err()
}

// persist writes the optional report file and ledger entry.
func persist(ctx context.Context, cfg types.Config, report types.Report) error {
	if cfg.ReportPath != "" {
		if err := pipeline.WriteReport(cfg.ReportPath, report); err != nil {
			return err
		}
	}
	if cfg.LedgerPath == "" {
		return nil
	}

	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(ctx, report)
	if err != nil {
		return err
	}
	slog.Debug("run recorded", "ledger", cfg.LedgerPath, "run", id)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(
		ctx,
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		stop()
		os.Exit(1)
	}
}
