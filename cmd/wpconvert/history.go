// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wpconvert/internal/ledger"
	"github.com/pdiddy/wpconvert/internal/options"
	"github.com/pdiddy/wpconvert/pkg/types"
)

var errNoLedger = fmt.Errorf("no ledger configured: pass --ledger or set %s_LEDGER", options.EnvPrefix)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the file results of one run",
		Long: `History reads the sqlite ledger written by runs started with --ledger.
Without arguments it lists the most recent runs. With a run ID it prints
every per-file result of that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
	cmd.Flags().String(options.FlagLedger, "", "sqlite database recording run history")
	cmd.Flags().Int("limit", 20, "maximum runs to list")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	v, err := options.NewViper(cmd.Flags())
	if err != nil {
		return err
	}
	path := v.GetString(options.FlagLedger)
	if path == "" {
		return errNoLedger
	}
	cmd.SilenceUsage = true

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	jsonOutput := v.GetBool("json")

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q", args[0])
		}
		results, err := store.Results(cmd.Context(), id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return encodeJSON(out, results)
		}
		formatResults(out, results)
		return nil
	}

	runs, err := store.Runs(cmd.Context(), v.GetInt("limit"))
	if err != nil {
		return err
	}
	if jsonOutput {
		return encodeJSON(out, runs)
	}
	formatRuns(out, runs)
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRuns(w io.Writer, runs []ledger.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-20s  %-6s  %-40s  %5s  %7s  %6s\n",
		"ID", "Started", "Mode", "Directory", "Done", "Skipped", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range runs {
		dir := r.Directory
		if len(dir) > 40 {
			dir = "..." + dir[len(dir)-37:]
		}
		mode := string(r.Mode)
		if r.DryRun {
			mode += "*"
		}
		fmt.Fprintf(w, "%-4d  %-20s  %-6s  %-40s  %5d  %7d  %6d\n",
			r.ID, r.StartedAt.UTC().Format("2006-01-02 15:04:05"), mode, dir, r.Done, r.Skipped, r.Failed)
	}

	fmt.Fprintf(w, "\n%d runs (* = dry run)\n", len(runs))
}

func formatResults(w io.Writer, results []types.FileResult) {
	for _, r := range results {
		line := fmt.Sprintf("%-8s %-8s %s", r.Stage, r.Status, r.Source)
		if r.Dest != "" {
			line += " -> " + r.Dest
		}
		switch {
		case r.Error != "":
			line += ": " + r.Error
		case r.Reason != "":
			line += " (" + r.Reason + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
}
