// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the backup, rename and convert stages in order over
// one directory and applies the failure policy between them.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/pdiddy/wpconvert/internal/backup"
	"github.com/pdiddy/wpconvert/internal/convert"
	"github.com/pdiddy/wpconvert/internal/rename"
	"github.com/pdiddy/wpconvert/pkg/types"
)

// Pipeline holds the collaborators of a run.
type Pipeline struct {
	// FS is the filesystem the backup and rename stages operate on.
	FS afero.Fs

	// Converter is the conversion engine. It may be nil for dry runs.
	Converter convert.Converter

	// Out receives the progress lines of every stage.
	Out io.Writer

	// Now returns the current time; tests replace it.
	Now func() time.Time
}

// New returns a pipeline over the real filesystem.
func New(c convert.Converter, out io.Writer) *Pipeline {
	return &Pipeline{
		FS:        afero.NewOsFs(),
		Converter: c,
		Out:       out,
		Now:       time.Now,
	}
}

// Run executes Backup, Rename and Convert. Each stage re-lists the
// directory. Per-file failures are recorded in the report; unless
// cfg.KeepGoing is set the first failure ends the run and marks the report
// aborted. The returned error covers conditions that prevent a stage from
// running at all, such as an unreadable directory or cancellation.
func (p *Pipeline) Run(ctx context.Context, cfg types.Config) (types.Report, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	report := types.Report{
		Directory: cfg.Directory,
		Mode:      cfg.Mode,
		DryRun:    cfg.DryRun,
		StartedAt: now(),
	}
	if !cfg.DryRun && p.Converter == nil {
		return report, fmt.Errorf("no conversion engine configured")
	}

	failFast := !cfg.KeepGoing
	stages := []struct {
		name types.Stage
		run  func() (types.StageReport, error)
	}{
		{types.StageBackup, func() (types.StageReport, error) {
			return backup.Run(ctx, p.FS, cfg, out, failFast)
		}},
		{types.StageRename, func() (types.StageReport, error) {
			return rename.Run(ctx, p.FS, cfg, out, failFast)
		}},
		{types.StageConvert, func() (types.StageReport, error) {
			return convert.Run(ctx, p.FS, cfg, p.Converter, out, failFast)
		}},
	}

	for _, st := range stages {
		slog.Debug("stage starting", "stage", st.name, "dir", cfg.Directory)
		sr, err := st.run()
		report.Stages = append(report.Stages, sr)
		if err != nil {
			report.Aborted = true
			report.FinishedAt = now()
			return report, fmt.Errorf("%s stage: %w", st.name, err)
		}
		slog.Debug("stage finished", "stage", st.name,
			"done", sr.Count(types.StatusDone),
			"skipped", sr.Count(types.StatusSkipped),
			"failed", sr.Count(types.StatusFailed))

		if failFast && sr.HasFailures() {
			report.Aborted = true
			break
		}
	}

	report.FinishedAt = now()
	return report, nil
}

// Summary prints per-stage counts to w.
func Summary(w io.Writer, report types.Report) {
	fmt.Fprintln(w)
	for _, s := range report.Stages {
		fmt.Fprintf(w, "%-8s %d done, %d skipped, %d failed",
			s.Stage, s.Count(types.StatusDone), s.Count(types.StatusSkipped), s.Count(types.StatusFailed))
		if n := s.Count(types.StatusPlanned); n > 0 {
			fmt.Fprintf(w, ", %d planned", n)
		}
		fmt.Fprintln(w)
	}
	if report.Aborted {
		fmt.Fprintln(w, "run aborted after first failure (use --keep-going to continue past failures)")
	}
}
