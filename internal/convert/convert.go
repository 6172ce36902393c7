// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns the renamed documents of the working directory into
// PDF files through a pluggable conversion engine.
package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/wpconvert/internal/fsutil"
	"github.com/pdiddy/wpconvert/internal/retry"
	"github.com/pdiddy/wpconvert/pkg/types"
)

// Converter transforms the document at src into a PDF written to dst.
// Different engines (LibreOffice, a container image) implement this
// interface.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// Destination returns the PDF path for an entry of cfg.Directory. The full
// entry name is kept, so "report.wpd" becomes "report.wpd.pdf".
func Destination(cfg types.Config, name string) string {
	return filepath.Join(cfg.Directory, name+types.PDFExtension)
}

// ShouldSkip reports whether the entry is left unconverted and why.
// Directories are skipped in every mode, originals/ included.
func ShouldSkip(cfg types.Config, e fsutil.Entry) (bool, string) {
	if e.IsDir {
		return true, "directory"
	}
	if cfg.Mode != types.ModeStrict {
		return false, ""
	}
	if filepath.Ext(e.Name) == cfg.IgnoreExtension {
		return true, "ignored extension " + cfg.IgnoreExtension
	}
	if !strings.HasSuffix(e.Name, types.RenamedExtension) {
		return true, "not renamed"
	}
	return false, ""
}

// File converts one document, applying the configured per-attempt timeout
// and retry budget.
func File(ctx context.Context, c Converter, cfg types.Config, src, dst string) error {
	return retry.Do(ctx, cfg.Retries, func(ctx context.Context) error {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		return c.Convert(ctx, src, dst)
	})
}

// Run converts every eligible entry of cfg.Directory, printing a progress
// line before each conversion. When failFast is set the stage stops at the
// first failure.
func Run(ctx context.Context, fs afero.Fs, cfg types.Config, c Converter, w io.Writer, failFast bool) (types.StageReport, error) {
	report := types.StageReport{Stage: types.StageConvert}

	entries, err := fsutil.List(fs, cfg.Directory)
	if err != nil {
		return report, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dest := Destination(cfg, e.Name)
		if skip, reason := ShouldSkip(cfg, e); skip {
			slog.Debug("convert skipped", "path", e.Path, "reason", reason)
			report.Add(types.FileResult{Stage: types.StageConvert, Source: e.Path, Dest: dest, Status: types.StatusSkipped, Reason: reason})
			continue
		}

		if cfg.DryRun {
			fmt.Fprintf(w, "would convert %s to %s\n", e.Path, filepath.Base(dest))
			report.Add(types.FileResult{Stage: types.StageConvert, Source: e.Path, Dest: dest, Status: types.StatusPlanned})
			continue
		}

		fmt.Fprintf(w, "Converting %s to %s\n", e.Path, filepath.Base(dest))
		if err := File(ctx, c, cfg, e.Path, dest); err != nil {
			err = fmt.Errorf("converting %s: %w", e.Path, err)
			slog.Error("conversion failed", "path", e.Path, "error", err)
			report.Add(types.Failed(types.StageConvert, e.Path, dest, err))
			if failFast || ctx.Err() != nil {
				return report, nil
			}
			continue
		}
		slog.Debug("converted", "path", e.Path, "dest", dest)
		report.Add(types.FileResult{Stage: types.StageConvert, Source: e.Path, Dest: dest, Status: types.StatusDone})
	}

	return report, nil
}
