// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backup copies the entries of the working directory into its
// originals/ subdirectory before any of them are renamed or converted.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/wpconvert/internal/fsutil"
	"github.com/pdiddy/wpconvert/pkg/types"
)

// compatIgnore is the suffix set the historical tool checks destination
// paths against. It does not consult the --ignore option.
var compatIgnore = []string{types.BackupDirName, types.RenamedExtension}

// Destination returns the backup path for an entry of cfg.Directory.
func Destination(cfg types.Config, name string) string {
	return filepath.Join(cfg.BackupDir(), name)
}

// ShouldSkip reports whether the entry named name is left out of the backup
// and why.
func ShouldSkip(cfg types.Config, name string) (bool, string) {
	if cfg.Mode == types.ModeStrict {
		switch {
		case name == types.BackupDirName:
			return true, "backup directory"
		case strings.HasSuffix(name, types.RenamedExtension), strings.HasSuffix(name, types.PDFExtension):
			return true, "pipeline output"
		case strings.HasSuffix(name, cfg.IgnoreExtension):
			return true, "ignored extension " + cfg.IgnoreExtension
		}
		return false, ""
	}

	dest := Destination(cfg, name)
	for _, s := range compatIgnore {
		if strings.HasSuffix(dest, s) {
			return true, "ignored suffix " + s
		}
	}
	return false, ""
}

// Run copies every eligible entry of cfg.Directory into the backup
// directory, printing each destination path to w. When failFast is set the
// stage stops at the first failure.
func Run(ctx context.Context, fs afero.Fs, cfg types.Config, w io.Writer, failFast bool) (types.StageReport, error) {
	report := types.StageReport{Stage: types.StageBackup}

	entries, err := fsutil.List(fs, cfg.Directory)
	if err != nil {
		return report, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dest := Destination(cfg, e.Name)
		if skip, reason := ShouldSkip(cfg, e.Name); skip {
			slog.Debug("backup skipped", "path", e.Path, "reason", reason)
			report.Add(types.FileResult{Stage: types.StageBackup, Source: e.Path, Dest: dest, Status: types.StatusSkipped, Reason: reason})
			continue
		}
		if e.IsDir {
			slog.Debug("backup skipped", "path", e.Path, "reason", "directory")
			report.Add(types.FileResult{Stage: types.StageBackup, Source: e.Path, Dest: dest, Status: types.StatusSkipped, Reason: "directory"})
			continue
		}

		if cfg.DryRun {
			fmt.Fprintf(w, "would copy %s\n", dest)
			report.Add(types.FileResult{Stage: types.StageBackup, Source: e.Path, Dest: dest, Status: types.StatusPlanned})
			continue
		}

		fmt.Fprintln(w, dest)
		if err := fsutil.CopyFile(fs, e.Path, dest); err != nil {
			slog.Error("backup failed", "path", e.Path, "error", err)
			report.Add(types.Failed(types.StageBackup, e.Path, dest, err))
			if failFast {
				return report, nil
			}
			continue
		}
		slog.Debug("backed up", "path", e.Path, "dest", dest)
		report.Add(types.FileResult{Stage: types.StageBackup, Source: e.Path, Dest: dest, Status: types.StatusDone})
	}

	return report, nil
}
