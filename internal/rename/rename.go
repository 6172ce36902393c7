// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rename normalizes file names in the working directory by appending
// the .wpd extension the conversion engine keys its import filter on.
package rename

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

// Target returns the path an entry is renamed to.
func Target(cfg types.Config, name string) string {
	return filepath.Join(cfg.Directory, name+types.RenamedExtension)
}

// backedUp decides whether a file counts as already present in the backup.
type backedUp func(name string) bool

// compatBackedUp reproduces the historical check: a substring test of the
// file name against the backup directory path, not a lookup of its entries.
func compatBackedUp(cfg types.Config) backedUp {
	haystack := cfg.BackupDir() + "/"
	return func(name string) bool {
		return strings.Contains(haystack, name)
	}
}

// Run renames every eligible regular file of cfg.Directory to <name>.wpd.
func Run(ctx context.Context, fs afero.Fs, cfg types.Config, w io.Writer, failFast bool) (types.StageReport, error) {
	report := types.StageReport{Stage: types.StageRename}

	entries, err := fsutil.List(fs, cfg.Directory)
	if err != nil {
		return report, err
	}

	var backed map[string]bool
	if cfg.Mode == types.ModeStrict {
		backed, err = fsutil.Names(fs, cfg.BackupDir())
		if err != nil {
			return report, fmt.Errorf("reading backup directory: %w", err)
		}
	}
	inCompatBackup := compatBackedUp(cfg)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dest := Target(cfg, e.Name)
		skip := func(reason string) {
			slog.Debug("rename skipped", "path", e.Path, "reason", reason)
			report.Add(types.FileResult{Stage: types.StageRename, Source: e.Path, Dest: dest, Status: types.StatusSkipped, Reason: reason})
		}

		// Subdirectories are never renamed, in compat mode too.
		if e.IsDir {
			skip("directory")
			continue
		}
		if filepath.Ext(e.Name) == cfg.IgnoreExtension {
			skip("ignored extension " + cfg.IgnoreExtension)
			continue
		}

		if cfg.Mode == types.ModeStrict {
			if strings.HasSuffix(e.Name, types.RenamedExtension) {
				skip("already renamed")
				continue
			}
			if !backed[e.Name] {
				skip("no backup copy")
				continue
			}
		} else if inCompatBackup(e.Name) {
			skip("matches backup path")
			continue
		}

		if cfg.DryRun {
			fmt.Fprintf(w, "would rename %s to %s\n", e.Path, dest)
			report.Add(types.FileResult{Stage: types.StageRename, Source: e.Path, Dest: dest, Status: types.StatusPlanned})
			continue
		}

		if err := fs.Rename(e.Path, dest); err != nil {
			err = fmt.Errorf("renaming %s: %w", e.Path, err)
			slog.Error("rename failed", "path", e.Path, "error", err)
			report.Add(types.Failed(types.StageRename, e.Path, dest, err))
			if failFast {
				return report, nil
			}
			continue
		}
		slog.Debug("renamed", "path", e.Path, "dest", dest)
		report.Add(types.FileResult{Stage: types.StageRename, Source: e.Path, Dest: dest, Status: types.StatusDone})
	}

	return report, nil
}
