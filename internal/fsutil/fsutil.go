// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fsutil holds the filesystem primitives shared by the pipeline
// stages: directory listing with shell-glob visibility rules and file copy.
// Every function works against an afero.Fs so stages can run on an in-memory
// filesystem in tests.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one direct child of a listed directory.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
	Mode  os.FileMode
}

// List returns the direct children of dir the way the shell glob "dir/*"
// would: sorted by name, with dotfiles left out.
func List(fs afero.Fs, dir string) ([]Entry, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		entries = append(entries, Entry{
			Name:  name,
			Path:  filepath.Join(dir, name),
			IsDir: info.IsDir(),
			Mode:  info.Mode(),
		})
	}
	return entries, nil
}

// Names returns the set of entry names in dir. A missing directory yields an
// empty set.
func Names(fs afero.Fs, dir string) (map[string]bool, error) {
	entries, err := List(fs, dir)
	if err != nil {
		if exists, _ := afero.DirExists(fs, dir); !exists {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name] = true
	}
	return names, nil
}

// CopyFile copies src to dst, creating missing parent directories and
// carrying over the permission bits. An existing dst is overwritten.
func CopyFile(fs afero.Fs, src, dst string) error {
	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}

	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}
