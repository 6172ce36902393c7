// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/wpconvert/internal/fsutil"
	"github.com/pdiddy/wpconvert/internal/retry"
)

// sofficeCandidates are tried in order when no binary is configured.
var sofficeCandidates = []string{"soffice", "libreoffice"}

// commandRunner abstracts process execution for testing.
type commandRunner interface {
	LookPath(file string) (string, error)
	// Run executes name with args and returns its combined output.
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

type osRunner struct{}

func (osRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// SofficeConverter converts documents with a local LibreOffice install
// running headless. Each conversion gets a private profile directory so
// concurrent LibreOffice sessions of the user do not block it.
type SofficeConverter struct {
	bin string
	run commandRunner
}

// NewSofficeConverter resolves the LibreOffice binary. An empty bin searches
// PATH for soffice, then libreoffice.
func NewSofficeConverter(bin string) (*SofficeConverter, error) {
	return newSofficeConverter(bin, osRunner{})
}

func newSofficeConverter(bin string, run commandRunner) (*SofficeConverter, error) {
	candidates := sofficeCandidates
	if bin != "" {
		candidates = []string{bin}
	}
	for _, c := range candidates {
		if path, err := run.LookPath(c); err == nil {
			return &SofficeConverter{bin: path, run: run}, nil
		}
	}
	return nil, fmt.Errorf("LibreOffice not found: tried %s", strings.Join(candidates, ", "))
}

// Bin returns the resolved binary path.
func (s *SofficeConverter) Bin() string { return s.bin }

// Convert runs soffice --convert-to pdf into a scratch directory and copies
// the produced file to dst.
func (s *SofficeConverter) Convert(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return retry.Permanent(fmt.Errorf("reading source: %w", err))
	}
	if info.IsDir() {
		return retry.Permanent(errors.New("source is a directory"))
	}

	scratch, err := os.MkdirTemp("", "wpconvert-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	outDir := filepath.Join(scratch, "out")
	profile := "file://" + filepath.ToSlash(filepath.Join(scratch, "profile"))
	args := []string{
		"-env:UserInstallation=" + profile,
		"--headless",
		"--norestore",
		"--convert-to", "pdf",
		"--outdir", outDir,
		src,
	}

	out, err := s.run.Run(ctx, s.bin, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("soffice: %w", ctxErr)
		}
		return fmt.Errorf("soffice: %w: %s", err, strings.TrimSpace(string(out)))
	}

	base := filepath.Base(src)
	produced := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("soffice produced no output for %s: %s", src, strings.TrimSpace(string(out)))
	}

	return fsutil.CopyFile(afero.NewOsFs(), produced, dst)
}
