// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wpconvert/internal/retry"
)

// fakeRunner pretends to be LibreOffice: it writes <stem>.pdf into the
// --outdir argument unless configured to fail.
type fakeRunner struct {
	onPath  map[string]bool
	output  string
	err     error
	noWrite bool
	args    []string
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (f *fakeRunner) Run(_ context.Context, _ string, args []string) ([]byte, error) {
	f.args = args
	if f.err != nil {
		return []byte(f.output), f.err
	}
	if f.noWrite {
		return []byte(f.output), nil
	}
	var outDir string
	for i, a := range args {
		if a == "--outdir" && i+1 < len(args) {
			outDir = args[i+1]
		}
	}
	src := args[len(args)-1]
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	return []byte(f.output), os.WriteFile(filepath.Join(outDir, stem+".pdf"), []byte("%PDF-1.7 "+base), 0o644)
}

func TestNewSofficeConverter(t *testing.T) {
	tests := []struct {
		name    string
		bin     string
		onPath  map[string]bool
		wantBin string
		wantErr string
	}{
		{name: "prefers soffice", onPath: map[string]bool{"soffice": true, "libreoffice": true}, wantBin: "/usr/bin/soffice"},
		{name: "falls back to libreoffice", onPath: map[string]bool{"libreoffice": true}, wantBin: "/usr/bin/libreoffice"},
		{name: "configured binary", bin: "lowriter", onPath: map[string]bool{"lowriter": true, "soffice": true}, wantBin: "/usr/bin/lowriter"},
		{name: "configured binary missing", bin: "lowriter", onPath: map[string]bool{"soffice": true}, wantErr: "tried lowriter"},
		{name: "nothing installed", onPath: map[string]bool{}, wantErr: "tried soffice, libreoffice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newSofficeConverter(tt.bin, &fakeRunner{onPath: tt.onPath})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBin, c.Bin())
		})
	}
}

func TestSofficeConverter_Convert(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.wpd.wpd")
	require.NoError(t, os.WriteFile(src, []byte("\xffWPC"), 0o644))
	dst := filepath.Join(dir, "report.wpd.wpd.pdf")

	runner := &fakeRunner{onPath: map[string]bool{"soffice": true}}
	c, err := newSofficeConverter("", runner)
	require.NoError(t, err)

	require.NoError(t, c.Convert(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 report.wpd.wpd", string(data))
	assert.Contains(t, runner.args, "--headless")
	assert.Contains(t, runner.args, "pdf")
	assert.True(t, strings.HasPrefix(runner.args[0], "-env:UserInstallation=file://"))
}

func TestSofficeConverter_Errors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "letter.wpd")
	require.NoError(t, os.WriteFile(src, []byte("doc"), 0o644))
	dst := filepath.Join(dir, "letter.wpd.pdf")

	t.Run("engine failure carries output", func(t *testing.T) {
		runner := &fakeRunner{onPath: map[string]bool{"soffice": true}, err: errors.New("exit status 1"), output: "Error: source file could not be loaded\n"}
		c, err := newSofficeConverter("", runner)
		require.NoError(t, err)

		err = c.Convert(context.Background(), src, dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source file could not be loaded")
		assert.NotErrorIs(t, err, retry.ErrPermanent)
	})

	t.Run("no output file", func(t *testing.T) {
		runner := &fakeRunner{onPath: map[string]bool{"soffice": true}, noWrite: true}
		c, err := newSofficeConverter("", runner)
		require.NoError(t, err)

		err = c.Convert(context.Background(), src, dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "produced no output")
	})

	t.Run("missing source is permanent", func(t *testing.T) {
		c, err := newSofficeConverter("", &fakeRunner{onPath: map[string]bool{"soffice": true}})
		require.NoError(t, err)

		err = c.Convert(context.Background(), filepath.Join(dir, "gone"), dst)
		assert.ErrorIs(t, err, retry.ErrPermanent)
	})

	t.Run("directory source is permanent", func(t *testing.T) {
		c, err := newSofficeConverter("", &fakeRunner{onPath: map[string]bool{"soffice": true}})
		require.NoError(t, err)

		err = c.Convert(context.Background(), dir, dst)
		assert.ErrorIs(t, err, retry.ErrPermanent)
	})
}

// fakeRuntime implements container.Runtime.
type fakeRuntime struct {
	images map[string]bool
	run    func(stdin io.Reader, stdout io.Writer) error
}

func (f *fakeRuntime) Name() string                   { return "docker" }
func (f *fakeRuntime) Available(context.Context) bool { return true }

func (f *fakeRuntime) ImageExists(_ context.Context, image string) error {
	if f.images[image] {
		return nil
	}
	return errors.New("image " + image + " not found")
}

func (f *fakeRuntime) Run(_ context.Context, _ string, stdin io.Reader, stdout io.Writer) error {
	return f.run(stdin, stdout)
}

func TestNewContainerConverter(t *testing.T) {
	rt := &fakeRuntime{images: map[string]bool{DefaultImage: true}}

	c, err := NewContainerConverter(context.Background(), rt, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultImage, c.image)

	_, err = NewContainerConverter(context.Background(), rt, "other:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversion image not available in docker")
}

func TestContainerConverter_Convert(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "letter.wpd")
	require.NoError(t, os.WriteFile(src, []byte("WPC body"), 0o644))
	dst := filepath.Join(dir, "letter.wpd.pdf")

	rt := &fakeRuntime{
		images: map[string]bool{DefaultImage: true},
		run: func(stdin io.Reader, stdout io.Writer) error {
			data, _ := io.ReadAll(stdin)
			_, err := stdout.Write(append([]byte("%PDF-1.7 "), data...))
			return err
		},
	}
	c, err := NewContainerConverter(context.Background(), rt, "")
	require.NoError(t, err)

	require.NoError(t, c.Convert(context.Background(), src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 WPC body", string(data))

	_, err = os.Stat(dst + ".part")
	assert.True(t, os.IsNotExist(err))
}

func TestContainerConverter_RejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "letter.wpd")
	require.NoError(t, os.WriteFile(src, []byte("WPC body"), 0o644))
	dst := filepath.Join(dir, "letter.wpd.pdf")

	rt := &fakeRuntime{
		images: map[string]bool{DefaultImage: true},
		run: func(_ io.Reader, stdout io.Writer) error {
			_, err := stdout.Write([]byte("usage: soffice ..."))
			return err
		},
	}
	c, err := NewContainerConverter(context.Background(), rt, "")
	require.NoError(t, err)

	err = c.Convert(context.Background(), src, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no PDF")
	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}
