// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/wpconvert/pkg/types"
)

func listNames(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names
}

func setup(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/docs/originals", 0o755))
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, "/docs/"+f, []byte(f), 0o644))
	}
	return fs
}

func TestRun_Compat(t *testing.T) {
	tests := []struct {
		name   string
		files  []string
		ignore string
		want   []string
	}{
		{
			name:   "appends wpd to every non-ignored file",
			files:  []string{"letter", "memo.doc", "report.wpd"},
			ignore: ".doc",
			want:   []string{"letter.wpd", "memo.doc", "originals", "report.wpd.wpd"},
		},
		{
			name:   "pdf ignore extension skips pdf files",
			files:  []string{"letter", "old.pdf"},
			ignore: ".pdf",
			want:   []string{"letter.wpd", "old.pdf", "originals"},
		},
		{
			name:   "names contained in the backup path are left alone",
			files:  []string{"docs", "origin", "letter"},
			ignore: ".doc",
			want:   []string{"docs", "letter.wpd", "origin", "originals"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := setup(t, tt.files...)
			cfg := types.Config{Directory: "/docs", IgnoreExtension: tt.ignore, Mode: types.ModeCompat}

			report, err := Run(context.Background(), fs, cfg, &bytes.Buffer{}, true)
			require.NoError(t, err)
			assert.False(t, report.HasFailures())
			assert.Equal(t, tt.want, listNames(t, fs, "/docs"))
		})
	}
}

func TestRun_CompatTwiceDoublesSuffix(t *testing.T) {
	fs := setup(t, "letter")
	cfg := types.Config{Directory: "/docs", IgnoreExtension: ".doc", Mode: types.ModeCompat}

	for i := 0; i < 2; i++ {
		_, err := Run(context.Background(), fs, cfg, &bytes.Buffer{}, true)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"letter.wpd.wpd", "originals"}, listNames(t, fs, "/docs"))
}

func TestRun_Strict(t *testing.T) {
	fs := setup(t, "letter", "orphan", "memo.doc", "report.wpd")
	require.NoError(t, afero.WriteFile(fs, "/docs/originals/letter", []byte("letter"), 0o644))
	cfg := types.Config{Directory: "/docs", IgnoreExtension: ".doc", Mode: types.ModeStrict}

	report, err := Run(context.Background(), fs, cfg, &bytes.Buffer{}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"letter.wpd", "memo.doc", "originals", "orphan", "report.wpd"}, listNames(t, fs, "/docs"))
	assert.Equal(t, 1, report.Count(types.StatusDone))

	reasons := map[string]string{}
	for _, r := range report.Results {
		reasons[r.Source] = r.Reason
	}
	assert.Equal(t, "no backup copy", reasons["/docs/orphan"])
	assert.Equal(t, "already renamed", reasons["/docs/report.wpd"])
	assert.Equal(t, "ignored extension .doc", reasons["/docs/memo.doc"])
}

func TestRun_StrictIsIdempotent(t *testing.T) {
	fs := setup(t, "letter")
	require.NoError(t, afero.WriteFile(fs, "/docs/originals/letter", []byte("letter"), 0o644))
	cfg := types.Config{Directory: "/docs", IgnoreExtension: ".doc", Mode: types.ModeStrict}

	for i := 0; i < 2; i++ {
		_, err := Run(context.Background(), fs, cfg, &bytes.Buffer{}, true)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"letter.wpd", "originals"}, listNames(t, fs, "/docs"))
}

func TestRun_DryRun(t *testing.T) {
	fs := setup(t, "letter")
	cfg := types.Config{Directory: "/docs", IgnoreExtension: ".doc", Mode: types.ModeCompat, DryRun: true}

	var out bytes.Buffer
	report, err := Run(context.Background(), fs, cfg, &out, true)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Count(types.StatusPlanned))
	assert.Equal(t, "would rename /docs/letter to /docs/letter.wpd\n", out.String())
	assert.Equal(t, []string{"letter", "originals"}, listNames(t, fs, "/docs"))
}

func TestRun_RenameFailure(t *testing.T) {
	fs := &failingRenameFs{Fs: setup(t, "alpha", "beta")}
	cfg := types.Config{Directory: "/docs", IgnoreExtension: ".doc", Mode: types.ModeCompat}

	report, err := Run(context.Background(), fs, cfg, &bytes.Buffer{}, true)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, types.StatusFailed, report.Results[0].Status)
	assert.Contains(t, report.Results[0].Error, "renaming /docs/alpha")

	report, err = Run(context.Background(), fs, cfg, &bytes.Buffer{}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(types.StatusFailed))
}

func TestRun_MissingDirectory(t *testing.T) {
	cfg := types.Config{Directory: "/missing", IgnoreExtension: ".doc", Mode: types.ModeCompat}
	_, err := Run(context.Background(), afero.NewMemMapFs(), cfg, &bytes.Buffer{}, true)
	assert.Error(t, err)
}

type failingRenameFs struct {
	afero.Fs
}

func (f *failingRenameFs) Rename(oldname, newname string) error {
	return errors.New("device busy")
}

func TestRun_SubdirectoriesAreNotRenamed(t *testing.T) {
	for _, mode := range []types.Mode{types.ModeCompat, types.ModeStrict} {
		t.Run(string(mode), func(t *testing.T) {
			fs := setup(t)
			require.NoError(t, fs.MkdirAll("/docs/drafts", 0o755))
			cfg := types.Config{Directory: "/docs", IgnoreExtension: ".doc", Mode: mode}

			report, err := Run(context.Background(), fs, cfg, &bytes.Buffer{}, true)
			require.NoError(t, err)

			assert.Equal(t, []string{"drafts", "originals"}, listNames(t, fs, "/docs"))
			require.Len(t, report.Results, 2)
			for _, r := range report.Results {
				assert.Equal(t, types.StatusSkipped, r.Status, r.Source)
				assert.Equal(t, "directory", r.Reason, r.Source)
			}
		})
	}
}
