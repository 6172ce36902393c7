// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fsutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/docs/b.doc", []byte("b"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/docs/a.wp", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/docs/.hidden", []byte("h"), 0o644))
	require.NoError(t, fs.MkdirAll("/docs/originals", 0o755))

	entries, err := List(fs, "/docs")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.wp", "b.doc", "originals"}, names)
	assert.Equal(t, "/docs/a.wp", entries[0].Path)
	assert.True(t, entries[2].IsDir)
}

func TestList_MissingDirectory(t *testing.T) {
	_, err := List(afero.NewMemMapFs(), "/nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing /nope")
}

func TestNames(t *testing.T) {
	fs := afero.NewMemMapFs()

	names, err := Names(fs, "/docs/originals")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, afero.WriteFile(fs, "/docs/originals/letter", []byte("x"), 0o644))
	names, err = Names(fs, "/docs/originals")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"letter": true}, names)
}

func TestCopyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("\xffWPC legacy bytes\x00\x01")
	require.NoError(t, afero.WriteFile(fs, "/docs/memo", content, 0o640))

	require.NoError(t, CopyFile(fs, "/docs/memo", "/docs/originals/memo"))

	got, err := afero.ReadFile(fs, "/docs/originals/memo")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	info, err := fs.Stat("/docs/originals/memo")
	require.NoError(t, err)
	assert.Equal(t, "-rw-r-----", info.Mode().Perm().String())
}

func TestCopyFile_MissingSource(t *testing.T) {
	err := CopyFile(afero.NewMemMapFs(), "/docs/gone", "/docs/originals/gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening /docs/gone")
}
