package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datrocity/pond/storage"
	"github.com/datrocity/pond/storage/storagetest"
)

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Datastore {
		ds, err := New("fs", t.TempDir())
		require.NoError(t, err)
		return ds
	})
}

func TestNewValidatesBasePath(t *testing.T) {
	_, err := New("fs", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	// A regular file is not an acceptable base path.
	dir := t.TempDir()
	ds, err := New("fs", dir)
	require.NoError(t, err)
	require.NoError(t, ds.Write(context.Background(), "plain", []byte("x"), false))
	_, err = New("fs", filepath.Join(dir, "plain"))
	assert.Error(t, err)
}

func TestListVersionsIgnoresFiles(t *testing.T) {
	ds, err := New("fs", t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ds.Write(ctx, "exp/table/v1/manifest.yml", []byte("m"), false))
	// A stray file next to the version directories must not show up.
	require.NoError(t, ds.Write(ctx, "exp/table/notes.txt", []byte("n"), false))

	names, err := ds.ListVersions(ctx, "exp", "table")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, names)
}
