package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datrocity/pond/storage"
	"github.com/datrocity/pond/storage/storagetest"
)

func newTestDatastore(t *testing.T) *Datastore {
	mr := miniredis.RunT(t)
	ds, err := New("redis-test", Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Datastore {
		return newTestDatastore(t)
	})
}

func TestKeyPrefixIsolation(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	a, err := New("a", Config{Addr: mr.Addr(), KeyPrefix: "a:"})
	require.NoError(t, err)
	defer a.Close()
	b, err := New("b", Config{Addr: mr.Addr(), KeyPrefix: "b:"})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Write(ctx, "exp/table/v1/manifest.yml", []byte("m"), false))

	_, err = b.Read(ctx, "exp/table/v1/manifest.yml")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	names, err := b.ListVersions(ctx, "exp", "table")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestConnectFailure(t *testing.T) {
	_, err := New("down", Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
