// Package storagetest provides a conformance suite run against every
// datastore backend.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datrocity/pond/storage"
)

// Factory returns a fresh, empty datastore for one test.
type Factory func(t *testing.T) storage.Datastore

// Run exercises the Datastore contract against the given backend.
func Run(t *testing.T, newDatastore Factory) {
	t.Run("ReadMissing", func(t *testing.T) {
		ds := newDatastore(t)
		_, err := ds.Read(context.Background(), "exp/table/v1/data")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("WriteReadRoundTrip", func(t *testing.T) {
		ds := newDatastore(t)
		ctx := context.Background()

		payload := []byte("col_a,col_b\n1,2\n")
		require.NoError(t, ds.Write(ctx, "exp/table/v1/data.csv", payload, false))

		got, err := ds.Read(ctx, "exp/table/v1/data.csv")
		require.NoError(t, err)
		assert.Equal(t, payload, got)

		ok, err := ds.Exists(ctx, "exp/table/v1/data.csv")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = ds.Exists(ctx, "exp/table/v1/other")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("FailIfExists", func(t *testing.T) {
		ds := newDatastore(t)
		ctx := context.Background()

		require.NoError(t, ds.Write(ctx, "exp/table/v1/manifest.yml", []byte("a"), false))
		err := ds.Write(ctx, "exp/table/v1/manifest.yml", []byte("b"), false)
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)

		// The loser must not have clobbered the stored bytes.
		got, err := ds.Read(ctx, "exp/table/v1/manifest.yml")
		require.NoError(t, err)
		assert.Equal(t, []byte("a"), got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		ds := newDatastore(t)
		ctx := context.Background()

		require.NoError(t, ds.Write(ctx, "exp/table/v1/data", []byte("old"), false))
		require.NoError(t, ds.Write(ctx, "exp/table/v1/data", []byte("new"), true))

		got, err := ds.Read(ctx, "exp/table/v1/data")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)
	})

	t.Run("OverwriteCreates", func(t *testing.T) {
		ds := newDatastore(t)
		ctx := context.Background()

		require.NoError(t, ds.Write(ctx, "exp/table/v1/data", []byte("x"), true))
		got, err := ds.Read(ctx, "exp/table/v1/data")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), got)
	})

	t.Run("ListVersions", func(t *testing.T) {
		ds := newDatastore(t)
		ctx := context.Background()

		names, err := ds.ListVersions(ctx, "exp", "table")
		require.NoError(t, err)
		assert.Empty(t, names)

		require.NoError(t, ds.Write(ctx, "exp/table/v1/manifest.yml", []byte("m"), false))
		require.NoError(t, ds.Write(ctx, "exp/table/v1/data.csv", []byte("d"), false))
		require.NoError(t, ds.Write(ctx, "exp/table/v2/manifest.yml", []byte("m"), false))
		require.NoError(t, ds.Write(ctx, "exp/table/v10/manifest.yml", []byte("m"), false))
		require.NoError(t, ds.Write(ctx, "exp/other/v7/manifest.yml", []byte("m"), false))

		names, err = ds.ListVersions(ctx, "exp", "table")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"v1", "v2", "v10"}, names)
	})

	t.Run("ConcurrentFailIfExists", func(t *testing.T) {
		ds := newDatastore(t)
		ctx := context.Background()

		const writers = 8
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = ds.Write(ctx, "exp/table/v1/manifest.yml", []byte{byte(i)}, false)
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				assert.ErrorIs(t, err, storage.ErrAlreadyExists)
			}
		}
		assert.Equal(t, 1, winners, "exactly one concurrent writer must win")
	})
}
