package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datrocity/pond/internal/metrics"
	"github.com/datrocity/pond/storage"
	"github.com/datrocity/pond/storage/memory"
)

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "a/b/c", storage.JoinPath("a/", "b", "c"))
	assert.Equal(t, "a/b", storage.JoinPath("a", "", "b"))
	assert.Equal(t, "", storage.JoinPath())
}

func TestInstrumented(t *testing.T) {
	collector := metrics.NewCollector("pond_test", prometheus.NewRegistry())
	ds := storage.NewInstrumented(memory.New("mem"), collector)
	ctx := context.Background()

	assert.Equal(t, "mem", ds.ID())

	require.NoError(t, ds.Write(ctx, "exp/t/v1/data", []byte("abc"), false))
	got, err := ds.Read(ctx, "exp/t/v1/data")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	ok, err := ds.Exists(ctx, "exp/t/v1/data")
	require.NoError(t, err)
	assert.True(t, ok)

	names, err := ds.ListVersions(ctx, "exp", "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, names)

	_, err = ds.Read(ctx, "exp/t/v1/missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, ds.Close())
}

func TestRateLimited(t *testing.T) {
	ds := storage.NewRateLimited(memory.New("mem"), 1000, 1)
	ctx := context.Background()

	require.NoError(t, ds.Write(ctx, "exp/t/v1/data", []byte("x"), false))
	got, err := ds.Read(ctx, "exp/t/v1/data")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestRateLimitedHonorsContext(t *testing.T) {
	// One op per hour with burst 1: the second call must block until the
	// context expires.
	ds := storage.NewRateLimited(memory.New("mem"), 1.0/3600, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, ds.Write(ctx, "exp/t/v1/a", []byte("x"), false))
	err := ds.Write(ctx, "exp/t/v1/b", []byte("y"), false)
	assert.Error(t, err)
}

func TestTraced(t *testing.T) {
	// No tracer provider configured: spans are noop, behavior unchanged.
	ds := storage.NewTraced(memory.New("mem"))
	ctx := context.Background()

	require.NoError(t, ds.Write(ctx, "exp/t/v1/data", []byte("x"), false))
	err := ds.Write(ctx, "exp/t/v1/data", []byte("y"), false)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := ds.Read(ctx, "exp/t/v1/data")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}
