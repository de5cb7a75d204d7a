package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datrocity/pond/artifact"
	"github.com/datrocity/pond/metadata"
	"github.com/datrocity/pond/storage/file"
	"github.com/datrocity/pond/storage/memory"
)

// TestContext returns a context bounded to 30 seconds, cancelled on test
// cleanup.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already cancelled context, for exercising
// cancellation paths.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// TempMemoryStore returns an in-memory datastore closed on cleanup.
func TempMemoryStore(t *testing.T, id string) *memory.Datastore {
	t.Helper()
	store := memory.New(id)
	t.Cleanup(func() { store.Close() })
	return store
}

// TempFileStore returns a file datastore rooted in a temporary directory.
func TempFileStore(t *testing.T, id string) *file.Datastore {
	t.Helper()
	store, err := file.New(id, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// SampleDocument returns a small experiment-parameters document.
func SampleDocument() artifact.Document {
	return artifact.Document{
		"learning_rate": 0.01,
		"batch_size":    32.0,
		"optimizer":     "adam",
	}
}

// SampleTable returns a small results table.
func SampleTable() artifact.Table {
	return artifact.Table{
		Columns: []string{"epoch", "loss", "accuracy"},
		Rows: [][]string{
			{"1", "1.92", "0.41"},
			{"2", "1.03", "0.67"},
			{"3", "0.71", "0.81"},
		},
	}
}

// SampleManifest returns a manifest with user and lineage sections
// filled in.
func SampleManifest() *metadata.Manifest {
	m := metadata.NewManifest()
	m.AddSection(metadata.DictSource{
		Name:   metadata.SectionUser,
		Values: map[string]any{"experiment": "exp-1"},
	})
	m.AddSection(metadata.Lineage{
		Source:    "train.go",
		Author:    "ada",
		Timestamp: time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
	})
	return m
}
