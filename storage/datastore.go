// Package storage defines the byte-level datastore contract that every
// backend implements, together with instrumentation wrappers.
//
// The contract is deliberately small: existence checks, version listing,
// byte reads, and byte writes. The single concurrency primitive the rest
// of the system depends on is the atomic fail-if-exists write: when
// overwrite is false and the path already holds content, Write must fail
// with ErrAlreadyExists without touching the stored bytes, even under
// concurrent writers.
//
// Supported backends:
//   - memory: for development and testing (storage/memory)
//   - file: for single-node deployments (storage/file)
//   - redis: for shared deployments (storage/redis)
//   - sqldb: SQL databases through GORM (storage/sqldb)
package storage

import (
	"context"
	"errors"
	"strings"
)

// Common errors returned by all backends.
var (
	// ErrNotFound is returned by Read when the path holds no content.
	ErrNotFound = errors.New("object not found")
	// ErrAlreadyExists is returned by Write when overwrite is false and
	// the path already holds content.
	ErrAlreadyExists = errors.New("object already exists")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("datastore is closed")
)

// Datastore is a pluggable storage backend. Paths are slash-separated keys
// relative to the datastore root; backends are free to map them to files,
// keys or rows.
type Datastore interface {
	// ID is the unique identifier of the datastore, used in artifact URIs.
	ID() string

	// Exists reports whether the path holds content.
	Exists(ctx context.Context, path string) (bool, error)

	// ListVersions returns the raw version names stored under the given
	// artifact. Names are returned as found; callers are responsible for
	// parsing and ordering them, and for skipping malformed ones.
	ListVersions(ctx context.Context, location, name string) ([]string, error)

	// Read returns the bytes stored at the path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores bytes at the path. When overwrite is false the write
	// must atomically fail with ErrAlreadyExists if the path already
	// holds content.
	Write(ctx context.Context, path string, data []byte, overwrite bool) error

	// Close releases backend resources.
	Close() error
}

// JoinPath joins slash-separated path components, trimming redundant
// slashes on the right of each part.
func JoinPath(parts ...string) string {
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSuffix(part, "/")
		if part != "" {
			trimmed = append(trimmed, part)
		}
	}
	return strings.Join(trimmed, "/")
}
