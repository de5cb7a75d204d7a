// Package memory implements an in-memory datastore, for development and
// testing.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/datrocity/pond/storage"
)

// Datastore stores objects in a process-local map. The mutex makes the
// fail-if-exists write atomic with respect to concurrent writers.
type Datastore struct {
	id      string
	mu      sync.RWMutex
	objects map[string][]byte
	closed  bool
}

// New creates an empty in-memory datastore with the given id.
func New(id string) *Datastore {
	return &Datastore{
		id:      id,
		objects: make(map[string][]byte),
	}
}

func (d *Datastore) ID() string { return d.id }

func (d *Datastore) Exists(ctx context.Context, path string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false, storage.ErrClosed
	}
	_, ok := d.objects[path]
	return ok, nil
}

func (d *Datastore) ListVersions(ctx context.Context, location, name string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, storage.ErrClosed
	}

	prefix := storage.JoinPath(location, name) + "/"
	seen := make(map[string]struct{})
	var versions []string
	for path := range d.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		version, _, ok := strings.Cut(rest, "/")
		if !ok || version == "" {
			continue
		}
		if _, dup := seen[version]; dup {
			continue
		}
		seen[version] = struct{}{}
		versions = append(versions, version)
	}
	return versions, nil
}

func (d *Datastore) Read(ctx context.Context, path string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, storage.ErrClosed
	}
	data, ok := d.objects[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (d *Datastore) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return storage.ErrClosed
	}
	if _, exists := d.objects[path]; exists && !overwrite {
		return storage.ErrAlreadyExists
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	d.objects[path] = stored
	return nil
}

func (d *Datastore) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

var _ storage.Datastore = (*Datastore)(nil)
