// Package file implements a datastore on a local filesystem, for
// single-node deployments.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/datrocity/pond/storage"
)

// Datastore maps object paths to files under a base directory.
//
// The fail-if-exists write relies on O_CREATE|O_EXCL, which is atomic on
// local filesystems. Overwrites go through a temp file plus rename so
// readers never observe partial content.
type Datastore struct {
	id       string
	basePath string
	logger   *zap.Logger
}

// Option configures the datastore.
type Option func(*Datastore)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Datastore) { d.logger = logger }
}

// New creates a file datastore rooted at basePath. The base path must
// exist and be a directory.
func New(id, basePath string, opts ...Option) (*Datastore, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("base path %s: %w", basePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path %s is not a directory", basePath)
	}

	d := &Datastore{
		id:       id,
		basePath: basePath,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Datastore) ID() string { return d.id }

func (d *Datastore) fullPath(path string) string {
	return filepath.Join(d.basePath, filepath.FromSlash(path))
}

func (d *Datastore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(d.fullPath(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (d *Datastore) ListVersions(ctx context.Context, location, name string) ([]string, error) {
	dir := d.fullPath(storage.JoinPath(location, name))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list versions in %s: %w", dir, err)
	}

	var versions []string
	for _, entry := range entries {
		if entry.IsDir() {
			versions = append(versions, entry.Name())
		}
	}
	return versions, nil
}

func (d *Datastore) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(d.fullPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (d *Datastore) Write(ctx context.Context, path string, data []byte, overwrite bool) error {
	full := d.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", path, err)
	}

	if !overwrite {
		return d.writeExclusive(path, full, data)
	}

	// Write to a temp file first, then rename.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// writeExclusive creates the file with O_EXCL, so exactly one of several
// concurrent writers succeeds.
func (d *Datastore) writeExclusive(path, full string, data []byte) error {
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return storage.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		d.logger.Warn("partial exclusive write", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (d *Datastore) Close() error { return nil }

var _ storage.Datastore = (*Datastore)(nil)
