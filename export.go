package pond

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datrocity/pond/metadata"
	"github.com/datrocity/pond/storage"
)

// exportConcurrency bounds the number of versions copied in parallel.
const exportConcurrency = 4

// Export copies every version of the named artifact to another datastore,
// keeping the layout and manifests byte-identical. Versions already
// present in the destination are skipped, so a repeated export is
// idempotent. It returns the number of versions actually copied.
func (a *Activity) Export(ctx context.Context, name string, dest storage.Datastore, opts ...Option) (int, error) {
	o, err := a.applyOptions(opts)
	if err != nil {
		return 0, err
	}
	art := a.artifactAt(o.location, name)

	names, err := art.versionNames(ctx)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, NewError(ErrArtifactNotFound,
			"artifact %q has no versions in %s", name, o.location)
	}

	copied := make([]bool, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i, version := range names {
		g.Go(func() error {
			did, err := a.exportVersion(ctx, art, dest, version)
			if err != nil {
				return err
			}
			copied[i] = did
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	n := 0
	for _, did := range copied {
		if did {
			n++
		}
	}
	a.logger.Info("artifact exported",
		zap.String("artifact", name),
		zap.String("destination", dest.ID()),
		zap.Int("versions", len(names)),
		zap.Int("copied", n))
	return n, nil
}

func (a *Activity) exportVersion(ctx context.Context, art *versionedArtifact, dest storage.Datastore, version VersionName) (bool, error) {
	mPath := manifestPath(art.location, art.name, version)

	raw, err := art.store.Read(ctx, mPath)
	if err != nil {
		return false, NewError(ErrDatastoreUnavailable,
			"read manifest of %s %s", art.name, version).WithCause(err)
	}
	manifest, err := metadata.DecodeYAML(raw)
	if err != nil {
		return false, NewError(ErrDatastoreUnavailable,
			"corrupt manifest for %s %s", art.name, version).WithCause(err)
	}
	format, err := art.registry.ForName(manifest.SectionString(metadata.SectionVersion, versionKeyFormat))
	if err != nil {
		return false, NewError(ErrFormatNotFound,
			"version %s of artifact %q uses unknown format", version, art.name).WithCause(err)
	}
	dPath := dataPath(art.location, art.name, version, format.Extension())
	payload, err := art.store.Read(ctx, dPath)
	if err != nil {
		return false, NewError(ErrDatastoreUnavailable,
			"read payload of %s %s", art.name, version).WithCause(err)
	}

	// The manifest claim decides whether this version still needs copying.
	// Versions are immutable, so an existing destination manifest means
	// the whole version is already there.
	if err := dest.Write(ctx, mPath, raw, false); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return false, nil
		}
		return false, NewError(ErrDatastoreUnavailable,
			"export manifest of %s %s to %s", art.name, version, dest.ID()).WithCause(err)
	}
	if err := dest.Write(ctx, dPath, payload, true); err != nil {
		return false, NewError(ErrDatastoreUnavailable,
			"export payload of %s %s to %s", art.name, version, dest.ID()).WithCause(err)
	}
	return true, nil
}
