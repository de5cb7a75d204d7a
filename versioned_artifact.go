package pond

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/datrocity/pond/artifact"
	"github.com/datrocity/pond/metadata"
	"github.com/datrocity/pond/storage"
	"github.com/datrocity/pond/uri"
)

// WriteMode selects what happens when the target version already exists.
type WriteMode string

const (
	// ErrorIfExists fails when the target version exists. Default.
	ErrorIfExists WriteMode = "error-if-exists"
	// WriteOnChange writes a new version only when the content digest
	// differs from the latest version; identical content is a no-op.
	WriteOnChange WriteMode = "write-on-change"
	// Overwrite replaces the latest (or the named) version in place. The
	// version count never grows while versions exist.
	Overwrite WriteMode = "overwrite"
)

// ParseWriteMode parses a mode string from config or CLI flags.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case ErrorIfExists, WriteOnChange, Overwrite:
		return WriteMode(s), nil
	case "":
		return ErrorIfExists, nil
	}
	return "", fmt.Errorf("unknown write mode %q", s)
}

// Keys of the manifest "version" section.
const (
	versionKeyArtifact = "artifact_name"
	versionKeyName     = "version_name"
	versionKeyFormat   = "format"
	versionKeyDigest   = "digest"
	versionKeyURI      = "uri"
)

// versionedArtifact resolves and executes reads and writes for one
// artifact in one datastore location. It holds no version state: every
// call resolves against a fresh backend listing, and the atomic
// fail-if-exists manifest write decides races.
type versionedArtifact struct {
	store    storage.Datastore
	location string
	name     string
	registry *artifact.Registry
	logger   *zap.Logger
}

// writeRequest carries the per-call write parameters.
type writeRequest struct {
	mode     WriteMode
	explicit *VersionName
	format   artifact.Format // nil: resolve from data type
}

// writeTarget is the outcome of resolution: where to write, or that the
// write is a no-op.
type writeTarget struct {
	version   VersionName
	overwrite bool
	skip      bool
}

func (a *versionedArtifact) versionNames(ctx context.Context) ([]VersionName, error) {
	raw, err := a.store.ListVersions(ctx, a.location, a.name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, NewError(ErrDatastoreUnavailable,
			"list versions of %s/%s", a.location, a.name).WithCause(err)
	}
	return parseVersionNames(raw), nil
}

func (a *versionedArtifact) uriFor(version VersionName) uri.URI {
	return uri.New(a.store.ID(), a.location, a.name, version.String())
}

func (a *versionedArtifact) readManifest(ctx context.Context, version VersionName) (*metadata.Manifest, error) {
	raw, err := a.store.Read(ctx, manifestPath(a.location, a.name, version))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewError(ErrVersionNotFound,
				"version %s of artifact %q not found in %s", version, a.name, a.location)
		}
		return nil, NewError(ErrDatastoreUnavailable,
			"read manifest of %s %s", a.name, version).WithCause(err)
	}
	m, err := metadata.DecodeYAML(raw)
	if err != nil {
		return nil, NewError(ErrDatastoreUnavailable,
			"corrupt manifest for %s %s", a.name, version).WithCause(err)
	}
	return m, nil
}

// digestOf returns the stored content digest of a version, or "" when the
// version or its digest cannot be read. "" never matches a real digest,
// so an unreadable version simply counts as changed.
func (a *versionedArtifact) digestOf(ctx context.Context, version VersionName) string {
	m, err := a.readManifest(ctx, version)
	if err != nil {
		return ""
	}
	return m.SectionString(metadata.SectionVersion, versionKeyDigest)
}

func (a *versionedArtifact) latest(ctx context.Context) (VersionName, error) {
	names, err := a.versionNames(ctx)
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, NewError(ErrArtifactNotFound,
			"artifact %q has no versions in %s", a.name, a.location)
	}
	return names[len(names)-1], nil
}

// resolveFormat picks the format for a write: the explicit one if given,
// otherwise by the data's Go type.
func (a *versionedArtifact) resolveFormat(req writeRequest, data any) (artifact.Format, error) {
	if req.format != nil {
		return req.format, nil
	}
	f, err := a.registry.ForData(data)
	if err != nil {
		return nil, NewError(ErrFormatNotFound,
			"no format registered for %T", data).WithCause(err)
	}
	return f, nil
}

// resolveTarget applies the write-mode rules against the current listing.
// digest is the content digest of the data being written.
func (a *versionedArtifact) resolveTarget(ctx context.Context, req writeRequest, digest string) (writeTarget, error) {
	names, err := a.versionNames(ctx)
	if err != nil {
		return writeTarget{}, err
	}

	if req.explicit != nil {
		return a.resolveExplicit(ctx, req, *req.explicit, names, digest)
	}

	if len(names) == 0 {
		// Every mode creates v1 when the artifact does not exist yet.
		return writeTarget{version: FirstVersionName()}, nil
	}
	latest := names[len(names)-1]

	switch req.mode {
	case WriteOnChange:
		if a.digestOf(ctx, latest) == digest {
			return writeTarget{version: latest, skip: true}, nil
		}
		return writeTarget{version: latest.Next()}, nil
	case Overwrite:
		return writeTarget{version: latest, overwrite: true}, nil
	default: // ErrorIfExists
		return writeTarget{version: latest.Next()}, nil
	}
}

func (a *versionedArtifact) resolveExplicit(ctx context.Context, req writeRequest, target VersionName, names []VersionName, digest string) (writeTarget, error) {
	exists := false
	for _, n := range names {
		if n == target {
			exists = true
			break
		}
	}
	if !exists {
		return writeTarget{version: target}, nil
	}

	switch req.mode {
	case Overwrite:
		return writeTarget{version: target, overwrite: true}, nil
	case WriteOnChange:
		if a.digestOf(ctx, target) == digest {
			return writeTarget{version: target, skip: true}, nil
		}
		// Changed content under an explicit name cannot silently pick a
		// different name; refusing keeps the name/content pairing stable.
		return writeTarget{}, NewError(ErrVersionAlreadyExists,
			"version %s of artifact %q exists with different content", target, a.name)
	default:
		return writeTarget{}, NewError(ErrVersionAlreadyExists,
			"version %s of artifact %q already exists", target, a.name)
	}
}

// write serializes, resolves the target version and commits it. The
// returned bool is false for a WriteOnChange no-op, where the returned
// Version describes the already existing one.
func (a *versionedArtifact) write(ctx context.Context, data any, manifest *metadata.Manifest, req writeRequest) (*Version, bool, error) {
	format, err := a.resolveFormat(req, data)
	if err != nil {
		return nil, false, err
	}

	// The digest covers the content-only serialization, so embedding
	// formats do not fold the timestamped manifest into it.
	content, err := format.Serialize(data, nil)
	if err != nil {
		return nil, false, NewError(ErrFormatNotFound,
			"serialize %s artifact %q", format.Name(), a.name).WithCause(err)
	}
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	target, err := a.resolveTarget(ctx, req, digest)
	if err != nil {
		return nil, false, err
	}
	if target.skip {
		existing, err := a.read(ctx, &target.version)
		if err != nil {
			return nil, false, err
		}
		a.logger.Debug("write skipped, content unchanged",
			zap.String("artifact", a.name),
			zap.Stringer("version", target.version))
		return existing, false, nil
	}

	versionURI := a.uriFor(target.version)
	manifest.SetSection(metadata.SectionVersion, map[string]any{
		versionKeyArtifact: a.name,
		versionKeyName:     target.version.String(),
		versionKeyFormat:   format.Name(),
		versionKeyDigest:   digest,
		versionKeyURI:      versionURI.String(),
	})

	encoded, err := manifest.EncodeYAML()
	if err != nil {
		return nil, false, NewError(ErrDatastoreUnavailable,
			"encode manifest for %s %s", a.name, target.version).WithCause(err)
	}

	// The manifest goes in first with overwrite deciding the claim: a
	// concurrent writer racing for the same version name loses here and
	// leaves nothing behind.
	err = a.store.Write(ctx, manifestPath(a.location, a.name, target.version), encoded, target.overwrite)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, false, NewError(ErrVersionAlreadyExists,
				"version %s of artifact %q already exists", target.version, a.name)
		}
		return nil, false, NewError(ErrDatastoreUnavailable,
			"write manifest of %s %s", a.name, target.version).WithCause(err)
	}

	payload := content
	if format.EmbedsManifest() {
		payload, err = format.Serialize(data, manifest)
		if err != nil {
			return nil, false, NewError(ErrFormatNotFound,
				"serialize %s artifact %q", format.Name(), a.name).WithCause(err)
		}
	}
	path := dataPath(a.location, a.name, target.version, format.Extension())
	if err := a.store.Write(ctx, path, payload, true); err != nil {
		return nil, false, NewError(ErrDatastoreUnavailable,
			"write payload of %s %s", a.name, target.version).WithCause(err)
	}

	a.logger.Info("artifact version written",
		zap.String("artifact", a.name),
		zap.Stringer("version", target.version),
		zap.String("format", format.Name()),
		zap.Bool("overwrite", target.overwrite),
		zap.Int("bytes", len(payload)))

	return &Version{
		ArtifactName: a.name,
		Name:         target.version,
		URI:          versionURI,
		Manifest:     manifest,
		Data:         data,
	}, true, nil
}

// read materializes a version. A nil version means the latest.
func (a *versionedArtifact) read(ctx context.Context, version *VersionName) (*Version, error) {
	var target VersionName
	if version != nil {
		target = *version
	} else {
		latest, err := a.latest(ctx)
		if err != nil {
			return nil, err
		}
		target = latest
	}

	manifest, err := a.readManifest(ctx, target)
	if err != nil {
		return nil, err
	}

	formatName := manifest.SectionString(metadata.SectionVersion, versionKeyFormat)
	format, err := a.registry.ForName(formatName)
	if err != nil {
		return nil, NewError(ErrFormatNotFound,
			"version %s of artifact %q uses unknown format %q", target, a.name, formatName).WithCause(err)
	}

	payload, err := a.store.Read(ctx, dataPath(a.location, a.name, target, format.Extension()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewError(ErrVersionNotFound,
				"payload of %s %s is missing", a.name, target)
		}
		return nil, NewError(ErrDatastoreUnavailable,
			"read payload of %s %s", a.name, target).WithCause(err)
	}

	data, _, err := format.Deserialize(payload)
	if err != nil {
		return nil, NewError(ErrDatastoreUnavailable,
			"deserialize %s %s", a.name, target).WithCause(err)
	}

	// The sidecar manifest is authoritative; an embedded copy is only a
	// convenience for readers outside the store.
	return &Version{
		ArtifactName: a.name,
		Name:         target,
		URI:          a.uriFor(target),
		Manifest:     manifest,
		Data:         data,
	}, nil
}
