// Package artifact defines the format plugin contract used to serialize
// artifact payloads, and the bundled formats: JSON documents, CSV tables,
// and raw bytes.
//
// A format that can embed the manifest in its payload produces
// self-contained artifacts: the metadata survives even when the payload
// file is copied out of the store. Formats that cannot embed rely on the
// manifest sidecar written next to the payload.
package artifact

import (
	"errors"

	"github.com/datrocity/pond/metadata"
)

// Sentinel errors.
var (
	// ErrFormatNotFound is returned by the registry when no format can
	// handle the requested data type or format name.
	ErrFormatNotFound = errors.New("artifact format not found")
	// ErrIncompatibleData is returned by Serialize when the data is not
	// of the type the format handles.
	ErrIncompatibleData = errors.New("data incompatible with artifact format")
)

// Format serializes one kind of artifact payload.
type Format interface {
	// Name is the unique format identifier, e.g. "json".
	Name() string

	// Extension is the payload filename extension, without the dot.
	Extension() string

	// EmbedsManifest reports whether Serialize embeds the manifest
	// in-band in the payload. When false the manifest is only stored in
	// the sidecar.
	EmbedsManifest() bool

	// Serialize renders the data, embedding the manifest when the format
	// supports it. A nil manifest must yield deterministic content-only
	// bytes; those bytes are what the content digest is computed over.
	Serialize(data any, manifest *metadata.Manifest) ([]byte, error)

	// Deserialize parses a payload. The returned manifest is nil when
	// the format does not embed one.
	Deserialize(payload []byte) (any, *metadata.Manifest, error)
}
