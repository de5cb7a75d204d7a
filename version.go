package pond

import (
	"github.com/datrocity/pond/metadata"
	"github.com/datrocity/pond/uri"
)

// Version is one immutable, fully materialized version of an artifact:
// its data, its manifest and the URI it can be re-read from.
type Version struct {
	// ArtifactName is the name of the artifact this version belongs to.
	ArtifactName string
	// Name is the numeric version name, rendered as "v<n>".
	Name VersionName
	// URI locates this exact version.
	URI uri.URI
	// Manifest carries lineage, user metadata and version bookkeeping.
	Manifest *metadata.Manifest
	// Data is the deserialized payload.
	Data any
}
