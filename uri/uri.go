// Package uri defines the canonical pond:// identifier for a stored
// artifact version and its parse/format round-trip.
//
// The canonical string form is
//
//	pond://<datastore>/<location>/<name>/<version>
//
// where <location> may itself contain slashes (folder-like grouping inside
// a datastore), while <datastore>, <name> and <version> are single
// segments.
package uri

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme is the URI scheme used for all artifact versions.
const Scheme = "pond"

const prefix = Scheme + "://"

// ErrInvalid is returned (wrapped) by Parse for any malformed input.
var ErrInvalid = errors.New("invalid pond URI")

// URI uniquely identifies one version of one artifact in one datastore.
type URI struct {
	// Datastore is the identifier of the storage backend.
	Datastore string
	// Location is the folder-like group inside the datastore. It may
	// contain slashes.
	Location string
	// Name is the artifact name.
	Name string
	// Version is the rendered version name, e.g. "v3".
	Version string
}

// New assembles a URI from its four components.
func New(datastore, location, name, version string) URI {
	return URI{
		Datastore: datastore,
		Location:  location,
		Name:      name,
		Version:   version,
	}
}

// String renders the canonical form. The zero URI renders as an empty
// string.
func (u URI) String() string {
	if u == (URI{}) {
		return ""
	}
	return fmt.Sprintf("%s%s/%s/%s/%s", prefix, u.Datastore, u.Location, u.Name, u.Version)
}

// IsZero reports whether the URI has no components set.
func (u URI) IsZero() bool {
	return u == URI{}
}

// Validate checks that every component is non-empty and that single-segment
// components contain no slash.
func (u URI) Validate() error {
	if u.Datastore == "" || u.Location == "" || u.Name == "" || u.Version == "" {
		return fmt.Errorf("%w: empty component in %q", ErrInvalid, u.String())
	}
	for _, seg := range []string{u.Datastore, u.Name, u.Version} {
		if strings.Contains(seg, "/") {
			return fmt.Errorf("%w: segment %q contains a slash", ErrInvalid, seg)
		}
	}
	if strings.HasPrefix(u.Location, "/") || strings.HasSuffix(u.Location, "/") ||
		strings.Contains(u.Location, "//") {
		return fmt.Errorf("%w: malformed location %q", ErrInvalid, u.Location)
	}
	return nil
}

// Parse parses the canonical string form into a URI. It is the exact
// inverse of String for all well-formed inputs.
func Parse(s string) (URI, error) {
	if !strings.HasPrefix(s, prefix) {
		return URI{}, fmt.Errorf("%w: missing %q prefix in %q", ErrInvalid, prefix, s)
	}
	rest := strings.TrimPrefix(s, prefix)
	parts := strings.Split(rest, "/")
	// datastore, at least one location segment, name, version
	if len(parts) < 4 {
		return URI{}, fmt.Errorf("%w: expected at least 4 segments in %q", ErrInvalid, s)
	}
	u := URI{
		Datastore: parts[0],
		Location:  strings.Join(parts[1:len(parts)-2], "/"),
		Name:      parts[len(parts)-2],
		Version:   parts[len(parts)-1],
	}
	if err := u.Validate(); err != nil {
		return URI{}, err
	}
	return u, nil
}
