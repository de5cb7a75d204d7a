package pond

import (
	"fmt"

	"github.com/datrocity/pond/storage"
)

// On-disk layout inside a datastore:
//
//	<location>/<name>/<version>/manifest.yml
//	<location>/<name>/<version>/<name>_<version>.<ext>
//
// The manifest is the existence marker for a version: a version exists
// exactly when its manifest does, and writing the manifest with
// overwrite=false is the atomic claim that decides write races.

const manifestFilename = "manifest.yml"

func versionDir(location, name string, version VersionName) string {
	return storage.JoinPath(location, name, version.String())
}

func manifestPath(location, name string, version VersionName) string {
	return storage.JoinPath(versionDir(location, name, version), manifestFilename)
}

func dataFilename(name string, version VersionName, extension string) string {
	return fmt.Sprintf("%s_%s.%s", name, version, extension)
}

func dataPath(location, name string, version VersionName, extension string) string {
	return storage.JoinPath(versionDir(location, name, version), dataFilename(name, version, extension))
}
