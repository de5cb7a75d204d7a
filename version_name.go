package pond

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// VersionName is the numeric identity of a version. Its canonical string
// form is "v" followed by the positive integer, and names order by the
// integer, so v10 is newer than v9.
type VersionName int

// versionNamePattern accepts "v3" and the bare "3"; both normalize to the
// same VersionName. Zero and leading zeros are rejected.
var versionNamePattern = regexp.MustCompile(`^v?([1-9][0-9]*)$`)

// ParseVersionName parses a version string into its numeric form.
func ParseVersionName(s string) (VersionName, error) {
	m := versionNamePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, NewError(ErrInvalidVersionName, "invalid version name %q", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, NewError(ErrInvalidVersionName, "invalid version name %q", s).WithCause(err)
	}
	return VersionName(n), nil
}

// FirstVersionName is the name given to the first version of an artifact.
func FirstVersionName() VersionName { return 1 }

// Next returns the name following this one.
func (v VersionName) Next() VersionName { return v + 1 }

// String renders the canonical "v<n>" form.
func (v VersionName) String() string { return fmt.Sprintf("v%d", int(v)) }

// parseVersionNames converts raw listing entries to sorted version names.
// Entries that do not parse are skipped: foreign files in an artifact
// directory must never break version resolution.
func parseVersionNames(raw []string) []VersionName {
	names := make([]VersionName, 0, len(raw))
	for _, s := range raw {
		n, err := ParseVersionName(s)
		if err != nil {
			continue
		}
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// latestVersionName returns the newest name in raw, or (0, false) when no
// entry parses.
func latestVersionName(raw []string) (VersionName, bool) {
	names := parseVersionNames(raw)
	if len(names) == 0 {
		return 0, false
	}
	return names[len(names)-1], true
}
