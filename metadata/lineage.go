package metadata

import (
	"fmt"
	"sort"
	"time"
)

// Lineage is the provenance record embedded in every manifest: who wrote
// the version, from where, when, at which VCS commit, and which artifact
// versions were read before it.
type Lineage struct {
	// Source identifies the producing script, notebook or pipeline step.
	Source string
	// Author is the author name or identifier.
	Author string
	// Timestamp is the creation time; stored in UTC.
	Timestamp time.Time
	// Commit is the optional VCS commit id; omitted when empty.
	Commit string
	// Inputs are the URIs of all versions read before this write.
	Inputs []string
}

func (l Lineage) SectionName() string { return SectionLineage }

// Collect renders the lineage as a manifest section. Inputs are sorted and
// deduplicated; the timestamp is rendered as RFC 3339 in UTC.
func (l Lineage) Collect() map[string]any {
	inputs := append([]string(nil), l.Inputs...)
	sort.Strings(inputs)
	inputs = dedupeSorted(inputs)

	section := map[string]any{
		"source":    l.Source,
		"author":    l.Author,
		"timestamp": l.Timestamp.UTC().Format(time.RFC3339),
		"inputs":    inputs,
	}
	if l.Commit != "" {
		section["commit"] = l.Commit
	}
	return section
}

// LineageFromSection recovers a Lineage from a manifest section, e.g. for
// display. Missing keys yield zero values.
func LineageFromSection(section map[string]any) (Lineage, error) {
	l := Lineage{
		Source: stringValue(section["source"]),
		Author: stringValue(section["author"]),
		Commit: stringValue(section["commit"]),
	}
	if raw := stringValue(section["timestamp"]); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Lineage{}, fmt.Errorf("parse lineage timestamp %q: %w", raw, err)
		}
		l.Timestamp = ts
	}
	switch inputs := section["inputs"].(type) {
	case []any:
		for _, in := range inputs {
			l.Inputs = append(l.Inputs, stringValue(in))
		}
	case []string:
		l.Inputs = append(l.Inputs, inputs...)
	}
	return l, nil
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func dedupeSorted(in []string) []string {
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}
