// Package metadata implements the manifest attached to every stored
// artifact version: a set of named sections of free-form key/value data,
// serialized as YAML so a manifest stays readable without this library.
//
// Every manifest written by pond carries at least a "lineage" section
// (provenance) and a "user" section (caller-supplied metadata). Format
// plugins may add further sections; those are opaque to the core.
package metadata

import (
	"fmt"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"
)

// Well-known section names.
const (
	SectionLineage = "lineage"
	SectionUser    = "user"
	SectionVersion = "version"
)

// Source produces one manifest section. Two calls to Collect may return
// different values (timestamps, VCS state), so sections are collected once
// at write time.
type Source interface {
	// SectionName is the unique name of the section in the manifest.
	SectionName() string
	// Collect returns the section's key/value data.
	Collect() map[string]any
}

// DictSource is a fixed map used as a manifest section.
type DictSource struct {
	Name   string
	Values map[string]any
}

func (s DictSource) SectionName() string { return s.Name }

func (s DictSource) Collect() map[string]any {
	out := make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		out[k] = v
	}
	return out
}

// Manifest is a set of uniquely named sections. Adding a section with an
// existing name replaces it.
type Manifest struct {
	sections map[string]map[string]any
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{sections: make(map[string]map[string]any)}
}

// AddSection collects a source into the manifest. A nil source is ignored.
func (m *Manifest) AddSection(src Source) {
	if src == nil {
		return
	}
	m.SetSection(src.SectionName(), src.Collect())
}

// SetSection stores a section verbatim under the given name.
func (m *Manifest) SetSection(name string, values map[string]any) {
	if values == nil {
		values = map[string]any{}
	}
	m.sections[name] = values
}

// Section returns the named section, or false if it is absent.
func (m *Manifest) Section(name string) (map[string]any, bool) {
	s, ok := m.sections[name]
	return s, ok
}

// SectionString returns a single string value from a section, or "" when
// the section or key is absent.
func (m *Manifest) SectionString(section, key string) string {
	s, ok := m.sections[section]
	if !ok {
		return ""
	}
	v, ok := s[key]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// SectionNames returns the sorted names of all sections.
func (m *Manifest) SectionNames() []string {
	names := make([]string, 0, len(m.sections))
	for name := range m.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both manifests hold the same sections with the
// same contents.
func (m *Manifest) Equal(o *Manifest) bool {
	if m == nil || o == nil {
		return m == o
	}
	return reflect.DeepEqual(m.sections, o.sections)
}

// EncodeYAML renders the manifest in its on-disk YAML form.
func (m *Manifest) EncodeYAML() ([]byte, error) {
	out, err := yaml.Marshal(m.sections)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return out, nil
}

// DecodeYAML parses a manifest from its on-disk YAML form.
func DecodeYAML(data []byte) (*Manifest, error) {
	var sections map[string]map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	m := NewManifest()
	for name, values := range sections {
		m.SetSection(name, values)
	}
	return m, nil
}

// FromSections builds a manifest from a nested map, e.g. one recovered
// from a payload with an embedded manifest.
func FromSections(sections map[string]map[string]any) *Manifest {
	m := NewManifest()
	for name, values := range sections {
		m.SetSection(name, values)
	}
	return m
}

// Sections returns a deep-ish copy of the manifest contents, for formats
// that embed the manifest in the payload.
func (m *Manifest) Sections() map[string]map[string]any {
	out := make(map[string]map[string]any, len(m.sections))
	for name, values := range m.sections {
		section := make(map[string]any, len(values))
		for k, v := range values {
			section[k] = v
		}
		out[name] = section
	}
	return out
}
