package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/datrocity/pond/metadata"
)

// manifestKey is the reserved top-level key under which JSONDocument
// embeds the manifest. It is stripped again on Deserialize.
const manifestKey = "__manifest__"

// Document is a free-form JSON object payload, typically experiment
// parameters or summary metrics.
type Document map[string]any

// JSONDocument stores a Document as a JSON object and embeds the manifest
// under a reserved key, so the payload stays self-describing outside the
// store.
type JSONDocument struct{}

func (JSONDocument) Name() string         { return "json" }
func (JSONDocument) Extension() string    { return "json" }
func (JSONDocument) EmbedsManifest() bool { return true }

func (JSONDocument) Serialize(data any, manifest *metadata.Manifest) ([]byte, error) {
	doc, ok := data.(Document)
	if !ok {
		return nil, fmt.Errorf("%w: want artifact.Document, got %T", ErrIncompatibleData, data)
	}
	if _, reserved := doc[manifestKey]; reserved {
		return nil, fmt.Errorf("%w: key %q is reserved", ErrIncompatibleData, manifestKey)
	}

	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	if manifest != nil {
		out[manifestKey] = manifest.Sections()
	}

	// encoding/json sorts object keys, so content-only serialization is
	// deterministic and usable for digests.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode json document: %w", err)
	}
	return buf.Bytes(), nil
}

func (JSONDocument) Deserialize(payload []byte) (any, *metadata.Manifest, error) {
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode json document: %w", err)
	}

	var manifest *metadata.Manifest
	if raw, ok := doc[manifestKey]; ok {
		delete(doc, manifestKey)
		sections, err := decodeSections(raw)
		if err != nil {
			return nil, nil, err
		}
		manifest = metadata.FromSections(sections)
	}
	return doc, manifest, nil
}

func decodeSections(raw any) (map[string]map[string]any, error) {
	outer, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("embedded manifest is not an object (got %T)", raw)
	}
	sections := make(map[string]map[string]any, len(outer))
	for name, values := range outer {
		section, ok := values.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("embedded manifest section %q is not an object", name)
		}
		sections[name] = section
	}
	return sections, nil
}

var _ Format = JSONDocument{}
