package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datrocity/pond/metadata"
)

func sampleManifest() *metadata.Manifest {
	m := metadata.NewManifest()
	m.AddSection(metadata.DictSource{
		Name:   metadata.SectionUser,
		Values: map[string]any{"experiment": "exp-1"},
	})
	m.AddSection(metadata.Lineage{
		Source:    "train.go",
		Author:    "ada",
		Timestamp: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	})
	return m
}

func TestJSONDocumentEmbedsManifest(t *testing.T) {
	f := JSONDocument{}
	require.True(t, f.EmbedsManifest())

	doc := Document{"learning_rate": 0.01, "layers": []any{"conv", "dense"}}
	payload, err := f.Serialize(doc, sampleManifest())
	require.NoError(t, err)

	data, manifest, err := f.Deserialize(payload)
	require.NoError(t, err)
	require.NotNil(t, manifest, "embedded manifest must be recovered")
	assert.Equal(t, "exp-1", manifest.SectionString(metadata.SectionUser, "experiment"))
	assert.Equal(t, "ada", manifest.SectionString(metadata.SectionLineage, "author"))

	got, ok := data.(Document)
	require.True(t, ok)
	assert.Equal(t, 0.01, got["learning_rate"])
	_, leaked := got[manifestKey]
	assert.False(t, leaked, "reserved key must be stripped")
}

func TestJSONDocumentContentOnlyIsDeterministic(t *testing.T) {
	f := JSONDocument{}
	doc := Document{"b": 2.0, "a": 1.0, "c": "x"}

	first, err := f.Serialize(doc, nil)
	require.NoError(t, err)
	second, err := f.Serialize(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestJSONDocumentRejectsReservedKey(t *testing.T) {
	f := JSONDocument{}
	_, err := f.Serialize(Document{manifestKey: "boom"}, nil)
	assert.ErrorIs(t, err, ErrIncompatibleData)
}

func TestJSONDocumentRejectsWrongType(t *testing.T) {
	f := JSONDocument{}
	_, err := f.Serialize(42, nil)
	assert.ErrorIs(t, err, ErrIncompatibleData)
}

func TestCSVTableRoundTrip(t *testing.T) {
	f := CSVTable{}
	require.False(t, f.EmbedsManifest())

	table := Table{
		Columns: []string{"epoch", "accuracy"},
		Rows:    [][]string{{"1", "0.81"}, {"2", "0.87"}},
	}

	payload, err := f.Serialize(table, sampleManifest())
	require.NoError(t, err)

	data, manifest, err := f.Deserialize(payload)
	require.NoError(t, err)
	assert.Nil(t, manifest, "csv cannot embed a manifest")
	assert.Equal(t, table, data)
}

func TestCSVTableRejectsRaggedRows(t *testing.T) {
	f := CSVTable{}
	_, err := f.Serialize(Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"only one"}},
	}, nil)
	assert.ErrorIs(t, err, ErrIncompatibleData)
}

func TestCSVTableRejectsEmptyPayload(t *testing.T) {
	f := CSVTable{}
	_, _, err := f.Deserialize(nil)
	assert.Error(t, err)
}

func TestRawRoundTrip(t *testing.T) {
	f := Raw{}
	payload, err := f.Serialize([]byte{0x89, 'P', 'N', 'G'}, nil)
	require.NoError(t, err)

	data, manifest, err := f.Deserialize(payload)
	require.NoError(t, err)
	assert.Nil(t, manifest)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestRegistryResolution(t *testing.T) {
	r := DefaultRegistry()

	f, err := r.ForData(Document{})
	require.NoError(t, err)
	assert.Equal(t, "json", f.Name())

	f, err = r.ForData(Table{})
	require.NoError(t, err)
	assert.Equal(t, "csv", f.Name())

	f, err = r.ForData([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "raw", f.Name())

	f, err = r.ForName("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", f.Name())

	_, err = r.ForData(struct{}{})
	assert.ErrorIs(t, err, ErrFormatNotFound)
	_, err = r.ForName("parquet")
	assert.ErrorIs(t, err, ErrFormatNotFound)
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	r.Register(Raw{}, []byte(nil))
	r.Register(rawV2{}, []byte(nil))

	f, err := r.ForData([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "raw-v2", f.Name())
}

type rawV2 struct{ Raw }

func (rawV2) Name() string { return "raw-v2" }
