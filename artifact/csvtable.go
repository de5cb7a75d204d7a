package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/datrocity/pond/metadata"
)

// Table is a rectangular string table with a header row, the common shape
// of exported research results.
type Table struct {
	Columns []string
	Rows    [][]string
}

// CSVTable stores a Table as CSV. CSV has no room for structured
// metadata, so the manifest lives in the sidecar only.
type CSVTable struct{}

func (CSVTable) Name() string         { return "csv" }
func (CSVTable) Extension() string    { return "csv" }
func (CSVTable) EmbedsManifest() bool { return false }

func (CSVTable) Serialize(data any, _ *metadata.Manifest) ([]byte, error) {
	table, ok := data.(Table)
	if !ok {
		return nil, fmt.Errorf("%w: want artifact.Table, got %T", ErrIncompatibleData, data)
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d",
				ErrIncompatibleData, i, len(row), len(table.Columns))
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("encode csv header: %w", err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, fmt.Errorf("encode csv rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (CSVTable) Deserialize(payload []byte) (any, *metadata.Manifest, error) {
	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("decode csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("decode csv: missing header row")
	}
	return Table{Columns: records[0], Rows: records[1:]}, nil, nil
}

var _ Format = CSVTable{}
