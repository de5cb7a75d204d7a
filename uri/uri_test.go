package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    URI
		wantErr bool
	}{
		{
			name:  "simple",
			input: "pond://store/experiments/metrics/v1",
			want:  URI{Datastore: "store", Location: "experiments", Name: "metrics", Version: "v1"},
		},
		{
			name:  "nested location",
			input: "pond://lab/project/run-3/table/v12",
			want:  URI{Datastore: "lab", Location: "project/run-3", Name: "table", Version: "v12"},
		},
		{
			name:    "missing scheme",
			input:   "s3://store/loc/name/v1",
			wantErr: true,
		},
		{
			name:    "too few segments",
			input:   "pond://store/name/v1",
			wantErr: true,
		},
		{
			name:    "empty version",
			input:   "pond://store/loc/name/",
			wantErr: true,
		},
		{
			name:    "empty location segment",
			input:   "pond://store//name/v1",
			wantErr: true,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	u := New("store", "project/exp1", "accuracy", "v7")
	parsed, err := Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, parsed)
}

func TestZeroURI(t *testing.T) {
	var u URI
	assert.True(t, u.IsZero())
	assert.Equal(t, "", u.String())
	assert.Error(t, u.Validate())
}
