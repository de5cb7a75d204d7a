package pond

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseVersionName(t *testing.T) {
	tests := []struct {
		in   string
		want VersionName
		ok   bool
	}{
		{"v1", 1, true},
		{"v42", 42, true},
		{"3", 3, true}, // bare integer accepted
		{"v10", 10, true},
		{"", 0, false},
		{"v0", 0, false},
		{"0", 0, false},
		{"v01", 0, false}, // leading zero
		{"v-1", 0, false},
		{"v1.2", 0, false},
		{"latest", 0, false},
		{"vv3", 0, false},
		{"v 3", 0, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := ParseVersionName(tt.in)
			if !tt.ok {
				require.Error(t, err)
				assert.True(t, IsCode(err, ErrInvalidVersionName))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionNameStringAndNext(t *testing.T) {
	assert.Equal(t, "v1", FirstVersionName().String())
	assert.Equal(t, VersionName(2), FirstVersionName().Next())
	assert.Equal(t, "v10", VersionName(10).String())
}

func TestVersionNamesOrderNumerically(t *testing.T) {
	names := parseVersionNames([]string{"v10", "v2", "v1", "v9"})
	assert.Equal(t, []VersionName{1, 2, 9, 10}, names)
}

func TestMalformedListingEntriesAreSkipped(t *testing.T) {
	latest, ok := latestVersionName([]string{"v1", ".DS_Store", "latest", "v3", "v0", "snapshot-2024"})
	require.True(t, ok)
	assert.Equal(t, VersionName(3), latest)

	_, ok = latestVersionName([]string{"junk", "more junk"})
	assert.False(t, ok)
}

func TestVersionNameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := VersionName(rapid.IntRange(1, 1<<30).Draw(t, "n"))
		parsed, err := ParseVersionName(n.String())
		require.NoError(t, err)
		require.Equal(t, n, parsed)
	})
}

func TestVersionNameOrderMatchesInteger(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := VersionName(rapid.IntRange(1, 1<<30).Draw(t, "a"))
		b := VersionName(rapid.IntRange(1, 1<<30).Draw(t, "b"))
		// The rendered form must never be compared lexically; v10 > v9.
		require.Equal(t, int(a) < int(b), a < b)
	})
}
