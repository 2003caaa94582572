package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"results.json", FormatJSON},
		{"results", FormatJSON},
		{"results.pkl", FormatJSON},
		{"results.json.zst", FormatJSONZstd},
		{"RESULTS.ZST", FormatJSONZstd},
		{"results.db", FormatSQLite},
		{"results.sqlite", FormatSQLite},
		{"dir/results.sqlite3", FormatSQLite},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFor(tt.path))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("pickle")
	assert.ErrorContains(t, err, "unknown format")
}

func TestOpen(t *testing.T) {
	t.Run("infers format", func(t *testing.T) {
		b := openTestBackend(t, "store.db")
		assert.Equal(t, FormatSQLite, b.Format())
		assert.IsType(t, &SQLiteBackend{}, b)
	})

	t.Run("format override", func(t *testing.T) {
		b := openTestBackend(t, "store.db", WithFormat(FormatJSONZstd))
		assert.Equal(t, FormatJSONZstd, b.Format())
		assert.IsType(t, &FileBackend{}, b)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Open("")
		assert.Error(t, err)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Open("x.json", WithFormat("xml"))
		assert.ErrorContains(t, err, "unknown format")
	})
}
