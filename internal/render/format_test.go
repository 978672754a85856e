package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatTable, "table": FormatTable, "json": FormatJSON, "jsonl": FormatJSONL} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "empty", in: "", expected: "-"},
		{name: "blank lines", in: "\n  \n", expected: "-"},
		{name: "short", in: "hello.txt", expected: "hello.txt"},
		{name: "exactly max", in: strings.Repeat("a", 40), expected: strings.Repeat("a", 40)},
		{name: "over max", in: strings.Repeat("a", 41), expected: strings.Repeat("a", 37) + "..."},
		{name: "first line only", in: "First\nSecond", expected: "First"},
		{name: "trims whitespace", in: "  \n  hello world  \n", expected: "hello world"},
		{name: "multibyte", in: strings.Repeat("é", 45), expected: strings.Repeat("é", 37) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, preview(tt.in, 40))
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "NP-3f2a9c10", shortID("NP-3f2a9c10-0000-4000-8000-000000000001"))
	assert.Equal(t, "SHD-abc", shortID("SHD-abc"))
	assert.Equal(t, "abcdefgh", shortID("abcdefghijk"))
}

func TestAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ts       string
		expected string
	}{
		{"2025-06-01T11:59:30Z", "30s ago"},
		{"2025-06-01T11:15:00Z", "45m ago"},
		{"2025-06-01T09:00:00Z", "3h ago"},
		{"2025-05-29T12:00:00Z", "3d ago"},
		{"2025-06-01T12:00:05Z", "0s ago"},
		{"bogus", "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, age(tt.ts, now), tt.ts)
	}
	assert.Equal(t, "-", ageMs(0, now))
}

func TestJSONAndJSONL(t *testing.T) {
	type item struct {
		N int `json:"n"`
	}

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, item{N: 1}))
	assert.Equal(t, "{\n  \"n\": 1\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, JSONL(&buf, []item{{1}, {2}}))
	assert.Equal(t, "{\"n\":1}\n{\"n\":2}\n", buf.String())

	buf.Reset()
	require.NoError(t, JSONL(&buf, []item{}))
	assert.Empty(t, buf.String())
}
