package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/lattice/pkg/pathway"
)

var now = time.Date(2025, 10, 29, 14, 0, 0, 0, time.UTC)

func TestParseAt(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    time.Time
		wantErr bool
	}{
		{name: "duration", spec: "1h", want: now.Add(-time.Hour)},
		{name: "compound duration", spec: "1h30m", want: now.Add(-90 * time.Minute)},
		{name: "rfc3339", spec: "2025-10-29T13:00:00Z", want: time.Date(2025, 10, 29, 13, 0, 0, 0, time.UTC)},
		{name: "rfc3339 with fraction", spec: "2025-10-29T13:00:00.250Z", want: time.Date(2025, 10, 29, 13, 0, 0, 250e6, time.UTC)},
		{name: "empty", spec: "", wantErr: true},
		{name: "garbage", spec: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAt(tt.spec, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.UnixMilli(), got)
		})
	}
}

func TestParseRangeAt(t *testing.T) {
	r, err := ParseRangeAt("2h", "1h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Hour).UnixMilli(), r.SinceMs)
	assert.Equal(t, now.Add(-time.Hour).UnixMilli(), r.UntilMs)

	r, err = ParseRangeAt("", "", now)
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	_, err = ParseRangeAt("1h", "2h", now)
	assert.ErrorContains(t, err, "--since must be before --until")

	_, err = ParseRangeAt("nope", "", now)
	assert.ErrorContains(t, err, "invalid --since")
}

func TestRangeContains(t *testing.T) {
	r := Range{SinceMs: 100, UntilMs: 200}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(199))
	assert.False(t, r.Contains(200))
	assert.False(t, r.Contains(99))
	assert.True(t, Range{}.Contains(1))
}

func TestFilterTrace(t *testing.T) {
	entries := []pathway.TraceEntry{
		{ID: "a", Timestamp: "2025-10-29T11:00:00Z", Type: pathway.TraceSystemInit},
		{ID: "b", Timestamp: "2025-10-29T12:30:00.5Z", Type: pathway.TraceVersionLog},
		{ID: "c", Timestamp: "2025-10-29T12:30:00.5Z", Type: pathway.TraceEchoLog},
		{ID: "d", Timestamp: "not a time", Type: pathway.TraceInfo},
	}

	ids := func(es []pathway.TraceEntry) []string {
		out := []string{}
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(FilterTrace(entries, Range{})))

	r, err := ParseRangeAt("2h", "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(FilterTrace(entries, r)))
	assert.Equal(t, []string{"c"}, ids(FilterTrace(entries, r, pathway.TraceEchoLog)))
	assert.Equal(t, []string{"a", "d"}, ids(FilterTrace(entries, Range{}, pathway.TraceSystemInit, pathway.TraceInfo)))
}
