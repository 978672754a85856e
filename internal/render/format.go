// Package render formats shard trees and pathways for terminal output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/lattice/pkg/ident"
)

// OutputFormat specifies how list output is written.
type OutputFormat string

const (
	// FormatTable is a fixed-width table with truncated fields.
	FormatTable OutputFormat = "table"

	// FormatJSON writes one pretty-printed JSON document.
	FormatJSON OutputFormat = "json"

	// FormatJSONL writes one compact JSON object per line.
	FormatJSONL OutputFormat = "jsonl"
)

// ParseFormat validates a --output flag value. The empty string selects the
// table format.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatJSONL:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s (use table, json or jsonl)", s)
}

// JSON writes v as pretty-printed JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}

// JSONL writes each item as a single JSON line.
func JSONL[T any](w io.Writer, items []T) error {
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal JSONL item: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// shortID truncates an ID after its prefix to 8 characters for compact
// display: "NP-3f2a9c10-..." becomes "NP-3f2a9c10".
func shortID(id string) string {
	prefix := ""
	if i := strings.Index(id, "-"); i >= 0 && i <= 4 {
		prefix, id = id[:i+1], id[i+1:]
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return prefix + id
}

// preview returns the first non-empty line of s, truncated to max runes.
// Empty text returns "-".
func preview(s string, max int) string {
	var first string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			first = trimmed
			break
		}
	}
	if first == "" {
		return "-"
	}

	runes := []rune(first)
	if len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return first
}

// dash replaces empty values with "-".
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// age formats an engine timestamp relative to now, like "2m ago".
func age(ts string, now time.Time) string {
	t, err := ident.ParseTimestamp(ts)
	if err != nil {
		return "-"
	}
	return ageOf(t, now)
}

// ageMs is age for Unix millisecond timestamps.
func ageMs(ms int64, now time.Time) string {
	if ms == 0 {
		return "-"
	}
	return ageOf(time.UnixMilli(ms), now)
}

func ageOf(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
