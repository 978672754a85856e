package timespec

import (
	"fmt"
	"time"

	"github.com/dyluth/lattice/pkg/ident"
	"github.com/dyluth/lattice/pkg/pathway"
)

// Parse parses a time specification into a Unix timestamp (milliseconds).
// Supports two formats:
//   - Go duration format: "1h", "30m", "1h30m", "2h45m30s"
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z"
//
// Duration specifications are relative to the current time (subtracted from now).
// For example, "1h" means "1 hour ago".
func Parse(spec string) (int64, error) {
	return ParseAt(spec, time.Now())
}

// ParseAt is Parse with durations measured back from now.
func ParseAt(spec string, now time.Time) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339Nano, spec); err == nil {
		return t.UnixMilli(), nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

// Range is an optional time window in Unix milliseconds.
// Zero values indicate "no bound" for that end of the range.
type Range struct {
	SinceMs int64
	UntilMs int64
}

// ParseRange parses both --since and --until flags into a time range.
// Validates that since < until if both are specified.
func ParseRange(since, until string) (Range, error) {
	return ParseRangeAt(since, until, time.Now())
}

// ParseRangeAt is ParseRange with durations measured back from now.
func ParseRangeAt(since, until string, now time.Time) (Range, error) {
	var (
		r   Range
		err error
	)

	if since != "" {
		r.SinceMs, err = ParseAt(since, now)
		if err != nil {
			return Range{}, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		r.UntilMs, err = ParseAt(until, now)
		if err != nil {
			return Range{}, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if r.SinceMs > 0 && r.UntilMs > 0 && r.SinceMs >= r.UntilMs {
		return Range{}, fmt.Errorf("--since must be before --until")
	}

	return r, nil
}

// IsZero reports whether the range has no bounds.
func (r Range) IsZero() bool {
	return r.SinceMs == 0 && r.UntilMs == 0
}

// Contains reports whether ms falls inside the range. Since is inclusive,
// until is exclusive.
func (r Range) Contains(ms int64) bool {
	if r.SinceMs > 0 && ms < r.SinceMs {
		return false
	}
	if r.UntilMs > 0 && ms >= r.UntilMs {
		return false
	}
	return true
}

// FilterTrace returns the entries whose timestamps fall inside the range,
// optionally restricted to the given entry types. Entries with unparseable
// timestamps are kept only when the range is unbounded.
func FilterTrace(entries []pathway.TraceEntry, r Range, types ...pathway.TraceType) []pathway.TraceEntry {
	wanted := make(map[pathway.TraceType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	out := make([]pathway.TraceEntry, 0, len(entries))
	for _, e := range entries {
		if len(wanted) > 0 && !wanted[e.Type] {
			continue
		}
		if !r.IsZero() {
			ts, err := ident.ParseTimestamp(e.Timestamp)
			if err != nil || !r.Contains(ts.UnixMilli()) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}
