package blackboard

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dyluth/lattice/pkg/ident"
	"github.com/dyluth/lattice/pkg/pathway"
	"github.com/dyluth/lattice/pkg/shard"
)

// Serialization helpers for converting between engine types and Redis values
//
// Root shard trees are stored as a single JSON string: a tree is always read
// and replaced whole. Pathway records are stored as hashes whose scalar
// fields (name, shift count, creation time) are readable on their own for
// listing, with the full record JSON-encoded in the "record" field.

// PathwayToHash converts a pathway record to a Redis hash.
func PathwayToHash(rec *pathway.Record) (map[string]interface{}, error) {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pathway record: %w", err)
	}

	hash := map[string]interface{}{
		"id":            rec.ID,
		"name":          rec.Name,
		"version":       rec.State.CurrentVersion,
		"shift_count":   rec.State.ShiftCount,
		"created_at_ms": TimestampMs(rec.CreatedAt),
		"record":        string(recordJSON),
	}

	return hash, nil
}

// HashToPathway converts a Redis hash back to a pathway record.
func HashToPathway(hash map[string]string) (*pathway.Record, error) {
	recordJSON := hash["record"]
	if recordJSON == "" {
		return nil, fmt.Errorf("pathway hash %q has no record field", hash["id"])
	}

	var rec pathway.Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pathway record: %w", err)
	}

	// Ensure we have empty slices instead of nil for consistency
	if rec.Snapshots == nil {
		rec.Snapshots = []pathway.Snapshot{}
	}
	if rec.Outputs == nil {
		rec.Outputs = []pathway.GeneratedOutput{}
	}

	return &rec, nil
}

// HashToSummary extracts the listing fields of a pathway hash without
// decoding the record.
func HashToSummary(hash map[string]string) PathwaySummary {
	shiftCount, _ := strconv.Atoi(hash["shift_count"])
	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	return PathwaySummary{
		ID:          hash["id"],
		Name:        hash["name"],
		ShiftCount:  shiftCount,
		CreatedAtMs: createdAtMs,
	}
}

// RootToJSON encodes a whole root shard tree.
func RootToJSON(root *shard.Shard) (string, error) {
	b, err := json.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shard tree: %w", err)
	}
	return string(b), nil
}

// JSONToRoot decodes a root shard tree.
func JSONToRoot(s string) (*shard.Shard, error) {
	var root shard.Shard
	if err := json.Unmarshal([]byte(s), &root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shard tree: %w", err)
	}
	return &root, nil
}

// TimestampMs converts an engine timestamp to Unix milliseconds.
// Unparseable timestamps map to 0 so they sort first.
func TimestampMs(ts string) int64 {
	t, err := ident.ParseTimestamp(ts)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// IndexScore converts a creation time in Unix milliseconds to a ZSET score.
func IndexScore(createdAtMs int64) float64 {
	return float64(createdAtMs)
}
