package blackboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathwayHashRoundTrip(t *testing.T) {
	rec := samplePathway(t, testSource(time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)))

	hash, err := PathwayToHash(rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, hash["id"])
	assert.Equal(t, "Research", hash["name"])
	assert.Equal(t, 0, hash["shift_count"])
	assert.Equal(t, "v1.0.0", hash["version"])

	strHash := map[string]string{
		"id":            rec.ID,
		"name":          rec.Name,
		"shift_count":   "0",
		"created_at_ms": "1743588000000",
		"record":        hash["record"].(string),
	}
	got, err := HashToPathway(strHash)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.State.TraceLog, got.State.TraceLog)
	assert.NotNil(t, got.Snapshots)
	assert.NotNil(t, got.Outputs)

	summary := HashToSummary(strHash)
	assert.Equal(t, PathwaySummary{ID: rec.ID, Name: "Research", CreatedAtMs: 1743588000000}, summary)
}

func TestHashToPathway_Errors(t *testing.T) {
	_, err := HashToPathway(map[string]string{"id": "NP-1"})
	assert.Error(t, err)

	_, err = HashToPathway(map[string]string{"id": "NP-1", "record": "{not json"})
	assert.Error(t, err)
}

func TestRootJSON(t *testing.T) {
	root := sampleTree(testSource(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	payload, err := RootToJSON(root)
	require.NoError(t, err)
	assert.Contains(t, payload, `"shardName":"Case File"`)

	got, err := JSONToRoot(payload)
	require.NoError(t, err)
	require.Len(t, got.NestedShards, 1)
	assert.Equal(t, "Exhibit", got.NestedShards[0].ShardName)
	assert.True(t, got.NestedShards[0].Data.Equal(root.NestedShards[0].Data))

	_, err = JSONToRoot("[]")
	assert.Error(t, err)
}

func TestTimestampMs(t *testing.T) {
	assert.Equal(t, int64(1743588000000), TimestampMs("2025-04-02T10:00:00Z"))
	assert.Equal(t, int64(0), TimestampMs("yesterday"))
	assert.Equal(t, float64(42), IndexScore(42))
}
