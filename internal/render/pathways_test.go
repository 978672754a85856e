package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/catalog"
	"github.com/dyluth/lattice/pkg/ident"
	"github.com/dyluth/lattice/pkg/pathway"
)

func sampleRecord() pathway.Record {
	src := ident.NewFixed(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := pathway.Commit(pathway.Blueprint{
		Name:        "Exploration",
		GuidanceIDs: []string{"guidance-turing-prime"},
		LinkMode:    pathway.LinkToggle,
		Strategy:    pathway.StrategyExploratory,
		Scale:       pathway.ScaleMeso,
	}, catalog.Default(), src)
	return rec
}

func TestPathwayTable(t *testing.T) {
	now := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	summaries := []blackboard.PathwaySummary{
		{ID: "NP-3f2a9c10-0000-4000-8000-000000000001", Name: "First", ShiftCount: 4, CreatedAtMs: now.Add(-time.Hour).UnixMilli()},
		{ID: "NP-7b1d44e2-0000-4000-8000-000000000002", Name: "Second"},
	}

	var buf bytes.Buffer
	assert.Equal(t, 2, PathwayTable(&buf, summaries, "prod", now))

	out := buf.String()
	assert.Contains(t, out, "Pathways for instance 'prod'")
	assert.Contains(t, out, "NP-3f2a9c10")
	assert.NotContains(t, out, "NP-3f2a9c10-0000")
	assert.Contains(t, out, "1h ago")
	assert.Contains(t, out, "2 pathways found")

	buf.Reset()
	assert.Equal(t, 0, PathwayTable(&buf, nil, "prod", now))
	assert.Equal(t, "No pathways found for instance 'prod'\n", buf.String())
}

func TestPathwayDetail(t *testing.T) {
	rec := sampleRecord()
	rec.Progress = &pathway.CurriculumProgress{CurrentStepIndex: 1, StatusMessage: "Step 2 of 3"}
	rec.CurriculumID = "two-step"

	var buf bytes.Buffer
	PathwayDetail(&buf, &rec)

	out := buf.String()
	assert.Contains(t, out, "Pathway:  Exploration\n")
	assert.Contains(t, out, "Version:  v1.0.0 (0 shifts)\n")
	assert.Contains(t, out, "Curriculum: two-step (active)\n")
	assert.Contains(t, out, "  Step 2, iteration 1\n")
}

func TestTraceLog(t *testing.T) {
	entries := []pathway.TraceEntry{
		{ID: "e1", Timestamp: "2025-01-01T00:00:00Z", Type: pathway.TraceSystemInit, Text: "Initialized"},
		{ID: "e2", Timestamp: "2025-01-01T00:00:01Z", Type: pathway.TraceInfo, Text: "Note", Annotation: "check this"},
	}

	var buf bytes.Buffer
	assert.Equal(t, 2, TraceLog(&buf, entries))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "system-init")
	assert.Contains(t, lines[2], "↳ check this")

	buf.Reset()
	TraceLogVerbose(&buf, entries)
	assert.Contains(t, buf.String(), "e2  2025-01-01T00:00:01Z  [info] Note\n")

	buf.Reset()
	assert.Equal(t, 0, TraceLog(&buf, nil))
	assert.Equal(t, "No trace entries\n", buf.String())
}

func TestSnapshots(t *testing.T) {
	src := ident.NewFixed(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	rec := sampleRecord()

	var buf bytes.Buffer
	assert.Equal(t, 0, Snapshots(&buf, &rec))
	assert.Contains(t, buf.String(), "No snapshots for 'Exploration'")

	rec, snap := pathway.TakeSnapshot(rec, "v21.0.0", src)
	buf.Reset()
	assert.Equal(t, 1, Snapshots(&buf, &rec))
	assert.Contains(t, buf.String(), snap.ID)
	assert.Contains(t, buf.String(), "v21.0.0")
}
