package pathway

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommit(t *testing.T) {
	cat := testCatalog(t)

	t.Run("plain pathway", func(t *testing.T) {
		bp := Blueprint{Name: "Plain", GuidanceIDs: []string{"A"}, LinkMode: LinkFusion, Strategy: StrategyExploratory, Scale: ScaleMicro}
		rec := Commit(bp, cat, testSource())

		assert.True(t, strings.HasPrefix(rec.ID, RecordIDPrefix))
		assert.Equal(t, "Plain", rec.Name)
		assert.Nil(t, rec.Progress)
		assert.Empty(t, rec.Snapshots)
		assert.Empty(t, rec.Outputs)
		assert.Len(t, rec.State.TraceLog, 1)
		assert.Equal(t, ClusterConfig{IDs: []string{"A"}, LinkMode: LinkFusion}, rec.Cluster)
		assert.NoError(t, rec.Validate())
	})

	t.Run("curriculum pathway", func(t *testing.T) {
		rec := Commit(curriculumBlueprint(), cat, testSource())

		require.NotNil(t, rec.Progress)
		assert.Equal(t, CurriculumProgress{StatusMessage: `Curriculum "Two Step" activated.`}, *rec.Progress)
		require.Len(t, rec.State.TraceLog, 2)
		assert.Equal(t, TraceCurriculumLog, rec.State.TraceLog[1].Type)
		assert.Equal(t, `Curriculum Activated: "Two Step" - Base Prompt: "Build a thing."`, rec.State.TraceLog[1].Text)
		assert.NoError(t, rec.Validate())
	})

	t.Run("unknown curriculum", func(t *testing.T) {
		bp := curriculumBlueprint()
		bp.CurriculumID = "gone"
		rec := Commit(bp, cat, testSource())

		assert.Equal(t, `Curriculum Activated: "Unknown" - Base Prompt: "Not set"`, rec.State.TraceLog[1].Text)
	})

	t.Run("blueprint is not aliased", func(t *testing.T) {
		bp := curriculumBlueprint()
		rec := Commit(bp, cat, testSource())
		bp.GuidanceIDs[0] = "mutated"

		assert.Equal(t, "A", rec.Blueprint.GuidanceIDs[0])
		assert.Equal(t, "A", rec.Cluster.IDs[0])
	})
}

func TestRevert(t *testing.T) {
	cat := testCatalog(t)
	src := testSource()
	rec := Commit(curriculumBlueprint(), cat, src)

	var err error
	for i := 0; i < 2; i++ {
		rec, err = AdvanceRecord(context.Background(), rec, cat, &stubGenerator{text: "x"}, src)
		require.NoError(t, err)
	}
	require.Len(t, rec.Outputs, 2)

	reverted, entry := Revert(rec, cat, src)

	assert.Equal(t, 0, reverted.State.ShiftCount)
	assert.False(t, reverted.State.IsShiftActive)
	assert.Empty(t, reverted.Outputs)
	assert.Equal(t, CurriculumProgress{StatusMessage: `Curriculum "Two Step" reset to beginning.`}, *reverted.Progress)
	assert.Equal(t, []TraceType{TraceSystemInit, TraceSystemRevert, TraceCurriculumLog}, traceTypes(reverted.State.TraceLog))
	assert.Equal(t, entry, reverted.State.TraceLog[1])
	assert.Equal(t, rec.ID, reverted.ID)
	assert.NoError(t, reverted.Validate())

	assert.Len(t, rec.Outputs, 2, "input untouched")
}

func TestTakeSnapshot_IsDetached(t *testing.T) {
	cat := testCatalog(t)
	src := testSource()
	rec := Commit(curriculumBlueprint(), cat, src)
	rec, err := AdvanceRecord(context.Background(), rec, cat, &stubGenerator{text: "x"}, src)
	require.NoError(t, err)
	logLen := len(rec.State.TraceLog)

	rec, snap := TakeSnapshot(rec, "v21.0.0", src)

	assert.True(t, strings.HasPrefix(snap.ID, SnapshotIDPrefix+rec.ID+"-"))
	assert.Equal(t, "v21.0.0", snap.KernelVersion)
	assert.Len(t, snap.State.TraceLog, logLen, "snapshot entry is logged after the capture")
	require.Len(t, rec.State.TraceLog, logLen+1)
	assert.Equal(t, "Snapshot taken: "+snap.ID, rec.State.TraceLog[logLen].Text)
	require.Len(t, rec.Snapshots, 1)
	assert.Empty(t, cmp.Diff(snap, rec.Snapshots[0]))

	// Further activity on the live record leaves the snapshot alone.
	captured := rec.Snapshots[0]
	rec, err = AdvanceRecord(context.Background(), rec, cat, &stubGenerator{text: "y"}, src)
	require.NoError(t, err)
	rec = Annotate(rec, rec.State.TraceLog[0].ID, "note", src)

	assert.Empty(t, cmp.Diff(captured, rec.Snapshots[0]))
	assert.Equal(t, 1, rec.Snapshots[0].State.ShiftCount)
	assert.Equal(t, 1, rec.Snapshots[0].Progress.CurrentIterationInStep)
	assert.Equal(t, 0, rec.Progress.CurrentIterationInStep)
	assert.Empty(t, rec.Snapshots[0].State.TraceLog[0].Annotation)
	assert.Len(t, rec.Snapshots[0].Outputs, 1)
}

func TestAnnotate(t *testing.T) {
	cat := testCatalog(t)
	src := testSource()
	rec := Commit(curriculumBlueprint(), cat, src)
	target := rec.State.TraceLog[0]

	t.Run("existing entry", func(t *testing.T) {
		out := Annotate(rec, target.ID, "looks right", src)

		require.Len(t, out.State.TraceLog, len(rec.State.TraceLog))
		got := out.State.TraceLog[0]
		assert.Equal(t, "looks right", got.Annotation)
		assert.Equal(t, target.Text, got.Text)
		assert.Equal(t, target.Timestamp, got.Timestamp)
		assert.Empty(t, rec.State.TraceLog[0].Annotation, "input untouched")
	})

	t.Run("unknown entry", func(t *testing.T) {
		out := Annotate(rec, "manual-1", "free-form note", src)

		require.Len(t, out.State.TraceLog, len(rec.State.TraceLog)+1)
		got := out.State.TraceLog[len(out.State.TraceLog)-1]
		assert.Equal(t, "manual-1", got.ID)
		assert.Equal(t, "free-form note", got.Text)
		assert.Equal(t, TraceInfo, got.Type)
	})
}

func TestFork(t *testing.T) {
	cat := testCatalog(t)
	src := testSource()
	rec := Commit(curriculumBlueprint(), cat, src)
	rec, err := AdvanceRecord(context.Background(), rec, cat, &stubGenerator{text: "x"}, src)
	require.NoError(t, err)
	rec, _ = TakeSnapshot(rec, "v21.0.0", src)

	child, parent := Fork(rec, src)

	assert.NotEqual(t, rec.ID, child.ID)
	assert.Equal(t, "Curriculum Run (Fork)", child.Name)
	assert.Empty(t, child.Snapshots)
	assert.Equal(t, rec.State.ShiftCount, child.State.ShiftCount)
	assert.Equal(t, *rec.Progress, *child.Progress)
	assert.Len(t, child.Outputs, 1)
	assert.Equal(t, `Forked from NudgePathway `+rec.ID+` ("Curriculum Run").`, child.State.TraceLog[len(child.State.TraceLog)-1].Text)

	assert.Equal(t, rec.ID, parent.ID)
	assert.Len(t, parent.Snapshots, 1)
	assert.Equal(t, `Pathway forked into new Pathway ID: `+child.ID+` ("Curriculum Run (Fork)").`,
		parent.State.TraceLog[len(parent.State.TraceLog)-1].Text)

	// The two pathways evolve independently.
	child, err = AdvanceRecord(context.Background(), child, cat, &stubGenerator{text: "z"}, src)
	require.NoError(t, err)
	assert.Equal(t, 2, child.State.ShiftCount)
	assert.Equal(t, 1, parent.State.ShiftCount)
	assert.Len(t, parent.Outputs, 1)
	assert.NotSame(t, parent.Progress, child.Progress)
}

func TestRecordValidate(t *testing.T) {
	cat := testCatalog(t)
	rec := Commit(curriculumBlueprint(), cat, testSource())
	require.NoError(t, rec.Validate())

	broken := cloneRecord(rec)
	broken.State.ShiftCount = 2
	assert.Error(t, broken.Validate())

	broken = cloneRecord(rec)
	broken.Progress = nil
	assert.Error(t, broken.Validate())

	broken = cloneRecord(rec)
	broken.ID = ""
	assert.Error(t, broken.Validate())
}
