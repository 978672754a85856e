package host

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/lattice/internal/generate"
	"github.com/dyluth/lattice/pkg/catalog"
	"github.com/dyluth/lattice/pkg/pathway"
)

func newPathways(t *testing.T, gen pathway.Generator) *Pathways {
	t.Helper()
	return NewPathways(setupStore(t), catalog.Default(), gen, testSource(), nil)
}

func toggleBlueprint() pathway.Blueprint {
	return pathway.Blueprint{
		Name:        "Exploration",
		GuidanceIDs: []string{"guidance-turing-prime", "guidance-lovelace-visionary"},
		LinkMode:    pathway.LinkToggle,
		Strategy:    pathway.StrategyStandardToggle,
		Scale:       pathway.ScaleMeso,
	}
}

func TestPathways_CreateGet(t *testing.T) {
	svc := newPathways(t, nil)

	rec, err := svc.Create(ctx, toggleBlueprint())
	require.NoError(t, err)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "v1.0.0", got.State.CurrentVersion)

	_, err = svc.Create(ctx, pathway.Blueprint{Name: "bad", LinkMode: "sideways", Strategy: pathway.StrategyExploratory, Scale: pathway.ScaleMeso})
	assert.Error(t, err)
}

func TestPathways_AdvanceRevert(t *testing.T) {
	logger, logs := observedLogger()
	svc := NewPathways(setupStore(t), catalog.Default(), nil, testSource(), logger)
	rec, err := svc.Create(ctx, toggleBlueprint())
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		rec, err = svc.Advance(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, i, rec.State.ShiftCount)
	}

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1.0.3", stored.State.CurrentVersion)
	assert.Len(t, stored.State.TraceLog, 1+2*3)

	advanced := logs.FilterMessage("pathway advanced").All()
	require.Len(t, advanced, 3)
	assert.EqualValues(t, 3, advanced[2].ContextMap()["shift_count"])

	reverted, err := svc.Revert(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reverted.State.ShiftCount)
	require.Len(t, reverted.State.TraceLog, 2)

	revertLogs := logs.FilterMessage("pathway reverted to genesis").All()
	require.Len(t, revertLogs, 1)
	fields := revertLogs[0].ContextMap()
	assert.Equal(t, reverted.State.TraceLog[1].ID, fields["revert_entry_id"])
	assert.Equal(t, pathway.TraceSystemRevert, reverted.State.TraceLog[1].Type)
	assert.Equal(t, "v1.0.3", fields["previous_version"])
	assert.EqualValues(t, 3, fields["discarded_shifts"])
}

func TestPathways_CurriculumThroughStore(t *testing.T) {
	cat := catalog.Default()
	require.NotEmpty(t, cat.Curricula)
	cur := cat.Curricula[0]

	calls := 0
	gen := generate.Func(func(context.Context, string) (string, error) {
		calls++
		return "generated", nil
	})
	svc := NewPathways(setupStore(t), cat, gen, testSource(), nil)

	bp := toggleBlueprint()
	bp.CurriculumID = cur.ID
	rec, err := svc.Create(ctx, bp)
	require.NoError(t, err)
	require.NotNil(t, rec.Progress)

	total := 0
	for _, step := range cur.Steps {
		total += step.Iterations
	}
	for i := 0; i < total; i++ {
		rec, err = svc.Advance(ctx, rec.ID)
		require.NoError(t, err)
	}

	assert.True(t, rec.Progress.IsComplete)
	assert.Len(t, rec.Outputs, total)
	assert.Equal(t, total, calls)

	rec, err = svc.Advance(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, total+1, rec.State.ShiftCount)
	assert.Equal(t, total, calls, "completed curriculum does not generate")
}

func TestPathways_SnapshotAnnotateFork(t *testing.T) {
	svc := newPathways(t, nil)
	rec, err := svc.Create(ctx, toggleBlueprint())
	require.NoError(t, err)
	rec, err = svc.Advance(ctx, rec.ID)
	require.NoError(t, err)

	rec, snap, err := svc.Snapshot(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.Default().KernelVersion, snap.KernelVersion)
	require.Len(t, rec.Snapshots, 1)

	entryID := rec.State.TraceLog[1].ID
	rec, err = svc.Annotate(ctx, rec.ID, entryID, "worth revisiting")
	require.NoError(t, err)
	assert.Equal(t, "worth revisiting", rec.State.TraceLog[1].Annotation)

	_, err = svc.Annotate(ctx, rec.ID, "", "empty id")
	assert.Error(t, err)

	fork, err := svc.Fork(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exploration (Fork)", fork.Name)
	assert.Empty(t, fork.Snapshots)

	parent, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Contains(t, parent.State.TraceLog[len(parent.State.TraceLog)-1].Text, fork.ID)

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, rec.ID, summaries[0].ID)
	assert.Equal(t, fork.ID, summaries[1].ID)
}

func TestPathways_NotFound(t *testing.T) {
	svc := newPathways(t, nil)

	_, err := svc.Get(ctx, "NP-missing")
	assert.True(t, IsNotFound(err))
	_, err = svc.Advance(ctx, "NP-missing")
	assert.True(t, IsNotFound(err))
	_, err = svc.Revert(ctx, "NP-missing")
	assert.True(t, IsNotFound(err))
	_, _, err = svc.Snapshot(ctx, "NP-missing")
	assert.True(t, IsNotFound(err))
	_, err = svc.Fork(ctx, "NP-missing")
	assert.True(t, IsNotFound(err))
	_, _, err = svc.Advise(ctx, "NP-missing", "goal")
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(svc.Delete(ctx, "NP-missing")))
}

func TestPathways_Delete(t *testing.T) {
	svc := newPathways(t, nil)
	rec, err := svc.Create(ctx, toggleBlueprint())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.True(t, IsNotFound(err))
}

func TestPathways_Advise(t *testing.T) {
	t.Run("advice recorded", func(t *testing.T) {
		var prompts []string
		gen := generate.Func(func(_ context.Context, p string) (string, error) {
			prompts = append(prompts, p)
			return "Switch to fusion for deeper synthesis.", nil
		})
		logger, logs := observedLogger()
		svc := NewPathways(setupStore(t), catalog.Default(), gen, testSource(), logger)
		rec, err := svc.Create(ctx, toggleBlueprint())
		require.NoError(t, err)

		updated, advice, err := svc.Advise(ctx, rec.ID, "find a unifying theory")
		require.NoError(t, err)
		assert.Equal(t, "Switch to fusion for deeper synthesis.", advice)
		require.Len(t, prompts, 1)
		assert.Contains(t, prompts[0], `User's Goal: "find a unifying theory"`)

		stored, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		last := stored.State.TraceLog[len(stored.State.TraceLog)-1]
		assert.Equal(t, pathway.TraceAdvisorLog, last.Type)
		assert.Equal(t, updated.State.TraceLog, stored.State.TraceLog)
		assert.Equal(t, rec.State.ShiftCount, stored.State.ShiftCount)

		recorded := logs.FilterMessage("pathway advice recorded").All()
		require.Len(t, recorded, 1)
		assert.Equal(t, last.ID, recorded[0].ContextMap()["entry_id"])
	})

	t.Run("generator failure is stored", func(t *testing.T) {
		gen := generate.Func(func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		})
		svc := newPathways(t, gen)
		rec, err := svc.Create(ctx, toggleBlueprint())
		require.NoError(t, err)

		updated, advice, err := svc.Advise(ctx, rec.ID, "goal")
		require.Error(t, err)
		assert.Empty(t, advice)
		require.NotNil(t, updated)

		stored, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		last := stored.State.TraceLog[len(stored.State.TraceLog)-1]
		assert.Equal(t, pathway.TraceError, last.Type)
		assert.Equal(t, "Advisor Query ERROR: quota exceeded", last.Text)
	})

	for name, gen := range map[string]pathway.Generator{"nil": nil, "offline": generate.Offline{}} {
		t.Run(name+" generator changes nothing", func(t *testing.T) {
			svc := newPathways(t, gen)
			rec, err := svc.Create(ctx, toggleBlueprint())
			require.NoError(t, err)

			_, _, err = svc.Advise(ctx, rec.ID, "goal")
			assert.ErrorIs(t, err, pathway.ErrOffline)

			stored, err := svc.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec.State.TraceLog, stored.State.TraceLog)
		})
	}

	t.Run("empty goal", func(t *testing.T) {
		svc := newPathways(t, generate.Offline{})
		rec, err := svc.Create(ctx, toggleBlueprint())
		require.NoError(t, err)

		_, _, err = svc.Advise(ctx, rec.ID, " ")
		assert.ErrorIs(t, err, pathway.ErrEmptyGoal)
	})
}
