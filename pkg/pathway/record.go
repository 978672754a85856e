package pathway

import (
	"fmt"

	"github.com/dyluth/lattice/pkg/catalog"
	"github.com/dyluth/lattice/pkg/ident"
)

const (
	// RecordIDPrefix is prepended to every pathway ID.
	RecordIDPrefix = "NP-"
	// SnapshotIDPrefix is prepended to every snapshot ID.
	SnapshotIDPrefix = "SNAP-"

	unknownCurriculum = "Unknown"
	unsetBasePrompt   = "Not set"
	forkSuffix        = " (Fork)"
)

// Commit creates a pathway from a blueprint: a genesis state and, when the
// blueprint names a curriculum, a fresh curriculum cursor plus an activation
// entry in the trace log. The blueprint is assumed valid.
func Commit(bp Blueprint, cat *catalog.Catalog, src ident.Source) Record {
	state := InitGenesis(bp.GuidanceIDs, bp.LinkMode, bp.Strategy, bp.Scale, cat, src)
	now := src.Now()
	bp = cloneBlueprint(bp)

	rec := Record{
		ID:           RecordIDPrefix + src.NewID(),
		Name:         bp.Name,
		Blueprint:    bp,
		Cluster:      ClusterConfig{IDs: append([]string{}, bp.GuidanceIDs...), LinkMode: bp.LinkMode},
		Shift:        ShiftConfig{Strategy: bp.Strategy, Scale: bp.Scale},
		CreatedAt:    now,
		UpdatedAt:    now,
		Snapshots:    []Snapshot{},
		CurriculumID: bp.CurriculumID,
		BasePrompt:   bp.BasePrompt,
		Outputs:      []GeneratedOutput{},
	}

	if bp.CurriculumID != "" {
		name, basePrompt := unknownCurriculum, bp.BasePrompt
		if cur, ok := cat.Curriculum(bp.CurriculumID); ok {
			name = cur.Name
			if basePrompt == "" {
				basePrompt = cur.BasePrompt
			}
		}
		if basePrompt == "" {
			basePrompt = unsetBasePrompt
		}
		rec.Progress = &CurriculumProgress{StatusMessage: fmt.Sprintf("Curriculum %q activated.", name)}
		state.TraceLog = append(state.TraceLog, newEntry(src, TraceCurriculumLog,
			fmt.Sprintf("Curriculum Activated: %q - Base Prompt: %q", name, basePrompt)))
	}

	rec.State = state
	return rec
}

// Revert returns rec reset to a fresh genesis state derived from its
// blueprint. The curriculum cursor restarts and generated outputs are
// cleared. The system-revert entry is also returned on its own.
func Revert(rec Record, cat *catalog.Catalog, src ident.Source) (Record, TraceEntry) {
	state, entry := RevertToGenesis(rec.Blueprint, cat, src)
	out := cloneRecord(rec)
	out.Progress = nil

	if rec.Blueprint.CurriculumID != "" {
		name := unknownCurriculum
		if cur, ok := cat.Curriculum(rec.Blueprint.CurriculumID); ok {
			name = cur.Name
		}
		out.Progress = &CurriculumProgress{StatusMessage: fmt.Sprintf("Curriculum %q reset to beginning.", name)}
		state.TraceLog = append(state.TraceLog, newEntry(src, TraceCurriculumLog, out.Progress.StatusMessage))
	}

	out.State = state
	out.Outputs = []GeneratedOutput{}
	out.UpdatedAt = src.Now()
	return out, entry
}

// TakeSnapshot captures rec into a detached snapshot, appends it to the
// record, and logs "Snapshot taken" after the capture.
func TakeSnapshot(rec Record, kernelVersion string, src ident.Source) (Record, Snapshot) {
	snap := Snapshot{
		ID:          SnapshotIDPrefix + rec.ID + "-" + src.NewID(),
		PathwayID:   rec.ID,
		Timestamp:   src.Now(),
		PathwayName: rec.Name,
		Shift:       rec.Shift,
		Cluster:     ClusterConfig{IDs: append([]string{}, rec.Cluster.IDs...), LinkMode: rec.Cluster.LinkMode},
		State: SnapshotState{
			CurrentVersion:    rec.State.CurrentVersion,
			ShiftCount:        rec.State.ShiftCount,
			ActiveEchoDisplay: rec.State.ActiveEchoDisplay,
			TraceLog:          copyTrace(rec.State.TraceLog),
		},
		CurriculumID:  rec.CurriculumID,
		Progress:      cloneProgress(rec.Progress),
		Outputs:       copyOutputs(rec.Outputs),
		KernelVersion: kernelVersion,
	}

	out := cloneRecord(rec)
	out.Snapshots = append(out.Snapshots, snap)
	out.State.TraceLog = append(out.State.TraceLog, newEntry(src, TraceInfo, "Snapshot taken: "+snap.ID))
	return out, snap
}

// Annotate sets the annotation of the trace entry with the given ID. When no
// entry has that ID, a new info entry carrying text is appended under it.
func Annotate(rec Record, entryID, text string, src ident.Source) Record {
	out := cloneRecord(rec)
	for i := range out.State.TraceLog {
		if out.State.TraceLog[i].ID == entryID {
			out.State.TraceLog[i].Annotation = text
			return out
		}
	}
	out.State.TraceLog = append(out.State.TraceLog, TraceEntry{
		ID:        entryID,
		Timestamp: src.Now(),
		Text:      text,
		Type:      TraceInfo,
	})
	return out
}

// Fork deep-copies rec into a new pathway named "<name> (Fork)". The fork
// starts without snapshots and its trace log records its origin; the parent
// gains an entry naming the fork. It returns the fork and the updated parent.
func Fork(rec Record, src ident.Source) (Record, Record) {
	now := src.Now()
	child := cloneRecord(rec)
	child.ID = RecordIDPrefix + src.NewID()
	child.Name = rec.Name + forkSuffix
	child.CreatedAt = now
	child.UpdatedAt = now
	child.Snapshots = []Snapshot{}
	child.State.TraceLog = append(child.State.TraceLog, newEntry(src, TraceInfo,
		fmt.Sprintf("Forked from NudgePathway %s (%q).", rec.ID, rec.Name)))

	parent := cloneRecord(rec)
	parent.State.TraceLog = append(parent.State.TraceLog, newEntry(src, TraceInfo,
		fmt.Sprintf("Pathway forked into new Pathway ID: %s (%q).", child.ID, child.Name)))
	return child, parent
}

// cloneRecord returns a copy of rec that shares no slices or pointers with it.
func cloneRecord(rec Record) Record {
	out := rec
	out.Blueprint = cloneBlueprint(rec.Blueprint)
	out.Cluster.IDs = append([]string{}, rec.Cluster.IDs...)
	out.State.TraceLog = copyTrace(rec.State.TraceLog)
	out.Progress = cloneProgress(rec.Progress)
	out.Outputs = copyOutputs(rec.Outputs)
	out.Snapshots = make([]Snapshot, len(rec.Snapshots))
	for i, s := range rec.Snapshots {
		s.Cluster.IDs = append([]string{}, s.Cluster.IDs...)
		s.State.TraceLog = copyTrace(s.State.TraceLog)
		s.Progress = cloneProgress(s.Progress)
		s.Outputs = copyOutputs(s.Outputs)
		out.Snapshots[i] = s
	}
	return out
}

func cloneBlueprint(bp Blueprint) Blueprint {
	bp.GuidanceIDs = append([]string{}, bp.GuidanceIDs...)
	return bp
}

func cloneProgress(p *CurriculumProgress) *CurriculumProgress {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func copyOutputs(outputs []GeneratedOutput) []GeneratedOutput {
	out := make([]GeneratedOutput, len(outputs))
	copy(out, outputs)
	return out
}
