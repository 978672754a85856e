package pathway

import (
	"fmt"
	"strings"

	"github.com/dyluth/lattice/pkg/ident"
)

// GenesisVersion is the version label of every genesis state.
const GenesisVersion = "v1.0.0"

// DefaultEchoDisplay is shown when a pathway has no guidance entries.
const DefaultEchoDisplay = "NudgeKernel System"

// TitleLookup resolves guidance IDs to display titles. Unknown IDs resolve
// to a placeholder title rather than an error.
type TitleLookup interface {
	Title(id string) string
}

// InitGenesis builds the state of a pathway before its first shift. The trace
// log is seeded with one system-init entry.
func InitGenesis(ids []string, mode LinkMode, strategy Strategy, scale Scale, titles TitleLookup, src ident.Source) DeltaShiftState {
	display := DefaultEchoDisplay
	if len(ids) > 0 {
		sep := " / "
		if mode == LinkFusion {
			sep = " & "
		}
		display = strings.Join(lookupTitles(ids, titles), sep) + fmt.Sprintf(" (%s)", mode)
	}

	return DeltaShiftState{
		CurrentVersion:      GenesisVersion,
		ShiftCount:          0,
		IsShiftActive:       false,
		ActiveEchoDisplay:   display,
		ActiveShiftStrategy: strategy,
		ActiveShiftScale:    scale,
		TraceLog: []TraceEntry{newEntry(src, TraceSystemInit,
			fmt.Sprintf("NudgePathway Initialized. Strategy: %s, Scale: %s. Guiding Echos: %s", strategy, scale, display))},
	}
}

// Advance moves state forward by one shift. The returned state's trace log
// is a copy of the input's; the new version-log and echo-log entries are
// returned separately for the caller to append.
//
// In toggle mode the displayed guidance is ids[(shiftCount-1) mod len(ids)],
// chosen by position only. Any other mode fuses all titles.
func Advance(state DeltaShiftState, cluster ClusterConfig, strategy Strategy, scale Scale, titles TitleLookup, src ident.Source) (DeltaShiftState, []TraceEntry) {
	count := state.ShiftCount + 1
	version := fmt.Sprintf("v1.0.%d", count)

	var display string
	switch {
	case len(cluster.IDs) == 0:
		display = DefaultEchoDisplay
	case cluster.LinkMode == LinkToggle:
		display = titles.Title(cluster.IDs[(count-1)%len(cluster.IDs)]) + " (Toggle)"
	default:
		display = strings.Join(lookupTitles(cluster.IDs, titles), " & ") + " (Fusion)"
	}

	entries := []TraceEntry{
		newEntry(src, TraceVersionLog,
			fmt.Sprintf("DeltaShift %d Advanced. New Version: %s. Strategy: %s, Scale: %s.", count, version, strategy, scale)),
		newEntry(src, TraceEchoLog, "Active Guiding Echo(s): "+display),
	}

	next := state
	next.TraceLog = copyTrace(state.TraceLog)
	next.CurrentVersion = version
	next.ShiftCount = count
	next.IsShiftActive = true
	next.ActiveEchoDisplay = display
	next.ActiveShiftStrategy = strategy
	next.ActiveShiftScale = scale
	return next, entries
}

// RevertToGenesis rebuilds a fresh genesis state from the blueprint and
// appends one system-revert entry to it. The same entry is also returned on
// its own. Accumulated shifts and their log entries are discarded.
func RevertToGenesis(bp Blueprint, titles TitleLookup, src ident.Source) (DeltaShiftState, TraceEntry) {
	state := InitGenesis(bp.GuidanceIDs, bp.LinkMode, bp.Strategy, bp.Scale, titles, src)
	entry := newEntry(src, TraceSystemRevert, "NudgePathway reverted to Genesis state.")
	state.TraceLog = append(state.TraceLog, entry)
	return state, entry
}

func lookupTitles(ids []string, titles TitleLookup) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = titles.Title(id)
	}
	return out
}

func newEntry(src ident.Source, typ TraceType, text string) TraceEntry {
	return TraceEntry{ID: src.NewID(), Timestamp: src.Now(), Text: text, Type: typ}
}

func copyTrace(log []TraceEntry) []TraceEntry {
	out := make([]TraceEntry, len(log))
	copy(out, log)
	return out
}
