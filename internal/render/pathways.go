package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/pathway"
)

// PathwayTable writes pathway summaries as a table. Returns the number of
// rows written.
func PathwayTable(w io.Writer, summaries []blackboard.PathwaySummary, instanceName string, now time.Time) int {
	if len(summaries) == 0 {
		fmt.Fprintf(w, "No pathways found for instance '%s'\n", instanceName)
		return 0
	}

	fmt.Fprintf(w, "Pathways for instance '%s':\n\n", instanceName)
	fmt.Fprintf(w, "%-11s %-30s %-6s %s\n", "ID", "NAME", "SHIFTS", "AGE")
	fmt.Fprintf(w, "%-11s %-30s %-6s %s\n", "-----------", "------------------------------", "------", "--------")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-11s %-30s %-6d %s\n", shortID(s.ID), preview(s.Name, 30), s.ShiftCount, ageMs(s.CreatedAtMs, now))
	}

	fmt.Fprintf(w, "\n%d %s found\n", len(summaries), plural(len(summaries), "pathway", "pathways"))
	return len(summaries)
}

// PathwayDetail writes the configuration and progress of one pathway.
func PathwayDetail(w io.Writer, rec *pathway.Record) {
	st := rec.State
	fmt.Fprintf(w, "Pathway:  %s\n", rec.Name)
	fmt.Fprintf(w, "ID:       %s\n", rec.ID)
	fmt.Fprintf(w, "Version:  %s (%d %s)\n", st.CurrentVersion, st.ShiftCount, plural(st.ShiftCount, "shift", "shifts"))
	fmt.Fprintf(w, "Echo:     %s\n", st.ActiveEchoDisplay)
	fmt.Fprintf(w, "Strategy: %s\n", st.ActiveShiftStrategy)
	fmt.Fprintf(w, "Scale:    %s\n", st.ActiveShiftScale)
	fmt.Fprintf(w, "Created:  %s\n", rec.CreatedAt)
	fmt.Fprintf(w, "Updated:  %s\n", rec.UpdatedAt)

	if rec.Progress != nil {
		p := rec.Progress
		state := "active"
		if p.IsComplete {
			state = "complete"
		}
		fmt.Fprintf(w, "\nCurriculum: %s (%s)\n", rec.CurriculumID, state)
		fmt.Fprintf(w, "  Step %d, iteration %d\n", p.CurrentStepIndex+1, p.CurrentIterationInStep+1)
		fmt.Fprintf(w, "  %s\n", p.StatusMessage)
	}

	fmt.Fprintf(w, "\nSnapshots: %d\n", len(rec.Snapshots))
	fmt.Fprintf(w, "Outputs:   %d\n", len(rec.Outputs))
	for _, o := range rec.Outputs {
		fmt.Fprintf(w, "  %-32s %s\n", o.Path, preview(o.ContentPreview, 50))
	}
}

// TraceLog writes trace entries, one per line, oldest first.
func TraceLog(w io.Writer, entries []pathway.TraceEntry) int {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No trace entries")
		return 0
	}

	for _, e := range entries {
		fmt.Fprintf(w, "%-24s %-15s %s\n", e.Timestamp, e.Type, e.Text)
		if e.Annotation != "" {
			fmt.Fprintf(w, "%-24s %-15s ↳ %s\n", "", "", e.Annotation)
		}
	}
	return len(entries)
}

// TraceLogVerbose is TraceLog with entry IDs, which annotate needs.
func TraceLogVerbose(w io.Writer, entries []pathway.TraceEntry) int {
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  [%s] %s\n", e.ID, e.Timestamp, e.Type, e.Text)
		if e.Annotation != "" {
			fmt.Fprintf(w, "%s  ↳ %s\n", strings.Repeat(" ", len(e.ID)), e.Annotation)
		}
	}
	return len(entries)
}

// Snapshots writes a table of the pathway's snapshots.
func Snapshots(w io.Writer, rec *pathway.Record) int {
	if len(rec.Snapshots) == 0 {
		fmt.Fprintf(w, "No snapshots for '%s'\n", rec.Name)
		return 0
	}

	fmt.Fprintf(w, "Snapshots for '%s':\n\n", rec.Name)
	fmt.Fprintf(w, "%-24s %-10s %-8s %-8s %s\n", "TIMESTAMP", "VERSION", "OUTPUTS", "KERNEL", "ID")
	for _, s := range rec.Snapshots {
		fmt.Fprintf(w, "%-24s %-10s %-8d %-8s %s\n", s.Timestamp, s.State.CurrentVersion, len(s.Outputs), dash(s.KernelVersion), s.ID)
	}
	return len(rec.Snapshots)
}
