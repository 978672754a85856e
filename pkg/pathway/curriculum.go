package pathway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/lattice/pkg/catalog"
	"github.com/dyluth/lattice/pkg/ident"
)

// ErrOffline is returned by a Generator that has no backing model. Curriculum
// steps treat it as "skipped" rather than "failed".
var ErrOffline = errors.New("NudgeKernel AI Offline")

// ErrStepOutOfRange means the record's curriculum cursor points past the
// steps of the curriculum it names, which happens when the catalog changed
// underneath a stored pathway.
var ErrStepOutOfRange = errors.New("curriculum step index out of range")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	previewLength      = 200
	promptExcerpt      = 150
	contentExcerpt     = 100
	recentOutputs      = 2
	defaultBasePrompt  = "Perform the following task."
	curriculumFallback = "NudgeKernel System (Curriculum Guided)"
)

// Request is the context handed to the generator for one curriculum step.
type Request struct {
	PathwayName    string
	CurriculumName string
	StepIndex      int // zero-based
	StepCount      int
	StepName       string
	Iteration      int // zero-based
	Iterations     int
	BasePrompt     string
	Instruction    string
	Guidance       *catalog.Guidance
	Recent         []GeneratedOutput
}

// Prompt renders the request as generator input.
func (r Request) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NudgeKernel AI Task for Pathway %q:\n", r.PathwayName)
	fmt.Fprintf(&b, "Curriculum: %q\n", r.CurriculumName)
	fmt.Fprintf(&b, "Current Step (%d/%d): %q (Iteration %d/%d)\n", r.StepIndex+1, r.StepCount, r.StepName, r.Iteration+1, r.Iterations)
	fmt.Fprintf(&b, "Base Prompt/Goal for Curriculum: %q\n", r.BasePrompt)
	fmt.Fprintf(&b, "Specific Instruction for this Step: %q\n", r.Instruction)
	if r.Guidance != nil {
		fmt.Fprintf(&b, "Consider the principles of Guiding Echo: %q - %s.\n", r.Guidance.Title, r.Guidance.Description)
	}
	b.WriteString("PREVIOUSLY GENERATED OUTPUTS (last 2 for context, if any):\n")
	if len(r.Recent) == 0 {
		b.WriteString("No previous outputs in this pathway.\n")
	}
	for _, o := range r.Recent {
		preview := truncate(o.ContentPreview, contentExcerpt)
		if preview == "" {
			preview = "N/A"
		}
		fmt.Fprintf(&b, "- %s: %s\n", o.Path, preview)
	}
	b.WriteString("\nGenerate the content as requested by the step instruction. Be concise and directly address the task.")
	return b.String()
}

// AdvanceRecord performs one advance of a pathway. When the record follows an
// incomplete curriculum found in cat, the curriculum step runs; otherwise a
// plain DeltaShift advance is applied. Completion is terminal: a completed
// curriculum's cursor is left untouched while the shift counter still moves.
func AdvanceRecord(ctx context.Context, rec Record, cat *catalog.Catalog, gen Generator, src ident.Source) (Record, error) {
	if rec.HasActiveCurriculum() {
		if cur, ok := cat.Curriculum(rec.CurriculumID); ok {
			return StepCurriculum(ctx, rec, cur, cat, gen, src)
		}
	}
	return advancePlain(rec, cat, src), nil
}

func advancePlain(rec Record, titles TitleLookup, src ident.Source) Record {
	state, entries := Advance(rec.State, rec.Cluster, rec.Shift.Strategy, rec.Shift.Scale, titles, src)
	out := cloneRecord(rec)
	state.TraceLog = append(state.TraceLog, entries...)
	out.State = state
	out.UpdatedAt = src.Now()
	return out
}

// StepCurriculum runs the current curriculum step of rec: it asks gen for
// content, records one generated output, moves the cursor, and applies the
// standard shift bookkeeping with the display guidance taken from the step.
//
// A nil generator, ErrOffline, or any other generator error yields placeholder
// content and an error trace entry; the step still completes. The returned
// error is reserved for records whose cursor does not fit the curriculum.
func StepCurriculum(ctx context.Context, rec Record, cur *catalog.Curriculum, cat *catalog.Catalog, gen Generator, src ident.Source) (Record, error) {
	if rec.Progress == nil || rec.Progress.IsComplete {
		return Record{}, fmt.Errorf("pathway %s has no active curriculum", rec.ID)
	}
	progress := *rec.Progress
	if progress.CurrentStepIndex < 0 || progress.CurrentStepIndex >= len(cur.Steps) {
		return Record{}, fmt.Errorf("pathway %s step %d of %q: %w", rec.ID, progress.CurrentStepIndex+1, cur.Name, ErrStepOutOfRange)
	}
	step := cur.Steps[progress.CurrentStepIndex]
	out := cloneRecord(rec)

	basePrompt := rec.BasePrompt
	if basePrompt == "" {
		basePrompt = cur.BasePrompt
	}
	if basePrompt == "" {
		basePrompt = defaultBasePrompt
	}
	req := Request{
		PathwayName:    rec.Name,
		CurriculumName: cur.Name,
		StepIndex:      progress.CurrentStepIndex,
		StepCount:      len(cur.Steps),
		StepName:       step.Name,
		Iteration:      progress.CurrentIterationInStep,
		Iterations:     step.Iterations,
		BasePrompt:     basePrompt,
		Instruction:    step.Instruction,
		Recent:         lastOutputs(rec.Outputs, recentOutputs),
	}
	if step.GuidanceID != "" {
		if g, ok := cat.GuidanceByID(step.GuidanceID); ok {
			req.Guidance = &g
		}
	}

	content, entries := generate(ctx, gen, req, src)

	filename := outputFileName(step, progress)
	preview := truncate(content, previewLength)
	if len([]rune(content)) > previewLength {
		preview += "..."
	}
	output := GeneratedOutput{
		ID:             src.NewID(),
		PathwayID:      rec.ID,
		StepName:       step.Name,
		Path:           filename,
		ContentPreview: preview,
		FullContent:    content,
		Timestamp:      src.Now(),
	}
	out.Outputs = append(out.Outputs, output)
	entries = append(entries, newEntry(src, TraceDataOps,
		fmt.Sprintf("Output Generated (Simulated): %s. Preview: %s", filename, preview)))

	progress.CurrentIterationInStep++
	if progress.CurrentIterationInStep >= step.Iterations {
		progress.CurrentIterationInStep = 0
		progress.CurrentStepIndex++
		if progress.CurrentStepIndex >= len(cur.Steps) {
			progress.IsComplete = true
			progress.StatusMessage = "Curriculum completed successfully!"
			entries = append(entries, newEntry(src, TraceCurriculumLog, fmt.Sprintf("Curriculum %q COMPLETED.", cur.Name)))
		} else {
			next := cur.Steps[progress.CurrentStepIndex]
			progress.StatusMessage = fmt.Sprintf("Advanced to Step %d: %q.", progress.CurrentStepIndex+1, next.Name)
			entries = append(entries, newEntry(src, TraceCurriculumLog, progress.StatusMessage))
		}
	} else {
		progress.StatusMessage = fmt.Sprintf("Step %d (%q): Iteration %d/%d.",
			progress.CurrentStepIndex+1, step.Name, progress.CurrentIterationInStep+1, step.Iterations)
		entries = append(entries, newEntry(src, TraceCurriculumLog, progress.StatusMessage))
	}
	out.Progress = &progress

	// The standard advance still runs for version and shift bookkeeping; its
	// echo-log entry is replaced by the curriculum's own guidance entry.
	state, shiftEntries := Advance(rec.State, rec.Cluster, rec.Shift.Strategy, rec.Shift.Scale, cat, src)
	for _, e := range shiftEntries {
		if e.Type != TraceEchoLog {
			entries = append(entries, e)
		}
	}
	state.ActiveEchoDisplay = curriculumDisplay(step, rec.Blueprint, cat)
	entries = append(entries, newEntry(src, TraceEchoLog, "Active Guidance: "+state.ActiveEchoDisplay))

	state.TraceLog = append(state.TraceLog, entries...)
	out.State = state
	out.UpdatedAt = src.Now()
	return out, nil
}

// generate calls gen and converts every failure mode into placeholder content
// plus trace entries.
func generate(ctx context.Context, gen Generator, req Request, src ident.Source) (string, []TraceEntry) {
	content := fmt.Sprintf("AI Generated Content for: %s - Step %d: %q (Iteration %d)",
		req.CurriculumName, req.StepIndex+1, req.StepName, req.Iteration+1)
	skipped := func() (string, []TraceEntry) {
		return content + "\n\n[Placeholder - AI Offline]", []TraceEntry{newEntry(src, TraceError,
			fmt.Sprintf("AI Content Generation SKIPPED for Step %q: %s. Using placeholder.", req.StepName, ErrOffline))}
	}
	if gen == nil {
		return skipped()
	}

	prompt := req.Prompt()
	sent := newEntry(src, TraceCurriculumLog,
		fmt.Sprintf("AI Task Sent for Step %q: %s...", req.StepName, truncate(prompt, promptExcerpt)))

	text, err := gen.Generate(ctx, prompt)
	switch {
	case errors.Is(err, ErrOffline):
		return skipped()
	case err != nil:
		return content + fmt.Sprintf("\n\n[AI Generation Error: %s]", err), []TraceEntry{sent, newEntry(src, TraceError,
			fmt.Sprintf("AI Content Generation FAILED for Step %q: %s. Using placeholder.", req.StepName, err))}
	}
	return text, []TraceEntry{sent, newEntry(src, TraceCurriculumLog,
		fmt.Sprintf("AI Content Received for Step %q: %s...", req.StepName, truncate(text, contentExcerpt)))}
}

// curriculumDisplay picks the guidance label shown during a curriculum step:
// the step's own guidance, else the blueprint's guidance, else a generic
// label. It always wins over the toggle/fusion computation.
func curriculumDisplay(step catalog.Step, bp Blueprint, titles TitleLookup) string {
	switch {
	case step.GuidanceID != "":
		return titles.Title(step.GuidanceID) + " (Curriculum Step)"
	case len(bp.GuidanceIDs) > 0:
		return strings.Join(lookupTitles(bp.GuidanceIDs, titles), " + ") + fmt.Sprintf(" (%s)", bp.LinkMode)
	default:
		return curriculumFallback
	}
}

// outputFileName substitutes the first "##" of the step template with the
// two-digit, one-based iteration number.
func outputFileName(step catalog.Step, p CurriculumProgress) string {
	if step.OutputTemplate == "" {
		return fmt.Sprintf("curriculum_output_s%d_i%d.txt", p.CurrentStepIndex+1, p.CurrentIterationInStep+1)
	}
	return strings.Replace(step.OutputTemplate, "##", fmt.Sprintf("%02d", p.CurrentIterationInStep+1), 1)
}

func lastOutputs(outputs []GeneratedOutput, n int) []GeneratedOutput {
	if len(outputs) <= n {
		return outputs
	}
	return outputs[len(outputs)-n:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
