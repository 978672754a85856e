package pathway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/lattice/pkg/catalog"
	"github.com/dyluth/lattice/pkg/ident"
)

// ErrEmptyGoal is returned when advice is requested without a goal.
var ErrEmptyGoal = errors.New("advisor goal cannot be empty")

const (
	advisorGoalExcerpt     = 50
	advisorResponseExcerpt = 70
)

// AdvisorRequest is the pathway context handed to the generator when asking
// for goal-directed advice.
type AdvisorRequest struct {
	PathwayName   string
	Version       string
	ShiftCount    int
	Strategy      Strategy
	Scale         Scale
	ActiveDisplay string
	Cluster       ClusterConfig
	Goal          string

	// Curriculum fields are empty when no curriculum is attached.
	CurriculumName string
	StepNumber     int // one-based; zero when the cursor is unknown
	StepCount      int
	BasePrompt     string
}

// NewAdvisorRequest builds the advisor context for rec.
func NewAdvisorRequest(rec Record, goal string, cat *catalog.Catalog) AdvisorRequest {
	req := AdvisorRequest{
		PathwayName:   rec.Name,
		Version:       rec.State.CurrentVersion,
		ShiftCount:    rec.State.ShiftCount,
		Strategy:      rec.State.ActiveShiftStrategy,
		Scale:         rec.State.ActiveShiftScale,
		ActiveDisplay: rec.State.ActiveEchoDisplay,
		Cluster:       rec.Cluster,
		Goal:          goal,
	}
	if rec.CurriculumID == "" {
		return req
	}
	cur, ok := cat.Curriculum(rec.CurriculumID)
	if !ok {
		return req
	}
	req.CurriculumName = cur.Name
	req.StepCount = len(cur.Steps)
	if rec.Progress != nil {
		req.StepNumber = rec.Progress.CurrentStepIndex + 1
	}
	req.BasePrompt = rec.BasePrompt
	if req.BasePrompt == "" {
		req.BasePrompt = cur.BasePrompt
	}
	return req
}

// Prompt renders the request as generator input.
func (r AdvisorRequest) Prompt() string {
	var b strings.Builder
	b.WriteString("You are the NudgeKernel Predictive Shift Advisor.\n")
	fmt.Fprintf(&b, "Pathway Name: %q\n", r.PathwayName)
	fmt.Fprintf(&b, "Current State: Version %s, %d shifts completed.\n", r.Version, r.ShiftCount)
	fmt.Fprintf(&b, "Strategy: %s (Scale: %s).\n", r.Strategy, r.Scale)
	fmt.Fprintf(&b, "Active Guiding Echo(s): %s.\n", r.ActiveDisplay)
	fmt.Fprintf(&b, "Echo Cluster Config: IDs [%s], Link Mode: %s.\n", strings.Join(r.Cluster.IDs, ", "), r.Cluster.LinkMode)

	if r.CurriculumName == "" {
		b.WriteString("The pathway is not currently running a curriculum.\n")
	} else {
		step := "N/A"
		if r.StepNumber > 0 {
			step = fmt.Sprint(r.StepNumber)
		}
		base := r.BasePrompt
		if base == "" {
			base = "Not set"
		}
		fmt.Fprintf(&b, "The pathway is currently running the %q curriculum. Current step: %s/%d. Base prompt for curriculum: %q.\n",
			r.CurriculumName, step, r.StepCount, base)
	}

	fmt.Fprintf(&b, "User's Goal: %q\n\n", r.Goal)
	b.WriteString("Provide concise, actionable advice (max 150 words) to help achieve this goal. ")
	b.WriteString("Consider suggesting adjustments to strategy, scale, guiding echos, or if a curriculum might be beneficial or needs adjustment. Be specific if possible.")
	return b.String()
}

// Advise asks gen for advice towards goal and records the exchange in the
// trace log as an advisor-log entry. It returns the updated record and the
// advice text.
//
// An empty goal fails with ErrEmptyGoal and an absent or offline generator
// with ErrOffline; in both cases rec is returned unchanged. Any other
// generator failure appends an error entry, and the updated record is
// returned together with the error.
func Advise(ctx context.Context, rec Record, goal string, cat *catalog.Catalog, gen Generator, src ident.Source) (Record, string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return rec, "", ErrEmptyGoal
	}
	if gen == nil {
		return rec, "", ErrOffline
	}

	text, err := gen.Generate(ctx, NewAdvisorRequest(rec, goal, cat).Prompt())
	if errors.Is(err, ErrOffline) {
		return rec, "", err
	}

	out := cloneRecord(rec)
	out.UpdatedAt = src.Now()
	if err != nil {
		out.State.TraceLog = append(out.State.TraceLog,
			newEntry(src, TraceError, fmt.Sprintf("Advisor Query ERROR: %s", err)))
		return out, "", fmt.Errorf("advisor failed for pathway %s: %w", rec.ID, err)
	}

	out.State.TraceLog = append(out.State.TraceLog, newEntry(src, TraceAdvisorLog,
		fmt.Sprintf("Advisor Query: %q. Response: %q",
			truncate(goal, advisorGoalExcerpt)+"...", truncate(text, advisorResponseExcerpt)+"...")))
	return out, text, nil
}
