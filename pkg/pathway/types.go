// Package pathway implements the PathwayState engine: the DeltaShift phase
// counter of a configured pathway, its guidance display, its optional
// curriculum cursor, and the trace log every transition appends to.
//
// All functions are pure with respect to their inputs. Timestamps and IDs
// come from an injected ident.Source and content generation from an
// injected Generator.
package pathway

import (
	"fmt"
)

// LinkMode controls how several guidance entries combine.
type LinkMode string

const (
	// LinkToggle alternates between guidance entries, one per shift.
	LinkToggle LinkMode = "toggle"
	// LinkFusion applies every guidance entry at once.
	LinkFusion LinkMode = "fusion"
)

// Strategy is a shift strategy.
type Strategy string

const (
	StrategyExploratory           Strategy = "exploratory"
	StrategyConvergentRefinement  Strategy = "convergent_refinement"
	StrategyStandardToggle        Strategy = "standard_toggle"
	StrategyStandardFusion        Strategy = "standard_fusion"
	StrategyAdversarialDynamics   Strategy = "adversarial_dynamics"
	StrategyMetaAdaptiveHeuristic Strategy = "meta_adaptive_heuristic"
)

// Scale is a shift scale.
type Scale string

const (
	ScaleMicro        Scale = "micro"
	ScaleMeso         Scale = "meso"
	ScaleMacro        Scale = "macro"
	ScaleMetaAdaptive Scale = "meta_adaptive"
)

// TraceType classifies trace log entries. Values outside the constants
// below are allowed.
type TraceType string

const (
	TraceSystemInit    TraceType = "system-init"
	TraceVersionLog    TraceType = "version-log"
	TraceEchoLog       TraceType = "echo-log"
	TraceError         TraceType = "error"
	TraceSystemRevert  TraceType = "system-revert"
	TraceInfo          TraceType = "info"
	TraceCurriculumLog TraceType = "curriculum-log"
	TraceDataOps       TraceType = "data-ops"
	TraceAdvisorLog    TraceType = "advisor-log"
)

// TraceEntry is one line of a pathway's trace log. Only Annotation may
// change after the entry is appended.
type TraceEntry struct {
	ID         string    `json:"id"`
	Timestamp  string    `json:"timestamp"`
	Text       string    `json:"text"`
	Type       TraceType `json:"type"`
	Annotation string    `json:"annotation,omitempty"`
}

// DeltaShiftState is a pathway's phase progress.
type DeltaShiftState struct {
	CurrentVersion      string       `json:"currentVersion"`
	ShiftCount          int          `json:"shiftCount"`
	IsShiftActive       bool         `json:"isShiftActive"`
	ActiveEchoDisplay   string       `json:"activeEchoDisplay"`
	ActiveShiftStrategy Strategy     `json:"activeShiftStrategy"`
	ActiveShiftScale    Scale        `json:"activeShiftScale"`
	TraceLog            []TraceEntry `json:"traceLog"`
}

// ClusterConfig is the set of guidance entries a pathway cycles through.
type ClusterConfig struct {
	IDs      []string `json:"ids"`
	LinkMode LinkMode `json:"linkMode"`
}

// ShiftConfig is a pathway's strategy and scale.
type ShiftConfig struct {
	Strategy Strategy `json:"strategy"`
	Scale    Scale    `json:"scale"`
}

// Blueprint is the immutable configuration a pathway is created from.
type Blueprint struct {
	Name         string   `json:"name"`
	GuidanceIDs  []string `json:"guidingEchoBitIds"`
	LinkMode     LinkMode `json:"echoLinkMode"`
	Strategy     Strategy `json:"shiftStrategy"`
	Scale        Scale    `json:"shiftScale"`
	CurriculumID string   `json:"activeCurriculumId,omitempty"`
	BasePrompt   string   `json:"basePromptForCurriculum,omitempty"`
}

// CurriculumProgress is the cursor of an active curriculum. Both indexes are
// zero-based. Once IsComplete is set it never clears except through revert.
type CurriculumProgress struct {
	CurrentStepIndex       int    `json:"currentStepIndex"`
	CurrentIterationInStep int    `json:"currentIterationInStep"`
	IsComplete             bool   `json:"isComplete"`
	StatusMessage          string `json:"statusMessage"`
}

// GeneratedOutput records one piece of content produced by a curriculum step.
type GeneratedOutput struct {
	ID             string `json:"id"`
	PathwayID      string `json:"pathwayId"`
	StepName       string `json:"curriculumStepName"`
	Path           string `json:"path"`
	ContentPreview string `json:"contentPreview,omitempty"`
	FullContent    string `json:"fullContent,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Record is one configured pathway.
type Record struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Blueprint    Blueprint           `json:"blueprint"`
	Cluster      ClusterConfig       `json:"echoClusterConfig"`
	Shift        ShiftConfig         `json:"deltaShiftConfig"`
	State        DeltaShiftState     `json:"currentDeltaShiftState"`
	CreatedAt    string              `json:"createdAt"`
	UpdatedAt    string              `json:"updatedAt"`
	Snapshots    []Snapshot          `json:"snapshots"`
	CurriculumID string              `json:"activeCurriculumId,omitempty"`
	BasePrompt   string              `json:"basePromptForCurriculum,omitempty"`
	Progress     *CurriculumProgress `json:"curriculumProgress,omitempty"` // Present iff a curriculum is active
	Outputs      []GeneratedOutput   `json:"generatedOutputs"`
}

// SnapshotState holds the DeltaShift values captured by a snapshot.
type SnapshotState struct {
	CurrentVersion    string       `json:"currentVersion"`
	ShiftCount        int          `json:"shiftCount"`
	ActiveEchoDisplay string       `json:"activeEchoDisplay"`
	TraceLog          []TraceEntry `json:"traceLog"`
}

// Snapshot is a detached capture of a pathway. It is never mutated after
// creation and shares no memory with the live record.
type Snapshot struct {
	ID            string              `json:"id"`
	PathwayID     string              `json:"pathwayId"`
	Timestamp     string              `json:"timestamp"`
	PathwayName   string              `json:"pathwayName"`
	Shift         ShiftConfig         `json:"deltaShiftConfig"`
	Cluster       ClusterConfig       `json:"echoClusterConfig"`
	State         SnapshotState       `json:"currentDeltaShiftStateValues"`
	CurriculumID  string              `json:"activeCurriculumId,omitempty"`
	Progress      *CurriculumProgress `json:"curriculumProgress,omitempty"`
	Outputs       []GeneratedOutput   `json:"generatedOutputsSnapshot"`
	KernelVersion string              `json:"kernelVersion"`
}

// Validate checks if the LinkMode is a valid enum value.
func (m LinkMode) Validate() error {
	switch m {
	case LinkToggle, LinkFusion:
		return nil
	default:
		return fmt.Errorf("unknown link mode: %q", m)
	}
}

// Validate checks if the TraceType is a valid enum value.
func (t TraceType) Validate() error {
	switch t {
	case TraceSystemInit, TraceVersionLog, TraceEchoLog, TraceError, TraceSystemRevert,
		TraceInfo, TraceCurriculumLog, TraceDataOps, TraceAdvisorLog:
		return nil
	default:
		return fmt.Errorf("unknown trace type: %q", t)
	}
}

// Validate checks if the Strategy is a valid enum value.
func (s Strategy) Validate() error {
	switch s {
	case StrategyExploratory, StrategyConvergentRefinement, StrategyStandardToggle,
		StrategyStandardFusion, StrategyAdversarialDynamics, StrategyMetaAdaptiveHeuristic:
		return nil
	default:
		return fmt.Errorf("unknown shift strategy: %q", s)
	}
}

// Validate checks if the Scale is a valid enum value.
func (s Scale) Validate() error {
	switch s {
	case ScaleMicro, ScaleMeso, ScaleMacro, ScaleMetaAdaptive:
		return nil
	default:
		return fmt.Errorf("unknown shift scale: %q", s)
	}
}

// Validate checks the blueprint's required fields and enums.
func (b *Blueprint) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("pathway name cannot be empty")
	}
	if err := b.LinkMode.Validate(); err != nil {
		return fmt.Errorf("invalid link mode: %w", err)
	}
	if err := b.Strategy.Validate(); err != nil {
		return fmt.Errorf("invalid strategy: %w", err)
	}
	if err := b.Scale.Validate(); err != nil {
		return fmt.Errorf("invalid scale: %w", err)
	}
	for i, id := range b.GuidanceIDs {
		if id == "" {
			return fmt.Errorf("guidance id at index %d is empty", i)
		}
	}
	return nil
}

// Validate checks the record's identity and state invariants.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("pathway ID cannot be empty")
	}
	if err := r.Blueprint.Validate(); err != nil {
		return fmt.Errorf("pathway %s: %w", r.ID, err)
	}
	if r.State.ShiftCount < 0 {
		return fmt.Errorf("pathway %s: shift count must be >= 0, got %d", r.ID, r.State.ShiftCount)
	}
	if r.State.IsShiftActive != (r.State.ShiftCount > 0) {
		return fmt.Errorf("pathway %s: isShiftActive=%t inconsistent with shiftCount=%d",
			r.ID, r.State.IsShiftActive, r.State.ShiftCount)
	}
	if (r.Progress != nil) != (r.CurriculumID != "") {
		return fmt.Errorf("pathway %s: curriculum progress must be present iff a curriculum is active", r.ID)
	}
	return nil
}

// HasActiveCurriculum reports whether the record follows a curriculum that
// has not completed.
func (r *Record) HasActiveCurriculum() bool {
	return r.CurriculumID != "" && r.Progress != nil && !r.Progress.IsComplete
}
