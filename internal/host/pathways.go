package host

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dyluth/lattice/internal/logging"
	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/catalog"
	"github.com/dyluth/lattice/pkg/ident"
	"github.com/dyluth/lattice/pkg/pathway"
)

// Pathways is the host service for configured pathways.
type Pathways struct {
	store  PathwayStore
	cat    *catalog.Catalog
	gen    pathway.Generator
	src    ident.Source
	logger *zap.Logger
}

// NewPathways creates the pathway service. gen may be nil; curriculum steps
// then use placeholder content.
func NewPathways(store PathwayStore, cat *catalog.Catalog, gen pathway.Generator, src ident.Source, logger *zap.Logger) *Pathways {
	return &Pathways{store: store, cat: cat, gen: gen, src: src, logger: logging.OrNop(logger)}
}

// Catalog returns the catalog the service resolves guidance and curricula
// against.
func (p *Pathways) Catalog() *catalog.Catalog {
	return p.cat
}

// Create commits a blueprint as a new pathway.
func (p *Pathways) Create(ctx context.Context, bp pathway.Blueprint) (*pathway.Record, error) {
	if err := bp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid blueprint: %w", err)
	}
	for _, id := range bp.GuidanceIDs {
		if _, ok := p.cat.GuidanceByID(id); !ok {
			p.logger.Warn("unknown guidance id in blueprint", zap.String("guidance_id", id))
		}
	}
	if bp.CurriculumID != "" {
		if _, ok := p.cat.Curriculum(bp.CurriculumID); !ok {
			p.logger.Warn("unknown curriculum in blueprint", zap.String("curriculum_id", bp.CurriculumID))
		}
	}

	rec := pathway.Commit(bp, p.cat, p.src)
	if err := p.store.SavePathway(ctx, &rec); err != nil {
		return nil, fmt.Errorf("failed to save pathway: %w", err)
	}

	p.logger.Info("pathway created",
		zap.String("pathway_id", rec.ID),
		zap.String("name", rec.Name),
		zap.String("curriculum_id", rec.CurriculumID))
	return &rec, nil
}

// Get returns a pathway by ID.
func (p *Pathways) Get(ctx context.Context, id string) (*pathway.Record, error) {
	rec, err := p.store.GetPathway(ctx, id)
	if err != nil {
		if blackboard.IsNotFound(err) {
			return nil, &NotFoundError{Kind: "pathway", ID: id}
		}
		return nil, fmt.Errorf("failed to load pathway %s: %w", id, err)
	}
	return rec, nil
}

// List returns a summary of every pathway in creation order.
func (p *Pathways) List(ctx context.Context) ([]blackboard.PathwaySummary, error) {
	return p.store.ListPathways(ctx)
}

// Delete removes a pathway.
func (p *Pathways) Delete(ctx context.Context, id string) error {
	if err := p.store.DeletePathway(ctx, id); err != nil {
		if blackboard.IsNotFound(err) {
			return &NotFoundError{Kind: "pathway", ID: id}
		}
		return fmt.Errorf("failed to delete pathway %s: %w", id, err)
	}
	p.logger.Info("pathway deleted", zap.String("pathway_id", id))
	return nil
}

// Advance performs one DeltaShift, stepping the curriculum when one is
// active.
func (p *Pathways) Advance(ctx context.Context, id string) (*pathway.Record, error) {
	rec, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := pathway.AdvanceRecord(ctx, *rec, p.cat, p.gen, p.src)
	if err != nil {
		return nil, fmt.Errorf("failed to advance pathway %s: %w", id, err)
	}
	if err := p.save(ctx, &next); err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("pathway_id", id),
		zap.String("version", next.State.CurrentVersion),
		zap.Int("shift_count", next.State.ShiftCount),
	}
	if next.Progress != nil {
		fields = append(fields,
			zap.Int("step_index", next.Progress.CurrentStepIndex),
			zap.Bool("curriculum_complete", next.Progress.IsComplete))
	}
	p.logger.Info("pathway advanced", fields...)
	return &next, nil
}

// Revert resets a pathway to a fresh genesis state.
func (p *Pathways) Revert(ctx context.Context, id string) (*pathway.Record, error) {
	rec, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, entry := pathway.Revert(*rec, p.cat, p.src)
	if err := p.save(ctx, &next); err != nil {
		return nil, err
	}

	p.logger.Info("pathway reverted to genesis",
		zap.String("pathway_id", id),
		zap.String("revert_entry_id", entry.ID),
		zap.String("previous_version", rec.State.CurrentVersion),
		zap.Int("discarded_shifts", rec.State.ShiftCount))
	return &next, nil
}

// Snapshot captures the pathway and stores the snapshot on it.
func (p *Pathways) Snapshot(ctx context.Context, id string) (*pathway.Record, pathway.Snapshot, error) {
	rec, err := p.Get(ctx, id)
	if err != nil {
		return nil, pathway.Snapshot{}, err
	}

	next, snap := pathway.TakeSnapshot(*rec, p.cat.KernelVersion, p.src)
	if err := p.save(ctx, &next); err != nil {
		return nil, pathway.Snapshot{}, err
	}

	p.logger.Info("pathway snapshot taken",
		zap.String("pathway_id", id),
		zap.String("snapshot_id", snap.ID),
		zap.Int("shift_count", snap.State.ShiftCount))
	return &next, snap, nil
}

// Annotate attaches text to a trace entry of the pathway.
func (p *Pathways) Annotate(ctx context.Context, id, entryID, text string) (*pathway.Record, error) {
	if entryID == "" {
		return nil, fmt.Errorf("trace entry ID cannot be empty")
	}
	rec, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := pathway.Annotate(*rec, entryID, text, p.src)
	if err := p.save(ctx, &next); err != nil {
		return nil, err
	}

	p.logger.Info("trace entry annotated",
		zap.String("pathway_id", id),
		zap.String("entry_id", entryID))
	return &next, nil
}

// Advise asks the generator for advice towards goal and records the exchange
// in the pathway's trace log. When the generator fails, the error entry is
// stored and the updated pathway is returned together with the error. An
// offline generator or an empty goal changes nothing.
func (p *Pathways) Advise(ctx context.Context, id, goal string) (*pathway.Record, string, error) {
	rec, err := p.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	next, advice, advErr := pathway.Advise(ctx, *rec, goal, p.cat, p.gen, p.src)
	if errors.Is(advErr, pathway.ErrOffline) || errors.Is(advErr, pathway.ErrEmptyGoal) {
		return nil, "", fmt.Errorf("cannot advise pathway %s: %w", id, advErr)
	}
	if err := p.save(ctx, &next); err != nil {
		return nil, "", err
	}

	if advErr != nil {
		p.logger.Warn("pathway advice failed",
			zap.String("pathway_id", id),
			zap.Error(advErr))
		return &next, "", advErr
	}
	p.logger.Info("pathway advice recorded",
		zap.String("pathway_id", id),
		zap.String("entry_id", next.State.TraceLog[len(next.State.TraceLog)-1].ID))
	return &next, advice, nil
}

// Fork copies a pathway into a new one. Both the fork and the updated
// parent are stored; the fork is returned.
func (p *Pathways) Fork(ctx context.Context, id string) (*pathway.Record, error) {
	rec, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	child, parent := pathway.Fork(*rec, p.src)
	if err := p.save(ctx, &child); err != nil {
		return nil, err
	}
	if err := p.save(ctx, &parent); err != nil {
		return nil, err
	}

	p.logger.Info("pathway forked",
		zap.String("pathway_id", id),
		zap.String("fork_id", child.ID))
	return &child, nil
}

func (p *Pathways) save(ctx context.Context, rec *pathway.Record) error {
	if err := p.store.SavePathway(ctx, rec); err != nil {
		return fmt.Errorf("failed to save pathway %s: %w", rec.ID, err)
	}
	return nil
}
