// Package watch streams blackboard change events to a terminal or a pipe.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/pathway"
)

// OutputFormat selects how streamed events are written.
type OutputFormat string

const (
	// OutputFormatDefault is one human-readable line per event.
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSON is one JSON object per line.
	OutputFormatJSON OutputFormat = "json"
)

// EventSource is the part of a blackboard subscription StreamEvents reads.
type EventSource interface {
	Events() <-chan *blackboard.Event
	Errors() <-chan error
}

// StreamEvents writes events from sub until ctx is cancelled or the
// subscription closes. Subscription errors are written inline and do not
// stop the stream.
func StreamEvents(ctx context.Context, sub EventSource, format OutputFormat, w io.Writer) error {
	events := sub.Events()
	errs := sub.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, e, format); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(w, "⚠️  %v\n", err)
		}
	}
}

func writeEvent(w io.Writer, e *blackboard.Event, format OutputFormat) error {
	switch format {
	case OutputFormatJSON:
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	default:
		_, err := fmt.Fprintf(w, "[%s] %s\n", time.UnixMilli(e.AtMs).UTC().Format("15:04:05"), FormatEvent(e))
		return err
	}
}

// FormatEvent renders an event as a single human-readable line.
func FormatEvent(e *blackboard.Event) string {
	label := e.ID
	if e.Name != "" {
		label = fmt.Sprintf("%s (%s)", e.Name, e.ID)
	}

	switch e.Kind {
	case blackboard.EventShardSaved:
		return fmt.Sprintf("📄 Shard saved: %s @ %s", label, e.Version)
	case blackboard.EventShardDeleted:
		return fmt.Sprintf("🗑️  Shard deleted: %s", label)
	case blackboard.EventPathwaySaved:
		return fmt.Sprintf("🧭 Pathway saved: %s @ %s", label, e.Version)
	case blackboard.EventPathwayDeleted:
		return fmt.Sprintf("🗑️  Pathway deleted: %s", label)
	default:
		return fmt.Sprintf("❓ %s: %s", e.Kind, label)
	}
}

// PathwayLoader is the part of the blackboard client PollForShift needs.
type PathwayLoader interface {
	GetPathway(ctx context.Context, id string) (*pathway.Record, error)
}

// PollForShift polls a pathway until its shift count reaches at least
// minShift, then returns the record. A pathway that does not exist yet is
// waited for rather than reported.
func PollForShift(ctx context.Context, loader PathwayLoader, id string, minShift int, interval, timeout time.Duration) (*pathway.Record, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for pathway %s to reach shift %d after %v", id, minShift, timeout)

		case <-ticker.C:
			rec, err := loader.GetPathway(ctx, id)
			if err != nil {
				if blackboard.IsNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("failed to load pathway: %w", err)
			}
			if rec.State.ShiftCount >= minShift {
				return rec, nil
			}
		}
	}
}
