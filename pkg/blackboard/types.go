package blackboard

import (
	"fmt"
)

// EventKind identifies what changed on the blackboard.
type EventKind string

const (
	// EventShardSaved is published after a root shard tree is written.
	EventShardSaved EventKind = "shard_saved"

	// EventShardDeleted is published after a root shard tree is removed.
	EventShardDeleted EventKind = "shard_deleted"

	// EventPathwaySaved is published after a pathway record is written.
	EventPathwaySaved EventKind = "pathway_saved"

	// EventPathwayDeleted is published after a pathway record is removed.
	EventPathwayDeleted EventKind = "pathway_deleted"
)

// Event is the payload published on the instance events channel.
// It names the entity; subscribers fetch the entity itself if they need it.
type Event struct {
	Kind    EventKind `json:"kind"`
	ID      string    `json:"id"`                // Root shard ID or pathway ID
	Name    string    `json:"name,omitempty"`    // Shard or pathway name at write time
	Version string    `json:"version,omitempty"` // Root shard version or pathway DeltaShift version
	AtMs    int64     `json:"at_ms"`             // Unix milliseconds when the event was published
}

// PathwaySummary is one entry of the pathway index: enough to list pathways
// without decoding every record.
type PathwaySummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ShiftCount  int    `json:"shift_count"`
	CreatedAtMs int64  `json:"created_at_ms"`
}

// Validate checks if the EventKind is a valid enum value.
func (k EventKind) Validate() error {
	switch k {
	case EventShardSaved, EventShardDeleted, EventPathwaySaved, EventPathwayDeleted:
		return nil
	default:
		return fmt.Errorf("invalid event kind: %s", k)
	}
}

// Validate checks the event's kind and entity ID.
func (e *Event) Validate() error {
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		return fmt.Errorf("event ID cannot be empty")
	}
	return nil
}
