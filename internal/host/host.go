// Package host wires the pure shard and pathway engines to the blackboard.
// Every operation loads the current entity, calls the engine, saves the
// result, and logs the transition. Operations on the same entity are not
// serialised here; callers that share a store must do so themselves.
package host

import (
	"context"

	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/pathway"
	"github.com/dyluth/lattice/pkg/shard"
)

// ShardStore persists whole root shard trees.
type ShardStore interface {
	SaveRoot(ctx context.Context, root *shard.Shard) error
	GetRoot(ctx context.Context, rootID string) (*shard.Shard, error)
	DeleteRoot(ctx context.Context, rootID string) error
	ListRoots(ctx context.Context) ([]*shard.Shard, error)
}

// PathwayStore persists pathway records.
type PathwayStore interface {
	SavePathway(ctx context.Context, rec *pathway.Record) error
	GetPathway(ctx context.Context, pathwayID string) (*pathway.Record, error)
	DeletePathway(ctx context.Context, pathwayID string) error
	ListPathways(ctx context.Context) ([]blackboard.PathwaySummary, error)
}

var (
	_ ShardStore   = (*blackboard.Client)(nil)
	_ PathwayStore = (*blackboard.Client)(nil)
)
