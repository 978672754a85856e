package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/lattice/pkg/pathway"
	"github.com/dyluth/lattice/pkg/shard"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// Client provides instance-scoped Redis operations for the blackboard.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new blackboard client for the specified instance.
// The client automatically namespaces all keys and channels with the instance name.
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace this client writes under.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
// Returns an error if Redis is not reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveRoot writes a whole root shard tree and publishes an event.
// Validates the tree before writing. The root is added to the creation index
// on first write; later writes keep its original position.
func (c *Client) SaveRoot(ctx context.Context, root *shard.Shard) error {
	if err := root.Validate(); err != nil {
		return fmt.Errorf("invalid shard tree: %w", err)
	}

	payload, err := RootToJSON(root)
	if err != nil {
		return fmt.Errorf("failed to serialize shard tree: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ShardRootKey(c.instanceName, root.ShardID), payload, 0)
		pipe.ZAddNX(ctx, RootsIndexKey(c.instanceName), redis.Z{
			Score:  IndexScore(TimestampMs(root.CreatedAt)),
			Member: root.ShardID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write shard tree to Redis: %w", err)
	}

	version := ""
	if v := root.CurrentVersion(); v != nil {
		version = v.VersionID
	}
	return c.publish(ctx, Event{Kind: EventShardSaved, ID: root.ShardID, Name: root.ShardName, Version: version})
}

// GetRoot retrieves a root shard tree by root ID.
// Returns (nil, redis.Nil) if the root doesn't exist.
// Use IsNotFound() to check for not-found errors.
func (c *Client) GetRoot(ctx context.Context, rootID string) (*shard.Shard, error) {
	payload, err := c.rdb.Get(ctx, ShardRootKey(c.instanceName, rootID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read shard tree from Redis: %w", err)
	}

	root, err := JSONToRoot(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize shard tree: %w", err)
	}
	return root, nil
}

// DeleteRoot removes a root shard tree and its index entry.
// Returns redis.Nil if the root doesn't exist.
func (c *Client) DeleteRoot(ctx context.Context, rootID string) error {
	var del *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, ShardRootKey(c.instanceName, rootID))
		pipe.ZRem(ctx, RootsIndexKey(c.instanceName), rootID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete shard tree: %w", err)
	}
	if del.Val() == 0 {
		return redis.Nil
	}

	return c.publish(ctx, Event{Kind: EventShardDeleted, ID: rootID})
}

// ListRoots returns every root shard tree in creation order. This is the
// instance's forest. Index entries whose tree has vanished are skipped.
func (c *Client) ListRoots(ctx context.Context) ([]*shard.Shard, error) {
	ids, err := c.rdb.ZRange(ctx, RootsIndexKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read root index: %w", err)
	}
	if len(ids) == 0 {
		return []*shard.Shard{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ShardRootKey(c.instanceName, id)
	}
	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read shard trees: %w", err)
	}

	forest := make([]*shard.Shard, 0, len(values))
	for i, v := range values {
		payload, ok := v.(string)
		if !ok {
			continue
		}
		root, err := JSONToRoot(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize shard tree %s: %w", ids[i], err)
		}
		forest = append(forest, root)
	}
	return forest, nil
}

// SavePathway writes a pathway record and publishes an event.
// Validates the record before writing.
func (c *Client) SavePathway(ctx context.Context, rec *pathway.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid pathway: %w", err)
	}

	hash, err := PathwayToHash(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize pathway: %w", err)
	}

	key := PathwayKey(c.instanceName, rec.ID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, hash)
		pipe.ZAddNX(ctx, PathwaysIndexKey(c.instanceName), redis.Z{
			Score:  IndexScore(TimestampMs(rec.CreatedAt)),
			Member: rec.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write pathway to Redis: %w", err)
	}

	return c.publish(ctx, Event{Kind: EventPathwaySaved, ID: rec.ID, Name: rec.Name, Version: rec.State.CurrentVersion})
}

// GetPathway retrieves a pathway record by ID.
// Returns (nil, redis.Nil) if the pathway doesn't exist.
func (c *Client) GetPathway(ctx context.Context, pathwayID string) (*pathway.Record, error) {
	hashData, err := c.rdb.HGetAll(ctx, PathwayKey(c.instanceName, pathwayID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pathway from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	rec, err := HashToPathway(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize pathway: %w", err)
	}
	return rec, nil
}

// PathwayExists checks if a pathway exists without fetching it.
func (c *Client) PathwayExists(ctx context.Context, pathwayID string) (bool, error) {
	exists, err := c.rdb.Exists(ctx, PathwayKey(c.instanceName, pathwayID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check pathway existence: %w", err)
	}
	return exists > 0, nil
}

// DeletePathway removes a pathway record and its index entry.
// Returns redis.Nil if the pathway doesn't exist.
func (c *Client) DeletePathway(ctx context.Context, pathwayID string) error {
	var del *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, PathwayKey(c.instanceName, pathwayID))
		pipe.ZRem(ctx, PathwaysIndexKey(c.instanceName), pathwayID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete pathway: %w", err)
	}
	if del.Val() == 0 {
		return redis.Nil
	}

	return c.publish(ctx, Event{Kind: EventPathwayDeleted, ID: pathwayID})
}

// ListPathways returns a summary of every pathway in creation order.
func (c *Client) ListPathways(ctx context.Context) ([]PathwaySummary, error) {
	ids, err := c.rdb.ZRange(ctx, PathwaysIndexKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pathway index: %w", err)
	}

	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HMGet(ctx, PathwayKey(c.instanceName, id), "id", "name", "shift_count", "created_at_ms")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read pathway summaries: %w", err)
	}

	summaries := make([]PathwaySummary, 0, len(ids))
	for _, cmd := range cmds {
		vals := cmd.Val()
		if len(vals) != 4 || vals[0] == nil {
			continue
		}
		hash := make(map[string]string, 4)
		for i, field := range []string{"id", "name", "shift_count", "created_at_ms"} {
			if s, ok := vals[i].(string); ok {
				hash[field] = s
			}
		}
		summaries = append(summaries, HashToSummary(hash))
	}
	return summaries, nil
}

// ScanPathways returns the sorted IDs of every pathway whose ID starts with
// prefix. Used for short-ID resolution.
func (c *Client) ScanPathways(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor  uint64
		matches []string
	)
	pattern := PathwayKeyPattern(c.instanceName, prefix)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan pathways: %w", err)
		}
		for _, key := range keys {
			matches = append(matches, PathwayIDFromKey(c.instanceName, key))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// publish sends an event on the instance channel.
func (c *Client) publish(ctx context.Context, e Event) error {
	e.AtMs = time.Now().UnixMilli()
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", e.Kind, err)
	}
	if err := c.rdb.Publish(ctx, EventsChannel(c.instanceName), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Kind, err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to blackboard events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of blackboard events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to entity change events for this instance.
// The subscription is confirmed by Redis before this returns, so no event
// published afterwards is missed.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub (at-most-once delivery).
func (c *Client) SubscribeEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, EventsChannel(c.instanceName))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
// Use this to check if GetRoot, GetPathway, DeleteRoot or DeletePathway returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
