package blackboard

import "fmt"

// Redis key pattern helpers
//
// Key pattern: lattice:{instance_name}:{entity}:{id}
// Channel pattern: lattice:{instance_name}:events

// ShardRootKey returns the Redis key holding a whole root shard tree.
// Pattern: lattice:{instance_name}:shard:{root_id}
func ShardRootKey(instanceName, rootID string) string {
	return fmt.Sprintf("lattice:%s:shard:%s", instanceName, rootID)
}

// RootsIndexKey returns the Redis key of the root shard creation index.
// Pattern: lattice:{instance_name}:roots
func RootsIndexKey(instanceName string) string {
	return fmt.Sprintf("lattice:%s:roots", instanceName)
}

// PathwayKey returns the Redis key for a pathway record hash.
// Pattern: lattice:{instance_name}:pathway:{pathway_id}
func PathwayKey(instanceName, pathwayID string) string {
	return fmt.Sprintf("lattice:%s:pathway:%s", instanceName, pathwayID)
}

// PathwayKeyPattern returns the SCAN match pattern for pathway keys whose ID
// starts with prefix.
func PathwayKeyPattern(instanceName, prefix string) string {
	return PathwayKey(instanceName, prefix) + "*"
}

// PathwayIDFromKey strips the namespace from a pathway key.
func PathwayIDFromKey(instanceName, key string) string {
	return key[len(PathwayKey(instanceName, "")):]
}

// PathwaysIndexKey returns the Redis key of the pathway creation index.
// Pattern: lattice:{instance_name}:pathways
func PathwaysIndexKey(instanceName string) string {
	return fmt.Sprintf("lattice:%s:pathways", instanceName)
}

// EventsChannel returns the Pub/Sub channel carrying entity change events.
// Pattern: lattice:{instance_name}:events
func EventsChannel(instanceName string) string {
	return fmt.Sprintf("lattice:%s:events", instanceName)
}
