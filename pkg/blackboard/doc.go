// Package blackboard is the Redis-backed state container for lattice: the
// shard forest and the configured pathway records of one instance.
//
// # Overview
//
// The shard and pathway engines are pure; they take an entity and return a
// new one. The blackboard is where the host keeps the current value of every
// entity between calls. Each write replaces the stored value whole, so a
// reader always sees either the previous tree or the next one.
//
// # Multi-Instance Support
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so
// several lattice instances can share one Redis server without interference.
//
// # Usage Example
//
//	client, err := blackboard.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	root := shard.New(shard.CreationConfig{ShardName: "Notes", ShardType: "note"}, ident.System{})
//	if err := client.SaveRoot(ctx, root); err != nil {
//		log.Fatal(err)
//	}
//
// # Redis Schema
//
// All Redis keys follow the pattern: lattice:{instance_name}:{entity}[:{id}]
//
// Shard roots: lattice:{instance_name}:shard:{root_id} (JSON of the whole tree)
// Root index: lattice:{instance_name}:roots (ZSET scored by creation time)
// Pathways: lattice:{instance_name}:pathway:{pathway_id} (hash)
// Pathway index: lattice:{instance_name}:pathways (ZSET scored by creation time)
//
// Pub/Sub channel: lattice:{instance_name}:events
//
// # Concurrency
//
// Every single-entity write runs in one MULTI/EXEC transaction. Concurrent
// read-modify-write cycles on the same entity are not detected; callers
// serialise them.
package blackboard
