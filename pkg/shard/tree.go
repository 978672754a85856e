package shard

import (
	"strings"
)

// PathSeparator joins shard IDs into a path.
const PathSeparator = "/"

// JoinPath joins shard IDs into a path.
func JoinPath(ids ...string) string {
	return strings.Join(ids, PathSeparator)
}

// SplitPath splits a path into its shard IDs. The empty path has no segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// ParentPath returns the path minus its last segment, and false for a root
// path (one segment) or the empty path.
func ParentPath(path string) (string, bool) {
	ids := SplitPath(path)
	if len(ids) < 2 {
		return "", false
	}
	return JoinPath(ids[:len(ids)-1]...), true
}

// Locate walks the forest level by level and returns the node at path.
// The empty path, and any path with a segment that has no matching child,
// is not found.
func Locate(forest []*Shard, path string) (*Shard, bool) {
	ids := SplitPath(path)
	if len(ids) == 0 {
		return nil, false
	}
	level := forest
	var found *Shard
	for _, id := range ids {
		found = findChild(level, id)
		if found == nil {
			return nil, false
		}
		level = found.NestedShards
	}
	return found, true
}

// ApplyAt replaces the node at path with transform(node) and returns the new
// forest. Every ancestor on the path is shallow-copied with UpdatedAt set to
// now and a child list holding the new descendant; all other nodes are shared
// with the input. transform receives a shallow copy it may modify freely, but
// it must not mutate slices or maps it did not allocate.
//
// A missing path returns the input forest unchanged.
func ApplyAt(forest []*Shard, path string, transform func(*Shard) *Shard, now string) []*Shard {
	if _, ok := Locate(forest, path); !ok {
		return forest
	}
	return applyLevel(forest, SplitPath(path), transform, now)
}

func applyLevel(level []*Shard, ids []string, transform func(*Shard) *Shard, now string) []*Shard {
	out := make([]*Shard, len(level))
	copy(out, level)
	idx := indexOf(level, ids[0])
	node := level[idx]
	if len(ids) == 1 {
		out[idx] = transform(node.shallowCopy())
		return out
	}
	cp := node.shallowCopy()
	cp.NestedShards = applyLevel(node.NestedShards, ids[1:], transform, now)
	cp.UpdatedAt = now
	out[idx] = cp
	return out
}

// InsertChild appends child to the children of the node at parentPath.
func InsertChild(forest []*Shard, parentPath string, child *Shard, now string) []*Shard {
	return ApplyAt(forest, parentPath, func(parent *Shard) *Shard {
		children := make([]*Shard, 0, len(parent.NestedShards)+1)
		children = append(children, parent.NestedShards...)
		parent.NestedShards = append(children, child)
		parent.UpdatedAt = now
		return parent
	}, now)
}

// DeleteAt removes the node at path together with its whole subtree.
// Deleting a path that does not resolve returns the input forest unchanged.
func DeleteAt(forest []*Shard, path string, now string) []*Shard {
	if _, ok := Locate(forest, path); !ok {
		return forest
	}
	ids := SplitPath(path)
	target := ids[len(ids)-1]
	if len(ids) == 1 {
		return without(forest, target)
	}
	parent, _ := ParentPath(path)
	return ApplyAt(forest, parent, func(p *Shard) *Shard {
		p.NestedShards = without(p.NestedShards, target)
		p.UpdatedAt = now
		return p
	}, now)
}

// Count returns the total number of nodes in the forest.
func Count(forest []*Shard) int {
	n := 0
	for _, s := range forest {
		n += 1 + Count(s.NestedShards)
	}
	return n
}

// Walk visits every node in pre-order, passing its full path and depth
// (roots are depth 0).
func Walk(forest []*Shard, fn func(path string, depth int, s *Shard)) {
	walk(forest, "", 0, fn)
}

func walk(level []*Shard, prefix string, depth int, fn func(string, int, *Shard)) {
	for _, s := range level {
		path := s.ShardID
		if prefix != "" {
			path = prefix + PathSeparator + s.ShardID
		}
		fn(path, depth, s)
		walk(s.NestedShards, path, depth+1, fn)
	}
}

// PathOf returns the path of the first node, in pre-order, whose ID is id.
func PathOf(forest []*Shard, id string) (string, bool) {
	var found string
	Walk(forest, func(path string, _ int, s *Shard) {
		if found == "" && s.ShardID == id {
			found = path
		}
	})
	return found, found != ""
}

func findChild(level []*Shard, id string) *Shard {
	if i := indexOf(level, id); i >= 0 {
		return level[i]
	}
	return nil
}

func indexOf(level []*Shard, id string) int {
	for i, s := range level {
		if s.ShardID == id {
			return i
		}
	}
	return -1
}

func without(level []*Shard, id string) []*Shard {
	out := make([]*Shard, 0, len(level))
	for _, s := range level {
		if s.ShardID != id {
			out = append(out, s)
		}
	}
	return out
}
