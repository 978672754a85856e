package shard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	t0 = "2025-01-01T00:00:00Z"
	t1 = "2025-01-02T00:00:00Z"
)

func node(id string, children ...*Shard) *Shard {
	if children == nil {
		children = []*Shard{}
	}
	return &Shard{
		ShardID:      id,
		ShardName:    "shard " + id,
		ShardType:    "test",
		Data:         Object(map[string]Data{"id": String(id)}),
		NestedShards: children,
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
}

// sampleForest builds:
//
//	A
//	├── B
//	│   ├── D
//	│   └── E
//	└── C
//	F
func sampleForest() []*Shard {
	return []*Shard{
		node("A",
			node("B", node("D"), node("E")),
			node("C"),
		),
		node("F"),
	}
}

func TestSplitPath(t *testing.T) {
	assert.Nil(t, SplitPath(""))
	assert.Equal(t, []string{"A"}, SplitPath("A"))
	assert.Equal(t, []string{"A", "B", "C"}, SplitPath("A/B/C"))
	assert.Equal(t, "A/B/C", JoinPath("A", "B", "C"))

	parent, ok := ParentPath("A/B/C")
	assert.True(t, ok)
	assert.Equal(t, "A/B", parent)

	_, ok = ParentPath("A")
	assert.False(t, ok)
}

func TestLocate(t *testing.T) {
	forest := sampleForest()

	tests := []struct {
		name  string
		path  string
		found bool
		id    string
	}{
		{"root", "A", true, "A"},
		{"second root", "F", true, "F"},
		{"nested", "A/B/E", true, "E"},
		{"empty path", "", false, ""},
		{"missing root", "Z", false, ""},
		{"missing leaf", "A/B/Z", false, ""},
		{"child under wrong parent", "A/D", false, ""},
		{"empty segment", "A//B", false, ""},
		{"too deep", "A/C/X", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Locate(forest, tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				require.NotNil(t, s)
				assert.Equal(t, tt.id, s.ShardID)
			} else {
				assert.Nil(t, s)
			}
		})
	}
}

func TestApplyAt_IdentityRoundTrip(t *testing.T) {
	forest := sampleForest()
	ignoreUpdated := cmpopts.IgnoreFields(Shard{}, "UpdatedAt")
	identity := func(s *Shard) *Shard { return s }

	Walk(forest, func(path string, _ int, n *Shard) {
		t.Run(path, func(t *testing.T) {
			out := ApplyAt(forest, path, identity, t1)
			got, ok := Locate(out, path)
			require.True(t, ok)
			if diff := cmp.Diff(n, got, ignoreUpdated); diff != "" {
				t.Errorf("node changed after identity transform (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(forest, out, ignoreUpdated); diff != "" {
				t.Errorf("forest changed after identity transform (-want +got):\n%s", diff)
			}
		})
	})
}

func TestApplyAt_CopyOnWrite(t *testing.T) {
	forest := sampleForest()
	rename := func(s *Shard) *Shard {
		s.ShardName = "renamed"
		return s
	}

	out := ApplyAt(forest, "A/B/D", rename, t1)

	d, ok := Locate(out, "A/B/D")
	require.True(t, ok)
	assert.Equal(t, "renamed", d.ShardName)

	t.Run("input is untouched", func(t *testing.T) {
		orig, _ := Locate(forest, "A/B/D")
		assert.Equal(t, "shard D", orig.ShardName)
		assert.Equal(t, t0, forest[0].UpdatedAt)
		assert.Equal(t, t0, forest[0].NestedShards[0].UpdatedAt)
	})

	t.Run("ancestors are copied with new timestamp", func(t *testing.T) {
		assert.NotSame(t, forest[0], out[0])
		assert.NotSame(t, forest[0].NestedShards[0], out[0].NestedShards[0])
		assert.Equal(t, t1, out[0].UpdatedAt)
		assert.Equal(t, t1, out[0].NestedShards[0].UpdatedAt)
	})

	t.Run("siblings are shared", func(t *testing.T) {
		assert.Same(t, forest[1], out[1])
		assert.Same(t, forest[0].NestedShards[1], out[0].NestedShards[1])
		assert.Same(t, forest[0].NestedShards[0].NestedShards[1], out[0].NestedShards[0].NestedShards[1])
	})
}

// Mutations against a path that does not resolve are no-ops rather than
// errors. Callers that need to react to a missing node check Locate first.
func TestMissingPathMutationsAreNoOps(t *testing.T) {
	forest := sampleForest()
	called := false
	transform := func(s *Shard) *Shard {
		called = true
		return s
	}

	for _, path := range []string{"", "Z", "A/Z", "A/B/D/Z"} {
		t.Run("apply "+path, func(t *testing.T) {
			out := ApplyAt(forest, path, transform, t1)
			assert.False(t, called)
			assert.Equal(t, forest, out)
			assert.Equal(t, t0, out[0].UpdatedAt, "ancestors must not be touched")
		})
		t.Run("insert "+path, func(t *testing.T) {
			out := InsertChild(forest, path, node("NEW"), t1)
			assert.Equal(t, Count(forest), Count(out))
		})
		t.Run("delete "+path, func(t *testing.T) {
			out := DeleteAt(forest, path, t1)
			assert.Equal(t, forest, out)
		})
	}
}

func TestInsertChild(t *testing.T) {
	forest := sampleForest()
	out := InsertChild(forest, "A/C", node("G"), t1)

	g, ok := Locate(out, "A/C/G")
	require.True(t, ok)
	assert.Equal(t, "G", g.ShardID)

	c, _ := Locate(out, "A/C")
	assert.Equal(t, t1, c.UpdatedAt)
	assert.Equal(t, t1, out[0].UpdatedAt)
	assert.Equal(t, Count(forest)+1, Count(out))

	orig, _ := Locate(forest, "A/C")
	assert.Empty(t, orig.NestedShards)
}

func TestInsertChild_AppendsInOrder(t *testing.T) {
	forest := InsertChild(sampleForest(), "A/B", node("X"), t1)
	b, _ := Locate(forest, "A/B")
	ids := make([]string, 0, len(b.NestedShards))
	for _, c := range b.NestedShards {
		ids = append(ids, c.ShardID)
	}
	assert.Equal(t, []string{"D", "E", "X"}, ids)
}

func TestDeleteAt_RemovesExactlyOneSubtree(t *testing.T) {
	forest := sampleForest()

	tests := []struct {
		path        string
		descendants int
	}{
		{"A", 4},
		{"A/B", 2},
		{"A/B/D", 0},
		{"A/C", 0},
		{"F", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := DeleteAt(forest, tt.path, t1)
			assert.Equal(t, Count(forest)-(tt.descendants+1), Count(out))
			_, ok := Locate(out, tt.path)
			assert.False(t, ok)
			assert.Equal(t, 6, Count(forest), "input forest must not change")
		})
	}
}

func TestDeleteAt_NestedScenario(t *testing.T) {
	forest := []*Shard{node("A", node("B"))}

	out := DeleteAt(forest, "A/B", t1)

	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].ShardID)
	assert.Empty(t, out[0].NestedShards)
	assert.Equal(t, t1, out[0].UpdatedAt)
	assert.Len(t, forest[0].NestedShards, 1)
}

func TestWalk(t *testing.T) {
	var paths []string
	var depths []int
	Walk(sampleForest(), func(path string, depth int, _ *Shard) {
		paths = append(paths, path)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"A", "A/B", "A/B/D", "A/B/E", "A/C", "F"}, paths)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 0}, depths)
}

func TestPathOf(t *testing.T) {
	forest := sampleForest()
	p, ok := PathOf(forest, "E")
	assert.True(t, ok)
	assert.Equal(t, "A/B/E", p)

	_, ok = PathOf(forest, "nope")
	assert.False(t, ok)
}
