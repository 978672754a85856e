package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dyluth/lattice/pkg/shard"
)

// Tree writes the forest as an indented outline, one shard per line, with
// the current version and verification status of each node.
func Tree(w io.Writer, forest []*shard.Shard) int {
	if len(forest) == 0 {
		fmt.Fprintln(w, "No shards found")
		return 0
	}

	shard.Walk(forest, func(path string, depth int, s *shard.Shard) {
		version, status := "-", "-"
		if cur := s.CurrentVersion(); cur != nil {
			version = cur.VersionID
			status = string(cur.VerificationDetails.Status)
		}
		fmt.Fprintf(w, "%s%s [%s] %s %s (%s)\n",
			strings.Repeat("  ", depth), s.ShardName, s.ShardType, shortID(s.ShardID), version, status)
	})

	n := shard.Count(forest)
	fmt.Fprintf(w, "\n%d %s\n", n, plural(n, "shard", "shards"))
	return n
}

// Paths writes the full ID path of every shard, one per line, in
// depth-first order.
func Paths(w io.Writer, forest []*shard.Shard) {
	shard.Walk(forest, func(path string, _ int, _ *shard.Shard) {
		fmt.Fprintln(w, path)
	})
}

// ShardDetail writes a human-readable summary of one shard and its data.
func ShardDetail(w io.Writer, path string, s *shard.Shard) {
	fmt.Fprintf(w, "Shard:    %s\n", s.ShardName)
	fmt.Fprintf(w, "ID:       %s\n", s.ShardID)
	fmt.Fprintf(w, "Path:     %s\n", path)
	fmt.Fprintf(w, "Type:     %s\n", s.ShardType)
	fmt.Fprintf(w, "Atomic:   %t\n", s.IsAtomic)
	fmt.Fprintf(w, "Created:  %s\n", s.CreatedAt)
	fmt.Fprintf(w, "Updated:  %s\n", s.UpdatedAt)
	if len(s.Metadata.Tags) > 0 {
		fmt.Fprintf(w, "Tags:     %s\n", strings.Join(s.Metadata.Tags, ", "))
	}
	if cur := s.CurrentVersion(); cur != nil {
		v := cur.VerificationDetails
		fmt.Fprintf(w, "Version:  %s by %s\n", cur.VersionID, cur.Author)
		fmt.Fprintf(w, "Verified: %s (%s)\n", v.Status, v.Method)
		if v.Notes != "" {
			fmt.Fprintf(w, "Notes:    %s\n", v.Notes)
		}
	}
	fmt.Fprintf(w, "Children: %d\n", len(s.NestedShards))
	fmt.Fprintf(w, "\n%s\n", s.Data.Text())
}

// History writes the version history of a shard, oldest first.
func History(w io.Writer, s *shard.Shard) int {
	versions := s.Metadata.VersionHistory
	if len(versions) == 0 {
		fmt.Fprintf(w, "No versions recorded for '%s'\n", s.ShardName)
		return 0
	}

	fmt.Fprintf(w, "Version history for '%s':\n\n", s.ShardName)
	fmt.Fprintf(w, "%-8s %-24s %-16s %-22s %s\n", "VERSION", "TIMESTAMP", "AUTHOR", "STATUS", "SUMMARY")
	fmt.Fprintf(w, "%-8s %-24s %-16s %-22s %s\n",
		"--------", "------------------------", "----------------", "----------------------", "----------------------------------------")
	for _, v := range versions {
		fmt.Fprintf(w, "%-8s %-24s %-16s %-22s %s\n",
			v.VersionID,
			v.Timestamp,
			preview(v.Author, 16),
			v.VerificationDetails.Status,
			preview(v.ChangesSummary, 40),
		)
	}

	fmt.Fprintf(w, "\n%d %s\n", len(versions), plural(len(versions), "version", "versions"))
	return len(versions)
}
