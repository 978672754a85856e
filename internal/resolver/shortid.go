package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyluth/lattice/pkg/ident"
	"github.com/dyluth/lattice/pkg/pathway"
)

// MinShortIDLength is the minimum required length for short ID prefixes,
// not counting the "NP-" prefix.
const MinShortIDLength = 6

// maxListed caps how many candidates FormatAmbiguousError prints.
const maxListed = 10

// PathwayIndex is the part of the blackboard client the resolver needs.
type PathwayIndex interface {
	PathwayExists(ctx context.Context, id string) (bool, error)
	ScanPathways(ctx context.Context, prefix string) ([]string, error)
}

// ResolvePathwayID resolves a short pathway ID to a full one.
//
// The "NP-" prefix is optional. A full ID (prefix plus UUID) is checked for
// existence and returned as-is; anything shorter is treated as a prefix and
// must match exactly one stored pathway.
func ResolvePathwayID(ctx context.Context, index PathwayIndex, shortID string) (string, error) {
	body := strings.TrimPrefix(strings.TrimSpace(shortID), pathway.RecordIDPrefix)
	full := pathway.RecordIDPrefix + body

	if ident.IsUUID(body) {
		exists, err := index.PathwayExists(ctx, full)
		if err != nil {
			return "", fmt.Errorf("failed to verify pathway existence: %w", err)
		}
		if !exists {
			return "", &NotFoundError{ShortID: shortID}
		}
		return full, nil
	}

	if len(body) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(body))
	}
	if strings.ContainsAny(body, `*?[]\`) {
		return "", fmt.Errorf("short ID %q contains pattern characters", shortID)
	}

	matches, err := index.ScanPathways(ctx, full)
	if err != nil {
		return "", fmt.Errorf("failed to search for pathway: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no pathways matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no pathways found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple pathways matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d pathways", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError lists the matching IDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ambiguous short ID '%s' matches %d pathways:\n", err.ShortID, len(err.Matches))

	shown := len(err.Matches)
	if shown > maxListed {
		shown = maxListed
	}
	for _, id := range err.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(err.Matches) > maxListed {
		fmt.Fprintf(&b, "  ...and %d more\n", len(err.Matches)-maxListed)
	}

	b.WriteString("\nUse a longer prefix to uniquely identify the pathway.")
	return b.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	var amb *AmbiguousError
	return errors.As(err, &amb)
}
