package shard

import (
	"fmt"
	"regexp"
	"strconv"
)

// InitialVersionID is the label of every shard's first version.
const InitialVersionID = "v1.0.0"

// DefaultVerificationNotes is recorded when a version is created without
// explicit verification notes.
const DefaultVerificationNotes = "Data changed, re-verification recommended."

var semverLabel = regexp.MustCompile(`^v(\d+)\.(\d+)\.(\d+)$`)

// NewVersion builds the version entry that follows prev. The snapshot is a
// deep copy of data. Verification fields missing from overrides default to
// unverified / not_applicable with no sources; VerifiedBy is the author and
// VerificationTimestamp is now.
func NewVersion(prev *VersionEntry, data Data, author, summary string, overrides *VerificationOverrides, now string) VersionEntry {
	var o VerificationOverrides
	if overrides != nil {
		o = *overrides
	}
	v := VerificationDetails{
		Status:                o.Status,
		Method:                o.Method,
		Sources:               cloneSources(o.Sources),
		Notes:                 o.Notes,
		VerifiedBy:            author,
		VerificationTimestamp: now,
		RequiredSourcesMet:    o.RequiredSourcesMet,
	}
	if v.Status == "" {
		v.Status = StatusUnverified
	}
	if v.Method == "" {
		v.Method = MethodNotApplicable
	}
	if v.Notes == "" {
		v.Notes = DefaultVerificationNotes
	}
	return VersionEntry{
		VersionID:           NextVersionID(prev),
		Timestamp:           now,
		Author:              author,
		ChangesSummary:      summary,
		DataSnapshot:        data.Clone(),
		VerificationDetails: v,
	}
}

// NextVersionID returns the label following prev: "v1.0.0" when prev is nil,
// a patch increment for vMAJOR.MINOR.PATCH labels, and the legacy fallback
// for anything else.
func NextVersionID(prev *VersionEntry) string {
	if prev == nil {
		return InitialVersionID
	}
	m := semverLabel.FindStringSubmatch(prev.VersionID)
	if m == nil {
		return legacyNextVersion(prev.VersionID)
	}
	// Digit runs already matched; only overflow can fail here.
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, err := strconv.Atoi(m[3])
	if err != nil {
		return legacyNextVersion(prev.VersionID)
	}
	return fmt.Sprintf("v%d.%d.%d", major, minor, patch+1)
}

var lastDigits = regexp.MustCompile(`\d+`)

// legacyNextVersion handles labels that are not vMAJOR.MINOR.PATCH, such as
// "v1.05" or "v2-draft". It increments the last numeric component by one,
// keeping its zero-padded width, so "v1.05" becomes "v1.06" and "v1.9"
// becomes "v1.10". A label with no digits gains a ".1" suffix.
func legacyNextVersion(label string) string {
	locs := lastDigits.FindAllStringIndex(label, -1)
	if len(locs) == 0 {
		return label + ".1"
	}
	loc := locs[len(locs)-1]
	digits := label[loc[0]:loc[1]]
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return label + ".1"
	}
	next := fmt.Sprintf("%0*d", len(digits), n+1)
	return label[:loc[0]] + next + label[loc[1]:]
}

func cloneSources(src []SourceDetail) []SourceDetail {
	out := make([]SourceDetail, len(src))
	copy(out, src)
	return out
}
