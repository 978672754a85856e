// Package shard implements the ShardTree engine: a forest of hierarchically
// nested, independently versioned documents addressed by slash-delimited ID
// paths. Every operation is a pure function from an input forest to a new
// forest; inputs are never mutated and untouched subtrees are shared by
// reference with the result.
package shard

import (
	"fmt"
)

// Shard is a node in the document forest.
type Shard struct {
	ShardID      string   `json:"shardId"`      // Opaque unique ID, stable for the node's lifetime
	ShardType    string   `json:"shardType"`    // Free-form classification, e.g. "evidence_item"
	ShardName    string   `json:"shardName"`    // Display label
	IsAtomic     bool     `json:"isAtomic"`     // Hint: treat as indivisible
	Data         Data     `json:"data"`         // Opaque payload
	Metadata     Metadata `json:"metadata"`     // Versions, verification, tags, audit trail
	NestedShards []*Shard `json:"nestedShards"` // Owned children, ordered
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"` // Refreshed on this node or any descendant change
}

// Metadata carries the version history and bookkeeping of a shard.
type Metadata struct {
	VersionHistory      []VersionEntry      `json:"versionHistory"`      // Append-only, oldest first; last is current
	CurrentVerification VerificationDetails `json:"currentVerification"` // Always equals the last version's verification
	Tags                []string            `json:"tags"`
	CustomProperties    map[string]Data     `json:"customProperties"`
	LinkedShards        []LinkedShard       `json:"linkedShardIds,omitempty"` // Advisory links, not ownership
	ProcessingLog       []AuditLogEntry     `json:"processingLog,omitempty"`
}

// LinkedShard is an advisory cross-reference to another shard.
type LinkedShard struct {
	ShardID      string `json:"shardId"`
	Relationship string `json:"relationship"`
}

// VersionEntry is an immutable point-in-time record of a shard's data.
// Only the VerificationDetails of the last entry may be replaced.
type VersionEntry struct {
	VersionID           string              `json:"versionId"`
	Timestamp           string              `json:"timestamp"`
	Author              string              `json:"author"`
	ChangesSummary      string              `json:"changesSummary"`
	DataSnapshot        Data                `json:"dataSnapshot"`
	VerificationDetails VerificationDetails `json:"verificationDetails"`
}

// VerificationDetails is a claim about how trustworthy a version's data is.
type VerificationDetails struct {
	Status                VerificationStatus `json:"status"`
	Method                VerificationMethod `json:"method"`
	VerifiedBy            string             `json:"verifiedBy,omitempty"`
	VerificationTimestamp string             `json:"verificationTimestamp,omitempty"`
	Sources               []SourceDetail     `json:"sources"`
	Notes                 string             `json:"notes,omitempty"`
	RequiredSourcesMet    bool               `json:"requiredSourcesMet,omitempty"`
}

// SourceDetail references evidence backing a verification claim.
// ContentHash is display-only and never checked.
type SourceDetail struct {
	SourceID           string     `json:"sourceId"`
	Description        string     `json:"description"`
	Type               SourceType `json:"type"`
	ContentHash        string     `json:"contentHash,omitempty"`
	RetrievalTimestamp string     `json:"retrievalTimestamp,omitempty"`
}

// AuditLogEntry records an action performed on a shard.
type AuditLogEntry struct {
	ID            string      `json:"id"`
	Timestamp     string      `json:"timestamp"`
	Actor         string      `json:"actor"`
	Action        string      `json:"action"`
	Details       string      `json:"details"`
	TargetShardID string      `json:"targetShardId,omitempty"`
	Status        AuditStatus `json:"status"`
}

// CreationConfig describes a shard to be created.
type CreationConfig struct {
	ShardName           string
	ShardType           string
	InitialData         Data
	IsAtomic            *bool // nil means true
	InitialVerification VerificationOverrides
	Tags                []string
	CustomProperties    map[string]Data
}

// VerificationOverrides supplies caller-chosen verification fields for a new
// version. Zero-valued fields fall back to the defaults of NewVersion.
type VerificationOverrides struct {
	Status             VerificationStatus
	Method             VerificationMethod
	Sources            []SourceDetail
	Notes              string
	RequiredSourcesMet bool
}

// VerificationStatus is the lifecycle state of a verification claim.
type VerificationStatus string

const (
	StatusUnverified          VerificationStatus = "unverified"
	StatusUserVerified        VerificationStatus = "user_verified"
	StatusSourceVerified      VerificationStatus = "source_verified"
	StatusVerificationPending VerificationStatus = "verification_pending"
	StatusVerificationFailed  VerificationStatus = "verification_failed"
	StatusSystemVerified      VerificationStatus = "system_verified"
)

// VerificationMethod names how a verification claim was established.
type VerificationMethod string

const (
	MethodUserAttestation      VerificationMethod = "user_attestation"
	MethodMultiSourceConsensus VerificationMethod = "multi_source_consensus"
	MethodSystemInternalCheck  VerificationMethod = "system_internal_check"
	MethodNotApplicable        VerificationMethod = "not_applicable"
)

// SourceType classifies a verification source.
type SourceType string

const (
	SourceUserAttestation   SourceType = "user_attestation"
	SourceDocumentReference SourceType = "document_reference"
	SourceURL               SourceType = "url"
	SourceExpertOpinion     SourceType = "expert_opinion"
	SourceSystemLog         SourceType = "system_log"
	SourceOther             SourceType = "other"
)

// AuditStatus is the outcome recorded on an audit entry.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailure AuditStatus = "failure"
	AuditPending AuditStatus = "pending"
)

// Validate checks if the VerificationStatus is a valid enum value.
func (s VerificationStatus) Validate() error {
	switch s {
	case StatusUnverified, StatusUserVerified, StatusSourceVerified,
		StatusVerificationPending, StatusVerificationFailed, StatusSystemVerified:
		return nil
	default:
		return fmt.Errorf("unknown verification status: %q", s)
	}
}

// Validate checks if the VerificationMethod is a valid enum value.
func (m VerificationMethod) Validate() error {
	switch m {
	case MethodUserAttestation, MethodMultiSourceConsensus,
		MethodSystemInternalCheck, MethodNotApplicable:
		return nil
	default:
		return fmt.Errorf("unknown verification method: %q", m)
	}
}

// Validate checks if the SourceType is a valid enum value.
func (t SourceType) Validate() error {
	switch t {
	case SourceUserAttestation, SourceDocumentReference, SourceURL,
		SourceExpertOpinion, SourceSystemLog, SourceOther:
		return nil
	default:
		return fmt.Errorf("unknown source type: %q", t)
	}
}

// Validate checks if the AuditStatus is a valid enum value.
func (s AuditStatus) Validate() error {
	switch s {
	case AuditSuccess, AuditFailure, AuditPending:
		return nil
	default:
		return fmt.Errorf("unknown audit status: %q", s)
	}
}

// Validate checks the verification block's enums and sources.
func (v *VerificationDetails) Validate() error {
	if err := v.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}
	if err := v.Method.Validate(); err != nil {
		return fmt.Errorf("invalid method: %w", err)
	}
	for i, src := range v.Sources {
		if src.SourceID == "" {
			return fmt.Errorf("source at index %d has empty sourceId", i)
		}
		if err := src.Type.Validate(); err != nil {
			return fmt.Errorf("source at index %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks the structural invariants of a shard and its subtree:
// non-empty identity, non-empty version history, and currentVerification
// mirroring the last version.
func (s *Shard) Validate() error {
	if s.ShardID == "" {
		return fmt.Errorf("shard ID cannot be empty")
	}
	if s.ShardName == "" {
		return fmt.Errorf("shard %s: name cannot be empty", s.ShardID)
	}
	if len(s.Metadata.VersionHistory) == 0 {
		return fmt.Errorf("shard %s: version history cannot be empty", s.ShardID)
	}
	last := s.Metadata.VersionHistory[len(s.Metadata.VersionHistory)-1]
	if err := last.VerificationDetails.Validate(); err != nil {
		return fmt.Errorf("shard %s: %w", s.ShardID, err)
	}
	if !verificationEqual(s.Metadata.CurrentVerification, last.VerificationDetails) {
		return fmt.Errorf("shard %s: current verification does not match version %s", s.ShardID, last.VersionID)
	}
	seen := make(map[string]bool, len(s.NestedShards))
	for _, child := range s.NestedShards {
		if seen[child.ShardID] {
			return fmt.Errorf("shard %s: duplicate child ID %s", s.ShardID, child.ShardID)
		}
		seen[child.ShardID] = true
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CurrentVersion returns the latest version entry, or nil when the history
// is empty.
func (s *Shard) CurrentVersion() *VersionEntry {
	if len(s.Metadata.VersionHistory) == 0 {
		return nil
	}
	return &s.Metadata.VersionHistory[len(s.Metadata.VersionHistory)-1]
}

func verificationEqual(a, b VerificationDetails) bool {
	if a.Status != b.Status || a.Method != b.Method || a.VerifiedBy != b.VerifiedBy ||
		a.VerificationTimestamp != b.VerificationTimestamp || a.Notes != b.Notes ||
		a.RequiredSourcesMet != b.RequiredSourcesMet || len(a.Sources) != len(b.Sources) {
		return false
	}
	for i := range a.Sources {
		if a.Sources[i] != b.Sources[i] {
			return false
		}
	}
	return true
}

// shallowCopy returns a copy of s that shares its children and metadata
// slices. Callers replace whatever they change.
func (s *Shard) shallowCopy() *Shard {
	cp := *s
	return &cp
}
