package shard

import (
	"fmt"

	"github.com/dyluth/lattice/pkg/ident"
)

const (
	// IDPrefix is prepended to the UUID of every new shard.
	IDPrefix = "SHD-"

	// SourceIDPrefix is prepended to generated source IDs.
	SourceIDPrefix = "src-"

	// AuthorCreation authors the first version of every shard.
	AuthorCreation = "user_creation"

	// AuthorEdit is the default author of data edits.
	AuthorEdit = "user_edit"

	// EditVerificationNotes is recorded on versions produced by data edits.
	EditVerificationNotes = "Data changed, re-verification required."

	// Audit actions recorded in the processing log.
	ActionCreated             = "Shard Created"
	ActionDataUpdated         = "Shard Data Updated"
	ActionVerificationUpdated = "Shard Verification Updated"

	defaultEditSummary    = "Data updated."
	initialVersionSummary = "Initial shard creation."
	systemActor           = "system"
)

// New builds a detached shard from cfg. The shard starts with one version
// authored by AuthorCreation and one "Shard Created" audit entry.
func New(cfg CreationConfig, src ident.Source) *Shard {
	now := src.Now()
	id := IDPrefix + src.NewID()
	initial := cfg.InitialVerification
	first := NewVersion(nil, cfg.InitialData, AuthorCreation, initialVersionSummary, &initial, now)

	atomic := true
	if cfg.IsAtomic != nil {
		atomic = *cfg.IsAtomic
	}
	tags := append([]string{}, cfg.Tags...)
	props := make(map[string]Data, len(cfg.CustomProperties))
	for k, v := range cfg.CustomProperties {
		props[k] = v.Clone()
	}

	return &Shard{
		ShardID:   id,
		ShardName: cfg.ShardName,
		ShardType: cfg.ShardType,
		IsAtomic:  atomic,
		Data:      cfg.InitialData.Clone(),
		Metadata: Metadata{
			VersionHistory:      []VersionEntry{first},
			CurrentVerification: first.VerificationDetails,
			Tags:                tags,
			CustomProperties:    props,
			LinkedShards:        []LinkedShard{},
			ProcessingLog: []AuditLogEntry{{
				ID:            src.NewID(),
				Timestamp:     now,
				Actor:         systemActor,
				Action:        ActionCreated,
				Details:       fmt.Sprintf("Shard %q initialized.", cfg.ShardName),
				TargetShardID: id,
				Status:        AuditSuccess,
			}},
		},
		NestedShards: []*Shard{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateData returns a copy of s holding data, with one new version appended
// and verification reset to unverified. It is meant to be passed through
// ApplyAt as the transform.
func UpdateData(s *Shard, data Data, author, summary string, src ident.Source) *Shard {
	now := src.Now()
	if author == "" {
		author = AuthorEdit
	}
	if summary == "" {
		summary = defaultEditSummary
	}
	entry := NewVersion(s.CurrentVersion(), data, author, summary, &VerificationOverrides{
		Status: StatusUnverified,
		Method: MethodNotApplicable,
		Notes:  EditVerificationNotes,
	}, now)

	out := s.shallowCopy()
	out.Data = data.Clone()
	out.Metadata.VersionHistory = appendVersion(s.Metadata.VersionHistory, entry)
	out.Metadata.CurrentVerification = entry.VerificationDetails
	out.Metadata.ProcessingLog = appendAudit(s.Metadata.ProcessingLog, AuditLogEntry{
		ID:            src.NewID(),
		Timestamp:     now,
		Actor:         author,
		Action:        ActionDataUpdated,
		Details:       fmt.Sprintf("Version %s. %s", entry.VersionID, summary),
		TargetShardID: s.ShardID,
		Status:        AuditSuccess,
	})
	out.UpdatedAt = now
	return out
}

// StampVerification fills the fields of v a caller may leave empty: VerifiedBy
// defaults to actor, VerificationTimestamp to the current time, and sources
// without an ID get a fresh one. The returned sources are a copy.
func StampVerification(v VerificationDetails, actor string, src ident.Source) VerificationDetails {
	if v.VerifiedBy == "" {
		v.VerifiedBy = actor
	}
	if v.VerificationTimestamp == "" {
		v.VerificationTimestamp = src.Now()
	}
	v.Sources = cloneSources(v.Sources)
	for i := range v.Sources {
		if v.Sources[i].SourceID == "" {
			v.Sources[i].SourceID = SourceIDPrefix + src.NewID()
		}
	}
	return v
}

// UpdateVerification returns a copy of s whose latest version carries v,
// stamped by StampVerification. No new version is created; earlier versions
// are untouched.
func UpdateVerification(s *Shard, v VerificationDetails, actor string, src ident.Source) *Shard {
	now := src.Now()
	if actor == "" {
		actor = "user"
	}
	if v.VerificationTimestamp == "" {
		v.VerificationTimestamp = now
	}
	v = StampVerification(v, actor, src)

	out := s.shallowCopy()
	history := make([]VersionEntry, len(s.Metadata.VersionHistory))
	copy(history, s.Metadata.VersionHistory)
	if n := len(history); n > 0 {
		history[n-1].VerificationDetails = v
	}
	out.Metadata.VersionHistory = history
	out.Metadata.CurrentVerification = v
	out.Metadata.ProcessingLog = appendAudit(s.Metadata.ProcessingLog, AuditLogEntry{
		ID:            src.NewID(),
		Timestamp:     now,
		Actor:         actor,
		Action:        ActionVerificationUpdated,
		Details:       fmt.Sprintf("Status: %s, Method: %s, Sources: %d", v.Status, v.Method, len(v.Sources)),
		TargetShardID: s.ShardID,
		Status:        AuditSuccess,
	})
	out.UpdatedAt = now
	return out
}

func appendVersion(history []VersionEntry, e VersionEntry) []VersionEntry {
	out := make([]VersionEntry, 0, len(history)+1)
	out = append(out, history...)
	return append(out, e)
}

func appendAudit(log []AuditLogEntry, e AuditLogEntry) []AuditLogEntry {
	out := make([]AuditLogEntry, 0, len(log)+1)
	out = append(out, log...)
	return append(out, e)
}
