package topic

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Collection names in the document store.
const (
	CandidatesCollection = "topic_candidates"
	ScoresCollection     = "topic_scores"
	AuditCollection      = "audit_events"
	JobRunsCollection    = "job_runs"
)

// Platform identifies where a candidate was discovered.
type Platform string

const (
	PlatformReddit     Platform = "reddit"
	PlatformHackerNews Platform = "hackernews"
	PlatformRSS        Platform = "rss"
	PlatformManual     Platform = "manual"
)

// Status is the review status of a candidate. It is the only mutable
// field of a candidate and is owned exclusively by the review workflow.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeferred Status = "deferred"
)

// Valid reports whether s is a known review status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusDeferred:
		return true
	}
	return false
}

// ReasonCode explains a rejection.
type ReasonCode string

const (
	ReasonTooGeneric  ReasonCode = "too_generic"
	ReasonNotOnBrand  ReasonCode = "not_on_brand"
	ReasonSpeculative ReasonCode = "speculative"
	ReasonDuplicate   ReasonCode = "duplicate"
	ReasonEthics      ReasonCode = "ethics"
)

// ReasonCodes lists all valid reason codes, in prompt order.
var ReasonCodes = []ReasonCode{
	ReasonTooGeneric,
	ReasonNotOnBrand,
	ReasonSpeculative,
	ReasonDuplicate,
	ReasonEthics,
}

// Candidate is a discovered content idea awaiting review.
// Immutable after ingestion except for Status and the scoring cache
// kept under Metadata.
type Candidate struct {
	ID        string          `json:"id"`
	Platform  Platform        `json:"source_platform"`
	SourceURL string          `json:"source_url,omitempty"`
	Title     string          `json:"title"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
	Entities  []string        `json:"entities,omitempty"`
	Cluster   string          `json:"topic_cluster"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// Score is an immutable scoring snapshot for one candidate. A candidate
// accumulates snapshots over time; "latest" is by CreatedAt.
type Score struct {
	TopicID    string             `json:"topic_id"`
	Score      float64            `json:"score"`
	Components map[string]float64 `json:"components"`
	Reasoning  map[string]string  `json:"reasoning,omitempty"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	RunID      string             `json:"run_id"`
	CreatedAt  time.Time          `json:"created_at"`
	Metadata   map[string]any     `json:"metadata,omitempty"`
}

// Component names used in Score.Components and Score.Reasoning.
const (
	ComponentRecency   = "recency"
	ComponentVelocity  = "velocity"
	ComponentAudience  = "audience_fit"
	ComponentIntegrity = "integrity_penalty"
)

// GenerateID builds the deterministic candidate ID. Re-ingesting
// identical input (same platform, title and publish time) yields the
// same ID, which makes ingestion idempotent.
func GenerateID(platform Platform, title string, publishedAt time.Time) string {
	ts := publishedAt.Unix()
	content := fmt.Sprintf("%s-%s-%d", platform, title, ts)
	sum := md5.Sum([]byte(content))
	return fmt.Sprintf("%s-%d-%s", platform, ts, hex.EncodeToString(sum[:])[:8])
}

// TitleHash returns a short hash of a title, used in scoring cache keys.
func TitleHash(title string) string {
	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:])[:8]
}
