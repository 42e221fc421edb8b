// Package audit keeps an append-only trail of review decisions. Events
// record what the system proposed and what the human decided, per
// workflow stage. The trail is never amended: corrections show up as
// new events.
package audit

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

// Stage identifies where in the workflow a decision happened.
type Stage string

const (
	StageTopicSelection  Stage = "topic_selection"
	StageOptionSelection Stage = "option_selection"
	StageEthicsReview    Stage = "ethics_review"
)

// SystemDecision is what the system put in front of the reviewer.
type SystemDecision struct {
	ProposedIDs []string           `json:"proposed_ids,omitempty"`
	Scores      map[string]float64 `json:"scores,omitempty"`
	RunID       string             `json:"run_id,omitempty"`
}

// HumanAction is what the reviewer decided.
type HumanAction struct {
	SelectedIDs []string         `json:"selected_ids,omitempty"`
	RejectedIDs []string         `json:"rejected_ids,omitempty"`
	DeferredIDs []string         `json:"deferred_ids,omitempty"`
	ReasonCode  topic.ReasonCode `json:"reason_code,omitempty"`
	Notes       string           `json:"notes,omitempty"`
}

// Event is one audit trail entry.
type Event struct {
	ID             string         `json:"id,omitempty"`
	Stage          Stage          `json:"stage"`
	Actor          string         `json:"actor"`
	SystemDecision SystemDecision `json:"system_decision"`
	HumanAction    HumanAction    `json:"human_action"`
	CreatedAt      time.Time      `json:"created_at"`
}

type Trail struct {
	DB  *store.DB
	now func() time.Time
}

func NewTrail(db *store.DB) *Trail {
	return &Trail{DB: db, now: time.Now}
}

// Append writes one event. The stored document carries its generated
// ID so queries can reference it.
func (t *Trail) Append(ctx context.Context, event Event) (string, error) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = t.now().UTC()
	}
	id, err := t.DB.Add(ctx, topic.AuditCollection, event)
	if err != nil {
		return "", err
	}
	event.ID = id
	if err := t.DB.Set(ctx, topic.AuditCollection, id, event); err != nil {
		return "", err
	}
	return id, nil
}

// ListRecent returns up to limit events, newest first, optionally
// filtered by stage and actor.
func (t *Trail) ListRecent(ctx context.Context, stage Stage, actor string, limit int) ([]Event, error) {
	var filters []store.Filter
	if stage != "" {
		filters = append(filters, store.Where("stage", store.OpEq, string(stage)))
	}
	if actor != "" {
		filters = append(filters, store.Where("actor", store.OpEq, actor))
	}

	raw, err := t.DB.Query(ctx, topic.AuditCollection, filters, store.QueryOptions{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, doc := range raw {
		var ev Event
		if err := json.Unmarshal(doc, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}
