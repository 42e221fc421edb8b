// Package review implements the human review workflow: fetching
// ranked batches of scored candidates, applying status decisions with
// retries and an audit trail, and persisting session state so an
// interrupted review can resume.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/audit"
	"github.com/kojohq/topicscope/pkg/retrier"
	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

// Action is one applied decision, kept for one-level undo.
type Action struct {
	TopicID   string       `json:"topic_id"`
	OldStatus topic.Status `json:"old_status"`
	NewStatus topic.Status `json:"new_status"`
}

// decisions are the statuses a review can move a topic to. Pending is
// never a decision target; Undo is the only way back.
var decisions = []topic.Status{
	topic.StatusApproved,
	topic.StatusRejected,
	topic.StatusDeferred,
}

// transitions maps current status and decision to whether the operator
// must confirm an override. Deferring is a parking action and never
// prompts; approving or rejecting a topic that is no longer pending
// does.
var transitions = map[topic.Status]map[topic.Status]bool{
	topic.StatusPending: {
		topic.StatusApproved: false,
		topic.StatusRejected: false,
		topic.StatusDeferred: false,
	},
	topic.StatusApproved: {
		topic.StatusApproved: true,
		topic.StatusRejected: true,
		topic.StatusDeferred: false,
	},
	topic.StatusRejected: {
		topic.StatusApproved: true,
		topic.StatusRejected: true,
		topic.StatusDeferred: false,
	},
	topic.StatusDeferred: {
		topic.StatusApproved: true,
		topic.StatusRejected: true,
		topic.StatusDeferred: false,
	},
}

func init() {
	if err := validateTransitions(); err != nil {
		panic(err)
	}
}

// validateTransitions checks the table covers every status and decision
// pair, so a new status cannot be added without deciding its rules.
func validateTransitions() error {
	for _, from := range []topic.Status{topic.StatusPending, topic.StatusApproved, topic.StatusRejected, topic.StatusDeferred} {
		row, ok := transitions[from]
		if !ok {
			return fmt.Errorf("review: transition table missing status %q", from)
		}
		for _, to := range decisions {
			if _, ok := row[to]; !ok {
				return fmt.Errorf("review: transition table missing %q -> %q", from, to)
			}
		}
	}
	return nil
}

// Machine applies review decisions to candidates. Status is the only
// candidate field it mutates.
type Machine struct {
	DB    *store.DB
	Trail *audit.Trail
	Retry retrier.Policy
	Actor string

	// Confirm asks the operator to approve an override when a
	// candidate is no longer pending. Nil declines all overrides.
	Confirm func(prompt string) bool
}

func NewMachine(db *store.DB, trail *audit.Trail, actor string) *Machine {
	return &Machine{
		DB:    db,
		Trail: trail,
		Retry: retrier.Default,
		Actor: actor,
	}
}

// Apply moves a candidate to newStatus. Deferring is allowed from any
// status; other transitions from a non-pending status need an operator
// override. The returned Action is nil when the operator declined.
//
// The audit append is best effort: a failed audit write never rolls
// back the status change.
func (m *Machine) Apply(ctx context.Context, topicID string, newStatus topic.Status, reason topic.ReasonCode, notes string) (*Action, error) {
	if !newStatus.Valid() || newStatus == topic.StatusPending {
		return nil, fmt.Errorf("invalid review decision %q", newStatus)
	}

	var cand topic.Candidate
	err := m.Retry.Do(ctx, func() error {
		return m.DB.Get(ctx, topic.CandidatesCollection, topicID, &cand)
	})
	if err != nil {
		return nil, fmt.Errorf("load topic %s: %w", topicID, err)
	}

	needsOverride := true
	if row, ok := transitions[cand.Status]; ok {
		needsOverride = row[newStatus]
	}
	if needsOverride {
		prompt := fmt.Sprintf("Topic already %s. Override?", cand.Status)
		if m.Confirm == nil || !m.Confirm(prompt) {
			return nil, nil
		}
	}

	action := &Action{TopicID: topicID, OldStatus: cand.Status, NewStatus: newStatus}

	cand.Status = newStatus
	err = m.Retry.Do(ctx, func() error {
		return m.DB.Set(ctx, topic.CandidatesCollection, topicID, cand)
	})
	if err != nil {
		return nil, fmt.Errorf("update topic %s: %w", topicID, err)
	}

	m.appendAudit(ctx, cand, newStatus, reason, notes)
	return action, nil
}

// Undo reverts a previously applied action. It writes the old status
// back without confirmation and without a new audit event; the trail
// keeps the original decision.
func (m *Machine) Undo(ctx context.Context, action *Action) error {
	if action == nil {
		return fmt.Errorf("nothing to undo")
	}

	var cand topic.Candidate
	err := m.Retry.Do(ctx, func() error {
		return m.DB.Get(ctx, topic.CandidatesCollection, action.TopicID, &cand)
	})
	if err != nil {
		return fmt.Errorf("load topic %s: %w", action.TopicID, err)
	}

	cand.Status = action.OldStatus
	return m.Retry.Do(ctx, func() error {
		return m.DB.Set(ctx, topic.CandidatesCollection, action.TopicID, cand)
	})
}

func (m *Machine) appendAudit(ctx context.Context, cand topic.Candidate, newStatus topic.Status, reason topic.ReasonCode, notes string) {
	if m.Trail == nil {
		return
	}

	decision := audit.SystemDecision{}
	if latest := m.latestScore(ctx, cand.ID); latest != nil {
		decision.Scores = map[string]float64{cand.ID: latest.Score}
		decision.RunID = latest.RunID
	}

	action := audit.HumanAction{ReasonCode: reason, Notes: notes}
	switch newStatus {
	case topic.StatusApproved:
		action.SelectedIDs = []string{cand.ID}
	case topic.StatusRejected:
		action.RejectedIDs = []string{cand.ID}
	case topic.StatusDeferred:
		action.DeferredIDs = []string{cand.ID}
	}

	if _, err := m.Trail.Append(ctx, audit.Event{
		Stage:          audit.StageTopicSelection,
		Actor:          m.Actor,
		SystemDecision: decision,
		HumanAction:    action,
	}); err != nil {
		utils.Log.Warnf("failed to append audit event for topic %s: %v", cand.ID, err)
	}
}

// latestScore fetches the newest score snapshot for a topic, or nil.
func (m *Machine) latestScore(ctx context.Context, topicID string) *topic.Score {
	filters := []store.Filter{store.Where("topic_id", store.OpEq, topicID)}

	raw, err := m.DB.Query(ctx, topic.ScoresCollection, filters, store.QueryOptions{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   1,
	})
	if err != nil {
		raw, err = m.DB.Query(ctx, topic.ScoresCollection, filters, store.QueryOptions{})
		if err != nil {
			utils.Log.Warnf("failed to fetch score for topic %s: %v", topicID, err)
			return nil
		}
	}
	if len(raw) == 0 {
		return nil
	}

	var scores []topic.Score
	for _, doc := range raw {
		var s topic.Score
		if err := json.Unmarshal(doc, &s); err != nil {
			continue
		}
		scores = append(scores, s)
	}
	if len(scores) == 0 {
		return nil
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].CreatedAt.After(scores[j].CreatedAt)
	})
	return &scores[0]
}
