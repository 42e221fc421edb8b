// Package jobs records ingestion and scoring runs in the document
// store so operators can see what ran, when, and how it went.
package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one execution of a background job.
type Run struct {
	ID              string         `json:"id"`
	Job             string         `json:"job"`
	Status          Status         `json:"status"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      *time.Time     `json:"finished_at,omitempty"`
	DurationSeconds float64        `json:"duration_seconds,omitempty"`
	Counters        map[string]int `json:"counters,omitempty"`
	Error           string         `json:"error,omitempty"`
}

type Tracker struct {
	DB  *store.DB
	now func() time.Time
}

func NewTracker(db *store.DB) *Tracker {
	return &Tracker{DB: db, now: time.Now}
}

// Start persists a new running record and returns it.
func (t *Tracker) Start(ctx context.Context, job string) (*Run, error) {
	run := &Run{
		Job:       job,
		Status:    StatusRunning,
		StartedAt: t.now().UTC(),
	}
	id, err := t.DB.Add(ctx, topic.JobRunsCollection, run)
	if err != nil {
		return nil, err
	}
	run.ID = id
	// Rewrite with the ID embedded so queries can filter on it.
	if err := t.DB.Set(ctx, topic.JobRunsCollection, id, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Complete marks the run finished with its counters.
func (t *Tracker) Complete(ctx context.Context, run *Run, counters map[string]int) error {
	return t.finish(ctx, run, StatusCompleted, counters, "")
}

// Fail marks the run failed with the error message.
func (t *Tracker) Fail(ctx context.Context, run *Run, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return t.finish(ctx, run, StatusFailed, nil, msg)
}

// ListRecent returns the newest runs, optionally filtered by job name.
func (t *Tracker) ListRecent(ctx context.Context, job string, limit int) ([]Run, error) {
	var filters []store.Filter
	if job != "" {
		filters = append(filters, store.Where("job", store.OpEq, job))
	}

	raw, err := t.DB.Query(ctx, topic.JobRunsCollection, filters, store.QueryOptions{
		OrderBy: "started_at",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		raw, err = t.DB.Query(ctx, topic.JobRunsCollection, filters, store.QueryOptions{})
		if err != nil {
			return nil, err
		}
	}

	var runs []Run
	for _, doc := range raw {
		var run Run
		if err := json.Unmarshal(doc, &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (t *Tracker) finish(ctx context.Context, run *Run, status Status, counters map[string]int, errMsg string) error {
	finished := t.now().UTC()
	run.Status = status
	run.FinishedAt = &finished
	run.DurationSeconds = finished.Sub(run.StartedAt).Seconds()
	run.Counters = counters
	run.Error = errMsg
	return t.DB.Set(ctx, topic.JobRunsCollection, run.ID, run)
}
