package review

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

func newBatchDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedScoredCandidate(t *testing.T, db *store.DB, id, title string, status topic.Status, score float64, at time.Time) {
	t.Helper()
	ctx := context.Background()

	cand := topic.Candidate{
		ID:        id,
		Platform:  topic.PlatformReddit,
		Title:     title,
		Cluster:   "ai-infra",
		Status:    status,
		CreatedAt: at,
	}
	if err := db.Set(ctx, topic.CandidatesCollection, id, cand); err != nil {
		t.Fatalf("seed candidate %s: %v", id, err)
	}

	if score >= 0 {
		s := topic.Score{TopicID: id, Score: score, RunID: "run-1", CreatedAt: at}
		if _, err := db.Add(ctx, topic.ScoresCollection, s); err != nil {
			t.Fatalf("seed score for %s: %v", id, err)
		}
	}
}

func TestFetchBatchRanksByScore(t *testing.T) {
	db := newBatchDB(t)
	base := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	seedScoredCandidate(t, db, "low", "Low scorer", topic.StatusPending, 0.2, base)
	seedScoredCandidate(t, db, "high", "High scorer", topic.StatusPending, 0.9, base.Add(time.Minute))
	seedScoredCandidate(t, db, "mid", "Mid scorer", topic.StatusPending, 0.5, base.Add(2*time.Minute))

	items, err := FetchBatch(context.Background(), db, BatchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	wantOrder := []string{"high", "mid", "low"}
	for i, want := range wantOrder {
		if items[i].Topic.ID != want {
			t.Errorf("position %d: got %s, want %s", i, items[i].Topic.ID, want)
		}
		if items[i].Rank != i+1 {
			t.Errorf("position %d: rank = %d, want %d", i, items[i].Rank, i+1)
		}
	}
	if items[0].ScoreValue() != 0.9 {
		t.Fatalf("top score = %v, want 0.9", items[0].ScoreValue())
	}
}

func TestFetchBatchUsesLatestScore(t *testing.T) {
	db := newBatchDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	seedScoredCandidate(t, db, "t1", "Rescored topic", topic.StatusPending, 0.3, base)
	newer := topic.Score{TopicID: "t1", Score: 0.8, RunID: "run-2", CreatedAt: base.Add(time.Hour)}
	if _, err := db.Add(ctx, topic.ScoresCollection, newer); err != nil {
		t.Fatalf("seed newer score: %v", err)
	}

	items, err := FetchBatch(ctx, db, BatchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ScoreValue() != 0.8 || items[0].Score.RunID != "run-2" {
		t.Fatalf("expected the newest snapshot, got %+v", items[0].Score)
	}
}

func TestFetchBatchFiltersByStatus(t *testing.T) {
	db := newBatchDB(t)
	base := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	seedScoredCandidate(t, db, "p1", "Pending topic", topic.StatusPending, 0.5, base)
	seedScoredCandidate(t, db, "a1", "Approved topic", topic.StatusApproved, 0.9, base)

	items, err := FetchBatch(context.Background(), db, BatchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || items[0].Topic.ID != "p1" {
		t.Fatalf("default batch should only contain pending topics, got %+v", items)
	}

	items, err = FetchBatch(context.Background(), db, BatchOptions{Status: topic.StatusApproved, Limit: 10})
	if err != nil {
		t.Fatalf("fetch approved: %v", err)
	}
	if len(items) != 1 || items[0].Topic.ID != "a1" {
		t.Fatalf("expected the approved topic, got %+v", items)
	}
}

func TestFetchBatchMinScore(t *testing.T) {
	db := newBatchDB(t)
	base := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	seedScoredCandidate(t, db, "low", "Low scorer", topic.StatusPending, 0.2, base)
	seedScoredCandidate(t, db, "high", "High scorer", topic.StatusPending, 0.9, base)
	seedScoredCandidate(t, db, "unscored", "Never scored", topic.StatusPending, -1, base)

	min := 0.5
	items, err := FetchBatch(context.Background(), db, BatchOptions{Limit: 10, MinScore: &min})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || items[0].Topic.ID != "high" {
		t.Fatalf("positive threshold should drop low and unscored items, got %+v", items)
	}

	zero := 0.0
	items, err = FetchBatch(context.Background(), db, BatchOptions{Limit: 10, MinScore: &zero})
	if err != nil {
		t.Fatalf("fetch with zero threshold: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("zero threshold should keep unscored items, got %d", len(items))
	}
}

func TestFetchBatchSkipsUntitled(t *testing.T) {
	db := newBatchDB(t)
	base := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	seedScoredCandidate(t, db, "titled", "Real topic", topic.StatusPending, 0.5, base)
	seedScoredCandidate(t, db, "blank", "", topic.StatusPending, 0.9, base)

	items, err := FetchBatch(context.Background(), db, BatchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || items[0].Topic.ID != "titled" {
		t.Fatalf("untitled candidates should be skipped, got %+v", items)
	}
}

func TestFetchBatchManyTopics(t *testing.T) {
	db := newBatchDB(t)
	base := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	// More IDs than one "in" filter can hold, so score lookup must
	// batch.
	n := store.MaxInValues + 5
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("t%02d", i)
		seedScoredCandidate(t, db, id, "Topic "+id, topic.StatusPending,
			float64(i)/float64(n), base.Add(time.Duration(i)*time.Minute))
	}

	items, err := FetchBatch(context.Background(), db, BatchOptions{Limit: n})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != n {
		t.Fatalf("expected %d items, got %d", n, len(items))
	}
	for _, it := range items {
		if it.Score == nil {
			t.Fatalf("topic %s lost its score in batched lookup", it.Topic.ID)
		}
	}
	if items[0].Topic.ID != fmt.Sprintf("t%02d", n-1) {
		t.Fatalf("expected the highest scorer first, got %s", items[0].Topic.ID)
	}
}

func TestFetchBatchLimit(t *testing.T) {
	db := newBatchDB(t)
	base := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		id := fmt.Sprintf("t%d", i)
		seedScoredCandidate(t, db, id, "Topic "+id, topic.StatusPending, 0.5, base.Add(time.Duration(i)*time.Minute))
	}

	items, err := FetchBatch(context.Background(), db, BatchOptions{Limit: 3})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	// Newest candidates win when scores tie.
	for _, it := range items {
		if it.Topic.ID != "t5" && it.Topic.ID != "t4" && it.Topic.ID != "t3" {
			t.Fatalf("expected the newest candidates, got %s", it.Topic.ID)
		}
	}
}

func TestFetchBatchEmpty(t *testing.T) {
	db := newBatchDB(t)
	items, err := FetchBatch(context.Background(), db, BatchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
