package sources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

// seedWindow is how many recent candidates are loaded to prime the
// deduper before a run.
const seedWindow = 500

// Ingestor pulls raw topics from every configured source, enriches
// them and persists new candidates as pending.
type Ingestor struct {
	DB      *store.DB
	Sources []Source
	now     func() time.Time
}

func NewIngestor(db *store.DB, srcs ...Source) *Ingestor {
	return &Ingestor{DB: db, Sources: srcs, now: time.Now}
}

// Result summarizes one ingestion run.
type Result struct {
	Fetched    int
	Stored     int
	Duplicates int
	Errors     []error
}

// Run fetches up to limit topics per source. Source failures are
// collected, not fatal; a run succeeds if any source succeeds.
func (ing *Ingestor) Run(ctx context.Context, limit int) (*Result, error) {
	dedup := NewDeduper()
	if err := ing.seedDeduper(ctx, dedup); err != nil {
		utils.Log.Warnf("could not load recent candidates for dedup: %v", err)
	}

	result := &Result{}
	for _, src := range ing.Sources {
		raw, err := src.Fetch(ctx, limit)
		if err != nil {
			utils.Log.Warnf("source %s failed: %v", src.Name(), err)
			result.Errors = append(result.Errors, err)
		}

		for _, rt := range raw {
			if rt.Title == "" {
				continue
			}
			result.Fetched++

			if dedup.Seen(rt) {
				result.Duplicates++
				continue
			}

			cand := ing.buildCandidate(rt)
			if err := ing.DB.Set(ctx, topic.CandidatesCollection, cand.ID, cand); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			result.Stored++
		}
	}

	utils.Log.Infof("ingested %d new candidates (%d fetched, %d duplicates)",
		result.Stored, result.Fetched, result.Duplicates)
	return result, nil
}

// IngestOne stores a single raw topic, typically a manual entry.
// Returns the candidate and whether it was newly stored.
func (ing *Ingestor) IngestOne(ctx context.Context, rt RawTopic) (topic.Candidate, bool, error) {
	cand := ing.buildCandidate(rt)

	var existing topic.Candidate
	err := ing.DB.Get(ctx, topic.CandidatesCollection, cand.ID, &existing)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return topic.Candidate{}, false, err
	}

	if err := ing.DB.Set(ctx, topic.CandidatesCollection, cand.ID, cand); err != nil {
		return topic.Candidate{}, false, err
	}
	return cand, true, nil
}

func (ing *Ingestor) buildCandidate(rt RawTopic) topic.Candidate {
	entities := ExtractEntities(rt.Title)
	metadata := map[string]any{}
	if rt.Author != "" {
		metadata["author"] = rt.Author
	}
	if !rt.PublishedAt.IsZero() {
		metadata["published_at"] = rt.PublishedAt.UTC().Format(time.RFC3339)
	}

	return topic.Candidate{
		ID:         topic.GenerateID(rt.Platform, rt.Title, rt.PublishedAt),
		Platform:   rt.Platform,
		SourceURL:  rt.SourceURL,
		Title:      rt.Title,
		RawPayload: rt.RawPayload,
		Entities:   entities,
		Cluster:    ClusterTopic(rt.Title, entities),
		Status:     topic.StatusPending,
		CreatedAt:  ing.now().UTC(),
		Metadata:   metadata,
	}
}

func (ing *Ingestor) seedDeduper(ctx context.Context, dedup *Deduper) error {
	raw, err := ing.DB.Query(ctx, topic.CandidatesCollection, nil, store.QueryOptions{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   seedWindow,
	})
	if err != nil {
		return err
	}
	for _, r := range raw {
		var cand topic.Candidate
		if err := json.Unmarshal(r, &cand); err != nil {
			continue
		}
		dedup.Remember(cand.Title, cand.SourceURL)
	}
	return nil
}
