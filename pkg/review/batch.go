package review

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

// Item joins a candidate with its latest score for display.
type Item struct {
	Rank  int
	Topic topic.Candidate
	// Score is nil when the candidate has never been scored.
	Score *topic.Score
}

// ScoreValue returns the item's score, zero when unscored.
func (it Item) ScoreValue() float64 {
	if it.Score == nil {
		return 0
	}
	return it.Score.Score
}

// BatchOptions filter the review batch.
type BatchOptions struct {
	Status topic.Status
	Limit  int
	// MinScore drops items scoring below it. Unscored items survive
	// only a non-positive threshold.
	MinScore *float64
}

// FetchBatch loads candidates with the given status joined to their
// latest scores, ranked by score descending. Candidates without a
// title are skipped.
func FetchBatch(ctx context.Context, db *store.DB, opts BatchOptions) ([]Item, error) {
	status := opts.Status
	if status == "" {
		status = topic.StatusPending
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	cands, err := fetchCandidates(ctx, db, status, limit)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(cands))
	for _, c := range cands {
		ids = append(ids, c.ID)
	}
	scores := fetchLatestScores(ctx, db, ids)

	var items []Item
	for _, c := range cands {
		score := scores[c.ID]
		if opts.MinScore != nil {
			if score == nil {
				if *opts.MinScore > 0 {
					continue
				}
			} else if score.Score < *opts.MinScore {
				continue
			}
		}
		items = append(items, Item{Topic: c, Score: score})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ScoreValue() > items[j].ScoreValue()
	})
	for i := range items {
		items[i].Rank = i + 1
	}
	return items, nil
}

// fetchCandidates loads up to limit candidates newest first. Extra
// rows are fetched so title-less documents can be dropped without
// shrinking the batch.
func fetchCandidates(ctx context.Context, db *store.DB, status topic.Status, limit int) ([]topic.Candidate, error) {
	filters := []store.Filter{store.Where("status", store.OpEq, string(status))}

	raw, err := db.Query(ctx, topic.CandidatesCollection, filters, store.QueryOptions{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   limit * 2,
	})
	if err != nil {
		utils.Log.Warnf("ordered candidate query failed, retrying unordered: %v", err)
		raw, err = db.Query(ctx, topic.CandidatesCollection, filters, store.QueryOptions{})
		if err != nil {
			return nil, err
		}
	}

	var cands []topic.Candidate
	for _, doc := range raw {
		var c topic.Candidate
		if err := json.Unmarshal(doc, &c); err != nil {
			continue
		}
		if c.Title == "" {
			utils.Log.Warnf("skipping topic %s: missing title", c.ID)
			continue
		}
		cands = append(cands, c)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].CreatedAt.After(cands[j].CreatedAt)
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands, nil
}

// fetchLatestScores loads the newest score per topic. The "in" filter
// caps at ten values, so IDs are queried in batches.
func fetchLatestScores(ctx context.Context, db *store.DB, topicIDs []string) map[string]*topic.Score {
	out := make(map[string]*topic.Score)

	for start := 0; start < len(topicIDs); start += store.MaxInValues {
		end := start + store.MaxInValues
		if end > len(topicIDs) {
			end = len(topicIDs)
		}
		batch := topicIDs[start:end]

		filters := []store.Filter{store.Where("topic_id", store.OpIn, batch)}
		raw, err := db.Query(ctx, topic.ScoresCollection, filters, store.QueryOptions{
			OrderBy: "created_at",
			Desc:    true,
		})
		if err != nil {
			raw, err = db.Query(ctx, topic.ScoresCollection, filters, store.QueryOptions{})
			if err != nil {
				utils.Log.Warnf("failed to fetch scores for batch: %v", err)
				continue
			}
		}

		var scores []topic.Score
		for _, doc := range raw {
			var s topic.Score
			if err := json.Unmarshal(doc, &s); err != nil {
				continue
			}
			scores = append(scores, s)
		}
		sort.SliceStable(scores, func(i, j int) bool {
			return scores[i].CreatedAt.After(scores[j].CreatedAt)
		})

		for i := range scores {
			s := scores[i]
			if _, seen := out[s.TopicID]; !seen {
				out[s.TopicID] = &scores[i]
			}
		}
	}
	return out
}
