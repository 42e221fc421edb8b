package scoring

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/jobs"
	"github.com/kojohq/topicscope/pkg/store"
	"github.com/kojohq/topicscope/pkg/topic"
)

// Runner loads pending candidates, scores the whole batch and
// persists one immutable score snapshot per candidate.
type Runner struct {
	DB      *store.DB
	Engine  *Engine
	Tracker *jobs.Tracker
	now     func() time.Time
}

func NewRunner(db *store.DB, engine *Engine) *Runner {
	return &Runner{
		DB:      db,
		Engine:  engine,
		Tracker: jobs.NewTracker(db),
		now:     time.Now,
	}
}

// RunResult summarizes one scoring run.
type RunResult struct {
	RunID          string
	Scored         int
	Remaining      int
	SpentUSD       float64
	BudgetExceeded bool
}

// Run scores up to limit pending candidates. The full batch is loaded
// before any scoring so velocity percentiles see every same-platform
// peer. When the LLM budget runs out mid-batch, the run stops before
// the next topic; snapshots already written are kept.
func (r *Runner) Run(ctx context.Context, limit int, useLLM bool, budgetUSD float64) (*RunResult, error) {
	jobRun, err := r.Tracker.Start(ctx, "score")
	if err != nil {
		utils.Log.Warnf("could not record job run: %v", err)
	}

	batch, err := r.loadPending(ctx, limit)
	if err != nil {
		if jobRun != nil {
			_ = r.Tracker.Fail(ctx, jobRun, err)
		}
		return nil, err
	}

	guard := NewCostGuard(budgetUSD)
	runID := newRunID()
	result := &RunResult{RunID: runID}

	for i := range batch {
		cand := &batch[i]

		// Estimate-ahead check: stop before a topic the budget cannot
		// cover rather than degrading it to keywords.
		if useLLM && !guard.CanScoreTopic() {
			result.Remaining = len(batch) - i
			break
		}

		eval := r.Engine.Evaluate(ctx, cand, batch, Options{UseLLM: useLLM, Guard: guard})

		snapshot := topic.Score{
			TopicID:    cand.ID,
			Score:      eval.Score,
			Components: eval.Components,
			Reasoning:  eval.Reasoning,
			Weights:    eval.Weights,
			RunID:      runID,
			CreatedAt:  r.now().UTC(),
		}
		if eval.CostUSD > 0 {
			snapshot.Metadata = map[string]any{"llm_cost_usd": eval.CostUSD}
		}

		if _, err := r.DB.Add(ctx, topic.ScoresCollection, snapshot); err != nil {
			utils.Log.Errorf("failed to persist score for topic %s: %v", cand.ID, err)
			continue
		}

		// Persist refreshed LLM cache entries.
		if eval.CostUSD > 0 {
			if err := r.DB.Set(ctx, topic.CandidatesCollection, cand.ID, cand); err != nil {
				utils.Log.Warnf("failed to persist scoring cache for topic %s: %v", cand.ID, err)
			}
		}
		result.Scored++
	}

	result.SpentUSD = guard.Spent()
	result.BudgetExceeded = guard.Exceeded()
	if result.BudgetExceeded {
		utils.Log.Warnf("llm budget of $%.4f reached after $%.4f, stopping with %d topics unscored",
			budgetUSD, result.SpentUSD, result.Remaining)
	}

	if jobRun != nil {
		counters := map[string]int{
			"scored":          result.Scored,
			"remaining":       result.Remaining,
			"llm_cost_milli":  int(result.SpentUSD * 1000),
			"budget_exceeded": boolToInt(result.BudgetExceeded),
		}
		if err := r.Tracker.Complete(ctx, jobRun, counters); err != nil {
			utils.Log.Warnf("could not finish job run record: %v", err)
		}
	}

	utils.Log.Infof("scoring run %s: %d topics scored, $%.4f spent", runID, result.Scored, result.SpentUSD)
	return result, nil
}

// loadPending fetches the newest pending candidates. If the ordered
// query fails (some backends reject ordering on unindexed fields), it
// degrades to an unordered fetch with an in-memory sort.
func (r *Runner) loadPending(ctx context.Context, limit int) ([]topic.Candidate, error) {
	filters := []store.Filter{store.Where("status", store.OpEq, string(topic.StatusPending))}

	raw, err := r.DB.Query(ctx, topic.CandidatesCollection, filters, store.QueryOptions{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		utils.Log.Warnf("ordered candidate query failed, retrying unordered: %v", err)
		raw, err = r.DB.Query(ctx, topic.CandidatesCollection, filters, store.QueryOptions{})
		if err != nil {
			return nil, err
		}
	}

	var batch []topic.Candidate
	for _, doc := range raw {
		var cand topic.Candidate
		if err := json.Unmarshal(doc, &cand); err != nil {
			utils.Log.Warnf("skipping undecodable candidate: %v", err)
			continue
		}
		batch = append(batch, cand)
	}

	sort.Slice(batch, func(i, j int) bool {
		return batch[i].CreatedAt.After(batch[j].CreatedAt)
	})
	if limit > 0 && len(batch) > limit {
		batch = batch[:limit]
	}
	return batch, nil
}

func newRunID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "run-" + hex.EncodeToString(buf)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
