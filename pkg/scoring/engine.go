// Package scoring computes engagement-potential scores for topic
// candidates. A score is a weighted blend of recency, velocity and
// audience fit, plus a subtractive integrity penalty. Audience fit and
// integrity can be upgraded from keyword heuristics to LLM assessments
// when a budget allows it.
package scoring

import (
	"context"
	"math"
	"time"

	"github.com/kojohq/topicscope/internal/utils"
	"github.com/kojohq/topicscope/pkg/llm"
	"github.com/kojohq/topicscope/pkg/topic"
)

// DefaultWeights blend the three positive components.
var DefaultWeights = map[string]float64{
	topic.ComponentRecency:  0.3,
	topic.ComponentVelocity: 0.4,
	topic.ComponentAudience: 0.3,
}

// DefaultPlatformMax holds typical peak engagement per platform, used
// to normalize velocity when a percentile cannot be computed. Zero
// means the platform carries no engagement metrics.
var DefaultPlatformMax = map[topic.Platform]int{
	topic.PlatformReddit:     1000,
	topic.PlatformHackerNews: 500,
	topic.PlatformRSS:        0,
	topic.PlatformManual:     0,
}

// unknownPlatformMax normalizes engagement for platforms missing from
// the table.
const unknownPlatformMax = 100

type Engine struct {
	Weights     map[string]float64
	PlatformMax map[topic.Platform]int
	// LLM is optional; nil restricts scoring to keyword heuristics.
	LLM *llm.Client

	now func() time.Time
}

func NewEngine(client *llm.Client) *Engine {
	return &Engine{
		Weights:     DefaultWeights,
		PlatformMax: DefaultPlatformMax,
		LLM:         client,
		now:         time.Now,
	}
}

// Evaluation is the outcome of scoring one candidate.
type Evaluation struct {
	Score      float64
	Components map[string]float64
	Reasoning  map[string]string
	Weights    map[string]float64
	CostUSD    float64
}

// Options control a single evaluation.
type Options struct {
	// UseLLM enables LLM-backed audience fit and integrity checks.
	UseLLM bool
	// Guard limits LLM spend; required when UseLLM is set.
	Guard *CostGuard
}

// Evaluate scores one candidate. batch supplies same-run peers for the
// velocity percentile. The candidate's metadata may be updated with
// fresh LLM cache entries; callers persist it.
func (e *Engine) Evaluate(ctx context.Context, cand *topic.Candidate, batch []topic.Candidate, opts Options) Evaluation {
	recency, recencyWhy := e.Recency(*cand)
	velocity, velocityWhy := e.Velocity(*cand, batch)

	var (
		audience     float64
		audienceWhy  string
		integrity    float64
		integrityWhy string
		cost         float64
	)

	if opts.UseLLM && e.LLM != nil {
		var audienceCost, integrityCost float64
		audience, audienceWhy, audienceCost = e.audienceFitLLM(ctx, cand, opts.Guard)
		integrity, integrityWhy, integrityCost = e.integrityPenaltyLLM(ctx, cand, opts.Guard)
		cost = audienceCost + integrityCost
	} else {
		audience, audienceWhy = e.AudienceFitKeyword(*cand)
		integrity, integrityWhy = e.IntegrityPenaltyKeyword()
	}

	score := e.Composite(recency, velocity, audience, integrity)

	return Evaluation{
		Score: score,
		Components: map[string]float64{
			topic.ComponentRecency:   recency,
			topic.ComponentVelocity:  velocity,
			topic.ComponentAudience:  audience,
			topic.ComponentIntegrity: integrity,
		},
		Reasoning: map[string]string{
			topic.ComponentRecency:   recencyWhy,
			topic.ComponentVelocity:  velocityWhy,
			topic.ComponentAudience:  audienceWhy,
			topic.ComponentIntegrity: integrityWhy,
		},
		Weights: copyWeights(e.Weights),
		CostUSD: cost,
	}
}

// Composite blends the components into the final score. Weights are
// normalized locally when they do not sum to 1; the penalty is applied
// after blending and the result is clamped to [0, 1].
func (e *Engine) Composite(recency, velocity, audience, integrityPenalty float64) float64 {
	wr := e.Weights[topic.ComponentRecency]
	wv := e.Weights[topic.ComponentVelocity]
	wa := e.Weights[topic.ComponentAudience]

	sum := wr + wv + wa
	if math.Abs(sum-1.0) > 0.01 && sum > 0 {
		utils.Log.Warnf("score weights sum to %.3f, normalizing for this calculation", sum)
		wr /= sum
		wv /= sum
		wa /= sum
	}

	score := wr*recency + wv*velocity + wa*audience + integrityPenalty
	return clamp01(score)
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func copyWeights(w map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
