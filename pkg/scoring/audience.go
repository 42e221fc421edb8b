package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/kojohq/topicscope/pkg/topic"
)

// Cluster-based audience fit baselines. Unknown clusters score 0.5.
var clusterAudienceScores = map[string]float64{
	"ai-infra":               0.9,
	"business-socioeconomic": 0.85,
	"culture-music":          0.7,
	"applied-industry":       0.6,
}

const defaultClusterScore = 0.5

// Keywords that boost audience fit when found in the title.
var trendyKeywords = []string{
	"ai", "artificial intelligence", "startup", "tech", "innovation",
	"trend", "breakthrough", "revolutionary", "disrupt", "unicorn",
	"funding", "series", "raise", "ipo",
}

const (
	keywordBoostStep = 0.03
	keywordBoostMax  = 0.15
	entityBoostStep  = 0.02
	entityBoostMax   = 0.10
)

// AudienceFitKeyword estimates audience fit from the candidate's
// cluster, trendy title keywords and entity richness.
func (e *Engine) AudienceFitKeyword(cand topic.Candidate) (float64, string) {
	baseScore, ok := clusterAudienceScores[cand.Cluster]
	if !ok {
		baseScore = defaultClusterScore
	}

	titleLower := strings.ToLower(cand.Title)
	var matches []string
	for _, kw := range trendyKeywords {
		if strings.Contains(titleLower, kw) {
			matches = append(matches, kw)
		}
	}
	keywordBoost := math.Min(keywordBoostMax, float64(len(matches))*keywordBoostStep)
	entityBoost := math.Min(entityBoostMax, float64(len(cand.Entities))*entityBoostStep)

	score := math.Min(1.0, baseScore+keywordBoost+entityBoost)

	reasons := []string{fmt.Sprintf("Cluster: %s (base: %.2f)", cand.Cluster, baseScore)}
	if len(matches) > 0 {
		shown := matches
		if len(shown) > 3 {
			shown = shown[:3]
		}
		reasons = append(reasons, "Trendy keywords: "+strings.Join(shown, ", "))
	}
	if len(cand.Entities) > 0 {
		reasons = append(reasons, fmt.Sprintf("Entities detected: %d", len(cand.Entities)))
	}

	return score, strings.Join(reasons, " | ")
}

// IntegrityPenaltyKeyword is the non-LLM integrity check. Without an
// LLM there is no signal, so the penalty is always zero.
func (e *Engine) IntegrityPenaltyKeyword() (float64, string) {
	return 0.0, "No integrity issues detected (LLM unavailable)"
}
