package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/kojohq/topicscope/pkg/topic"
)

// ExtractEngagement pulls the platform's engagement metric out of the
// raw payload. Comments count a tenth of an upvote; negative totals
// floor at zero. Platforms without engagement metrics return 0.
func ExtractEngagement(cand topic.Candidate) int {
	if len(cand.RawPayload) == 0 {
		return 0
	}
	payload := gjson.ParseBytes(cand.RawPayload)

	switch cand.Platform {
	case topic.PlatformReddit:
		score := payload.Get("score").Int()
		comments := payload.Get("num_comments").Int()
		engagement := int(score) + int(float64(comments)*0.1)
		if engagement < 0 {
			return 0
		}
		return engagement
	case topic.PlatformHackerNews:
		score := payload.Get("score").Int()
		comments := payload.Get("descendants").Int()
		engagement := int(score) + int(float64(comments)*0.1)
		if engagement < 0 {
			return 0
		}
		return engagement
	default:
		return 0
	}
}

// Velocity ranks the candidate's engagement against same-platform
// peers in the batch. With fewer than two peers it falls back to log
// normalization against the platform's typical maximum.
func (e *Engine) Velocity(cand topic.Candidate, batch []topic.Candidate) (float64, string) {
	engagement := ExtractEngagement(cand)
	if engagement <= 0 {
		return 0.0, "No engagement metrics available"
	}

	var peers []int
	for _, t := range batch {
		if t.Platform == cand.Platform {
			peers = append(peers, ExtractEngagement(t))
		}
	}

	if len(peers) >= 2 {
		sort.Ints(peers)
		rank := 0
		for _, p := range peers {
			if p < engagement {
				rank++
			}
		}
		percentile := float64(rank) / float64(len(peers)-1) * 100
		velocity := clamp01(percentile / 100)
		return velocity, fmt.Sprintf("Ranked in %.1fth percentile for %s engagement (%d points)",
			percentile, cand.Platform, engagement)
	}

	maxEngagement, ok := e.PlatformMax[cand.Platform]
	if !ok {
		maxEngagement = unknownPlatformMax
	}
	if maxEngagement <= 0 {
		return 0.0, fmt.Sprintf("%s platform has no engagement metrics", cand.Platform)
	}

	normalized := math.Log10(float64(engagement)+1) / math.Log10(float64(maxEngagement)+1)
	velocity := math.Min(1.0, normalized)

	if len(peers) == 1 {
		return velocity, fmt.Sprintf("Single topic from %s, normalized: %d/%d = %.2f",
			cand.Platform, engagement, maxEngagement, velocity)
	}
	return velocity, fmt.Sprintf("Normalized engagement: %d/%d = %.2f",
		engagement, maxEngagement, velocity)
}
