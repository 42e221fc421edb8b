package scoring

import (
	"fmt"
	"math"

	"github.com/kojohq/topicscope/pkg/topic"
)

// halfLifeHours is the recency half-life: a topic loses half its
// recency score every 24 hours.
const halfLifeHours = 24.0

// Recency applies exponential time decay to the candidate's creation
// time. Future timestamps are treated as "now".
func (e *Engine) Recency(cand topic.Candidate) (float64, string) {
	now := e.now().UTC()

	ts := cand.CreatedAt
	if ts.IsZero() || ts.After(now) {
		ts = now
	}

	hoursOld := now.Sub(ts).Hours()
	if hoursOld < 0 {
		hoursOld = 0
	}

	decayRate := math.Ln2 / halfLifeHours
	recency := clamp01(math.Exp(-decayRate * hoursOld))

	var reasoning string
	switch {
	case hoursOld < 0.017:
		reasoning = fmt.Sprintf("Published %d seconds ago (very recent)", int(hoursOld*3600))
	case hoursOld < 1:
		reasoning = fmt.Sprintf("Published %d minutes ago (very recent)", int(hoursOld*60))
	case hoursOld < 24:
		reasoning = fmt.Sprintf("Published %.1f hours ago", hoursOld)
	default:
		reasoning = fmt.Sprintf("Published %.1f days ago (recency: %.2f)", hoursOld/24, recency)
	}

	return recency, reasoning
}
